// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command for persisting a finished timeline to Google BigQuery.
//
// Logic Flow:
// This is the final storage step of the describe workflows, so a video can
// be looked up again by name after its session has expired.
//
//  1. It reads the described timeline, the session, the video name, the mode
//     and the summary from the context.
//  2. It flattens them into a `model.TimelineRecord` with one repeated
//     segment row per timeline entry.
//  3. It inserts the record through the table's inserter. BigQuery infers
//     the row schema from the struct tags.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

// RowInserter streams rows into a table. *bigquery.Inserter implements it.
type RowInserter interface {
	Put(ctx context.Context, src any) error
}

// TimelinePersistToBigQuery is a command that saves a timeline record.
type TimelinePersistToBigQuery struct {
	cor.BaseCommand
	inserter RowInserter // The inserter of the timeline table.
}

// NewTimelinePersistToBigQuery is the constructor for TimelinePersistToBigQuery.
//
// Inputs:
//   - name: A string name for this command instance.
//   - inserter: The inserter of the target table, e.g.
//     client.Dataset(dataset).Table(table).Inserter().
//
// Outputs:
//   - *TimelinePersistToBigQuery: A pointer to the newly instantiated command.
func NewTimelinePersistToBigQuery(name string, inserter RowInserter) *TimelinePersistToBigQuery {
	out := &TimelinePersistToBigQuery{BaseCommand: *cor.NewBaseCommand(name), inserter: inserter}
	out.InputParamName = ParamTimeline
	return out
}

// Execute builds the record and inserts it.
func (s *TimelinePersistToBigQuery) Execute(context cor.Context) {
	tl := context.Get(s.GetInputParam()).(model.Timeline)
	videoName := stringParam(context, ParamVideoName)
	mode, _ := context.Get(ParamMode).(model.DescribeMode)
	sessionID := ""
	if session, err := sessionFrom(context); err == nil {
		sessionID = session.ID
	}

	record := model.NewTimelineRecord(sessionID, videoName, mode, stringParam(context, ParamSummary), tl)
	if err := s.inserter.Put(context.GetContext(), record); err != nil {
		s.Fail(context, model.External(s.GetName(), fmt.Errorf("bigquery insert failed for video '%s': %w", videoName, err), ""))
		return
	}

	s.Succeed(context)
	slog.InfoContext(context.GetContext(), "persisted timeline", "video", videoName, "id", record.Id, "segments", len(record.Segments))
	context.Add(cor.CtxOut, record)
}
