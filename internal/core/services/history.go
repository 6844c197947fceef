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

// Package services contains the business logic between the workflow
// commands and the adapters. This file reads persisted timelines from
// BigQuery so a video can be reopened without analysing it again.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

// TimelineHistoryService reads finished analyses back out of BigQuery.
type TimelineHistoryService struct {
	BigqueryClient *bigquery.Client // Client for interacting with Google BigQuery.
	DatasetName    string           // The name of the BigQuery dataset (e.g., "audio_ds").
	TimelineTable  string           // The table written by the persist command.
}

// GetFQN returns the table name in the dotted form standard SQL expects,
// e.g. `gcp-project-id.audio_ds.timelines`.
func (s *TimelineHistoryService) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.TimelineTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", 1)
}

// Latest returns the newest record for videoName, or a SourceNotFound error
// when the video was never analysed.
func (s *TimelineHistoryService) Latest(ctx context.Context, videoName string) (*model.TimelineRecord, error) {
	return s.queryOne(ctx, QryLatestTimeline, "video_name", videoName)
}

// BySession returns the record written by a session.
func (s *TimelineHistoryService) BySession(ctx context.Context, sessionID string) (*model.TimelineRecord, error) {
	return s.queryOne(ctx, QryTimelineBySession, "session_id", sessionID)
}

func (s *TimelineHistoryService) queryOne(ctx context.Context, query string, param string, value string) (*model.TimelineRecord, error) {
	const op = "bigquery timeline"
	if s.BigqueryClient == nil {
		return nil, model.NotFound(op, "timeline history is not configured")
	}
	q := s.BigqueryClient.Query(fmt.Sprintf(query, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: param, Value: value}}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, model.External(op, err, "")
	}
	record := &model.TimelineRecord{}
	err = itr.Next(record)
	if errors.Is(err, iterator.Done) {
		return nil, model.NotFound(op, "no timeline for %s %q", param, value)
	}
	if err != nil {
		return nil, model.External(op, err, "")
	}
	return record, nil
}
