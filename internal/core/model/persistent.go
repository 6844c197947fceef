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

// Package model defines the core data structures for the application.
// This file, `persistent.go`, holds the rows written to BigQuery so that a
// finished analysis can be looked up again by video name.
package model

import (
	"time"

	"github.com/google/uuid"
)

// TimelineRecord is one completed analysis of a video.
type TimelineRecord struct {
	Id         string           `json:"id" bigquery:"id"`
	SessionId  string           `json:"session_id" bigquery:"session_id"`
	VideoName  string           `json:"video_name" bigquery:"video_name"`
	Mode       string           `json:"mode" bigquery:"mode"`
	Summary    string           `json:"summary" bigquery:"summary"`
	CreateDate time.Time        `json:"create_date" bigquery:"create_date"`
	Segments   []*SegmentRecord `json:"segments" bigquery:"segments"`
}

// SegmentRecord is the repeated child row of TimelineRecord.
type SegmentRecord struct {
	SequenceNumber int    `json:"sequence_number" bigquery:"sequence_number"`
	StartMs        int64  `json:"start_ms" bigquery:"start_ms"`
	EndMs          int64  `json:"end_ms" bigquery:"end_ms"`
	Type           string `json:"type" bigquery:"type"`
	Description    string `json:"description" bigquery:"description"`
	SceneFile      string `json:"scene_file" bigquery:"scene_file"`
	AudioFile      string `json:"audio_file" bigquery:"audio_file"`
}

// NewTimelineRecord flattens a timeline into a record with a fresh random id.
func NewTimelineRecord(sessionId string, videoName string, mode DescribeMode, summary string, timeline Timeline) *TimelineRecord {
	r := &TimelineRecord{
		Id:         uuid.NewString(),
		SessionId:  sessionId,
		VideoName:  videoName,
		Mode:       string(mode),
		Summary:    summary,
		CreateDate: time.Now(),
		Segments:   make([]*SegmentRecord, 0, len(timeline)),
	}
	for i, seg := range timeline {
		rec := &SegmentRecord{
			SequenceNumber: i + 1,
			StartMs:        int64(seg.Start),
			EndMs:          int64(seg.End),
			Type:           seg.Label.String(),
		}
		if seg.Description != nil {
			rec.Description = seg.Description.Text
			rec.SceneFile = seg.Description.SceneFile
			rec.AudioFile = seg.Description.AudioFile
		}
		r.Segments = append(r.Segments, rec)
	}
	return r
}

// Timeline rebuilds the segments of a stored record in sequence order.
func (r *TimelineRecord) Timeline() (Timeline, error) {
	out := make(Timeline, len(r.Segments))
	for _, rec := range r.Segments {
		idx := rec.SequenceNumber - 1
		if idx < 0 || idx >= len(out) {
			return nil, Invalid("model.TimelineRecord", "segment sequence %d out of range", rec.SequenceNumber)
		}
		label, err := ParseLabel(rec.Type)
		if err != nil {
			return nil, err
		}
		span := Span{Start: TimePoint(rec.StartMs), End: TimePoint(rec.EndMs)}
		if label == Talking {
			out[idx] = TalkingSegment(span)
			continue
		}
		var d *Description
		if rec.Description != "" {
			d = &Description{Text: rec.Description, SceneFile: rec.SceneFile, AudioFile: rec.AudioFile}
		}
		out[idx] = NoTalkingSegment(span, d)
	}
	return out, nil
}
