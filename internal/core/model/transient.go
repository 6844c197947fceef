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
// This file, `transient.go`, contains the in-memory shapes that commands pass
// between each other while a workflow runs. None of them are persisted as-is.
package model

// MediaFormatFilter defines the output format and width of a proxy
// transcode, such as the low resolution copy sent for talking detection.
type MediaFormatFilter struct {
	Format string // e.g., "mp4", "webm"
	Width  int    // e.g., 240, 480; zero keeps the source resolution
}

// DescribeMode selects how non-dialogue segments are found.
type DescribeMode string

const (
	// ModeSegments asks the vision model for a full TALKING / NO_TALKING
	// segmentation and merges it.
	ModeSegments DescribeMode = "segments"
	// ModeScenes detects visual scene cuts locally and keeps only the parts of
	// each scene that fall outside the talking intervals.
	ModeScenes DescribeMode = "scenes"
)

// ParseDescribeMode defaults an empty mode to ModeSegments.
func ParseDescribeMode(s string) (DescribeMode, error) {
	switch DescribeMode(s) {
	case "", ModeSegments:
		return ModeSegments, nil
	case ModeScenes:
		return ModeScenes, nil
	}
	return "", Invalid("model.ParseDescribeMode", "unknown mode %q", s)
}

// RawInterval is a segment as reported by the vision model, with textual
// timestamps that still need to be parsed.
type RawInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Type  string `json:"type"`
}

// EncodeRequest carries the parallel arrays returned by a describe call back
// to the encoder, possibly edited by the user in between.
type EncodeRequest struct {
	SessionID     string         `json:"session_id"`
	VideoFileName string         `json:"video_file_name"`
	Descriptions  []string       `json:"descriptions"`
	Timestamps    [][2]TimePoint `json:"timestamps"`
	AudioFiles    []*string      `json:"audio_files"`
}

// Validate checks the arrays are parallel and every timestamp pair is ordered.
func (r *EncodeRequest) Validate() error {
	const op = "model.EncodeRequest"
	if r.VideoFileName == "" {
		return Invalid(op, "video_file_name is required")
	}
	if len(r.Descriptions) != len(r.Timestamps) {
		return Invalid(op, "%d descriptions for %d timestamps", len(r.Descriptions), len(r.Timestamps))
	}
	if r.AudioFiles != nil && len(r.AudioFiles) != len(r.Descriptions) {
		return Invalid(op, "%d audio files for %d descriptions", len(r.AudioFiles), len(r.Descriptions))
	}
	for i, ts := range r.Timestamps {
		if ts[0] < 0 || ts[1] <= ts[0] {
			return Invalid(op, "timestamp %d [%d, %d] is not a valid interval", i, ts[0], ts[1])
		}
	}
	return nil
}

// Narratable reports whether entry i carries text that should be spoken.
func (r *EncodeRequest) Narratable(i int) bool {
	switch d := r.Descriptions[i]; d {
	case "", TalkingSentinel, NoTalkingSentinel:
		return false
	}
	return true
}

// AudioFile returns the audio reference for entry i, or "" when absent.
func (r *EncodeRequest) AudioFile(i int) string {
	if i >= len(r.AudioFiles) || r.AudioFiles[i] == nil {
		return ""
	}
	return *r.AudioFiles[i]
}

// CompletionEvent is published once a triggered workflow finishes.
type CompletionEvent struct {
	SessionID string `json:"session_id"`
	VideoName string `json:"video_name"`
	Mode      string `json:"mode"`
	Segments  int    `json:"segments"`
	Described int    `json:"described"`
	Error     string `json:"error,omitempty"`
}
