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

package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// MessageScenesDetected is the fixed message of a successful describe call.
const MessageScenesDetected = "Scene changes detected successfully"

// Response is the parallel array document returned to clients. Index i of
// every array refers to the same segment.
type Response struct {
	Message      string         `json:"message"`
	SessionID    string         `json:"session_id,omitempty"`
	VideoName    string         `json:"video_file_name,omitempty"`
	Summary      string         `json:"summary,omitempty"`
	Descriptions []string       `json:"descriptions"`
	Timestamps   [][2]TimePoint `json:"timestamps"`
	SceneFiles   []string       `json:"scene_files"`
	AudioFiles   []*string      `json:"audio_files"`
}

// SegmentView is the per-segment shape used by the reanalyze round trip.
type SegmentView struct {
	Start       TimePoint `json:"start"`
	End         TimePoint `json:"end"`
	Type        string    `json:"type,omitempty"`
	Description string    `json:"description"`
	SceneFile   string    `json:"scene_file,omitempty"`
	AudioFile   *string   `json:"audio_file"`
}

// Segment converts a client supplied view back to a segment. When the type is
// absent it is inferred from the description sentinel.
func (v SegmentView) Segment() (Segment, error) {
	const op = "model.SegmentView"
	span := Span{Start: v.Start, End: v.End}
	if !span.Valid() {
		return Segment{}, Invalid(op, "segment [%d, %d] is not a valid interval", v.Start, v.End)
	}
	label := NoTalking
	if v.Type != "" {
		parsed, err := ParseLabel(v.Type)
		if err != nil {
			return Segment{}, err
		}
		label = parsed
	} else if v.Description == TalkingSentinel {
		label = Talking
	}
	if label == Talking {
		return TalkingSegment(span), nil
	}
	if v.Description == "" || v.Description == NoTalkingSentinel {
		return NoTalkingSegment(span, nil), nil
	}
	d := &Description{Text: v.Description, SceneFile: v.SceneFile}
	if v.AudioFile != nil {
		d.AudioFile = *v.AudioFile
	}
	return NoTalkingSegment(span, d), nil
}

// ReanalyzeRequest asks for descriptions of the requested segments, reusing
// whatever the previous analysis already described.
type ReanalyzeRequest struct {
	VideoName     string        `json:"video_name"`
	OldData       []SegmentView `json:"old_data"`
	NewTimestamps SpanList      `json:"new_timestamps"`
	Summary       string        `json:"summary,omitempty"`
}

// SpanList decodes either a JSON list of [start, end] pairs or the compact
// string form "start-end,start-end" in milliseconds.
type SpanList []Span

func (l *SpanList) UnmarshalJSON(b []byte) error {
	var compact string
	if err := json.Unmarshal(b, &compact); err == nil {
		parsed, err := ParseSpanList(compact)
		if err != nil {
			return err
		}
		*l = parsed
		return nil
	}
	var pairs [][2]TimePoint
	if err := json.Unmarshal(b, &pairs); err != nil {
		return Invalid("model.SpanList", "expected \"start-end,...\" or [[start, end], ...]: %v", err)
	}
	out := make(SpanList, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, Span{Start: p[0], End: p[1]})
	}
	*l = out
	return nil
}

// ParseSpanList parses "start-end,start-end". Entries without a dash are
// skipped.
func ParseSpanList(s string) (SpanList, error) {
	const op = "model.ParseSpanList"
	out := make(SpanList, 0)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		startText, endText, ok := strings.Cut(item, "-")
		if !ok {
			continue
		}
		start, err := strconv.ParseInt(strings.TrimSpace(startText), 10, 64)
		if err != nil {
			return nil, Invalid(op, "bad start in %q", item)
		}
		end, err := strconv.ParseInt(strings.TrimSpace(endText), 10, 64)
		if err != nil {
			return nil, Invalid(op, "bad end in %q", item)
		}
		out = append(out, Span{Start: TimePoint(start), End: TimePoint(end)})
	}
	return out, nil
}

// MessageReanalyzed is the fixed message of a successful reanalyze call.
const MessageReanalyzed = "Timeline reanalyzed successfully"

// ReanalyzeResponse lists every segment of the reconciled timeline and the
// spans that were described again.
type ReanalyzeResponse struct {
	Message       string        `json:"message"`
	SessionID     string        `json:"session_id,omitempty"`
	Segments      []SegmentView `json:"segments"`
	Changed       []Span        `json:"changed"`
	WaveformImage string        `json:"waveform_image,omitempty"`
}

// NarrationItem is one text to voice in a standalone narration request.
type NarrationItem struct {
	Description string       `json:"description"`
	Timestamps  [2]TimePoint `json:"timestamps"`
	SceneID     string       `json:"scene_id,omitempty"`
}

// NarrationResult names the audio produced for a NarrationItem.
type NarrationResult struct {
	Description string       `json:"description"`
	Timestamps  [2]TimePoint `json:"timestamps"`
	AudioFile   string       `json:"audio_file"`
}

// NarrationResponse wraps the results of a narration request.
type NarrationResponse struct {
	AudioFiles []NarrationResult `json:"audio_files"`
}
