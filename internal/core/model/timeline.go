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

// Package model holds the value types shared by every layer of the audio
// description service: time points, labelled segments, descriptions, the
// response document and the typed errors.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// TimePoint is an offset into a video in whole milliseconds.
type TimePoint int64

// Label tags a segment as containing dialogue or not.
type Label int

const (
	Talking Label = iota + 1
	NoTalking
)

// Sentinel strings used on the wire in place of a description.
const (
	TalkingSentinel   = "TALKING"
	NoTalkingSentinel = "NO_TALKING"
)

func (l Label) String() string {
	switch l {
	case Talking:
		return TalkingSentinel
	case NoTalking:
		return NoTalkingSentinel
	default:
		return "UNKNOWN"
	}
}

func (l Label) MarshalText() ([]byte, error) {
	if l != Talking && l != NoTalking {
		return nil, fmt.Errorf("cannot marshal label %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *Label) UnmarshalText(b []byte) error {
	parsed, err := ParseLabel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLabel accepts TALKING and NO_TALKING in any case, with spaces or
// hyphens standing in for the underscore.
func ParseLabel(s string) (Label, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	switch normalized {
	case TalkingSentinel:
		return Talking, nil
	case NoTalkingSentinel:
		return NoTalking, nil
	}
	return 0, Invalid("model.ParseLabel", "unknown segment type %q", s)
}

// Span is a half-open interval of a video, [Start, End).
type Span struct {
	Start TimePoint `json:"start"`
	End   TimePoint `json:"end"`
}

func (s Span) Duration() TimePoint {
	return s.End - s.Start
}

// Valid reports whether the span is non-empty and starts at or after zero.
func (s Span) Valid() bool {
	return s.Start >= 0 && s.Start < s.End
}

// Less orders spans by start, then by end.
func (s Span) Less(o Span) bool {
	if s.Start != o.Start {
		return s.Start < o.Start
	}
	return s.End < o.End
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// SortSpans sorts spans in place by start, then end.
func SortSpans(spans []Span) {
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Less(spans[j]) })
}

// Description is the generated narration for a non-dialogue segment along
// with the artifacts produced for it.
type Description struct {
	Text      string `json:"text"`
	SceneFile string `json:"scene_file,omitempty"`
	AudioFile string `json:"audio_file,omitempty"`
}

// Segment is a labelled span. Only NoTalking segments carry a description,
// and a NoTalking segment without one has not been described yet.
type Segment struct {
	Span
	Label       Label
	Description *Description
}

func TalkingSegment(span Span) Segment {
	return Segment{Span: span, Label: Talking}
}

func NoTalkingSegment(span Span, description *Description) Segment {
	return Segment{Span: span, Label: NoTalking, Description: description}
}

// Described reports whether the segment holds generated narration.
func (s Segment) Described() bool {
	return s.Label == NoTalking && s.Description != nil
}

// Clone returns a copy that shares no memory with s.
func (s Segment) Clone() Segment {
	if s.Description != nil {
		d := *s.Description
		s.Description = &d
	}
	return s
}

// Timeline is an ordered sequence of segments.
type Timeline []Segment

// Spans returns the span of every segment with the given label.
func (t Timeline) Spans(label Label) []Span {
	out := make([]Span, 0, len(t))
	for _, seg := range t {
		if seg.Label == label {
			out = append(out, seg.Span)
		}
	}
	return out
}

// End returns the furthest end point in the timeline.
func (t Timeline) End() TimePoint {
	var end TimePoint
	for _, seg := range t {
		end = max(end, seg.End)
	}
	return end
}

// Clone deep copies the timeline.
func (t Timeline) Clone() Timeline {
	if t == nil {
		return nil
	}
	out := make(Timeline, len(t))
	for i, seg := range t {
		out[i] = seg.Clone()
	}
	return out
}

// WithDescriptions returns a copy of the timeline with each NoTalking segment
// found in descriptions replaced by its described form.
func (t Timeline) WithDescriptions(descriptions map[Span]Description) Timeline {
	out := t.Clone()
	for i, seg := range out {
		if seg.Label != NoTalking {
			continue
		}
		if d, ok := descriptions[seg.Span]; ok {
			out[i].Description = &d
		}
	}
	return out
}
