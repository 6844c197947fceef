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

// Package timeline turns detector output into the timeline of talking and
// non-talking segments, merges it with earlier analyses and renders it into
// the parallel array response.
package timeline

import (
	"fmt"
	"sort"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timecode"
)

// DefaultMaxGap is the largest silence between two talking intervals that is
// still absorbed into a single talking run.
const DefaultMaxGap model.TimePoint = 3000

// NormalizeOptions tunes Normalize.
type NormalizeOptions struct {
	// MaxGap joins a talking interval onto the open run when it starts no
	// later than run end plus MaxGap.
	MaxGap model.TimePoint
	// MinNoTalking discards shorter non-talking intervals. Zero keeps all.
	MinNoTalking model.TimePoint
}

func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{MaxGap: DefaultMaxGap}
}

type labelled struct {
	span  model.Span
	label model.Label
}

// Normalize parses raw detector intervals, sorts them by start and merges
// nearby talking intervals into runs. Non-talking intervals are never merged
// and always end the open run. The result has no overlaps; an interval that
// starts inside an already emitted segment is clamped to begin at its end.
func Normalize(raw []model.RawInterval, opts NormalizeOptions) (model.Timeline, error) {
	const op = "timeline.Normalize"
	if len(raw) == 0 {
		return nil, model.Invalid(op, "no segments to normalize")
	}

	parsed := make([]labelled, 0, len(raw))
	for i, r := range raw {
		start, err := timecode.Parse(r.Start)
		if err != nil {
			return nil, fmt.Errorf("segment %d start: %w", i, err)
		}
		end, err := timecode.Parse(r.End)
		if err != nil {
			return nil, fmt.Errorf("segment %d end: %w", i, err)
		}
		label, err := model.ParseLabel(r.Type)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		if end < start {
			return nil, model.Invalid(op, "segment %d ends at %s before it starts at %s", i, r.End, r.Start)
		}
		if end == start {
			continue
		}
		parsed = append(parsed, labelled{span: model.Span{Start: start, End: end}, label: label})
	}

	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].span.Start < parsed[j].span.Start })

	n := &normalizer{opts: opts, out: make(model.Timeline, 0, len(parsed))}
	for _, p := range parsed {
		if p.label == model.Talking {
			n.talking(p.span)
		} else {
			n.silence(p.span)
		}
	}
	n.flush()

	if len(n.out) == 0 {
		return nil, model.Invalid(op, "no segments left after normalization")
	}
	return n.out, nil
}

type normalizer struct {
	opts   NormalizeOptions
	out    model.Timeline
	run    *model.Span
	cursor model.TimePoint
}

func (n *normalizer) talking(s model.Span) {
	if n.run != nil && s.Start <= n.run.End+n.opts.MaxGap {
		n.run.End = max(n.run.End, s.End)
		return
	}
	n.flush()
	s.Start = max(s.Start, n.cursor)
	if s.Start >= s.End {
		return
	}
	n.run = &s
}

func (n *normalizer) silence(s model.Span) {
	floor := n.cursor
	if n.run != nil {
		floor = max(floor, n.run.End)
	}
	s.Start = max(s.Start, floor)
	if s.Start >= s.End || s.Duration() < n.opts.MinNoTalking {
		return
	}
	n.flush()
	n.emit(model.NoTalkingSegment(s, nil))
}

func (n *normalizer) flush() {
	if n.run == nil {
		return
	}
	n.emit(model.TalkingSegment(*n.run))
	n.run = nil
}

func (n *normalizer) emit(seg model.Segment) {
	n.out = append(n.out, seg)
	n.cursor = seg.End
}
