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

package timeline

import (
	"sort"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

// DefaultMinSceneDuration drops clipped scene pieces too short to narrate.
const DefaultMinSceneDuration model.TimePoint = 3000

// ValidWindows returns the complement of the talking intervals within
// [0, videoEnd], in order. Talking intervals may be unsorted or overlapping.
func ValidWindows(talking []model.Span, videoEnd model.TimePoint) []model.Span {
	if videoEnd <= 0 {
		return nil
	}
	sorted := make([]model.Span, len(talking))
	copy(sorted, talking)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	windows := make([]model.Span, 0, len(sorted)+1)
	var prev model.TimePoint
	for _, t := range sorted {
		start := max(t.Start, 0)
		if start > prev && prev < videoEnd {
			windows = append(windows, model.Span{Start: prev, End: min(start, videoEnd)})
		}
		prev = max(prev, t.End)
	}
	if prev < videoEnd {
		windows = append(windows, model.Span{Start: prev, End: videoEnd})
	}
	return windows
}

// Combine clips each scene against the windows left free by talking and keeps
// the pieces that last at least minDuration. The video end is taken as the end
// of the last scene. Scene order is preserved.
func Combine(scenes []model.Span, talking []model.Span, minDuration model.TimePoint) []model.Span {
	if len(scenes) == 0 {
		return nil
	}
	minDuration = max(minDuration, 1)
	windows := ValidWindows(talking, scenes[len(scenes)-1].End)

	out := make([]model.Span, 0, len(scenes))
	w := 0
	for _, scene := range scenes {
		for w < len(windows) && windows[w].End <= scene.Start {
			w++
		}
		for k := w; k < len(windows) && windows[k].Start < scene.End; k++ {
			piece := model.Span{
				Start: max(scene.Start, windows[k].Start),
				End:   min(scene.End, windows[k].End),
			}
			if piece.Duration() >= minDuration {
				out = append(out, piece)
			}
		}
	}
	return out
}

// ScenesTimeline wraps combined scene pieces as undescribed segments.
func ScenesTimeline(pieces []model.Span) model.Timeline {
	out := make(model.Timeline, 0, len(pieces))
	for _, p := range pieces {
		out = append(out, model.NoTalkingSegment(p, nil))
	}
	return out
}
