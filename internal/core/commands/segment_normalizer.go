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
// command that turns the model's raw segmentation into a timeline.
//
// Logic Flow:
//  1. The raw intervals, still carrying textual timestamps, are read from
//     the context.
//  2. `timeline.Normalize` parses them, merges TALKING runs separated by
//     short gaps and drops or clamps anything that would overlap.
//  3. The resulting timeline is stored under ParamTimeline.
//
// A model answer that normalizes to nothing is an invalid input error.
package commands

import (
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timeline"
)

// SegmentNormalizer converts raw model intervals into a normalized timeline.
type SegmentNormalizer struct {
	cor.BaseCommand
	options timeline.NormalizeOptions
}

// NewSegmentNormalizer is the constructor for SegmentNormalizer.
//
// Inputs:
//   - name: A string name for this command instance.
//   - options: Gap merging and minimum duration settings.
//
// Outputs:
//   - *SegmentNormalizer: A pointer to the newly instantiated command.
func NewSegmentNormalizer(name string, options timeline.NormalizeOptions) *SegmentNormalizer {
	out := &SegmentNormalizer{BaseCommand: *cor.NewBaseCommand(name), options: options}
	out.InputParamName = ParamRawSegments
	out.OutputParamName = ParamTimeline
	return out
}

// Execute contains the core logic for the command.
func (s *SegmentNormalizer) Execute(context cor.Context) {
	raw := context.Get(s.GetInputParam()).([]model.RawInterval)

	tl, err := timeline.Normalize(raw, s.options)
	if err != nil {
		s.Fail(context, err)
		return
	}

	s.Succeed(context)
	context.Add(s.GetOutputParam(), tl)
}
