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
// command that describes every undescribed NO_TALKING segment.
//
// Logic Flow:
// This command is the expensive part of every describe workflow. It collects
// the spans that still need narration and hands them to the
// DescriptionPipeline, which fans them out over a worker pool.
//
//  1. The timeline, the session, the source video and the optional summary
//     are read from the context.
//  2. NO_TALKING segments without a description are collected in timeline
//     order.
//  3. The pipeline cuts, publishes, describes and narrates every span. Each
//     finished span is reported as a ProgressEvent.
//  4. Whatever the pipeline finished is merged back into the timeline, which
//     replaces the input under ParamTimeline even when a span failed, so the
//     caller can surface the partial result alongside the error.
package commands

import (
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/services"
)

// SceneExtractor describes the non-dialogue segments of a timeline.
type SceneExtractor struct {
	cor.BaseCommand
	pipeline *services.DescriptionPipeline
}

// NewSceneExtractor is the constructor for the SceneExtractor command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - pipeline: The worker pool that describes each span.
//
// Outputs:
//   - *SceneExtractor: A pointer to the newly instantiated command.
func NewSceneExtractor(name string, pipeline *services.DescriptionPipeline) *SceneExtractor {
	out := &SceneExtractor{BaseCommand: *cor.NewBaseCommand(name), pipeline: pipeline}
	out.InputParamName = ParamTimeline
	out.OutputParamName = ParamTimeline
	return out
}

// IsExecutable checks that the timeline and the session are present.
func (s *SceneExtractor) IsExecutable(context cor.Context) bool {
	return s.BaseCommand.IsExecutable(context) && context.Get(ParamSession) != nil
}

// Execute orchestrates the parallel description of the segments.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (s *SceneExtractor) Execute(context cor.Context) {
	tl := context.Get(s.GetInputParam()).(model.Timeline)
	session, err := sessionFrom(context)
	if err != nil {
		s.Fail(context, err)
		return
	}

	pending := make([]model.Span, 0, len(tl))
	for _, seg := range tl {
		if seg.Label == model.NoTalking && seg.Description == nil {
			pending = append(pending, seg.Span)
		}
	}

	described, err := s.pipeline.Describe(context.GetContext(), services.DescribeJob{
		Session:   session,
		VideoPath: stringParam(context, ParamSourcePath),
		Spans:     pending,
		Summary:   stringParam(context, ParamSummary),
		OnProgress: func(done int, total int, span model.Span) {
			context.ReportProgress(cor.ProgressEvent{
				Stage:     s.GetName(),
				Message:   "described " + span.String(),
				Completed: done,
				Total:     total,
			})
		},
	})
	context.Add(s.GetOutputParam(), tl.WithDescriptions(described))
	if err != nil {
		s.Fail(context, err)
		return
	}
	s.Succeed(context)
}
