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

package commands

import (
	"context"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/services"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timeline"
	"github.com/jaycherian/gcp-go-audio-describe/internal/workspace"
)

// TimelineReconciler merges a client's previous analysis with the segments it
// asks to have described, describing only the new keys.
type TimelineReconciler struct {
	cor.BaseCommand
	pipeline *services.DescriptionPipeline
}

func NewTimelineReconciler(name string, pipeline *services.DescriptionPipeline) *TimelineReconciler {
	out := &TimelineReconciler{BaseCommand: *cor.NewBaseCommand(name), pipeline: pipeline}
	out.InputParamName = ParamReanalyze
	out.OutputParamName = ParamReconciled
	return out
}

func (r *TimelineReconciler) Execute(context cor.Context) {
	req := context.Get(r.GetInputParam()).(*model.ReanalyzeRequest)
	session, err := sessionFrom(context)
	if err != nil {
		r.Fail(context, err)
		return
	}
	previous, err := timeline.Views(req.OldData)
	if err != nil {
		r.Fail(context, err)
		return
	}

	reconciler := &timeline.Reconciler{
		Sources:  session,
		Describe: r.describeFunc(context, session, req.VideoName, req.Summary),
	}
	result, err := reconciler.Reconcile(context.GetContext(), timeline.ReconcileRequest{
		Source:    req.VideoName,
		Previous:  previous,
		Requested: req.NewTimestamps,
	})
	if result != nil {
		context.Add(r.GetOutputParam(), result)
		context.Add(ParamTimeline, result.Segments)
	}
	if err != nil {
		r.Fail(context, err)
		return
	}
	context.Add(ParamVideoName, req.VideoName)
	context.Add(ParamSourcePath, session.SourcePath(req.VideoName))
	r.Succeed(context)
}

func (r *TimelineReconciler) describeFunc(chCtx cor.Context, session *workspace.Session, videoName string, summary string) timeline.DescribeFunc {
	return func(ctx context.Context, spans []model.Span) (map[model.Span]model.Description, error) {
		return r.pipeline.Describe(ctx, services.DescribeJob{
			Session:   session,
			VideoPath: session.SourcePath(videoName),
			Spans:     spans,
			Summary:   summary,
			OnProgress: func(done int, total int, span model.Span) {
				chCtx.ReportProgress(cor.ProgressEvent{
					Stage:     r.GetName(),
					Message:   "described " + span.String(),
					Completed: done,
					Total:     total,
				})
			},
		})
	}
}
