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
// command that writes the short context summary of a video.
//
// Logic Flow:
// A summary of roughly fifty words is passed to every clip description so
// the model can name people and places consistently.
//
//  1. The analysis video reference is read from the context.
//  2. The Summarizer is called; it retries on its own.
//  3. On success the text is stored under ParamSummary.
//
// The summary only adds context. A failure is logged and the chain continues
// with an empty summary rather than losing the whole analysis.
package commands

import (
	"log/slog"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
)

// MediaSummaryCreator asks the model for the video's context summary.
type MediaSummaryCreator struct {
	cor.BaseCommand
	summarizer ports.Summarizer
}

// NewMediaSummaryCreator is the constructor for MediaSummaryCreator.
//
// Inputs:
//   - name: A string name for this command instance.
//   - summarizer: The model adapter.
//
// Outputs:
//   - *MediaSummaryCreator: A pointer to the newly instantiated command.
func NewMediaSummaryCreator(name string, summarizer ports.Summarizer) *MediaSummaryCreator {
	out := &MediaSummaryCreator{BaseCommand: *cor.NewBaseCommand(name), summarizer: summarizer}
	out.InputParamName = ParamAnalysisRef
	out.OutputParamName = ParamSummary
	return out
}

// Execute contains the core logic for the command.
func (t *MediaSummaryCreator) Execute(context cor.Context) {
	ref := context.Get(t.GetInputParam()).(ports.MediaRef)

	summary, err := t.summarizer.Summarize(context.GetContext(), ref)
	if err != nil {
		if context.GetContext().Err() != nil {
			t.Fail(context, err)
			return
		}
		if t.ErrorCounter != nil {
			t.ErrorCounter.Add(context.GetContext(), 1)
		}
		slog.WarnContext(context.GetContext(), "continuing without a video summary", "error", err)
		return
	}

	t.Succeed(context)
	context.Add(t.GetOutputParam(), summary)
}
