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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements
// the reanalyze workflow, run after a user edits the timeline.
//
// Logic Flow:
//  1. **Reconcile**: the edited spans are compared with the previous
//     segments. Unchanged spans keep their description and audio.
//  2. **Describe**: only the new or changed spans are described and
//     narrated. A request without old data describes every span.
//  3. **Waveform**: when the source has audio, the waveform strip is
//     redrawn for the editor.
//  4. **Assembly**: the segments are returned sorted by start time.
package workflow

import (
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/commands"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
)

// MediaReanalyzeWorkflow reconciles an edited timeline and renders the
// waveform the editor draws under it. It reads a *model.ReanalyzeRequest
// from commands.ParamReanalyze and leaves a *timeline.ReconcileResult under
// commands.ParamReconciled.
type MediaReanalyzeWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

func NewMediaReanalyzeWorkflow(deps *Dependencies) *MediaReanalyzeWorkflow {
	out := &MediaReanalyzeWorkflow{BaseCommand: *cor.NewBaseCommand("media-reanalyze-workflow")}
	chain := cor.NewBaseChain(out.GetName())
	chain.AddCommand(commands.NewTimelineReconciler("reconcile-timeline", deps.Pipeline))
	chain.AddCommand(commands.NewWaveformRenderer("render-waveform", deps.Waveform, deps.Prober))
	out.chain = chain
	out.InputParamName = commands.ParamReanalyze
	return out
}

// IsExecutable requires the session as well as the request.
func (m *MediaReanalyzeWorkflow) IsExecutable(context cor.Context) bool {
	return m.BaseCommand.IsExecutable(context) && context.Get(commands.ParamSession) != nil
}

func (m *MediaReanalyzeWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}
