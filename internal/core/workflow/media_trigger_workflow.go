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
// the workflow run for every video uploaded to the input bucket.
package workflow

import (
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/commands"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

// MediaTriggerWorkflow consumes GCS object notifications. The message text
// is expected under CtxIn, as placed by cloud.PubSubListener.
//
// The video is downloaded into a new session and described in segments
// mode. The response document is published next to the artifacts, and a
// completion notice goes out whether or not the run succeeded.
type MediaTriggerWorkflow struct {
	cor.BaseCommand
	chain cor.Chain // The underlying chain of commands to be executed.
}

// Execute runs the trigger chain.
func (m *MediaTriggerWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

func (m *MediaTriggerWorkflow) initializeChain(deps *Dependencies) {
	describe := cor.NewBaseChain(m.GetName() + "-describe")
	describe.AddCommand(commands.NewMediaTriggerToGCSObject("gcs-topic-listener"))
	describe.AddCommand(commands.NewGCSToSession("gcs-to-session", deps.Downloader, deps.Workspace))
	describe.AddCommand(NewMediaReaderWorkflow(deps, model.ModeSegments))
	describe.AddCommand(commands.NewGCSFileUpload("publish-response", deps.Store))

	if deps.Notifier == nil {
		m.chain = describe
		return
	}
	out := cor.NewBaseChain(m.GetName())
	out.AddCommand(describe)
	out.AddCommand(commands.NewCompletionNotifier("notify-completion", deps.Notifier))
	out.ContinueOnFailure(true)
	m.chain = out
}

// NewMediaTriggerWorkflow is the constructor for the MediaTriggerWorkflow.
//
// Inputs:
//   - deps: The adapters and services the commands use. Downloader must be
//     set.
//
// Returns:
//   - A pointer to a newly created and fully initialized MediaTriggerWorkflow.
func NewMediaTriggerWorkflow(deps *Dependencies) *MediaTriggerWorkflow {
	out := &MediaTriggerWorkflow{BaseCommand: *cor.NewBaseCommand("media-trigger-workflow")}
	out.initializeChain(deps)
	return out
}
