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
// the describe workflow that turns a session's source video into a narrated
// timeline.
//
// Logic Flow:
// The chain expects the session, the video name and the source path in the
// context, as left by the HTTP upload handler or by GCSToSession.
//
//  1. **Analysis media**: the source is optionally shrunk to a proxy and
//     published so the vision model can read it.
//  2. **Summary**: an optional short summary of the whole video gives every
//     clip description some context. It never fails the run.
//  3. **Segmentation**: in segments mode the model labels the whole video
//     and the Normalizer merges the labels; in scenes mode local scene cuts
//     are combined with the talking intervals the model finds.
//  4. **Description**: every NO_TALKING segment is cut, described and
//     narrated by the worker pool.
//  5. **Assembly**: the timeline becomes the parallel array response and is
//     persisted to BigQuery when a table is configured.
package workflow

import (
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/commands"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

// DefaultProxyFormat is the container of the analysis proxy.
const DefaultProxyFormat = "mp4"

// MediaReaderWorkflow describes a video in one of the two describe modes.
type MediaReaderWorkflow struct {
	cor.BaseCommand
	deps  *Dependencies
	mode  model.DescribeMode
	chain cor.Chain // The underlying chain of commands to be executed.
}

// IsExecutable requires the source video in the context.
func (m *MediaReaderWorkflow) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil &&
		context.Get(commands.ParamSession) != nil && context.Get(commands.ParamSourcePath) != nil
}

// Execute runs the describe chain.
func (m *MediaReaderWorkflow) Execute(context cor.Context) {
	context.Add(commands.ParamMode, m.mode)
	m.chain.Execute(context)
}

func (m *MediaReaderWorkflow) initializeChain() {
	config := m.deps.Config
	out := cor.NewBaseChain(m.GetName())

	out.AddCommand(commands.NewFFMpegCommand("analysis-proxy", m.deps.Transcoder,
		model.MediaFormatFilter{Format: DefaultProxyFormat, Width: config.Media.AnalysisWidth}))
	out.AddCommand(commands.NewMediaUpload("publish-analysis-media", m.deps.Store))
	if config.Segmentation.Summarize {
		out.AddCommand(commands.NewMediaSummaryCreator("generate-media-summary", m.deps.Summarizer))
	}

	switch m.mode {
	case model.ModeScenes:
		out.AddCommand(commands.NewSceneCutDetector("detect-scene-cuts", m.deps.Scenes))
		out.AddCommand(commands.NewTalkingDetector("detect-talking", m.deps.Talking))
		out.AddCommand(commands.NewSceneCombiner("combine-scenes", model.TimePoint(config.Segmentation.MinSceneMs)))
	default:
		out.AddCommand(commands.NewSegmentDetector("detect-segments", m.deps.Talking))
		out.AddCommand(commands.NewSegmentNormalizer("normalize-segments", NormalizeOptions(config)))
	}

	out.AddCommand(commands.NewSceneExtractor("describe-segments", m.deps.Pipeline))
	out.AddCommand(commands.NewMediaAssembly("assemble-response"))
	if m.deps.Inserter != nil {
		out.AddCommand(commands.NewTimelinePersistToBigQuery("write-to-bigquery", m.deps.Inserter))
	}

	m.chain = out
}

// NewMediaReaderWorkflow builds the describe workflow for mode.
//
// Inputs:
//   - deps: The adapters and services the commands use.
//   - mode: ModeSegments or ModeScenes.
//
// Returns:
//   - A pointer to a newly created and fully initialized MediaReaderWorkflow.
func NewMediaReaderWorkflow(deps *Dependencies, mode model.DescribeMode) *MediaReaderWorkflow {
	out := &MediaReaderWorkflow{
		BaseCommand: *cor.NewBaseCommand("media-reader-" + string(mode)),
		deps:        deps,
		mode:        mode,
	}
	out.initializeChain()
	return out
}
