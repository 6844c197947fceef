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
// the encode workflow that renders the narrated video.
//
// Logic Flow:
//  1. **Read**: the session's narrations are resolved to audio files.
//  2. **Fit**: clips longer than their gap are sped up with atempo.
//  3. **Subtitles**: an SRT file is written from the narrations.
//  4. **Mix**: the clips are delayed to their start times and mixed over the
//     source audio when it has any.
//  5. **Mux**: video, mixed audio and subtitles become the final MP4.
package workflow

import (
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/commands"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
)

// MediaEncodeWorkflow renders the processed video for an encode request. It
// reads a *model.EncodeRequest from commands.ParamEncode and leaves the path
// of the processed file under commands.ParamOutput.
type MediaEncodeWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

func NewMediaEncodeWorkflow(deps *Dependencies) *MediaEncodeWorkflow {
	out := &MediaEncodeWorkflow{BaseCommand: *cor.NewBaseCommand("media-encode-workflow")}
	chain := cor.NewBaseChain(out.GetName())
	chain.AddCommand(commands.NewEncodeRequestReader("read-encode-request"))
	chain.AddCommand(commands.NewNarrationFitter("fit-narration", deps.Prober, deps.Fitter))
	chain.AddCommand(commands.NewSubtitleWriter("write-subtitles"))
	chain.AddCommand(commands.NewNarrationMixer("mix-narration", deps.Prober, deps.Mixer))
	chain.AddCommand(commands.NewVideoMuxer("mux-video", deps.Muxer, commands.SubtitleOptions{
		Burn:  deps.Config.Media.BurnSubtitles,
		Style: deps.Config.Media.SubtitleStyle,
	}))
	out.chain = chain
	out.InputParamName = commands.ParamEncode
	return out
}

// IsExecutable requires the session as well as the request.
func (m *MediaEncodeWorkflow) IsExecutable(context cor.Context) bool {
	return m.BaseCommand.IsExecutable(context) && context.Get(commands.ParamSession) != nil
}

func (m *MediaEncodeWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}
