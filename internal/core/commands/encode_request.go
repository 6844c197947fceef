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
// Responsibility (COR) pattern's Command interface. This file and its
// siblings narration_fitter.go, subtitle_writer.go, narration_mixer.go and
// video_muxer.go make up the encode workflow.
//
// Logic Flow:
// A client sends back the parallel arrays of a describe response, possibly
// after editing them, and receives the source video with the narration
// mixed in and the descriptions as subtitles.
//
//  1. EncodeRequestReader validates the arrays, checks the source video is
//     still in the session and rebuilds the timeline.
//  2. NarrationFitter speeds up narration that overruns its segment.
//  3. SubtitleWriter renders the described segments as SRT.
//  4. NarrationMixer lays the narration over the original audio track.
//  5. VideoMuxer writes the processed video into the session.
package commands

import (
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timeline"
)

// EncodeRequestReader prepares an encode request for the rest of the chain.
type EncodeRequestReader struct {
	cor.BaseCommand
}

func NewEncodeRequestReader(name string) *EncodeRequestReader {
	out := &EncodeRequestReader{BaseCommand: *cor.NewBaseCommand(name)}
	out.InputParamName = ParamEncode
	out.OutputParamName = ParamTimeline
	return out
}

func (c *EncodeRequestReader) Execute(context cor.Context) {
	req := context.Get(c.GetInputParam()).(*model.EncodeRequest)
	session, err := sessionFrom(context)
	if err != nil {
		c.Fail(context, err)
		return
	}
	tl, err := timeline.FromRequest(req)
	if err != nil {
		c.Fail(context, err)
		return
	}
	exists, err := session.Exists(context.GetContext(), req.VideoFileName)
	if err != nil {
		c.Fail(context, err)
		return
	}
	if !exists {
		c.Fail(context, model.NotFound(c.GetName(), "source video %q", req.VideoFileName))
		return
	}

	context.Add(ParamVideoName, req.VideoFileName)
	context.Add(ParamSourcePath, session.SourcePath(req.VideoFileName))
	context.Add(c.GetOutputParam(), tl)
	c.Succeed(context)
}
