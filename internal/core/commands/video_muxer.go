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
	"path/filepath"
	"strings"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
	"github.com/jaycherian/gcp-go-audio-describe/internal/workspace"
)

// SubtitleOptions controls how subtitles end up in the processed video.
type SubtitleOptions struct {
	Burn  bool   // render into the picture rather than a mov_text stream
	Style string // ASS force_style used when burning
}

// VideoMuxer writes processed/processed_<video>.mp4 from the source video,
// the mixed narration and the subtitles.
type VideoMuxer struct {
	cor.BaseCommand
	muxer     ports.MediaMuxer
	subtitles SubtitleOptions
}

func NewVideoMuxer(name string, muxer ports.MediaMuxer, subtitles SubtitleOptions) *VideoMuxer {
	out := &VideoMuxer{BaseCommand: *cor.NewBaseCommand(name), muxer: muxer, subtitles: subtitles}
	out.InputParamName = ParamSourcePath
	out.OutputParamName = ParamOutput
	return out
}

// ProcessedName is the file name of the encoded copy of videoName.
func ProcessedName(videoName string) string {
	base := filepath.Base(videoName)
	return "processed_" + strings.TrimSuffix(base, filepath.Ext(base)) + ".mp4"
}

func (c *VideoMuxer) Execute(context cor.Context) {
	session, err := sessionFrom(context)
	if err != nil {
		c.Fail(context, err)
		return
	}
	source := stringParam(context, c.GetInputParam())
	name := ProcessedName(stringParam(context, ParamVideoName))
	req := ports.MuxRequest{
		Video:         source,
		Audio:         stringParam(context, ParamMixedAudio),
		Subtitles:     stringParam(context, ParamSubtitles),
		Output:        session.ArtifactPath(workspace.DirProcessed, name),
		BurnSubtitles: c.subtitles.Burn,
		SubtitleStyle: c.subtitles.Style,
	}
	if err := c.muxer.Mux(context.GetContext(), req); err != nil {
		c.Fail(context, err)
		return
	}
	context.Add(c.GetOutputParam(), req.Output)
	context.Add(cor.CtxOut, req.Output)
	c.Succeed(context)
}
