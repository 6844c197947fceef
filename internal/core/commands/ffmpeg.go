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
// command that shrinks the source video before it is sent for analysis.
//
// Logic Flow:
// Talking detection and summaries only need a low resolution picture, and a
// smaller file uploads and inlines faster.
//
//  1. Get the path of the source video from the context.
//  2. When no target width is configured, the source itself becomes the
//     analysis video and the command is done.
//  3. Otherwise transcode into the run's scratch directory, scaling to the
//     target width while keeping the aspect ratio and an even height.
//  4. Place the path of the proxy in the context under ParamAnalysisPath.
package commands

import (
	"path/filepath"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
)

// FFMpegCommand produces the analysis proxy of the source video.
type FFMpegCommand struct {
	cor.BaseCommand                         // Embeds the BaseCommand for common functionality like naming and metrics.
	transcoder      ports.ProxyTranscoder   // Usually the ffmpeg media.Tool.
	videoFormat     model.MediaFormatFilter // Target container and width; a zero width disables the proxy.
}

// NewFFMpegCommand is the constructor for creating a new FFMpegCommand.
//
// Inputs:
//   - name: A string name for this command instance, used for logging and telemetry.
//   - transcoder: The adapter that runs the transcode.
//   - videoFormat: The target format of the proxy.
//
// Outputs:
//   - *FFMpegCommand: A pointer to the newly instantiated command.
func NewFFMpegCommand(name string, transcoder ports.ProxyTranscoder, videoFormat model.MediaFormatFilter) *FFMpegCommand {
	out := &FFMpegCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		transcoder:  transcoder,
		videoFormat: videoFormat}
	out.InputParamName = ParamSourcePath
	out.OutputParamName = ParamAnalysisPath
	return out
}

// Execute contains the core logic for the command.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (c *FFMpegCommand) Execute(context cor.Context) {
	source := stringParam(context, c.GetInputParam())
	if c.videoFormat.Width <= 0 {
		context.Add(c.GetOutputParam(), source)
		return
	}

	session, err := sessionFrom(context)
	if err != nil {
		c.Fail(context, err)
		return
	}
	scratch, err := scratchDir(context, session)
	if err != nil {
		c.Fail(context, err)
		return
	}
	format := c.videoFormat
	if format.Format == "" {
		format.Format = "mp4"
	}
	proxy := filepath.Join(scratch, "analysis."+format.Format)
	if err := c.transcoder.Transcode(context.GetContext(), source, proxy, format); err != nil {
		c.Fail(context, err)
		return
	}

	c.Succeed(context)
	context.Add(c.GetOutputParam(), proxy)
}
