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
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
	"github.com/jaycherian/gcp-go-audio-describe/internal/workspace"
)

// WaveformFileName is the image drawn for every session.
const WaveformFileName = "waveform.png"

// WaveformRenderer draws the source's audio waveform for the editor. An
// existing image is reused.
type WaveformRenderer struct {
	cor.BaseCommand
	renderer ports.WaveformRenderer
	prober   ports.MediaProber
}

func NewWaveformRenderer(name string, renderer ports.WaveformRenderer, prober ports.MediaProber) *WaveformRenderer {
	out := &WaveformRenderer{BaseCommand: *cor.NewBaseCommand(name), renderer: renderer, prober: prober}
	out.InputParamName = ParamSourcePath
	out.OutputParamName = ParamWaveform
	return out
}

func (c *WaveformRenderer) Execute(context cor.Context) {
	session, err := sessionFrom(context)
	if err != nil {
		c.Fail(context, err)
		return
	}
	ref := workspace.DirWaveform + "/" + WaveformFileName
	if _, err := session.Resolve(workspace.DirWaveform, WaveformFileName); err == nil {
		context.Add(c.GetOutputParam(), ref)
		return
	}

	source := stringParam(context, c.GetInputParam())
	hasAudio, err := c.prober.HasAudio(context.GetContext(), source)
	if err != nil {
		c.Fail(context, err)
		return
	}
	if !hasAudio {
		// Nothing to draw; the editor shows an empty strip.
		return
	}
	if err := c.renderer.RenderWaveform(context.GetContext(), source, session.ArtifactPath(workspace.DirWaveform, WaveformFileName)); err != nil {
		c.Fail(context, err)
		return
	}
	c.Succeed(context)
	context.Add(c.GetOutputParam(), ref)
}
