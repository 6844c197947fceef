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

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
)

// NarrationMixer renders the fitted narration clips into one audio track,
// keeping the source's own audio underneath when it has any. Without clips
// nothing is mixed and the muxer keeps the source audio as is.
type NarrationMixer struct {
	cor.BaseCommand
	prober ports.MediaProber
	mixer  ports.AudioMixer
}

func NewNarrationMixer(name string, prober ports.MediaProber, mixer ports.AudioMixer) *NarrationMixer {
	out := &NarrationMixer{BaseCommand: *cor.NewBaseCommand(name), prober: prober, mixer: mixer}
	out.InputParamName = ParamNarrations
	out.OutputParamName = ParamMixedAudio
	return out
}

func (c *NarrationMixer) Execute(context cor.Context) {
	clips := context.Get(c.GetInputParam()).([]ports.DelayedClip)
	if len(clips) == 0 {
		return
	}
	session, err := sessionFrom(context)
	if err != nil {
		c.Fail(context, err)
		return
	}
	source := stringParam(context, ParamSourcePath)
	hasAudio, err := c.prober.HasAudio(context.GetContext(), source)
	if err != nil {
		c.Fail(context, err)
		return
	}
	dir, err := scratchDir(context, session)
	if err != nil {
		c.Fail(context, err)
		return
	}

	req := ports.MixRequest{Clips: clips, Output: filepath.Join(dir, "narration_mix.m4a")}
	if hasAudio {
		req.Base = source
	}
	if err := c.mixer.Mix(context.GetContext(), req); err != nil {
		c.Fail(context, err)
		return
	}
	context.Add(c.GetOutputParam(), req.Output)
	c.Succeed(context)
}
