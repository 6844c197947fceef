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
	"fmt"
	"path/filepath"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timecode"
)

// NarrationFitter places every narrated segment's audio at the segment start,
// speeding it up when it runs longer than the segment.
type NarrationFitter struct {
	cor.BaseCommand
	prober ports.MediaProber
	fitter ports.AudioFitter
}

func NewNarrationFitter(name string, prober ports.MediaProber, fitter ports.AudioFitter) *NarrationFitter {
	out := &NarrationFitter{BaseCommand: *cor.NewBaseCommand(name), prober: prober, fitter: fitter}
	out.InputParamName = ParamTimeline
	out.OutputParamName = ParamNarrations
	return out
}

func (c *NarrationFitter) Execute(context cor.Context) {
	tl := context.Get(c.GetInputParam()).(model.Timeline)
	session, err := sessionFrom(context)
	if err != nil {
		c.Fail(context, err)
		return
	}

	clips := make([]ports.DelayedClip, 0, len(tl))
	for i, seg := range tl {
		if !seg.Described() || seg.Description.AudioFile == "" {
			continue
		}
		path, err := session.ResolveAudio(seg.Description.AudioFile)
		if err != nil {
			c.Fail(context, err)
			return
		}
		length, err := c.prober.Duration(context.GetContext(), path)
		if err != nil {
			c.Fail(context, err)
			return
		}
		if slot := seg.Duration(); length > slot {
			dir, err := scratchDir(context, session)
			if err != nil {
				c.Fail(context, err)
				return
			}
			fitted := filepath.Join(dir, fmt.Sprintf("fitted_%03d.wav", i))
			factor := timecode.Seconds(length) / timecode.Seconds(slot)
			if err := c.fitter.SpeedUp(context.GetContext(), path, factor, fitted); err != nil {
				c.Fail(context, err)
				return
			}
			path = fitted
		}
		clips = append(clips, ports.DelayedClip{Path: path, At: seg.Start})
	}

	context.Add(c.GetOutputParam(), clips)
	c.Succeed(context)
}
