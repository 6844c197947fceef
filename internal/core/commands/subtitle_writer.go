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
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/subtitle"
)

// SubtitleWriter renders the described segments into an SRT file in the
// run's scratch directory. A timeline without descriptions gets no file.
type SubtitleWriter struct {
	cor.BaseCommand
}

func NewSubtitleWriter(name string) *SubtitleWriter {
	out := &SubtitleWriter{BaseCommand: *cor.NewBaseCommand(name)}
	out.InputParamName = ParamTimeline
	out.OutputParamName = ParamSubtitles
	return out
}

func (c *SubtitleWriter) Execute(context cor.Context) {
	tl := context.Get(c.GetInputParam()).(model.Timeline)
	cues := subtitle.FromTimeline(tl)
	if len(cues) == 0 {
		return
	}
	session, err := sessionFrom(context)
	if err != nil {
		c.Fail(context, err)
		return
	}
	dir, err := scratchDir(context, session)
	if err != nil {
		c.Fail(context, err)
		return
	}
	path := filepath.Join(dir, "descriptions.srt")
	if err := subtitle.WriteFile(path, cues); err != nil {
		c.Fail(context, err)
		return
	}
	context.Add(c.GetOutputParam(), path)
	c.Succeed(context)
}
