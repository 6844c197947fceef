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
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timeline"
)

// MediaAssembly renders the described timeline into the parallel array
// response clients receive.
type MediaAssembly struct {
	cor.BaseCommand
}

func NewMediaAssembly(name string) *MediaAssembly {
	out := &MediaAssembly{BaseCommand: *cor.NewBaseCommand(name)}
	out.InputParamName = ParamTimeline
	out.OutputParamName = ParamResponse
	return out
}

func (m *MediaAssembly) Execute(context cor.Context) {
	tl := context.Get(m.GetInputParam()).(model.Timeline)

	resp := timeline.Format(tl)
	if session, err := sessionFrom(context); err == nil {
		resp.SessionID = session.ID
	}
	resp.VideoName = stringParam(context, ParamVideoName)
	resp.Summary = stringParam(context, ParamSummary)

	m.Succeed(context)
	context.Add(m.GetOutputParam(), resp)
	context.Add(cor.CtxOut, resp)
}
