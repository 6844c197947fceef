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
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
)

// TalkingDetector stores the merged dialogue intervals of the analysis
// video. A video without dialogue yields an empty, non-nil list.
type TalkingDetector struct {
	cor.BaseCommand
	detector ports.TalkingDetector
}

func NewTalkingDetector(name string, detector ports.TalkingDetector) *TalkingDetector {
	out := &TalkingDetector{BaseCommand: *cor.NewBaseCommand(name), detector: detector}
	out.InputParamName = ParamAnalysisRef
	out.OutputParamName = ParamTalking
	return out
}

func (c *TalkingDetector) Execute(context cor.Context) {
	ref := context.Get(c.GetInputParam()).(ports.MediaRef)
	spans, found, err := c.detector.DetectTalking(context.GetContext(), ref)
	if err != nil {
		c.Fail(context, err)
		return
	}
	if !found {
		spans = []model.Span{}
	}
	c.Succeed(context)
	context.Add(c.GetOutputParam(), spans)
}
