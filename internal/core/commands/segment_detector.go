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
)

// SegmentDetector asks the vision model for the raw TALKING / NO_TALKING
// segmentation of the analysis video.
type SegmentDetector struct {
	cor.BaseCommand
	detector ports.TalkingDetector
}

func NewSegmentDetector(name string, detector ports.TalkingDetector) *SegmentDetector {
	out := &SegmentDetector{BaseCommand: *cor.NewBaseCommand(name), detector: detector}
	out.InputParamName = ParamAnalysisRef
	out.OutputParamName = ParamRawSegments
	return out
}

func (c *SegmentDetector) Execute(context cor.Context) {
	ref := context.Get(c.GetInputParam()).(ports.MediaRef)
	raw, err := c.detector.DetectSegments(context.GetContext(), ref)
	if err != nil {
		c.Fail(context, err)
		return
	}
	c.Succeed(context)
	context.Add(c.GetOutputParam(), raw)
}
