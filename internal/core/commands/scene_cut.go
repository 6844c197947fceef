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

// SceneCutDetector splits the source video at its visual scene changes.
type SceneCutDetector struct {
	cor.BaseCommand
	detector ports.SceneCutDetector
}

func NewSceneCutDetector(name string, detector ports.SceneCutDetector) *SceneCutDetector {
	out := &SceneCutDetector{BaseCommand: *cor.NewBaseCommand(name), detector: detector}
	out.InputParamName = ParamSourcePath
	out.OutputParamName = ParamScenes
	return out
}

func (c *SceneCutDetector) Execute(context cor.Context) {
	scenes, err := c.detector.DetectScenes(context.GetContext(), stringParam(context, c.GetInputParam()))
	if err != nil {
		c.Fail(context, err)
		return
	}
	if len(scenes) == 0 {
		c.Fail(context, model.Invalid(c.GetName(), "no scenes found in %s", stringParam(context, ParamVideoName)))
		return
	}
	c.Succeed(context)
	context.Add(c.GetOutputParam(), scenes)
}
