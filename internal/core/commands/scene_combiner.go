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
// command that keeps the dialogue free parts of every visual scene.
//
// Logic Flow:
//  1. Scene spans (from ffmpeg) and talking spans (from the model) are read
//     from the context.
//  2. `timeline.Combine` clips each scene against the windows between talking
//     intervals and drops pieces shorter than the minimum duration.
//  3. The pieces become undescribed NO_TALKING segments under ParamTimeline,
//     ready for the describer.
package commands

import (
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timeline"
)

// SceneCombiner intersects scenes with the non-talking windows.
type SceneCombiner struct {
	cor.BaseCommand
	minDuration model.TimePoint
}

// NewSceneCombiner is the constructor for SceneCombiner.
//
// Inputs:
//   - name: A string name for this command instance.
//   - minDuration: The shortest piece worth describing, in milliseconds.
//
// Outputs:
//   - *SceneCombiner: A pointer to the newly instantiated command.
func NewSceneCombiner(name string, minDuration model.TimePoint) *SceneCombiner {
	if minDuration <= 0 {
		minDuration = timeline.DefaultMinSceneDuration
	}
	out := &SceneCombiner{BaseCommand: *cor.NewBaseCommand(name), minDuration: minDuration}
	out.InputParamName = ParamScenes
	out.OutputParamName = ParamTimeline
	return out
}

// IsExecutable needs both the scenes and the talking intervals.
func (c *SceneCombiner) IsExecutable(context cor.Context) bool {
	return c.BaseCommand.IsExecutable(context) && context.Get(ParamTalking) != nil
}

// Execute contains the core logic for the command.
func (c *SceneCombiner) Execute(context cor.Context) {
	scenes := context.Get(c.GetInputParam()).([]model.Span)
	talking := context.Get(ParamTalking).([]model.Span)

	pieces := timeline.Combine(scenes, talking, c.minDuration)

	c.Succeed(context)
	context.Add(c.GetOutputParam(), timeline.ScenesTimeline(pieces))
}
