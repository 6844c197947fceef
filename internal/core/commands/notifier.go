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
	"log/slog"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
)

// CompletionNotifier announces a finished triggered workflow. It runs even
// after earlier failures (see IsExecutable) so subscribers learn about those
// too, and its own failure is only logged.
type CompletionNotifier struct {
	cor.BaseCommand
	notifier ports.Notifier
}

func NewCompletionNotifier(name string, notifier ports.Notifier) *CompletionNotifier {
	return &CompletionNotifier{BaseCommand: *cor.NewBaseCommand(name), notifier: notifier}
}

func (c *CompletionNotifier) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && context.Get(ParamVideoName) != nil
}

func (c *CompletionNotifier) Execute(context cor.Context) {
	event := CompletionEventFrom(context)
	if err := c.notifier.Notify(context.GetContext(), event); err != nil {
		if c.ErrorCounter != nil {
			c.ErrorCounter.Add(context.GetContext(), 1)
		}
		slog.ErrorContext(context.GetContext(), "failed to publish completion", "video", event.VideoName, "error", err)
		return
	}
	c.Succeed(context)
}

// CompletionEventFrom summarizes the state of a describe run.
func CompletionEventFrom(context cor.Context) model.CompletionEvent {
	event := model.CompletionEvent{VideoName: stringParam(context, ParamVideoName)}
	if session, err := sessionFrom(context); err == nil {
		event.SessionID = session.ID
	}
	if mode, ok := context.Get(ParamMode).(model.DescribeMode); ok {
		event.Mode = string(mode)
	}
	if tl, ok := context.Get(ParamTimeline).(model.Timeline); ok {
		event.Segments = len(tl)
		for _, seg := range tl {
			if seg.Described() {
				event.Described++
			}
		}
	}
	if err := context.Err(); err != nil {
		event.Error = err.Error()
	}
	return event
}
