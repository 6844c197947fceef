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

package api

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
)

// Names of the server-sent events.
const (
	EventProgress = "progress"
	EventPartial  = "partial"
	EventResult   = "result"
	EventError    = "error"
)

// Outcome is what a streamed workflow hands back. Partial is sent before the
// error event when the workflow failed after completing some work.
type Outcome struct {
	Result  any
	Partial any
	Err     error
}

// StreamFunc runs a workflow, forwarding its progress to listener.
type StreamFunc func(ctx context.Context, listener cor.ProgressListener) Outcome

type sseMessage struct {
	event string
	data  any
}

// stream runs fn in the background and relays its progress to the client as
// server-sent events, ending with a result or an error event. A client that
// goes away cancels the workflow.
func stream(c *gin.Context, stats *Stats, fn StreamFunc) {
	ctx := c.Request.Context()
	messages := make(chan sseMessage, 16)
	send := func(msg sseMessage) {
		select {
		case messages <- msg:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(messages)
		done := stats.Begin()
		out := fn(ctx, func(e cor.ProgressEvent) {
			send(sseMessage{EventProgress, e})
		})
		done(out.Err)
		if out.Err != nil {
			if out.Partial != nil {
				send(sseMessage{EventPartial, out.Partial})
			}
			send(sseMessage{EventError, errorBody(out.Err)})
			return
		}
		send(sseMessage{EventResult, out.Result})
	}()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		msg, ok := <-messages
		if !ok {
			return false
		}
		c.SSEvent(msg.event, msg.data)
		return true
	})
}
