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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements
// the background sweep of expired sessions.
package workflow

import (
	goctx "context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/commands"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = 15 * time.Minute

// SessionJanitorWorkflow periodically removes sessions that outlived their
// TTL.
type SessionJanitorWorkflow struct {
	cor.BaseCommand
	every time.Duration
	chain cor.Chain
}

// NewSessionJanitorWorkflow sweeps deps.Workspace with the configured TTL and
// interval.
func NewSessionJanitorWorkflow(deps *Dependencies) *SessionJanitorWorkflow {
	storage := deps.Config.Storage
	every := time.Duration(storage.SweepEveryMinutes) * time.Minute
	if every <= 0 {
		every = DefaultSweepInterval
	}
	out := &SessionJanitorWorkflow{BaseCommand: *cor.NewBaseCommand("session-janitor"), every: every}
	chain := cor.NewBaseChain(out.GetName())
	chain.AddCommand(commands.NewMediaCleanup("sweep-sessions", deps.Workspace,
		time.Duration(storage.SessionTTLMinutes)*time.Minute))
	out.chain = chain
	return out
}

// IsExecutable is always true; the sweep needs no inputs.
func (m *SessionJanitorWorkflow) IsExecutable(_ cor.Context) bool {
	return true
}

func (m *SessionJanitorWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

// StartTimer runs the sweep on a ticker until ctx is done. Each run gets its
// own trace span.
func (m *SessionJanitorWorkflow) StartTimer(ctx goctx.Context) {
	tracer := otel.Tracer("session-janitor")
	ticker := time.NewTicker(m.every)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				traceCtx, span := tracer.Start(ctx, "sweep-sessions")
				chainCtx := cor.NewBaseContext()
				chainCtx.SetContext(traceCtx)

				m.Execute(chainCtx)

				if chainCtx.HasErrors() {
					span.SetStatus(codes.Error, "failed to sweep sessions")
				} else {
					span.SetStatus(codes.Ok, "swept sessions")
				}
				span.End()
				chainCtx.Close()
			case <-ctx.Done():
				return
			}
		}
	}()
}
