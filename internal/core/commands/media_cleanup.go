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
// command that removes expired sessions from local disk.
//
// Logic Flow:
// Every session keeps its source video, clips, narration and processed
// output until it expires. The janitor workflow runs this command on a
// ticker.
//
//  1. It asks the workspace manager to delete every session directory that
//     has not been modified within the TTL.
//  2. The number of removed sessions is logged and left under CtxOut.
//  3. Sessions that could not be removed are reported as one joined error.
package commands

import (
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/workspace"
)

// MediaCleanup is a command that sweeps expired sessions.
type MediaCleanup struct {
	cor.BaseCommand                    // Embeds the BaseCommand for common functionality.
	manager         *workspace.Manager // Owner of the session directories.
	ttl             time.Duration      // Sessions idle for longer are removed.
}

// NewMediaCleanup is the constructor for the MediaCleanup command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - manager: The workspace manager whose sessions are swept.
//   - ttl: How long a session may stay idle.
//
// Outputs:
//   - *MediaCleanup: A pointer to the newly instantiated command.
func NewMediaCleanup(name string, manager *workspace.Manager, ttl time.Duration) *MediaCleanup {
	return &MediaCleanup{BaseCommand: *cor.NewBaseCommand(name), manager: manager, ttl: ttl}
}

// IsExecutable only needs a live Go context; the sweep has no inputs.
func (v *MediaCleanup) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute removes the expired sessions.
func (v *MediaCleanup) Execute(context cor.Context) {
	removed, err := v.manager.Sweep(v.ttl)
	if removed > 0 {
		slog.InfoContext(context.GetContext(), "swept expired sessions", "count", removed, "ttl", v.ttl)
	}
	context.Add(cor.CtxOut, removed)
	if err != nil {
		v.Fail(context, err)
		return
	}
	v.Succeed(context)
}
