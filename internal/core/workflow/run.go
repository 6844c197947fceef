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
// combining various commands into coherent pipelines. This file holds the
// helpers the HTTP handlers and the CLI use to run a workflow and collect
// its output.
package workflow

import (
	"context"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

// NewContext prepares a chain context for one request. The caller must
// Close it once the result has been consumed.
func NewContext(ctx context.Context, listener cor.ProgressListener) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	if listener != nil {
		chainCtx.SetProgressListener(listener)
	}
	return chainCtx
}

// Run executes command and returns what it left under output. A command that
// was skipped for a missing input leaves no output and no error, so an absent
// output is reported as an inconsistency.
func Run(chainCtx cor.Context, command cor.Command, output string) (any, error) {
	if command.IsExecutable(chainCtx) {
		command.Execute(chainCtx)
	}
	if err := chainCtx.Err(); err != nil {
		return chainCtx.Get(output), err
	}
	if err := chainCtx.GetContext().Err(); err != nil {
		return nil, err
	}
	value := chainCtx.Get(output)
	if value == nil {
		return nil, model.Inconsistent(command.GetName(), "workflow finished without %s", output)
	}
	return value, nil
}
