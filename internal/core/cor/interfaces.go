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

// Package cor runs the describe pipelines as chains of commands sharing one
// Context. Each command reads its input key, writes its output key and
// records failures with Fail; chains pipe outputs forward and stream
// ProgressEvents to whoever started the run.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys a BaseChain uses to pipe the output of one
// command into the input of the next.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// ProgressEvent reports how far a workflow has got. Stage is the name of the
// command or chain that emitted it.
type ProgressEvent struct {
	Stage     string `json:"stage"`
	Message   string `json:"message,omitempty"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// ProgressListener receives progress events. It is called synchronously from
// the goroutine running the chain and must not block for long.
type ProgressListener func(ProgressEvent)

// Context is the shared state of a single workflow execution. Commands read
// their inputs from it and write their outputs and errors back.
type Context interface {
	// SetContext sets the Go context carrying cancellation and trace spans.
	SetContext(context context.Context)

	GetContext() context.Context

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value any) Context

	// AddError records an error produced by the named command.
	AddError(key string, err error)

	// GetErrors returns every recorded error keyed by command name.
	GetErrors() map[string]error

	// Err joins the recorded errors in the order they were added, or
	// returns nil when there are none.
	Err() error

	// Get retrieves the value stored under key, or nil.
	Get(key string) any

	Remove(key string)

	// HasErrors reports whether any command recorded an error.
	HasErrors() bool

	// AddTempFile tracks a file or directory to delete on Close.
	AddTempFile(file string)

	GetTempFiles() []string

	// SetProgressListener installs the receiver of ReportProgress events.
	SetProgressListener(listener ProgressListener)

	// ReportProgress forwards event to the listener, if any.
	ReportProgress(event ProgressEvent)

	// Close deletes every tracked temporary path. Defer it right after the
	// context is created.
	Close()
}

// Executable is the single method a pipeline step implements.
type Executable interface {
	// Execute reads inputs from context and writes outputs back to it.
	Execute(context Context)
}

// Command is one named step of a workflow.
type Command interface {
	Executable

	// GetName returns the name used in logs, spans and metrics.
	GetName() string

	// GetInputParam returns the key of the command's primary input.
	GetInputParam() string

	// GetOutputParam returns the key of the command's primary output.
	GetOutputParam() string

	// IsExecutable is the precondition check run before Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer

	GetMeter() metric.Meter

	// GetSuccessCounter counts successful executions.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter counts failed executions.
	GetErrorCounter() metric.Int64Counter
}

// Chain is a Command made of other commands, so chains nest.
type Chain interface {
	Command

	// ContinueOnFailure keeps running later commands after one fails.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
