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

// Package cor (Chain of Responsibility) provides the building blocks the
// describe, reanalyze and encode pipelines are assembled from. This file
// defines the `BaseChain`, the default implementation of the `Chain`
// interface.
//
// Logic Flow:
// A `BaseChain` is itself a `Command`, so chains nest inside other chains.
// It runs its commands in order and pipes data between them.
//
//  1. **Execution starts**: `Execute` is called with the shared context.
//  2. **Telemetry**: one OpenTelemetry span covers the whole chain.
//  3. **Command Loop**: before each command the chain checks for recorded
//     errors and stops unless `continueOnFailure` is set.
//  4. **Execution**: every command gets a child span, runs against the
//     context, and the parent Go context is restored afterwards. Commands
//     whose input is missing are skipped.
//  5. **Progress**: a `ProgressEvent` is reported after each command so the
//     SSE handlers can stream the stage to the browser.
//  6. **Data Piping**: the value a command left in `CtxOut` moves to `CtxIn`
//     for the next command. A command that failed without output under
//     `continueOnFailure` hands its own input on.
//  7. **Completion**: the chain span is closed with a status derived from
//     the errors left in the context.
package cor

import (
	"fmt"

	"go.opentelemetry.io/otel/codes"
)

// BaseChain runs its commands in order under one span, reporting a progress
// event before each. A command's CtxOut becomes the next command's CtxIn.
// The chain stops at the first recorded error unless ContinueOnFailure is set,
// and always stops once the Go context is done. When it continues, a command
// that failed without output hands its own input on unchanged.
type BaseChain struct {
	BaseCommand
	continueOnFailure bool      // keep executing after a command adds an error
	commands          []Command // executed in order
}

func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

// ContinueOnFailure sets whether later commands still run after one fails.
func (c *BaseChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

// AddCommand appends a command to the chain's execution sequence.
func (c *BaseChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

// Commands returns the commands in execution order.
func (c *BaseChain) Commands() []Command {
	return c.commands
}

// IsExecutable only needs a Go context; the first command checks its own input.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context.GetContext() != nil
}

func (c *BaseChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()
	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()
	defer chCtx.SetContext(parentCtx)

	total := len(c.commands)
	for i, command := range c.commands {
		if chCtx.HasErrors() && !c.continueOnFailure {
			break
		}
		if err := outerCtx.Err(); err != nil {
			chCtx.AddError(c.GetName(), err)
			break
		}

		chCtx.ReportProgress(ProgressEvent{Stage: command.GetName(), Completed: i, Total: total})

		errorsBefore := len(chCtx.GetErrors())
		commandContext, commandSpan := c.Tracer.Start(outerCtx, command.GetName())
		if command.IsExecutable(chCtx) {
			chCtx.SetContext(commandContext)
			command.Execute(chCtx)
			chCtx.SetContext(outerCtx)
		} else {
			commandSpan.SetStatus(codes.Error, fmt.Sprintf("command not executable: %s", command.GetName()))
		}

		if chCtx.HasErrors() {
			commandSpan.SetStatus(codes.Error, "workflow has errors")
		} else {
			commandSpan.SetStatus(codes.Ok, "ok")
		}
		commandSpan.End()

		// A command that failed without output leaves its input for the next
		// command when the chain continues past failures.
		failed := len(chCtx.GetErrors()) > errorsBefore
		if outputValue := chCtx.Get(CtxOut); outputValue != nil {
			chCtx.Add(CtxIn, outputValue)
		} else if !(failed && c.continueOnFailure) {
			chCtx.Remove(CtxIn)
		}
		chCtx.Remove(CtxOut)
	}

	if !chCtx.HasErrors() {
		chCtx.ReportProgress(ProgressEvent{Stage: c.GetName(), Message: "completed", Completed: total, Total: total})
		chainSpan.SetStatus(codes.Ok, "ok")
	} else {
		chainSpan.SetStatus(codes.Error, "workflow has errors")
	}
}
