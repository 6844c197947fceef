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
// pipelines are assembled from. This file implements `BaseContext`, the
// shared state every command of a run reads from and writes to.
//
// The context holds:
//   - the Go context of the request, swapped per command for child spans;
//   - a key/value store for parameters and intermediate results;
//   - the errors recorded by failed commands, keyed by command name;
//   - temporary files, removed on `Close`;
//   - an optional `ProgressListener` fed by `ReportProgress`.
package cor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// BaseContext is the map-backed Context used by every workflow run. It is not
// safe for concurrent use; commands that fan out collect results themselves
// and write them back from the chain goroutine.
type BaseContext struct {
	data       map[string]any
	errors     map[string]error
	errorOrder []string // keys of errors, in arrival order
	tempFiles  []string
	progress   ProgressListener
	context    context.Context
}

// NewBaseContext returns an empty context backed by context.Background.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]any),
		errors:    make(map[string]error),
		tempFiles: make([]string, 0),
		context:   context.Background(),
	}
}

// SetContext is called by BaseChain around every command so spans opened by
// the command nest under the command's own span.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close removes every tracked temporary file and directory.
func (c *BaseContext) Close() {
	for _, file := range c.GetTempFiles() {
		if err := os.RemoveAll(file); err != nil {
			slog.Warn("failed to remove temporary path", "path", file, "error", err)
		}
	}
	c.tempFiles = c.tempFiles[:0]
}

func (c *BaseContext) Add(key string, value any) Context {
	c.data[key] = value
	return c
}

// AddTempFile adds a path to the list removed on Close.
func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

// AddError records err against the command name in key. A second error from
// the same command replaces the first but keeps its position.
func (c *BaseContext) AddError(key string, err error) {
	if _, ok := c.errors[key]; !ok {
		c.errorOrder = append(c.errorOrder, key)
	}
	c.errors[key] = err
}

func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// Err joins the recorded errors in arrival order. Each is prefixed with the
// command name and still matches errors.Is against its original value.
func (c *BaseContext) Err() error {
	if len(c.errorOrder) == 0 {
		return nil
	}
	if len(c.errorOrder) == 1 {
		key := c.errorOrder[0]
		return fmt.Errorf("%s: %w", key, c.errors[key])
	}
	errs := make([]error, 0, len(c.errorOrder))
	for _, key := range c.errorOrder {
		errs = append(errs, fmt.Errorf("%s: %w", key, c.errors[key]))
	}
	return errors.Join(errs...)
}

func (c *BaseContext) Get(key string) any {
	return c.data[key]
}

func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}

// SetProgressListener installs listener. A nil listener drops events.
func (c *BaseContext) SetProgressListener(listener ProgressListener) {
	c.progress = listener
}

// ReportProgress forwards event to the installed listener.
func (c *BaseContext) ReportProgress(event ProgressEvent) {
	if c.progress != nil {
		c.progress(event)
	}
}
