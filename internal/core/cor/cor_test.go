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

package cor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// appendCommand appends its suffix to the string input and pipes it on.
type appendCommand struct {
	cor.BaseCommand
	suffix string
	err    error
	cancel context.CancelFunc
}

func newAppend(name, suffix string) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewBaseCommand(name), suffix: suffix}
}

func (c *appendCommand) Execute(chCtx cor.Context) {
	if c.cancel != nil {
		c.cancel()
	}
	if c.err != nil {
		c.Fail(chCtx, c.err)
		return
	}
	chCtx.Add(c.GetOutputParam(), chCtx.Get(c.GetInputParam()).(string)+c.suffix)
	c.Succeed(chCtx)
}

func TestChainPipesOutputToInput(t *testing.T) {
	chain := cor.NewBaseChain("test")
	chain.AddCommand(newAppend("a", "-a")).AddCommand(newAppend("b", "-b"))

	var events []cor.ProgressEvent
	chCtx := cor.NewBaseContext()
	defer chCtx.Close()
	chCtx.SetProgressListener(func(e cor.ProgressEvent) { events = append(events, e) })
	chCtx.Add(cor.CtxIn, "start")

	chain.Execute(chCtx)

	require.NoError(t, chCtx.Err())
	assert.Equal(t, "start-a-b", chCtx.Get(cor.CtxIn))
	require.Len(t, events, 3)
	assert.Equal(t, cor.ProgressEvent{Stage: "a", Completed: 0, Total: 2}, events[0])
	assert.Equal(t, "completed", events[2].Message)
}

func TestChainStopsOnFirstError(t *testing.T) {
	failing := newAppend("fail", "")
	failing.err = model.Invalid("fail", "bad input")
	last := newAppend("last", "-z")

	chain := cor.NewBaseChain("test")
	chain.AddCommand(failing).AddCommand(last)
	chCtx := cor.NewBaseContext()
	chCtx.Add(cor.CtxIn, "start")

	chain.Execute(chCtx)

	assert.ErrorIs(t, chCtx.Err(), model.ErrInvalidInput)
	assert.Contains(t, chCtx.Err().Error(), "fail: ")
	assert.Nil(t, chCtx.Get(cor.CtxIn))
}

func TestChainContinueOnFailureJoinsErrorsInOrder(t *testing.T) {
	first := newAppend("first", "")
	first.err = errors.New("one")
	second := newAppend("second", "")
	second.err = errors.New("two")

	chain := cor.NewBaseChain("test")
	chain.ContinueOnFailure(true)
	chain.AddCommand(first).AddCommand(second)
	chCtx := cor.NewBaseContext()
	chCtx.Add(cor.CtxIn, "x")

	chain.Execute(chCtx)

	assert.Equal(t, "first: one\nsecond: two", chCtx.Err().Error())
}

func TestChainContinueOnFailureHandsInputOn(t *testing.T) {
	failing := newAppend("fail", "")
	failing.err = errors.New("one")

	chain := cor.NewBaseChain("test")
	chain.ContinueOnFailure(true)
	chain.AddCommand(failing).AddCommand(newAppend("next", "-b"))
	chCtx := cor.NewBaseContext()
	chCtx.Add(cor.CtxIn, "x")

	chain.Execute(chCtx)

	assert.Equal(t, "fail: one", chCtx.Err().Error())
	assert.Equal(t, "x-b", chCtx.Get(cor.CtxIn))
}

func TestChainStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := newAppend("first", "-1")
	first.cancel = cancel
	second := newAppend("second", "-2")

	chain := cor.NewBaseChain("test")
	chain.AddCommand(first).AddCommand(second)
	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	chCtx.Add(cor.CtxIn, "x")

	chain.Execute(chCtx)

	assert.ErrorIs(t, chCtx.Err(), context.Canceled)
	assert.Equal(t, "x-1", chCtx.Get(cor.CtxIn))
	assert.Equal(t, ctx, chCtx.GetContext())
}

func TestContextCloseRemovesTempPaths(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scratch")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	file := filepath.Join(t.TempDir(), "tmp.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	chCtx := cor.NewBaseContext()
	chCtx.AddTempFile(dir)
	chCtx.AddTempFile(file)
	chCtx.Close()

	assert.NoDirExists(t, dir)
	assert.NoFileExists(t, file)
	assert.Empty(t, chCtx.GetTempFiles())
}
