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

package workflow_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/commands"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-audio-describe/internal/testutil"
	"github.com/jaycherian/gcp-go-audio-describe/internal/workspace"
)

func TestTriggerDescribesUploadedVideo(t *testing.T) {
	deps, f := newDeps(t)
	f.Analyzer.Segments = []model.RawInterval{
		{Start: "00:00:00", End: "00:00:10", Type: "TALKING"},
		{Start: "00:00:10", End: "00:00:20", Type: "NO_TALKING"},
	}

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, test.GetTestUploadMessageText())

	workflow.NewMediaTriggerWorkflow(deps).Execute(chainCtx)
	require.NoError(t, chainCtx.Err())

	require.Len(t, f.Downloader.Objects, 1)
	assert.Equal(t, "gs://audio_describe_input/test-trailer-001.mp4", f.Downloader.Objects[0].URI())

	session := chainCtx.Get(commands.ParamSession).(*workspace.Session)
	assert.Contains(t, f.Store.Published(), session.ID+"/"+commands.ResponseFileName)
	assert.FileExists(t, session.ArtifactPath(workspace.DirProcessed, commands.ResponseFileName))
	assert.Len(t, f.Inserter.Rows, 1)

	require.Len(t, f.Notifier.Events, 1)
	event := f.Notifier.Events[0]
	assert.Equal(t, session.ID, event.SessionID)
	assert.Equal(t, "test-trailer-001.mp4", event.VideoName)
	assert.Equal(t, 2, event.Segments)
	assert.Equal(t, 1, event.Described)
	assert.Empty(t, event.Error)
}

func TestTriggerNotifiesFailures(t *testing.T) {
	deps, f := newDeps(t)
	f.Analyzer.DetectErr = test.ExternalErr("segments")

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, test.GetTestUploadMessageText())

	workflow.NewMediaTriggerWorkflow(deps).Execute(chainCtx)
	assert.True(t, errors.Is(chainCtx.Err(), model.ErrExternalService))
	require.Len(t, f.Notifier.Events, 1)
	assert.NotEmpty(t, f.Notifier.Events[0].Error)
	for _, name := range f.Store.Published() {
		assert.NotContains(t, name, commands.ResponseFileName)
	}
}

func TestTriggerRejectsNonVideo(t *testing.T) {
	deps, f := newDeps(t)

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, test.GetTestImageMessageText())

	workflow.NewMediaTriggerWorkflow(deps).Execute(chainCtx)
	assert.True(t, errors.Is(chainCtx.Err(), model.ErrInvalidInput))
	assert.Empty(t, f.Downloader.Objects)
	assert.Empty(t, f.Notifier.Events)
}

func TestJanitorSweepsExpiredSessions(t *testing.T) {
	deps, _ := newDeps(t)
	deps.Config.Storage.SessionTTLMinutes = 60
	old := newSource(t, deps, "clip.mp4")
	fresh := newSource(t, deps, "clip.mp4")
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old.Root, past, past))

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)
	workflow.NewSessionJanitorWorkflow(deps).Execute(chainCtx)

	require.NoError(t, chainCtx.Err())
	assert.NoDirExists(t, old.Root)
	assert.DirExists(t, filepath.Join(deps.Workspace.Root(), fresh.ID))
}
