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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/commands"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timeline"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-audio-describe/internal/testutil"
)

func TestReanalyzeDescribesOnlyNewSegments(t *testing.T) {
	deps, f := newDeps(t)
	f.Media.Audio = true
	session := newSource(t, deps, "clip.mp4")
	audio := "audio/audio_old.wav"

	chainCtx := workflow.NewContext(ctx, nil)
	defer chainCtx.Close()
	chainCtx.Add(commands.ParamSession, session)
	chainCtx.Add(commands.ParamReanalyze, &model.ReanalyzeRequest{
		VideoName: "clip.mp4",
		OldData: []model.SegmentView{
			{Start: 0, End: 5000, Description: "A lighthouse at dusk.", SceneFile: "scenes/old.mp4", AudioFile: &audio},
		},
		NewTimestamps: model.SpanList{sec(0, 5), sec(5, 9)},
	})

	out, err := workflow.Run(chainCtx, workflow.NewMediaReanalyzeWorkflow(deps), commands.ParamReconciled)
	require.NoError(t, err)
	result := out.(*timeline.ReconcileResult)

	assert.Equal(t, []model.Span{sec(5, 9)}, result.Changed)
	require.Len(t, result.Segments, 2)
	assert.Equal(t, "A lighthouse at dusk.", result.Segments[0].Description.Text)
	assert.Equal(t, test.DescriptionFor(sec(5, 9)), result.Segments[1].Description.Text)
	assert.Len(t, f.Analyzer.Requests(), 1)
	assert.Equal(t, "waveform/waveform.png", chainCtx.Get(commands.ParamWaveform))
}

func TestReanalyzeUnknownVideo(t *testing.T) {
	deps, f := newDeps(t)
	session := newSource(t, deps, "clip.mp4")

	chainCtx := workflow.NewContext(ctx, nil)
	defer chainCtx.Close()
	chainCtx.Add(commands.ParamSession, session)
	chainCtx.Add(commands.ParamReanalyze, &model.ReanalyzeRequest{
		VideoName:     "other.mp4",
		NewTimestamps: model.SpanList{sec(0, 5)},
	})

	_, err := workflow.Run(chainCtx, workflow.NewMediaReanalyzeWorkflow(deps), commands.ParamReconciled)
	assert.True(t, errors.Is(err, model.ErrSourceNotFound))
	assert.Empty(t, f.Analyzer.Requests())
}

func TestReanalyzeWorkflowNeedsSessionAndRequest(t *testing.T) {
	deps, _ := newDeps(t)
	session := newSource(t, deps, "clip.mp4")
	wf := workflow.NewMediaReanalyzeWorkflow(deps)

	chainCtx := workflow.NewContext(ctx, nil)
	defer chainCtx.Close()
	chainCtx.Add(commands.ParamReanalyze, &model.ReanalyzeRequest{VideoName: "clip.mp4", NewTimestamps: model.SpanList{sec(0, 5)}})
	assert.False(t, wf.IsExecutable(chainCtx))

	chainCtx.Add(commands.ParamSession, session)
	assert.True(t, wf.IsExecutable(chainCtx))

	chainCtx.Remove(commands.ParamReanalyze)
	assert.False(t, wf.IsExecutable(chainCtx))
}

func TestReanalyzeFromScratchDescribesEverySpan(t *testing.T) {
	deps, f := newDeps(t)
	session := newSource(t, deps, "clip.mp4")

	chainCtx := workflow.NewContext(ctx, nil)
	defer chainCtx.Close()
	chainCtx.Add(commands.ParamSession, session)
	chainCtx.Add(commands.ParamReanalyze, &model.ReanalyzeRequest{
		VideoName:     "clip.mp4",
		NewTimestamps: model.SpanList{sec(0, 5)},
	})

	out, err := workflow.Run(chainCtx, workflow.NewMediaReanalyzeWorkflow(deps), commands.ParamReconciled)
	require.NoError(t, err)
	result := out.(*timeline.ReconcileResult)
	require.Len(t, result.Segments, 1)
	assert.True(t, result.Segments[0].Described())
	assert.Len(t, f.Analyzer.Requests(), 1)
	// Silent source, so no waveform is drawn.
	assert.Nil(t, chainCtx.Get(commands.ParamWaveform))
}
