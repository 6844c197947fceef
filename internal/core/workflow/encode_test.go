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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/commands"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/workflow"
	"github.com/jaycherian/gcp-go-audio-describe/internal/workspace"
)

func ptr(s string) *string {
	return &s
}

func TestEncodeMixesNarrationAndSubtitles(t *testing.T) {
	deps, f := newDeps(t)
	f.Media.Audio = true
	session := newSource(t, deps, "clip.mp4")
	narration := session.ArtifactPath(workspace.DirAudio, "audio_1.wav")
	require.NoError(t, os.WriteFile(narration, []byte("RIFF"), 0o644))
	f.Media.Durations = map[string]model.TimePoint{narration: 6000}

	chainCtx := workflow.NewContext(ctx, nil)
	chainCtx.Add(commands.ParamSession, session)
	chainCtx.Add(commands.ParamEncode, &model.EncodeRequest{
		VideoFileName: "clip.mp4",
		Descriptions:  []string{model.TalkingSentinel, "A door opens.", model.NoTalkingSentinel},
		Timestamps:    [][2]model.TimePoint{{0, 3000}, {3000, 8000}, {8000, 9000}},
		AudioFiles:    []*string{ptr(""), ptr("audio/audio_1.wav"), nil},
	})

	out, err := workflow.Run(chainCtx, workflow.NewMediaEncodeWorkflow(deps), commands.ParamOutput)
	require.NoError(t, err)
	assert.Equal(t, session.ArtifactPath(workspace.DirProcessed, "processed_clip.mp4"), out)
	assert.FileExists(t, out.(string))

	require.Len(t, f.Media.SpeedUps(), 1)
	assert.InDelta(t, 1.2, f.Media.SpeedUps()[0], 1e-9)

	mixes := f.Media.Mixes()
	require.Len(t, mixes, 1)
	assert.Equal(t, session.SourcePath("clip.mp4"), mixes[0].Base)
	require.Len(t, mixes[0].Clips, 1)
	assert.Equal(t, model.TimePoint(3000), mixes[0].Clips[0].At)
	assert.NotEqual(t, narration, mixes[0].Clips[0].Path)

	muxes := f.Media.Muxes()
	require.Len(t, muxes, 1)
	assert.Equal(t, mixes[0].Output, muxes[0].Audio)
	assert.True(t, strings.HasSuffix(muxes[0].Subtitles, ".srt"))
	assert.Equal(t, deps.Config.Media.BurnSubtitles, muxes[0].BurnSubtitles)

	srt, err := os.ReadFile(muxes[0].Subtitles)
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:03,000 --> 00:00:08,000\nA door opens.\n\n", string(srt))

	scratch := filepath.Dir(muxes[0].Subtitles)
	chainCtx.Close()
	assert.NoDirExists(t, scratch)
}

func TestEncodeWithoutNarrationKeepsSourceAudio(t *testing.T) {
	deps, f := newDeps(t)
	session := newSource(t, deps, "clip.mp4")

	chainCtx := workflow.NewContext(ctx, nil)
	defer chainCtx.Close()
	chainCtx.Add(commands.ParamSession, session)
	chainCtx.Add(commands.ParamEncode, &model.EncodeRequest{
		VideoFileName: "clip.mp4",
		Descriptions:  []string{"A door opens."},
		Timestamps:    [][2]model.TimePoint{{0, 4000}},
	})

	_, err := workflow.Run(chainCtx, workflow.NewMediaEncodeWorkflow(deps), commands.ParamOutput)
	require.NoError(t, err)
	assert.Empty(t, f.Media.Mixes())
	require.Len(t, f.Media.Muxes(), 1)
	assert.Empty(t, f.Media.Muxes()[0].Audio)
	assert.NotEmpty(t, f.Media.Muxes()[0].Subtitles)
}

func TestEncodeRejectsBadRequests(t *testing.T) {
	deps, _ := newDeps(t)
	session := newSource(t, deps, "clip.mp4")

	for name, tc := range map[string]struct {
		req  *model.EncodeRequest
		kind error
	}{
		"unknown video": {
			req:  &model.EncodeRequest{VideoFileName: "other.mp4", Descriptions: []string{"x"}, Timestamps: [][2]model.TimePoint{{0, 1000}}},
			kind: model.ErrSourceNotFound,
		},
		"ragged arrays": {
			req:  &model.EncodeRequest{VideoFileName: "clip.mp4", Descriptions: []string{"x", "y"}, Timestamps: [][2]model.TimePoint{{0, 1000}}},
			kind: model.ErrInvalidInput,
		},
		"missing audio": {
			req: &model.EncodeRequest{VideoFileName: "clip.mp4", Descriptions: []string{"x"},
				Timestamps: [][2]model.TimePoint{{0, 1000}}, AudioFiles: []*string{ptr("audio/nope.wav")}},
			kind: model.ErrSourceNotFound,
		},
	} {
		t.Run(name, func(t *testing.T) {
			chainCtx := workflow.NewContext(ctx, nil)
			defer chainCtx.Close()
			chainCtx.Add(commands.ParamSession, session)
			chainCtx.Add(commands.ParamEncode, tc.req)

			_, err := workflow.Run(chainCtx, workflow.NewMediaEncodeWorkflow(deps), commands.ParamOutput)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
		})
	}
}

func TestEncodeWorkflowNeedsSessionAndRequest(t *testing.T) {
	deps, _ := newDeps(t)
	session := newSource(t, deps, "clip.mp4")
	wf := workflow.NewMediaEncodeWorkflow(deps)

	chainCtx := workflow.NewContext(ctx, nil)
	defer chainCtx.Close()
	chainCtx.Add(commands.ParamSession, session)
	assert.False(t, wf.IsExecutable(chainCtx))

	chainCtx.Add(commands.ParamEncode, &model.EncodeRequest{VideoFileName: "clip.mp4"})
	assert.True(t, wf.IsExecutable(chainCtx))
}
