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

package media

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
)

func TestAtempoChain(t *testing.T) {
	assert.Nil(t, AtempoChain(1))
	assert.Nil(t, AtempoChain(0.5))
	assert.Equal(t, []float64{1.5}, AtempoChain(1.5))
	assert.Equal(t, []float64{2}, AtempoChain(2))
	assert.Equal(t, []float64{2, 1.5}, AtempoChain(3))
	assert.Equal(t, []float64{2, 2, 1.25}, AtempoChain(5))

	product := 1.0
	for _, s := range AtempoChain(7.3) {
		assert.LessOrEqual(t, s, 2.0)
		product *= s
	}
	assert.InDelta(t, 7.3, product, 1e-9)
	assert.Equal(t, "atempo=2,atempo=1.5", atempoFilter(AtempoChain(3)))
}

func TestMixFilter(t *testing.T) {
	clips := []ports.DelayedClip{{Path: "a.wav", At: 1500}, {Path: "b.wav", At: 9000}}

	assert.Equal(t,
		"[0:a]adelay=1500|1500[a0];[1:a]adelay=9000|9000[a1];[a0][a1]amix=inputs=2:duration=longest:dropout_transition=0:normalize=0[aout]",
		MixFilter(clips, false))
	assert.Equal(t,
		"[1:a]adelay=1500|1500[a0];[2:a]adelay=9000|9000[a1];[0:a][a0][a1]amix=inputs=3:duration=first:dropout_transition=0:normalize=0[aout]",
		MixFilter(clips, true))
}

func TestMuxArgs(t *testing.T) {
	burned := muxArgs(ports.MuxRequest{
		Video: "in.mp4", Audio: "mix.m4a", Subtitles: "/tmp/a:b.srt", Output: "out.mp4", BurnSubtitles: true,
	})
	assert.Equal(t, []string{
		"-i", "in.mp4", "-i", "mix.m4a",
		"-vf", "subtitles=/tmp/a\\:b.srt:force_style='FontName=Arial,FontSize=24'",
		"-map", "0:v", "-map", "1:a",
		"-c:v", "libx264", "-preset", "fast", "-crf", "23",
		"-c:a", "aac", "-b:a", "192k",
		"out.mp4",
	}, burned)

	soft := muxArgs(ports.MuxRequest{Video: "in.mp4", Subtitles: "subs.srt", Output: "out.mp4"})
	assert.Equal(t, []string{
		"-i", "in.mp4", "-i", "subs.srt",
		"-map", "0:v", "-map", "0:a?",
		"-map", "1:s", "-c:s", "mov_text",
		"-c:v", "libx264", "-preset", "fast", "-crf", "23",
		"-c:a", "aac", "-b:a", "192k",
		"out.mp4",
	}, soft)

	withAudio := muxArgs(ports.MuxRequest{Video: "in.mp4", Audio: "mix.m4a", Subtitles: "subs.srt", Output: "o.mp4"})
	assert.Contains(t, withAudio, "2:s")
}

func TestParseSceneCuts(t *testing.T) {
	out := `[Parsed_showinfo_1 @ 0x1] n:   0 pts:  61440 pts_time:4.8     duration:512
[Parsed_showinfo_1 @ 0x1] n:   1 pts: 153600 pts_time:12.0006 duration:512
frame=  2 fps=0.0 q=-0.0 Lsize=N/A time=00:00:20.00`
	assert.Equal(t, []model.TimePoint{4800, 12001}, ParseSceneCuts(out))
	assert.Empty(t, ParseSceneCuts("no frames selected"))
}

func TestScenesFromCuts(t *testing.T) {
	assert.Equal(t, []model.Span{{Start: 0, End: 5000}, {Start: 5000, End: 12000}, {Start: 12000, End: 20000}},
		ScenesFromCuts([]model.TimePoint{5000, 12000}, 20000))
	assert.Equal(t, []model.Span{{Start: 0, End: 20000}}, ScenesFromCuts(nil, 20000))
	// duplicate, zero and out of range cuts are skipped
	assert.Equal(t, []model.Span{{Start: 0, End: 5000}, {Start: 5000, End: 20000}},
		ScenesFromCuts([]model.TimePoint{0, 5000, 5000, 3000, 25000}, 20000))
	assert.Nil(t, ScenesFromCuts([]model.TimePoint{1000}, 0))
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("12.3456\n")
	require.NoError(t, err)
	assert.Equal(t, model.TimePoint(12346), d)

	_, err = parseDuration("N/A")
	assert.ErrorIs(t, err, model.ErrExternalService)
}

func TestMissingBinaryIsExternalFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-ffmpeg")
	tool := New(missing, missing, 0)
	ctx := context.Background()

	err := tool.Cut(ctx, "in.mp4", model.Span{Start: 0, End: 1000}, "out.mp4")
	assert.ErrorIs(t, err, model.ErrExternalService)

	_, err = tool.Duration(ctx, "in.mp4")
	assert.ErrorIs(t, err, model.ErrExternalService)

	err = tool.Cut(ctx, "in.mp4", model.Span{Start: 1000, End: 1000}, "out.mp4")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	err = tool.Mix(ctx, ports.MixRequest{Output: "o.m4a"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
