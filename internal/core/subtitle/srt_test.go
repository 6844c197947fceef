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

package subtitle_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/subtitle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSingleCue(t *testing.T) {
	out := subtitle.Render([]subtitle.Cue{{Span: model.Span{Start: 3_661_500, End: 3_665_000}, Text: "A cat walks."}})
	assert.Equal(t, "1\n01:01:01,500 --> 01:01:05,000\nA cat walks.\n\n", out)
}

func TestRenderNumbersFromOne(t *testing.T) {
	out := subtitle.Render([]subtitle.Cue{
		{Span: model.Span{Start: 0, End: 1000}, Text: "One.\n\n"},
		{Span: model.Span{Start: 2000, End: 2500}, Text: "Two\n\nlines"},
	})
	assert.Equal(t, "1\n00:00:00,000 --> 00:00:01,000\nOne.\n\n2\n00:00:02,000 --> 00:00:02,500\nTwo\nlines\n\n", out)
}

func TestFromTimelineSkipsUndescribed(t *testing.T) {
	tl := model.Timeline{
		model.TalkingSegment(model.Span{Start: 0, End: 1000}),
		model.NoTalkingSegment(model.Span{Start: 1000, End: 4000}, nil),
		model.NoTalkingSegment(model.Span{Start: 4000, End: 8000}, &model.Description{Text: "Snow falls."}),
	}
	assert.Equal(t, []subtitle.Cue{{Span: model.Span{Start: 4000, End: 8000}, Text: "Snow falls."}}, subtitle.FromTimeline(tl))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.srt")
	require.NoError(t, subtitle.WriteFile(path, []subtitle.Cue{{Span: model.Span{Start: 0, End: 1000}, Text: "Hi."}}))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:00,000 --> 00:00:01,000\nHi.\n\n", string(b))
}
