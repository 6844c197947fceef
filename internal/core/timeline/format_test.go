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

package timeline_test

import (
	"testing"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParallelArrays(t *testing.T) {
	tl := model.Timeline{
		model.TalkingSegment(span(0, 4000)),
		model.NoTalkingSegment(span(4000, 9000), &model.Description{Text: "A dog runs.", SceneFile: "scene_1.mp4", AudioFile: "ad_1.mp3"}),
		model.NoTalkingSegment(span(9000, 12000), nil),
	}

	resp := timeline.Format(tl)

	assert.Equal(t, model.MessageScenesDetected, resp.Message)
	assert.Equal(t, []string{"TALKING", "A dog runs.", "NO_TALKING"}, resp.Descriptions)
	assert.Equal(t, [][2]model.TimePoint{{0, 4000}, {4000, 9000}, {9000, 12000}}, resp.Timestamps)
	assert.Equal(t, []string{"scene_1.mp4"}, resp.SceneFiles)
	require.Len(t, resp.AudioFiles, 3)
	require.NotNil(t, resp.AudioFiles[0])
	assert.Equal(t, "", *resp.AudioFiles[0])
	assert.Equal(t, "ad_1.mp3", *resp.AudioFiles[1])
	assert.Nil(t, resp.AudioFiles[2])
}

func TestFormatEmptyTimeline(t *testing.T) {
	resp := timeline.Format(nil)
	assert.NotNil(t, resp.Descriptions)
	assert.Empty(t, resp.Timestamps)
}

func TestFormatSegmentsRoundTripsThroughViews(t *testing.T) {
	tl := model.Timeline{
		model.TalkingSegment(span(0, 4000)),
		model.NoTalkingSegment(span(4000, 9000), &model.Description{Text: "A dog runs.", AudioFile: "ad_1.mp3"}),
		model.NoTalkingSegment(span(9000, 12000), nil),
	}

	back, err := timeline.Views(timeline.FormatSegments(tl))

	require.NoError(t, err)
	assert.Equal(t, tl, back)
}

func TestFromRequestReadsFormattedArrays(t *testing.T) {
	tl := model.Timeline{
		model.TalkingSegment(span(0, 4000)),
		model.NoTalkingSegment(span(4000, 9000), &model.Description{Text: "A dog runs.", AudioFile: "audio/ad_1.wav"}),
		model.NoTalkingSegment(span(9000, 12000), nil),
	}
	resp := timeline.Format(tl)

	back, err := timeline.FromRequest(&model.EncodeRequest{
		VideoFileName: "clip.mp4",
		Descriptions:  resp.Descriptions,
		Timestamps:    resp.Timestamps,
		AudioFiles:    resp.AudioFiles,
	})

	require.NoError(t, err)
	assert.Equal(t, tl, back)

	_, err = timeline.FromRequest(&model.EncodeRequest{VideoFileName: "clip.mp4", Descriptions: []string{"x"}})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
