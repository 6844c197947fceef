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

// Package model_test contains unit tests for the value types and typed
// errors in the model package.
package model_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKindsMatchSentinels(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", model.NotFound("lookup", "video %q", "a.mp4"))

	assert.True(t, errors.Is(err, model.ErrSourceNotFound))
	assert.False(t, errors.Is(err, model.ErrInvalidInput))
	assert.Equal(t, model.KindSourceNotFound, model.KindOf(err))
	assert.False(t, model.IsRetryable(err))
	assert.Contains(t, err.Error(), "lookup: source not found: video \"a.mp4\"")
}

func TestExternalErrorCarriesDetail(t *testing.T) {
	cause := errors.New("exit status 1")
	err := model.External("ffmpeg cut", cause, "No such file")

	assert.True(t, model.IsRetryable(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "ffmpeg cut: external service error: exit status 1\nNo such file", err.Error())
	assert.Equal(t, model.KindUnknown, model.KindOf(errors.New("plain")))
}

func TestParseLabel(t *testing.T) {
	for _, in := range []string{"TALKING", " talking ", "Talking"} {
		l, err := model.ParseLabel(in)
		require.NoError(t, err, in)
		assert.Equal(t, model.Talking, l)
	}
	for _, in := range []string{"NO_TALKING", "no talking", "No-Talking"} {
		l, err := model.ParseLabel(in)
		require.NoError(t, err, in)
		assert.Equal(t, model.NoTalking, l)
	}
	_, err := model.ParseLabel("MUSIC")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestSegmentViewInfersLabel(t *testing.T) {
	audio := "a.mp3"
	seg, err := model.SegmentView{Start: 0, End: 1000, Description: "TALKING"}.Segment()
	require.NoError(t, err)
	assert.Equal(t, model.Talking, seg.Label)

	seg, err = model.SegmentView{Start: 0, End: 1000, Description: "NO_TALKING"}.Segment()
	require.NoError(t, err)
	assert.Equal(t, model.NoTalking, seg.Label)
	assert.Nil(t, seg.Description)

	seg, err = model.SegmentView{Start: 0, End: 1000, Description: "A dog barks.", AudioFile: &audio}.Segment()
	require.NoError(t, err)
	require.True(t, seg.Described())
	assert.Equal(t, "a.mp3", seg.Description.AudioFile)

	_, err = model.SegmentView{Start: 2000, End: 1000}.Segment()
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestTimelineWithDescriptionsDoesNotAlias(t *testing.T) {
	tl := model.Timeline{
		model.TalkingSegment(model.Span{Start: 0, End: 1000}),
		model.NoTalkingSegment(model.Span{Start: 1000, End: 5000}, nil),
	}
	described := tl.WithDescriptions(map[model.Span]model.Description{
		{Start: 1000, End: 5000}: {Text: "Rain falls."},
	})

	assert.Nil(t, tl[1].Description)
	require.NotNil(t, described[1].Description)
	assert.Equal(t, "Rain falls.", described[1].Description.Text)
	assert.Equal(t, model.TimePoint(5000), described.End())
}

func TestTimelineRecordRoundTrip(t *testing.T) {
	tl := model.Timeline{
		model.TalkingSegment(model.Span{Start: 0, End: 4000}),
		model.NoTalkingSegment(model.Span{Start: 4000, End: 9000}, &model.Description{Text: "A car passes.", AudioFile: "x.mp3"}),
		model.NoTalkingSegment(model.Span{Start: 9000, End: 12000}, nil),
	}
	rec := model.NewTimelineRecord("session", "clip.mp4", model.ModeSegments, "summary", tl)

	assert.NotEmpty(t, rec.Id)
	assert.WithinDuration(t, time.Now(), rec.CreateDate, time.Second)
	require.Len(t, rec.Segments, 3)
	assert.Equal(t, "NO_TALKING", rec.Segments[1].Type)

	back, err := rec.Timeline()
	require.NoError(t, err)
	assert.Equal(t, tl, back)
}

func TestEncodeRequestValidate(t *testing.T) {
	req := &model.EncodeRequest{
		VideoFileName: "clip.mp4",
		Descriptions:  []string{"TALKING", "A bird lands."},
		Timestamps:    [][2]model.TimePoint{{0, 1000}, {1000, 4000}},
	}
	require.NoError(t, req.Validate())
	assert.False(t, req.Narratable(0))
	assert.True(t, req.Narratable(1))
	assert.Equal(t, "", req.AudioFile(1))

	req.Timestamps = req.Timestamps[:1]
	assert.ErrorIs(t, req.Validate(), model.ErrInvalidInput)
}

func TestSpanListAcceptsBothForms(t *testing.T) {
	var req model.ReanalyzeRequest
	require.NoError(t, json.Unmarshal([]byte(`{"video_name":"a.mp4","new_timestamps":"0-4000, 4000-9000,bogus"}`), &req))
	assert.Equal(t, model.SpanList{{Start: 0, End: 4000}, {Start: 4000, End: 9000}}, req.NewTimestamps)

	require.NoError(t, json.Unmarshal([]byte(`{"new_timestamps":[[1,2],[3,4]]}`), &req))
	assert.Equal(t, model.SpanList{{Start: 1, End: 2}, {Start: 3, End: 4}}, req.NewTimestamps)

	assert.Error(t, json.Unmarshal([]byte(`{"new_timestamps":"x-1"}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"new_timestamps":{"a":1}}`), &req))
}
