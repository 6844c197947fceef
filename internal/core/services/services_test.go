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

package services_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zeebo/assert"

	"github.com/jaycherian/gcp-go-audio-describe/internal/cloud"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/services"
	test "github.com/jaycherian/gcp-go-audio-describe/internal/testutil"
)

func fastRetry() cloud.RetryPolicy {
	return cloud.RetryPolicy{MaxAttempts: 2, InitialDelay: time.Millisecond}
}

func newPipeline(media *test.FakeMedia, analyzer *test.FakeAnalyzer, narrator ports.Narrator, workers int) (*services.DescriptionPipeline, *test.FakeStore) {
	store := &test.FakeStore{}
	var narration *services.NarrationService
	if narrator != nil {
		narration = &services.NarrationService{Narrator: narrator, Retry: fastRetry(), Workers: workers}
	}
	return services.NewDescriptionPipeline(media, store, analyzer, narration, workers, 0), store
}

func TestWordLimit(t *testing.T) {
	assert.Equal(t, services.WordLimit(model.Span{Start: 0, End: 60000}, 170), 170)
	assert.Equal(t, services.WordLimit(model.Span{Start: 0, End: 3000}, 170), 8)
	assert.Equal(t, services.WordLimit(model.Span{Start: 0, End: 100}, 170), 1)
	// Zero falls back to the default rate.
	assert.Equal(t, services.WordLimit(model.Span{Start: 0, End: 60000}, 0), services.DefaultWordsPerMinute)
}

func TestDescribeProducesArtifactsForEverySpan(t *testing.T) {
	_, session := test.NewSession(t, "clip.mp4")
	media := &test.FakeMedia{}
	analyzer := &test.FakeAnalyzer{}
	narrator := &test.FakeNarrator{}
	pipeline, store := newPipeline(media, analyzer, narrator, 3)

	spans := []model.Span{{Start: 0, End: 5000}, {Start: 8000, End: 12000}, {Start: 12000, End: 20000}}
	var mu sync.Mutex
	progress := make([]int, 0, len(spans))
	out, err := pipeline.Describe(context.Background(), services.DescribeJob{
		Session:   session,
		VideoPath: session.SourcePath("clip.mp4"),
		Spans:     spans,
		Summary:   "a short film",
		OnProgress: func(done int, total int, _ model.Span) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, total, 3)
			progress = append(progress, done)
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, len(out), 3)
	assert.DeepEqual(t, progress, []int{1, 2, 3})
	assert.Equal(t, len(store.Published()), 3)
	assert.Equal(t, len(narrator.Texts()), 3)

	for _, span := range spans {
		d, ok := out[span]
		assert.True(t, ok)
		assert.Equal(t, d.Text, test.DescriptionFor(span))
		assert.True(t, strings.HasPrefix(d.SceneFile, "scenes/scene_"))
		assert.True(t, strings.HasPrefix(d.AudioFile, "audio/audio_"))
		assert.True(t, strings.HasSuffix(d.AudioFile, ".wav"))

		path, err := session.ResolveAudio(d.AudioFile)
		assert.NoError(t, err)
		_, err = os.Stat(path)
		assert.NoError(t, err)
	}

	for _, req := range analyzer.Requests() {
		assert.Equal(t, req.ContextSummary, "a short film")
		assert.Equal(t, req.WordLimit, services.WordLimit(req.Span, services.DefaultWordsPerMinute))
	}
}

func TestDescribeWithoutNarration(t *testing.T) {
	_, session := test.NewSession(t, "clip.mp4")
	pipeline, _ := newPipeline(&test.FakeMedia{}, &test.FakeAnalyzer{}, nil, 2)

	span := model.Span{Start: 1000, End: 4000}
	out, err := pipeline.Describe(context.Background(), services.DescribeJob{
		Session:   session,
		VideoPath: session.SourcePath("clip.mp4"),
		Spans:     []model.Span{span},
	})
	assert.NoError(t, err)
	assert.Equal(t, out[span].AudioFile, "")
}

func TestDescribeReturnsPartialResultsOnFailure(t *testing.T) {
	_, session := test.NewSession(t, "clip.mp4")
	bad := model.Span{Start: 5000, End: 9000}
	analyzer := &test.FakeAnalyzer{DescribeErr: map[model.Span]error{
		bad: model.Invalid("describe", "blocked"),
	}}
	// One worker processes spans in order, so the first span always
	// completes before the failure.
	pipeline, _ := newPipeline(&test.FakeMedia{}, analyzer, nil, 1)

	good := model.Span{Start: 0, End: 5000}
	out, err := pipeline.Describe(context.Background(), services.DescribeJob{
		Session:   session,
		VideoPath: session.SourcePath("clip.mp4"),
		Spans:     []model.Span{good, bad, {Start: 9000, End: 15000}},
	})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
	_, ok := out[good]
	assert.True(t, ok)
	_, ok = out[bad]
	assert.False(t, ok)
}

func TestDescribeStopsOnCancelledContext(t *testing.T) {
	_, session := test.NewSession(t, "clip.mp4")
	media := &test.FakeMedia{}
	pipeline, _ := newPipeline(media, &test.FakeAnalyzer{}, nil, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := pipeline.Describe(ctx, services.DescribeJob{
		Session:   session,
		VideoPath: session.SourcePath("clip.mp4"),
		Spans:     []model.Span{{Start: 0, End: 5000}, {Start: 5000, End: 9000}},
	})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, len(out), 0)
	assert.Equal(t, len(media.Cuts()), 0)
}

func TestDescribeWithoutSpans(t *testing.T) {
	pipeline, _ := newPipeline(&test.FakeMedia{}, &test.FakeAnalyzer{}, nil, 2)
	out, err := pipeline.Describe(context.Background(), services.DescribeJob{})
	assert.NoError(t, err)
	assert.Equal(t, len(out), 0)
}

// flakyNarrator fails with a retryable error the first time.
type flakyNarrator struct {
	test.FakeNarrator
	mu    sync.Mutex
	calls int
}

func (f *flakyNarrator) Synthesize(ctx context.Context, text string) (ports.Audio, error) {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	f.mu.Unlock()
	if first {
		return ports.Audio{}, test.ExternalErr("tts")
	}
	return f.FakeNarrator.Synthesize(ctx, text)
}

func TestNarrateRetriesExternalFailures(t *testing.T) {
	_, session := test.NewSession(t, "")
	narrator := &flakyNarrator{}
	service := &services.NarrationService{Narrator: narrator, Retry: fastRetry()}

	ref, err := service.Narrate(context.Background(), session, "A door opens.")
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "audio/"))
	assert.Equal(t, narrator.calls, 2)
}

func TestNarrateAllKeepsRequestOrder(t *testing.T) {
	_, session := test.NewSession(t, "")
	service := &services.NarrationService{Narrator: &test.FakeNarrator{}, Retry: fastRetry(), Workers: 3}

	items := []model.NarrationItem{
		{Description: "first", Timestamps: [2]model.TimePoint{0, 1000}},
		{Description: "second", Timestamps: [2]model.TimePoint{1000, 2000}},
		{Description: "third", Timestamps: [2]model.TimePoint{2000, 3000}},
	}
	resp, err := service.NarrateAll(context.Background(), session, items)
	assert.NoError(t, err)
	assert.Equal(t, len(resp.AudioFiles), 3)
	for i, item := range items {
		assert.Equal(t, resp.AudioFiles[i].Description, item.Description)
		assert.Equal(t, resp.AudioFiles[i].Timestamps, item.Timestamps)
		assert.True(t, strings.HasPrefix(resp.AudioFiles[i].AudioFile, "audio/"))
	}
}

// gatedNarrator records how many calls run at once and fails on one text.
type gatedNarrator struct {
	test.FakeNarrator
	failOn   string
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (g *gatedNarrator) Synthesize(ctx context.Context, text string) (ports.Audio, error) {
	g.mu.Lock()
	g.inFlight++
	g.peak = max(g.peak, g.inFlight)
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		g.inFlight--
		g.mu.Unlock()
	}()
	time.Sleep(5 * time.Millisecond)
	if text == g.failOn {
		return ports.Audio{}, model.Invalid("tts", "blocked")
	}
	return g.FakeNarrator.Synthesize(ctx, text)
}

func TestNarrateAllBoundsConcurrency(t *testing.T) {
	_, session := test.NewSession(t, "")
	narrator := &gatedNarrator{}
	service := &services.NarrationService{Narrator: narrator, Retry: fastRetry(), Workers: 2}

	items := make([]model.NarrationItem, 6)
	for i := range items {
		items[i] = model.NarrationItem{Description: "line", Timestamps: [2]model.TimePoint{model.TimePoint(i * 1000), model.TimePoint(i*1000 + 500)}}
	}
	resp, err := service.NarrateAll(context.Background(), session, items)
	assert.NoError(t, err)
	assert.Equal(t, len(resp.AudioFiles), 6)
	assert.True(t, narrator.peak <= 2)
	assert.True(t, narrator.peak >= 1)
}

func TestNarrateAllReportsFailure(t *testing.T) {
	_, session := test.NewSession(t, "")
	service := &services.NarrationService{Narrator: &gatedNarrator{failOn: "bad"}, Retry: fastRetry(), Workers: 1}

	resp, err := service.NarrateAll(context.Background(), session, []model.NarrationItem{{Description: "good"}, {Description: "bad"}})
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
	assert.NotNil(t, resp)
	assert.True(t, strings.HasPrefix(resp.AudioFiles[0].AudioFile, "audio/"))
	assert.Equal(t, resp.AudioFiles[1].AudioFile, "")
}

func TestNarrateAllRejectsEmptyText(t *testing.T) {
	_, session := test.NewSession(t, "")
	narrator := &test.FakeNarrator{}
	service := &services.NarrationService{Narrator: narrator, Retry: fastRetry()}

	_, err := service.NarrateAll(context.Background(), session, []model.NarrationItem{{Description: "ok"}, {Description: "  "}})
	assert.True(t, errors.Is(err, model.ErrInvalidInput))
	assert.Equal(t, len(narrator.Texts()), 0)
}

func TestAudioExtension(t *testing.T) {
	wav := append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 32)...)
	assert.Equal(t, services.AudioExtension(ports.Audio{Data: wav}), "wav")
	assert.Equal(t, services.AudioExtension(ports.Audio{Data: []byte("??"), MIMEType: "audio/mpeg"}), "mp3")
	assert.Equal(t, services.AudioExtension(ports.Audio{Data: []byte("??"), MIMEType: "audio/ogg; codecs=opus"}), "ogg")
	assert.Equal(t, services.AudioExtension(ports.Audio{}), "wav")
}

func TestHistoryWithoutClientIsNotFound(t *testing.T) {
	history := &services.TimelineHistoryService{}
	_, err := history.Latest(context.Background(), "clip.mp4")
	assert.True(t, errors.Is(err, model.ErrSourceNotFound))
}
