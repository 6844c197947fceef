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

// Package test holds the shared fixtures of the suites. This file provides
// in-memory fakes for every port so workflows run without ffmpeg, Gemini or
// Google Cloud. Each fake records its calls for assertions.
package test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jaycherian/gcp-go-audio-describe/internal/cloud"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
)

// FakeAnalyzer stands in for the vision model. It implements
// ports.TalkingDetector, ports.Summarizer and ports.DescriptionGenerator.
type FakeAnalyzer struct {
	Segments []model.RawInterval
	Talking  []model.Span
	Summary  string

	// DescribeErr fails Describe for the given spans.
	DescribeErr map[model.Span]error
	DetectErr   error
	SummaryErr  error

	mu       sync.Mutex
	requests []ports.DescriptionRequest
}

func (f *FakeAnalyzer) DetectSegments(ctx context.Context, _ ports.MediaRef) ([]model.RawInterval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.Segments, f.DetectErr
}

func (f *FakeAnalyzer) DetectTalking(ctx context.Context, _ ports.MediaRef) ([]model.Span, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if f.DetectErr != nil {
		return nil, false, f.DetectErr
	}
	return f.Talking, len(f.Talking) > 0, nil
}

func (f *FakeAnalyzer) Summarize(ctx context.Context, _ ports.MediaRef) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.Summary, f.SummaryErr
}

func (f *FakeAnalyzer) Describe(ctx context.Context, _ ports.MediaRef, req ports.DescriptionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if err, ok := f.DescribeErr[req.Span]; ok {
		return "", err
	}
	return DescriptionFor(req.Span), nil
}

// Requests returns every description request seen so far.
func (f *FakeAnalyzer) Requests() []ports.DescriptionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ports.DescriptionRequest(nil), f.requests...)
}

// DescriptionFor is the text FakeAnalyzer writes for span.
func DescriptionFor(span model.Span) string {
	return fmt.Sprintf("A scene from %s.", span)
}

// FakeNarrator returns a short WAV for every text.
type FakeNarrator struct {
	Err error

	mu    sync.Mutex
	texts []string
}

func (f *FakeNarrator) Synthesize(ctx context.Context, text string) (ports.Audio, error) {
	if err := ctx.Err(); err != nil {
		return ports.Audio{}, err
	}
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.Err != nil {
		return ports.Audio{}, f.Err
	}
	return ports.Audio{Data: append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 32)...), MIMEType: "audio/wav"}, nil
}

// Texts returns every synthesized text.
func (f *FakeNarrator) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

// FakeMedia replaces the ffmpeg adapter. Every method that produces a file
// writes a placeholder so later steps can find it.
type FakeMedia struct {
	Scenes    []model.Span
	Durations map[string]model.TimePoint // by path, DefaultDuration otherwise
	// DefaultDuration is returned for paths missing from Durations.
	DefaultDuration model.TimePoint
	Audio           bool
	CutErr          map[model.Span]error

	mu       sync.Mutex
	cuts     []model.Span
	speedUps []float64
	mixes    []ports.MixRequest
	muxes    []ports.MuxRequest
}

func (f *FakeMedia) DetectScenes(ctx context.Context, _ string) ([]model.Span, error) {
	return f.Scenes, ctx.Err()
}

func (f *FakeMedia) Cut(ctx context.Context, _ string, span model.Span, outPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.cuts = append(f.cuts, span)
	f.mu.Unlock()
	if err, ok := f.CutErr[span]; ok {
		return err
	}
	return placeholder(outPath)
}

func (f *FakeMedia) Duration(_ context.Context, path string) (model.TimePoint, error) {
	if d, ok := f.Durations[path]; ok {
		return d, nil
	}
	return f.DefaultDuration, nil
}

func (f *FakeMedia) HasAudio(context.Context, string) (bool, error) {
	return f.Audio, nil
}

func (f *FakeMedia) SpeedUp(_ context.Context, _ string, factor float64, outPath string) error {
	f.mu.Lock()
	f.speedUps = append(f.speedUps, factor)
	f.mu.Unlock()
	return placeholder(outPath)
}

func (f *FakeMedia) Mix(_ context.Context, req ports.MixRequest) error {
	f.mu.Lock()
	f.mixes = append(f.mixes, req)
	f.mu.Unlock()
	return placeholder(req.Output)
}

func (f *FakeMedia) Mux(_ context.Context, req ports.MuxRequest) error {
	f.mu.Lock()
	f.muxes = append(f.muxes, req)
	f.mu.Unlock()
	return placeholder(req.Output)
}

func (f *FakeMedia) Transcode(_ context.Context, _ string, outPath string, _ model.MediaFormatFilter) error {
	return placeholder(outPath)
}

func (f *FakeMedia) RenderWaveform(_ context.Context, _ string, outPath string) error {
	return placeholder(outPath)
}

func (f *FakeMedia) Cuts() []model.Span {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Span(nil), f.cuts...)
}

func (f *FakeMedia) SpeedUps() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.speedUps...)
}

func (f *FakeMedia) Mixes() []ports.MixRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ports.MixRequest(nil), f.mixes...)
}

func (f *FakeMedia) Muxes() []ports.MuxRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ports.MuxRequest(nil), f.muxes...)
}

func placeholder(path string) error {
	return os.WriteFile(path, []byte("fake media"), 0o644)
}

// FakeStore is an in-memory ports.ArtifactStore.
type FakeStore struct {
	Err error

	mu        sync.Mutex
	published []string
}

func (f *FakeStore) Publish(_ context.Context, localPath string, name string, mimeType string) (ports.MediaRef, error) {
	if f.Err != nil {
		return ports.MediaRef{}, f.Err
	}
	if _, err := os.Stat(localPath); err != nil {
		return ports.MediaRef{}, fmt.Errorf("publish %s: %w", name, err)
	}
	f.mu.Lock()
	f.published = append(f.published, name)
	f.mu.Unlock()
	return ports.MediaRef{URI: "gs://fake-bucket/" + name, MIMEType: mimeType}, nil
}

func (f *FakeStore) URL(_ context.Context, ref ports.MediaRef, _ time.Duration) (string, error) {
	return "https://signed.example/" + ref.URI, nil
}

// Published lists the object names passed to Publish.
func (f *FakeStore) Published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.published...)
}

// FakeNotifier records completion events.
type FakeNotifier struct {
	Err    error
	Events []model.CompletionEvent
}

func (f *FakeNotifier) Notify(_ context.Context, event model.CompletionEvent) error {
	f.Events = append(f.Events, event)
	return f.Err
}

// FakeInserter records the rows a BigQuery inserter would receive.
type FakeInserter struct {
	Err  error
	Rows []any
}

func (f *FakeInserter) Put(_ context.Context, src any) error {
	if f.Err != nil {
		return f.Err
	}
	f.Rows = append(f.Rows, src)
	return nil
}

// FakeDownloader writes Data for every requested object.
type FakeDownloader struct {
	Data    []byte
	Err     error
	Objects []*cloud.GCSObject
}

func (f *FakeDownloader) Download(_ context.Context, obj *cloud.GCSObject, localPath string) error {
	f.Objects = append(f.Objects, obj)
	if f.Err != nil {
		return f.Err
	}
	return os.WriteFile(localPath, f.Data, 0o644)
}

// ExternalErr is a retryable failure of a collaborator.
func ExternalErr(op string) error {
	return model.External(op, fmt.Errorf("service unavailable"), "")
}
