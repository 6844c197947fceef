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

// Package services contains the business logic that sits between the
// workflow commands and the adapters. This file, `description.go`, defines
// the DescriptionPipeline, which turns a list of non-dialogue spans into
// narrated descriptions.
//
// Logic Flow:
// Describing a video is dominated by calls to the vision model and to the
// speech model, so the pipeline fans the spans out to a pool of workers.
//
//  1. A `jobs` channel receives one descriptionJob per span and a `results`
//     channel collects a descriptionResult per job.
//  2. Each worker cuts its clip out of the source video, publishes it to the
//     artifact store and asks the DescriptionGenerator for a sentence sized to
//     the clip with WordLimit.
//  3. When a NarrationService is configured, the sentence is voiced and the
//     audio written into the session.
//  4. The caller goroutine drains `results` as they arrive, reporting
//     progress after every finished span. The first failure cancels the
//     remaining jobs; spans that already finished are still returned.
package services

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timecode"
	"github.com/jaycherian/gcp-go-audio-describe/internal/workspace"
)

const (
	// DefaultWordsPerMinute is the speaking rate narration is sized for.
	DefaultWordsPerMinute = 170
	// DefaultWorkers is the pool size used when none is configured.
	DefaultWorkers = 4

	tracerName = "github.com/jaycherian/gcp-go-audio-describe/services"
)

// WordLimit is the number of words that can be spoken in span at
// wordsPerMinute, never less than one.
func WordLimit(span model.Span, wordsPerMinute int) int {
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultWordsPerMinute
	}
	words := int(timecode.Seconds(span.Duration()) * float64(wordsPerMinute) / 60)
	return max(words, 1)
}

// ProgressFunc is told how many of total spans are finished, and which span
// just finished.
type ProgressFunc func(done int, total int, span model.Span)

// DescribeJob is one fan out request.
type DescribeJob struct {
	Session   *workspace.Session
	VideoPath string
	Spans     []model.Span
	// Summary is optional context for every clip.
	Summary    string
	OnProgress ProgressFunc
}

// DescriptionPipeline runs the cut, publish, describe, narrate sequence for
// many spans concurrently.
type DescriptionPipeline struct {
	Cutter    ports.MediaCutter
	Store     ports.ArtifactStore
	Describer ports.DescriptionGenerator
	// Narration is optional. Without it descriptions carry no audio file.
	Narration      *NarrationService
	Workers        int
	WordsPerMinute int

	tracer trace.Tracer
}

// NewDescriptionPipeline wires a pipeline with its own tracer.
func NewDescriptionPipeline(
	cutter ports.MediaCutter,
	store ports.ArtifactStore,
	describer ports.DescriptionGenerator,
	narration *NarrationService,
	workers int,
	wordsPerMinute int) *DescriptionPipeline {
	return &DescriptionPipeline{
		Cutter:         cutter,
		Store:          store,
		Describer:      describer,
		Narration:      narration,
		Workers:        workers,
		WordsPerMinute: wordsPerMinute,
		tracer:         otel.Tracer(tracerName),
	}
}

type descriptionJob struct {
	index int
	span  model.Span
}

type descriptionResult struct {
	span        model.Span
	description model.Description
	err         error
}

// Describe describes every span of job. The returned map holds every span
// that completed, even when err is not nil.
func (p *DescriptionPipeline) Describe(ctx context.Context, job DescribeJob) (map[model.Span]model.Description, error) {
	out := make(map[model.Span]model.Description, len(job.Spans))
	if len(job.Spans) == 0 {
		return out, nil
	}
	if job.Session == nil {
		return out, model.Invalid("describe", "no session for %s", job.VideoPath)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan descriptionJob, len(job.Spans))
	results := make(chan descriptionResult, len(job.Spans))

	var wg sync.WaitGroup
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	for w := 0; w < min(workers, len(job.Spans)); w++ {
		wg.Add(1)
		go p.worker(ctx, job, jobs, results, &wg)
	}
	for i, span := range job.Spans {
		jobs <- descriptionJob{index: i, span: span}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	done := 0
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
				cancel()
			}
			continue
		}
		out[r.span] = r.description
		done++
		if job.OnProgress != nil {
			job.OnProgress(done, len(job.Spans), r.span)
		}
	}
	if firstErr == nil && len(out) < len(job.Spans) {
		// Every worker stopped on a cancelled context.
		firstErr = ctx.Err()
	}
	return out, firstErr
}

func (p *DescriptionPipeline) worker(ctx context.Context, job DescribeJob, jobs <-chan descriptionJob, results chan<- descriptionResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for j := range jobs {
		if err := ctx.Err(); err != nil {
			results <- descriptionResult{span: j.span, err: err}
			continue
		}
		d, err := p.describeOne(ctx, job, j)
		results <- descriptionResult{span: j.span, description: d, err: err}
	}
}

func (p *DescriptionPipeline) describeOne(ctx context.Context, job DescribeJob, j descriptionJob) (model.Description, error) {
	tracer := p.tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	ctx, span := tracer.Start(ctx, fmt.Sprintf("describe_segment_%d", j.index))
	span.SetAttributes(
		attribute.Int64("start_ms", int64(j.span.Start)),
		attribute.Int64("end_ms", int64(j.span.End)),
	)
	defer span.End()

	d, err := p.run(ctx, job, j.span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return d, fmt.Errorf("segment %s: %w", j.span, err)
	}
	span.SetStatus(codes.Ok, "described")
	return d, nil
}

func (p *DescriptionPipeline) run(ctx context.Context, job DescribeJob, span model.Span) (model.Description, error) {
	session := job.Session
	clipName := session.NewArtifactName("scene", "mp4")
	clipPath := session.ArtifactPath(workspace.DirScenes, clipName)
	if err := p.Cutter.Cut(ctx, job.VideoPath, span, clipPath); err != nil {
		return model.Description{}, err
	}
	ref, err := p.Store.Publish(ctx, clipPath, session.ObjectName(workspace.DirScenes, clipName), "video/mp4")
	if err != nil {
		return model.Description{}, err
	}

	text, err := p.Describer.Describe(ctx, ref, ports.DescriptionRequest{
		Span:           span,
		ContextSummary: job.Summary,
		WordLimit:      WordLimit(span, p.WordsPerMinute),
	})
	if err != nil {
		return model.Description{}, err
	}
	d := model.Description{Text: text, SceneFile: workspace.DirScenes + "/" + clipName}

	if p.Narration != nil {
		audio, err := p.Narration.Narrate(ctx, session, text)
		if err != nil {
			return model.Description{}, err
		}
		d.AudioFile = audio
	}
	return d, nil
}
