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

package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"

	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timecode"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timeline"
)

// MaxInlineMediaBytes is the largest local file sent inline to the model.
// Larger media must be published to GCS first.
const MaxInlineMediaBytes = 20 << 20

// GeminiAnalyzer uses a multimodal model for segmentation, talking
// detection, summaries and clip descriptions.
type GeminiAnalyzer struct {
	generator           ContentGenerator
	retry               RetryPolicy
	counters            *TokenCounters
	normalize           timeline.NormalizeOptions
	segmentsTemplate    *template.Template
	descriptionTemplate *template.Template
	summaryTemplate     *template.Template
}

// NewGeminiAnalyzer parses the prompt templates up front so a broken template
// fails at startup.
func NewGeminiAnalyzer(generator ContentGenerator, prompts PromptTemplates, retry RetryPolicy, normalize timeline.NormalizeOptions) (*GeminiAnalyzer, error) {
	segments, err := template.New("segments").Parse(prompts.SegmentsPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse segments prompt: %w", err)
	}
	description, err := template.New("description").Parse(prompts.DescriptionPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse description prompt: %w", err)
	}
	summary, err := template.New("summary").Parse(prompts.SummaryPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse summary prompt: %w", err)
	}
	return &GeminiAnalyzer{
		generator:           generator,
		retry:               retry,
		counters:            NewTokenCounters("gemini.analyzer"),
		normalize:           normalize,
		segmentsTemplate:    segments,
		descriptionTemplate: description,
		summaryTemplate:     summary,
	}, nil
}

// DetectSegments asks for a TALKING / NO_TALKING segmentation of the video.
func (g *GeminiAnalyzer) DetectSegments(ctx context.Context, video ports.MediaRef) ([]model.RawInterval, error) {
	const op = "gemini segments"
	example, err := json.Marshal(model.GetExampleSegmentation())
	if err != nil {
		return nil, err
	}
	prompt, err := render(g.segmentsTemplate, map[string]string{"EXAMPLE_JSON": string(example)})
	if err != nil {
		return nil, err
	}
	contents, err := mediaContents(video, prompt)
	if err != nil {
		return nil, err
	}

	var out []model.RawInterval
	err = g.retry.Do(ctx, func(ctx context.Context) error {
		text, err := GenerateMultiModalResponse(ctx, g.counters, RetryPolicy{MaxAttempts: 1}, g.generator, contents)
		if err != nil {
			return err
		}
		out, err = parseSegments(op, text)
		return err
	})
	return out, err
}

// parseSegments accepts a JSON array or the bare NO_TALKING sentinel, which
// some answers use for videos without speech. Unparseable answers are
// ExternalService errors so the retry policy asks again.
func parseSegments(op string, text string) ([]model.RawInterval, error) {
	trimmed := strings.Trim(strings.TrimSpace(text), "\"")
	if trimmed == "" {
		return nil, emptyAnswer(op)
	}
	if strings.EqualFold(trimmed, model.NoTalkingSentinel) {
		return []model.RawInterval{}, nil
	}
	var out []model.RawInterval
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return nil, model.External(op, fmt.Errorf("unparseable segmentation: %w", err), text)
	}
	return out, nil
}

// DetectTalking returns the merged talking intervals of the video.
func (g *GeminiAnalyzer) DetectTalking(ctx context.Context, video ports.MediaRef) ([]model.Span, bool, error) {
	raw, err := g.DetectSegments(ctx, video)
	if err != nil {
		return nil, false, err
	}
	talking := make([]model.RawInterval, 0, len(raw))
	for _, r := range raw {
		if label, err := model.ParseLabel(r.Type); err == nil && label == model.Talking {
			talking = append(talking, r)
		}
	}
	if len(talking) == 0 {
		return nil, false, nil
	}
	tl, err := timeline.Normalize(talking, g.normalize)
	if err != nil {
		return nil, false, err
	}
	spans := tl.Spans(model.Talking)
	return spans, len(spans) > 0, nil
}

// Summarize writes a short context summary of the whole video.
func (g *GeminiAnalyzer) Summarize(ctx context.Context, video ports.MediaRef) (string, error) {
	prompt, err := render(g.summaryTemplate, map[string]string{})
	if err != nil {
		return "", err
	}
	contents, err := mediaContents(video, prompt)
	if err != nil {
		return "", err
	}
	text, err := GenerateMultiModalResponse(ctx, g.counters, g.retry, g.generator, contents)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", emptyAnswer("gemini summary")
	}
	return text, nil
}

// Describe writes one narration sentence for a clip.
func (g *GeminiAnalyzer) Describe(ctx context.Context, clip ports.MediaRef, req ports.DescriptionRequest) (string, error) {
	summary := req.ContextSummary
	if summary == "" {
		summary = "not available"
	}
	prompt, err := render(g.descriptionTemplate, map[string]string{
		"SUMMARY":    summary,
		"WORD_LIMIT": strconv.Itoa(max(req.WordLimit, 1)),
		"TIME_START": timecode.Format(req.Span.Start, timecode.StyleColonMillis),
		"TIME_END":   timecode.Format(req.Span.End, timecode.StyleColonMillis),
	})
	if err != nil {
		return "", err
	}
	contents, err := mediaContents(clip, prompt)
	if err != nil {
		return "", err
	}
	text, err := GenerateMultiModalResponse(ctx, g.counters, g.retry, g.generator, contents)
	if err != nil {
		return "", err
	}
	text = strings.Trim(strings.TrimSpace(text), "\"")
	if text == "" {
		return "", emptyAnswer("gemini describe")
	}
	return text, nil
}

func render(t *template.Template, vocabulary map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, vocabulary); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// mediaContents builds a single user turn holding the media and the prompt.
// Remote references are passed by URI; local files are sent inline.
func mediaContents(ref ports.MediaRef, prompt string) ([]*genai.Content, error) {
	part, err := mediaPart(ref)
	if err != nil {
		return nil, err
	}
	return []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{part, genai.NewPartFromText(prompt)}, genai.RoleUser),
	}, nil
}

func mediaPart(ref ports.MediaRef) (*genai.Part, error) {
	mimeType := ref.MIMEType
	if mimeType == "" {
		mimeType = "video/mp4"
	}
	if strings.HasPrefix(ref.URI, "gs://") || strings.HasPrefix(ref.URI, "https://") {
		return NewFileData(ref.URI, mimeType), nil
	}
	info, err := os.Stat(ref.URI)
	if err != nil {
		return nil, model.NotFound("gemini media", "%s: %v", ref.URI, err)
	}
	if info.Size() > MaxInlineMediaBytes {
		return nil, model.Invalid("gemini media", "%s is %d bytes, configure an artifact bucket for media over %d bytes", ref.URI, info.Size(), MaxInlineMediaBytes)
	}
	data, err := os.ReadFile(ref.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to read media %s: %w", ref.URI, err)
	}
	return genai.NewPartFromBytes(data, mimeType), nil
}
