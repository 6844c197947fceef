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

// Package cloud provides the Google Cloud and Gemini adapters. This file
// implements a wrapper around the genai model handle. The wrapper adds rate
// limiting to the model so the description workers cannot exceed the
// project quota.
//
// Why this is important:
//   - Rate Limiting: the vision and speech models have per minute quotas.
//     Every worker of the description pool shares one limiter per model.
//   - Error Kinds: failures surface as ExternalService errors, which the
//     RetryPolicy of the caller knows how to back off from.
//
// Structs:
//   - QuotaAwareGenerativeAIModel: pairs a model name, its generation config
//     and a `rate.Limiter`.
//
// Functions:
//   - NewQuotaAwareModel: builds the wrapper from the configured rate.
//   - GenerateContent: waits for a token and calls the model.
package cloud

import (
	"context"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

// ContentGenerator is the slice of a generative model the adapters need.
type ContentGenerator interface {
	Name() string
	GenerateContent(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error)
}

// QuotaAwareGenerativeAIModel pairs a model name and its generation config
// with a rate limiter so concurrent workers stay under the project quota.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig
	ModelName               string
	ModelHandle             *genai.Models
	RateLimit               *rate.Limiter
}

// NewQuotaAwareModel allows requestsPerSecond calls per second with an equal
// burst. Values below one are treated as one.
func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, modelHandle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	requestsPerSecond = max(requestsPerSecond, 1)
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             modelHandle,
		RateLimit:               rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

func (q *QuotaAwareGenerativeAIModel) Name() string {
	return q.ModelName
}

// GenerateContent waits for a limiter token, then calls the model. Failures
// are reported as ExternalService errors; retrying is left to the caller.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := q.ModelHandle.GenerateContent(ctx, q.ModelName, contents, q.GenerativeContentConfig)
	if err != nil {
		return nil, model.External("generate "+q.ModelName, err, "")
	}
	return resp, nil
}
