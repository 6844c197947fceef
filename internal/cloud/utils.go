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
// holds the helpers shared by the adapters: layered TOML configuration
// loading, token metering and Gemini response handling.
//
// Configuration is read from `.env.toml` in the directory named by
// GCP_CONFIG_PREFIX, then overlaid with `.env.<runtime>.toml` where the
// runtime comes from GCP_RUNTIME and defaults to "test".
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

const (
	ConfigFileBaseName  = ".env"              // base config is ${prefix}.env.toml
	ConfigFileExtension = ".toml"             // config file extension
	ConfigSeparator     = "."                 // separator before the runtime name
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // directory holding the config files
	EnvConfigRuntime    = "GCP_RUNTIME"       // runtime overlay, e.g. "local", "test", "prod"
)

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig decodes the base configuration file and then the runtime overlay
// into baseConfig. Missing files are skipped; values not present in a file
// keep whatever baseConfig already held.
//
// Inputs:
//   - baseConfig: A pointer to the configuration struct, usually from NewConfig.
//
// Outputs:
//   - error: A decode failure, naming the offending file.
func LoadConfig(baseConfig any) error {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension

	for _, name := range []string{baseConfigFileName, envConfigFileName} {
		if !fileExists(name) {
			slog.Debug("configuration file not found, skipping", "file", name)
			continue
		}
		if _, err := toml.DecodeFile(name, baseConfig); err != nil {
			return fmt.Errorf("failed to decode configuration file %s: %w", name, err)
		}
		slog.Debug("loaded configuration file", "file", name)
	}
	return nil
}

// TokenCounters meters Gemini usage for one caller.
type TokenCounters struct {
	Input  metric.Int64Counter
	Output metric.Int64Counter
	Retry  metric.Int64Counter
}

// NewTokenCounters creates the counters under the given name prefix.
func NewTokenCounters(name string) *TokenCounters {
	meter := otel.Meter("github.com/jaycherian/gcp-go-audio-describe")
	input, _ := meter.Int64Counter(name + ".token.input")
	output, _ := meter.Int64Counter(name + ".token.output")
	retry, _ := meter.Int64Counter(name + ".retry")
	return &TokenCounters{Input: input, Output: output, Retry: retry}
}

func (t *TokenCounters) record(ctx context.Context, resp *genai.GenerateContentResponse) {
	if t == nil || resp == nil || resp.UsageMetadata == nil {
		return
	}
	if t.Input != nil {
		t.Input.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
	}
	if t.Output != nil {
		t.Output.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
	}
}

func (t *TokenCounters) retried(ctx context.Context) {
	if t != nil && t.Retry != nil {
		t.Retry.Add(ctx, 1)
	}
}

// GenerateMultiModalResponse sends contents to the model under the retry
// policy and returns the concatenated text of the answer with any markdown
// code fence removed.
func GenerateMultiModalResponse(
	ctx context.Context,
	counters *TokenCounters,
	policy RetryPolicy,
	generator ContentGenerator,
	contents []*genai.Content) (string, error) {
	policy.OnRetry = func(ctx context.Context, attempt int, err error) {
		counters.retried(ctx)
		slog.WarnContext(ctx, "retrying generation", "model", generator.Name(), "attempt", attempt, "error", err)
	}
	resp, err := Retry(ctx, policy, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return generator.GenerateContent(ctx, contents)
	})
	if err != nil {
		return "", err
	}
	counters.record(ctx, resp)
	return StripCodeFence(ResponseText(resp)), nil
}

// ResponseText concatenates the text parts of every candidate.
func ResponseText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// StripCodeFence removes a surrounding ``` or ```json fence and whitespace.
func StripCodeFence(value string) string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "```") {
		value = strings.TrimPrefix(value, "```")
		if nl := strings.IndexByte(value, '\n'); nl >= 0 && !strings.ContainsAny(value[:nl], "[{") {
			value = value[nl+1:]
		}
		value = strings.TrimSuffix(strings.TrimSpace(value), "```")
	}
	return strings.TrimSpace(value)
}

// NewTextPart wraps text as user content.
func NewTextPart(in string) []*genai.Content {
	return genai.Text(in)
}

// NewFileData references a file the model reads directly, such as a gs:// URI.
func NewFileData(in string, mimeType string) *genai.Part {
	return &genai.Part{FileData: &genai.FileData{FileURI: in, MIMEType: mimeType}}
}

// emptyAnswer reports a response without any usable text.
func emptyAnswer(op string) error {
	return model.External(op, errors.New("model returned an empty answer"), "")
}
