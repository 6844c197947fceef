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

package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/gcp-go-audio-describe/internal/cloud"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestTraceHandlerAddsCloudLoggingFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(traceHandler{Handler: slog.NewJSONHandler(&buf, &slog.HandlerOptions{ReplaceAttr: cloudLoggingKeys})})

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	logger.With("session", "abc").WarnContext(ctx, "slow narrator")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARNING", entry["severity"])
	assert.Equal(t, "slow narrator", entry["message"])
	assert.Equal(t, "abc", entry["session"])
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", entry[traceKey])
	assert.Equal(t, "0102030405060708", entry[spanIDKey])
	assert.Equal(t, true, entry[traceSampledKey])
	assert.Contains(t, entry, "timestamp")
}

func TestTraceHandlerWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(traceHandler{Handler: slog.NewJSONHandler(&buf, nil)})
	logger.Info("no span")
	assert.NotContains(t, buf.String(), traceKey)
}

func TestSetupOpenTelemetryDisabled(t *testing.T) {
	config := cloud.NewConfig()
	config.Telemetry.ExportersEnabled = false
	shutdown, err := SetupOpenTelemetry(context.Background(), config)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
