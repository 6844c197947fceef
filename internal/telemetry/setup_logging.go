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

// Package telemetry sets up logging, tracing and metrics. This file
// configures `log/slog` for Cloud Logging.
//
// Records are written as JSON to stdout with the field names Cloud Logging
// understands (severity, message, timestamp). Records logged under an active
// span carry its trace and span ids, so a run can be followed from Cloud
// Trace into its logs.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/gcp-go-audio-describe/internal/cloud"
)

// Cloud Logging special payload fields.
const (
	traceKey        = "logging.googleapis.com/trace"
	spanIDKey       = "logging.googleapis.com/spanId"
	traceSampledKey = "logging.googleapis.com/trace_sampled"
)

// traceHandler stamps records logged under an active span with its ids so
// a pipeline run can be followed from the trace view into the logs.
type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.Any(traceKey, sc.TraceID()),
			slog.Any(spanIDKey, sc.SpanID()),
			slog.Bool(traceSampledKey, sc.TraceFlags().IsSampled()),
		)
	}
	return h.Handler.Handle(ctx, record)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{Handler: h.Handler.WithGroup(name)}
}

// cloudLoggingKeys renames the slog keys to severity/timestamp/message and
// spells WARN the way LogSeverity does.
func cloudLoggingKeys(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.LevelKey:
		a.Key = "severity"
		if level, ok := a.Value.Any().(slog.Level); ok && level == slog.LevelWarn {
			a.Value = slog.StringValue("WARNING")
		}
	case slog.TimeKey:
		a.Key = "timestamp"
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

// ParseLevel maps the configured level name onto slog, defaulting to Info.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// SetupLogging points both log and slog at stdout, teeing into
// telemetry.log_file when one is configured. The file is truncated on start.
func SetupLogging(config cloud.Telemetry) {
	var out io.Writer = os.Stdout
	if config.LogFile != "" {
		if file, err := os.Create(config.LogFile); err == nil {
			out = io.MultiWriter(os.Stdout, file)
		} else {
			fmt.Fprintf(os.Stderr, "cannot open log file %s: %v\n", config.LogFile, err)
		}
	}

	log.SetOutput(out)
	log.SetPrefix("[describe] ")
	log.SetFlags(log.Ldate | log.Ltime)

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		ReplaceAttr: cloudLoggingKeys,
		Level:       ParseLevel(config.LogLevel),
	})
	slog.SetDefault(slog.New(traceHandler{Handler: handler}))
}
