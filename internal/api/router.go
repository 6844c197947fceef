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

// Package api exposes the describe workflows over HTTP.
//
// Long running workflows answer with server-sent events: a progress event
// per stage and per described segment, then either a result event or, on
// failure, an optional partial event followed by an error event. The error
// carries the kind of the failure and a message.
//
// Routes, relative to /api/v1:
//   - POST /videos: upload a video and describe it.
//   - GET  /videos/:name/timeline: the latest stored timeline of a video.
//   - POST /sessions/:session/reanalyze: merge edited timestamps into a timeline.
//   - POST /sessions/:session/encode: render the described video.
//   - POST /sessions/:session/narrations: voice edited descriptions.
//   - GET  /sessions/:session/files/:kind/:name: download an artifact.
//   - GET  /artifacts/url: sign a published artifact reference.
//   - GET  /stats: request counters.
package api

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/workflow"
)

// Server holds what the handlers share.
type Server struct {
	deps  *workflow.Dependencies
	stats *Stats
}

func NewServer(deps *workflow.Dependencies, stats *Stats) *Server {
	return &Server{deps: deps, stats: stats}
}

// NewRouter builds the gin engine with tracing and CORS middleware and every
// route registered.
func NewRouter(s *Server) *gin.Engine {
	r := gin.Default()
	r.Use(otelgin.Middleware(s.deps.Config.Application.Name))
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		s.VideoRouter(apiV1)
		s.SessionRouter(apiV1)
		s.ArtifactRouter(apiV1)
		Dashboard(apiV1, s.stats)
	}
	// Artifacts published by the local store point here.
	r.GET(workflow.LocalFilesRoute+"/:session/:kind/:name", s.serveFile)
	return r
}

// withTimeout bounds a workflow by application.request_timeout_minutes.
func (s *Server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	minutes := s.deps.Config.Application.RequestTimeoutMinutes
	if minutes <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(minutes)*time.Minute)
}
