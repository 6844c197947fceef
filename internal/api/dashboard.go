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

package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Stats counts the requests that ran a workflow.
type Stats struct {
	started   time.Time
	inFlight  atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64

	inFlightGauge metric.Int64UpDownCounter
	outcomes      metric.Int64Counter
}

// StatsSnapshot is the body of GET /stats.
type StatsSnapshot struct {
	InFlight      int64   `json:"in_flight"`
	Completed     int64   `json:"completed"`
	Failed        int64   `json:"failed"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func NewStats() *Stats {
	meter := otel.Meter("github.com/jaycherian/gcp-go-audio-describe/api")
	inFlight, _ := meter.Int64UpDownCounter("api.requests.in_flight")
	outcomes, _ := meter.Int64Counter("api.requests.finished")
	return &Stats{started: time.Now(), inFlightGauge: inFlight, outcomes: outcomes}
}

// Begin marks a request as started. The returned function records its
// outcome and must be called exactly once.
func (s *Stats) Begin() func(err error) {
	s.inFlight.Add(1)
	s.inFlightGauge.Add(bgCtx, 1)
	return func(err error) {
		s.inFlight.Add(-1)
		s.inFlightGauge.Add(bgCtx, -1)
		if err != nil {
			s.failed.Add(1)
			s.outcomes.Add(bgCtx, 1, metric.WithAttributes(outcomeFailed))
			return
		}
		s.completed.Add(1)
		s.outcomes.Add(bgCtx, 1, metric.WithAttributes(outcomeCompleted))
	}
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		InFlight:      s.inFlight.Load(),
		Completed:     s.completed.Load(),
		Failed:        s.failed.Load(),
		UptimeSeconds: time.Since(s.started).Seconds(),
	}
}

// Dashboard registers the statistics endpoint.
func Dashboard(r *gin.RouterGroup, stats *Stats) {
	// Create a new router group for any statistics-related endpoints, prefixed with "/stats".
	group := r.Group("/stats")
	{
		group.GET("", func(c *gin.Context) {
			c.JSON(http.StatusOK, stats.Snapshot())
		})
	}
}
