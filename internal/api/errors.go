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
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

var (
	bgCtx            = context.Background()
	outcomeCompleted = attribute.String("outcome", "completed")
	outcomeFailed    = attribute.String("outcome", "failed")
)

// ErrorBody is the JSON shape of every failure, in plain responses and in
// the SSE error event.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// StatusFor maps an error kind onto an HTTP status.
func StatusFor(err error) int {
	switch model.KindOf(err) {
	case model.KindInvalidInput, model.KindMalformedTimestamp:
		return http.StatusBadRequest
	case model.KindSourceNotFound:
		return http.StatusNotFound
	case model.KindExternalService:
		return http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func errorBody(err error) ErrorBody {
	return ErrorBody{Kind: model.KindOf(err).String(), Message: err.Error()}
}

// abort writes err as JSON with its mapped status.
func abort(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, errorBody(err))
}
