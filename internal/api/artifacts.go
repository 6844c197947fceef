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
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
)

// ArtifactRouter registers the signing route.
func (s *Server) ArtifactRouter(r *gin.RouterGroup) {
	artifacts := r.Group("/artifacts")
	{
		// GET /artifacts/url?ref=gs://bucket/object
		artifacts.GET("/url", func(c *gin.Context) {
			ref := c.Query("ref")
			if ref == "" {
				abort(c, model.Invalid("artifacts", "ref is required"))
				return
			}
			ttl := time.Duration(s.deps.Config.Storage.SignedURLTTLMinutes) * time.Minute
			url, err := s.deps.Store.URL(c.Request.Context(), ports.MediaRef{URI: ref}, ttl)
			if err != nil {
				abort(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": url, "expires_in_seconds": int(ttl.Seconds())})
		})
	}
}
