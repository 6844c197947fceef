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
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/commands"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timeline"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/workflow"
	"github.com/jaycherian/gcp-go-audio-describe/internal/workspace"
)

// VideoRouter registers the describe and history routes.
//
// Inputs:
//   - r: The /api/v1 group.
func (s *Server) VideoRouter(r *gin.RouterGroup) {
	videos := r.Group("/videos")
	{
		videos.POST("", s.processVideo)
		videos.GET("/:name/timeline", s.latestTimeline)
	}
}

// processVideo accepts a multipart form with the video under "video" and an
// optional "mode", then streams the describe workflow.
func (s *Server) processVideo(c *gin.Context) {
	if limit := s.deps.Config.Storage.MaxUploadMB; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit<<20)
	}
	mode, err := model.ParseDescribeMode(c.PostForm("mode"))
	if err != nil {
		abort(c, err)
		return
	}
	fh, err := c.FormFile("video")
	if err != nil {
		abort(c, model.Invalid("upload", "no video in request: %v", err))
		return
	}

	session, err := s.deps.Workspace.Create()
	if err != nil {
		abort(c, err)
		return
	}
	source, err := session.SaveUpload(fh)
	if err != nil {
		abort(c, err)
		return
	}
	videoName := filepath.Base(source)

	stream(c, s.stats, func(ctx context.Context, listener cor.ProgressListener) Outcome {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		chainCtx := workflow.NewContext(ctx, listener)
		defer chainCtx.Close()
		chainCtx.Add(commands.ParamSession, session)
		chainCtx.Add(commands.ParamVideoName, videoName)
		chainCtx.Add(commands.ParamSourcePath, source)

		out, err := workflow.Run(chainCtx, workflow.NewMediaReaderWorkflow(s.deps, mode), commands.ParamResponse)
		if s.deps.Notifier != nil {
			commands.NewCompletionNotifier("notify-completion", s.deps.Notifier).Execute(chainCtx)
		}
		if err != nil {
			return Outcome{Err: err, Partial: partialResponse(chainCtx, session, videoName)}
		}
		return Outcome{Result: out}
	})
}

// partialResponse renders what was described before a failure, or nil when
// nothing was.
func partialResponse(chainCtx cor.Context, session *workspace.Session, videoName string) *model.Response {
	tl, ok := chainCtx.Get(commands.ParamTimeline).(model.Timeline)
	if !ok {
		return nil
	}
	described := false
	for _, seg := range tl {
		described = described || seg.Described()
	}
	if !described {
		return nil
	}
	resp := timeline.Format(tl)
	resp.SessionID = session.ID
	resp.VideoName = videoName
	resp.Summary, _ = chainCtx.Get(commands.ParamSummary).(string)
	return resp
}

func (s *Server) latestTimeline(c *gin.Context) {
	if s.deps.History == nil {
		abort(c, model.NotFound("history", "timeline history is not configured"))
		return
	}
	record, err := s.deps.History.Latest(c.Request.Context(), c.Param("name"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
