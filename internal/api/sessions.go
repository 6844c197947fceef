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

// SessionRouter registers the routes that work on an existing session.
//
// Inputs:
//   - r: The /api/v1 group.
func (s *Server) SessionRouter(r *gin.RouterGroup) {
	sessions := r.Group("/sessions/:session")
	{
		sessions.POST("/reanalyze", s.reanalyze)
		sessions.POST("/encode", s.encode)
		sessions.POST("/narrations", s.narrate)
		sessions.GET("/files/:kind/:name", s.serveFile)
	}
}

func (s *Server) openSession(c *gin.Context) (*workspace.Session, bool) {
	session, err := s.deps.Workspace.Open(c.Param("session"))
	if err != nil {
		abort(c, err)
		return nil, false
	}
	return session, true
}

// bindJSON decodes the body into out, reporting failures as invalid input.
func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		abort(c, model.Invalid("request", "malformed body: %v", err))
		return false
	}
	return true
}

func (s *Server) reanalyze(c *gin.Context) {
	session, ok := s.openSession(c)
	if !ok {
		return
	}
	req := &model.ReanalyzeRequest{}
	if !bindJSON(c, req) {
		return
	}

	stream(c, s.stats, func(ctx context.Context, listener cor.ProgressListener) Outcome {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()
		chainCtx := workflow.NewContext(ctx, listener)
		defer chainCtx.Close()
		chainCtx.Add(commands.ParamSession, session)
		chainCtx.Add(commands.ParamReanalyze, req)

		out, err := workflow.Run(chainCtx, workflow.NewMediaReanalyzeWorkflow(s.deps), commands.ParamReconciled)
		result, _ := out.(*timeline.ReconcileResult)
		if err != nil {
			if result == nil {
				return Outcome{Err: err}
			}
			return Outcome{Err: err, Partial: &model.ReanalyzeResponse{
				SessionID: session.ID,
				Segments:  timeline.FormatSegments(result.Segments),
				Changed:   result.Changed,
			}}
		}
		waveform, _ := chainCtx.Get(commands.ParamWaveform).(string)
		return Outcome{Result: &model.ReanalyzeResponse{
			Message:       model.MessageReanalyzed,
			SessionID:     session.ID,
			Segments:      timeline.FormatSegments(result.Segments),
			Changed:       result.Changed,
			WaveformImage: waveform,
		}}
	})
}

// encode renders the described video and answers with it as an attachment.
func (s *Server) encode(c *gin.Context) {
	session, ok := s.openSession(c)
	if !ok {
		return
	}
	req := &model.EncodeRequest{}
	if !bindJSON(c, req) {
		return
	}

	done := s.stats.Begin()
	ctx, cancel := s.withTimeout(c.Request.Context())
	defer cancel()
	chainCtx := workflow.NewContext(ctx, nil)
	defer chainCtx.Close()
	chainCtx.Add(commands.ParamSession, session)
	chainCtx.Add(commands.ParamEncode, req)

	out, err := workflow.Run(chainCtx, workflow.NewMediaEncodeWorkflow(s.deps), commands.ParamOutput)
	done(err)
	if err != nil {
		abort(c, err)
		return
	}
	path := out.(string)
	c.FileAttachment(path, filepath.Base(path))
}

func (s *Server) narrate(c *gin.Context) {
	session, ok := s.openSession(c)
	if !ok {
		return
	}
	var items []model.NarrationItem
	if !bindJSON(c, &items) {
		return
	}
	done := s.stats.Begin()
	resp, err := s.deps.Narration.NarrateAll(c.Request.Context(), session, items)
	done(err)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// serveFile streams one artifact of a session. It backs both the session
// route and the local store's file route.
func (s *Server) serveFile(c *gin.Context) {
	session, ok := s.openSession(c)
	if !ok {
		return
	}
	path, err := session.Resolve(c.Param("kind"), c.Param("name"))
	if err != nil {
		abort(c, err)
		return
	}
	c.File(path)
}
