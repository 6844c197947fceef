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

// Package services contains the business logic between the workflow
// commands and the adapters. This file voices descriptions through the
// configured Narrator and stores the audio in the session.
//
// Logic Flow:
//  1. Empty descriptions are rejected before any synthesis starts.
//  2. `NarrateAll` runs at most `Workers` syntheses at once on an errgroup.
//     The first failure cancels the others.
//  3. Each synthesis is retried on ExternalService errors and written as
//     `audio/audio_<uuid>.<ext>`, the extension sniffed from the bytes.
//  4. Results keep the order of the request.
package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/sync/errgroup"

	"github.com/jaycherian/gcp-go-audio-describe/internal/cloud"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
	"github.com/jaycherian/gcp-go-audio-describe/internal/workspace"
)

// NarrationService voices descriptions into a session's audio directory.
type NarrationService struct {
	Narrator ports.Narrator
	Retry    cloud.RetryPolicy
	Workers  int
}

// Narrate synthesizes text and returns the session relative audio reference,
// e.g. "audio/audio_<uuid>.wav".
func (s *NarrationService) Narrate(ctx context.Context, session *workspace.Session, text string) (string, error) {
	audio, err := cloud.Retry(ctx, s.Retry, func(ctx context.Context) (ports.Audio, error) {
		return s.Narrator.Synthesize(ctx, text)
	})
	if err != nil {
		return "", err
	}
	name := session.NewArtifactName("audio", AudioExtension(audio))
	if err := os.WriteFile(session.ArtifactPath(workspace.DirAudio, name), audio.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write narration: %w", err)
	}
	return workspace.DirAudio + "/" + name, nil
}

// NarrateAll voices every item, keeping the request order in the response.
func (s *NarrationService) NarrateAll(ctx context.Context, session *workspace.Session, items []model.NarrationItem) (*model.NarrationResponse, error) {
	for i, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			return nil, model.Invalid("narrate", "item %d has no description", i)
		}
	}
	out := &model.NarrationResponse{AudioFiles: make([]model.NarrationResult, len(items))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Workers, 1))
	for i, item := range items {
		g.Go(func() error {
			ref, err := s.Narrate(gctx, session, item.Description)
			out.AudioFiles[i] = model.NarrationResult{Description: item.Description, Timestamps: item.Timestamps, AudioFile: ref}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

// AudioExtension picks a file extension for synthesized audio from its magic
// bytes, falling back to the declared MIME type and finally to wav.
func AudioExtension(audio ports.Audio) string {
	if kind, err := filetype.Match(audio.Data); err == nil && kind != filetype.Unknown {
		return kind.Extension
	}
	switch strings.ToLower(strings.TrimSpace(strings.Split(audio.MIMEType, ";")[0])) {
	case "audio/mpeg", "audio/mp3":
		return "mp3"
	case "audio/ogg":
		return "ogg"
	case "audio/aac":
		return "aac"
	}
	return "wav"
}
