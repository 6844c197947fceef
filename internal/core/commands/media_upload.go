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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that makes the analysis video readable by the vision model.
//
// Logic Flow:
// The genai SDK reads media either from a gs:// URI or from inline bytes.
// The command publishes the analysis video to the configured ArtifactStore
// and stores the resulting reference: a gs:// URI when an artifact bucket is
// configured, the local path otherwise. The model adapter decides how to
// send each kind.
package commands

import (
	"mime"
	"path/filepath"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
	"github.com/jaycherian/gcp-go-audio-describe/internal/workspace"
)

// MediaUpload publishes the analysis video.
type MediaUpload struct {
	cor.BaseCommand
	store ports.ArtifactStore
}

// NewMediaUpload is the constructor for MediaUpload.
//
// Inputs:
//   - name: A string name for this command instance.
//   - store: Where the video is published.
//
// Outputs:
//   - *MediaUpload: A pointer to the newly instantiated command.
func NewMediaUpload(name string, store ports.ArtifactStore) *MediaUpload {
	out := &MediaUpload{BaseCommand: *cor.NewBaseCommand(name), store: store}
	out.InputParamName = ParamAnalysisPath
	out.OutputParamName = ParamAnalysisRef
	return out
}

// Execute contains the core logic for the command.
func (v *MediaUpload) Execute(context cor.Context) {
	local := stringParam(context, v.GetInputParam())
	session, err := sessionFrom(context)
	if err != nil {
		v.Fail(context, err)
		return
	}

	ref, err := v.store.Publish(context.GetContext(), local, session.ObjectName(workspace.DirSource, filepath.Base(local)), VideoMIMEType(local))
	if err != nil {
		v.Fail(context, err)
		return
	}

	v.Succeed(context)
	context.Add(v.GetOutputParam(), ref)
}

// VideoMIMEType guesses the MIME type of a video from its extension,
// defaulting to video/mp4.
func VideoMIMEType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "video/mp4"
}
