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
// command that leaves the response document next to the artifacts.
//
// Logic Flow:
// Triggered workflows have no HTTP caller waiting for the result, so the
// response is written into the session and published to the artifact store
// as <session>/response.json, where downstream consumers pick it up after
// the completion notice.
package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
	"github.com/jaycherian/gcp-go-audio-describe/internal/workspace"
)

// ResponseFileName is the name of the published response document.
const ResponseFileName = "response.json"

// GCSFileUpload publishes the response document.
type GCSFileUpload struct {
	cor.BaseCommand                     // Embeds the BaseCommand for common functionality like naming and metrics.
	store           ports.ArtifactStore // Usually the GCS artifact store.
}

// NewGCSFileUpload is the constructor for GCSFileUpload.
//
// Inputs:
//   - name: A string name for this command instance.
//   - store: The destination store.
//
// Outputs:
//   - *GCSFileUpload: A pointer to the newly instantiated command.
func NewGCSFileUpload(name string, store ports.ArtifactStore) *GCSFileUpload {
	out := &GCSFileUpload{BaseCommand: *cor.NewBaseCommand(name), store: store}
	out.InputParamName = ParamResponse
	return out
}

// Execute writes and publishes the document.
func (c *GCSFileUpload) Execute(context cor.Context) {
	resp := context.Get(c.GetInputParam()).(*model.Response)
	session, err := sessionFrom(context)
	if err != nil {
		c.Fail(context, err)
		return
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		c.Fail(context, fmt.Errorf("failed to encode response: %w", err))
		return
	}
	local := session.ArtifactPath(workspace.DirProcessed, ResponseFileName)
	if err := os.WriteFile(local, data, 0o644); err != nil {
		c.Fail(context, fmt.Errorf("failed to write %s: %w", local, err))
		return
	}
	ref, err := c.store.Publish(context.GetContext(), local, session.ID+"/"+ResponseFileName, "application/json")
	if err != nil {
		c.Fail(context, err)
		return
	}

	c.Succeed(context)
	context.Add(cor.CtxOut, ref)
}
