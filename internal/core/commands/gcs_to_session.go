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
// command that downloads a Cloud Storage object into a new session.
//
// Logic Flow:
//  1. The `cloud.GCSObject` is read from the command's input parameter.
//  2. A fresh session is created in the workspace.
//  3. The object is streamed into the session's source directory under its
//     base name.
//  4. The session, the video name and the local path are placed in the
//     context for the rest of the describe chain.
package commands

import (
	"context"
	"log/slog"
	"path"

	"github.com/jaycherian/gcp-go-audio-describe/internal/cloud"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/workspace"
)

// ObjectDownloader copies a bucket object to local disk.
// cloud.GCSArtifactStore implements it.
type ObjectDownloader interface {
	Download(ctx context.Context, obj *cloud.GCSObject, localPath string) error
}

// GCSToSession downloads a triggered object into a new session.
type GCSToSession struct {
	cor.BaseCommand
	downloader ObjectDownloader
	sessions   *workspace.Manager
}

// NewGCSToSession is the constructor for GCSToSession.
//
// Inputs:
//   - name: A string name for this command instance.
//   - downloader: Reads objects from Cloud Storage.
//   - sessions: The workspace the new session is created in.
//
// Outputs:
//   - *GCSToSession: A pointer to the newly instantiated command.
func NewGCSToSession(name string, downloader ObjectDownloader, sessions *workspace.Manager) *GCSToSession {
	return &GCSToSession{BaseCommand: *cor.NewBaseCommand(name), downloader: downloader, sessions: sessions}
}

// Execute contains the core logic for the command.
func (c *GCSToSession) Execute(context cor.Context) {
	msg := context.Get(c.GetInputParam()).(*cloud.GCSObject)

	session, err := c.sessions.Create()
	if err != nil {
		c.Fail(context, err)
		return
	}
	name := path.Base(msg.Name)
	local := session.SourcePath(name)
	if err := c.downloader.Download(context.GetContext(), msg, local); err != nil {
		c.Fail(context, err)
		return
	}

	c.Succeed(context)
	slog.InfoContext(context.GetContext(), "downloaded triggered video", "uri", msg.URI(), "session", session.ID)
	context.Add(ParamSession, session)
	context.Add(ParamVideoName, name)
	context.Add(ParamSourcePath, local)
	context.Add(c.GetOutputParam(), local)
}
