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

// Package test holds the shared fixtures of the suites: the test config,
// canned storage notifications, a fake MP4 and fakes for every port.
package test

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-audio-describe/internal/cloud"
	"github.com/jaycherian/gcp-go-audio-describe/internal/workspace"
)

// StateManager caches the loaded test config for the life of the test binary.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test at once on a non-nil err.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// GetTestUploadMessageText is an OBJECT_FINALIZE notification for a trailer
// landing in the input bucket.
func GetTestUploadMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "audio_describe_input/test-trailer-001.mp4/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/audio_describe_input/o/test-trailer-001.mp4",
  "name": "test-trailer-001.mp4",
  "bucket": "audio_describe_input",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "video/mp4",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "size": "259348037",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/audio_describe_input/o/test-trailer-001.mp4?generation=1728615848664286&alt=media",
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
}`
}

// GetTestImageMessageText is the notification of a file the upload trigger
// must reject.
func GetTestImageMessageText() string {
	return `{
  "kind": "storage#object",
  "name": "poster.png",
  "bucket": "audio_describe_input",
  "contentType": "image/png"
}`
}

// Mp4Header returns the smallest byte sequence that magic number detection
// accepts as an MP4 video.
func Mp4Header() []byte {
	header := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00}
	return append(header, make([]byte, 300)...)
}

// NewSession creates a workspace under t.TempDir() with one session holding
// a fake source video named videoName.
func NewSession(t *testing.T, videoName string) (*workspace.Manager, *workspace.Session) {
	t.Helper()
	manager, err := workspace.NewManager(t.TempDir())
	HandleErr(err, t)
	session, err := manager.Create()
	HandleErr(err, t)
	if videoName != "" {
		HandleErr(os.WriteFile(session.SourcePath(videoName), Mp4Header(), 0o644), t)
	}
	return manager, session
}

// SetupOS points cloud.LoadConfig at <repo>/configs with the "test" overlay.
func SetupOS() (err error) {
	root, err := repositoryRoot()
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigFilePrefix, filepath.Join(root, "configs"))
	if err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, "test")
}

// repositoryRoot walks up from the working directory to the go.mod.
func repositoryRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found above the working directory")
		}
		dir = parent
	}
}

// GetConfig loads configs/.env.toml overlaid by .env.test.toml on first use.
// Callers that change fields must copy the struct first.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load test configuration: %v\n", err)
		}
		state.config = config
	}
	return state.config
}
