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

package test

import (
	"os"
	"testing"

	"github.com/jaycherian/gcp-go-audio-describe/internal/cloud"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/services"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/workflow"
	"github.com/jaycherian/gcp-go-audio-describe/internal/workspace"
)

// Fakes gives tests access to the collaborators behind a fake Dependencies.
type Fakes struct {
	Media      *FakeMedia
	Analyzer   *FakeAnalyzer
	Narrator   *FakeNarrator
	Store      *FakeStore
	Inserter   *FakeInserter
	Notifier   *FakeNotifier
	Downloader *FakeDownloader
}

// NewDependencies wires every workflow collaborator to a fake. The
// configuration is a copy of the test configuration with the workspace moved
// under t.TempDir(), so tests may change it freely.
func NewDependencies(t *testing.T) (*workflow.Dependencies, *Fakes) {
	t.Helper()
	cfg := *GetConfig()
	cfg.Storage.WorkspaceRoot = t.TempDir()
	cfg.Media.AnalysisWidth = 240
	cfg.Segmentation.Summarize = true

	manager, err := workspace.NewManager(cfg.Storage.WorkspaceRoot)
	HandleErr(err, t)

	f := &Fakes{
		Media:      &FakeMedia{DefaultDuration: 1000},
		Analyzer:   &FakeAnalyzer{Summary: "A short film about a lighthouse."},
		Narrator:   &FakeNarrator{},
		Store:      &FakeStore{},
		Inserter:   &FakeInserter{},
		Notifier:   &FakeNotifier{},
		Downloader: &FakeDownloader{Data: Mp4Header()},
	}
	narration := &services.NarrationService{
		Narrator: f.Narrator,
		Retry:    cloud.RetryPolicy{MaxAttempts: 1},
		Workers:  2,
	}
	deps := &workflow.Dependencies{
		Config:     &cfg,
		Workspace:  manager,
		Transcoder: f.Media,
		Scenes:     f.Media,
		Talking:    f.Analyzer,
		Summarizer: f.Analyzer,
		Prober:     f.Media,
		Fitter:     f.Media,
		Mixer:      f.Media,
		Muxer:      f.Media,
		Waveform:   f.Media,
		Store:      f.Store,
		Narration:  narration,
		// One worker keeps the order of described spans deterministic.
		Pipeline:   services.NewDescriptionPipeline(f.Media, f.Store, f.Analyzer, narration, 1, 0),
		History:    &services.TimelineHistoryService{},
		Inserter:   f.Inserter,
		Notifier:   f.Notifier,
		Downloader: f.Downloader,
	}
	return deps, f
}

// NewSource creates a session in the manager holding a fake source video.
func NewSource(t *testing.T, manager *workspace.Manager, videoName string) *workspace.Session {
	t.Helper()
	session, err := manager.Create()
	HandleErr(err, t)
	HandleErr(os.WriteFile(session.SourcePath(videoName), Mp4Header(), 0o644), t)
	return session
}
