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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file wires the
// adapters every workflow is built from.
package workflow

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jaycherian/gcp-go-audio-describe/internal/cloud"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/commands"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/services"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timeline"
	"github.com/jaycherian/gcp-go-audio-describe/internal/media"
	"github.com/jaycherian/gcp-go-audio-describe/internal/speech"
	"github.com/jaycherian/gcp-go-audio-describe/internal/workspace"
)

// LocalFilesRoute is where the server exposes session files when artifacts
// are kept on local disk.
const LocalFilesRoute = "/files"

// Dependencies holds the collaborators of the workflows. Optional ones are
// nil when their feature is not configured.
type Dependencies struct {
	Config    *cloud.Config
	Workspace *workspace.Manager

	Transcoder ports.ProxyTranscoder
	Scenes     ports.SceneCutDetector
	Talking    ports.TalkingDetector
	Summarizer ports.Summarizer
	Prober     ports.MediaProber
	Fitter     ports.AudioFitter
	Mixer      ports.AudioMixer
	Muxer      ports.MediaMuxer
	Waveform   ports.WaveformRenderer
	Store      ports.ArtifactStore

	Pipeline  *services.DescriptionPipeline
	Narration *services.NarrationService
	History   *services.TimelineHistoryService

	Inserter   commands.RowInserter      // optional, persists timelines
	Notifier   ports.Notifier            // optional, announces triggered runs
	Downloader commands.ObjectDownloader // optional, fetches triggered uploads
}

// NewDependencies builds the production adapters: ffmpeg for media work,
// Gemini for vision, Gemini or Deepgram for speech, and GCS or the local
// workspace for artifacts.
func NewDependencies(config *cloud.Config, clients *cloud.ServiceClients) (*Dependencies, error) {
	manager, err := workspace.NewManager(config.Storage.WorkspaceRoot)
	if err != nil {
		return nil, err
	}
	tool := media.New(config.Media.FFmpegPath, config.Media.FFprobePath, config.Media.SceneThreshold)
	retry := cloud.NewRetryPolicy(config.Retry)

	vision, ok := clients.AgentModels[cloud.AgentVision]
	if !ok {
		return nil, fmt.Errorf("agent model %q is not configured", cloud.AgentVision)
	}
	analyzer, err := cloud.NewGeminiAnalyzer(vision, config.PromptTemplates, retry, NormalizeOptions(config))
	if err != nil {
		return nil, err
	}
	narrator, err := newNarrator(config, clients)
	if err != nil {
		return nil, err
	}

	var store ports.ArtifactStore = workspace.NewLocalStore(manager, LocalFilesRoute)
	if clients.StorageClient != nil && config.Storage.ArtifactBucket != "" {
		var signer *cloud.IAMSigner
		if clients.IAMClient != nil {
			signer = cloud.NewIAMSigner(clients.IAMClient, config.Application.SignerServiceAccountEmail)
		}
		store = cloud.NewGCSArtifactStore(clients.StorageClient, config.Storage.ArtifactBucket, config.Storage.ArtifactPrefix, signer)
	}

	deps := &Dependencies{
		Config:     config,
		Workspace:  manager,
		Transcoder: tool,
		Scenes:     tool,
		Talking:    analyzer,
		Summarizer: analyzer,
		Prober:     tool,
		Fitter:     tool,
		Mixer:      tool,
		Muxer:      tool,
		Waveform:   tool,
		Store:      store,
		History: &services.TimelineHistoryService{
			BigqueryClient: clients.BigQueryClient,
			DatasetName:    config.BigQueryDataSource.DatasetName,
			TimelineTable:  config.BigQueryDataSource.TimelineTable,
		},
	}
	deps.Narration = &services.NarrationService{Narrator: narrator, Retry: retry, Workers: config.Application.ThreadPoolSize}
	deps.Pipeline = services.NewDescriptionPipeline(tool, store, analyzer, deps.Narration,
		config.Application.ThreadPoolSize, config.Segmentation.WordsPerMinute)

	if clients.BigQueryClient != nil {
		deps.Inserter = clients.BigQueryClient.
			Dataset(config.BigQueryDataSource.DatasetName).
			Table(config.BigQueryDataSource.TimelineTable).
			Inserter()
	}
	if clients.CompletionPublisher != nil {
		deps.Notifier = clients.CompletionPublisher
	}
	if clients.StorageClient != nil {
		deps.Downloader = &gcsDownloader{clients: clients}
	}
	return deps, nil
}

func newNarrator(config *cloud.Config, clients *cloud.ServiceClients) (ports.Narrator, error) {
	switch config.Narration.Provider {
	case "", "gemini":
		tts, ok := clients.AgentModels[cloud.AgentNarrator]
		if !ok {
			return nil, fmt.Errorf("agent model %q is not configured", cloud.AgentNarrator)
		}
		return cloud.NewGeminiNarrator(tts), nil
	case "deepgram":
		key := os.Getenv(config.Narration.DeepgramAPIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("$%s must be set for the deepgram narrator", config.Narration.DeepgramAPIKeyEnv)
		}
		return speech.NewDeepgramNarrator(config.Narration.DeepgramURL, key, &http.Client{Timeout: 60 * time.Second}), nil
	}
	return nil, fmt.Errorf("unknown narration provider %q", config.Narration.Provider)
}

// NormalizeOptions reads the segmentation settings.
func NormalizeOptions(config *cloud.Config) timeline.NormalizeOptions {
	opts := timeline.DefaultNormalizeOptions()
	if config.Segmentation.MaxGapMs > 0 {
		opts.MaxGap = model.TimePoint(config.Segmentation.MaxGapMs)
	}
	opts.MinNoTalking = model.TimePoint(config.Segmentation.MinNoTalkingMs)
	return opts
}

// gcsDownloader fetches triggered uploads from the input bucket.
type gcsDownloader struct {
	clients *cloud.ServiceClients
}

func (d *gcsDownloader) Download(ctx context.Context, obj *cloud.GCSObject, localPath string) error {
	return cloud.DownloadObject(ctx, d.clients.StorageClient, obj, localPath)
}
