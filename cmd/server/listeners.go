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

package main

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-audio-describe/internal/cloud"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/workflow"
)

// SetupListeners attaches the trigger workflow to the upload subscription
// and starts receiving. Nothing happens when no subscription is configured.
func SetupListeners(ctx context.Context, deps *workflow.Dependencies, cloudClients *cloud.ServiceClients) {
	listener, ok := cloudClients.PubSubListeners[cloud.UploadTopic]
	if !ok {
		slog.Info("no upload subscription configured, trigger disabled")
		return
	}
	if deps.Downloader == nil {
		slog.Warn("upload subscription configured without a storage client, trigger disabled")
		return
	}
	listener.SetCommand(workflow.NewMediaTriggerWorkflow(deps))
	listener.Listen(ctx)
}
