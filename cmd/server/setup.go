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
	"fmt"
	"log"
	"os"

	"github.com/jaycherian/gcp-go-audio-describe/internal/api"
	"github.com/jaycherian/gcp-go-audio-describe/internal/cloud"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/workflow"
)

// StateManager holds the long lived objects of the server process.
type StateManager struct {
	config *cloud.Config
	cloud  *cloud.ServiceClients
	deps   *workflow.Dependencies
	stats  *api.Stats
}

var state = &StateManager{}

// SetupOS points the config loader at ./configs and the "local" overlay
// unless the environment already says otherwise.
func SetupOS() (err error) {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load configuration: %v\n", err)
		}
		state.config = config
	}
	return state.config
}

// InitState opens the cloud clients, builds the workflow dependencies and
// starts the background work: the session janitor and the upload listener.
func InitState(ctx context.Context) error {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return err
	}
	state.cloud = cloudClients

	deps, err := workflow.NewDependencies(config, cloudClients)
	if err != nil {
		return fmt.Errorf("failed to build dependencies: %w", err)
	}
	state.deps = deps
	state.stats = api.NewStats()

	janitor := workflow.NewSessionJanitorWorkflow(deps)
	janitor.StartTimer(ctx)

	SetupListeners(ctx, deps, cloudClients)
	return nil
}
