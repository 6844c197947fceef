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

// Package cli implements the describe command line tool, which runs the
// same workflows as the server against a local workspace.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-audio-describe/internal/cloud"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/workflow"
	"github.com/jaycherian/gcp-go-audio-describe/internal/telemetry"
)

// Loader builds the workflow dependencies for one invocation. The returned
// function releases them.
type Loader func(ctx context.Context, cmd *cobra.Command) (*workflow.Dependencies, func(), error)

func Main() {
	_ = godotenv.Load() // best-effort: API keys may come from .env

	root := NewRootCommand(LoadDependencies)
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCommand assembles the command tree around load.
func NewRootCommand(load Loader) *cobra.Command {
	root := &cobra.Command{
		Use:           "describe",
		Short:         "Generate audio description for a video",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "configs", "Directory holding .env.toml and its overlays")
	root.PersistentFlags().String("runtime", "local", "Configuration overlay to apply")
	root.PersistentFlags().String("workspace", "", "Workspace root, overrides storage.workspace_root")

	root.AddCommand(newProcessCommand(load))
	root.AddCommand(newEncodeCommand(load))
	root.AddCommand(newReanalyzeCommand(load))
	return root
}

// LoadDependencies reads the configuration named by the persistent flags and
// opens the production adapters.
func LoadDependencies(ctx context.Context, cmd *cobra.Command) (*workflow.Dependencies, func(), error) {
	configDir, _ := cmd.Flags().GetString("config")
	runtime, _ := cmd.Flags().GetString("runtime")
	workspaceRoot, _ := cmd.Flags().GetString("workspace")

	if err := os.Setenv(cloud.EnvConfigFilePrefix, configDir); err != nil {
		return nil, nil, err
	}
	if err := os.Setenv(cloud.EnvConfigRuntime, runtime); err != nil {
		return nil, nil, err
	}
	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config); err != nil {
		return nil, nil, err
	}
	if workspaceRoot != "" {
		config.Storage.WorkspaceRoot = workspaceRoot
	}
	telemetry.SetupLogging(config.Telemetry)

	clients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	deps, err := workflow.NewDependencies(config, clients)
	if err != nil {
		clients.Close()
		return nil, nil, err
	}
	return deps, clients.Close, nil
}
