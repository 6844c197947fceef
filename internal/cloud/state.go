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

// Package cloud provides the Google Cloud and Gemini adapters. This file
// creates the long lived service clients once at startup.
//
// Logic Flow:
//  1. The GenAI client is created against Vertex AI when a project is
//     configured, and against the Gemini API with an API key otherwise.
//  2. Storage, Pub/Sub, BigQuery and IAM clients are only created when the
//     configuration names a bucket, a topic, a dataset or a signer.
//  3. One `QuotaAwareGenerativeAIModel` is built per configured agent model.
//  4. `Close` releases every client that was opened.
package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/genai"
)

// ServiceClients is the container of every Google Cloud client the
// application uses. Clients whose feature is not configured stay nil.
type ServiceClients struct {
	StorageClient       *storage.Client                         // set when an artifact or input bucket is configured
	PubsubClient        *pubsub.Client                          // set when a subscription or completion topic is configured
	GenAIClient         *genai.Client                           // always set
	BigQueryClient      *bigquery.Client                        // set when a dataset is configured
	IAMClient           *credentials.IamCredentialsClient       // set when a signer service account is configured
	PubSubListeners     map[string]*PubSubListener              // keyed by the logical subscription name
	CompletionPublisher *PubSubPublisher                        // set when a completion topic is configured
	AgentModels         map[string]*QuotaAwareGenerativeAIModel // keyed by the logical model name
}

// Close releases every client that was opened.
func (c *ServiceClients) Close() {
	if c.CompletionPublisher != nil {
		c.CompletionPublisher.Stop()
	}
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
	if c.BigQueryClient != nil {
		_ = c.BigQueryClient.Close()
	}
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
}

// NewCloudServiceClients opens the clients the configuration asks for.
//
// The GenAI client uses Vertex AI when a project is configured and the Gemini
// API key named by application.gemini_api_key_env otherwise.
func NewCloudServiceClients(ctx context.Context, config *Config) (_ *ServiceClients, err error) {
	cloud := &ServiceClients{
		PubSubListeners: make(map[string]*PubSubListener),
		AgentModels:     make(map[string]*QuotaAwareGenerativeAIModel),
	}
	defer func() {
		if err != nil {
			cloud.Close()
		}
	}()

	projectID := config.Application.GoogleProjectId
	clientConfig := &genai.ClientConfig{
		Project:  projectID,
		Location: config.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	}
	if projectID == "" {
		apiKey := os.Getenv(config.Application.GeminiAPIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("either application.google_project_id or $%s must be set", config.Application.GeminiAPIKeyEnv)
		}
		clientConfig = &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	}
	cloud.GenAIClient, err = genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("error creating genai client: %w", err)
	}
	slog.Info("genai client ready", "project", projectID, "location", config.Application.GoogleLocation, "vertex", projectID != "")

	if config.Storage.ArtifactBucket != "" || config.Storage.InputBucket != "" {
		if cloud.StorageClient, err = storage.NewClient(ctx); err != nil {
			return nil, fmt.Errorf("error creating storage client: %w", err)
		}
	}

	if len(config.TopicSubscriptions) > 0 || config.Notifications.CompletionTopic != "" {
		if projectID == "" {
			return nil, fmt.Errorf("pub/sub requires application.google_project_id")
		}
		if cloud.PubsubClient, err = pubsub.NewClient(ctx, projectID); err != nil {
			return nil, fmt.Errorf("error creating pubsub client: %w", err)
		}
		for subKey, values := range config.TopicSubscriptions {
			listener, err := NewPubSubListener(cloud.PubsubClient, values.Name, nil)
			if err != nil {
				return nil, err
			}
			cloud.PubSubListeners[subKey] = listener
		}
		if topic := config.Notifications.CompletionTopic; topic != "" {
			cloud.CompletionPublisher = NewPubSubPublisher(cloud.PubsubClient, topic)
		}
	}

	if config.BigQueryDataSource.DatasetName != "" {
		if projectID == "" {
			return nil, fmt.Errorf("bigquery requires application.google_project_id")
		}
		if cloud.BigQueryClient, err = bigquery.NewClient(ctx, projectID); err != nil {
			return nil, fmt.Errorf("error creating bigquery client: %w", err)
		}
	}

	if config.Application.SignerServiceAccountEmail != "" {
		if cloud.IAMClient, err = credentials.NewIamCredentialsClient(ctx); err != nil {
			return nil, fmt.Errorf("error creating iam credentials client: %w", err)
		}
	}

	for amKey, values := range config.AgentModels {
		var generation *genai.GenerateContentConfig
		if amKey == AgentNarrator {
			generation = NewSpeechConfig(config.Narration.Voice)
		} else {
			generation = newGenerateContentConfig(values)
		}
		cloud.AgentModels[amKey] = NewQuotaAwareModel(generation, values.Model, cloud.GenAIClient.Models, values.RateLimit)
	}

	return cloud, nil
}

func newGenerateContentConfig(values VertexAiLLMModel) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](values.Temperature),
		TopP:             genai.Ptr[float32](values.TopP),
		TopK:             genai.Ptr[float32](values.TopK),
		MaxOutputTokens:  values.MaxTokens,
		SafetySettings:   DefaultSafetySettings,
		ResponseMIMEType: values.OutputFormat,
	}
	if values.SystemInstructions != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}}
	}
	return cfg
}
