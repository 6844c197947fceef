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
// publishes completion events for finished bucket-triggered runs.
package cloud

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

// PubSubPublisher announces finished workflows on a topic.
type PubSubPublisher struct {
	topic *pubsub.Topic
}

func NewPubSubPublisher(client *pubsub.Client, topicID string) *PubSubPublisher {
	return &PubSubPublisher{topic: client.Topic(topicID)}
}

// Notify publishes the event as JSON and waits for the server id.
func (p *PubSubPublisher) Notify(ctx context.Context, event model.CompletionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"session_id": event.SessionID, "mode": event.Mode},
	})
	if _, err := result.Get(ctx); err != nil {
		return model.External("pubsub publish", err, p.topic.ID())
	}
	return nil
}

// Stop flushes pending messages.
func (p *PubSubPublisher) Stop() {
	p.topic.Stop()
}
