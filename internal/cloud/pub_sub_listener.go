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
// implements the `PubSubListener`, which feeds storage notifications from a
// subscription into a workflow.
//
// Logic Flow:
//  1. `Listen` starts `Receive` on a background goroutine.
//  2. Each message gets a span and a fresh chain context with the payload
//     under `CtxIn`.
//  3. The configured command runs to completion.
//  4. Successes are acked. Failures on bad input are acked as well, since a
//     redelivery would fail the same way. Everything else is nacked so Pub/Sub
//     redelivers it.
package cloud

import (
	"context"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

// PubSubListener feeds every message of a subscription into a command.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
}

// NewPubSubListener binds a subscription. The command may be set later with
// SetCommand, once the workflow that consumes the messages is built.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (cmd *PubSubListener, err error) {
	return &PubSubListener{
		client:       pubsubClient,
		subscription: pubsubClient.Subscription(subscriptionID),
		command:      command,
	}, nil
}

// SetCommand sets the command if none was set yet.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen receives messages until ctx is done. The message payload is placed
// in CtxIn. Successful messages are acked, and so are messages that failed on
// bad input since redelivery cannot fix them; anything else is nacked.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.Info("listening", "subscription", m.subscription.String())

	go func() {
		tracer := otel.Tracer("message-listener")

		err := m.subscription.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(msgCtx, "receive-message")
			defer span.End()
			span.SetAttributes(attribute.String("msg.id", msg.ID))
			if msg.DeliveryAttempt != nil {
				span.SetAttributes(attribute.Int("msg.delivery_attempt", *msg.DeliveryAttempt))
			}

			chainCtx := cor.NewBaseContext()
			defer chainCtx.Close()
			chainCtx.SetContext(spanCtx)
			chainCtx.SetProgressListener(func(e cor.ProgressEvent) {
				slog.DebugContext(spanCtx, "workflow progress", "message", msg.ID, "stage", e.Stage, "completed", e.Completed, "total", e.Total)
			})
			chainCtx.Add(cor.CtxIn, string(msg.Data))

			m.command.Execute(chainCtx)

			err := chainCtx.Err()
			switch {
			case err == nil:
				span.SetStatus(codes.Ok, "success")
				msg.Ack()
			case model.KindOf(err) == model.KindInvalidInput || model.KindOf(err) == model.KindMalformedTimestamp:
				span.SetStatus(codes.Error, "rejected")
				slog.WarnContext(spanCtx, "dropping message that cannot succeed", "message", msg.ID, "error", err)
				msg.Ack()
			default:
				span.SetStatus(codes.Error, "failed")
				slog.ErrorContext(spanCtx, "error executing chain", "message", msg.ID, "error", err)
				msg.Nack()
			}
		})

		if err != nil {
			slog.Error("error receiving data", "subscription", m.subscription.String(), "error", err)
		}
	}()
}
