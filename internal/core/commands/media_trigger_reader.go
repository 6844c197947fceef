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
// command that turns a Cloud Storage Pub/Sub notification into a GCSObject.
//
// Logic Flow:
// The upload workflow is started by a Pub/Sub message whose body is the JSON
// document Cloud Storage publishes when an object is finalized.
//
//  1. The raw JSON string is read from the command's input parameter.
//  2. It is unmarshalled into a `cloud.GCSPubSubNotification`.
//  3. Objects that are not videos are rejected as invalid input, so the
//     listener acknowledges them instead of redelivering forever.
//  4. A `cloud.GCSObject` is stored under ParamGCSObject and as the output.
package commands

import (
	"encoding/json"
	"strings"

	"github.com/jaycherian/gcp-go-audio-describe/internal/cloud"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

// MediaTriggerToGCSObject parses a GCS notification.
type MediaTriggerToGCSObject struct {
	cor.BaseCommand // Embeds the BaseCommand for common functionality.
}

// NewMediaTriggerToGCSObject is the constructor for MediaTriggerToGCSObject.
//
// Inputs:
//   - name: A string name for this command instance.
//
// Outputs:
//   - *MediaTriggerToGCSObject: A pointer to the newly instantiated command.
func NewMediaTriggerToGCSObject(name string) *MediaTriggerToGCSObject {
	return &MediaTriggerToGCSObject{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute contains the core logic for the command.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (c *MediaTriggerToGCSObject) Execute(context cor.Context) {
	in, _ := context.Get(c.GetInputParam()).(string)

	var out cloud.GCSPubSubNotification
	if err := json.Unmarshal([]byte(in), &out); err != nil {
		c.Fail(context, model.Invalid(c.GetName(), "failed to unmarshal GCS notification: %v", err))
		return
	}
	if out.Bucket == "" || out.Name == "" {
		c.Fail(context, model.Invalid(c.GetName(), "notification names no object"))
		return
	}
	if out.ContentType != "" && !strings.HasPrefix(out.ContentType, "video/") {
		c.Fail(context, model.Invalid(c.GetName(), "gs://%s/%s is %s, not a video", out.Bucket, out.Name, out.ContentType))
		return
	}

	c.Succeed(context)
	msg := &cloud.GCSObject{Bucket: out.Bucket, Name: out.Name, MIMEType: out.ContentType}
	context.Add(ParamGCSObject, msg)
	context.Add(c.GetOutputParam(), msg)
}
