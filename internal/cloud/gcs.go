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
// models GCS objects and the storage notifications Pub/Sub delivers for them.
package cloud

import (
	"strings"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

// GetGCSObjectName is the context key under which commands pass a *GCSObject.
func GetGCSObjectName() string {
	return "__GCS__OBJ__"
}

// GCSPubSubNotification is the JSON payload of a Cloud Storage Pub/Sub
// notification. Only the fields the trigger reads are declared.
type GCSPubSubNotification struct {
	Kind        string            `json:"kind"`
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Bucket      string            `json:"bucket"`
	Generation  string            `json:"generation"`
	ContentType string            `json:"contentType"`
	TimeCreated string            `json:"timeCreated"`
	Size        string            `json:"size"`
	MD5Hash     string            `json:"md5Hash"`
	MetaData    map[string]string `json:"metadata"`
}

// GCSObject identifies an object in a bucket.
type GCSObject struct {
	Bucket   string
	Name     string
	MIMEType string
}

// URI returns the gs:// form of the object.
func (o *GCSObject) URI() string {
	return "gs://" + o.Bucket + "/" + o.Name
}

// ParseGCSURI splits gs://bucket/object.
func ParseGCSURI(uri string) (*GCSObject, error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return nil, model.Invalid("cloud.ParseGCSURI", "%q is not a gs:// URI", uri)
	}
	bucket, name, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || name == "" {
		return nil, model.Invalid("cloud.ParseGCSURI", "%q has no object name", uri)
	}
	return &GCSObject{Bucket: bucket, Name: name}, nil
}
