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

package cloud

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"cloud.google.com/go/storage"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
)

// GCSArtifactStore publishes session artifacts to a bucket so the vision
// model can read them by gs:// URI and clients can fetch them by signed URL.
type GCSArtifactStore struct {
	client *storage.Client
	bucket string
	prefix string
	signer *IAMSigner
}

// NewGCSArtifactStore stores objects under prefix in bucket. signer may be
// nil, in which case URLs are signed with the ambient credentials.
func NewGCSArtifactStore(client *storage.Client, bucket string, prefix string, signer *IAMSigner) *GCSArtifactStore {
	return &GCSArtifactStore{client: client, bucket: bucket, prefix: prefix, signer: signer}
}

// Publish uploads the local file.
func (s *GCSArtifactStore) Publish(ctx context.Context, localPath string, name string, mimeType string) (ports.MediaRef, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return ports.MediaRef{}, fmt.Errorf("failed to open artifact %s: %w", localPath, err)
	}
	defer f.Close()

	objectName := path.Join(s.prefix, name)
	writer := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	writer.ContentType = mimeType
	if _, err := io.Copy(writer, f); err != nil {
		_ = writer.Close()
		return ports.MediaRef{}, model.External("gcs upload", err, objectName)
	}
	if err := writer.Close(); err != nil {
		return ports.MediaRef{}, model.External("gcs upload", err, objectName)
	}
	return ports.MediaRef{URI: "gs://" + s.bucket + "/" + objectName, MIMEType: mimeType}, nil
}

// URL returns a V4 signed GET URL valid for ttl.
func (s *GCSArtifactStore) URL(ctx context.Context, ref ports.MediaRef, ttl time.Duration) (string, error) {
	obj, err := ParseGCSURI(ref.URI)
	if err != nil {
		return "", err
	}
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	}
	if s.signer != nil {
		opts.GoogleAccessID = s.signer.Email()
		opts.SignBytes = s.signer.SignBytes(ctx)
	}
	url, err := s.client.Bucket(obj.Bucket).SignedURL(obj.Name, opts)
	if err != nil {
		return "", model.External("gcs sign", err, ref.URI)
	}
	return url, nil
}

// Download copies an object to a local file.
func (s *GCSArtifactStore) Download(ctx context.Context, obj *GCSObject, localPath string) error {
	return DownloadObject(ctx, s.client, obj, localPath)
}

// Exists reports whether a published reference is still present.
func (s *GCSArtifactStore) Exists(ctx context.Context, uri string) (bool, error) {
	obj, err := ParseGCSURI(uri)
	if err != nil {
		return false, err
	}
	_, err = s.client.Bucket(obj.Bucket).Object(obj.Name).Attrs(ctx)
	if err == storage.ErrObjectNotExist {
		return false, nil
	}
	if err != nil {
		return false, model.External("gcs attrs", err, uri)
	}
	return true, nil
}

// DownloadObject streams obj into localPath.
func DownloadObject(ctx context.Context, client *storage.Client, obj *GCSObject, localPath string) error {
	reader, err := client.Bucket(obj.Bucket).Object(obj.Name).NewReader(ctx)
	if err == storage.ErrObjectNotExist {
		return model.NotFound("gcs download", "%s", obj.URI())
	}
	if err != nil {
		return model.External("gcs download", err, obj.URI())
	}
	defer reader.Close()

	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", localPath, err)
	}
	if _, err := io.Copy(out, reader); err != nil {
		_ = out.Close()
		return model.External("gcs download", err, obj.URI())
	}
	return out.Close()
}
