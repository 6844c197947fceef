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

package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
)

// LocalStore is the ArtifactStore used when no artifact bucket is configured.
// Files stay in the session tree, the vision model receives them inline and
// clients fetch them from the server's file route.
type LocalStore struct {
	manager *Manager
	baseURL string
}

// NewLocalStore serves artifacts below baseURL, e.g. "/files".
func NewLocalStore(manager *Manager, baseURL string) *LocalStore {
	return &LocalStore{manager: manager, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Publish returns a reference to the file in place. name is ignored since
// session paths are already unique.
func (s *LocalStore) Publish(_ context.Context, localPath string, _ string, mimeType string) (ports.MediaRef, error) {
	abs, err := filepath.Abs(localPath)
	if err != nil {
		return ports.MediaRef{}, fmt.Errorf("failed to resolve %s: %w", localPath, err)
	}
	return ports.MediaRef{URI: abs, MIMEType: mimeType}, nil
}

// URL maps a file inside the workspace to its route. ttl does not apply.
func (s *LocalStore) URL(_ context.Context, ref ports.MediaRef, _ time.Duration) (string, error) {
	root, err := filepath.Abs(s.manager.Root())
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, ref.URI)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", model.Invalid("workspace.URL", "%s is outside the workspace", ref.URI)
	}
	return s.baseURL + "/" + filepath.ToSlash(rel), nil
}
