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

// Package workspace gives every request its own directory tree, keyed by a
// session id, in place of process wide upload and output folders.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

// Directories inside a session.
const (
	DirSource    = "source"
	DirScenes    = "scenes"
	DirAudio     = "audio"
	DirProcessed = "processed"
	DirWaveform  = "waveform"
	DirScratch   = "scratch"
)

var sessionDirs = []string{DirSource, DirScenes, DirAudio, DirProcessed, DirWaveform, DirScratch}

// servable are the directories clients may read files from.
var servable = map[string]bool{DirScenes: true, DirAudio: true, DirProcessed: true, DirWaveform: true}

// sniffLen is the header size h2non/filetype needs to identify a file.
const sniffLen = 262

// Manager creates, opens and expires sessions under a root directory.
type Manager struct {
	root string
}

func NewManager(root string) (*Manager, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace root %s: %w", root, err)
	}
	return &Manager{root: root}, nil
}

func (m *Manager) Root() string {
	return m.root
}

// Create makes a new session with a random id.
func (m *Manager) Create() (*Session, error) {
	s := &Session{ID: uuid.NewString()}
	s.Root = filepath.Join(m.root, s.ID)
	for _, dir := range sessionDirs {
		if err := os.MkdirAll(filepath.Join(s.Root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}
	return s, nil
}

// Open returns an existing session. Ids that are not canonical UUIDs are
// rejected as invalid input so they can never address paths outside root.
func (m *Manager) Open(id string) (*Session, error) {
	const op = "workspace.Open"
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != id {
		return nil, model.Invalid(op, "%q is not a session id", id)
	}
	root := filepath.Join(m.root, id)
	info, err := os.Stat(root)
	if errors.Is(err, os.ErrNotExist) || (err == nil && !info.IsDir()) {
		return nil, model.NotFound(op, "session %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat session %s: %w", id, err)
	}
	return &Session{ID: id, Root: root}, nil
}

// Sweep removes sessions whose directory was last modified more than
// olderThan ago and returns how many were removed.
func (m *Manager) Sweep(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return 0, fmt.Errorf("failed to list workspace: %w", err)
	}
	cutoff := time.Now().Add(-olderThan)
	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := uuid.Parse(e.Name()); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(m.root, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		slog.Debug("removed expired session", "session", e.Name())
		removed++
	}
	return removed, errors.Join(errs...)
}

// Session is one request's directory tree.
type Session struct {
	ID   string
	Root string
}

// Dir returns the path of one of the session directories.
func (s *Session) Dir(kind string) string {
	return filepath.Join(s.Root, kind)
}

// SourcePath is where the uploaded video named name lives.
func (s *Session) SourcePath(name string) string {
	return filepath.Join(s.Dir(DirSource), filepath.Base(name))
}

// Exists reports whether the named source video is present.
func (s *Session) Exists(_ context.Context, name string) (bool, error) {
	clean, err := cleanName(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(s.SourcePath(clean))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// SaveUpload stores a multipart upload as a source video. The content must be
// recognized as video by its magic bytes.
func (s *Session) SaveUpload(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()
	return s.ImportVideo(f, fh.Filename)
}

// ImportVideo copies r into the source directory under name after checking
// it is a video.
func (s *Session) ImportVideo(r io.Reader, name string) (string, error) {
	const op = "workspace.ImportVideo"
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	if !filetype.IsVideo(head) {
		return "", model.Invalid(op, "%s is not a recognized video file", clean)
	}

	path := s.SourcePath(clean)
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := out.Write(head); err != nil {
		_ = out.Close()
		return "", err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return path, out.Close()
}

// Scratch creates a temporary directory inside the session. The caller owns
// removing it, typically by handing it to cor.Context.AddTempFile.
func (s *Session) Scratch() (string, error) {
	return os.MkdirTemp(s.Dir(DirScratch), "run-")
}

// NewArtifactName returns a unique file name such as scene_<uuid>.mp4.
func (s *Session) NewArtifactName(prefix string, ext string) string {
	return prefix + "_" + uuid.NewString() + "." + strings.TrimPrefix(ext, ".")
}

// ArtifactPath joins a session directory and a file name.
func (s *Session) ArtifactPath(kind string, name string) string {
	return filepath.Join(s.Dir(kind), name)
}

// ObjectName is the store name of an artifact, unique across sessions.
func (s *Session) ObjectName(kind string, name string) string {
	return s.ID + "/" + kind + "/" + name
}

// Resolve maps a client supplied kind and file name to a path, refusing
// anything outside the servable directories.
func (s *Session) Resolve(kind string, name string) (string, error) {
	const op = "workspace.Resolve"
	if !servable[kind] {
		return "", model.Invalid(op, "unknown artifact kind %q", kind)
	}
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	path := s.ArtifactPath(kind, clean)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", model.NotFound(op, "%s/%s", kind, clean)
	}
	return path, nil
}

// ResolveAudio accepts either a bare audio file name or one prefixed with
// "audio/", as older clients send.
func (s *Session) ResolveAudio(ref string) (string, error) {
	return s.Resolve(DirAudio, strings.TrimPrefix(ref, DirAudio+"/"))
}

func cleanName(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") || strings.HasPrefix(name, ".") {
		return "", model.Invalid("workspace", "bad file name %q", name)
	}
	return name, nil
}
