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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

// mp4Header is enough of an ISO BMFF file for magic byte detection.
func mp4Header() []byte {
	b := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00}
	return append(b, make([]byte, 300)...)
}

func TestCreateAndOpen(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	s, err := m.Create()
	require.NoError(t, err)
	for _, dir := range sessionDirs {
		assert.DirExists(t, s.Dir(dir))
	}

	opened, err := m.Open(s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Root, opened.Root)

	_, err = m.Open("../etc")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = m.Open("6f1c2b1e-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, model.ErrSourceNotFound)
}

func TestImportVideo(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	s, err := m.Create()
	require.NoError(t, err)
	ctx := context.Background()

	path, err := s.ImportVideo(bytes.NewReader(mp4Header()), "clip.mp4")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, mp4Header(), data)

	ok, err := s.Exists(ctx, "clip.mp4")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "other.mp4")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.ImportVideo(bytes.NewReader([]byte("plain text, not a video")), "notes.mp4")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = s.ImportVideo(bytes.NewReader(mp4Header()), "../escape.mp4")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestResolve(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	s, err := m.Create()
	require.NoError(t, err)

	name := s.NewArtifactName("audio", "wav")
	require.NoError(t, os.WriteFile(s.ArtifactPath(DirAudio, name), []byte("RIFF"), 0o644))

	path, err := s.ResolveAudio("audio/" + name)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root, DirAudio, name), path)

	_, err = s.Resolve(DirSource, "clip.mp4")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = s.Resolve(DirAudio, "missing.wav")
	assert.ErrorIs(t, err, model.ErrSourceNotFound)

	_, err = s.Resolve(DirAudio, "../../x")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestSweep(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	old, err := m.Create()
	require.NoError(t, err)
	fresh, err := m.Create()
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old.Root, past, past))

	removed, err := m.Sweep(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoDirExists(t, old.Root)
	assert.DirExists(t, fresh.Root)
}

func TestLocalStore(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	s, err := m.Create()
	require.NoError(t, err)
	store := NewLocalStore(m, "/files/")
	ctx := context.Background()

	local := s.ArtifactPath(DirScenes, "scene_1.mp4")
	ref, err := store.Publish(ctx, local, s.ObjectName(DirScenes, "scene_1.mp4"), "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", ref.MIMEType)
	assert.True(t, filepath.IsAbs(ref.URI))

	url, err := store.URL(ctx, ref, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "/files/"+s.ID+"/scenes/scene_1.mp4", url)

	ref.URI = "/somewhere/else.mp4"
	_, err = store.URL(ctx, ref, time.Minute)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
