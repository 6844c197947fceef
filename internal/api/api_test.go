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

package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-audio-describe/internal/api"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-audio-describe/internal/testutil"
	"github.com/jaycherian/gcp-go-audio-describe/internal/workspace"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	test.GetConfig()
	os.Exit(m.Run())
}

type harness struct {
	deps  *workflow.Dependencies
	fakes *test.Fakes
	stats *api.Stats
	url   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	deps, fakes := test.NewDependencies(t)
	stats := api.NewStats()
	srv := httptest.NewServer(api.NewRouter(api.NewServer(deps, stats)))
	t.Cleanup(srv.Close)
	return &harness{deps: deps, fakes: fakes, stats: stats, url: srv.URL}
}

func (h *harness) upload(t *testing.T, mode string, name string, content []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if mode != "" {
		require.NoError(t, w.WriteField("mode", mode))
	}
	part, err := w.CreateFormFile("video", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp, err := http.Post(h.url+"/api/v1/videos", w.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (h *harness) postJSON(t *testing.T, path string, v any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	resp, err := http.Post(h.url+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (h *harness) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(h.url + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

type sseEvent struct {
	name string
	data string
}

// readEvents splits an SSE body into its events.
func readEvents(t *testing.T, r io.Reader) []sseEvent {
	t.Helper()
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	var out []sseEvent
	for _, block := range strings.Split(string(raw), "\n\n") {
		var e sseEvent
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event:"):
				e.name = strings.TrimPrefix(line, "event:")
			case strings.HasPrefix(line, "data:"):
				e.data = strings.TrimPrefix(line, "data:")
			}
		}
		if e.name != "" {
			out = append(out, e)
		}
	}
	return out
}

func names(events []sseEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.name)
	}
	return out
}

func decodeError(t *testing.T, r io.Reader) api.ErrorBody {
	t.Helper()
	var body api.ErrorBody
	require.NoError(t, json.NewDecoder(r).Decode(&body))
	return body
}

func TestProcessVideoStreamsResult(t *testing.T) {
	h := newHarness(t)
	h.fakes.Analyzer.Segments = []model.RawInterval{
		{Start: "00:00:00", End: "00:00:10", Type: "TALKING"},
		{Start: "00:00:10", End: "00:00:20", Type: "NO_TALKING"},
	}

	resp := h.upload(t, "segments", "clip.mp4", test.Mp4Header())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	events := readEvents(t, resp.Body)
	require.NotEmpty(t, events)
	assert.Equal(t, api.EventProgress, events[0].name)
	last := events[len(events)-1]
	require.Equal(t, api.EventResult, last.name)

	var result model.Response
	require.NoError(t, json.Unmarshal([]byte(last.data), &result))
	assert.Equal(t, model.MessageScenesDetected, result.Message)
	assert.Equal(t, "clip.mp4", result.VideoName)
	assert.Len(t, result.Timestamps, 2)

	require.Len(t, h.fakes.Notifier.Events, 1)
	assert.Equal(t, result.SessionID, h.fakes.Notifier.Events[0].SessionID)
	assert.Equal(t, int64(1), h.stats.Snapshot().Completed)
}

func TestProcessVideoStreamsPartialResults(t *testing.T) {
	h := newHarness(t)
	h.fakes.Media.Scenes = []model.Span{{Start: 0, End: 5000}, {Start: 5000, End: 12000}}
	h.fakes.Analyzer.DescribeErr = map[model.Span]error{{Start: 5000, End: 12000}: test.ExternalErr("describe")}

	resp := h.upload(t, "scenes", "clip.mp4", test.Mp4Header())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := readEvents(t, resp.Body)
	got := names(events)
	require.GreaterOrEqual(t, len(got), 2)
	assert.Equal(t, []string{api.EventPartial, api.EventError}, got[len(got)-2:])

	var partial model.Response
	require.NoError(t, json.Unmarshal([]byte(events[len(events)-2].data), &partial))
	assert.Equal(t, []string{test.DescriptionFor(model.Span{Start: 0, End: 5000}), model.NoTalkingSentinel}, partial.Descriptions)

	var failure api.ErrorBody
	require.NoError(t, json.Unmarshal([]byte(events[len(events)-1].data), &failure))
	assert.Equal(t, model.KindExternalService.String(), failure.Kind)
	assert.Equal(t, int64(1), h.stats.Snapshot().Failed)
}

func TestProcessVideoRejectsBadUploads(t *testing.T) {
	h := newHarness(t)

	resp := h.upload(t, "segments", "notes.txt", []byte("just some text, not a video"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, model.KindInvalidInput.String(), decodeError(t, resp.Body).Kind)

	resp = h.upload(t, "everything", "clip.mp4", test.Mp4Header())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, h.fakes.Analyzer.Requests())
}

func TestReanalyzeStreamsSegments(t *testing.T) {
	h := newHarness(t)
	h.fakes.Media.Audio = true
	session := test.NewSource(t, h.deps.Workspace, "clip.mp4")

	resp := h.postJSON(t, "/api/v1/sessions/"+session.ID+"/reanalyze", map[string]any{
		"video_name":     "clip.mp4",
		"old_data":       []map[string]any{{"start": 0, "end": 4000, "description": "Fog rolls in.", "audio_file": nil}},
		"new_timestamps": "0-4000,4000-7000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events := readEvents(t, resp.Body)
	last := events[len(events)-1]
	require.Equal(t, api.EventResult, last.name)

	var result model.ReanalyzeResponse
	require.NoError(t, json.Unmarshal([]byte(last.data), &result))
	require.Len(t, result.Segments, 2)
	assert.Equal(t, "Fog rolls in.", result.Segments[0].Description)
	assert.Equal(t, []model.Span{{Start: 4000, End: 7000}}, result.Changed)
	assert.Equal(t, "waveform/waveform.png", result.WaveformImage)
}

func TestReanalyzeResultListsSegmentsInOrder(t *testing.T) {
	h := newHarness(t)
	session := test.NewSource(t, h.deps.Workspace, "clip.mp4")

	resp := h.postJSON(t, "/api/v1/sessions/"+session.ID+"/reanalyze", map[string]any{
		"video_name": "clip.mp4",
		"old_data": []map[string]any{
			{"start": 9000, "end": 12000, "description": "A gull lands.", "audio_file": nil},
			{"start": 0, "end": 4000, "description": "TALKING", "audio_file": ""},
		},
		"new_timestamps": [][2]int64{{12000, 15000}, {4000, 9000}, {0, 4000}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events := readEvents(t, resp.Body)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	require.Equal(t, api.EventResult, last.name)

	var result model.ReanalyzeResponse
	require.NoError(t, json.Unmarshal([]byte(last.data), &result))
	require.Len(t, result.Segments, 4)
	starts := make([]model.TimePoint, 0, len(result.Segments))
	for _, seg := range result.Segments {
		starts = append(starts, seg.Start)
	}
	assert.Equal(t, []model.TimePoint{0, 4000, 9000, 12000}, starts)
	assert.Equal(t, model.TalkingSentinel, result.Segments[0].Description)
	assert.Equal(t, test.DescriptionFor(model.Span{Start: 4000, End: 9000}), result.Segments[1].Description)
	assert.Equal(t, "A gull lands.", result.Segments[2].Description)
	assert.Equal(t, []model.Span{{Start: 12000, End: 15000}, {Start: 4000, End: 9000}}, result.Changed)
	assert.Len(t, h.fakes.Analyzer.Requests(), 2)
}

func TestSessionRoutesValidateIds(t *testing.T) {
	h := newHarness(t)

	resp := h.postJSON(t, "/api/v1/sessions/not-a-session/encode", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.postJSON(t, "/api/v1/sessions/0b7c2c6e-4d39-4a4b-8f43-1b1f0f5f3c11/encode", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEncodeReturnsAttachment(t *testing.T) {
	h := newHarness(t)
	session := test.NewSource(t, h.deps.Workspace, "clip.mp4")

	resp := h.postJSON(t, "/api/v1/sessions/"+session.ID+"/encode", model.EncodeRequest{
		VideoFileName: "clip.mp4",
		Descriptions:  []string{"A door opens."},
		Timestamps:    [][2]model.TimePoint{{0, 4000}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "processed_clip.mp4")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "fake media", string(body))
}

func TestEncodeUnknownVideo(t *testing.T) {
	h := newHarness(t)
	session := test.NewSource(t, h.deps.Workspace, "clip.mp4")

	resp := h.postJSON(t, "/api/v1/sessions/"+session.ID+"/encode", model.EncodeRequest{
		VideoFileName: "other.mp4",
		Descriptions:  []string{"A door opens."},
		Timestamps:    [][2]model.TimePoint{{0, 4000}},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, model.KindSourceNotFound.String(), decodeError(t, resp.Body).Kind)
}

func TestNarrations(t *testing.T) {
	h := newHarness(t)
	session := test.NewSource(t, h.deps.Workspace, "clip.mp4")

	resp := h.postJSON(t, "/api/v1/sessions/"+session.ID+"/narrations", []model.NarrationItem{
		{Description: "Fog rolls in.", Timestamps: [2]model.TimePoint{0, 4000}},
		{Description: "A gull lands.", Timestamps: [2]model.TimePoint{4000, 7000}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out model.NarrationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.AudioFiles, 2)
	assert.Equal(t, "A gull lands.", out.AudioFiles[1].Description)
	assert.ElementsMatch(t, []string{"Fog rolls in.", "A gull lands."}, h.fakes.Narrator.Texts())
}

func TestServeFiles(t *testing.T) {
	h := newHarness(t)
	session := test.NewSource(t, h.deps.Workspace, "clip.mp4")
	require.NoError(t, os.WriteFile(session.ArtifactPath(workspace.DirScenes, "scene_1.mp4"), []byte("clip"), 0o644))

	resp := h.get(t, "/api/v1/sessions/"+session.ID+"/files/scenes/scene_1.mp4")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "clip", string(body))

	resp = h.get(t, workflow.LocalFilesRoute+"/"+session.ID+"/scenes/scene_1.mp4")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.get(t, "/api/v1/sessions/"+session.ID+"/files/audio/missing.wav")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = h.get(t, "/api/v1/sessions/"+session.ID+"/files/source/clip.mp4")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestArtifactURL(t *testing.T) {
	h := newHarness(t)

	resp := h.get(t, "/api/v1/artifacts/url")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.get(t, "/api/v1/artifacts/url?ref=gs://fake-bucket/a.mp4")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "https://signed.example/gs://fake-bucket/a.mp4", out["url"])
}

func TestTimelineHistoryNotConfigured(t *testing.T) {
	h := newHarness(t)
	resp := h.get(t, "/api/v1/videos/clip.mp4/timeline")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStats(t *testing.T) {
	h := newHarness(t)
	resp := h.get(t, "/api/v1/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snapshot api.StatsSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	assert.Zero(t, snapshot.InFlight)
	assert.Zero(t, snapshot.Completed)
}

func TestStatusFor(t *testing.T) {
	for err, want := range map[error]int{
		model.Invalid("op", "bad"):         http.StatusBadRequest,
		model.Malformed("op", "bad"):       http.StatusBadRequest,
		model.NotFound("op", "gone"):       http.StatusNotFound,
		test.ExternalErr("op"):             http.StatusBadGateway,
		model.Inconsistent("op", "broken"): http.StatusInternalServerError,
		errors.New("anything else"):        http.StatusInternalServerError,
	} {
		assert.Equal(t, want, api.StatusFor(err), err.Error())
	}
}
