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

// Package ports declares the collaborators the describe pipeline depends on.
// Cloud, ffmpeg and speech adapters implement them; tests substitute fakes.
package ports

import (
	"context"
	"time"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

// MediaRef points at a media file either in GCS (gs://) or on local disk.
type MediaRef struct {
	URI      string
	MIMEType string
}

// Audio is synthesized speech as returned by a narrator.
type Audio struct {
	Data     []byte
	MIMEType string
}

// DescriptionRequest is the per-clip context handed to the description model.
type DescriptionRequest struct {
	Span           model.Span
	ContextSummary string
	WordLimit      int
}

// SourceChecker reports whether a source video is available.
type SourceChecker interface {
	Exists(ctx context.Context, source string) (bool, error)
}

// SceneCutDetector finds visual scene boundaries, returning contiguous spans
// that cover the whole video.
type SceneCutDetector interface {
	DetectScenes(ctx context.Context, videoPath string) ([]model.Span, error)
}

// TalkingDetector classifies a video into dialogue and non-dialogue regions.
type TalkingDetector interface {
	// DetectSegments returns the raw TALKING / NO_TALKING segmentation.
	DetectSegments(ctx context.Context, video MediaRef) ([]model.RawInterval, error)
	// DetectTalking returns only the talking intervals. found is false when
	// the video has no dialogue at all.
	DetectTalking(ctx context.Context, video MediaRef) (spans []model.Span, found bool, err error)
}

// Summarizer produces a short context summary of a whole video.
type Summarizer interface {
	Summarize(ctx context.Context, video MediaRef) (string, error)
}

// DescriptionGenerator writes a narration sentence for one clip.
type DescriptionGenerator interface {
	Describe(ctx context.Context, clip MediaRef, req DescriptionRequest) (string, error)
}

// Narrator turns text into speech.
type Narrator interface {
	Synthesize(ctx context.Context, text string) (Audio, error)
}

// MediaCutter extracts [span.Start, span.End) of a video into outPath.
type MediaCutter interface {
	Cut(ctx context.Context, videoPath string, span model.Span, outPath string) error
}

// MediaProber inspects media files.
type MediaProber interface {
	Duration(ctx context.Context, path string) (model.TimePoint, error)
	HasAudio(ctx context.Context, path string) (bool, error)
}

// AudioFitter speeds up audio by factor (> 1 shortens it).
type AudioFitter interface {
	SpeedUp(ctx context.Context, inPath string, factor float64, outPath string) error
}

// DelayedClip is an audio file placed at an offset of the output track.
type DelayedClip struct {
	Path string
	At   model.TimePoint
}

// MixRequest overlays clips on an optional base track.
type MixRequest struct {
	// Base is a media file whose first audio stream is kept underneath the
	// clips. Empty means the clips are mixed on silence.
	Base   string
	Clips  []DelayedClip
	Output string
}

// AudioMixer renders a MixRequest.
type AudioMixer interface {
	Mix(ctx context.Context, req MixRequest) error
}

// MuxRequest combines a video stream with an audio track and subtitles.
type MuxRequest struct {
	Video     string
	Audio     string // empty keeps the video's own audio, if any
	Subtitles string // SRT path, empty for none
	Output    string
	// BurnSubtitles renders the subtitles into the picture instead of adding
	// a soft subtitle stream.
	BurnSubtitles bool
	SubtitleStyle string
}

// MediaMuxer renders a MuxRequest.
type MediaMuxer interface {
	Mux(ctx context.Context, req MuxRequest) error
}

// ProxyTranscoder produces a smaller copy of a video for analysis.
type ProxyTranscoder interface {
	Transcode(ctx context.Context, inPath string, outPath string, format model.MediaFormatFilter) error
}

// WaveformRenderer draws the audio waveform of a video into an image.
type WaveformRenderer interface {
	RenderWaveform(ctx context.Context, inPath string, outPath string) error
}

// ArtifactStore makes local files reachable by the vision model and clients.
type ArtifactStore interface {
	// Publish stores the local file under name and returns a reference the
	// vision model can read.
	Publish(ctx context.Context, localPath string, name string, mimeType string) (MediaRef, error)
	// URL returns a client facing link for a published reference.
	URL(ctx context.Context, ref MediaRef, ttl time.Duration) (string, error)
}

// Notifier announces finished workflows.
type Notifier interface {
	Notify(ctx context.Context, event model.CompletionEvent) error
}
