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

// Package media drives the ffmpeg and ffprobe binaries. Every operation of
// the pipeline that touches audio or video pixels goes through Tool:
//
//  1. Transcode shrinks an upload into an analysis proxy.
//  2. DetectScenes finds visual scene cuts.
//  3. Cut re-encodes one clip per described segment.
//  4. SpeedUp, Mix and Mux assemble the narrated output.
//  5. RenderWaveform draws the editor's waveform strip.
//
// Failures are reported as model.External with the tail of ffmpeg's output
// attached. Tool never retries; a failed encode is reported as is.
package media

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timecode"
)

const (
	// DefaultSceneThreshold is the ffmpeg scene score above which a frame
	// starts a new scene.
	DefaultSceneThreshold = 0.3
	// DefaultSubtitleStyle is the libass force_style used when burning in.
	DefaultSubtitleStyle = "FontName=Arial,FontSize=24"

	outputTailBytes = 2048
)

// Tool wraps the ffmpeg and ffprobe executables.
type Tool struct {
	ffmpeg         string
	ffprobe        string
	sceneThreshold float64
}

// New returns a Tool. Empty paths fall back to the binaries on PATH and a
// non-positive threshold to DefaultSceneThreshold.
func New(ffmpegPath string, ffprobePath string, sceneThreshold float64) *Tool {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if sceneThreshold <= 0 {
		sceneThreshold = DefaultSceneThreshold
	}
	return &Tool{ffmpeg: ffmpegPath, ffprobe: ffprobePath, sceneThreshold: sceneThreshold}
}

// run executes binary with args and returns its combined output.
func (t *Tool) run(ctx context.Context, op string, binary string, args ...string) ([]byte, error) {
	slog.Debug("running media tool", "op", op, "binary", binary, "args", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, binary, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, model.External(op, err, tail(out.Bytes()))
	}
	return out.Bytes(), nil
}

func (t *Tool) ffmpegRun(ctx context.Context, op string, args ...string) error {
	_, err := t.run(ctx, op, t.ffmpeg, append([]string{"-y", "-hide_banner", "-loglevel", "error"}, args...)...)
	return err
}

// Cut re-encodes [span.Start, span.End) of videoPath into outPath. Input
// seeking keeps the cut fast; re-encoding keeps it accurate.
func (t *Tool) Cut(ctx context.Context, videoPath string, span model.Span, outPath string) error {
	if !span.Valid() {
		return model.Invalid("ffmpeg cut", "cannot cut span %s", span)
	}
	return t.ffmpegRun(ctx, "ffmpeg cut",
		"-ss", timecode.SecondsArg(span.Start),
		"-i", videoPath,
		"-t", timecode.SecondsArg(span.Duration()),
		"-c:v", "libx264", "-preset", "veryfast",
		"-c:a", "aac",
		"-movflags", "+faststart",
		outPath,
	)
}

// Transcode scales a video to format.Width, keeping the aspect ratio and an
// even height.
func (t *Tool) Transcode(ctx context.Context, inPath string, outPath string, format model.MediaFormatFilter) error {
	if format.Width <= 0 {
		return model.Invalid("ffmpeg transcode", "width must be positive, got %d", format.Width)
	}
	container := format.Format
	if container == "" {
		container = "mp4"
	}
	return t.ffmpegRun(ctx, "ffmpeg transcode",
		"-analyzeduration", "0", "-probesize", "5000000",
		"-i", inPath,
		"-filter:v", "scale=w="+strconv.Itoa(format.Width)+":h=trunc(ow/a/2)*2",
		"-f", container,
		outPath,
	)
}

// RenderWaveform draws the first audio stream of inPath as a PNG.
func (t *Tool) RenderWaveform(ctx context.Context, inPath string, outPath string) error {
	return t.ffmpegRun(ctx, "ffmpeg waveform",
		"-i", inPath,
		"-filter_complex", "aformat=channel_layouts=mono,showwavespic=s=1920x120:colors=#4f8ef7",
		"-frames:v", "1",
		outPath,
	)
}

func tail(out []byte) string {
	if len(out) > outputTailBytes {
		out = out[len(out)-outputTailBytes:]
	}
	return strings.TrimSpace(string(out))
}

// escapeFilterPath quotes a path for use inside a filter argument.
func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	return p
}

func formatFactor(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func msArg(t model.TimePoint) string {
	return strconv.FormatInt(int64(t), 10)
}
