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

package media

import (
	"context"
	"strconv"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
)

// Mux renders the final video.
func (t *Tool) Mux(ctx context.Context, req ports.MuxRequest) error {
	return t.ffmpegRun(ctx, "ffmpeg mux", muxArgs(req)...)
}

func muxArgs(req ports.MuxRequest) []string {
	args := []string{"-i", req.Video}
	next := 1
	audioInput := "0:a?"
	if req.Audio != "" {
		args = append(args, "-i", req.Audio)
		audioInput = "1:a"
		next++
	}
	softSubs := req.Subtitles != "" && !req.BurnSubtitles
	if softSubs {
		args = append(args, "-i", req.Subtitles)
	}

	if req.Subtitles != "" && req.BurnSubtitles {
		style := req.SubtitleStyle
		if style == "" {
			style = DefaultSubtitleStyle
		}
		args = append(args, "-vf", "subtitles="+escapeFilterPath(req.Subtitles)+":force_style='"+style+"'")
	}
	args = append(args, "-map", "0:v", "-map", audioInput)
	if softSubs {
		args = append(args, "-map", strconv.Itoa(next)+":s", "-c:s", "mov_text")
	}
	return append(args,
		"-c:v", "libx264", "-preset", "fast", "-crf", "23",
		"-c:a", "aac", "-b:a", "192k",
		req.Output,
	)
}
