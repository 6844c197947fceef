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
	"strings"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timecode"
)

// Duration returns the container duration of a media file.
func (t *Tool) Duration(ctx context.Context, path string) (model.TimePoint, error) {
	out, err := t.run(ctx, "ffprobe duration", t.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}
	return parseDuration(string(out))
}

func parseDuration(out string) (model.TimePoint, error) {
	s := strings.TrimSpace(out)
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil || seconds < 0 {
		return 0, model.External("ffprobe duration", err, "unexpected duration "+strconv.Quote(s))
	}
	return timecode.FromSeconds(seconds), nil
}

// HasAudio reports whether the file carries at least one audio stream.
func (t *Tool) HasAudio(ctx context.Context, path string) (bool, error) {
	out, err := t.run(ctx, "ffprobe streams", t.ffprobe,
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=index",
		"-of", "csv=p=0",
		path,
	)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(out)) != "", nil
}
