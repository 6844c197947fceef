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
	"regexp"
	"strconv"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timecode"
)

var ptsTimePattern = regexp.MustCompile(`pts_time:\s*([0-9]+(?:\.[0-9]+)?)`)

// DetectScenes splits a video into contiguous scenes at the frames whose
// scene change score exceeds the threshold. The spans cover the whole video.
func (t *Tool) DetectScenes(ctx context.Context, videoPath string) ([]model.Span, error) {
	duration, err := t.Duration(ctx, videoPath)
	if err != nil {
		return nil, err
	}
	filter := "select='gt(scene," + strconv.FormatFloat(t.sceneThreshold, 'f', -1, 64) + ")',showinfo"
	// showinfo writes at info level, so the default loglevel is kept here.
	out, err := t.run(ctx, "ffmpeg scenes", t.ffmpeg,
		"-hide_banner", "-nostats",
		"-i", videoPath,
		"-filter:v", filter,
		"-an", "-f", "null", "-",
	)
	if err != nil {
		return nil, err
	}
	return ScenesFromCuts(ParseSceneCuts(string(out)), duration), nil
}

// ParseSceneCuts extracts the pts_time of every frame showinfo printed.
func ParseSceneCuts(out string) []model.TimePoint {
	matches := ptsTimePattern.FindAllStringSubmatch(out, -1)
	cuts := make([]model.TimePoint, 0, len(matches))
	for _, m := range matches {
		seconds, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		cuts = append(cuts, timecode.FromSeconds(seconds))
	}
	return cuts
}

// ScenesFromCuts turns cut points into contiguous spans over [0, duration).
// Cuts outside the video or not after the previous cut are ignored.
func ScenesFromCuts(cuts []model.TimePoint, duration model.TimePoint) []model.Span {
	if duration <= 0 {
		return nil
	}
	scenes := make([]model.Span, 0, len(cuts)+1)
	start := model.TimePoint(0)
	for _, cut := range cuts {
		if cut <= start || cut >= duration {
			continue
		}
		scenes = append(scenes, model.Span{Start: start, End: cut})
		start = cut
	}
	return append(scenes, model.Span{Start: start, End: duration})
}
