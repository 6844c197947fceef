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
	"math"
	"strconv"
	"strings"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
)

// maxAtempo is the largest factor a single atempo filter accepts.
const maxAtempo = 2.0

// AtempoChain splits factor into atempo stages of at most 2.0 each. Factors
// at or below 1 need no stages.
func AtempoChain(factor float64) []float64 {
	if factor <= 1 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil
	}
	var stages []float64
	for factor > maxAtempo {
		stages = append(stages, maxAtempo)
		factor /= maxAtempo
	}
	if factor > 1 {
		stages = append(stages, factor)
	}
	return stages
}

func atempoFilter(stages []float64) string {
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = "atempo=" + formatFactor(s)
	}
	return strings.Join(parts, ",")
}

// SpeedUp shortens inPath by factor. A factor of 1 or less only transcodes.
func (t *Tool) SpeedUp(ctx context.Context, inPath string, factor float64, outPath string) error {
	args := []string{"-i", inPath}
	if stages := AtempoChain(factor); len(stages) > 0 {
		args = append(args, "-filter:a", atempoFilter(stages))
	}
	args = append(args, "-c:a", "pcm_s16le", outPath)
	return t.ffmpegRun(ctx, "ffmpeg speedup", args...)
}

// MixFilter builds the filter graph for a mix. Input 0 is the base track
// when hasBase is set; clip inputs follow in order.
func MixFilter(clips []ports.DelayedClip, hasBase bool) string {
	var b strings.Builder
	offset := 0
	if hasBase {
		offset = 1
	}
	for i, clip := range clips {
		delay := msArg(max(clip.At, 0))
		b.WriteString("[" + strconv.Itoa(i+offset) + ":a]adelay=" + delay + "|" + delay + "[a" + strconv.Itoa(i) + "];")
	}
	inputs := len(clips)
	duration := "longest"
	if hasBase {
		b.WriteString("[0:a]")
		inputs++
		duration = "first"
	}
	for i := range clips {
		b.WriteString("[a" + strconv.Itoa(i) + "]")
	}
	b.WriteString("amix=inputs=" + strconv.Itoa(inputs) + ":duration=" + duration + ":dropout_transition=0:normalize=0[aout]")
	return b.String()
}

// Mix overlays every clip at its offset, on top of the base track's audio
// when one is given.
func (t *Tool) Mix(ctx context.Context, req ports.MixRequest) error {
	if len(req.Clips) == 0 {
		return model.Invalid("ffmpeg mix", "no audio clips to mix")
	}
	var args []string
	if req.Base != "" {
		args = append(args, "-i", req.Base)
	}
	for _, clip := range req.Clips {
		args = append(args, "-i", clip.Path)
	}
	args = append(args,
		"-filter_complex", MixFilter(req.Clips, req.Base != ""),
		"-map", "[aout]",
		"-c:a", "aac", "-b:a", "192k",
		req.Output,
	)
	return t.ffmpegRun(ctx, "ffmpeg mix", args...)
}
