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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file names the
// context keys commands use to hand values to each other. Each key lists the
// type stored under it.
package commands

import (
	"fmt"

	"github.com/jaycherian/gcp-go-audio-describe/internal/cloud"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/workspace"
)

const (
	ParamSession      = "__session__"       // *workspace.Session
	ParamVideoName    = "__video_name__"    // string, file name of the source video
	ParamSourcePath   = "__source_path__"   // string, local path of the source video
	ParamAnalysisPath = "__analysis_path__" // string, proxy or source sent to the model
	ParamAnalysisRef  = "__analysis_ref__"  // ports.MediaRef of the analysis video
	ParamMode         = "__mode__"          // model.DescribeMode
	ParamSummary      = "__summary__"       // string
	ParamRawSegments  = "__raw_segments__"  // []model.RawInterval
	ParamTimeline     = "__timeline__"      // model.Timeline
	ParamScenes       = "__scenes__"        // []model.Span
	ParamTalking      = "__talking__"       // []model.Span
	ParamResponse     = "__response__"      // *model.Response
	ParamReanalyze    = "__reanalyze__"     // *model.ReanalyzeRequest
	ParamReconciled   = "__reconciled__"    // *timeline.ReconcileResult
	ParamWaveform     = "__waveform__"      // string, session relative image reference
	ParamEncode       = "__encode__"        // *model.EncodeRequest
	ParamNarrations   = "__narrations__"    // []ports.DelayedClip
	ParamSubtitles    = "__subtitles__"     // string, SRT path
	ParamMixedAudio   = "__mixed_audio__"   // string, mixed narration track
	ParamOutput       = "__output__"        // string, processed video path
	ParamScratch      = "__scratch__"       // string, per run temporary directory
)

// ParamGCSObject is where the trigger reader leaves the *cloud.GCSObject.
var ParamGCSObject = cloud.GetGCSObjectName()

// sessionFrom fetches the session every session scoped command needs.
func sessionFrom(context cor.Context) (*workspace.Session, error) {
	session, ok := context.Get(ParamSession).(*workspace.Session)
	if !ok || session == nil {
		return nil, fmt.Errorf("no session in context")
	}
	return session, nil
}

// stringParam returns the string stored under key, or "".
func stringParam(context cor.Context, key string) string {
	s, _ := context.Get(key).(string)
	return s
}

// scratchDir returns the run's scratch directory, creating it on first use
// and registering it for removal when the context closes.
func scratchDir(context cor.Context, session *workspace.Session) (string, error) {
	if dir := stringParam(context, ParamScratch); dir != "" {
		return dir, nil
	}
	dir, err := session.Scratch()
	if err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}
	context.AddTempFile(dir)
	context.Add(ParamScratch, dir)
	return dir, nil
}
