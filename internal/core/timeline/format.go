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

package timeline

import (
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

// Format renders a timeline into the parallel array response. TALKING
// segments carry the TALKING sentinel and an empty audio entry, undescribed
// NO_TALKING segments carry the NO_TALKING sentinel and a null audio entry.
// Scene files are listed for described segments only.
//
// Format panics with a PartialResultInconsistency error if the parallel
// arrays come out with different lengths.
func Format(tl model.Timeline) *model.Response {
	resp := &model.Response{
		Message:      model.MessageScenesDetected,
		Descriptions: make([]string, 0, len(tl)),
		Timestamps:   make([][2]model.TimePoint, 0, len(tl)),
		SceneFiles:   make([]string, 0, len(tl)),
		AudioFiles:   make([]*string, 0, len(tl)),
	}
	for _, seg := range tl {
		resp.Timestamps = append(resp.Timestamps, [2]model.TimePoint{seg.Start, seg.End})
		switch {
		case seg.Label == model.Talking:
			resp.Descriptions = append(resp.Descriptions, model.TalkingSentinel)
			resp.AudioFiles = append(resp.AudioFiles, ptr(""))
		case seg.Description == nil:
			resp.Descriptions = append(resp.Descriptions, model.NoTalkingSentinel)
			resp.AudioFiles = append(resp.AudioFiles, nil)
		default:
			resp.Descriptions = append(resp.Descriptions, seg.Description.Text)
			if seg.Description.SceneFile != "" {
				resp.SceneFiles = append(resp.SceneFiles, seg.Description.SceneFile)
			}
			resp.AudioFiles = append(resp.AudioFiles, optional(seg.Description.AudioFile))
		}
	}
	if len(resp.Descriptions) != len(tl) || len(resp.Timestamps) != len(tl) || len(resp.AudioFiles) != len(tl) {
		panic(model.Inconsistent("timeline.Format", "%d segments rendered as %d descriptions, %d timestamps and %d audio files",
			len(tl), len(resp.Descriptions), len(resp.Timestamps), len(resp.AudioFiles)))
	}
	return resp
}

// FormatSegments renders a timeline as one view per segment.
func FormatSegments(tl model.Timeline) []model.SegmentView {
	out := make([]model.SegmentView, 0, len(tl))
	for _, seg := range tl {
		v := model.SegmentView{Start: seg.Start, End: seg.End, Type: seg.Label.String()}
		switch {
		case seg.Label == model.Talking:
			v.Description = model.TalkingSentinel
			v.AudioFile = ptr("")
		case seg.Description == nil:
			v.Description = model.NoTalkingSentinel
		default:
			v.Description = seg.Description.Text
			v.SceneFile = seg.Description.SceneFile
			v.AudioFile = optional(seg.Description.AudioFile)
		}
		out = append(out, v)
	}
	return out
}

// Views converts client supplied segment views into a timeline.
func Views(views []model.SegmentView) (model.Timeline, error) {
	out := make(model.Timeline, 0, len(views))
	for _, v := range views {
		seg, err := v.Segment()
		if err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
	return out, nil
}

// FromRequest reads the parallel arrays of an encode request back into a
// timeline. It is the inverse of Format, minus the scene files.
func FromRequest(req *model.EncodeRequest) (model.Timeline, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	out := make(model.Timeline, 0, len(req.Descriptions))
	for i, text := range req.Descriptions {
		span := model.Span{Start: req.Timestamps[i][0], End: req.Timestamps[i][1]}
		switch {
		case text == model.TalkingSentinel:
			out = append(out, model.TalkingSegment(span))
		case !req.Narratable(i):
			out = append(out, model.NoTalkingSegment(span, nil))
		default:
			out = append(out, model.NoTalkingSegment(span, &model.Description{Text: text, AudioFile: req.AudioFile(i)}))
		}
	}
	return out, nil
}

func ptr(s string) *string {
	return &s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
