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
	"context"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
)

// DescribeFunc produces descriptions for the given spans. It may return a
// partial map together with an error.
type DescribeFunc func(ctx context.Context, spans []model.Span) (map[model.Span]model.Description, error)

// ReconcileRequest is a reanalysis: the timeline the client already has and
// the segment keys it wants described.
type ReconcileRequest struct {
	Source    string
	Previous  model.Timeline
	Requested []model.Span
}

// ReconcileResult is the merged timeline plus what was generated for it.
type ReconcileResult struct {
	Segments model.Timeline
	Changed  []model.Span
	Fresh    map[model.Span]model.Description
}

// Reconciler merges previously described segments with newly requested ones,
// describing only the keys that are not already known.
type Reconciler struct {
	Sources  ports.SourceChecker
	Describe DescribeFunc
}

// Reconcile checks the source exists, describes every requested span that has
// no previous entry, and returns the union of previous and requested keys
// sorted by start then end. Keys match exactly. A span that was requested but
// could not be described is returned as an undescribed NO_TALKING segment.
//
// When Describe fails the merged result is still returned with the error so
// callers can surface what was generated.
func (r *Reconciler) Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error) {
	const op = "timeline.Reconcile"
	for _, s := range req.Requested {
		if !s.Valid() {
			return nil, model.Invalid(op, "requested segment %s is not a valid interval", s)
		}
	}
	for _, seg := range req.Previous {
		if !seg.Valid() {
			return nil, model.Invalid(op, "previous segment %s is not a valid interval", seg.Span)
		}
	}

	exists, err := r.Sources.Exists(ctx, req.Source)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.NotFound(op, "source video %q", req.Source)
	}

	previous := make(map[model.Span]model.Segment, len(req.Previous))
	for _, seg := range req.Previous {
		if _, ok := previous[seg.Span]; !ok {
			previous[seg.Span] = seg
		}
	}

	result := &ReconcileResult{
		Changed: make([]model.Span, 0, len(req.Requested)),
		Fresh:   make(map[model.Span]model.Description),
	}
	queued := make(map[model.Span]bool, len(req.Requested))
	for _, s := range req.Requested {
		if _, ok := previous[s]; ok || queued[s] {
			continue
		}
		queued[s] = true
		result.Changed = append(result.Changed, s)
	}

	var describeErr error
	if len(result.Changed) > 0 {
		fresh, err := r.Describe(ctx, result.Changed)
		for _, s := range result.Changed {
			if d, ok := fresh[s]; ok {
				result.Fresh[s] = d
			}
		}
		describeErr = err
	}

	keys := make([]model.Span, 0, len(previous)+len(result.Changed))
	for k := range previous {
		keys = append(keys, k)
	}
	keys = append(keys, result.Changed...)
	model.SortSpans(keys)

	result.Segments = make(model.Timeline, 0, len(keys))
	for _, k := range keys {
		if d, ok := result.Fresh[k]; ok {
			result.Segments = append(result.Segments, model.NoTalkingSegment(k, &d))
			continue
		}
		if seg, ok := previous[k]; ok {
			result.Segments = append(result.Segments, seg.Clone())
			continue
		}
		result.Segments = append(result.Segments, model.NoTalkingSegment(k, nil))
	}
	return result, describeErr
}
