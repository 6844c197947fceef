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

// Package subtitle renders described segments as SubRip (.srt) cues.
package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timecode"
)

// Cue is one subtitle entry.
type Cue struct {
	Span model.Span
	Text string
}

// FromTimeline returns a cue for every described segment, in timeline order.
func FromTimeline(tl model.Timeline) []Cue {
	out := make([]Cue, 0, len(tl))
	for _, seg := range tl {
		if seg.Described() {
			out = append(out, Cue{Span: seg.Span, Text: seg.Description.Text})
		}
	}
	return out
}

// Write renders cues in SRT format, numbering them from 1.
func Write(w io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(w)
	for i, c := range cues {
		_, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n",
			i+1,
			timecode.Format(c.Span.Start, timecode.StyleSRT),
			timecode.Format(c.Span.End, timecode.StyleSRT),
			cueText(c.Text))
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Render returns the SRT document as a string.
func Render(cues []Cue) string {
	var b strings.Builder
	_ = Write(&b, cues)
	return b.String()
}

// WriteFile writes the SRT document to path.
func WriteFile(path string, cues []Cue) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create subtitle file: %w", err)
	}
	if err := Write(f, cues); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write subtitle file: %w", err)
	}
	return f.Close()
}

// cueText drops blank lines, which would otherwise end the cue early.
func cueText(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
