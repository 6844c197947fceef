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

// Package timecode converts between millisecond time points and the textual
// timestamps produced by the vision model and consumed by subtitle files.
//
// Parsing accepts "SS", "MM:SS" or "HH:MM:SS", each optionally followed by a
// "." or "," and a decimal fraction of a second. Minutes and seconds above 59
// are accepted and carried into the total.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
)

// Style picks the separator between seconds and milliseconds when formatting.
type Style int

const (
	// StyleColonMillis renders HH:MM:SS.mmm
	StyleColonMillis Style = iota
	// StyleSRT renders HH:MM:SS,mmm as required by SubRip files.
	StyleSRT
)

// maxFieldDigits keeps a single field well clear of int64 overflow.
const maxFieldDigits = 10

var fieldUnits = [...]int64{1_000, 60_000, 3_600_000}

// Parse converts a textual timestamp into a TimePoint.
func Parse(s string) (model.TimePoint, error) {
	const op = "timecode.Parse"
	in := strings.TrimSpace(s)
	if in == "" {
		return 0, model.Malformed(op, "empty timestamp")
	}
	fields := strings.Split(in, ":")
	if len(fields) > len(fieldUnits) {
		return 0, model.Malformed(op, "%q has %d fields", s, len(fields))
	}

	var fraction string
	last := fields[len(fields)-1]
	if i := strings.IndexAny(last, ".,"); i >= 0 {
		fraction = last[i+1:]
		fields[len(fields)-1] = last[:i]
		if fraction == "" {
			return 0, model.Malformed(op, "%q has an empty fractional part", s)
		}
	}

	var total int64
	for i := range fields {
		v, err := parseDigits(fields[len(fields)-1-i])
		if err != nil {
			return 0, model.Malformed(op, "%q: %v", s, err)
		}
		total += v * fieldUnits[i]
	}
	ms, err := parseFraction(fraction)
	if err != nil {
		return 0, model.Malformed(op, "%q: %v", s, err)
	}
	return model.TimePoint(total + ms), nil
}

func parseDigits(field string) (int64, error) {
	if field == "" {
		return 0, fmt.Errorf("empty field")
	}
	if len(field) > maxFieldDigits {
		return 0, fmt.Errorf("field %q is too long", field)
	}
	for _, r := range field {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("field %q is not a number", field)
		}
	}
	return strconv.ParseInt(field, 10, 64)
}

// parseFraction reads a decimal fraction of a second, so ".5" and ".500" are
// both half a second. Digits past the millisecond are truncated.
func parseFraction(fraction string) (int64, error) {
	if fraction == "" {
		return 0, nil
	}
	for _, r := range fraction {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("fraction %q is not a number", fraction)
		}
	}
	if len(fraction) > 3 {
		fraction = fraction[:3]
	}
	fraction += strings.Repeat("0", 3-len(fraction))
	return strconv.ParseInt(fraction, 10, 64)
}

// Format renders t as HH:MM:SS followed by the style separator and three
// millisecond digits. Negative values clamp to zero.
func Format(t model.TimePoint, style Style) string {
	ms := max(int64(t), 0)
	h := ms / 3_600_000
	ms %= 3_600_000
	m := ms / 60_000
	ms %= 60_000
	sec := ms / 1_000
	ms %= 1_000
	sep := '.'
	if style == StyleSRT {
		sep = ','
	}
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, sec, sep, ms)
}

// Seconds returns t as fractional seconds.
func Seconds(t model.TimePoint) float64 {
	return float64(t) / 1000
}

// SecondsArg renders t the way ffmpeg expects a time argument, e.g. "12.345".
func SecondsArg(t model.TimePoint) string {
	return strconv.FormatFloat(Seconds(t), 'f', 3, 64)
}

// FromSeconds rounds fractional seconds to the nearest millisecond.
func FromSeconds(seconds float64) model.TimePoint {
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}
	return model.TimePoint(math.Round(seconds * 1000))
}
