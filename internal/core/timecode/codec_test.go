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

package timecode_test

import (
	"testing"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := map[string]model.TimePoint{
		"00:00:02,500":  2_500,
		"00:00:02.500":  2_500,
		"1:2:3":         3_723_000,
		"00:01:05.50":   65_500,
		"00:00:04.5":    4_500,
		"7":             7_000,
		"02:30":         150_000,
		"00:00:01.2345": 1_234,
		" 00:00:03 ":    3_000,
		"00:90:00":      5_400_000,
		"01:01:01,500":  3_661_500,
	}
	for in, want := range cases {
		got, err := timecode.Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "abc", "1:2:3:4", "00:-1:00", "00::01", "00:00:01.", "00:00:01.x", "+5", "00:00:99999999999"} {
		_, err := timecode.Parse(in)
		assert.ErrorIs(t, err, model.ErrMalformedTimestamp, in)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "00:00:02,500", timecode.Format(2_500, timecode.StyleSRT))
	assert.Equal(t, "00:00:02.500", timecode.Format(2_500, timecode.StyleColonMillis))
	assert.Equal(t, "01:01:01,500", timecode.Format(3_661_500, timecode.StyleSRT))
	assert.Equal(t, "00:00:00.000", timecode.Format(-40, timecode.StyleColonMillis))
	assert.Equal(t, "27:46:40.000", timecode.Format(100_000_000, timecode.StyleColonMillis))
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, ms := range []model.TimePoint{0, 1, 999, 1_000, 59_999, 3_599_999, 3_600_000, 86_399_999} {
		for _, style := range []timecode.Style{timecode.StyleColonMillis, timecode.StyleSRT} {
			back, err := timecode.Parse(timecode.Format(ms, style))
			require.NoError(t, err)
			assert.Equal(t, ms, back)
		}
	}
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, "12.345", timecode.SecondsArg(12_345))
	assert.Equal(t, model.TimePoint(1_500), timecode.FromSeconds(1.4999))
	assert.Equal(t, model.TimePoint(0), timecode.FromSeconds(-3))
	assert.InDelta(t, 2.5, timecode.Seconds(2_500), 1e-9)
}
