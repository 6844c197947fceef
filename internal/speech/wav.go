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

// Package speech holds the non-Google text to speech adapter and the audio
// framing helpers shared by every narrator.
package speech

import (
	"bytes"
	"encoding/binary"
	"mime"
	"strconv"
	"strings"
)

// Defaults for the raw PCM returned by Gemini speech models.
const (
	DefaultSampleRate    = 24000
	DefaultChannels      = 1
	DefaultBitsPerSample = 16
)

// WrapPCM prefixes little endian signed PCM samples with a 44 byte RIFF/WAVE
// header so ffmpeg and browsers can play them.
func WrapPCM(pcm []byte, sampleRate int, channels int, bitsPerSample int) []byte {
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}

// IsRawPCM reports whether a MIME type such as "audio/L16;codec=pcm;rate=24000"
// describes headerless samples.
func IsRawPCM(mimeType string) bool {
	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.HasPrefix(strings.ToLower(mimeType), "audio/l16")
	}
	return strings.EqualFold(mediaType, "audio/L16") || strings.EqualFold(params["codec"], "pcm")
}

// PCMRate reads the rate parameter of a raw PCM MIME type.
func PCMRate(mimeType string) int {
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return DefaultSampleRate
	}
	rate, err := strconv.Atoi(params["rate"])
	if err != nil || rate <= 0 {
		return DefaultSampleRate
	}
	return rate
}
