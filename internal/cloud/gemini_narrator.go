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

package cloud

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
	"github.com/jaycherian/gcp-go-audio-describe/internal/speech"
)

// GeminiNarrator speaks text with a Gemini speech model. The generator must
// be configured with the AUDIO response modality, see NewSpeechConfig.
type GeminiNarrator struct {
	generator ContentGenerator
	counters  *TokenCounters
}

func NewGeminiNarrator(generator ContentGenerator) *GeminiNarrator {
	return &GeminiNarrator{generator: generator, counters: NewTokenCounters("gemini.narrator")}
}

// NewSpeechConfig returns a generation config that answers with audio spoken
// by the named prebuilt voice.
func NewSpeechConfig(voice string) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}
}

// Synthesize returns WAV audio. Raw PCM answers are framed with a header.
// Retrying is left to the caller.
func (n *GeminiNarrator) Synthesize(ctx context.Context, text string) (ports.Audio, error) {
	const op = "gemini speak"
	if strings.TrimSpace(text) == "" {
		return ports.Audio{}, model.Invalid(op, "nothing to say")
	}
	resp, err := n.generator.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return ports.Audio{}, err
	}
	n.counters.record(ctx, resp)

	blob := firstInlineData(resp)
	if blob == nil || len(blob.Data) == 0 {
		return ports.Audio{}, model.External(op, errors.New("response carried no audio"), ResponseText(resp))
	}
	if speech.IsRawPCM(blob.MIMEType) {
		wav := speech.WrapPCM(blob.Data, speech.PCMRate(blob.MIMEType), speech.DefaultChannels, speech.DefaultBitsPerSample)
		return ports.Audio{Data: wav, MIMEType: "audio/wav"}, nil
	}
	return ports.Audio{Data: blob.Data, MIMEType: blob.MIMEType}, nil
}

func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil {
				return part.InlineData
			}
		}
	}
	return nil
}
