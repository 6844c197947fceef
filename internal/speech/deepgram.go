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

package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/ports"
)

// DeepgramNarrator calls the Deepgram speak endpoint.
type DeepgramNarrator struct {
	url    string
	apiKey string
	client *http.Client
}

// NewDeepgramNarrator uses http.DefaultClient when client is nil. The model
// and voice are chosen by the query string of url.
func NewDeepgramNarrator(url string, apiKey string, client *http.Client) *DeepgramNarrator {
	if client == nil {
		client = http.DefaultClient
	}
	return &DeepgramNarrator{url: url, apiKey: apiKey, client: client}
}

// Synthesize returns the spoken text, typically as audio/mpeg.
func (d *DeepgramNarrator) Synthesize(ctx context.Context, text string) (ports.Audio, error) {
	const op = "deepgram speak"
	if strings.TrimSpace(text) == "" {
		return ports.Audio{}, model.Invalid(op, "nothing to say")
	}
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return ports.Audio{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return ports.Audio{}, fmt.Errorf("failed to build deepgram request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return ports.Audio{}, model.External(op, err, "")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.Audio{}, model.External(op, err, "")
	}
	if resp.StatusCode != http.StatusOK {
		return ports.Audio{}, model.External(op, fmt.Errorf("status %s", resp.Status), truncate(string(data), 512))
	}
	if len(data) == 0 {
		return ports.Audio{}, model.External(op, fmt.Errorf("empty audio"), "")
	}
	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "audio/mpeg"
	}
	return ports.Audio{Data: data, MIMEType: mimeType}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
