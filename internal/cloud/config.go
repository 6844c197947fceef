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

// Package cloud holds the configuration model, the Google Cloud client
// container and the adapters that connect the describe pipeline to Vertex AI,
// Cloud Storage, IAM, Pub/Sub and BigQuery.
package cloud

import (
	"os"
	"path/filepath"

	"google.golang.org/genai"
)

// Logical names of the agent models in Config.AgentModels.
const (
	AgentVision   = "vision"
	AgentNarrator = "narrator"
)

// Logical name of the upload notification subscription.
const UploadTopic = "UploadTopic"

// DefaultSafetySettings disables blocking; the descriptions are of the
// user's own footage and a blocked answer leaves a hole in the timeline.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// BigQueryDataSource names where finished timelines are stored. An empty
// dataset disables persistence.
type BigQueryDataSource struct {
	DatasetName   string `toml:"dataset"`
	TimelineTable string `toml:"timeline_table"`
}

// PromptTemplates are text/template sources rendered with an upper case
// vocabulary such as {{ .WORD_LIMIT }}.
type PromptTemplates struct {
	SegmentsPrompt    string `toml:"segments"`
	DescriptionPrompt string `toml:"description"`
	SummaryPrompt     string `toml:"summary"`
}

// VertexAiLLMModel configures one generative model.
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`
	SystemInstructions string  `toml:"system_instructions"`
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	OutputFormat       string  `toml:"output_format"`
	RateLimit          int     `toml:"rate_limit"` // requests per second
}

// TopicSubscription configures a Pub/Sub pull subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`
	DeadLetterTopic  string `toml:"dead_letter_topic"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// Storage configures the local workspace and the optional buckets.
type Storage struct {
	WorkspaceRoot       string `toml:"workspace_root"`
	InputBucket         string `toml:"input_bucket"`    // watched by the upload trigger
	ArtifactBucket      string `toml:"artifact_bucket"` // empty keeps artifacts local
	ArtifactPrefix      string `toml:"artifact_prefix"`
	GCSFuseMountPoint   string `toml:"gcs_fuse_mount_point"`
	SessionTTLMinutes   int    `toml:"session_ttl_minutes"`
	SweepEveryMinutes   int    `toml:"sweep_every_minutes"`
	SignedURLTTLMinutes int    `toml:"signed_url_ttl_minutes"`
	MaxUploadMB         int64  `toml:"max_upload_mb"`
}

// Media configures the ffmpeg adapter.
type Media struct {
	FFmpegPath     string  `toml:"ffmpeg_path"`
	FFprobePath    string  `toml:"ffprobe_path"`
	AnalysisWidth  int     `toml:"analysis_width"` // 0 sends the original to the model
	SceneThreshold float64 `toml:"scene_threshold"`
	SubtitleStyle  string  `toml:"subtitle_style"`
	BurnSubtitles  bool    `toml:"burn_subtitles"`
}

// Segmentation tunes the normalizer, the combiner and the description length.
type Segmentation struct {
	MaxGapMs       int64 `toml:"max_gap_ms"`
	MinNoTalkingMs int64 `toml:"min_no_talking_ms"`
	MinSceneMs     int64 `toml:"min_scene_ms"`
	WordsPerMinute int   `toml:"words_per_minute"`
	Summarize      bool  `toml:"summarize"`
}

// RetryConfig configures RetryPolicy.
type RetryConfig struct {
	MaxAttempts    int `toml:"max_attempts"`
	InitialDelayMs int `toml:"initial_delay_ms"`
	MaxJitterMs    int `toml:"max_jitter_ms"`
}

// Narration picks the text to speech provider.
type Narration struct {
	Provider          string `toml:"provider"` // "gemini" or "deepgram"
	Voice             string `toml:"voice"`
	DeepgramURL       string `toml:"deepgram_url"`
	DeepgramAPIKeyEnv string `toml:"deepgram_api_key_env"`
}

// Notifications configures the completion topic. Empty disables publishing.
type Notifications struct {
	CompletionTopic string `toml:"completion_topic"`
}

// Telemetry configures logging and the OpenTelemetry exporters.
type Telemetry struct {
	ExportersEnabled bool    `toml:"exporters_enabled"`
	LogFile          string  `toml:"log_file"`
	LogLevel         string  `toml:"log_level"`
	TraceSampleRatio float64 `toml:"trace_sample_ratio"` // 0 samples everything
}

// Config is the root of the TOML configuration.
type Config struct {
	Application struct {
		Name                      string `toml:"name"`
		GoogleProjectId           string `toml:"google_project_id"`
		GoogleLocation            string `toml:"location"`
		ThreadPoolSize            int    `toml:"thread_pool_size"`
		SignerServiceAccountEmail string `toml:"signer_service_account_email"`
		ListenAddress             string `toml:"listen_address"`
		GeminiAPIKeyEnv           string `toml:"gemini_api_key_env"`
		RequestTimeoutMinutes     int    `toml:"request_timeout_minutes"`
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`
	Media              Media                        `toml:"media"`
	Segmentation       Segmentation                 `toml:"segmentation"`
	Retry              RetryConfig                  `toml:"retry"`
	Narration          Narration                    `toml:"narration"`
	Notifications      Notifications                `toml:"notifications"`
	Telemetry          Telemetry                    `toml:"telemetry"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`
}

// NewConfig returns a configuration holding the defaults. LoadConfig
// overlays files on top of it.
func NewConfig() *Config {
	c := &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels: map[string]VertexAiLLMModel{
			AgentVision: {
				Model:       "gemini-2.0-flash",
				Temperature: 0.2,
				TopP:        0.95,
				TopK:        40,
				MaxTokens:   8192,
				RateLimit:   5,
			},
			AgentNarrator: {
				Model:     "gemini-2.5-flash-preview-tts",
				RateLimit: 2,
			},
		},
	}
	c.Application.Name = "audio-describe"
	c.Application.ThreadPoolSize = 4
	c.Application.ListenAddress = ":8080"
	c.Application.GeminiAPIKeyEnv = "GEMINI_API_KEY"
	c.Application.RequestTimeoutMinutes = 30
	c.Storage = Storage{
		WorkspaceRoot:       filepath.Join(os.TempDir(), "audio-describe"),
		SessionTTLMinutes:   720,
		SweepEveryMinutes:   15,
		SignedURLTTLMinutes: 15,
		MaxUploadMB:         1024,
	}
	c.Media = Media{
		FFmpegPath:     "ffmpeg",
		FFprobePath:    "ffprobe",
		SceneThreshold: 0.3,
		SubtitleStyle:  "FontName=Arial,FontSize=24",
		BurnSubtitles:  true,
	}
	c.Segmentation = Segmentation{
		MaxGapMs:       3000,
		MinSceneMs:     3000,
		WordsPerMinute: 170,
		Summarize:      true,
	}
	c.Retry = RetryConfig{MaxAttempts: 5, InitialDelayMs: 1000, MaxJitterMs: 1000}
	c.Narration = Narration{
		Provider:          "gemini",
		Voice:             "Kore",
		DeepgramURL:       "https://api.deepgram.com/v1/speak?model=aura-asteria-en",
		DeepgramAPIKeyEnv: "DEEPGRAM_API_KEY",
	}
	c.Telemetry = Telemetry{LogLevel: "info"}
	c.PromptTemplates = PromptTemplates{
		SegmentsPrompt:    DefaultSegmentsPrompt,
		DescriptionPrompt: DefaultDescriptionPrompt,
		SummaryPrompt:     DefaultSummaryPrompt,
	}
	return c
}

const DefaultSegmentsPrompt = `Analyze the video and split it into segments where someone is speaking (TALKING) and segments with no speech (NO_TALKING).

Rules:
1. Cover the whole video from the first frame to the last without gaps or overlaps.
2. Use the timestamp format HH:MM:SS.SS for start and end.
3. NO_TALKING segments must be at least 3 seconds long; fold anything shorter into the neighbouring TALKING segment.
4. Respond with a JSON array only, no commentary.
5. If there is no speech anywhere, respond with a single NO_TALKING segment covering the whole video.

Example:
{{ .EXAMPLE_JSON }}`

const DefaultDescriptionPrompt = `You are writing audio description for blind and low vision viewers.
Context of the whole video: {{ .SUMMARY }}

Describe what is visually happening in this clip in a single sentence of at most {{ .WORD_LIMIT }} words, so it can be read aloud at 170 words per minute within the clip.
Do not describe sounds or dialogue, do not start with "The video shows", and respond with the sentence only.`

const DefaultSummaryPrompt = `Watch the video and write a summary of about 50 words covering its theme, the key visuals, the tone and the setting. It will be used as context when describing individual clips. Respond with the summary only.`
