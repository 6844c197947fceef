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

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-audio-describe/internal/core/commands"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/timeline"
	"github.com/jaycherian/gcp-go-audio-describe/internal/core/workflow"
)

func newProcessCommand(load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <video>",
		Short: "Describe a local video and write the response document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, _ := cmd.Flags().GetString("mode")
			out, _ := cmd.Flags().GetString("out")
			return withDependencies(cmd, load, func(ctx context.Context, deps *workflow.Dependencies) error {
				resp, err := process(ctx, deps, args[0], mode, progressPrinter(cmd.ErrOrStderr()))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "session %s\n", resp.SessionID)
				return writeJSON(cmd.OutOrStdout(), out, resp)
			})
		},
	}
	cmd.Flags().String("mode", string(model.ModeSegments), "Segmentation mode: segments or scenes")
	cmd.Flags().String("out", "", "Write the response here instead of stdout")
	return cmd
}

func newEncodeCommand(load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode <session> <response.json>",
		Short: "Render the described video of a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			return withDependencies(cmd, load, func(ctx context.Context, deps *workflow.Dependencies) error {
				resp, err := readResponse(args[1])
				if err != nil {
					return err
				}
				path, err := encode(ctx, deps, args[0], resp)
				if err != nil {
					return err
				}
				if out != "" {
					if err := copyFile(path, out); err != nil {
						return err
					}
					path = out
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}
	cmd.Flags().String("out", "", "Copy the processed video here")
	return cmd
}

func newReanalyzeCommand(load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reanalyze <session> <response.json>",
		Short: "Re-describe a session after its timestamps were edited",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spans, _ := cmd.Flags().GetString("timestamps")
			out, _ := cmd.Flags().GetString("out")
			return withDependencies(cmd, load, func(ctx context.Context, deps *workflow.Dependencies) error {
				resp, err := readResponse(args[1])
				if err != nil {
					return err
				}
				requested, err := model.ParseSpanList(spans)
				if err != nil {
					return err
				}
				result, err := reanalyze(ctx, deps, args[0], resp, requested, progressPrinter(cmd.ErrOrStderr()))
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), out, result)
			})
		},
	}
	cmd.Flags().String("timestamps", "", "New segments in milliseconds, e.g. 0-4000,4000-9000")
	cmd.Flags().String("out", "", "Write the segments here instead of stdout")
	_ = cmd.MarkFlagRequired("timestamps")
	return cmd
}

func withDependencies(cmd *cobra.Command, load Loader, fn func(ctx context.Context, deps *workflow.Dependencies) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Hour)
	defer cancel()
	deps, release, err := load(ctx, cmd)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, deps)
}

func progressPrinter(w io.Writer) cor.ProgressListener {
	return func(e cor.ProgressEvent) {
		if e.Message != "" {
			fmt.Fprintf(w, "[%d/%d] %s: %s\n", e.Completed, e.Total, e.Stage, e.Message)
			return
		}
		fmt.Fprintf(w, "[%d/%d] %s\n", e.Completed, e.Total, e.Stage)
	}
}

// process copies the video into a new session and describes it.
func process(ctx context.Context, deps *workflow.Dependencies, video string, mode string, listener cor.ProgressListener) (*model.Response, error) {
	describeMode, err := model.ParseDescribeMode(mode)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(video)
	if err != nil {
		return nil, model.NotFound("process", "%v", err)
	}
	defer f.Close()

	session, err := deps.Workspace.Create()
	if err != nil {
		return nil, err
	}
	source, err := session.ImportVideo(f, filepath.Base(video))
	if err != nil {
		return nil, err
	}

	chainCtx := workflow.NewContext(ctx, listener)
	defer chainCtx.Close()
	chainCtx.Add(commands.ParamSession, session)
	chainCtx.Add(commands.ParamVideoName, filepath.Base(source))
	chainCtx.Add(commands.ParamSourcePath, source)

	out, err := workflow.Run(chainCtx, workflow.NewMediaReaderWorkflow(deps, describeMode), commands.ParamResponse)
	if err != nil {
		return nil, err
	}
	return out.(*model.Response), nil
}

// encode renders a response document of an existing session.
func encode(ctx context.Context, deps *workflow.Dependencies, sessionID string, resp *model.Response) (string, error) {
	session, err := deps.Workspace.Open(sessionID)
	if err != nil {
		return "", err
	}
	chainCtx := workflow.NewContext(ctx, nil)
	defer chainCtx.Close()
	chainCtx.Add(commands.ParamSession, session)
	chainCtx.Add(commands.ParamEncode, &model.EncodeRequest{
		SessionID:     session.ID,
		VideoFileName: resp.VideoName,
		Descriptions:  resp.Descriptions,
		Timestamps:    resp.Timestamps,
		AudioFiles:    resp.AudioFiles,
	})

	out, err := workflow.Run(chainCtx, workflow.NewMediaEncodeWorkflow(deps), commands.ParamOutput)
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// reanalyze merges requested spans into the timeline of a response document.
func reanalyze(ctx context.Context, deps *workflow.Dependencies, sessionID string, resp *model.Response,
	requested model.SpanList, listener cor.ProgressListener) (*model.ReanalyzeResponse, error) {
	session, err := deps.Workspace.Open(sessionID)
	if err != nil {
		return nil, err
	}
	chainCtx := workflow.NewContext(ctx, listener)
	defer chainCtx.Close()
	chainCtx.Add(commands.ParamSession, session)
	chainCtx.Add(commands.ParamReanalyze, &model.ReanalyzeRequest{
		VideoName:     resp.VideoName,
		OldData:       responseViews(resp),
		NewTimestamps: requested,
		Summary:       resp.Summary,
	})

	out, err := workflow.Run(chainCtx, workflow.NewMediaReanalyzeWorkflow(deps), commands.ParamReconciled)
	if err != nil {
		return nil, err
	}
	result := out.(*timeline.ReconcileResult)
	waveform, _ := chainCtx.Get(commands.ParamWaveform).(string)
	return &model.ReanalyzeResponse{
		Message:       model.MessageReanalyzed,
		SessionID:     session.ID,
		Segments:      timeline.FormatSegments(result.Segments),
		Changed:       result.Changed,
		WaveformImage: waveform,
	}, nil
}

// responseViews turns the parallel arrays of a response back into one view
// per segment. Scene files are only listed for described segments, so they
// are matched up in order.
func responseViews(resp *model.Response) []model.SegmentView {
	views := make([]model.SegmentView, 0, len(resp.Timestamps))
	scene := 0
	for i, ts := range resp.Timestamps {
		v := model.SegmentView{Start: ts[0], End: ts[1]}
		if i < len(resp.Descriptions) {
			v.Description = resp.Descriptions[i]
		}
		if i < len(resp.AudioFiles) {
			v.AudioFile = resp.AudioFiles[i]
		}
		switch v.Description {
		case model.TalkingSentinel, model.NoTalkingSentinel, "":
		default:
			if scene < len(resp.SceneFiles) {
				v.SceneFile = resp.SceneFiles[scene]
				scene++
			}
		}
		views = append(views, v)
	}
	return views
}

func readResponse(path string) (*model.Response, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	resp := &model.Response{}
	if err := json.Unmarshal(raw, resp); err != nil {
		return nil, model.Invalid("cli", "%s is not a response document: %v", path, err)
	}
	return resp, nil
}

func writeJSON(stdout io.Writer, path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	raw = append(raw, '\n')
	if path == "" {
		_, err = stdout.Write(raw)
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func copyFile(from string, to string) error {
	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(to)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
