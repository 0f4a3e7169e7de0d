package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dubforge/internal/api"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var sourceLang string
	var targetLang string
	var voiceMode string
	var qualityTier string
	var syncThreshold float64

	cmd := &cobra.Command{
		Use:   "submit <media-file>",
		Short: "Submit a media file for dubbing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := submitFile(ctx, args[0], map[string]string{
				"source_lang":    sourceLang,
				"target_lang":    targetLang,
				"voice_mode":     voiceMode,
				"quality_tier":   qualityTier,
				"sync_threshold": strconv.FormatFloat(syncThreshold, 'f', -1, 64),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted job %s (%s)\n", resp.ID, resp.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceLang, "source-lang", "auto", "Source language code or auto")
	cmd.Flags().StringVar(&targetLang, "target-lang", "", "Target language code")
	cmd.Flags().StringVar(&voiceMode, "voice-mode", "plain", "Voice mode: clone or plain")
	cmd.Flags().StringVar(&qualityTier, "quality", "balanced", "Quality tier: balanced or ultra")
	cmd.Flags().Float64Var(&syncThreshold, "sync-threshold", 0, "Requested sync-confidence threshold")
	_ = cmd.MarkFlagRequired("target-lang")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show one job's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var view api.JobView
			if err := getJSON(ctx, "/api/jobs/"+args[0], &view); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job:      %s\n", view.ID)
			fmt.Fprintf(out, "File:     %s\n", view.Filename)
			fmt.Fprintf(out, "Status:   %s\n", view.Status)
			fmt.Fprintf(out, "Stage:    %s\n", view.Progress.Stage)
			fmt.Fprintf(out, "Progress: %d%%\n", view.Progress.Percent)
			fmt.Fprintf(out, "Message:  %s\n", view.Progress.Message)
			if view.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:    %s\n", view.ErrorMessage)
			}
			if len(view.Degraded) > 0 {
				fmt.Fprintf(out, "Degraded: %s\n", strings.Join(view.Degraded, ", "))
			}
			for kind, ref := range view.Outputs {
				fmt.Fprintf(out, "Output:   %s -> %s\n", kind, ref)
			}
			return nil
		},
	}
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List dubbing jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/jobs"
			if trimmed := strings.TrimSpace(statusFilter); trimmed != "" {
				path += "?status=" + trimmed
			}
			var listed api.JobListResponse
			if err := getJSON(ctx, path, &listed); err != nil {
				return err
			}
			if listed.Total == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs.")
				return nil
			}
			rows := make([][]string, 0, len(listed.Jobs))
			for _, view := range listed.Jobs {
				rows = append(rows, []string{
					view.ID,
					view.Filename,
					view.Status,
					view.Progress.Stage,
					fmt.Sprintf("%d%%", view.Progress.Percent),
					view.TargetLang,
				})
			}
			headers := []string{"ID", "File", "Status", "Stage", "Progress", "Target"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status (queued, running, done, error)")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <job-id>",
		Short: "Delete a job and its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodDelete, ctx.apiBaseURL()+"/api/jobs/"+args[0], nil)
			if err != nil {
				return err
			}
			resp, err := ctx.httpClient().Do(req)
			if err != nil {
				return fmt.Errorf("contact daemon: %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %s\n", args[0])
			return nil
		},
	}
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show daemon health and dependency readiness",
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload api.HealthResponse
			if err := getJSON(ctx, "/api/health", &payload); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Status: %s (%d jobs)\n", payload.Status, payload.JobCount)
			if len(payload.Dependencies) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(payload.Dependencies))
			for _, dep := range payload.Dependencies {
				state := "ok"
				if !dep.Available {
					state = "missing"
					if dep.Optional {
						state = "optional"
					}
				}
				rows = append(rows, []string{dep.Name, state, dep.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Dependency", "State", "Detail"}, rows, nil))
			return nil
		},
	}
}

func submitFile(ctx *commandContext, path string, fields map[string]string) (*api.SubmitResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open media file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read media file: %w", err)
	}
	for key, value := range fields {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if err := writer.WriteField(key, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	resp, err := ctx.httpClient().Post(ctx.apiBaseURL()+"/api/jobs", writer.FormDataContentType(), &body)
	if err != nil {
		return nil, fmt.Errorf("contact daemon: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return nil, apiError(resp)
	}
	var submitted api.SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &submitted, nil
}

func getJSON(ctx *commandContext, path string, target any) error {
	resp, err := ctx.httpClient().Get(ctx.apiBaseURL() + path)
	if err != nil {
		return fmt.Errorf("contact daemon: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

func apiError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("daemon: %s", payload.Error)
	}
	return fmt.Errorf("daemon returned status %d", resp.StatusCode)
}
