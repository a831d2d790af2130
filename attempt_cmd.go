package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SAP-F-2025/pte-scoring-service/internal/client"
	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/timing"
	"github.com/SAP-F-2025/pte-scoring-service/internal/validator"
)

// attemptCmd runs one timed attempt against a running server: it opens a session, waits
// out the preparation window and submits the given response.
func attemptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attempt",
		Short: "Take one timed attempt against a running server",
		RunE:  runAttempt,
	}
	f := cmd.Flags()
	f.String("api", "http://localhost:8080", "Base URL of the scoring API")
	f.String("token", "", "Bearer token (or set PTE_TOKEN)")
	f.String("section", "", "speaking, writing, reading or listening")
	f.String("type", "", "Question type, e.g. read_aloud")
	f.Uint("question", 0, "Question ID")
	f.String("response", "", "User response as JSON, e.g. '{\"selectedOption\":\"B\"}'")
	f.Duration("answer-after", 0, "How long to spend answering before submitting")
	f.Duration("timeout", 30*time.Second, "HTTP timeout")

	_ = cmd.MarkFlagRequired("section")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("question")
	_ = cmd.MarkFlagRequired("response")
	return cmd
}

func runAttempt(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())
	v.SetEnvPrefix("PTE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	section := models.Section(v.GetString("section"))
	qt := models.QuestionType(v.GetString("type"))
	if !section.Supports(qt) {
		return fmt.Errorf("section %q does not accept %q", section, qt)
	}
	raw := json.RawMessage(v.GetString("response"))
	if !json.Valid(raw) {
		return fmt.Errorf("--response is not valid JSON")
	}

	api := client.New(v.GetString("api"), v.GetString("token"), v.GetDuration("timeout"))
	answerAfter := v.GetDuration("answer-after")
	started := time.Now()

	var result *models.AttemptResponse
	ctrl, err := timing.NewAttemptController(timing.ControllerConfig{
		Section:      section,
		QuestionType: qt,
		QuestionID:   uint(v.GetUint("question")),
		StartSession: api.StartSession,
		Submit: func(ctx context.Context, sub timing.Submission) error {
			timeTaken := max(1, int(time.Since(started).Seconds()))
			resp, err := api.ScoreAttempt(ctx, section, &validator.ScoreAttemptRequest{
				QuestionID:   uint(v.GetUint("question")),
				Type:         qt,
				UserResponse: raw,
				TimeTaken:    &timeTaken,
				Timings:      map[string]any{"submitKind": string(sub.Kind), "startAt": sub.Session.StartAt},
				SessionToken: sub.Token,
			})
			if err != nil {
				return err
			}
			result = resp
			return nil
		},
		OnPhaseChange: func(pc timing.PhaseChange) {
			logger.Info("phase", "from", pc.From, "to", pc.To, "kind", pc.Kind, "error", pc.Err)
		},
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := ctrl.Start(ctx); err != nil {
		return err
	}
	if s := ctrl.Session(); s != nil {
		logger.Info("session started", "label", s.Label, "window", timing.Format(s.AnswerMs), "drift_ms", timing.DriftMs(s.ServerNow, time.Now().UnixMilli()))
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		switch ctrl.Phase() {
		case timing.PhaseDone:
			return printJSON(result)
		case timing.PhaseError:
			return ctrl.Err()
		case timing.PhaseAnswering:
			if time.Now().UnixMilli()-ctrl.Times().AnswerStartAt >= answerAfter.Milliseconds() {
				if err := ctrl.Submit(ctx); err != nil {
					return err
				}
				continue
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := ctrl.Tick(ctx); err != nil {
				return err
			}
		}
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
