package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"vodflow/internal/blobupload"
	"vodflow/internal/ident"
	"vodflow/internal/logging"
	"vodflow/internal/mediaservice"
	"vodflow/internal/pipeline"
	"vodflow/internal/runstore"
)

func newTranscodeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcode <file>",
		Short: "Upload a media file and transcode it for streaming",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscode(cmd, ctx, args[0])
		},
	}
	return cmd
}

func runTranscode(cmd *cobra.Command, ctx *commandContext, source string) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sourcePath, err := filepath.Abs(source)
	if err != nil {
		return fmt.Errorf("resolve source path: %w", err)
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return fmt.Errorf("source file: %w", err)
	}

	// Logs go to stderr so stdout stays a clean channel for the URLs.
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.StateDir, "vodflow.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire transcode lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another vodflow transcode is already running")
	}
	defer func() {
		_ = lock.Unlock()
	}()

	store, err := runstore.Open(cfg.Paths.StateDir)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer store.Close()

	title := ident.DisplayTitle(sourcePath)
	run, err := store.CreateRun(signalCtx, sourcePath, title)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	runLogger := logger.With(logging.String(logging.FieldRunID, run.ID))

	client := mediaservice.New(mediaservice.Options{
		Endpoint:              cfg.Service.APIEndpoint,
		TokenEndpoint:         cfg.Service.TokenEndpoint,
		ClientID:              cfg.Service.ClientID,
		ClientSecret:          cfg.Service.ClientSecret,
		Logger:                runLogger,
		PolicyDurationMinutes: cfg.Policies.DurationMinutes,
		LocatorNamePrefix:     cfg.Locators.NamePrefix,
		PollInterval:          time.Duration(cfg.Job.PollIntervalSeconds) * time.Second,
		JobMaxWait:            time.Duration(cfg.Job.MaxWaitMinutes) * time.Minute,
	})
	uploader := blobupload.New(blobupload.Options{
		Logger:      runLogger,
		Concurrency: cfg.Upload.Concurrency,
	})
	orch, err := pipeline.New(pipeline.Options{
		Service:          client,
		Uploader:         uploader,
		Logger:           runLogger,
		UploadPolicyName: cfg.Policies.UploadPolicyName,
		ReadPolicyName:   cfg.Policies.ReadPolicyName,
		AssetNamePrefix:  cfg.Assets.NamePrefix,
		ProcessorID:      cfg.Service.ProcessorID,
		ProcessorName:    cfg.Service.ProcessorName,
	})
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	result, runErr := orch.Run(signalCtx, sourcePath)

	run.AssetID = result.AssetID
	run.AssetName = result.AssetName
	run.JobID = result.JobID
	run.OutputAssetID = result.OutputAssetID
	run.StreamingPath = result.StreamingPath
	if runErr != nil {
		run.Status = runstore.StatusFailed
		run.ErrorMessage = runErr.Error()
	} else {
		run.Status = runstore.StatusCompleted
	}
	// Persist the outcome even when the run was interrupted.
	if err := store.UpdateRun(context.WithoutCancel(signalCtx), run); err != nil {
		runLogger.Error("persist run outcome", logging.Error(err))
	}

	if runErr != nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Transcoded %s\n", title)
	fmt.Fprintf(out, "Streaming URL: %s\n", result.StreamingPath)
	fmt.Fprintf(out, "DASH manifest: %s\n", result.ManifestURL())
	return nil
}
