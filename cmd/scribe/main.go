package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/scribe/internal/api"
	"github.com/MikeSquared-Agency/scribe/internal/config"
	"github.com/MikeSquared-Agency/scribe/internal/drive"
	"github.com/MikeSquared-Agency/scribe/internal/exporter"
	"github.com/MikeSquared-Agency/scribe/internal/hermes"
	"github.com/MikeSquared-Agency/scribe/internal/members"
	"github.com/MikeSquared-Agency/scribe/internal/sink"
	"github.com/MikeSquared-Agency/scribe/internal/slack"
	"github.com/MikeSquared-Agency/scribe/internal/store"
	"github.com/MikeSquared-Agency/scribe/internal/utalk"
)

const dateLayout = "2006-01-02"

type flags struct {
	date       string
	envFile    string
	logLevel   string
	skipUpload bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "scribe",
		Short:         "Export closed uTalk conversations as transcripts and upload them to Google Drive",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd.Context(), f)
			if err != nil {
				slog.Error("scribe failed", "error", err)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&f.date, "date", "", "day to export, YYYY-MM-DD (default today, UTC)")
	cmd.Flags().StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	cmd.Flags().BoolVar(&f.skipUpload, "skip-upload", false, "save transcripts locally without uploading")
	return cmd
}

func run(parent context.Context, f flags) error {
	if parent == nil {
		parent = context.Background()
	}
	if err := config.LoadEnvFile(f.envFile); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	cfg := config.Load()
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	setupLogging(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	day, err := parseDay(f.date, time.Now())
	if err != nil {
		return err
	}
	window := utalk.DayWindow(day, cfg.CutoffHour)

	slog.Info("scribe starting", "date", day.Format(dateLayout), "output_dir", cfg.OutputDir)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir, err := members.Load(cfg.MembersFile)
	if err != nil {
		slog.Warn("member directory unavailable, member messages will show as unknown user",
			"path", cfg.MembersFile, "error", err)
	} else {
		slog.Info("member directory loaded", "path", cfg.MembersFile, "members", dir.Len())
	}

	chats := utalk.NewClient(cfg.APIURL, cfg.APIToken, cfg.PageSize, cfg.HTTPTimeout, slog.Default())

	var opts []exporter.Option

	// Drive. Without an uploader the runner warns and saves locally only.
	if !f.skipUpload && cfg.DriveFolderID != "" {
		uploader, err := drive.NewFromCredentialsFile(ctx, cfg.CredentialsFile, slog.Default())
		if err != nil {
			return fmt.Errorf("drive setup (%s): %w", cfg.CredentialsFile, err)
		}
		opts = append(opts, exporter.WithUploader(uploader))
		slog.Info("drive uploader ready", "folder_id", cfg.DriveFolderID)
	}

	// Export ledger (optional)
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Warn("failed to connect to database, ledger disabled", "error", err)
		} else {
			defer db.Close()
			if err := db.EnsureSchema(ctx); err != nil {
				slog.Warn("failed to ensure ledger schema, ledger disabled", "error", err)
			} else {
				opts = append(opts, exporter.WithLedger(db))
				slog.Info("database connected")
			}
		}
	}

	// NATS/Hermes (optional)
	if cfg.NatsURL != "" {
		hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Warn("failed to connect to NATS, events disabled", "error", err)
		} else {
			defer hermesClient.Close()
			opts = append(opts, exporter.WithEvents(hermesClient))
			slog.Info("NATS connected", "url", cfg.NatsURL)
		}
	}

	// Slack poster (optional)
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		opts = append(opts, exporter.WithNotifier(slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default())))
		slog.Info("slack poster ready", "channel", cfg.SlackChannel)
	}

	runner := exporter.NewRunner(exporter.Config{
		OrganizationID: cfg.OrganizationID,
		Window:         window,
		MessageTake:    cfg.MessageTake,
		DriveFolderID:  cfg.DriveFolderID,
		UploadRetries:  cfg.UploadRetries,
	}, chats, dir, sink.NewLocal(cfg.OutputDir), slog.Default(), opts...)

	// Status server (optional)
	if cfg.StatusPort > 0 {
		srv := api.NewServer(cfg.StatusPort, runner.Progress())
		go func() {
			if err := srv.Start(); err != nil {
				slog.Error("status server error", "error", err)
			}
		}()
	}

	sum, err := runner.Run(ctx)
	if sum != nil {
		fmt.Print(exporter.FormatSummary(sum))
	}
	return err
}

// parseDay returns the UTC day named by s, or the current UTC day when s is
// empty.
func parseDay(s string, now time.Time) (time.Time, error) {
	if s == "" {
		now = now.UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q, want YYYY-MM-DD: %w", s, err)
	}
	return day, nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
