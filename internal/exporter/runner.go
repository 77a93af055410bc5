// Package exporter runs one transcript export: list the closed
// conversations of a window, then fetch, render, save and upload each one in
// turn.
package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/scribe/internal/hermes"
	"github.com/MikeSquared-Agency/scribe/internal/store"
	"github.com/MikeSquared-Agency/scribe/internal/transcript"
	"github.com/MikeSquared-Agency/scribe/internal/utalk"
)

// ChatSource supplies conversations and their messages.
type ChatSource interface {
	ListClosedConversations(ctx context.Context, window utalk.Window, organizationID string) ([]transcript.Conversation, error)
	FetchMessages(ctx context.Context, conversationID, organizationID string, asOf time.Time, maxCount int) ([]transcript.Message, error)
}

// Sink persists a rendered transcript and returns where it was written.
type Sink interface {
	Write(t *transcript.Transcript) (string, error)
}

// Uploader sends a local file to a remote folder and returns the remote id.
type Uploader interface {
	Upload(ctx context.Context, localPath, folderID string) (string, error)
}

// Ledger records conversation outcomes.
type Ledger interface {
	RecordExport(ctx context.Context, rec store.ExportRecord) (uuid.UUID, error)
}

// Publisher emits export events.
type Publisher interface {
	Publish(subject string, data any) error
}

// Notifier receives the final run summary.
type Notifier interface {
	PostMessage(ctx context.Context, text string) error
}

// Config holds the parameters of one run.
type Config struct {
	OrganizationID string
	Window         utalk.Window
	MessageTake    int
	DriveFolderID  string
	UploadRetries  int // extra attempts after the first failed upload
}

// Runner orchestrates the export.
type Runner struct {
	cfg      Config
	source   ChatSource
	dir      transcript.Directory
	sink     Sink
	uploader Uploader
	ledger   Ledger
	events   Publisher
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
	runID    uuid.UUID
	progress *Progress
}

type Option func(*Runner)

// WithUploader enables uploads. Without it, or without a folder id,
// transcripts are only written locally.
func WithUploader(u Uploader) Option { return func(r *Runner) { r.uploader = u } }

func WithLedger(l Ledger) Option { return func(r *Runner) { r.ledger = l } }

func WithEvents(p Publisher) Option { return func(r *Runner) { r.events = p } }

func WithNotifier(n Notifier) Option { return func(r *Runner) { r.notifier = n } }

// WithClock replaces time.Now, which anchors the message fetch.
func WithClock(now func() time.Time) Option { return func(r *Runner) { r.now = now } }

func WithRunID(id uuid.UUID) Option { return func(r *Runner) { r.runID = id } }

// NewRunner creates an export runner.
func NewRunner(cfg Config, src ChatSource, dir transcript.Directory, sink Sink, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		source: src,
		dir:    dir,
		sink:   sink,
		logger: logger,
		now:    time.Now,
		runID:  uuid.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.progress = newProgress(r.runID, cfg.Window, r.now())
	return r
}

// RunID identifies this run in logs, ledger rows and events.
func (r *Runner) RunID() uuid.UUID { return r.runID }

// Progress exposes live counters, safe to read from other goroutines.
func (r *Runner) Progress() *Progress { return r.progress }

func (r *Runner) uploadEnabled() bool {
	return r.uploader != nil && r.cfg.DriveFolderID != ""
}

// Run executes the export. It returns an error only when the conversation
// listing fails or ctx is cancelled; per-conversation failures are counted
// in the summary.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	started := r.now()
	sum := &Summary{RunID: r.runID, Window: r.cfg.Window}
	defer r.progress.finish()

	r.logger.Info("fetching closed conversations",
		"run_id", r.runID,
		"window_start", r.cfg.Window.Start,
		"window_end", r.cfg.Window.End,
	)

	convs, err := r.source.ListClosedConversations(ctx, r.cfg.Window, r.cfg.OrganizationID)
	if err != nil {
		r.logger.Error("failed to list closed conversations", "run_id", r.runID, "error", err)
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	sum.Found = len(convs)
	r.progress.setFound(len(convs))
	r.logger.Info("closed conversations found", "run_id", r.runID, "count", len(convs))

	if !r.uploadEnabled() {
		r.logger.Warn("drive upload disabled, transcripts will only be saved locally")
	}

	for _, conv := range convs {
		select {
		case <-ctx.Done():
			r.logger.Info("export interrupted", "run_id", r.runID, "remaining", sum.Found-len(sum.Results))
			sum.Duration = r.now().Sub(started)
			return sum, ctx.Err()
		default:
		}

		r.progress.setCurrent(conv.ID)
		res := r.exportConversation(ctx, conv)
		sum.add(res)
		r.progress.add(res)
		r.record(ctx, res)
	}

	sum.Duration = r.now().Sub(started)

	r.logger.Info("export complete",
		"run_id", r.runID,
		"found", sum.Found,
		"processed", sum.Processed,
		"skipped", sum.Skipped,
		"upload_failed", sum.UploadFailed,
		"duration", sum.Duration.String(),
	)

	r.announce(ctx, sum)
	return sum, nil
}

func (r *Runner) exportConversation(ctx context.Context, conv transcript.Conversation) Result {
	res := Result{ConversationID: conv.ID, ContactName: conv.ContactName}
	log := r.logger.With("conversation_id", conv.ID, "contact", conv.ContactName)

	log.Info("fetching messages", "created_at", conv.CreatedAt, "closed_at", conv.ClosedAt)

	msgs, err := r.source.FetchMessages(ctx, conv.ID, r.cfg.OrganizationID, r.now(), r.cfg.MessageTake)
	if err != nil {
		log.Warn("failed to fetch messages, skipping conversation", "error", err)
		res.Status = StatusSkipped
		res.Err = err
		return res
	}
	res.Messages = len(msgs)
	log.Info("messages found", "count", len(msgs))

	t := transcript.Render(conv, msgs, r.dir)
	for _, line := range t.Lines {
		log.Debug("line rendered", "line", line)
	}

	path, err := r.sink.Write(t)
	if err != nil {
		log.Error("failed to save transcript, skipping conversation", "error", err)
		res.Status = StatusSkipped
		res.Err = err
		return res
	}
	res.FilePath = path
	log.Info("transcript saved", "path", path)

	if !r.uploadEnabled() {
		res.Status = StatusProcessed
		return res
	}

	fileID, err := r.upload(ctx, path)
	if err != nil {
		log.Error("failed to upload transcript, local file kept", "path", path, "error", err)
		res.Status = StatusUploadFailed
		res.Err = err
		return res
	}
	res.DriveFileID = fileID
	res.Status = StatusProcessed
	log.Info("transcript uploaded", "path", path, "file_id", fileID)
	return res
}

// upload makes 1+UploadRetries attempts, back to back.
func (r *Runner) upload(ctx context.Context, path string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.cfg.UploadRetries; attempt++ {
		if attempt > 0 {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			r.logger.Info("retrying upload", "path", path, "attempt", attempt+1)
		}
		id, err := r.uploader.Upload(ctx, path, r.cfg.DriveFolderID)
		if err == nil {
			return id, nil
		}
		lastErr = err
	}
	return "", lastErr
}

// record writes the outcome to the ledger and the event stream. Failures
// there never change the outcome.
func (r *Runner) record(ctx context.Context, res Result) {
	errText := ""
	if res.Err != nil {
		errText = res.Err.Error()
	}
	at := r.now().UTC()

	if r.ledger != nil {
		_, err := r.ledger.RecordExport(ctx, store.ExportRecord{
			RunID:          r.runID,
			ConversationID: res.ConversationID,
			ContactName:    res.ContactName,
			FilePath:       res.FilePath,
			DriveFileID:    res.DriveFileID,
			Status:         res.Status,
			Error:          errText,
			ExportedAt:     at,
		})
		if err != nil {
			r.logger.Warn("failed to record export", "conversation_id", res.ConversationID, "error", err)
		}
	}

	if r.events != nil {
		err := r.events.Publish(hermes.SubjectTranscriptExported, hermes.TranscriptExported{
			RunID:          r.runID.String(),
			ConversationID: res.ConversationID,
			ContactName:    res.ContactName,
			FilePath:       res.FilePath,
			DriveFileID:    res.DriveFileID,
			Status:         res.Status,
			Error:          errText,
			Timestamp:      at.Format(time.RFC3339),
		})
		if err != nil {
			r.logger.Warn("failed to publish export event", "conversation_id", res.ConversationID, "error", err)
		}
	}
}

// announce publishes the completion event and posts the summary.
func (r *Runner) announce(ctx context.Context, sum *Summary) {
	if r.events != nil {
		err := r.events.Publish(hermes.SubjectRunCompleted, hermes.RunCompleted{
			RunID:        r.runID.String(),
			WindowStart:  sum.Window.Start,
			WindowEnd:    sum.Window.End,
			Found:        sum.Found,
			Processed:    sum.Processed,
			Skipped:      sum.Skipped,
			UploadFailed: sum.UploadFailed,
			Timestamp:    r.now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			r.logger.Warn("failed to publish run event", "error", err)
		}
	}

	if r.notifier == nil {
		return
	}
	if err := r.notifier.PostMessage(ctx, FormatSummary(sum)); err != nil {
		r.logger.Warn("failed to post run summary", "error", err)
	}
}
