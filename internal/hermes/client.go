package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// SubjectTranscriptExported carries one TranscriptExported per conversation.
	SubjectTranscriptExported = "scribe.transcript.exported"
	// SubjectRunCompleted carries the RunCompleted summary at the end of a run.
	SubjectRunCompleted = "scribe.run.completed"
)

// TranscriptExported reports the outcome of one conversation.
type TranscriptExported struct {
	RunID          string `json:"run_id"`
	ConversationID string `json:"conversation_id"`
	ContactName    string `json:"contact_name"`
	FilePath       string `json:"file_path,omitempty"`
	DriveFileID    string `json:"drive_file_id,omitempty"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// RunCompleted summarises a finished run.
type RunCompleted struct {
	RunID        string `json:"run_id"`
	WindowStart  string `json:"window_start"`
	WindowEnd    string `json:"window_end"`
	Found        int    `json:"found"`
	Processed    int    `json:"processed"`
	Skipped      int    `json:"skipped"`
	UploadFailed int    `json:"upload_failed"`
	Timestamp    string `json:"timestamp"`
}

type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("scribe"),
		nats.Timeout(5 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

// Close flushes pending publishes, then closes the connection.
func (c *Client) Close() {
	if err := c.conn.Flush(); err != nil {
		c.logger.Warn("nats flush failed", "error", err)
	}
	c.conn.Close()
}
