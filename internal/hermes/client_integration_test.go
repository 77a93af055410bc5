//go:build integration

package hermes

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

func skipWithoutNATS(t *testing.T) string {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping integration test")
	}
	return url
}

func TestIntegration_PublishExported(t *testing.T) {
	natsURL := skipWithoutNATS(t)
	ctx := context.Background()

	sub, err := nats.Connect(natsURL, nats.Token(os.Getenv("NATS_TOKEN")))
	if err != nil {
		t.Fatalf("subscriber connect: %v", err)
	}
	defer sub.Close()

	received := make(chan TranscriptExported, 1)
	if _, err := sub.Subscribe(SubjectTranscriptExported, func(msg *nats.Msg) {
		var evt TranscriptExported
		json.Unmarshal(msg.Data, &evt)
		received <- evt
	}); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	sub.Flush()

	client, err := NewClient(ctx, natsURL, os.Getenv("NATS_TOKEN"), slog.Default())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	err = client.Publish(SubjectTranscriptExported, TranscriptExported{
		RunID:          "integration",
		ConversationID: "c1",
		Status:         "processed",
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	client.Close()

	select {
	case evt := <-received:
		if evt.ConversationID != "c1" {
			t.Errorf("expected conversation c1, got %+v", evt)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}
