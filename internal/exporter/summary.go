package exporter

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/scribe/internal/utalk"
)

// Conversation outcomes.
const (
	StatusProcessed    = "processed"
	StatusSkipped      = "skipped"
	StatusUploadFailed = "upload_failed"
)

// Result is the outcome of one conversation.
type Result struct {
	ConversationID string
	ContactName    string
	Messages       int
	FilePath       string
	DriveFileID    string
	Status         string
	Err            error
}

// Summary aggregates a run. Processed counts every conversation whose
// transcript was written, including those whose upload failed; UploadFailed
// counts the latter separately.
type Summary struct {
	RunID        uuid.UUID
	Window       utalk.Window
	Found        int
	Processed    int
	Skipped      int
	UploadFailed int
	Results      []Result
	Duration     time.Duration
}

func (s *Summary) add(res Result) {
	s.Results = append(s.Results, res)
	switch res.Status {
	case StatusProcessed:
		s.Processed++
	case StatusUploadFailed:
		s.Processed++
		s.UploadFailed++
	case StatusSkipped:
		s.Skipped++
	}
}

// FormatSummary renders the summary as Slack-flavoured text.
func FormatSummary(s *Summary) string {
	var sb strings.Builder
	sb.WriteString("*Transcript export*\n")
	fmt.Fprintf(&sb, "Window: %s to %s\n", s.Window.Start, s.Window.End)
	fmt.Fprintf(&sb, "Run: %s\n", s.RunID)
	fmt.Fprintf(&sb, "Conversations found: %d\n", s.Found)
	fmt.Fprintf(&sb, "Processed: %d\n", s.Processed)
	fmt.Fprintf(&sb, "Skipped: %d\n", s.Skipped)
	fmt.Fprintf(&sb, "Upload failed: %d\n", s.UploadFailed)

	var problems []Result
	for _, r := range s.Results {
		if r.Status != StatusProcessed {
			problems = append(problems, r)
		}
	}
	if len(problems) > 0 {
		sb.WriteString("\n*Problems*\n")
		for _, r := range problems {
			fmt.Fprintf(&sb, "  - %s (%s) [%s]", r.ContactName, r.ConversationID, r.Status)
			if r.Err != nil {
				fmt.Fprintf(&sb, ": %v", r.Err)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
