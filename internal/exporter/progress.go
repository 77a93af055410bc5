package exporter

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/scribe/internal/utalk"
)

// Snapshot is a point-in-time copy of a run's progress.
type Snapshot struct {
	RunID        string    `json:"run_id"`
	WindowStart  string    `json:"window_start"`
	WindowEnd    string    `json:"window_end"`
	StartedAt    time.Time `json:"started_at"`
	Found        int       `json:"found"`
	Processed    int       `json:"processed"`
	Skipped      int       `json:"skipped"`
	UploadFailed int       `json:"upload_failed"`
	Current      string    `json:"current,omitempty"`
	Done         bool      `json:"done"`
}

// Progress is updated by the runner and read by the status server.
type Progress struct {
	mu   sync.Mutex
	snap Snapshot
}

func newProgress(runID uuid.UUID, window utalk.Window, started time.Time) *Progress {
	return &Progress{snap: Snapshot{
		RunID:       runID.String(),
		WindowStart: window.Start,
		WindowEnd:   window.End,
		StartedAt:   started.UTC(),
	}}
}

func (p *Progress) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

func (p *Progress) setFound(n int) {
	p.mu.Lock()
	p.snap.Found = n
	p.mu.Unlock()
}

func (p *Progress) setCurrent(id string) {
	p.mu.Lock()
	p.snap.Current = id
	p.mu.Unlock()
}

func (p *Progress) add(res Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch res.Status {
	case StatusProcessed:
		p.snap.Processed++
	case StatusUploadFailed:
		p.snap.Processed++
		p.snap.UploadFailed++
	case StatusSkipped:
		p.snap.Skipped++
	}
}

func (p *Progress) finish() {
	p.mu.Lock()
	p.snap.Current = ""
	p.snap.Done = true
	p.mu.Unlock()
}
