package usecase

import (
	"sync"
	"time"

	"SynthForge/internal/domain"
)

// progressTracker accumulates per-batch counters and outcome records. One
// tracker belongs to one batch run; increments are serialized because
// question workers run concurrently.
type progressTracker struct {
	mu      sync.Mutex
	summary domain.ProgressSummary
	now     func() time.Time
}

func newProgressTracker(batchID string, total int) *progressTracker {
	return &progressTracker{
		summary: domain.ProgressSummary{BatchID: batchID, Total: total},
		now:     time.Now,
	}
}

func (p *progressTracker) setTotal(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summary.Total = n
}

func (p *progressTracker) added(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summary.Stages.Added += n
}

func (p *progressTracker) researched() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summary.Stages.Researched++
}

func (p *progressTracker) generated() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summary.Stages.Generated++
}

func (p *progressTracker) reviewed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summary.Stages.Reviewed++
}

func (p *progressTracker) outcome(id int64, status domain.Status, score float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if status == domain.StatusApproved {
		p.summary.Stages.Approved++
	}
	p.summary.Outcomes = append(p.summary.Outcomes, domain.Outcome{
		QuestionID:   id,
		FinalStatus:  status,
		QualityScore: score,
	})
}

func (p *progressTracker) failed(id int64, stage string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summary.Stages.Failed++
	p.summary.Errors = append(p.summary.Errors, domain.ErrorEntry{
		QuestionID: id,
		Stage:      stage,
		Message:    err.Error(),
		Timestamp:  p.now().UTC(),
	})
}

// errorEntry records a non-terminal note (e.g. a rejected example) without
// bumping the failed counter.
func (p *progressTracker) note(id int64, stage, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summary.Errors = append(p.summary.Errors, domain.ErrorEntry{
		QuestionID: id,
		Stage:      stage,
		Message:    message,
		Timestamp:  p.now().UTC(),
	})
}

func (p *progressTracker) snapshot() domain.ProgressSummary {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := p.summary
	out.Outcomes = append([]domain.Outcome(nil), p.summary.Outcomes...)
	out.Errors = append([]domain.ErrorEntry(nil), p.summary.Errors...)
	return out
}
