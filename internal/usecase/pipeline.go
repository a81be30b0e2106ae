package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"SynthForge/internal/domain"
	"SynthForge/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Questions ports.QuestionStore
	Examples  ports.ExampleStore

	Researcher ports.Researcher
	Generator  ports.Generator
	Reviewer   ports.Reviewer

	Notifier ports.Notifier
	Logger   *slog.Logger

	Retry   RetryPolicy
	Workers int
}

// Pipeline drives questions through research, generation, review and routing.
// Questions are processed independently: one question failing never aborts
// its siblings, and nothing escapes the batch entry points; every failure
// lands in the returned summary.
type Pipeline struct {
	questions ports.QuestionStore
	examples  ports.ExampleStore

	researcher ports.Researcher
	generator  ports.Generator
	reviewer   ports.Reviewer

	notifier ports.Notifier
	logger   *slog.Logger

	retry   RetryPolicy
	workers int
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	workers := deps.Workers
	if workers <= 0 {
		workers = 1
	}
	retry := deps.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryPolicy()
	}
	return &Pipeline{
		questions:  deps.Questions,
		examples:   deps.Examples,
		researcher: deps.Researcher,
		generator:  deps.Generator,
		reviewer:   deps.Reviewer,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
		retry:      retry,
		workers:    workers,
	}
}

// BatchRequest seeds and processes a set of questions in one run.
type BatchRequest struct {
	Questions    []string
	Topic        string
	SubTopic     string
	TrainingType domain.TrainingType
	MaxQuestions int
	AutoApprove  bool
}

// BatchResult is the structured report of one batch run.
type BatchResult struct {
	Status  domain.BatchStatus
	Summary domain.ProgressSummary
	Err     string
}

// RunBatch stores the requested questions as pending and drives each one
// through the full pipeline. A store failure while seeding is the one
// catastrophic condition that aborts the whole run.
func (p *Pipeline) RunBatch(ctx context.Context, req BatchRequest) BatchResult {
	texts := req.Questions
	if req.MaxQuestions > 0 && len(texts) > req.MaxQuestions {
		texts = texts[:req.MaxQuestions]
	}

	batchID := uuid.NewString()
	tracker := newProgressTracker(batchID, len(texts))

	if _, err := domain.ParseTrainingType(string(req.TrainingType)); err != nil {
		return BatchResult{Status: domain.BatchError, Summary: tracker.snapshot(), Err: err.Error()}
	}
	if len(texts) == 0 {
		return BatchResult{Status: domain.BatchSuccess, Summary: tracker.snapshot()}
	}

	drafts := make([]domain.QuestionDraft, 0, len(texts))
	for _, text := range texts {
		drafts = append(drafts, domain.QuestionDraft{
			Text:         text,
			Topic:        req.Topic,
			SubTopic:     req.SubTopic,
			TrainingType: req.TrainingType,
		})
	}

	ids, err := p.questions.Add(ctx, drafts)
	if err != nil {
		p.log("seed questions failed", "batch", batchID, "error", err)
		return BatchResult{
			Status:  domain.BatchError,
			Summary: tracker.snapshot(),
			Err:     fmt.Sprintf("store unavailable: %v", err),
		}
	}
	tracker.added(len(ids))
	p.log("batch seeded", "batch", batchID, "questions", len(ids))

	queue := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		q, getErr := p.questions.Get(ctx, id)
		if getErr != nil {
			tracker.failed(id, "load", getErr)
			continue
		}
		queue = append(queue, q)
	}

	p.processAll(ctx, queue, tracker, req.AutoApprove)
	return p.finish(ctx, tracker, len(ids))
}

// PendingRequest drains questions already sitting in the store.
type PendingRequest struct {
	Topic       string
	SubTopic    string
	Limit       int
	AutoApprove bool
}

// ProcessPending picks up pending questions from the store and runs them
// through the pipeline.
func (p *Pipeline) ProcessPending(ctx context.Context, req PendingRequest) BatchResult {
	tracker := newProgressTracker(uuid.NewString(), 0)

	pending, err := p.questions.QueryByStage(ctx, ports.StageQuery{
		Stage:    domain.StagePending,
		Topic:    req.Topic,
		SubTopic: req.SubTopic,
		Limit:    req.Limit,
	})
	if err != nil {
		return BatchResult{
			Status:  domain.BatchError,
			Summary: tracker.snapshot(),
			Err:     fmt.Sprintf("store unavailable: %v", err),
		}
	}

	tracker.setTotal(len(pending))
	if len(pending) == 0 {
		return BatchResult{Status: domain.BatchSuccess, Summary: tracker.snapshot()}
	}

	p.processAll(ctx, pending, tracker, req.AutoApprove)
	return p.finish(ctx, tracker, len(pending))
}

// Resume re-derives outstanding work purely from persisted stages and
// re-enters the state machine at the right step for each question. Running
// it over a fully terminal batch performs zero store mutations.
func (p *Pipeline) Resume(ctx context.Context, req PendingRequest) BatchResult {
	stages := []domain.Stage{
		domain.StagePending,
		domain.StageResearching,
		domain.StageReadyForGeneration,
		domain.StageGenerated,
		domain.StageReviewed,
	}

	tracker := newProgressTracker(uuid.NewString(), 0)

	seen := map[int64]struct{}{}
	var queue []domain.Question
	for _, stage := range stages {
		batch, err := p.questions.QueryByStage(ctx, ports.StageQuery{
			Stage:    stage,
			Topic:    req.Topic,
			SubTopic: req.SubTopic,
		})
		if err != nil {
			return BatchResult{
				Status:  domain.BatchError,
				Summary: tracker.snapshot(),
				Err:     fmt.Sprintf("store unavailable: %v", err),
			}
		}
		for _, q := range batch {
			if _, dup := seen[q.ID]; dup {
				continue
			}
			if q.Status.Terminal() {
				continue
			}
			seen[q.ID] = struct{}{}
			queue = append(queue, q)
		}
	}

	tracker.setTotal(len(queue))
	if len(queue) == 0 {
		return BatchResult{Status: domain.BatchSuccess, Summary: tracker.snapshot()}
	}

	p.log("resuming questions", "count", len(queue))
	p.processAll(ctx, queue, tracker, req.AutoApprove)
	return p.finish(ctx, tracker, len(queue))
}

// StageReport counts questions per stage for a topic/sub-topic.
func (p *Pipeline) StageReport(ctx context.Context, topic, subTopic string) (map[domain.Stage]int, error) {
	counts, err := p.questions.CountByStage(ctx, topic, subTopic)
	if err != nil {
		return nil, fmt.Errorf("count by stage: %w", err)
	}
	return counts, nil
}

func (p *Pipeline) processAll(ctx context.Context, queue []domain.Question, tracker *progressTracker, autoApprove bool) {
	work := make(chan domain.Question)
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for q := range work {
				p.processQuestion(ctx, q, tracker, autoApprove)
			}
		}()
	}

	for _, q := range queue {
		work <- q
	}
	close(work)
	wg.Wait()
}

// processQuestion is the per-question state machine. Each step makes exactly
// one store update after its collaborator call succeeds, so a failure leaves
// the question exactly where it was. Cancellation is cooperative: the check
// sits between stages and an interrupted question stays resumable.
func (p *Pipeline) processQuestion(ctx context.Context, q domain.Question, tracker *progressTracker, autoApprove bool) {
	if q.Status.Terminal() {
		return
	}

	if q.Stage.Before(domain.StageReadyForGeneration) {
		if p.cancelled(ctx, q.ID, tracker) {
			return
		}
		artifact, err := withRetry(ctx, p.retry, func(ctx context.Context) (domain.ResearchArtifact, error) {
			return p.researcher.Research(ctx, q)
		})
		if err != nil {
			p.failQuestion(ctx, q.ID, "research", err, tracker)
			return
		}
		if err := p.questions.UpdateContext(ctx, q.ID, artifact); err != nil {
			p.failQuestion(ctx, q.ID, "research", err, tracker)
			return
		}
		tracker.researched()
		q.Research = &artifact
		q.Stage = domain.StageReadyForGeneration
		q.Status = domain.StatusResearched
	}

	if q.Stage == domain.StageReadyForGeneration {
		if p.cancelled(ctx, q.ID, tracker) {
			return
		}
		example, err := withRetry(ctx, p.retry, func(ctx context.Context) (domain.TrainingExample, error) {
			return p.generator.Generate(ctx, q)
		})
		if err == nil {
			err = example.Validate()
		}
		if err != nil {
			p.failQuestion(ctx, q.ID, "generation", err, tracker)
			return
		}
		if err := p.questions.UpdateGeneration(ctx, q.ID, example); err != nil {
			p.failQuestion(ctx, q.ID, "generation", err, tracker)
			return
		}
		tracker.generated()
		q.Generation = example
		q.Stage = domain.StageGenerated
		q.Status = domain.StatusGenerated
	}

	if q.Stage == domain.StageGenerated {
		if p.cancelled(ctx, q.ID, tracker) {
			return
		}
		review, err := withRetry(ctx, p.retry, func(ctx context.Context) (domain.ReviewArtifact, error) {
			return p.reviewer.Review(ctx, q, q.Generation)
		})
		if err != nil {
			p.failQuestion(ctx, q.ID, "review", err, tracker)
			return
		}
		if err := p.questions.UpdateReview(ctx, q.ID, review); err != nil {
			p.failQuestion(ctx, q.ID, "review", err, tracker)
			return
		}
		tracker.reviewed()
		q.Review = &review
		q.Stage = domain.StageReviewed
		q.Status = domain.StatusReviewed
	}

	if q.Stage == domain.StageReviewed {
		p.routeQuestion(ctx, q, tracker, autoApprove)
	}
}

func (p *Pipeline) routeQuestion(ctx context.Context, q domain.Question, tracker *progressTracker, autoApprove bool) {
	if q.Review == nil {
		p.failQuestion(ctx, q.ID, "storage", &domain.PermanentError{Op: "route", Reason: "review artifact missing"}, tracker)
		return
	}

	dest, err := Route(q.Review.QualityScore, autoApprove)
	if err != nil {
		p.failQuestion(ctx, q.ID, "storage", err, tracker)
		return
	}

	switch {
	case dest.Stored():
		_, err := withRetry(ctx, p.retry, func(ctx context.Context) (int64, error) {
			return p.examples.SaveExample(ctx, q.ID, q.Generation, *q.Review)
		})
		if err != nil {
			p.failQuestion(ctx, q.ID, "storage", err, tracker)
			return
		}
		if err := p.questions.MarkFinal(ctx, q.ID, dest.FinalStatus()); err != nil {
			p.failQuestion(ctx, q.ID, "storage", err, tracker)
			return
		}
		tracker.outcome(q.ID, dest.FinalStatus(), q.Review.QualityScore)

	case dest == DestinationNeedsRevisionHold:
		// Held for a later pass with auto-approve; no store mutation.
		tracker.outcome(q.ID, domain.StatusReviewed, q.Review.QualityScore)

	default:
		if err := p.questions.MarkFinal(ctx, q.ID, domain.StatusRejected); err != nil {
			p.failQuestion(ctx, q.ID, "storage", err, tracker)
			return
		}
		tracker.note(q.ID, "review", "low quality")
		tracker.outcome(q.ID, domain.StatusRejected, q.Review.QualityScore)
	}
}

func (p *Pipeline) failQuestion(ctx context.Context, id int64, stage string, cause error, tracker *progressTracker) {
	// A call aborted by cancellation is not a question failure. Take the
	// same path as the between-stage check: leave the question at its
	// current stage so a later resume picks it up.
	if ctx.Err() != nil || errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		tracker.note(id, "cancel", cause.Error())
		return
	}

	p.log("question failed", "question", id, "stage", stage, "error", cause)
	tracker.failed(id, stage, cause)
	tracker.outcome(id, domain.StatusFailed, 0)
	if err := p.questions.MarkFinal(ctx, id, domain.StatusFailed); err != nil {
		tracker.note(id, stage, fmt.Sprintf("mark failed: %v", err))
	}
}

func (p *Pipeline) cancelled(ctx context.Context, id int64, tracker *progressTracker) bool {
	if ctx.Err() == nil {
		return false
	}
	// Leave the question at its current stage so a later resume picks it up.
	tracker.note(id, "cancel", ctx.Err().Error())
	return true
}

func (p *Pipeline) finish(ctx context.Context, tracker *progressTracker, total int) BatchResult {
	summary := tracker.snapshot()

	status := domain.BatchPartial
	switch {
	case summary.Stages.Failed == 0:
		status = domain.BatchSuccess
	case summary.Stages.Failed >= total:
		status = domain.BatchError
	}

	if p.notifier != nil {
		if err := p.notifier.PublishSummary(ctx, summary); err != nil {
			p.log("publish summary failed", "error", err)
		}
	}

	p.log("batch finished",
		"batch", summary.BatchID,
		"status", string(status),
		"approved", summary.Stages.Approved,
		"failed", summary.Stages.Failed)

	return BatchResult{Status: status, Summary: summary}
}

func (p *Pipeline) log(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
