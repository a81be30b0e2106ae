package ports

import (
	"context"
	"time"

	"SynthForge/internal/domain"
)

// QuestionStore persists questions and their per-stage artifacts. The stage
// column doubles as an ownership token: updates are rejected with
// InvalidStateError unless the question sits in the expected pre-state, so a
// processor can never half-advance or double-advance a question.
type QuestionStore interface {
	Add(ctx context.Context, drafts []domain.QuestionDraft) ([]int64, error)
	Get(ctx context.Context, id int64) (domain.Question, error)
	UpdateContext(ctx context.Context, id int64, artifact domain.ResearchArtifact) error
	UpdateGeneration(ctx context.Context, id int64, example domain.TrainingExample) error
	UpdateReview(ctx context.Context, id int64, review domain.ReviewArtifact) error
	MarkFinal(ctx context.Context, id int64, status domain.Status) error
	QueryByStage(ctx context.Context, q StageQuery) ([]domain.Question, error)
	CountByStage(ctx context.Context, topic, subTopic string) (map[domain.Stage]int, error)
}

// StageQuery filters questions for resumable processing.
type StageQuery struct {
	Stage    domain.Stage
	Topic    string
	SubTopic string
	Limit    int
}

// ExampleStore appends accepted training examples to the per-type final
// tables. Rows are never mutated after acceptance.
type ExampleStore interface {
	SaveExample(ctx context.Context, questionID int64, example domain.TrainingExample, review domain.ReviewArtifact) (int64, error)
	CountExamples(ctx context.Context, tt domain.TrainingType) (int, error)
}

// Researcher gathers grounding context for a question.
type Researcher interface {
	Research(ctx context.Context, question domain.Question) (domain.ResearchArtifact, error)
}

// Generator produces a training example from a researched question.
type Generator interface {
	Generate(ctx context.Context, question domain.Question) (domain.TrainingExample, error)
}

// Reviewer scores a generated example against the research ground truth.
type Reviewer interface {
	Review(ctx context.Context, question domain.Question, example domain.TrainingExample) (domain.ReviewArtifact, error)
}

// SourceFetcher pulls reference-page text used to ground research.
type SourceFetcher interface {
	FetchSources(ctx context.Context, topic, subTopic string) ([]domain.SourceRecord, string, error)
}

// Notifier publishes a human-readable batch report to an outside channel.
type Notifier interface {
	PublishSummary(ctx context.Context, summary domain.ProgressSummary) error
}

// Scheduler controls when pending questions are drained.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
