package domain

import "time"

// TrainingType selects the output format of a synthetic training example.
type TrainingType string

const (
	TrainingSFT  TrainingType = "sft"
	TrainingDPO  TrainingType = "dpo"
	TrainingPPO  TrainingType = "ppo"
	TrainingGRPO TrainingType = "grpo"
	TrainingRLHF TrainingType = "rlhf"
	TrainingKTO  TrainingType = "kto"
	TrainingORPO TrainingType = "orpo"
	TrainingChat TrainingType = "chat"
	TrainingQA   TrainingType = "qa"
)

// TrainingTypes lists every supported format in a stable order.
func TrainingTypes() []TrainingType {
	return []TrainingType{
		TrainingSFT, TrainingDPO, TrainingPPO, TrainingGRPO,
		TrainingRLHF, TrainingKTO, TrainingORPO, TrainingChat, TrainingQA,
	}
}

// ParseTrainingType validates a training type string.
func ParseTrainingType(value string) (TrainingType, error) {
	tt := TrainingType(value)
	for _, known := range TrainingTypes() {
		if tt == known {
			return tt, nil
		}
	}
	return "", &PermanentError{Op: "parse training type", Reason: "unknown training type " + value}
}

// Status is the coarse lifecycle marker of a question.
type Status string

const (
	StatusPending    Status = "pending"
	StatusResearched Status = "researched"
	StatusGenerated  Status = "generated"
	StatusReviewed   Status = "reviewed"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusFailed     Status = "failed"
)

// Terminal reports whether processing stops at this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusFailed:
		return true
	}
	return false
}

// Stage is the fine-grained pipeline position of a question.
// Stages form a total order and a question only ever moves forward.
type Stage string

const (
	StagePending            Stage = "pending"
	StageResearching        Stage = "researching"
	StageReadyForGeneration Stage = "ready_for_generation"
	StageGenerated          Stage = "generated"
	StageReviewed           Stage = "reviewed"
)

var stageOrder = map[Stage]int{
	StagePending:            0,
	StageResearching:        1,
	StageReadyForGeneration: 2,
	StageGenerated:          3,
	StageReviewed:           4,
}

// Known reports whether the stage belongs to the pipeline order.
func (s Stage) Known() bool {
	_, ok := stageOrder[s]
	return ok
}

// Before reports whether s precedes other in the pipeline order.
func (s Stage) Before(other Stage) bool {
	return stageOrder[s] < stageOrder[other]
}

// CanAdvanceTo enforces monotonic, no-skip stage transitions. Researching is
// the only optional intermediate: pending may move straight to
// ready_for_generation once research results land.
func (s Stage) CanAdvanceTo(next Stage) bool {
	cur, okCur := stageOrder[s]
	nxt, okNext := stageOrder[next]
	if !okCur || !okNext {
		return false
	}
	if next == StageReadyForGeneration {
		return s == StagePending || s == StageResearching
	}
	return nxt == cur+1
}

// ReliabilityTier grades how trustworthy a research source is.
type ReliabilityTier string

const (
	ReliabilityHigh   ReliabilityTier = "high"
	ReliabilityMedium ReliabilityTier = "medium"
	ReliabilityLow    ReliabilityTier = "low"
)

// SourceRecord is attribution metadata for one research source. It lives
// inside a question's research artifact and is never persisted on its own.
type SourceRecord struct {
	URL         string          `json:"url"`
	Title       string          `json:"title"`
	License     string          `json:"license,omitempty"`
	Reliability ReliabilityTier `json:"reliability,omitempty"`
}

// ResearchArtifact holds everything the research step produced.
type ResearchArtifact struct {
	RawContext         string
	SynthesizedContext string
	Sources            []SourceRecord
	QualityScore       float64
	CompletedAt        time.Time
}

// ReviewArtifact holds the reviewer's verdict over a generated example.
type ReviewArtifact struct {
	QualityScore float64
	Decision     ReviewDecision
	Notes        string
	Criteria     map[string]float64
	ReviewedAt   time.Time
}

// ReviewDecision is the reviewer's recommendation before routing.
type ReviewDecision string

const (
	DecisionApproved      ReviewDecision = "approved"
	DecisionNeedsRevision ReviewDecision = "needs_revision"
	DecisionRejected      ReviewDecision = "rejected"
)

// Question is the unit of work flowing through the pipeline. It is created
// pending, mutated only by the processor whose turn it is, and never deleted;
// failed and rejected questions stay behind as an audit trail.
type Question struct {
	ID           int64
	Text         string
	Topic        string
	SubTopic     string
	TrainingType TrainingType

	Status Status
	Stage  Stage

	Research   *ResearchArtifact
	Generation TrainingExample
	Review     *ReviewArtifact

	CreatedAt time.Time
	UpdatedAt time.Time
}

// QuestionDraft is the insert shape used when seeding a batch.
type QuestionDraft struct {
	Text         string
	Topic        string
	SubTopic     string
	TrainingType TrainingType
}
