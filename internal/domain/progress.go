package domain

import "time"

// BatchStatus summarizes how a whole batch run ended.
type BatchStatus string

const (
	BatchSuccess BatchStatus = "success"
	BatchPartial BatchStatus = "partial"
	BatchError   BatchStatus = "error"
)

// StageCounts aggregates how many questions cleared each milestone.
type StageCounts struct {
	Added      int `json:"added"`
	Researched int `json:"researched"`
	Generated  int `json:"generated"`
	Reviewed   int `json:"reviewed"`
	Approved   int `json:"approved"`
	Failed     int `json:"failed"`
}

// Outcome records where one question ended up.
type Outcome struct {
	QuestionID   int64   `json:"question_id"`
	FinalStatus  Status  `json:"final_status"`
	QualityScore float64 `json:"quality_score"`
}

// ErrorEntry records one per-question failure without aborting the batch.
type ErrorEntry struct {
	QuestionID int64     `json:"question_id"`
	Stage      string    `json:"stage"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// ProgressSummary is the structured report returned by every batch run,
// including partially failed ones. One instance belongs to exactly one batch.
type ProgressSummary struct {
	BatchID  string       `json:"batch_id"`
	Total    int          `json:"total"`
	Stages   StageCounts  `json:"stages"`
	Outcomes []Outcome    `json:"outcomes"`
	Errors   []ErrorEntry `json:"errors"`
}

// CompletionPercentage reports the approved share of the batch.
func (s ProgressSummary) CompletionPercentage() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Stages.Approved) / float64(s.Total) * 100
}
