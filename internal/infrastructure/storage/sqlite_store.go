package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"SynthForge/internal/domain"
	"SynthForge/internal/ports"
)

// Store persists questions and accepted training examples in SQLite. The
// questions table carries every per-stage artifact; each training type has
// its own append-only final table.
type Store struct {
	db *sql.DB
}

var _ ports.QuestionStore = (*Store)(nil)
var _ ports.ExampleStore = (*Store)(nil)

// NewStore wires a sql.DB and creates missing tables.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			question TEXT NOT NULL,
			topic TEXT NOT NULL,
			sub_topic TEXT NOT NULL,
			training_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			pipeline_stage TEXT NOT NULL DEFAULT 'pending',
			ground_truth_context TEXT,
			synthesized_context TEXT,
			context_sources TEXT,
			context_quality_score REAL,
			research_completed_at TIMESTAMP,
			generation_payload TEXT,
			review_quality_score REAL,
			review_decision TEXT,
			reviewer_notes TEXT,
			review_criteria TEXT,
			reviewed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_stage ON questions (pipeline_stage, topic, sub_topic)`,
	}

	for _, tt := range domain.TrainingTypes() {
		statements = append(statements, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			question_id INTEGER NOT NULL,
			payload TEXT NOT NULL,
			quality_score REAL NOT NULL,
			review_decision TEXT NOT NULL,
			reviewer_notes TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, tableFor(tt)))
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec schema: %w", err)
		}
	}
	return nil
}

func tableFor(tt domain.TrainingType) string {
	return "synthetic_data_" + string(tt)
}

// Add inserts drafts with status=pending, pipeline_stage=pending.
func (s *Store) Add(ctx context.Context, drafts []domain.QuestionDraft) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(drafts))
	for _, draft := range drafts {
		query, args, err := sq.Insert("questions").
			Columns("question", "topic", "sub_topic", "training_type", "status", "pipeline_stage").
			Values(draft.Text, draft.Topic, draft.SubTopic, string(draft.TrainingType),
				string(domain.StatusPending), string(domain.StagePending)).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build insert: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("insert question: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ids, nil
}

var questionColumns = []string{
	"id", "question", "topic", "sub_topic", "training_type", "status", "pipeline_stage",
	"ground_truth_context", "synthesized_context", "context_sources", "context_quality_score",
	"research_completed_at", "generation_payload",
	"review_quality_score", "review_decision", "reviewer_notes", "review_criteria", "reviewed_at",
	"created_at", "updated_at",
}

// Get returns a question with all recorded artifacts.
func (s *Store) Get(ctx context.Context, id int64) (domain.Question, error) {
	query, args, err := sq.Select(questionColumns...).
		From("questions").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Question{}, fmt.Errorf("build select: %w", err)
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("scan question: %w", err)
	}
	return q, nil
}

// UpdateContext records research results and advances the question to
// ready_for_generation. The stage predicate is a compare-and-swap: only a
// pending or researching question accepts research.
func (s *Store) UpdateContext(ctx context.Context, id int64, artifact domain.ResearchArtifact) error {
	sources, err := json.Marshal(artifact.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}

	completedAt := artifact.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	query, args, err := sq.Update("questions").
		Set("ground_truth_context", artifact.RawContext).
		Set("synthesized_context", artifact.SynthesizedContext).
		Set("context_sources", string(sources)).
		Set("context_quality_score", artifact.QualityScore).
		Set("research_completed_at", completedAt).
		Set("status", string(domain.StatusResearched)).
		Set("pipeline_stage", string(domain.StageReadyForGeneration)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"pipeline_stage": []string{string(domain.StagePending), string(domain.StageResearching)}}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	return s.execGuarded(ctx, query, args, id, domain.StageReadyForGeneration)
}

// UpdateGeneration stores the produced example and advances to generated.
func (s *Store) UpdateGeneration(ctx context.Context, id int64, example domain.TrainingExample) error {
	payload, err := encodeExample(example)
	if err != nil {
		return err
	}

	query, args, err := sq.Update("questions").
		Set("generation_payload", payload).
		Set("status", string(domain.StatusGenerated)).
		Set("pipeline_stage", string(domain.StageGenerated)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"pipeline_stage": string(domain.StageReadyForGeneration)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	return s.execGuarded(ctx, query, args, id, domain.StageGenerated)
}

// UpdateReview stores the reviewer's verdict and advances to reviewed.
func (s *Store) UpdateReview(ctx context.Context, id int64, review domain.ReviewArtifact) error {
	criteria, err := json.Marshal(review.Criteria)
	if err != nil {
		return fmt.Errorf("marshal criteria: %w", err)
	}

	reviewedAt := review.ReviewedAt
	if reviewedAt.IsZero() {
		reviewedAt = time.Now().UTC()
	}

	query, args, err := sq.Update("questions").
		Set("review_quality_score", review.QualityScore).
		Set("review_decision", string(review.Decision)).
		Set("reviewer_notes", review.Notes).
		Set("review_criteria", string(criteria)).
		Set("reviewed_at", reviewedAt).
		Set("status", string(domain.StatusReviewed)).
		Set("pipeline_stage", string(domain.StageReviewed)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"pipeline_stage": string(domain.StageGenerated)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	return s.execGuarded(ctx, query, args, id, domain.StageReviewed)
}

// MarkFinal sets a terminal (or parked) coarse status. Terminal questions
// are never overwritten; they stay behind as the audit trail.
func (s *Store) MarkFinal(ctx context.Context, id int64, status domain.Status) error {
	query, args, err := sq.Update("questions").
		Set("status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Where(sq.NotEq{"status": []string{
			string(domain.StatusApproved),
			string(domain.StatusRejected),
			string(domain.StatusFailed),
		}}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark final: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		current, getErr := s.Get(ctx, id)
		if getErr != nil {
			return getErr
		}
		if current.Status == status {
			return nil
		}
		return &domain.InvalidStateError{QuestionID: id, Stage: current.Stage, Wanted: current.Stage}
	}
	return nil
}

// QueryByStage lists questions sitting at a stage, optionally filtered by
// topic and sub-topic. This is the resumability mechanism: outstanding work
// is re-derived from persisted state alone.
func (s *Store) QueryByStage(ctx context.Context, sqry ports.StageQuery) ([]domain.Question, error) {
	builder := sq.Select(questionColumns...).
		From("questions").
		Where(sq.Eq{"pipeline_stage": string(sqry.Stage)}).
		OrderBy("id ASC")

	if sqry.Topic != "" {
		builder = builder.Where(sq.Eq{"topic": sqry.Topic})
	}
	if sqry.SubTopic != "" {
		builder = builder.Where(sq.Eq{"sub_topic": sqry.SubTopic})
	}
	if sqry.Limit > 0 {
		builder = builder.Limit(uint64(sqry.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query by stage: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		q, scanErr := scanQuestion(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan question: %w", scanErr)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// CountByStage reports how many questions sit at each pipeline stage.
func (s *Store) CountByStage(ctx context.Context, topic, subTopic string) (map[domain.Stage]int, error) {
	builder := sq.Select("pipeline_stage", "COUNT(*)").
		From("questions").
		GroupBy("pipeline_stage")

	if topic != "" {
		builder = builder.Where(sq.Eq{"topic": topic})
	}
	if subTopic != "" {
		builder = builder.Where(sq.Eq{"sub_topic": subTopic})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count by stage: %w", err)
	}
	defer rows.Close()

	counts := map[domain.Stage]int{}
	for rows.Next() {
		var stage string
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[domain.Stage(stage)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return counts, nil
}

// SaveExample appends an accepted example to its per-type final table.
func (s *Store) SaveExample(ctx context.Context, questionID int64, example domain.TrainingExample, review domain.ReviewArtifact) (int64, error) {
	if err := example.Validate(); err != nil {
		return 0, err
	}
	payload, err := encodeExample(example)
	if err != nil {
		return 0, err
	}

	query, args, err := sq.Insert(tableFor(example.Type())).
		Columns("question_id", "payload", "quality_score", "review_decision", "reviewer_notes").
		Values(questionID, payload, review.QualityScore, string(review.Decision), review.Notes).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert example: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// CountExamples reports the final-table row count for a training type.
func (s *Store) CountExamples(ctx context.Context, tt domain.TrainingType) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From(tableFor(tt)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build select: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count examples: %w", err)
	}
	return count, nil
}

// execGuarded runs a stage-guarded update and maps a zero-row result to the
// precise contract violation: missing id or out-of-order stage.
func (s *Store) execGuarded(ctx context.Context, query string, args []interface{}, id int64, wanted domain.Stage) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		current, getErr := s.Get(ctx, id)
		if getErr != nil {
			return getErr
		}
		return &domain.InvalidStateError{QuestionID: id, Stage: current.Stage, Wanted: wanted}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(row rowScanner) (domain.Question, error) {
	var (
		q                    domain.Question
		trainingType         string
		status, stage        string
		rawContext           sql.NullString
		synthContext         sql.NullString
		sources              sql.NullString
		contextScore         sql.NullFloat64
		researchedAt         sql.NullTime
		generationPayload    sql.NullString
		reviewScore          sql.NullFloat64
		reviewDecision       sql.NullString
		reviewerNotes        sql.NullString
		reviewCriteria       sql.NullString
		reviewedAt           sql.NullTime
		createdAt, updatedAt time.Time
	)

	err := row.Scan(
		&q.ID, &q.Text, &q.Topic, &q.SubTopic, &trainingType, &status, &stage,
		&rawContext, &synthContext, &sources, &contextScore,
		&researchedAt, &generationPayload,
		&reviewScore, &reviewDecision, &reviewerNotes, &reviewCriteria, &reviewedAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Question{}, err
	}

	q.TrainingType = domain.TrainingType(trainingType)
	q.Status = domain.Status(status)
	q.Stage = domain.Stage(stage)
	q.CreatedAt = createdAt
	q.UpdatedAt = updatedAt

	if rawContext.Valid || synthContext.Valid {
		artifact := domain.ResearchArtifact{
			RawContext:         rawContext.String,
			SynthesizedContext: synthContext.String,
			QualityScore:       contextScore.Float64,
		}
		if researchedAt.Valid {
			artifact.CompletedAt = researchedAt.Time
		}
		if sources.Valid && sources.String != "" {
			if err := json.Unmarshal([]byte(sources.String), &artifact.Sources); err != nil {
				return domain.Question{}, fmt.Errorf("unmarshal sources: %w", err)
			}
		}
		q.Research = &artifact
	}

	if generationPayload.Valid && generationPayload.String != "" {
		example, decErr := domain.DecodeExample(q.TrainingType, []byte(generationPayload.String))
		if decErr != nil {
			return domain.Question{}, decErr
		}
		q.Generation = example
	}

	if reviewDecision.Valid {
		review := domain.ReviewArtifact{
			QualityScore: reviewScore.Float64,
			Decision:     domain.ReviewDecision(reviewDecision.String),
			Notes:        reviewerNotes.String,
		}
		if reviewedAt.Valid {
			review.ReviewedAt = reviewedAt.Time
		}
		if reviewCriteria.Valid && reviewCriteria.String != "" {
			if err := json.Unmarshal([]byte(reviewCriteria.String), &review.Criteria); err != nil {
				return domain.Question{}, fmt.Errorf("unmarshal criteria: %w", err)
			}
		}
		q.Review = &review
	}

	return q, nil
}

func encodeExample(example domain.TrainingExample) (string, error) {
	raw, err := json.Marshal(example)
	if err != nil {
		return "", fmt.Errorf("marshal example: %w", err)
	}
	return string(raw), nil
}
