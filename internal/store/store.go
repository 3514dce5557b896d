package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/muuktest/selector-feedback/api/schemas"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

const (
	sqlCreateSchema = `
        CREATE TABLE IF NOT EXISTS feedback_runs (
            id          UUID PRIMARY KEY,
            class_name  TEXT NOT NULL,
            browser     TEXT NOT NULL,
            report      JSONB NOT NULL,
            created_at  TIMESTAMPTZ NOT NULL
        );
        CREATE TABLE IF NOT EXISTS selector_feedback (
            run_id            UUID NOT NULL REFERENCES feedback_runs (id) ON DELETE CASCADE,
            step_position     INTEGER NOT NULL,
            step_id           TEXT NOT NULL,
            selector_class    INTEGER NOT NULL,
            selector          TEXT NOT NULL,
            raw_match_count   INTEGER NOT NULL,
            value_match_count INTEGER NOT NULL,
            outcome_code      TEXT NOT NULL,
            recommended       BOOLEAN NOT NULL,
            PRIMARY KEY (run_id, step_position, selector_class)
        );
    `
	sqlInsertRun = `
        INSERT INTO feedback_runs (id, class_name, browser, report, created_at)
        VALUES ($1, $2, $3, $4, $5);
    `
	sqlGetFeedback = `
        SELECT step_position, step_id, selector_class, selector, raw_match_count, value_match_count, outcome_code, recommended
        FROM selector_feedback
        WHERE run_id = $1
        ORDER BY step_position ASC, selector_class ASC;
    `
)

var feedbackColumns = []string{
	"run_id", "step_position", "step_id", "selector_class", "selector",
	"raw_match_count", "value_match_count", "outcome_code", "recommended",
}

// FeedbackRow is one persisted diagnostic: a selector class of one step.
type FeedbackRow struct {
	StepPosition    int                   `json:"stepPosition"`
	StepID          string                `json:"stepId"`
	SelectorClass   schemas.SelectorClass `json:"selectorClass"`
	Selector        string                `json:"selector"`
	RawMatchCount   int                   `json:"rawMatchCount"`
	ValueMatchCount int                   `json:"valueMatchCount"`
	OutcomeCode     schemas.OutcomeCode   `json:"outcomeCode"`
	Recommended     bool                  `json:"recommended"`
}

// Store persists assembled feedback reports in PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// EnsureSchema creates the feedback tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, sqlCreateSchema); err != nil {
		return fmt.Errorf("failed to create feedback schema: %w", err)
	}
	return nil
}

// PersistReport stores one run of a test class in a single transaction: the
// whole report as JSONB plus one row per analyzed step and selector class.
// It returns the generated run ID.
func (s *Store) PersistReport(ctx context.Context, className, browser string, report *schemas.MuukReport) (string, error) {
	if report == nil {
		return "", errors.New("cannot persist a nil report")
	}

	document, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	runID := uuid.NewString()
	if _, err := tx.Exec(ctx, sqlInsertRun, runID, className, browser, document, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("failed to insert feedback run: %w", err)
	}

	rows := feedbackRows(runID, report)
	if len(rows) > 0 {
		if err := s.copyFeedback(ctx, tx, rows); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.log.Info("Persisted feedback run",
		zap.String("run_id", runID),
		zap.String("class", className),
		zap.Int("diagnostics", len(rows)),
	)
	return runID, nil
}

func (s *Store) copyFeedback(ctx context.Context, tx pgx.Tx, rows [][]interface{}) error {
	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"selector_feedback"},
		feedbackColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to copy selector feedback: %w", err)
	}
	if int(copyCount) != len(rows) {
		return fmt.Errorf("mismatch in copied feedback count: expected %d, got %d", len(rows), copyCount)
	}
	return nil
}

// feedbackRows flattens the diagnostics of every analyzed step.
func feedbackRows(runID string, report *schemas.MuukReport) [][]interface{} {
	var rows [][]interface{}
	for position, step := range report.Steps {
		if !step.Analyzed {
			continue
		}
		stepID := step.ID()
		for _, d := range step.Feedback {
			rows = append(rows, []interface{}{
				runID, position, stepID, int(d.SelectorClass), d.Selector,
				d.RawMatchCount, d.ValueMatchCount, string(d.OutcomeCode),
				step.FeedbackSelectorToUse == d.SelectorClass,
			})
		}
	}
	return rows
}

// GetFeedbackByRunID returns the diagnostics of a run in step and class order.
func (s *Store) GetFeedbackByRunID(ctx context.Context, runID string) ([]FeedbackRow, error) {
	rows, err := s.pool.Query(ctx, sqlGetFeedback, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query selector feedback: %w", err)
	}
	defer rows.Close()

	var feedback []FeedbackRow
	for rows.Next() {
		var (
			r       FeedbackRow
			class   int
			outcome string
		)
		if err := rows.Scan(
			&r.StepPosition, &r.StepID, &class, &r.Selector,
			&r.RawMatchCount, &r.ValueMatchCount, &outcome, &r.Recommended,
		); err != nil {
			return nil, fmt.Errorf("failed to scan feedback row: %w", err)
		}
		r.SelectorClass = schemas.SelectorClass(class)
		r.OutcomeCode = schemas.OutcomeCode(outcome)
		feedback = append(feedback, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return feedback, nil
}
