package cases

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"calibra/internal/analysis"
	domainerrors "calibra/pkg/domain-errors"
)

// PostgresStore persists cases in PostgreSQL. Status advances use a single
// UPDATE guarded by the expected current status, so status and its stage
// payload are never observable out of step.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const caseColumns = `id, name, description, status, created_at, updated_at,
	range_start, range_end, config, statistics, files, summary,
	failure_stage, failure_reason`

func (s *PostgresStore) Create(ctx context.Context, c Case) error {
	config, err := json.Marshal(c.Config)
	if err != nil {
		return fmt.Errorf("marshal case config: %w", err)
	}
	files, err := json.Marshal(c.Files)
	if err != nil {
		return fmt.Errorf("marshal case files: %w", err)
	}
	query := `
		INSERT INTO cases (id, name, description, status, created_at, updated_at,
			range_start, range_end, config, files)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Description, string(c.Status), c.CreatedAt, c.UpdatedAt,
		c.TimeRange.Start, c.TimeRange.End, config, files,
	)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeDataSource, "insert case")
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1`
	c, err := scanCase(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Case{}, domainerrors.Newf(domainerrors.CodeNotFound, "case %s not found", id)
		}
		return Case{}, domainerrors.Wrap(err, domainerrors.CodeDataSource, "load case")
	}
	return c, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeDataSource, "list cases")
	}
	defer rows.Close()

	var out []Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeDataSource, "scan case")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeDataSource, "list cases")
	}
	return out, nil
}

func (s *PostgresStore) ApplyTransition(ctx context.Context, id string, from, to Status, upd TransitionUpdate) (Case, error) {
	if !CanTransition(from, to) {
		return Case{}, domainerrors.Newf(domainerrors.CodeConflict,
			"illegal transition %s -> %s for case %s", from, to, id)
	}

	// Nil payload fields are passed as NULL and COALESCE keeps the stored
	// value; the whole advance is one statement.
	statistics, err := nullableJSON(upd.Statistics != nil, upd.Statistics)
	if err != nil {
		return Case{}, fmt.Errorf("marshal case statistics: %w", err)
	}
	files, err := nullableJSON(upd.Files != nil, upd.Files)
	if err != nil {
		return Case{}, fmt.Errorf("marshal case files: %w", err)
	}
	summary, err := nullableJSON(upd.Summary != nil, upd.Summary)
	if err != nil {
		return Case{}, fmt.Errorf("marshal case summary: %w", err)
	}

	var failureStage, failureReason any
	if to == StatusFailed {
		failureStage, failureReason = upd.Stage, upd.Reason
	}

	query := `
		UPDATE cases SET
			status = $3,
			updated_at = $4,
			statistics = COALESCE(statistics, '{}'::jsonb) || COALESCE($5::jsonb, '{}'::jsonb),
			files = COALESCE($6::jsonb, files),
			summary = COALESCE($7::jsonb, summary),
			failure_stage = COALESCE($8::text, failure_stage),
			failure_reason = COALESCE($9::text, failure_reason)
		WHERE id = $1 AND status = $2
		RETURNING ` + caseColumns
	row := s.db.QueryRowContext(ctx, query,
		id, string(from), string(to), time.Now().UTC(),
		statistics, files, summary, failureStage, failureReason,
	)
	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Case{}, s.transitionConflict(ctx, id, from)
		}
		return Case{}, domainerrors.Wrap(err, domainerrors.CodeDataSource, "update case status")
	}
	return c, nil
}

// transitionConflict distinguishes a missing case from a status race.
func (s *PostgresStore) transitionConflict(ctx context.Context, id string, from Status) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return domainerrors.Newf(domainerrors.CodeConflict,
		"case %s is %s, expected %s", id, current.Status, from)
}

func nullableJSON(present bool, v any) (any, error) {
	if !present {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (Case, error) {
	var (
		c             Case
		status        string
		config        []byte
		statistics    []byte
		files         []byte
		summary       []byte
		failureStage  sql.NullString
		failureReason sql.NullString
	)
	err := row.Scan(&c.ID, &c.Name, &c.Description, &status, &c.CreatedAt, &c.UpdatedAt,
		&c.TimeRange.Start, &c.TimeRange.End, &config, &statistics, &files, &summary,
		&failureStage, &failureReason)
	if err != nil {
		return Case{}, err
	}
	c.Status = Status(status)
	c.FailureStage = failureStage.String
	c.FailureReason = failureReason.String
	if len(config) > 0 {
		if err := json.Unmarshal(config, &c.Config); err != nil {
			return Case{}, fmt.Errorf("unmarshal case config: %w", err)
		}
	}
	if len(statistics) > 0 {
		if err := json.Unmarshal(statistics, &c.Statistics); err != nil {
			return Case{}, fmt.Errorf("unmarshal case statistics: %w", err)
		}
	}
	if len(files) > 0 {
		if err := json.Unmarshal(files, &c.Files); err != nil {
			return Case{}, fmt.Errorf("unmarshal case files: %w", err)
		}
	}
	if len(summary) > 0 {
		var sm analysis.Summary
		if err := json.Unmarshal(summary, &sm); err != nil {
			return Case{}, fmt.Errorf("unmarshal case summary: %w", err)
		}
		c.Summary = &sm
	}
	return c, nil
}
