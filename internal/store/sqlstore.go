package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-outcomes/internal/course"
	"github.com/mind-engage/mindengage-outcomes/internal/outcome"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutSnapshot(ctx context.Context, in course.Input) error {
	buf, err := json.Marshal(in)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO course_snapshots (course_id,name,snapshot_json,updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (course_id) DO UPDATE SET name=EXCLUDED.name, snapshot_json=EXCLUDED.snapshot_json, updated_at=EXCLUDED.updated_at`,
		in.ID, in.Name, string(buf), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("put snapshot %s: %w", in.ID, err)
	}
	return nil
}

func (s *SQLStore) GetSnapshot(ctx context.Context, courseID string) (course.Input, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot_json FROM course_snapshots WHERE course_id=$1`, courseID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return course.Input{}, fmt.Errorf("snapshot %s: %w", courseID, ErrNotFound)
		}
		return course.Input{}, err
	}
	var in course.Input
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return course.Input{}, fmt.Errorf("decode snapshot %s: %w", courseID, err)
	}
	return in, nil
}

func (s *SQLStore) PutOutcomes(ctx context.Context, courseID string, outs []outcome.Outcome) error {
	if outs == nil {
		outs = []outcome.Outcome{}
	}
	buf, err := json.Marshal(outs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO outcome_sets (course_id,outcomes_json,updated_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (course_id) DO UPDATE SET outcomes_json=EXCLUDED.outcomes_json, updated_at=EXCLUDED.updated_at`,
		courseID, string(buf), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("put outcomes %s: %w", courseID, err)
	}
	return nil
}

func (s *SQLStore) GetOutcomes(ctx context.Context, courseID string) ([]outcome.Outcome, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT outcomes_json FROM outcome_sets WHERE course_id=$1`, courseID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("outcomes %s: %w", courseID, ErrNotFound)
		}
		return nil, err
	}
	var outs []outcome.Outcome
	if err := json.Unmarshal([]byte(raw), &outs); err != nil {
		return nil, fmt.Errorf("decode outcomes %s: %w", courseID, err)
	}
	return outs, nil
}

func (s *SQLStore) PutRun(ctx context.Context, r Run) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO report_runs (run_id,course_id,blob_key,student_count,outcome_count,created_by,created_us)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.CourseID, r.BlobKey, r.StudentCount, r.OutcomeCount, r.CreatedBy, r.CreatedAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("put run %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLStore) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT run_id,course_id,blob_key,student_count,outcome_count,created_by,created_us
		FROM report_runs WHERE run_id=$1`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("run %s: %w", runID, ErrNotFound)
		}
		return Run{}, err
	}
	return r, nil
}

func (s *SQLStore) ListRuns(ctx context.Context, courseID string, limit int) ([]Run, error) {
	switch {
	case limit <= 0:
		limit = DefaultListRuns
	case limit > MaxListRuns:
		limit = MaxListRuns
	}
	rows, err := s.db.QueryContext(ctx, `SELECT run_id,course_id,blob_key,student_count,outcome_count,created_by,created_us
		FROM report_runs WHERE course_id=$1 ORDER BY created_us DESC, run_id DESC LIMIT $2`, courseID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var r Run
	var created int64
	if err := sc.Scan(&r.ID, &r.CourseID, &r.BlobKey, &r.StudentCount, &r.OutcomeCount, &r.CreatedBy, &created); err != nil {
		return Run{}, err
	}
	r.CreatedAt = time.UnixMicro(created).UTC()
	return r, nil
}
