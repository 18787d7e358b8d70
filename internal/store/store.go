// Package store persists course snapshots, outcome definitions and report
// run metadata.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/mind-engage/mindengage-outcomes/internal/course"
	"github.com/mind-engage/mindengage-outcomes/internal/outcome"
)

var ErrNotFound = errors.New("not found")

// ListRuns bounds.
const (
	DefaultListRuns = 20
	MaxListRuns     = 200
)

// Run is the metadata of one archived report.
type Run struct {
	ID           string    `json:"run_id"`
	CourseID     string    `json:"course_id"`
	BlobKey      string    `json:"blob_key"`
	StudentCount int       `json:"student_count"`
	OutcomeCount int       `json:"outcome_count"`
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type Store interface {
	PutSnapshot(ctx context.Context, in course.Input) error
	GetSnapshot(ctx context.Context, courseID string) (course.Input, error)

	PutOutcomes(ctx context.Context, courseID string, outs []outcome.Outcome) error
	GetOutcomes(ctx context.Context, courseID string) ([]outcome.Outcome, error)

	PutRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, runID string) (Run, error)
	// ListRuns returns the newest runs of a course first. limit <= 0 means
	// DefaultListRuns; larger limits are capped at MaxListRuns.
	ListRuns(ctx context.Context, courseID string, limit int) ([]Run, error)
}
