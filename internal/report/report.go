// Package report runs a scoring pass: every student against every outcome of
// a course, producing raw numbers for downstream rendering.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-outcomes/internal/outcome"
)

type Report struct {
	RunID       string          `json:"run_id"`
	CourseID    string          `json:"course_id"`
	CourseName  string          `json:"course_name,omitempty"`
	GeneratedAt time.Time       `json:"generated_at"`
	Students    []string        `json:"students"`
	Outcomes    []OutcomeReport `json:"outcomes"`
}

type OutcomeReport struct {
	Title        string                   `json:"title"`
	Description  string                   `json:"description,omitempty"`
	MaxPoints    float64                  `json:"max_points"`
	Associations []Column                 `json:"associations"`
	Students     []outcome.StudentOutcome `json:"students"`
	Summary      outcome.Summary          `json:"summary"`
}

// Column describes one association of an outcome.
type Column struct {
	Label      string             `json:"label"`
	Maximum    float64            `json:"maximum"`
	Thresholds outcome.Thresholds `json:"thresholds"`
}

// Missing names an association that does not resolve against the course.
type Missing struct {
	Outcome     string              `json:"outcome"`
	Association outcome.Association `json:"association"`
}

// MissingAssociationsError lists every unresolved association of a run.
type MissingAssociationsError struct {
	Missing []Missing
}

func (e *MissingAssociationsError) Error() string {
	labels := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		labels = append(labels, fmt.Sprintf("%s / %s", m.Outcome, m.Association.Label()))
	}
	return "associations not found: " + strings.Join(labels, "; ")
}

// Check collects the associations of outs that do not resolve on agg.
func Check(agg *outcome.Aggregator, outs []outcome.Outcome) []Missing {
	var missing []Missing
	for _, o := range outs {
		for _, a := range agg.MissingAssociations(o) {
			missing = append(missing, Missing{Outcome: o.Title, Association: a})
		}
	}
	return missing
}
