package outcome

import (
	"github.com/mind-engage/mindengage-outcomes/internal/course"
	"github.com/mind-engage/mindengage-outcomes/internal/grading"
)

// AssociationResult is one student's score on one association.
type AssociationResult struct {
	Label   string        `json:"label"`
	Points  grading.Value `json:"points"`
	Maximum float64       `json:"maximum"`
	Percent grading.Value `json:"percent"`
	Level   Level         `json:"level"`
	// RatingLevel is set for rubric criterion associations with a rating.
	RatingLevel course.Competency `json:"rating_level,omitempty"`
}

// StudentOutcome is everything a report shows for one student and outcome.
type StudentOutcome struct {
	Student        string              `json:"student"`
	Points         float64             `json:"points"`
	MaxPoints      float64             `json:"max_points"`
	Percent        float64             `json:"percent"`
	AveragePercent float64             `json:"average_percent"`
	Associations   []AssociationResult `json:"associations"`
	Verdict        Verdict             `json:"verdict"`
}

// Evaluate scores every association of o for one student and classifies the
// results. Thresholds are normalized before classification.
func (a *Aggregator) Evaluate(o Outcome, student string) (StudentOutcome, error) {
	res := StudentOutcome{Student: student}
	levels := make([]Level, 0, len(o.Associations))
	for _, assoc := range o.Associations {
		pts, err := a.AssociationPoints(assoc, student)
		if err != nil {
			return StudentOutcome{}, err
		}
		m, err := a.AssociationMaximum(assoc)
		if err != nil {
			return StudentOutcome{}, err
		}
		pct, err := a.StudentPercent(assoc, student)
		if err != nil {
			return StudentOutcome{}, err
		}
		rating, err := a.RatingLevel(assoc, student)
		if err != nil {
			return StudentOutcome{}, err
		}
		lvl := Classify(pct, NormalizeThresholds(assoc.Thresholds()))
		levels = append(levels, lvl)
		res.Associations = append(res.Associations, AssociationResult{
			Label:       assoc.Label(),
			Points:      pts,
			Maximum:     m,
			Percent:     pct,
			Level:       lvl,
			RatingLevel: rating,
		})
	}
	var err error
	if res.Points, err = a.StudentPoints(o, student); err != nil {
		return StudentOutcome{}, err
	}
	if res.MaxPoints, err = a.MaxPoints(o); err != nil {
		return StudentOutcome{}, err
	}
	if res.Percent, err = a.StudentOutcomePercent(o, student); err != nil {
		return StudentOutcome{}, err
	}
	avg, err := a.StudentAveragePercent(o, student)
	if err != nil {
		return StudentOutcome{}, err
	}
	res.AveragePercent = avg
	res.Verdict = Attainment(levels)
	return res, nil
}
