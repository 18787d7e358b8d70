package outcome

import (
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-outcomes/internal/course"
	"github.com/mind-engage/mindengage-outcomes/internal/grading"
)

// ErrAssociationNotFound is returned when an association names a group,
// assignment, rubric criterion or question group the course does not have.
var ErrAssociationNotFound = errors.New("association target not found")

// target is a resolved association. A zero sel means the whole group.
type target struct {
	group *course.AssignmentGroup
	sel   grading.Selector
}

func (t target) wholeGroup() bool { return t.sel.Assignment == nil }

// Aggregator scores outcomes against one immutable course snapshot. It holds
// no mutable state and is safe for concurrent use.
type Aggregator struct {
	course *course.Course
	src    *grading.Source
}

func NewAggregator(c *course.Course) *Aggregator {
	return &Aggregator{course: c, src: grading.NewSource()}
}

func (a *Aggregator) Course() *course.Course { return a.course }

func (a *Aggregator) resolve(assoc Association) (target, error) {
	g, ok := a.course.Group(assoc.AssignmentGroup)
	if !ok {
		return target{}, fmt.Errorf("%s: assignment group %q: %w", assoc.Label(), assoc.AssignmentGroup, ErrAssociationNotFound)
	}
	t := target{group: g}
	if assoc.Assignment == "" {
		return t, nil
	}
	item, ok := g.Assignment(assoc.Assignment)
	if !ok {
		return target{}, fmt.Errorf("%s: assignment %q: %w", assoc.Label(), assoc.Assignment, ErrAssociationNotFound)
	}
	t.sel.Assignment = item
	switch {
	case assoc.RubricCriterion != "":
		c, ok := item.Rubric.Criterion(assoc.RubricCriterion)
		if !ok {
			return target{}, fmt.Errorf("%s: rubric criterion %q: %w", assoc.Label(), assoc.RubricCriterion, ErrAssociationNotFound)
		}
		t.sel.Criterion = c
	case assoc.QuestionGroup != "":
		q, ok := item.QuestionGroup(assoc.QuestionGroup, assoc.QuestionBank)
		if !ok {
			return target{}, fmt.Errorf("%s: question group %q: %w", assoc.Label(), assoc.QuestionGroup, ErrAssociationNotFound)
		}
		t.sel.QuestionGroup = q
	}
	return t, nil
}

// AssociationPoints returns the student's result for one association: the
// bracketed group aggregate, or the item score when an assignment is named.
func (a *Aggregator) AssociationPoints(assoc Association, student string) (grading.Value, error) {
	t, err := a.resolve(assoc)
	if err != nil {
		return grading.Unknown, err
	}
	if t.wholeGroup() {
		return AggregateGroup(a.src, t.group, student).Points, nil
	}
	return a.src.Score(t.sel, student), nil
}

// AssociationMaximum returns the points available on one association.
func (a *Aggregator) AssociationMaximum(assoc Association) (float64, error) {
	t, err := a.resolve(assoc)
	if err != nil {
		return 0, err
	}
	if t.wholeGroup() {
		return GroupMaximum(a.src, t.group), nil
	}
	return a.src.Maximum(t.sel), nil
}

// StudentPoints sums the known association results of an outcome.
func (a *Aggregator) StudentPoints(o Outcome, student string) (float64, error) {
	total := 0.0
	for _, assoc := range o.Associations {
		v, err := a.AssociationPoints(assoc, student)
		if err != nil {
			return 0, err
		}
		total += v.Or(0)
	}
	return total, nil
}

// MaxPoints sums the association maxima of an outcome.
func (a *Aggregator) MaxPoints(o Outcome) (float64, error) {
	total := 0.0
	for _, assoc := range o.Associations {
		m, err := a.AssociationMaximum(assoc)
		if err != nil {
			return 0, err
		}
		total += m
	}
	return total, nil
}

// StudentPercent is points/maximum for one association. A zero maximum gives
// Known(0); Unknown points stay Unknown.
func (a *Aggregator) StudentPercent(assoc Association, student string) (grading.Value, error) {
	m, err := a.AssociationMaximum(assoc)
	if err != nil {
		return grading.Unknown, err
	}
	if m == 0 {
		return grading.Known(0), nil
	}
	v, err := a.AssociationPoints(assoc, student)
	if err != nil {
		return grading.Unknown, err
	}
	return v.Ratio(m), nil
}

// StudentAveragePercent averages the known association percents of an
// outcome, skipping associations with a zero maximum. It is 0 when nothing
// resolves.
func (a *Aggregator) StudentAveragePercent(o Outcome, student string) (float64, error) {
	sum, count := 0.0, 0
	for _, assoc := range o.Associations {
		m, err := a.AssociationMaximum(assoc)
		if err != nil {
			return 0, err
		}
		if m == 0 {
			continue
		}
		v, err := a.AssociationPoints(assoc, student)
		if err != nil {
			return 0, err
		}
		if p, ok := v.Points(); ok {
			sum += p / m
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return sum / float64(count), nil
}

// StudentOutcomePercent is StudentPoints over MaxPoints, 0 when the outcome
// has no points available.
func (a *Aggregator) StudentOutcomePercent(o Outcome, student string) (float64, error) {
	maxPts, err := a.MaxPoints(o)
	if err != nil {
		return 0, err
	}
	if maxPts == 0 {
		return 0, nil
	}
	pts, err := a.StudentPoints(o, student)
	if err != nil {
		return 0, err
	}
	return pts / maxPts, nil
}

// RatingLevel returns the competency tag of the rubric rating the student
// received. Associations not naming a rubric criterion have no tag.
func (a *Aggregator) RatingLevel(assoc Association, student string) (course.Competency, error) {
	t, err := a.resolve(assoc)
	if err != nil {
		return course.CompetencyUnknown, err
	}
	if t.sel.Kind() != grading.KindCriterion {
		return course.CompetencyUnknown, nil
	}
	return grading.RatingLevel(t.sel.Assignment.Rubric, t.sel.Criterion, student), nil
}

// AssociationsExist reports whether every association of o resolves.
func (a *Aggregator) AssociationsExist(o Outcome) bool {
	return len(a.MissingAssociations(o)) == 0
}

// MissingAssociations lists the associations of o that do not resolve.
func (a *Aggregator) MissingAssociations(o Outcome) []Association {
	var missing []Association
	for _, assoc := range o.Associations {
		if _, err := a.resolve(assoc); err != nil {
			missing = append(missing, assoc)
		}
	}
	return missing
}
