package grading

import "github.com/mind-engage/mindengage-outcomes/internal/course"

// Kind is the granularity a selector targets.
type Kind int

const (
	KindNone Kind = iota
	KindAssignment
	KindCriterion
	KindQuestionGroup
)

func (k Kind) String() string {
	switch k {
	case KindAssignment:
		return "assignment"
	case KindCriterion:
		return "rubric_criterion"
	case KindQuestionGroup:
		return "question_group"
	default:
		return "none"
	}
}

// Selector is a resolved scoring target: a whole assignment, or one rubric
// row or quiz question group inside it.
type Selector struct {
	Assignment    *course.Assignment
	Criterion     *course.Criterion
	QuestionGroup *course.QuestionGroup
}

func (s Selector) Kind() Kind {
	switch {
	case s.Assignment == nil:
		return KindNone
	case s.Criterion != nil:
		return KindCriterion
	case s.QuestionGroup != nil:
		return KindQuestionGroup
	default:
		return KindAssignment
	}
}

// strategy scores one kind of selector.
type strategy interface {
	Score(sel Selector, student string) Value
	Maximum(sel Selector) float64
}

// Source resolves earned and maximum points for a selector, routing by kind.
type Source struct {
	strategies map[Kind]strategy
}

func NewSource() *Source {
	whole := assignmentStrategy{}
	return &Source{
		strategies: map[Kind]strategy{
			KindAssignment:    whole,
			KindCriterion:     criterionStrategy{whole: whole, scaler: RubricScaler{}},
			KindQuestionGroup: questionGroupStrategy{},
		},
	}
}

// Score returns the points the student earned on the target.
// An unresolvable selector scores Unknown.
func (s *Source) Score(sel Selector, student string) Value {
	st, ok := s.strategies[sel.Kind()]
	if !ok {
		return Unknown
	}
	return st.Score(sel, student)
}

// Maximum returns the points available on the target; 0 when unresolvable.
func (s *Source) Maximum(sel Selector) float64 {
	st, ok := s.strategies[sel.Kind()]
	if !ok {
		return 0
	}
	return st.Maximum(sel)
}

type assignmentStrategy struct{}

func (assignmentStrategy) Score(sel Selector, student string) Value {
	sub, ok := sel.Assignment.Submission(student)
	if !ok || sub.Score == nil {
		return Unknown
	}
	if sel.Assignment.SubmissionRequired && sub.Missing {
		return Unknown
	}
	return Known(*sub.Score)
}

func (assignmentStrategy) Maximum(sel Selector) float64 {
	return sel.Assignment.PointsPossible
}

type criterionStrategy struct {
	whole  assignmentStrategy
	scaler RubricScaler
}

func (s criterionStrategy) Score(sel Selector, student string) Value {
	final := s.whole.Score(Selector{Assignment: sel.Assignment}, student)
	return s.scaler.Scale(sel.Assignment.Rubric, sel.Criterion, student, final)
}

func (criterionStrategy) Maximum(sel Selector) float64 {
	return sel.Criterion.Points
}
