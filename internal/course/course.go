// Package course holds the immutable course snapshot the scoring engine reads:
// assignment groups, graded items, rubrics, quiz question groups and the
// per-student score tables collected for one report run.
package course

import (
	"errors"
	"fmt"
	"sort"
)

var ErrInvalidSnapshot = errors.New("invalid course snapshot")

// Course is read-only once Build returns.
type Course struct {
	ID       string
	Name     string
	Students []Student

	groups []*AssignmentGroup
}

type AssignmentGroup struct {
	ID          string
	Name        string
	DropLowest  int
	DropHighest int

	items []*Assignment
}

// Assignment is a graded item of an assignment group.
type Assignment struct {
	ID                 string
	Name               string
	PointsPossible     float64
	SubmissionRequired bool
	GradedAsGroup      bool
	Rubric             *Rubric
	QuestionGroups     []*QuestionGroup

	grades map[string]Submission
}

// Submission is one student's grade record on an assignment.
type Submission struct {
	Score   *float64
	Missing bool
}

// QuestionGroup is a quiz question group, optionally drawn from a bank.
type QuestionGroup struct {
	ID             string
	Name           string
	BankTitle      string
	QuestionPoints float64
	PickCount      int

	scores map[string]float64
}

func (c *Course) Groups() []*AssignmentGroup { return c.groups }

// Group looks an assignment group up by name.
func (c *Course) Group(name string) (*AssignmentGroup, bool) {
	for _, g := range c.groups {
		if g.Name == name {
			return g, true
		}
	}
	return nil, false
}

// StudentIDs returns the enrolled student ids, sorted.
func (c *Course) StudentIDs() []string {
	ids := make([]string, 0, len(c.Students))
	for _, s := range c.Students {
		ids = append(ids, s.ID)
	}
	sort.Strings(ids)
	return ids
}

func (g *AssignmentGroup) Assignments() []*Assignment { return g.items }

func (g *AssignmentGroup) Assignment(name string) (*Assignment, bool) {
	for _, a := range g.items {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

func (a *Assignment) Submission(student string) (Submission, bool) {
	s, ok := a.grades[student]
	return s, ok
}

// QuestionGroup finds a question group by name. When bank is non-empty the
// group must also be drawn from a bank with that title.
func (a *Assignment) QuestionGroup(name, bank string) (*QuestionGroup, bool) {
	for _, q := range a.QuestionGroups {
		if q.Matches(name, bank) {
			return q, true
		}
	}
	return nil, false
}

func (q *QuestionGroup) Matches(name, bank string) bool {
	if q.Name != name {
		return false
	}
	return bank == "" || q.BankTitle == bank
}

// Maximum is the points a student can earn on the group.
func (q *QuestionGroup) Maximum() float64 {
	return q.QuestionPoints * float64(q.PickCount)
}

// StudentPoints returns the student's summed points; absent students score 0.
func (q *QuestionGroup) StudentPoints(student string) float64 {
	return q.scores[student]
}

// Build turns a loader snapshot into an immutable Course, applying the ingest
// filters with the teams listed in the snapshot.
func Build(in Input) (*Course, error) {
	return BuildWithTeams(in, NewTeams(in.Teams))
}

// BuildWithTeams is Build with an explicit team lookup.
func BuildWithTeams(in Input, teams Teams) (*Course, error) {
	if in.ID == "" {
		return nil, fmt.Errorf("%w: missing course id", ErrInvalidSnapshot)
	}
	c := &Course{ID: in.ID, Name: in.Name, Students: append([]Student(nil), in.Students...)}
	seen := map[string]bool{}
	for _, gi := range in.Groups {
		if gi.Name == "" {
			return nil, fmt.Errorf("%w: assignment group %q has no name", ErrInvalidSnapshot, gi.ID)
		}
		if seen[gi.Name] {
			return nil, fmt.Errorf("%w: duplicate assignment group %q", ErrInvalidSnapshot, gi.Name)
		}
		seen[gi.Name] = true
		if gi.DropLowest < 0 || gi.DropHighest < 0 {
			return nil, fmt.Errorf("%w: negative drop count in group %q", ErrInvalidSnapshot, gi.Name)
		}
		g := &AssignmentGroup{
			ID:          gi.ID,
			Name:        gi.Name,
			DropLowest:  gi.DropLowest,
			DropHighest: gi.DropHighest,
		}
		for _, ai := range gi.Assignments {
			g.items = append(g.items, buildAssignment(ai, teams))
		}
		c.groups = append(c.groups, g)
	}
	return c, nil
}

func buildAssignment(in AssignmentInput, teams Teams) *Assignment {
	a := &Assignment{
		ID:                 in.ID,
		Name:               in.Name,
		PointsPossible:     in.PointsPossible,
		SubmissionRequired: in.SubmissionRequired,
		GradedAsGroup:      in.GroupAssignment && !in.GradeIndividually,
		grades:             map[string]Submission{},
	}
	if len(in.Rubric) > 0 {
		a.Rubric = newRubric(in.Rubric)
	}

	for _, s := range in.Submissions {
		if s.GradeMatches != nil && !*s.GradeMatches {
			continue
		}
		if a.GradedAsGroup && !teams.Empty() {
			if _, ok := teams.TeamOf(s.UserID); !ok {
				continue
			}
		}
		a.grades[s.UserID] = Submission{Score: s.Score, Missing: s.Missing}
		if a.Rubric != nil && len(s.RubricAssessment) > 0 {
			a.Rubric.setMarks(s.UserID, s.RubricAssessment)
		}
	}

	for _, qi := range in.QuestionGroups {
		q := &QuestionGroup{
			ID:             qi.ID,
			Name:           qi.Name,
			BankTitle:      qi.BankTitle,
			QuestionPoints: qi.QuestionPoints,
			PickCount:      qi.PickCount,
			scores:         map[string]float64{},
		}
		for student, v := range qi.Scores {
			q.scores[student] = v
		}
		deriveQuestionScores(q, in.QuizSubmissions)
		a.QuestionGroups = append(a.QuestionGroups, q)
	}
	return a
}

// deriveQuestionScores sums question_points for each correct answer in the
// group. Only the kept attempt counts. Pre-computed sums win.
func deriveQuestionScores(q *QuestionGroup, subs []QuizSubmissionInput) {
	for _, s := range subs {
		if s.Score != s.KeptScore {
			continue
		}
		if _, ok := q.scores[s.UserID]; ok {
			continue
		}
		answered := false
		correct := 0
		for _, r := range s.Questions {
			if r.GroupID != q.ID || r.Correct == nil {
				continue
			}
			answered = true
			if *r.Correct {
				correct++
			}
		}
		if answered {
			q.scores[s.UserID] = q.QuestionPoints * float64(correct)
		}
	}
}
