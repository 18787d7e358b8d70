// Package outcome scores learning outcomes: it resolves outcome associations
// against a course snapshot, aggregates assignment groups under their drop
// rules and classifies the resulting percentages into competency levels.
package outcome

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultExceeds      = 0.90
	DefaultDemonstrates = 0.70

	// AttainmentBar is the fixed share of evidence used both to bracket an
	// assignment group with ungraded items and to decide an outcome verdict.
	// It does not follow the per-association thresholds.
	AttainmentBar = 0.70
)

type Thresholds struct {
	Exceeds      float64 `json:"exceeds_threshold" yaml:"exceeds_threshold"`
	Demonstrates float64 `json:"demonstrates_threshold" yaml:"demonstrates_threshold"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Exceeds: DefaultExceeds, Demonstrates: DefaultDemonstrates}
}

// Valid reports whether both thresholds lie in [0,1] with demonstrates below
// exceeds.
func (t Thresholds) Valid() bool {
	return t.Demonstrates >= 0 && t.Exceeds <= 1 && t.Demonstrates < t.Exceeds
}

// NormalizeThresholds resets an invalid pair to the defaults.
func NormalizeThresholds(t Thresholds) Thresholds {
	if !t.Valid() {
		return DefaultThresholds()
	}
	return t
}

// Association points an outcome at a scored target. Only AssignmentGroup is
// required; each further field narrows the target.
type Association struct {
	AssignmentGroup string `json:"assignment_group" yaml:"assignment_group" validate:"required"`
	Assignment      string `json:"assignment,omitempty" yaml:"assignment,omitempty" validate:"required_with=RubricCriterion QuestionGroup"`
	RubricCriterion string `json:"rubric_criterion,omitempty" yaml:"rubric_criterion,omitempty" validate:"excluded_with=QuestionGroup"`
	QuestionGroup   string `json:"question_group,omitempty" yaml:"question_group,omitempty" validate:"required_with=QuestionBank"`
	QuestionBank    string `json:"question_bank,omitempty" yaml:"question_bank,omitempty"`

	ExceedsThreshold      float64 `json:"exceeds_threshold" yaml:"exceeds_threshold"`
	DemonstratesThreshold float64 `json:"demonstrates_threshold" yaml:"demonstrates_threshold"`
}

// unsetThreshold stands in for a threshold key missing from a decoded
// document. It fails Valid, so the pair falls back to the defaults.
const unsetThreshold = -1

// association has the fields of Association without its decoders.
type association Association

func (a *Association) UnmarshalJSON(b []byte) error {
	v := association{ExceedsThreshold: unsetThreshold, DemonstratesThreshold: unsetThreshold}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*a = Association(v)
	return nil
}

func (a *Association) UnmarshalYAML(n *yaml.Node) error {
	v := association{ExceedsThreshold: unsetThreshold, DemonstratesThreshold: unsetThreshold}
	if err := n.Decode(&v); err != nil {
		return err
	}
	*a = Association(v)
	return nil
}

func (a Association) Thresholds() Thresholds {
	return Thresholds{Exceeds: a.ExceedsThreshold, Demonstrates: a.DemonstratesThreshold}
}

// Normalized returns a copy with invalid thresholds reset to the defaults.
func (a Association) Normalized() Association {
	t := NormalizeThresholds(a.Thresholds())
	a.ExceedsThreshold, a.DemonstratesThreshold = t.Exceeds, t.Demonstrates
	return a
}

// Name is the most specific part of the selector.
func (a Association) Name() string {
	switch {
	case a.RubricCriterion != "":
		return a.RubricCriterion
	case a.QuestionGroup != "":
		if a.QuestionBank != "" {
			return a.QuestionGroup + " -- " + a.QuestionBank
		}
		return a.QuestionGroup
	case a.Assignment != "":
		return a.Assignment
	default:
		return a.AssignmentGroup
	}
}

// Label is the column heading used in reports.
func (a Association) Label() string {
	switch {
	case a.Assignment == "":
		return "Assignment Group: " + a.AssignmentGroup
	case a.RubricCriterion != "":
		return a.Assignment + ", rubric criterion: " + a.RubricCriterion
	case a.QuestionGroup != "":
		var sb strings.Builder
		sb.WriteString(a.Assignment)
		sb.WriteString(", question group: ")
		sb.WriteString(a.QuestionGroup)
		if a.QuestionBank != "" {
			sb.WriteString(" -- ")
			sb.WriteString(a.QuestionBank)
		}
		return sb.String()
	default:
		return a.Assignment
	}
}

// Matches reports whether both associations select the same target.
// Thresholds are ignored.
func (a Association) Matches(o Association) bool {
	return a.AssignmentGroup == o.AssignmentGroup &&
		a.Assignment == o.Assignment &&
		a.RubricCriterion == o.RubricCriterion &&
		a.QuestionGroup == o.QuestionGroup &&
		a.QuestionBank == o.QuestionBank
}

type Outcome struct {
	Title        string        `json:"title" yaml:"title" validate:"required"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
	Associations []Association `json:"associations" yaml:"associations" validate:"dive"`
}

// Normalized normalizes thresholds and drops duplicate associations, keeping
// the first occurrence.
func (o Outcome) Normalized() Outcome {
	out := Outcome{Title: o.Title, Description: o.Description}
	for _, a := range o.Associations {
		if indexOf(out.Associations, a) >= 0 {
			continue
		}
		out.Associations = append(out.Associations, a.Normalized())
	}
	return out
}

// Find returns the index of the association selecting the same target, or -1.
func (o Outcome) Find(a Association) int {
	return indexOf(o.Associations, a)
}

func indexOf(list []Association, a Association) int {
	for i := range list {
		if list[i].Matches(a) {
			return i
		}
	}
	return -1
}

// NormalizeOutcomes applies Outcome.Normalized to a whole document.
func NormalizeOutcomes(list []Outcome) []Outcome {
	out := make([]Outcome, 0, len(list))
	for _, o := range list {
		out = append(out, o.Normalized())
	}
	return out
}
