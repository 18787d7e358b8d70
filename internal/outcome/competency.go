package outcome

import (
	"fmt"

	"github.com/mind-engage/mindengage-outcomes/internal/grading"
)

// Level is a per-association competency (KPI) classification.
type Level int

const (
	LevelUnknown Level = iota
	LevelInsufficient
	LevelMeets
	LevelExceeds
)

// Symbol is the report code: E, A, I or X.
func (l Level) Symbol() string {
	switch l {
	case LevelExceeds:
		return "E"
	case LevelMeets:
		return "A"
	case LevelInsufficient:
		return "I"
	default:
		return "X"
	}
}

func (l Level) String() string {
	switch l {
	case LevelExceeds:
		return "exceeds"
	case LevelMeets:
		return "meets"
	case LevelInsufficient:
		return "insufficient"
	default:
		return "unknown"
	}
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.Symbol()), nil }

func (l *Level) UnmarshalText(b []byte) error {
	switch string(b) {
	case "E":
		*l = LevelExceeds
	case "A":
		*l = LevelMeets
	case "I":
		*l = LevelInsufficient
	case "X":
		*l = LevelUnknown
	default:
		return fmt.Errorf("unknown competency level %q", b)
	}
	return nil
}

// Classify maps a percent to a level. Thresholds are used as given; normalize
// them first.
func Classify(percent grading.Value, t Thresholds) Level {
	p, ok := percent.Points()
	switch {
	case !ok:
		return LevelUnknown
	case p >= t.Exceeds:
		return LevelExceeds
	case p >= t.Demonstrates:
		return LevelMeets
	default:
		return LevelInsufficient
	}
}

// Verdict is the per-student attainment decision for an outcome.
type Verdict int

const (
	Indeterminate Verdict = iota
	Attained
	NotAttained
)

func (v Verdict) String() string {
	switch v {
	case Attained:
		return "Attained"
	case NotAttained:
		return "Not Attained"
	default:
		return "-"
	}
}

func (v Verdict) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *Verdict) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Attained":
		*v = Attained
	case "Not Attained":
		*v = NotAttained
	case "-":
		*v = Indeterminate
	default:
		return fmt.Errorf("unknown verdict %q", b)
	}
	return nil
}

// Attainment decides a verdict from the association levels of one student.
// Unknown levels count against the student when testing for attainment and
// for the student when testing for failure.
func Attainment(levels []Level) Verdict {
	if len(levels) == 0 {
		return Indeterminate
	}
	var demonstrated, unknown int
	for _, l := range levels {
		switch l {
		case LevelExceeds, LevelMeets:
			demonstrated++
		case LevelUnknown:
			unknown++
		}
	}
	total := float64(len(levels))
	switch {
	case float64(demonstrated)/total >= AttainmentBar:
		return Attained
	case float64(demonstrated+unknown)/total < AttainmentBar:
		return NotAttained
	default:
		return Indeterminate
	}
}
