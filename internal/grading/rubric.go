package grading

import "github.com/mind-engage/mindengage-outcomes/internal/course"

// RubricScaler rescales a rubric criterion so the criteria of an assignment
// add up to the final grade, which may have been adjusted after rubric
// assessment (late penalties, manual overrides).
type RubricScaler struct{}

// Scale returns raw × final / raw_sum for the targeted criterion.
//
// An unrated criterion is Unknown regardless of the other inputs. A zero raw
// sum scales to 0, and an Unknown final grade makes the result Unknown.
func (RubricScaler) Scale(r *course.Rubric, c *course.Criterion, student string, final Value) Value {
	if r == nil || c == nil {
		return Unknown
	}
	raw, ok := r.StudentScore(c.ID, student)
	if !ok {
		return Unknown
	}
	sum := r.StudentSum(student)
	if sum == 0 {
		return Known(0)
	}
	p, ok := final.Points()
	if !ok {
		return Unknown
	}
	return Known(raw * p / sum)
}

// RatingLevel reports the competency tag of the rating cell the student
// received on a criterion.
func RatingLevel(r *course.Rubric, c *course.Criterion, student string) course.Competency {
	if r == nil || c == nil {
		return course.CompetencyUnknown
	}
	rt, ok := r.StudentRating(c.ID, student)
	if !ok {
		return course.CompetencyUnknown
	}
	return rt.Level
}
