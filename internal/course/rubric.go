package course

import "strings"

// Competency is the level tag carried by a rubric rating cell.
type Competency string

const (
	CompetencyExceeds      Competency = "E"
	CompetencyMeets        Competency = "M"
	CompetencyInsufficient Competency = "I"
	CompetencyNotAttempted Competency = "X"
	CompetencyUnknown      Competency = ""
)

type Rating struct {
	ID              string     `json:"id"`
	Description     string     `json:"description"`
	LongDescription string     `json:"long_description,omitempty"`
	Points          float64    `json:"points"`
	Level           Competency `json:"level"`
}

// Criterion is one rubric row. Ratings are ordered by points, highest first.
type Criterion struct {
	ID              string   `json:"id"`
	Description     string   `json:"description"`
	LongDescription string   `json:"long_description,omitempty"`
	Points          float64  `json:"points"`
	Ratings         []Rating `json:"ratings,omitempty"`
}

// Rubric holds the rubric rows of an assignment and the per-student marks.
type Rubric struct {
	Criteria []*Criterion

	scores  map[string]map[string]float64 // student -> criterion id -> points
	ratings map[string]map[string]string  // student -> criterion id -> rating id
}

func newRubric(in []CriterionInput) *Rubric {
	r := &Rubric{
		scores:  map[string]map[string]float64{},
		ratings: map[string]map[string]string{},
	}
	for _, c := range in {
		crit := &Criterion{
			ID:              c.ID,
			Description:     c.Description,
			LongDescription: c.LongDescription,
			Points:          c.Points,
		}
		for _, rt := range c.Ratings {
			crit.addOrdered(Rating{
				ID:              rt.ID,
				Description:     rt.Description,
				LongDescription: rt.LongDescription,
				Points:          rt.Points,
				Level:           InferCompetency(rt.Description, rt.LongDescription),
			})
		}
		r.Criteria = append(r.Criteria, crit)
	}
	return r
}

func (c *Criterion) addOrdered(rt Rating) {
	for i, existing := range c.Ratings {
		if rt.Points > existing.Points {
			c.Ratings = append(c.Ratings[:i], append([]Rating{rt}, c.Ratings[i:]...)...)
			return
		}
	}
	c.Ratings = append(c.Ratings, rt)
}

// Criterion looks a row up by its description.
func (r *Rubric) Criterion(name string) (*Criterion, bool) {
	if r == nil {
		return nil, false
	}
	for _, c := range r.Criteria {
		if c.Description == name {
			return c, true
		}
	}
	return nil, false
}

func (r *Rubric) criterionByID(id string) (*Criterion, bool) {
	for _, c := range r.Criteria {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// StudentScore returns the raw points a student received on one criterion.
func (r *Rubric) StudentScore(criterionID, student string) (float64, bool) {
	if r == nil {
		return 0, false
	}
	v, ok := r.scores[student][criterionID]
	return v, ok
}

// StudentSum is the sum of all criterion points a student received.
func (r *Rubric) StudentSum(student string) float64 {
	if r == nil {
		return 0
	}
	sum := 0.0
	for _, v := range r.scores[student] {
		sum += v
	}
	return sum
}

// StudentRating returns the rating cell selected for a student on one criterion.
func (r *Rubric) StudentRating(criterionID, student string) (Rating, bool) {
	if r == nil {
		return Rating{}, false
	}
	id, ok := r.ratings[student][criterionID]
	if !ok {
		return Rating{}, false
	}
	c, ok := r.criterionByID(criterionID)
	if !ok {
		return Rating{}, false
	}
	for _, rt := range c.Ratings {
		if rt.ID == id {
			return rt, true
		}
	}
	return Rating{}, false
}

// setMarks records a student's rubric assessment. Points are clamped into
// [0, criterion points]; marks for unknown criteria are ignored.
func (r *Rubric) setMarks(student string, marks map[string]RubricMark) {
	for id, m := range marks {
		c, ok := r.criterionByID(id)
		if !ok {
			continue
		}
		if m.Points != nil {
			v := *m.Points
			if v < 0 {
				v = 0
			}
			if v > c.Points {
				v = c.Points
			}
			if r.scores[student] == nil {
				r.scores[student] = map[string]float64{}
			}
			r.scores[student][id] = v
		}
		if m.RatingID != "" {
			if r.ratings[student] == nil {
				r.ratings[student] = map[string]string{}
			}
			r.ratings[student][id] = m.RatingID
		}
	}
}

// InferCompetency derives a rating's level from its name, letting hashtags in
// the long description override it.
func InferCompetency(description, longDescription string) Competency {
	level := CompetencyUnknown
	switch strings.ToLower(strings.TrimSpace(description)) {
	case "full marks", "full credit", "proficient":
		level = CompetencyExceeds
	case "partial marks", "partial credit", "competent", "commpetent":
		level = CompetencyMeets
	case "no marks", "minimal marks", "minimal credit", "insufficient", "not proficient", "novice":
		level = CompetencyInsufficient
	case "missing", "not attempted":
		level = CompetencyNotAttempted
	}

	long := strings.ToLower(longDescription)
	switch {
	case strings.Contains(long, "#exceeds_competency"):
		level = CompetencyExceeds
	case strings.Contains(long, "#meets_competency"):
		level = CompetencyMeets
	case strings.Contains(long, "#insufficient_competency"):
		level = CompetencyInsufficient
	case strings.Contains(long, "#not_attempted"):
		level = CompetencyNotAttempted
	}
	return level
}
