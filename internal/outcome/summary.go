package outcome

// LevelCounts is the class distribution of one association. The percentages
// are over rated students and absent when nobody was rated.
type LevelCounts struct {
	Label             string   `json:"label"`
	Exceeds           int      `json:"exceeds"`
	Meets             int      `json:"meets"`
	Insufficient      int      `json:"insufficient"`
	Unknown           int      `json:"unknown"`
	ExceedsShare      *float64 `json:"exceeds_share,omitempty"`
	MeetsShare        *float64 `json:"meets_share,omitempty"`
	InsufficientShare *float64 `json:"insufficient_share,omitempty"`
}

// Buckets counts students by percent: at least 0.9, 0.8, 0.7, or below.
type Buckets struct {
	AtLeast90 int `json:"at_least_90"`
	AtLeast80 int `json:"at_least_80"`
	AtLeast70 int `json:"at_least_70"`
	Below70   int `json:"below_70"`
}

func (b *Buckets) add(p float64) {
	switch {
	case p >= 0.9:
		b.AtLeast90++
	case p >= 0.8:
		b.AtLeast80++
	case p >= 0.7:
		b.AtLeast70++
	default:
		b.Below70++
	}
}

// Summary aggregates an outcome over a class.
type Summary struct {
	Associations   []LevelCounts `json:"associations"`
	PointsPercent  Buckets       `json:"points_percent"`
	AveragePercent Buckets       `json:"average_percent"`
	Attained       int           `json:"attained"`
	NotAttained    int           `json:"not_attained"`
	Undecided      int           `json:"undecided"`
	// PercentMet is Attained / (Attained + NotAttained); absent when no
	// student has a decided verdict.
	PercentMet *float64 `json:"percent_met,omitempty"`
}

func share(n, total int) *float64 {
	if total == 0 {
		return nil
	}
	v := float64(n) / float64(total)
	return &v
}

// Summarize builds the class summary from per-student results of one outcome.
func Summarize(o Outcome, rows []StudentOutcome) Summary {
	s := Summary{Associations: make([]LevelCounts, len(o.Associations))}
	for i, assoc := range o.Associations {
		s.Associations[i].Label = assoc.Label()
	}
	for _, r := range rows {
		for i, ar := range r.Associations {
			if i >= len(s.Associations) {
				break
			}
			c := &s.Associations[i]
			switch ar.Level {
			case LevelExceeds:
				c.Exceeds++
			case LevelMeets:
				c.Meets++
			case LevelInsufficient:
				c.Insufficient++
			default:
				c.Unknown++
			}
		}
		s.PointsPercent.add(r.Percent)
		s.AveragePercent.add(r.AveragePercent)
		switch r.Verdict {
		case Attained:
			s.Attained++
		case NotAttained:
			s.NotAttained++
		default:
			s.Undecided++
		}
	}
	for i := range s.Associations {
		c := &s.Associations[i]
		rated := c.Exceeds + c.Meets + c.Insufficient
		c.ExceedsShare = share(c.Exceeds, rated)
		c.MeetsShare = share(c.Meets, rated)
		c.InsufficientShare = share(c.Insufficient, rated)
	}
	s.PercentMet = share(s.Attained, s.Attained+s.NotAttained)
	return s
}
