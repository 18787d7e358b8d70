package outcome

import (
	"sort"

	"github.com/mind-engage/mindengage-outcomes/internal/course"
	"github.com/mind-engage/mindengage-outcomes/internal/grading"
)

// GroupResult is one student's aggregate over an assignment group.
type GroupResult struct {
	// Points is the bracketed result; Unknown while ungraded items could
	// still move the student across AttainmentBar.
	Points grading.Value
	// Min and Max are the kept sums with ungraded items counted as 0 and as
	// full marks.
	Min float64
	Max float64
	// MaxPossible is the sum of the maxima kept in the best-case selection.
	MaxPossible float64
}

type groupEntry struct {
	earned  float64
	maximum float64
}

// kept reports whether sorted index i survives the drop rule.
func kept(i, n, dropLowest, dropHighest int) bool {
	return i >= dropLowest && i < n-dropHighest
}

// AggregateGroup reduces every item of g to a single result for student.
// Empty groups and drop counts covering every item yield zero.
func AggregateGroup(src *grading.Source, g *course.AssignmentGroup, student string) GroupResult {
	items := g.Assignments()
	worst := make([]groupEntry, 0, len(items))
	best := make([]groupEntry, 0, len(items))
	for _, a := range items {
		sel := grading.Selector{Assignment: a}
		m := src.Maximum(sel)
		if p, ok := src.Score(sel, student).Points(); ok {
			worst = append(worst, groupEntry{earned: p, maximum: m})
			best = append(best, groupEntry{earned: p, maximum: m})
			continue
		}
		worst = append(worst, groupEntry{earned: 0, maximum: m})
		best = append(best, groupEntry{earned: m, maximum: m})
	}
	byEarned := func(list []groupEntry) func(i, j int) bool {
		return func(i, j int) bool { return list[i].earned < list[j].earned }
	}
	sort.SliceStable(worst, byEarned(worst))
	sort.SliceStable(best, byEarned(best))

	var res GroupResult
	n := len(items)
	for i := 0; i < n; i++ {
		if !kept(i, n, g.DropLowest, g.DropHighest) {
			continue
		}
		res.Min += worst[i].earned
		res.Max += best[i].earned
		res.MaxPossible += best[i].maximum
	}

	switch {
	case res.MaxPossible == 0:
		res.Points = grading.Known(0)
	case res.Min/res.MaxPossible >= AttainmentBar:
		res.Points = grading.Known(res.Min)
	case res.Max/res.MaxPossible < AttainmentBar:
		res.Points = grading.Known(res.Min)
	default:
		res.Points = grading.Unknown
	}
	return res
}

// GroupMaximum is the student-independent points available on g: item maxima
// sorted ascending with the drop rule applied by index.
func GroupMaximum(src *grading.Source, g *course.AssignmentGroup) float64 {
	items := g.Assignments()
	maxima := make([]float64, 0, len(items))
	for _, a := range items {
		maxima = append(maxima, src.Maximum(grading.Selector{Assignment: a}))
	}
	sort.Float64s(maxima)
	total := 0.0
	for i, m := range maxima {
		if kept(i, len(maxima), g.DropLowest, g.DropHighest) {
			total += m
		}
	}
	return total
}
