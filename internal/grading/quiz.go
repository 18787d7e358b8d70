package grading

// questionGroupStrategy scores quiz question groups. A student with no
// recorded sum scored nothing, so the result is never Unknown.
type questionGroupStrategy struct{}

func (questionGroupStrategy) Score(sel Selector, student string) Value {
	return Known(sel.QuestionGroup.StudentPoints(student))
}

func (questionGroupStrategy) Maximum(sel Selector) float64 {
	return sel.QuestionGroup.Maximum()
}
