package course

// Teams maps students to the team they belong to for group-graded work.
type Teams struct {
	member map[string]string
}

func NewTeams(ts []Team) Teams {
	t := Teams{member: map[string]string{}}
	for _, team := range ts {
		for _, m := range team.Members {
			t.member[m] = team.ID
		}
	}
	return t
}

func (t Teams) TeamOf(student string) (string, bool) {
	id, ok := t.member[student]
	return id, ok
}

func (t Teams) Empty() bool { return len(t.member) == 0 }
