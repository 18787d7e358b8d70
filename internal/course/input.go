package course

// Input is a course snapshot as delivered by the upstream loader: assignment
// structure plus the score tables collected for one report run.
type Input struct {
	ID       string       `json:"id" validate:"required"`
	Name     string       `json:"name"`
	Students []Student    `json:"students" validate:"dive"`
	Teams    []Team       `json:"teams,omitempty" validate:"dive"`
	Groups   []GroupInput `json:"assignment_groups" validate:"dive"`
}

type Student struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name,omitempty"`
}

// Team is one student group of a group-graded assignment set.
type Team struct {
	ID      string   `json:"id"`
	Members []string `json:"members"`
}

type GroupInput struct {
	ID          string            `json:"id"`
	Name        string            `json:"name" validate:"required"`
	DropLowest  int               `json:"drop_lowest" validate:"min=0"`
	DropHighest int               `json:"drop_highest" validate:"min=0"`
	Assignments []AssignmentInput `json:"assignments" validate:"dive"`
}

type AssignmentInput struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name" validate:"required"`
	PointsPossible     float64 `json:"points_possible" validate:"min=0"`
	SubmissionRequired bool    `json:"submission_required"`
	// GroupAssignment with GradeIndividually unset means one grade is shared
	// by a team; only team members receive it.
	GroupAssignment   bool `json:"group_assignment"`
	GradeIndividually bool `json:"grade_group_students_individually"`

	Rubric          []CriterionInput      `json:"rubric,omitempty" validate:"dive"`
	QuestionGroups  []QuestionGroupInput  `json:"question_groups,omitempty" validate:"dive"`
	Submissions     []SubmissionInput     `json:"submissions,omitempty" validate:"dive"`
	QuizSubmissions []QuizSubmissionInput `json:"quiz_submissions,omitempty"`
}

type CriterionInput struct {
	ID              string        `json:"id" validate:"required"`
	Description     string        `json:"description" validate:"required"`
	LongDescription string        `json:"long_description,omitempty"`
	Points          float64       `json:"points" validate:"min=0"`
	Ratings         []RatingInput `json:"ratings,omitempty"`
}

type RatingInput struct {
	ID              string  `json:"id"`
	Description     string  `json:"description"`
	LongDescription string  `json:"long_description,omitempty"`
	Points          float64 `json:"points"`
}

type SubmissionInput struct {
	UserID string   `json:"user_id" validate:"required"`
	Score  *float64 `json:"score"`
	// Missing is the grading system's "missing" flag.
	Missing bool `json:"missing,omitempty"`
	// GradeMatches is false when the recorded grade belongs to an older attempt.
	GradeMatches     *bool                 `json:"grade_matches_current_submission,omitempty"`
	RubricAssessment map[string]RubricMark `json:"rubric_assessment,omitempty"`
}

// RubricMark is the assessment of one rubric criterion, keyed by criterion id.
type RubricMark struct {
	Points   *float64 `json:"points"`
	RatingID string   `json:"rating_id,omitempty"`
}

type QuestionGroupInput struct {
	ID             string  `json:"id" validate:"required"`
	Name           string  `json:"name" validate:"required"`
	BankTitle      string  `json:"bank_title,omitempty"`
	QuestionPoints float64 `json:"question_points" validate:"min=0"`
	PickCount      int     `json:"pick_count" validate:"min=0"`
	// Scores holds pre-computed per-student sums, keyed by student id.
	Scores map[string]float64 `json:"scores,omitempty"`
}

type QuizSubmissionInput struct {
	UserID    string           `json:"user_id"`
	Score     float64          `json:"score"`
	KeptScore float64          `json:"kept_score"`
	Questions []QuestionResult `json:"questions"`
}

type QuestionResult struct {
	QuestionID string `json:"question_id"`
	GroupID    string `json:"quiz_group_id"`
	// Correct is nil when the question was not answered.
	Correct *bool `json:"correct"`
}
