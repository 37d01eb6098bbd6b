package model

// Options are stored as single letters; CorrectOption is always one of these.
const (
	OptionA = "A"
	OptionB = "B"
	OptionC = "C"
	OptionD = "D"
)

func ValidOption(o string) bool {
	switch o {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Test is immutable once created: no edit or delete path exists, which is
// also what makes the shareable-link view safe to cache.
type Test struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	OwnerID         string     `json:"owner_id"`
	ShareLink       string     `json:"share_link"`
	DurationMinutes int        `json:"duration_minutes"`
	CreatedAt       int64      `json:"created_at"`
	Questions       []Question `json:"questions,omitempty"`
}

type Question struct {
	ID            string `json:"id"`
	TestID        string `json:"test_id"`
	QuestionText  string `json:"question_text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option,omitempty"` // Teacher/grading view only
	SortOrder     int    `json:"sort_order"`
}

// TestView is the student-facing shape served when a test is resolved by its
// shareable link. It has no field for the answer key at all, so the key
// cannot leak through serialization.
type TestView struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	DurationMinutes int            `json:"duration_minutes"`
	Questions       []QuestionView `json:"questions"`
}

type QuestionView struct {
	ID           string `json:"id"`
	QuestionText string `json:"question_text"`
	OptionA      string `json:"option_a"`
	OptionB      string `json:"option_b"`
	OptionC      string `json:"option_c"`
	OptionD      string `json:"option_d"`
}
