package model

// Submission is one student's completed attempt at a test. Score is the
// count of correct answers and is finalized inside the same transaction
// that writes the answer rows.
type Submission struct {
	ID               string   `json:"id"`
	TestID           string   `json:"test_id"`
	StudentID        string   `json:"student_id"`
	Score            int      `json:"score"`
	TimeTakenSeconds int      `json:"time_taken_seconds"`
	SubmittedAt      int64    `json:"submitted_at"`
	Answers          []Answer `json:"answers,omitempty"`
}

// Answer records what the student selected for one question, if anything.
// Every question of the test gets a row, answered or not.
type Answer struct {
	ID             string  `json:"id"`
	SubmissionID   string  `json:"submission_id"`
	QuestionID     string  `json:"question_id"`
	SelectedOption *string `json:"selected_option"` // nil when unanswered
	IsCorrect      bool    `json:"is_correct"`
}
