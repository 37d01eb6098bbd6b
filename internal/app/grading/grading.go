// Package grading scores a student's answer sheet against a test's answer
// key. It is pure: the submit transaction around it owns all persistence.
package grading

import "learnhub_backend/internal/domain/model"

// AnswerSheet maps question id to the option the student selected.
// It may be incomplete, and may contain ids that do not belong to the test.
type AnswerSheet map[string]string

type GradedAnswer struct {
	QuestionID     string
	SelectedOption *string // nil when the question was left unanswered
	IsCorrect      bool
}

// Grade walks the authoritative question list, so every question produces
// exactly one graded answer and foreign ids in the sheet are ignored. An
// empty selection counts as unanswered. Score is the number of exact matches
// against each question's correct option.
func Grade(questions []model.Question, sheet AnswerSheet) (int, []GradedAnswer) {
	score := 0
	graded := make([]GradedAnswer, 0, len(questions))

	for _, q := range questions {
		selected, answered := sheet[q.ID]
		if selected == "" {
			answered = false
		}

		ga := GradedAnswer{QuestionID: q.ID}
		if answered {
			s := selected
			ga.SelectedOption = &s
			ga.IsCorrect = selected == q.CorrectOption
		}
		if ga.IsCorrect {
			score++
		}
		graded = append(graded, ga)
	}
	return score, graded
}
