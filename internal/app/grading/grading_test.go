package grading

import (
	"testing"

	"learnhub_backend/internal/domain/model"
)

func threeQuestionKey() []model.Question {
	return []model.Question{
		{ID: "q1", CorrectOption: "A"},
		{ID: "q2", CorrectOption: "B"},
		{ID: "q3", CorrectOption: "A"},
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		name        string
		questions   []model.Question
		sheet       AnswerSheet
		wantScore   int
		wantCorrect []bool
	}{
		{
			name:        "two of three correct",
			questions:   threeQuestionKey(),
			sheet:       AnswerSheet{"q1": "A", "q2": "C", "q3": "A"},
			wantScore:   2,
			wantCorrect: []bool{true, false, true},
		},
		{
			name:        "all correct",
			questions:   threeQuestionKey(),
			sheet:       AnswerSheet{"q1": "A", "q2": "B", "q3": "A"},
			wantScore:   3,
			wantCorrect: []bool{true, true, true},
		},
		{
			name:        "empty sheet scores zero",
			questions:   threeQuestionKey(),
			sheet:       AnswerSheet{},
			wantScore:   0,
			wantCorrect: []bool{false, false, false},
		},
		{
			name:        "nil sheet scores zero",
			questions:   threeQuestionKey(),
			sheet:       nil,
			wantScore:   0,
			wantCorrect: []bool{false, false, false},
		},
		{
			name:        "partial sheet grades missing as incorrect",
			questions:   threeQuestionKey(),
			sheet:       AnswerSheet{"q2": "B"},
			wantScore:   1,
			wantCorrect: []bool{false, true, false},
		},
		{
			name:        "foreign question ids are ignored",
			questions:   threeQuestionKey(),
			sheet:       AnswerSheet{"q1": "A", "other-test-q": "A", "q99": "B"},
			wantScore:   1,
			wantCorrect: []bool{true, false, false},
		},
		{
			name:        "empty selection counts as unanswered",
			questions:   threeQuestionKey(),
			sheet:       AnswerSheet{"q1": "", "q2": "B"},
			wantScore:   1,
			wantCorrect: []bool{false, true, false},
		},
		{
			name:        "comparison is exact",
			questions:   threeQuestionKey(),
			sheet:       AnswerSheet{"q1": "a", "q2": " B", "q3": "A"},
			wantScore:   1,
			wantCorrect: []bool{false, false, true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			score, graded := Grade(tc.questions, tc.sheet)
			if score != tc.wantScore {
				t.Fatalf("expected score %d, got %d", tc.wantScore, score)
			}
			if len(graded) != len(tc.questions) {
				t.Fatalf("expected %d graded answers, got %d", len(tc.questions), len(graded))
			}
			for i, g := range graded {
				if g.QuestionID != tc.questions[i].ID {
					t.Fatalf("answer %d: expected question %s, got %s", i, tc.questions[i].ID, g.QuestionID)
				}
				if g.IsCorrect != tc.wantCorrect[i] {
					t.Fatalf("answer %d: expected is_correct=%v, got %v", i, tc.wantCorrect[i], g.IsCorrect)
				}
			}
		})
	}
}

func TestGradeRecordsSelections(t *testing.T) {
	_, graded := Grade(threeQuestionKey(), AnswerSheet{"q1": "D", "q3": ""})

	if graded[0].SelectedOption == nil || *graded[0].SelectedOption != "D" {
		t.Fatalf("expected q1 selection D, got %v", graded[0].SelectedOption)
	}
	if graded[1].SelectedOption != nil {
		t.Fatalf("expected q2 unanswered, got %q", *graded[1].SelectedOption)
	}
	if graded[2].SelectedOption != nil {
		t.Fatalf("expected empty q3 selection recorded as unanswered, got %q", *graded[2].SelectedOption)
	}
}

func TestGradeScoreBounds(t *testing.T) {
	questions := threeQuestionKey()
	sheets := []AnswerSheet{
		nil,
		{"q1": "A", "q2": "B", "q3": "A", "q4": "A"},
		{"q1": "X", "q2": "Y", "q3": "Z"},
	}
	for _, sheet := range sheets {
		score, _ := Grade(questions, sheet)
		if score < 0 || score > len(questions) {
			t.Fatalf("score %d out of bounds [0,%d] for sheet %v", score, len(questions), sheet)
		}
	}
}
