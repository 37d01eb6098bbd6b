package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/redis/go-redis/v9"

	"learnhub_backend/internal/app/grading"
	"learnhub_backend/internal/common"
	"learnhub_backend/internal/domain/model"
	"learnhub_backend/internal/domain/repository"
	"learnhub_backend/internal/platform/config"
)

type TestService struct {
	testRepo repository.TestRepository
	subRepo  repository.SubmissionRepository
	cache    *redis.Client // nil disables the take-view cache
	db       *sql.DB       // For transactions
}

func NewTestService(
	testRepo repository.TestRepository,
	subRepo repository.SubmissionRepository,
	cache *redis.Client,
	db *sql.DB,
) *TestService {
	return &TestService{
		testRepo: testRepo,
		subRepo:  subRepo,
		cache:    cache,
		db:       db,
	}
}

type CreateQuestionRequest struct {
	QuestionText  string `json:"question_text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option"`
}

type CreateTestRequest struct {
	Title           string                  `json:"title"`
	Description     string                  `json:"description"`
	DurationMinutes int                     `json:"duration_minutes"`
	Questions       []CreateQuestionRequest `json:"questions"`
}

// CreateTest persists the test and all of its questions as one transaction.
// A test row without its full question set must never become visible.
func (s *TestService) CreateTest(ctx context.Context, ownerID string, req CreateTestRequest) (*model.Test, error) {
	if req.Title == "" {
		return nil, common.Errorf("title is required: %w", common.ErrValidation)
	}
	if len(req.Questions) == 0 {
		return nil, common.Errorf("at least one question is required: %w", common.ErrValidation)
	}
	for i, q := range req.Questions {
		if q.QuestionText == "" || q.OptionA == "" || q.OptionB == "" || q.OptionC == "" || q.OptionD == "" {
			return nil, common.Errorf("question %d is missing text or options: %w", i+1, common.ErrValidation)
		}
		if !model.ValidOption(q.CorrectOption) {
			return nil, common.Errorf("question %d has invalid correct_option %q: %w", i+1, q.CorrectOption, common.ErrValidation)
		}
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = config.AppConfig.DefaultTestDurationMins
	}

	test := &model.Test{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Description:     req.Description,
		OwnerID:         ownerID,
		ShareLink:       slug.Make(req.Title) + "-" + uuid.NewString(),
		DurationMinutes: duration,
		CreatedAt:       time.Now().Unix(),
	}

	questions := make([]model.Question, 0, len(req.Questions))
	for i, q := range req.Questions {
		questions = append(questions, model.Question{
			ID:            uuid.NewString(),
			TestID:        test.ID,
			QuestionText:  q.QuestionText,
			OptionA:       q.OptionA,
			OptionB:       q.OptionB,
			OptionC:       q.OptionC,
			OptionD:       q.OptionD,
			CorrectOption: q.CorrectOption,
			SortOrder:     i + 1,
		})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if err := s.testRepo.CreateTest(ctx, tx, test); err != nil {
		return nil, common.Errorf("failed to create test: %w", err)
	}
	if err := s.testRepo.AddQuestions(ctx, tx, test.ID, questions); err != nil {
		return nil, common.Errorf("failed to add questions to test: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}

	test.Questions = questions
	return test, nil
}

// ResolveLink returns the student-facing view of a test. The view type has
// no answer-key field, and tests are immutable, so the cached entry never
// goes stale.
func (s *TestService) ResolveLink(ctx context.Context, link string) (*model.TestView, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cacheKey(link)).Result()
		if err == nil {
			var view model.TestView
			if json.Unmarshal([]byte(raw), &view) == nil {
				return &view, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("WARN: test view cache get failed for %s: %v", link, err)
		}
	}

	test, err := s.testRepo.FindTestByLink(ctx, link)
	if err != nil {
		return nil, err
	}
	questions, err := s.testRepo.GetQuestionsByTestID(ctx, test.ID)
	if err != nil {
		return nil, err
	}

	view := &model.TestView{
		ID:              test.ID,
		Title:           test.Title,
		Description:     test.Description,
		DurationMinutes: test.DurationMinutes,
		Questions:       make([]model.QuestionView, 0, len(questions)),
	}
	for _, q := range questions {
		view.Questions = append(view.Questions, model.QuestionView{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			OptionA:      q.OptionA,
			OptionB:      q.OptionB,
			OptionC:      q.OptionC,
			OptionD:      q.OptionD,
		})
	}

	if s.cache != nil {
		if buf, err := json.Marshal(view); err == nil {
			if err := s.cache.Set(ctx, cacheKey(link), buf, config.AppConfig.TestViewCacheTTL).Err(); err != nil {
				log.Printf("WARN: test view cache set failed for %s: %v", link, err)
			}
		}
	}
	return view, nil
}

func cacheKey(link string) string { return "test_view:" + link }

type SubmitTestRequest struct {
	Answers          map[string]string `json:"answers"`
	TimeTakenSeconds int               `json:"time_taken_seconds"`
}

// SubmitTest grades the answer sheet against the authoritative question list
// and persists submission, answers, and final score in one transaction.
// Duplicate attempts are allowed; each call writes an independent row.
func (s *TestService) SubmitTest(ctx context.Context, testID, studentID string, req SubmitTestRequest) (*model.Submission, error) {
	if req.TimeTakenSeconds < 0 {
		return nil, common.Errorf("time_taken_seconds must not be negative: %w", common.ErrValidation)
	}

	if _, err := s.testRepo.FindTestByID(ctx, testID); err != nil {
		return nil, common.Errorf("test not found: %w", err)
	}
	questions, err := s.testRepo.GetQuestionsByTestID(ctx, testID)
	if err != nil {
		return nil, common.Errorf("failed to load questions: %w", err)
	}
	if len(questions) == 0 {
		// Creation rejects zero-question tests, so this means the id does
		// not resolve to a gradable test. Nothing is persisted.
		return nil, common.Errorf("test has no questions: %w", common.ErrNotFound)
	}

	score, graded := grading.Grade(questions, req.Answers)

	sub := &model.Submission{
		ID:               uuid.NewString(),
		TestID:           testID,
		StudentID:        studentID,
		Score:            0, // finalized below, inside the same transaction
		TimeTakenSeconds: req.TimeTakenSeconds,
		SubmittedAt:      time.Now().Unix(),
	}

	answers := make([]model.Answer, 0, len(graded))
	for _, g := range graded {
		answers = append(answers, model.Answer{
			ID:             uuid.NewString(),
			SubmissionID:   sub.ID,
			QuestionID:     g.QuestionID,
			SelectedOption: g.SelectedOption,
			IsCorrect:      g.IsCorrect,
		})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.subRepo.CreateSubmission(ctx, tx, sub); err != nil {
		return nil, common.Errorf("failed to create submission: %w", err)
	}
	if err := s.subRepo.AddAnswers(ctx, tx, answers); err != nil {
		return nil, common.Errorf("failed to record answers: %w", err)
	}
	if err := s.subRepo.UpdateSubmissionScore(ctx, tx, sub.ID, score); err != nil {
		return nil, common.Errorf("failed to finalize score: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}

	sub.Score = score
	sub.Answers = answers
	return sub, nil
}

// GetResult returns the most recent graded submission for (test, student)
// with its answer rows. Reads are restricted to the submitting student, the
// test's owning teacher, or an admin.
func (s *TestService) GetResult(ctx context.Context, testID, studentID, callerID, callerRole string) (*model.Submission, error) {
	test, err := s.testRepo.FindTestByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	if !canViewResult(test, studentID, callerID, callerRole) {
		return nil, common.Errorf("not allowed to view this result: %w", common.ErrForbidden)
	}

	sub, err := s.subRepo.FindLatestSubmission(ctx, testID, studentID)
	if err != nil {
		return nil, err
	}
	answers, err := s.subRepo.GetAnswersBySubmissionID(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	sub.Answers = answers
	return sub, nil
}

func canViewResult(test *model.Test, studentID, callerID, callerRole string) bool {
	if callerRole == model.RoleAdmin {
		return true
	}
	if callerID == studentID {
		return true
	}
	return callerRole == model.RoleTeacher && test.OwnerID == callerID
}

// ListSubmissions lists every attempt for a test, newest first. Owning
// teacher or admin only.
func (s *TestService) ListSubmissions(ctx context.Context, testID, callerID, callerRole string) ([]model.Submission, error) {
	test, err := s.testRepo.FindTestByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	if callerRole != model.RoleAdmin && test.OwnerID != callerID {
		return nil, common.Errorf("not allowed to list submissions for this test: %w", common.ErrForbidden)
	}
	return s.subRepo.ListSubmissionsByTestID(ctx, testID)
}
