package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"learnhub_backend/internal/common"
	"learnhub_backend/internal/domain/model"
)

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	AddAnswers(ctx context.Context, tx *sql.Tx, answers []model.Answer) error
	UpdateSubmissionScore(ctx context.Context, tx *sql.Tx, submissionID string, score int) error
	FindLatestSubmission(ctx context.Context, testID, studentID string) (*model.Submission, error)
	GetAnswersBySubmissionID(ctx context.Context, submissionID string) ([]model.Answer, error)
	ListSubmissionsByTestID(ctx context.Context, testID string) ([]model.Submission, error)
}

type sqlSubmissionRepository struct {
	db *sql.DB
}

func NewSQLSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &sqlSubmissionRepository{db: db}
}

func (r *sqlSubmissionRepository) CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	query := `INSERT INTO test_submissions (id, test_id, student_id, score, time_taken_seconds, submitted_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, sub.ID, sub.TestID, sub.StudentID, sub.Score, sub.TimeTakenSeconds, sub.SubmittedAt)
	} else {
		_, err = r.db.ExecContext(ctx, query, sub.ID, sub.TestID, sub.StudentID, sub.Score, sub.TimeTakenSeconds, sub.SubmittedAt)
	}
	if err != nil {
		return fmt.Errorf("sqlSubmissionRepository.CreateSubmission: %w", err)
	}
	return nil
}

func (r *sqlSubmissionRepository) AddAnswers(ctx context.Context, tx *sql.Tx, answers []model.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO answers (id, submission_id, question_id, selected_option, is_correct)
	                                     VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("sqlSubmissionRepository.AddAnswers prepare: %w", err)
	}
	defer stmt.Close()

	for _, a := range answers {
		_, err := stmt.ExecContext(ctx, a.ID, a.SubmissionID, a.QuestionID, a.SelectedOption, a.IsCorrect)
		if err != nil {
			return fmt.Errorf("sqlSubmissionRepository.AddAnswers exec for question %s: %w", a.QuestionID, err)
		}
	}
	return nil
}

func (r *sqlSubmissionRepository) UpdateSubmissionScore(ctx context.Context, tx *sql.Tx, submissionID string, score int) error {
	query := `UPDATE test_submissions SET score = $1 WHERE id = $2`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, score, submissionID)
	} else {
		_, err = r.db.ExecContext(ctx, query, score, submissionID)
	}
	if err != nil {
		return fmt.Errorf("sqlSubmissionRepository.UpdateSubmissionScore: %w", err)
	}
	return nil
}

// FindLatestSubmission returns the most recent attempt for the pair.
// submitted_at has second resolution, so descending id breaks exact ties
// deterministically.
func (r *sqlSubmissionRepository) FindLatestSubmission(ctx context.Context, testID, studentID string) (*model.Submission, error) {
	query := `SELECT id, test_id, student_id, score, time_taken_seconds, submitted_at
	          FROM test_submissions WHERE test_id = $1 AND student_id = $2
	          ORDER BY submitted_at DESC, id DESC LIMIT 1`
	sub := &model.Submission{}
	err := r.db.QueryRowContext(ctx, query, testID, studentID).Scan(
		&sub.ID, &sub.TestID, &sub.StudentID, &sub.Score, &sub.TimeTakenSeconds, &sub.SubmittedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlSubmissionRepository.FindLatestSubmission: %w", err)
	}
	return sub, nil
}

func (r *sqlSubmissionRepository) GetAnswersBySubmissionID(ctx context.Context, submissionID string) ([]model.Answer, error) {
	query := `SELECT a.id, a.submission_id, a.question_id, a.selected_option, a.is_correct
	          FROM answers a
	          JOIN questions q ON a.question_id = q.id
	          WHERE a.submission_id = $1 ORDER BY q.sort_order ASC`
	rows, err := r.db.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("sqlSubmissionRepository.GetAnswersBySubmissionID query: %w", err)
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.SubmissionID, &a.QuestionID, &a.SelectedOption, &a.IsCorrect); err != nil {
			return nil, fmt.Errorf("sqlSubmissionRepository.GetAnswersBySubmissionID scan: %w", err)
		}
		answers = append(answers, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlSubmissionRepository.GetAnswersBySubmissionID rows.Err: %w", err)
	}
	return answers, nil
}

func (r *sqlSubmissionRepository) ListSubmissionsByTestID(ctx context.Context, testID string) ([]model.Submission, error) {
	query := `SELECT id, test_id, student_id, score, time_taken_seconds, submitted_at
	          FROM test_submissions WHERE test_id = $1
	          ORDER BY submitted_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, testID)
	if err != nil {
		return nil, fmt.Errorf("sqlSubmissionRepository.ListSubmissionsByTestID query: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(&s.ID, &s.TestID, &s.StudentID, &s.Score, &s.TimeTakenSeconds, &s.SubmittedAt); err != nil {
			return nil, fmt.Errorf("sqlSubmissionRepository.ListSubmissionsByTestID scan: %w", err)
		}
		subs = append(subs, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlSubmissionRepository.ListSubmissionsByTestID rows.Err: %w", err)
	}
	return subs, nil
}
