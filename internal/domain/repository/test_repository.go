package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"learnhub_backend/internal/common"
	"learnhub_backend/internal/domain/model"
)

type TestRepository interface {
	CreateTest(ctx context.Context, tx *sql.Tx, t *model.Test) error
	AddQuestions(ctx context.Context, tx *sql.Tx, testID string, questions []model.Question) error
	FindTestByID(ctx context.Context, id string) (*model.Test, error)
	FindTestByLink(ctx context.Context, link string) (*model.Test, error)
	GetQuestionsByTestID(ctx context.Context, testID string) ([]model.Question, error)
}

type sqlTestRepository struct {
	db *sql.DB
}

func NewSQLTestRepository(db *sql.DB) TestRepository {
	return &sqlTestRepository{db: db}
}

func (r *sqlTestRepository) CreateTest(ctx context.Context, tx *sql.Tx, t *model.Test) error {
	query := `INSERT INTO tests (id, title, description, owner_id, share_link, duration_minutes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, t.ID, t.Title, t.Description, t.OwnerID, t.ShareLink, t.DurationMinutes, t.CreatedAt)
	} else {
		_, err = r.db.ExecContext(ctx, query, t.ID, t.Title, t.Description, t.OwnerID, t.ShareLink, t.DurationMinutes, t.CreatedAt)
	}

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for share_link
			return fmt.Errorf("test with this share link already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("sqlTestRepository.CreateTest: %w", err)
	}
	return nil
}

func (r *sqlTestRepository) AddQuestions(ctx context.Context, tx *sql.Tx, testID string, questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO questions (id, test_id, question_text, option_a, option_b, option_c, option_d, correct_option, sort_order)
	                                     VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
	if err != nil {
		return fmt.Errorf("sqlTestRepository.AddQuestions prepare: %w", err)
	}
	defer stmt.Close()

	for i, q := range questions {
		q.SortOrder = i + 1 // Auto-assign sort order
		_, err := stmt.ExecContext(ctx, q.ID, testID, q.QuestionText, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption, q.SortOrder)
		if err != nil {
			return fmt.Errorf("sqlTestRepository.AddQuestions exec for question %s: %w", q.ID, err)
		}
	}
	return nil
}

func (r *sqlTestRepository) FindTestByID(ctx context.Context, id string) (*model.Test, error) {
	query := `SELECT id, title, description, owner_id, share_link, duration_minutes, created_at
	          FROM tests WHERE id = $1`
	t := &model.Test{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Title, &t.Description, &t.OwnerID, &t.ShareLink, &t.DurationMinutes, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlTestRepository.FindTestByID: %w", err)
	}
	return t, nil
}

func (r *sqlTestRepository) FindTestByLink(ctx context.Context, link string) (*model.Test, error) {
	query := `SELECT id, title, description, owner_id, share_link, duration_minutes, created_at
	          FROM tests WHERE share_link = $1`
	t := &model.Test{}
	err := r.db.QueryRowContext(ctx, query, link).Scan(
		&t.ID, &t.Title, &t.Description, &t.OwnerID, &t.ShareLink, &t.DurationMinutes, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlTestRepository.FindTestByLink: %w", err)
	}
	return t, nil
}

func (r *sqlTestRepository) GetQuestionsByTestID(ctx context.Context, testID string) ([]model.Question, error) {
	query := `SELECT id, test_id, question_text, option_a, option_b, option_c, option_d, correct_option, sort_order
	          FROM questions WHERE test_id = $1 ORDER BY sort_order ASC`
	rows, err := r.db.QueryContext(ctx, query, testID)
	if err != nil {
		return nil, fmt.Errorf("sqlTestRepository.GetQuestionsByTestID query: %w", err)
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.TestID, &q.QuestionText, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectOption, &q.SortOrder); err != nil {
			return nil, fmt.Errorf("sqlTestRepository.GetQuestionsByTestID scan: %w", err)
		}
		questions = append(questions, q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlTestRepository.GetQuestionsByTestID rows.Err: %w", err)
	}
	return questions, nil
}
