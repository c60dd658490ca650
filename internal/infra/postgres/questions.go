package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dailyquest-service/internal/domain"
	"github.com/jackc/pgx/v4"
)

const questionColumns = `id, question_text, options, is_active, scheduled_date, created_at`

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var (
		q         domain.Question
		scheduled *time.Time
	)
	if err := row.Scan(&q.ID, &q.Text, &q.Options, &q.IsActive, &scheduled, &q.CreatedAt); err != nil {
		return domain.Question{}, err
	}
	q.ScheduledFor = periodFrom(scheduled)
	return q, nil
}

func (s *Store) ActiveQuestion(ctx context.Context) (domain.Question, bool, error) {
	q, err := scanQuestion(s.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM daily_questions WHERE is_active LIMIT 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, false, nil
	}
	if err != nil {
		return domain.Question{}, false, fmt.Errorf("active question: %w", err)
	}
	return q, true, nil
}

func (s *Store) RandomInactive(ctx context.Context) (domain.Question, bool, error) {
	q, err := scanQuestion(s.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM daily_questions WHERE NOT is_active ORDER BY random() LIMIT 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, false, nil
	}
	if err != nil {
		return domain.Question{}, false, fmt.Errorf("random question: %w", err)
	}
	return q, true, nil
}

// Activate relies on the partial unique index over is_active: a concurrent
// activation that slips past the NOT EXISTS guard fails with a unique violation.
func (s *Store) Activate(ctx context.Context, id int64, period domain.Period) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE daily_questions SET is_active = TRUE, scheduled_date = $2
		WHERE id = $1 AND NOT is_active
		  AND NOT EXISTS (SELECT 1 FROM daily_questions WHERE is_active)`,
		id, periodArg(period))
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("activate question: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) Deactivate(ctx context.Context, id int64, period domain.Period) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE daily_questions SET is_active = FALSE
		WHERE id = $1 AND is_active AND scheduled_date IS NOT DISTINCT FROM $2::date`,
		id, periodArg(period))
	if err != nil {
		return false, fmt.Errorf("deactivate question: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	q, err := scanQuestion(s.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM daily_questions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

func (s *Store) CreateQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO daily_questions (question_text, options) VALUES ($1, $2)
		RETURNING id, created_at`, q.Text, q.Options).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return domain.Question{}, fmt.Errorf("create question: %w", err)
	}
	q.IsActive = false
	q.ScheduledFor = domain.Period{}
	return q, nil
}

// DeleteQuestion removes the question; answers go with it through ON DELETE CASCADE.
func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM daily_questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+questionColumns+` FROM daily_questions ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	out := []domain.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
