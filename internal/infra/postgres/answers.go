package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dailyquest-service/internal/app"
	"dailyquest-service/internal/domain"
	"github.com/jackc/pgx/v4"
)

// RecordAnswer upserts the answer and steps the author's streak in one
// transaction. The user row is locked first so concurrent submissions by the
// same user serialize on it.
func (s *Store) RecordAnswer(ctx context.Context, a domain.Answer, step app.StreakStep) (domain.Answer, domain.UserStreak, error) {
	var streak domain.UserStreak
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		cur, err := lockStreak(ctx, tx, a.UserID)
		if err != nil {
			return err
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO user_answers (user_id, question_id, selected_option, answer_text)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, question_id) DO UPDATE
			SET selected_option = EXCLUDED.selected_option,
			    answer_text = EXCLUDED.answer_text,
			    updated_at = NOW()
			RETURNING id, created_at, updated_at`,
			a.UserID, a.QuestionID, a.Option, a.Text).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
		if isForeignKeyViolation(err) {
			return domain.ErrQuestionNotFound
		}
		if err != nil {
			return fmt.Errorf("upsert answer: %w", err)
		}
		streak, err = saveStreak(ctx, tx, a.UserID, cur, step(cur))
		return err
	})
	if err != nil {
		return domain.Answer{}, domain.UserStreak{}, err
	}
	return a, streak, nil
}

func (s *Store) FindAnswer(ctx context.Context, userID, questionID int64) (domain.Answer, bool, error) {
	a := domain.Answer{UserID: userID, QuestionID: questionID}
	err := s.pool.QueryRow(ctx, `
		SELECT id, selected_option, answer_text, created_at, updated_at
		FROM user_answers WHERE user_id = $1 AND question_id = $2`,
		userID, questionID).Scan(&a.ID, &a.Option, &a.Text, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Answer{}, false, nil
	}
	if err != nil {
		return domain.Answer{}, false, fmt.Errorf("find answer: %w", err)
	}
	return a, true, nil
}

func (s *Store) CountVotes(ctx context.Context, questionID int64) (map[int]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT selected_option, COUNT(*) FROM user_answers
		WHERE question_id = $1 GROUP BY selected_option`, questionID)
	if err != nil {
		return nil, fmt.Errorf("count votes: %w", err)
	}
	defer rows.Close()
	counts := map[int]int{}
	for rows.Next() {
		var option, n int
		if err := rows.Scan(&option, &n); err != nil {
			return nil, fmt.Errorf("scan votes: %w", err)
		}
		counts[option] = n
	}
	return counts, rows.Err()
}

func (s *Store) CountAnswers(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_answers WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count answers: %w", err)
	}
	return n, nil
}

func (s *Store) RecentAnswers(ctx context.Context, userID int64, limit int) ([]domain.AnswerHistoryEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.question_id, q.question_text, a.selected_option, a.answer_text, a.updated_at
		FROM user_answers a
		JOIN daily_questions q ON q.id = a.question_id
		WHERE a.user_id = $1
		ORDER BY a.updated_at DESC, a.id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent answers: %w", err)
	}
	defer rows.Close()
	out := []domain.AnswerHistoryEntry{}
	for rows.Next() {
		var e domain.AnswerHistoryEntry
		if err := rows.Scan(&e.AnswerID, &e.QuestionID, &e.QuestionText, &e.Option, &e.Text, &e.AnsweredAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Compatibility(ctx context.Context, userA, userB int64) (int, int, error) {
	var matching, common int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE a.selected_option = b.selected_option), COUNT(*)
		FROM user_answers a
		JOIN user_answers b ON b.question_id = a.question_id
		WHERE a.user_id = $1 AND b.user_id = $2`, userA, userB).Scan(&matching, &common)
	if err != nil {
		return 0, 0, fmt.Errorf("compatibility: %w", err)
	}
	return matching, common, nil
}

func lockStreak(ctx context.Context, tx pgx.Tx, userID int64) (domain.UserStreak, error) {
	var (
		s    domain.UserStreak
		last *time.Time
	)
	err := tx.QueryRow(ctx, `
		SELECT current_streak, max_streak, last_answered_date
		FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&s.Current, &s.Max, &last)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserStreak{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.UserStreak{}, fmt.Errorf("lock streak: %w", err)
	}
	s.LastAnswered = periodFrom(last)
	return s, nil
}

// saveStreak writes next unless it equals cur.
func saveStreak(ctx context.Context, tx pgx.Tx, userID int64, cur, next domain.UserStreak) (domain.UserStreak, error) {
	if next.Current == cur.Current && next.Max == cur.Max && next.LastAnswered.Equal(cur.LastAnswered) {
		return cur, nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE users SET current_streak = $2, max_streak = $3, last_answered_date = $4
		WHERE id = $1`, userID, next.Current, next.Max, periodArg(next.LastAnswered))
	if err != nil {
		return domain.UserStreak{}, fmt.Errorf("save streak: %w", err)
	}
	return next, nil
}
