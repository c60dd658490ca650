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

const userColumns = `id, username, email, password_hash, is_admin,
	current_streak, max_streak, last_answered_date,
	privacy_friends, privacy_answers, created_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u                domain.User
		last             *time.Time
		friends, answers string
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin,
		&u.Streak.Current, &u.Streak.Max, &last, &friends, &answers, &u.CreatedAt)
	if err != nil {
		return domain.User{}, err
	}
	u.Streak.LastAnswered = periodFrom(last)
	u.PrivacyFriends = domain.Privacy(friends)
	u.PrivacyAnswers = domain.Privacy(answers)
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	if u.PrivacyFriends == "" {
		u.PrivacyFriends = domain.PrivacyPublic
	}
	if u.PrivacyAnswers == "" {
		u.PrivacyAnswers = domain.PrivacyPublic
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, is_admin, privacy_friends, privacy_answers)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		u.Username, u.Email, u.PasswordHash, u.IsAdmin, string(u.PrivacyFriends), string(u.PrivacyAnswers),
	).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return domain.User{}, domain.ErrUserExists
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Store) UserByID(ctx context.Context, id int64) (domain.User, error) {
	return s.userWhere(ctx, `id = $1`, id)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.userWhere(ctx, `LOWER(email) = LOWER($1)`, email)
}

func (s *Store) userWhere(ctx context.Context, cond string, arg interface{}) (domain.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+cond, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return s.updateUser(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
}

func (s *Store) UpdatePrivacy(ctx context.Context, id int64, friends, answers domain.Privacy) error {
	return s.updateUser(ctx, `UPDATE users SET privacy_friends = $2, privacy_answers = $3 WHERE id = $1`,
		id, string(friends), string(answers))
}

func (s *Store) SetAdmin(ctx context.Context, id int64, admin bool) error {
	return s.updateUser(ctx, `UPDATE users SET is_admin = $2 WHERE id = $1`, id, admin)
}

func (s *Store) updateUser(ctx context.Context, sql string, args ...interface{}) error {
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *Store) UpdateStreak(ctx context.Context, id int64, step app.StreakStep) (domain.UserStreak, error) {
	var streak domain.UserStreak
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		cur, err := lockStreak(ctx, tx, id)
		if err != nil {
			return err
		}
		streak, err = saveStreak(ctx, tx, id, cur, step(cur))
		return err
	})
	if err != nil {
		return domain.UserStreak{}, err
	}
	return streak, nil
}

// SearchUsers matches usernames case-insensitively; prefix matches rank first.
func (s *Store) SearchUsers(ctx context.Context, query string, excludeID int64, limit int) ([]domain.UserSummary, error) {
	pattern := escapeLike(query)
	rows, err := s.pool.Query(ctx, `
		SELECT id, username FROM users
		WHERE id <> $2 AND username ILIKE '%' || $1::text || '%'
		ORDER BY username ILIKE $1::text || '%' DESC, username
		LIMIT $3`, pattern, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()
	out := []domain.UserSummary{}
	for rows.Next() {
		var u domain.UserSummary
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
