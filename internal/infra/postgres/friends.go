package postgres

import (
	"context"
	"errors"
	"fmt"

	"dailyquest-service/internal/domain"
	"github.com/jackc/pgx/v4"
)

func (s *Store) CreateFriendship(ctx context.Context, requesterID, addresseeID int64) (domain.Friendship, error) {
	f := domain.Friendship{RequesterID: requesterID, AddresseeID: addresseeID, Status: domain.FriendshipPending}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO friendships (requester_id, addressee_id) VALUES ($1, $2)
		RETURNING id, created_at`, requesterID, addresseeID).Scan(&f.ID, &f.CreatedAt)
	switch {
	case isUniqueViolation(err):
		return domain.Friendship{}, domain.ErrAlreadyRequested
	case isForeignKeyViolation(err):
		return domain.Friendship{}, domain.ErrUserNotFound
	case err != nil:
		return domain.Friendship{}, fmt.Errorf("create friendship: %w", err)
	}
	return f, nil
}

func (s *Store) FriendshipBetween(ctx context.Context, a, b int64) (domain.Friendship, bool, error) {
	var (
		f      domain.Friendship
		status string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, requester_id, addressee_id, status, created_at FROM friendships
		WHERE (requester_id = $1 AND addressee_id = $2) OR (requester_id = $2 AND addressee_id = $1)`,
		a, b).Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &status, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Friendship{}, false, nil
	}
	if err != nil {
		return domain.Friendship{}, false, fmt.Errorf("friendship between: %w", err)
	}
	f.Status = domain.FriendshipStatus(status)
	return f, true, nil
}

func (s *Store) AcceptFriendship(ctx context.Context, id, addresseeID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE friendships SET status = 'accepted'
		WHERE id = $1 AND addressee_id = $2 AND status = 'pending'`, id, addresseeID)
	if err != nil {
		return false, fmt.Errorf("accept friendship: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) DeleteFriendship(ctx context.Context, id, userID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM friendships WHERE id = $1 AND (requester_id = $2 OR addressee_id = $2)`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete friendship: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) FriendLists(ctx context.Context, userID int64) (domain.FriendLists, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT f.id, f.requester_id, f.status, u.id, u.username
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.requester_id = $1 THEN f.addressee_id ELSE f.requester_id END
		WHERE f.requester_id = $1 OR f.addressee_id = $1
		ORDER BY u.username`, userID)
	if err != nil {
		return domain.FriendLists{}, fmt.Errorf("friend lists: %w", err)
	}
	defer rows.Close()
	lists := domain.FriendLists{
		Friends:  []domain.FriendEntry{},
		Incoming: []domain.FriendEntry{},
		Outgoing: []domain.FriendEntry{},
	}
	for rows.Next() {
		var (
			e           domain.FriendEntry
			requesterID int64
			status      string
		)
		if err := rows.Scan(&e.FriendshipID, &requesterID, &status, &e.User.ID, &e.User.Username); err != nil {
			return domain.FriendLists{}, fmt.Errorf("scan friend: %w", err)
		}
		switch {
		case domain.FriendshipStatus(status) == domain.FriendshipAccepted:
			lists.Friends = append(lists.Friends, e)
		case requesterID == userID:
			lists.Outgoing = append(lists.Outgoing, e)
		default:
			lists.Incoming = append(lists.Incoming, e)
		}
	}
	return lists, rows.Err()
}
