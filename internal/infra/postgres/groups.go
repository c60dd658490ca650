package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dailyquest-service/internal/domain"
	"github.com/jackc/pgx/v4"
)

func (s *Store) CreateGroup(ctx context.Context, name string, createdBy int64, memberIDs []int64) (domain.Group, error) {
	g := domain.Group{Name: name, CreatedBy: createdBy}
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO discussion_groups (name, created_by) VALUES ($1, $2)
			RETURNING id, created_at`, name, createdBy).Scan(&g.ID, &g.CreatedAt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO group_members (group_id, user_id)
			SELECT $1, unnest($2::bigint[])
			ON CONFLICT DO NOTHING`, g.ID, append([]int64{createdBy}, memberIDs...))
		return err
	})
	if isForeignKeyViolation(err) {
		return domain.Group{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.Group{}, fmt.Errorf("create group: %w", err)
	}
	return g, nil
}

func (s *Store) GetGroup(ctx context.Context, id int64) (domain.Group, error) {
	g := domain.Group{ID: id}
	err := s.pool.QueryRow(ctx, `SELECT name, created_by, created_at FROM discussion_groups WHERE id = $1`, id).
		Scan(&g.Name, &g.CreatedBy, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Group{}, domain.ErrGroupNotFound
	}
	if err != nil {
		return domain.Group{}, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

func (s *Store) RenameGroup(ctx context.Context, id int64, name string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE discussion_groups SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("rename group: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}

func (s *Store) AddMember(ctx context.Context, groupID, userID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, groupID, userID)
	if isForeignKeyViolation(err) {
		if _, gerr := s.GetGroup(ctx, groupID); gerr != nil {
			return false, gerr
		}
		return false, domain.ErrUserNotFound
	}
	if err != nil {
		return false, fmt.Errorf("add member: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) RemoveMember(ctx context.Context, groupID, userID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return false, fmt.Errorf("remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetGroup(ctx, groupID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (s *Store) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var exists, member bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM discussion_groups WHERE id = $1),
		       EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`,
		groupID, userID).Scan(&exists, &member)
	if err != nil {
		return false, fmt.Errorf("is member: %w", err)
	}
	if !exists {
		return false, domain.ErrGroupNotFound
	}
	return member, nil
}

func (s *Store) GroupIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT group_id FROM group_members WHERE user_id = $1 ORDER BY group_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("groups for user: %w", err)
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) GroupSummaries(ctx context.Context, userID int64, username string) ([]domain.GroupSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT g.id, g.name, g.created_by, g.created_at,
		       (SELECT COUNT(*) FROM group_members c WHERE c.group_id = g.id),
		       lm.message_text, lu.username, lm.created_at,
		       (SELECT COUNT(*) FROM group_messages m
		         WHERE m.group_id = g.id AND m.id > gm.last_read_message_id AND m.user_id <> $1),
		       (SELECT COUNT(*) FROM group_messages m
		         WHERE m.group_id = g.id AND m.id > gm.last_read_message_id AND m.user_id <> $1
		           AND $2::text <> '' AND m.message_text ILIKE '%@' || $2::text || '%')
		FROM group_members gm
		JOIN discussion_groups g ON g.id = gm.group_id
		LEFT JOIN LATERAL (
		    SELECT message_text, user_id, created_at FROM group_messages
		    WHERE group_id = g.id ORDER BY id DESC LIMIT 1
		) lm ON TRUE
		LEFT JOIN users lu ON lu.id = lm.user_id
		WHERE gm.user_id = $1
		ORDER BY COALESCE(lm.created_at, g.created_at) DESC`, userID, escapeLike(username))
	if err != nil {
		return nil, fmt.Errorf("group summaries: %w", err)
	}
	defer rows.Close()
	out := []domain.GroupSummary{}
	for rows.Next() {
		var (
			sum          domain.GroupSummary
			text, author *string
			at           *time.Time
		)
		err := rows.Scan(&sum.ID, &sum.Name, &sum.CreatedBy, &sum.CreatedAt, &sum.MemberCount,
			&text, &author, &at, &sum.UnreadCount, &sum.UnreadPingCount)
		if err != nil {
			return nil, fmt.Errorf("scan group summary: %w", err)
		}
		if text != nil {
			sum.LastMessage = *text
		}
		if author != nil {
			sum.LastAuthor = *author
		}
		sum.LastMessageAt = at
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *Store) Members(ctx context.Context, groupID int64) ([]domain.UserSummary, error) {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.username FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1 ORDER BY u.username`, groupID)
	if err != nil {
		return nil, fmt.Errorf("members: %w", err)
	}
	defer rows.Close()
	out := []domain.UserSummary{}
	for rows.Next() {
		var u domain.UserSummary
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) InsertMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	err := s.pool.QueryRow(ctx, `
		WITH ins AS (
		    INSERT INTO group_messages (group_id, user_id, message_text, message_type, related_answer_id, reply_to_id)
		    VALUES ($1, $2, $3, $4, $5, $6)
		    RETURNING id, user_id, created_at
		)
		SELECT ins.id, ins.created_at, u.username FROM ins JOIN users u ON u.id = ins.user_id`,
		msg.GroupID, msg.UserID, msg.Text, string(msg.Type), nullID(msg.RelatedAnswerID), nullID(msg.ReplyToID),
	).Scan(&msg.ID, &msg.CreatedAt, &msg.Username)
	if isForeignKeyViolation(err) {
		return domain.Message{}, domain.ErrGroupNotFound
	}
	if err != nil {
		return domain.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

func (s *Store) Messages(ctx context.Context, groupID int64) ([]domain.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.group_id, m.user_id, u.username, m.message_text, m.message_type,
		       COALESCE(m.related_answer_id, 0), COALESCE(m.reply_to_id, 0), m.created_at
		FROM group_messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("messages: %w", err)
	}
	defer rows.Close()
	out := []domain.Message{}
	for rows.Next() {
		var (
			m   domain.Message
			typ string
		)
		err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Username, &m.Text, &typ,
			&m.RelatedAnswerID, &m.ReplyToID, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Type = domain.MessageType(typ)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) ReadReceipts(ctx context.Context, groupID int64) ([]domain.ReadReceipt, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT gm.user_id, u.username, gm.last_read_message_id
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1 AND gm.last_read_message_id > 0
		ORDER BY gm.user_id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("read receipts: %w", err)
	}
	defer rows.Close()
	out := []domain.ReadReceipt{}
	for rows.Next() {
		var r domain.ReadReceipt
		if err := rows.Scan(&r.UserID, &r.Username, &r.MessageID); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkRead moves the member's read position to the newest message.
func (s *Store) MarkRead(ctx context.Context, groupID, userID int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE group_members
		SET last_read_message_id = COALESCE((SELECT MAX(id) FROM group_messages WHERE group_id = $1), 0)
		WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetGroup(ctx, groupID); err != nil {
			return err
		}
		return domain.ErrNotGroupMember
	}
	return nil
}
