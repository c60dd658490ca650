package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"dailyquest-service/internal/domain"
)

func (s *Store) CreateGroup(_ context.Context, name string, createdBy int64, memberIDs []int64) (domain.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := domain.Group{
		ID:        s.idLocked(),
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: s.clock(),
	}
	s.groups[g.ID] = g
	members := map[int64]int64{createdBy: 0}
	for _, id := range memberIDs {
		members[id] = 0
	}
	s.members[g.ID] = members
	return g, nil
}

func (s *Store) GetGroup(_ context.Context, id int64) (domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return domain.Group{}, domain.ErrGroupNotFound
	}
	return g, nil
}

func (s *Store) RenameGroup(_ context.Context, id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return domain.ErrGroupNotFound
	}
	g.Name = name
	s.groups[id] = g
	return nil
}

func (s *Store) AddMember(_ context.Context, groupID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.members[groupID]
	if !ok {
		return false, domain.ErrGroupNotFound
	}
	if _, ok := members[userID]; ok {
		return false, nil
	}
	members[userID] = 0
	return true, nil
}

func (s *Store) RemoveMember(_ context.Context, groupID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.members[groupID]
	if !ok {
		return false, domain.ErrGroupNotFound
	}
	if _, ok := members[userID]; !ok {
		return false, nil
	}
	delete(members, userID)
	return true, nil
}

func (s *Store) IsMember(_ context.Context, groupID, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members, ok := s.members[groupID]
	if !ok {
		return false, domain.ErrGroupNotFound
	}
	_, ok = members[userID]
	return ok, nil
}

func (s *Store) GroupIDsForUser(_ context.Context, userID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := []int64{}
	for groupID, members := range s.members {
		if _, ok := members[userID]; ok {
			ids = append(ids, groupID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) GroupSummaries(_ context.Context, userID int64, username string) ([]domain.GroupSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ping := "@" + strings.ToLower(username)
	out := []domain.GroupSummary{}
	for groupID, members := range s.members {
		lastRead, ok := members[userID]
		if !ok {
			continue
		}
		sum := domain.GroupSummary{Group: s.groups[groupID], MemberCount: len(members)}
		msgs := s.messages[groupID]
		if n := len(msgs); n > 0 {
			last := msgs[n-1]
			at := last.CreatedAt
			sum.LastMessage = last.Text
			sum.LastAuthor = s.users[last.UserID].Username
			sum.LastMessageAt = &at
		}
		for _, m := range msgs {
			if m.ID <= lastRead || m.UserID == userID {
				continue
			}
			sum.UnreadCount++
			if username != "" && strings.Contains(strings.ToLower(m.Text), ping) {
				sum.UnreadPingCount++
			}
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool {
		return activity(out[i]).After(activity(out[j]))
	})
	return out, nil
}

func activity(g domain.GroupSummary) time.Time {
	if g.LastMessageAt != nil {
		return *g.LastMessageAt
	}
	return g.CreatedAt
}

func (s *Store) Members(_ context.Context, groupID int64) ([]domain.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members, ok := s.members[groupID]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	out := make([]domain.UserSummary, 0, len(members))
	for id := range members {
		out = append(out, domain.UserSummary{ID: id, Username: s.users[id].Username})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *Store) InsertMessage(_ context.Context, msg domain.Message) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[msg.GroupID]; !ok {
		return domain.Message{}, domain.ErrGroupNotFound
	}
	msg.ID = s.idLocked()
	msg.CreatedAt = s.clock()
	msg.Username = s.users[msg.UserID].Username
	s.messages[msg.GroupID] = append(s.messages[msg.GroupID], msg)
	return msg, nil
}

func (s *Store) Messages(_ context.Context, groupID int64) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Message{}, s.messages[groupID]...), nil
}

func (s *Store) ReadReceipts(_ context.Context, groupID int64) ([]domain.ReadReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.ReadReceipt{}
	for userID, last := range s.members[groupID] {
		if last == 0 {
			continue
		}
		out = append(out, domain.ReadReceipt{UserID: userID, Username: s.users[userID].Username, MessageID: last})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// MarkRead moves the member's read position to the newest message.
func (s *Store) MarkRead(_ context.Context, groupID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.members[groupID]
	if !ok {
		return domain.ErrGroupNotFound
	}
	if _, ok := members[userID]; !ok {
		return domain.ErrNotGroupMember
	}
	if msgs := s.messages[groupID]; len(msgs) > 0 {
		members[userID] = msgs[len(msgs)-1].ID
	}
	return nil
}
