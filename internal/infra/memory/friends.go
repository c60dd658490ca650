package memory

import (
	"context"
	"sort"

	"dailyquest-service/internal/domain"
)

func (s *Store) CreateFriendship(_ context.Context, requesterID, addresseeID int64) (domain.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.betweenLocked(requesterID, addresseeID); ok {
		return domain.Friendship{}, domain.ErrAlreadyRequested
	}
	f := domain.Friendship{
		ID:          s.idLocked(),
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      domain.FriendshipPending,
		CreatedAt:   s.clock(),
	}
	s.friendships[f.ID] = f
	return f, nil
}

func (s *Store) FriendshipBetween(_ context.Context, a, b int64) (domain.Friendship, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.betweenLocked(a, b)
	return f, ok, nil
}

func (s *Store) betweenLocked(a, b int64) (domain.Friendship, bool) {
	for _, f := range s.friendships {
		if (f.RequesterID == a && f.AddresseeID == b) || (f.RequesterID == b && f.AddresseeID == a) {
			return f, true
		}
	}
	return domain.Friendship{}, false
}

func (s *Store) AcceptFriendship(_ context.Context, id, addresseeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.friendships[id]
	if !ok || f.AddresseeID != addresseeID || f.Status != domain.FriendshipPending {
		return false, nil
	}
	f.Status = domain.FriendshipAccepted
	s.friendships[id] = f
	return true, nil
}

func (s *Store) DeleteFriendship(_ context.Context, id, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.friendships[id]
	if !ok || (f.RequesterID != userID && f.AddresseeID != userID) {
		return false, nil
	}
	delete(s.friendships, id)
	return true, nil
}

func (s *Store) FriendLists(_ context.Context, userID int64) (domain.FriendLists, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lists := domain.FriendLists{
		Friends:  []domain.FriendEntry{},
		Incoming: []domain.FriendEntry{},
		Outgoing: []domain.FriendEntry{},
	}
	for _, f := range s.friendships {
		if f.RequesterID != userID && f.AddresseeID != userID {
			continue
		}
		other := f.Other(userID)
		entry := domain.FriendEntry{
			FriendshipID: f.ID,
			User:         domain.UserSummary{ID: other, Username: s.users[other].Username},
		}
		switch {
		case f.Status == domain.FriendshipAccepted:
			lists.Friends = append(lists.Friends, entry)
		case f.AddresseeID == userID:
			lists.Incoming = append(lists.Incoming, entry)
		default:
			lists.Outgoing = append(lists.Outgoing, entry)
		}
	}
	for _, l := range [][]domain.FriendEntry{lists.Friends, lists.Incoming, lists.Outgoing} {
		sort.Slice(l, func(i, j int) bool { return l[i].User.Username < l[j].User.Username })
	}
	return lists, nil
}
