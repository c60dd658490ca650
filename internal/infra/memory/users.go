package memory

import (
	"context"
	"sort"
	"strings"

	"dailyquest-service/internal/app"
	"dailyquest-service/internal/domain"
)

func (s *Store) CreateUser(_ context.Context, u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) || strings.EqualFold(existing.Username, u.Username) {
			return domain.User{}, domain.ErrUserExists
		}
	}
	u.ID = s.idLocked()
	u.CreatedAt = s.clock()
	if u.PrivacyFriends == "" {
		u.PrivacyFriends = domain.PrivacyPublic
	}
	if u.PrivacyAnswers == "" {
		u.PrivacyAnswers = domain.PrivacyPublic
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) UserByID(_ context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *Store) UpdatePassword(_ context.Context, id int64, hash string) error {
	return s.updateUser(id, func(u *domain.User) { u.PasswordHash = hash })
}

func (s *Store) UpdatePrivacy(_ context.Context, id int64, friends, answers domain.Privacy) error {
	return s.updateUser(id, func(u *domain.User) {
		u.PrivacyFriends = friends
		u.PrivacyAnswers = answers
	})
}

func (s *Store) SetAdmin(_ context.Context, id int64, admin bool) error {
	return s.updateUser(id, func(u *domain.User) { u.IsAdmin = admin })
}

func (s *Store) UpdateStreak(_ context.Context, id int64, step app.StreakStep) (domain.UserStreak, error) {
	var out domain.UserStreak
	err := s.updateUser(id, func(u *domain.User) {
		u.Streak = step(u.Streak)
		out = u.Streak
	})
	return out, err
}

func (s *Store) updateUser(id int64, fn func(u *domain.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(&u)
	s.users[id] = u
	return nil
}

// SearchUsers matches usernames case-insensitively; prefix matches rank first.
func (s *Store) SearchUsers(_ context.Context, query string, excludeID int64, limit int) ([]domain.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(query)
	type hit struct {
		summary domain.UserSummary
		prefix  bool
	}
	hits := []hit{}
	for _, u := range s.users {
		if u.ID == excludeID {
			continue
		}
		name := strings.ToLower(u.Username)
		if !strings.Contains(name, q) {
			continue
		}
		hits = append(hits, hit{
			summary: domain.UserSummary{ID: u.ID, Username: u.Username},
			prefix:  strings.HasPrefix(name, q),
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].prefix != hits[j].prefix {
			return hits[i].prefix
		}
		return hits[i].summary.Username < hits[j].summary.Username
	})
	out := make([]domain.UserSummary, 0, len(hits))
	for _, h := range hits {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, h.summary)
	}
	return out, nil
}
