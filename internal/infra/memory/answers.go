package memory

import (
	"context"
	"sort"

	"dailyquest-service/internal/app"
	"dailyquest-service/internal/domain"
)

// RecordAnswer upserts the answer and applies step to the author's streak under one lock.
func (s *Store) RecordAnswer(_ context.Context, a domain.Answer, step app.StreakStep) (domain.Answer, domain.UserStreak, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[a.UserID]
	if !ok {
		return domain.Answer{}, domain.UserStreak{}, domain.ErrUserNotFound
	}
	if _, ok := s.questions[a.QuestionID]; !ok {
		return domain.Answer{}, domain.UserStreak{}, domain.ErrQuestionNotFound
	}

	now := s.clock()
	key := answerKey{userID: a.UserID, questionID: a.QuestionID}
	if existing, ok := s.answers[key]; ok {
		existing.Option = a.Option
		existing.Text = a.Text
		existing.UpdatedAt = now
		a = existing
	} else {
		a.ID = s.idLocked()
		a.CreatedAt = now
		a.UpdatedAt = now
	}
	s.answers[key] = a

	u.Streak = step(u.Streak)
	s.users[u.ID] = u
	return a, u.Streak, nil
}

func (s *Store) FindAnswer(_ context.Context, userID, questionID int64) (domain.Answer, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.answers[answerKey{userID: userID, questionID: questionID}]
	return a, ok, nil
}

func (s *Store) CountVotes(_ context.Context, questionID int64) (map[int]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[int]int)
	for key, a := range s.answers {
		if key.questionID == questionID {
			counts[a.Option]++
		}
	}
	return counts, nil
}

func (s *Store) CountAnswers(_ context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for key := range s.answers {
		if key.userID == userID {
			n++
		}
	}
	return n, nil
}

func (s *Store) RecentAnswers(_ context.Context, userID int64, limit int) ([]domain.AnswerHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.AnswerHistoryEntry{}
	for key, a := range s.answers {
		if key.userID != userID {
			continue
		}
		out = append(out, domain.AnswerHistoryEntry{
			AnswerID:     a.ID,
			QuestionID:   a.QuestionID,
			QuestionText: s.questions[a.QuestionID].Text,
			Option:       a.Option,
			Text:         a.Text,
			AnsweredAt:   a.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AnsweredAt.Equal(out[j].AnsweredAt) {
			return out[i].AnsweredAt.After(out[j].AnsweredAt)
		}
		return out[i].AnswerID > out[j].AnswerID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Compatibility(_ context.Context, userA, userB int64) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matching, common := 0, 0
	for key, a := range s.answers {
		if key.userID != userA {
			continue
		}
		b, ok := s.answers[answerKey{userID: userB, questionID: key.questionID}]
		if !ok {
			continue
		}
		common++
		if a.Option == b.Option {
			matching++
		}
	}
	return matching, common, nil
}
