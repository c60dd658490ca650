package memory

import (
	"context"
	"sort"

	"dailyquest-service/internal/domain"
)

func (s *Store) ActiveQuestion(_ context.Context) (domain.Question, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.questions {
		if q.IsActive {
			return cloneQuestion(q), true, nil
		}
	}
	return domain.Question{}, false, nil
}

func (s *Store) RandomInactive(_ context.Context) (domain.Question, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.questions))
	for id, q := range s.questions {
		if !q.IsActive {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return domain.Question{}, false, nil
	}
	// map order is not uniform; sort before drawing
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return cloneQuestion(s.questions[ids[s.rnd.Intn(len(ids))]]), true, nil
}

func (s *Store) Activate(_ context.Context, id int64, period domain.Period) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.questions {
		if q.IsActive {
			return false, nil
		}
	}
	q, ok := s.questions[id]
	if !ok {
		return false, nil
	}
	q.IsActive = true
	q.ScheduledFor = period
	s.questions[id] = q
	return true, nil
}

func (s *Store) Deactivate(_ context.Context, id int64, period domain.Period) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok || !q.IsActive || !q.ScheduledFor.Equal(period) {
		return false, nil
	}
	q.IsActive = false
	s.questions[id] = q
	return true, nil
}

func (s *Store) GetQuestion(_ context.Context, id int64) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return cloneQuestion(q), nil
}

func (s *Store) CreateQuestion(_ context.Context, q domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q = cloneQuestion(q)
	q.ID = s.idLocked()
	q.IsActive = false
	q.ScheduledFor = domain.Period{}
	q.CreatedAt = s.clock()
	s.questions[q.ID] = q
	return cloneQuestion(q), nil
}

// DeleteQuestion removes the question together with its answers.
func (s *Store) DeleteQuestion(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	delete(s.questions, id)
	for key := range s.answers {
		if key.questionID == id {
			delete(s.answers, key)
		}
	}
	return nil
}

func (s *Store) ListQuestions(_ context.Context) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, cloneQuestion(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func cloneQuestion(q domain.Question) domain.Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}
