package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dailyquest-service/internal/domain"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2024, 1, 11, 13, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

func seedUser(t *testing.T, s *Store, name string) domain.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), domain.User{Username: name, Email: name + "@example.com"})
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func seedQuestion(t *testing.T, s *Store, text string, options ...string) domain.Question {
	t.Helper()
	q, err := s.CreateQuestion(context.Background(), domain.Question{Text: text, Options: options})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	return q
}

func TestActivateIsConditional(t *testing.T) {
	ctx := context.Background()
	s := NewStoreWithClock(fixedClock())
	q1 := seedQuestion(t, s, "one", "a", "b")
	q2 := seedQuestion(t, s, "two", "a", "b")
	p := domain.NewPeriod(2024, 1, 11)

	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i, id := range []int64{q1.ID, q2.ID} {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			ok, err := s.Activate(ctx, id, p)
			if err != nil {
				t.Errorf("activate: %v", err)
			}
			results[i] = ok
		}(i, id)
	}
	wg.Wait()

	if results[0] == results[1] {
		t.Fatalf("expected exactly one activation to win, got %v", results)
	}
	active, ok, err := s.ActiveQuestion(ctx)
	if err != nil || !ok {
		t.Fatalf("expected an active question, ok=%v err=%v", ok, err)
	}
	if !active.ScheduledFor.Equal(p) {
		t.Fatalf("expected scheduled for %s, got %s", p, active.ScheduledFor)
	}

	if ok, _ := s.Deactivate(ctx, active.ID, p.Prev()); ok {
		t.Fatalf("deactivate with a stale period must fail")
	}
	if ok, _ := s.Deactivate(ctx, active.ID, p); !ok {
		t.Fatalf("deactivate with the current period must succeed")
	}
	if _, ok, _ := s.ActiveQuestion(ctx); ok {
		t.Fatalf("expected no active question after deactivate")
	}
}

func TestRandomInactiveSkipsActive(t *testing.T) {
	ctx := context.Background()
	s := NewStoreWithClock(fixedClock())
	if _, ok, _ := s.RandomInactive(ctx); ok {
		t.Fatalf("empty bank must report nothing")
	}
	q1 := seedQuestion(t, s, "one", "a", "b")
	q2 := seedQuestion(t, s, "two", "a", "b")
	if _, err := s.Activate(ctx, q1.ID, domain.NewPeriod(2024, 1, 11)); err != nil {
		t.Fatalf("activate: %v", err)
	}
	for i := 0; i < 20; i++ {
		q, ok, err := s.RandomInactive(ctx)
		if err != nil || !ok {
			t.Fatalf("random inactive: ok=%v err=%v", ok, err)
		}
		if q.ID != q2.ID {
			t.Fatalf("expected only the inactive question, got %d", q.ID)
		}
	}
}

func TestRecordAnswerUpserts(t *testing.T) {
	ctx := context.Background()
	s := NewStoreWithClock(fixedClock())
	u := seedUser(t, s, "alice")
	q := seedQuestion(t, s, "Coffee or tea?", "Coffee", "Tea")
	p := domain.NewPeriod(2024, 1, 11)

	step := func(cur domain.UserStreak) domain.UserStreak {
		next, _ := cur.RecordAnswer(p)
		return next
	}
	first, streak, err := s.RecordAnswer(ctx, domain.Answer{UserID: u.ID, QuestionID: q.ID, Option: 1, Text: "Coffee"}, step)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if streak.Current != 1 {
		t.Fatalf("expected streak 1, got %d", streak.Current)
	}
	second, streak, err := s.RecordAnswer(ctx, domain.Answer{UserID: u.ID, QuestionID: q.ID, Option: 2, Text: "Tea"}, step)
	if err != nil {
		t.Fatalf("record again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected upsert to keep id %d, got %d", first.ID, second.ID)
	}
	if second.Text != "Tea" || second.Option != 2 {
		t.Fatalf("expected updated answer, got %+v", second)
	}
	if streak.Current != 1 {
		t.Fatalf("same-period answer must not move the streak, got %d", streak.Current)
	}

	counts, _ := s.CountVotes(ctx, q.ID)
	if counts[1] != 0 || counts[2] != 1 {
		t.Fatalf("expected a single vote for option 2, got %v", counts)
	}
	stored, _ := s.UserByID(ctx, u.ID)
	if stored.Streak.Current != 1 || !stored.Streak.LastAnswered.Equal(p) {
		t.Fatalf("expected streak persisted, got %+v", stored.Streak)
	}
}

func TestRecordAnswerUnknownUser(t *testing.T) {
	s := NewStoreWithClock(fixedClock())
	q := seedQuestion(t, s, "q", "a", "b")
	_, _, err := s.RecordAnswer(context.Background(), domain.Answer{UserID: 99, QuestionID: q.ID, Option: 1}, func(cur domain.UserStreak) domain.UserStreak { return cur })
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestDeleteQuestionDropsAnswers(t *testing.T) {
	ctx := context.Background()
	s := NewStoreWithClock(fixedClock())
	u := seedUser(t, s, "alice")
	q := seedQuestion(t, s, "q", "a", "b")
	keep := func(cur domain.UserStreak) domain.UserStreak { return cur }
	if _, _, err := s.RecordAnswer(ctx, domain.Answer{UserID: u.ID, QuestionID: q.ID, Option: 1, Text: "a"}, keep); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.DeleteQuestion(ctx, q.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n, _ := s.CountAnswers(ctx, u.ID); n != 0 {
		t.Fatalf("expected answers removed, got %d", n)
	}
	if err := s.DeleteQuestion(ctx, q.ID); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestCompatibility(t *testing.T) {
	ctx := context.Background()
	s := NewStoreWithClock(fixedClock())
	a := seedUser(t, s, "alice")
	b := seedUser(t, s, "bob")
	keep := func(cur domain.UserStreak) domain.UserStreak { return cur }
	for _, pair := range [][2]int{{1, 1}, {1, 2}, {2, 2}} {
		q := seedQuestion(t, s, "q", "x", "y")
		_, _, _ = s.RecordAnswer(ctx, domain.Answer{UserID: a.ID, QuestionID: q.ID, Option: pair[0]}, keep)
		_, _, _ = s.RecordAnswer(ctx, domain.Answer{UserID: b.ID, QuestionID: q.ID, Option: pair[1]}, keep)
	}
	seedOnly := seedQuestion(t, s, "only alice", "x", "y")
	_, _, _ = s.RecordAnswer(ctx, domain.Answer{UserID: a.ID, QuestionID: seedOnly.ID, Option: 1}, keep)

	matching, common, err := s.Compatibility(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("compatibility: %v", err)
	}
	if matching != 2 || common != 3 {
		t.Fatalf("expected 2 of 3, got %d of %d", matching, common)
	}
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	s := NewStoreWithClock(fixedClock())
	seedUser(t, s, "alice")
	_, err := s.CreateUser(context.Background(), domain.User{Username: "ALICE", Email: "other@example.com"})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected duplicate username rejected, got %v", err)
	}
}

func TestSearchUsersPrefersPrefix(t *testing.T) {
	s := NewStoreWithClock(fixedClock())
	me := seedUser(t, s, "annie")
	seedUser(t, s, "joanna")
	seedUser(t, s, "anna")
	got, err := s.SearchUsers(context.Background(), "an", me.ID, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 || got[0].Username != "anna" || got[1].Username != "joanna" {
		t.Fatalf("unexpected search order %+v", got)
	}
}
