package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dailyquest-service/internal/app"
	"dailyquest-service/internal/domain"
)

func TestActiveQuestionStableWithinPeriod(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.question(t, "q", "a", "b")
	}

	first := f.live(t)
	if !first.ScheduledFor.Equal(domain.NewPeriod(2024, 1, 11)) {
		t.Fatalf("expected period 2024-01-11, got %s", first.ScheduledFor)
	}
	f.clock.Set(at(2024, 1, 12, 11)) // still before noon
	second, _, err := f.questions.ActiveQuestion(ctx)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same question within the period, got %d then %d", first.ID, second.ID)
	}
}

func TestActiveQuestionRotatesAfterNoon(t *testing.T) {
	f := newFixture(t)
	f.question(t, "only", "a", "b")

	first := f.live(t)
	f.clock.Set(at(2024, 1, 12, 12))
	next := f.live(t)

	// a one-question bank reuses the retired question
	if next.ID != first.ID {
		t.Fatalf("expected the only question to be reused, got %d", next.ID)
	}
	if !next.ScheduledFor.Equal(domain.NewPeriod(2024, 1, 12)) {
		t.Fatalf("expected new period, got %s", next.ScheduledFor)
	}

	all, _ := f.questions.AllQuestions(context.Background())
	active := 0
	for _, q := range all {
		if q.IsActive {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly one active question, got %d", active)
	}
}

func TestActiveQuestionEmptyBank(t *testing.T) {
	f := newFixture(t)
	_, ok, err := f.questions.ActiveQuestion(context.Background())
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if ok {
		t.Fatalf("expected no question from an empty bank")
	}
}

func TestConcurrentSelectionActivatesOne(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 10; i++ {
		f.question(t, "q", "a", "b")
	}

	var wg sync.WaitGroup
	ids := make([]int64, 20)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q, ok, err := f.questions.ActiveQuestion(ctx)
			if err != nil || !ok {
				t.Errorf("active: ok=%v err=%v", ok, err)
				return
			}
			ids[i] = q.ID
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("concurrent callers saw different questions: %v", ids)
		}
	}
}

func TestFutureScheduledQuestionKept(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	q := f.question(t, "q", "a", "b")
	future := domain.NewPeriod(2024, 1, 20)
	if ok, err := f.store.Activate(ctx, q.ID, future); err != nil || !ok {
		t.Fatalf("activate: ok=%v err=%v", ok, err)
	}
	got := f.live(t)
	if !got.ScheduledFor.Equal(future) {
		t.Fatalf("expected future-scheduled question returned as-is, got %s", got.ScheduledFor)
	}
}

func TestRolloverReportsRotation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.question(t, "q1", "a", "b")
	f.question(t, "q2", "a", "b")

	sel, err := f.questions.Rollover(ctx)
	if err != nil || !sel.Found || !sel.Rotated {
		t.Fatalf("expected first rollover to activate, got %+v err=%v", sel, err)
	}
	sel, _ = f.questions.Rollover(ctx)
	if sel.Rotated {
		t.Fatalf("second rollover in the same period must be a no-op")
	}
}

func TestAdminQuestionOps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.admin(t, "root")
	user := f.user(t, "plain")

	if _, err := f.questions.AddQuestion(ctx, user.ID, "q", []string{"a", "b"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for non-admin, got %v", err)
	}
	if _, err := f.questions.AddQuestion(ctx, 0, "q", []string{"a", "b"}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
	if _, err := f.questions.AddQuestion(ctx, admin.ID, "q", []string{"a"}); !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected invalid question, got %v", err)
	}

	q, err := f.questions.AddQuestion(ctx, admin.ID, "Cats or dogs?", []string{"Cats", "Dogs"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if q.IsActive {
		t.Fatalf("new questions start inactive")
	}
	list, err := f.questions.ListQuestions(ctx, admin.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v (%d)", err, len(list))
	}
	if err := f.questions.DeleteQuestion(ctx, admin.ID, q.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.questions.DeleteQuestion(ctx, admin.ID, q.ID); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// contextQuestions fails on a cancelled context and holds the first lookup until released.
type contextQuestions struct {
	app.QuestionRepository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (c *contextQuestions) ActiveQuestion(ctx context.Context) (domain.Question, bool, error) {
	c.once.Do(func() {
		close(c.entered)
		<-c.release
	})
	if err := ctx.Err(); err != nil {
		return domain.Question{}, false, err
	}
	return c.QuestionRepository.ActiveQuestion(ctx)
}

func TestCancelledCallerDoesNotFailSharedSelection(t *testing.T) {
	f := newFixture(t)
	f.question(t, "q", "a", "b")
	repo := &contextQuestions{QuestionRepository: f.store, entered: make(chan struct{}), release: make(chan struct{})}
	selector := app.NewQuestionService(repo, f.store, domain.NewCalendar(time.UTC), nil).WithClock(f.clock.Now)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderDone := make(chan struct{})
	go func() {
		defer close(leaderDone)
		_, _, _ = selector.ActiveQuestion(leaderCtx)
	}()
	<-repo.entered
	cancel()
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(repo.release)
	}()

	q, ok, err := selector.ActiveQuestion(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected the joined caller to get a question, ok=%v err=%v", ok, err)
	}
	if !q.IsActive {
		t.Fatalf("expected an active question, got %+v", q)
	}
	<-leaderDone
}
