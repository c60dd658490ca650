package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"dailyquest-service/internal/app"
	"dailyquest-service/internal/auth"
	"dailyquest-service/internal/domain"
	"dailyquest-service/internal/infra/memory"
	"golang.org/x/crypto/bcrypt"
)

// clock is a settable time source shared by the fixture's services.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type fixture struct {
	clock     *clock
	store     *memory.Store
	hub       *memory.Hub
	board     *memory.Leaderboard
	questions *app.QuestionService
	answers   *app.AnswerService
	groups    *app.GroupService
	friends   *app.FriendService
	auth      *app.AuthService
	home      *app.HomeService
}

// at returns the given UTC instant.
func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := &clock{now: at(2024, 1, 11, 13)}
	store := memory.NewStoreWithClock(c.Now)
	hub := memory.NewHub()
	board := memory.NewLeaderboard()
	issuer, err := auth.NewJWTIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	questions := app.NewQuestionService(store, store, domain.NewCalendar(time.UTC), nil).WithClock(c.Now)
	groups := app.NewGroupService(store, store, hub, nil)
	answers := app.NewAnswerService(app.AnswerDeps{
		Selector:    questions,
		Questions:   store,
		Answers:     store,
		Users:       store,
		Messenger:   groups,
		Leaderboard: board,
	}).WithClock(c.Now)

	return &fixture{
		clock:     c,
		store:     store,
		hub:       hub,
		board:     board,
		questions: questions,
		answers:   answers,
		groups:    groups,
		friends:   app.NewFriendService(store, store, store, nil),
		auth:      app.NewAuthService(store, issuer, auth.BcryptHasher{Cost: bcrypt.MinCost}, nil),
		home:      app.NewHomeService(questions, answers, groups),
	}
}

func (f *fixture) user(t *testing.T, name string) domain.User {
	t.Helper()
	sess, err := f.auth.Register(context.Background(), name, name+"@example.com", "password1")
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return sess.User
}

func (f *fixture) admin(t *testing.T, name string) domain.User {
	t.Helper()
	u := f.user(t, name)
	if _, err := f.auth.GrantAdmin(context.Background(), u.Email, true); err != nil {
		t.Fatalf("grant admin: %v", err)
	}
	return u
}

func (f *fixture) question(t *testing.T, text string, options ...string) domain.Question {
	t.Helper()
	q, err := f.questions.CreateQuestion(context.Background(), text, options)
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	return q
}

// live returns the question active at the fixture's current time.
func (f *fixture) live(t *testing.T) domain.Question {
	t.Helper()
	q, ok, err := f.questions.ActiveQuestion(context.Background())
	if err != nil || !ok {
		t.Fatalf("active question: ok=%v err=%v", ok, err)
	}
	return q
}
