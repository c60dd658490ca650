package app

import (
	"context"
	"fmt"
	"time"

	"dailyquest-service/internal/domain"
	"dailyquest-service/internal/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// maxActivationAttempts bounds how often a selector retries after losing an activation race.
const maxActivationAttempts = 3

// Selection is the outcome of evaluating the active question for a period.
type Selection struct {
	Period   domain.Period
	Question domain.Question
	Found    bool
	// Rotated is true when this call retired the previous question or activated a new one.
	Rotated bool
}

// QuestionService selects the live question and manages the question bank.
type QuestionService struct {
	questions QuestionRepository
	users     UserRepository
	calendar  domain.Calendar
	log       *logger.Logger
	now       func() time.Time
	group     singleflight.Group
}

func NewQuestionService(questions QuestionRepository, users UserRepository, calendar domain.Calendar, log *logger.Logger) *QuestionService {
	if log == nil {
		log = logger.NewNop()
	}
	return &QuestionService{
		questions: questions,
		users:     users,
		calendar:  calendar,
		log:       log,
		now:       time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *QuestionService) WithClock(now func() time.Time) *QuestionService {
	s.now = now
	return s
}

func (s *QuestionService) Calendar() domain.Calendar {
	return s.calendar
}

// Now returns the service clock.
func (s *QuestionService) Now() time.Time {
	return s.now()
}

// ActiveQuestion returns the live question for the current period.
func (s *QuestionService) ActiveQuestion(ctx context.Context) (domain.Question, bool, error) {
	return s.ActiveQuestionAt(ctx, s.now())
}

// ActiveQuestionAt returns the question live at now, rotating it when its period has ended.
// Found is false when the bank has nothing to activate.
func (s *QuestionService) ActiveQuestionAt(ctx context.Context, now time.Time) (domain.Question, bool, error) {
	sel, err := s.Evaluate(ctx, now)
	if err != nil {
		return domain.Question{}, false, err
	}
	return sel.Question, sel.Found, nil
}

// Rollover evaluates the current period; it lets a scheduler rotate questions ahead of traffic.
func (s *QuestionService) Rollover(ctx context.Context) (Selection, error) {
	return s.Evaluate(ctx, s.now())
}

// Evaluate collapses concurrent evaluations of the same period into one.
func (s *QuestionService) Evaluate(ctx context.Context, now time.Time) (Selection, error) {
	period := s.calendar.PeriodOf(now)
	// the shared call outlives any single caller's cancellation
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(period.String(), func() (interface{}, error) {
		return s.evaluate(shared, period)
	})
	if err != nil {
		return Selection{}, err
	}
	return v.(Selection), nil
}

func (s *QuestionService) evaluate(ctx context.Context, period domain.Period) (Selection, error) {
	sel := Selection{Period: period}
	for attempt := 0; attempt < maxActivationAttempts; attempt++ {
		current, ok, err := s.questions.ActiveQuestion(ctx)
		if err != nil {
			return sel, storageErr("load active question", err)
		}
		if ok {
			// A question scheduled for a later period (clock skew) is kept as-is.
			if !current.ScheduledFor.Before(period) {
				sel.Question, sel.Found = current, true
				return sel, nil
			}
			retired, err := s.questions.Deactivate(ctx, current.ID, current.ScheduledFor)
			if err != nil {
				return sel, storageErr("retire question", err)
			}
			if retired {
				sel.Rotated = true
				s.log.Info("question retired", "question_id", current.ID, "period", current.ScheduledFor.String())
			}
		}

		candidate, ok, err := s.questions.RandomInactive(ctx)
		if err != nil {
			return sel, storageErr("pick question", err)
		}
		if !ok {
			s.log.Warn("question bank empty", "period", period.String())
			return sel, nil
		}
		activated, err := s.questions.Activate(ctx, candidate.ID, period)
		if err != nil {
			return sel, storageErr("activate question", err)
		}
		if activated {
			candidate.IsActive = true
			candidate.ScheduledFor = period
			s.log.Info("question activated", "question_id", candidate.ID, "period", period.String())
			sel.Question, sel.Found, sel.Rotated = candidate, true, true
			return sel, nil
		}
		// another instance activated first
		s.log.Debug("activation lost race", "question_id", candidate.ID, "attempt", attempt+1)
	}

	current, ok, err := s.questions.ActiveQuestion(ctx)
	if err != nil {
		return sel, storageErr("load active question", err)
	}
	sel.Question, sel.Found = current, ok
	return sel, nil
}

// AddQuestion validates and stores a new inactive question. Admin only.
func (s *QuestionService) AddQuestion(ctx context.Context, actorID int64, text string, options []string) (domain.Question, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return domain.Question{}, err
	}
	created, err := s.CreateQuestion(ctx, text, options)
	if err != nil {
		return domain.Question{}, err
	}
	s.log.Info("question added", "question_id", created.ID, "actor_id", actorID)
	return created, nil
}

// DeleteQuestion removes a question and its answers. Admin only.
func (s *QuestionService) DeleteQuestion(ctx context.Context, actorID, questionID int64) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if err := s.RemoveQuestion(ctx, questionID); err != nil {
		return err
	}
	s.log.Info("question deleted", "question_id", questionID, "actor_id", actorID)
	return nil
}

// ListQuestions returns the whole bank, newest first. Admin only.
func (s *QuestionService) ListQuestions(ctx context.Context, actorID int64) ([]domain.Question, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.AllQuestions(ctx)
}

// The methods below skip the actor check; the CLI runs them as an operator.

func (s *QuestionService) CreateQuestion(ctx context.Context, text string, options []string) (domain.Question, error) {
	q, err := domain.NewQuestion(text, options)
	if err != nil {
		return domain.Question{}, err
	}
	created, err := s.questions.CreateQuestion(ctx, q)
	if err != nil {
		return domain.Question{}, storageErr("create question", err)
	}
	return created, nil
}

func (s *QuestionService) RemoveQuestion(ctx context.Context, id int64) error {
	return storageErr("delete question", s.questions.DeleteQuestion(ctx, id))
}

func (s *QuestionService) AllQuestions(ctx context.Context) ([]domain.Question, error) {
	qs, err := s.questions.ListQuestions(ctx)
	if err != nil {
		return nil, storageErr("list questions", err)
	}
	return qs, nil
}

func (s *QuestionService) requireAdmin(ctx context.Context, actorID int64) error {
	if actorID <= 0 {
		return domain.ErrUnauthenticated
	}
	u, err := s.users.UserByID(ctx, actorID)
	if err != nil {
		return storageErr("load actor", err)
	}
	if !u.IsAdmin {
		return fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	return nil
}
