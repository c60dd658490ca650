package app

import (
	"context"
	"time"

	"dailyquest-service/internal/domain"
)

// NoQuestionPlaceholder is shown when the bank has nothing to activate.
const NoQuestionPlaceholder = "No question today. Check back after noon."

// HomeView is everything the landing screen needs for one user.
type HomeView struct {
	Period       domain.Period         `json:"period"`
	NextRollover time.Time             `json:"nextRollover"`
	Question     *domain.Question      `json:"question,omitempty"`
	Placeholder  string                `json:"placeholder,omitempty"`
	HasAnswered  bool                  `json:"hasAnswered"`
	UserAnswer   *domain.Answer        `json:"userAnswer,omitempty"`
	Tally        *domain.VoteTally     `json:"tally,omitempty"`
	Streak       domain.UserStreak     `json:"streak"`
	LostStrike   bool                  `json:"lostStrike"`
	Groups       []domain.GroupSummary `json:"groups"`
}

// GroupLister lists a user's groups for the home screen.
type GroupLister interface {
	Groups(ctx context.Context, userID int64) ([]domain.GroupSummary, error)
}

// HomeService composes the selector, answers and groups into the landing view.
type HomeService struct {
	questions *QuestionService
	answers   *AnswerService
	groups    GroupLister
}

func NewHomeService(questions *QuestionService, answers *AnswerService, groups GroupLister) *HomeService {
	return &HomeService{questions: questions, answers: answers, groups: groups}
}

// Home resolves the live question, the user's answer and strike. The tally is only
// revealed after the user answered. The loss check runs only while a question is live.
func (s *HomeService) Home(ctx context.Context, userID int64) (HomeView, error) {
	if userID <= 0 {
		return HomeView{}, domain.ErrUnauthenticated
	}
	now := s.questions.Now()
	cal := s.questions.Calendar()
	view := HomeView{
		Period:       cal.PeriodOf(now),
		NextRollover: cal.NextRollover(now),
		Groups:       []domain.GroupSummary{},
	}

	q, found, err := s.questions.ActiveQuestionAt(ctx, now)
	if err != nil {
		return HomeView{}, err
	}

	if found {
		view.Question = &q
		streak, lost, err := s.answers.EvaluateStreak(ctx, userID, q.ScheduledFor)
		if err != nil {
			return HomeView{}, err
		}
		view.Streak, view.LostStrike = streak, lost

		a, answered, err := s.answers.UserAnswer(ctx, userID, q.ID)
		if err != nil {
			return HomeView{}, err
		}
		if answered {
			view.HasAnswered = true
			view.UserAnswer = &a
			tally, err := s.answers.Tally(ctx, q)
			if err != nil {
				return HomeView{}, err
			}
			view.Tally = &tally
		}
	} else {
		view.Placeholder = NoQuestionPlaceholder
		streak, err := s.answers.Streak(ctx, userID)
		if err != nil {
			return HomeView{}, err
		}
		view.Streak = streak
	}

	if s.groups != nil {
		groups, err := s.groups.Groups(ctx, userID)
		if err != nil {
			return HomeView{}, err
		}
		view.Groups = groups
	}
	return view, nil
}
