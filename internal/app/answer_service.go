package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"dailyquest-service/internal/domain"
	"dailyquest-service/internal/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// fanOutLimit caps concurrent group posts for one submission.
const fanOutLimit = 4

// Selector resolves the live question at a given instant.
type Selector interface {
	ActiveQuestionAt(ctx context.Context, now time.Time) (domain.Question, bool, error)
}

// Messenger posts generated messages to a user's groups.
type Messenger interface {
	ListGroupsForUser(ctx context.Context, userID int64) ([]int64, error)
	PostSystemMessage(ctx context.Context, msg domain.Message) (domain.Message, error)
}

// SubmitResult reports what a submission changed.
type SubmitResult struct {
	Accepted bool          `json:"accepted"`
	Answer   domain.Answer `json:"answer"`
	// Changed is false when the user resubmitted the option already stored.
	Changed        bool              `json:"changed"`
	Streak         domain.UserStreak `json:"streak"`
	GainedStrike   bool              `json:"gainedStrike"`
	NotifiedGroups int               `json:"notifiedGroups"`
	FailedGroups   int               `json:"failedGroups"`
}

// AnswerService records answers, keeps strikes and builds tallies.
type AnswerService struct {
	selector    Selector
	questions   QuestionRepository
	answers     AnswerRepository
	users       UserRepository
	messenger   Messenger
	leaderboard Leaderboard
	log         *logger.Logger
	now         func() time.Time
}

type AnswerDeps struct {
	Selector    Selector
	Questions   QuestionRepository
	Answers     AnswerRepository
	Users       UserRepository
	Messenger   Messenger   // optional
	Leaderboard Leaderboard // optional
	Log         *logger.Logger
}

func NewAnswerService(deps AnswerDeps) *AnswerService {
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &AnswerService{
		selector:    deps.Selector,
		questions:   deps.Questions,
		answers:     deps.Answers,
		users:       deps.Users,
		messenger:   deps.Messenger,
		leaderboard: deps.Leaderboard,
		log:         log,
		now:         time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *AnswerService) WithClock(now func() time.Time) *AnswerService {
	s.now = now
	return s
}

// SubmitAnswer stores the user's answer to the live question and applies the strike
// transition in one storage transaction. Group notifications follow the commit and
// never fail the submission.
func (s *AnswerService) SubmitAnswer(ctx context.Context, userID, questionID int64, option int) (SubmitResult, error) {
	if userID <= 0 {
		return SubmitResult{}, domain.ErrUnauthenticated
	}
	active, found, err := s.selector.ActiveQuestionAt(ctx, s.now())
	if err != nil {
		return SubmitResult{}, err
	}
	if !found || active.ID != questionID {
		return SubmitResult{}, fmt.Errorf("%w: question %d is not live", domain.ErrQuestionNotFound, questionID)
	}
	text, err := active.OptionText(option)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: option %d of question %d", err, option, questionID)
	}

	previous, answeredBefore, err := s.answers.FindAnswer(ctx, userID, questionID)
	if err != nil {
		return SubmitResult{}, storageErr("load answer", err)
	}

	period := active.ScheduledFor
	gained := false
	stored, streak, err := s.answers.RecordAnswer(ctx, domain.Answer{
		UserID:     userID,
		QuestionID: questionID,
		Option:     option,
		Text:       text,
	}, func(cur domain.UserStreak) domain.UserStreak {
		next, g := cur.RecordAnswer(period)
		gained = g
		return next
	})
	if err != nil {
		return SubmitResult{}, storageErr("record answer", err)
	}

	res := SubmitResult{
		Accepted:     true,
		Answer:       stored,
		Changed:      !answeredBefore || previous.Option != option,
		Streak:       streak,
		GainedStrike: gained,
	}
	s.log.Info("answer recorded",
		"user_id", userID,
		"question_id", questionID,
		"option", option,
		"streak", streak.Current,
		"gained", gained,
	)

	s.publishStreak(ctx, userID, streak)
	if res.Changed {
		res.NotifiedGroups, res.FailedGroups = s.fanOut(ctx, userID, stored)
	}
	return res, nil
}

func (s *AnswerService) publishStreak(ctx context.Context, userID int64, streak domain.UserStreak) {
	if s.leaderboard == nil || streak.Max <= 0 {
		return
	}
	if err := s.leaderboard.RecordMaxStreak(ctx, userID, streak.Max); err != nil {
		s.log.Warn("leaderboard update failed", "user_id", userID, "error", err)
	}
}

// fanOut posts the answer to every group of the user and returns (delivered, failed).
func (s *AnswerService) fanOut(ctx context.Context, userID int64, answer domain.Answer) (int, int) {
	if s.messenger == nil {
		return 0, 0
	}
	groupIDs, err := s.messenger.ListGroupsForUser(ctx, userID)
	if err != nil {
		s.log.Warn("list groups for fan-out failed", "user_id", userID, "error", err)
		return 0, 0
	}

	var failed atomic.Int32
	var g errgroup.Group
	g.SetLimit(fanOutLimit)
	for _, groupID := range groupIDs {
		groupID := groupID
		g.Go(func() error {
			_, err := s.messenger.PostSystemMessage(ctx, domain.Message{
				GroupID:         groupID,
				UserID:          userID,
				Type:            domain.MessageDailyAnswer,
				Text:            fmt.Sprintf("voted: %q", answer.Text),
				RelatedAnswerID: answer.ID,
			})
			if err != nil {
				failed.Add(1)
				s.log.Warn("answer fan-out failed", "user_id", userID, "group_id", groupID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	n := int(failed.Load())
	return len(groupIDs) - n, n
}

// EvaluateStreak applies the lazy loss check for period and persists a reset.
// It reports whether the strike was lost by this call.
func (s *AnswerService) EvaluateStreak(ctx context.Context, userID int64, period domain.Period) (domain.UserStreak, bool, error) {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return domain.UserStreak{}, false, storageErr("load user", err)
	}
	if _, lost := u.Streak.CheckLoss(period); !lost {
		return u.Streak, false, nil
	}

	lost := false
	streak, err := s.users.UpdateStreak(ctx, userID, func(cur domain.UserStreak) domain.UserStreak {
		next, l := cur.CheckLoss(period)
		lost = l
		return next
	})
	if err != nil {
		return domain.UserStreak{}, false, storageErr("reset streak", err)
	}
	if lost {
		s.log.Info("strike lost", "user_id", userID, "period", period.String(), "max", streak.Max)
	}
	return streak, lost, nil
}

// Tally counts the answers of q per option.
func (s *AnswerService) Tally(ctx context.Context, q domain.Question) (domain.VoteTally, error) {
	counts, err := s.answers.CountVotes(ctx, q.ID)
	if err != nil {
		return domain.VoteTally{}, storageErr("count votes", err)
	}
	return domain.BuildTally(q, counts), nil
}

// AnsweredTally returns the tally of any question the user has answered. Results
// stay hidden from users who have not voted.
func (s *AnswerService) AnsweredTally(ctx context.Context, userID, questionID int64) (domain.VoteTally, error) {
	if userID <= 0 {
		return domain.VoteTally{}, domain.ErrUnauthenticated
	}
	q, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.VoteTally{}, storageErr("load question", err)
	}
	if _, answered, err := s.UserAnswer(ctx, userID, questionID); err != nil {
		return domain.VoteTally{}, err
	} else if !answered {
		return domain.VoteTally{}, fmt.Errorf("%w: answer the question to see results", domain.ErrForbidden)
	}
	return s.Tally(ctx, q)
}

// UserAnswer returns the user's answer to questionID, if any.
func (s *AnswerService) UserAnswer(ctx context.Context, userID, questionID int64) (domain.Answer, bool, error) {
	a, ok, err := s.answers.FindAnswer(ctx, userID, questionID)
	if err != nil {
		return domain.Answer{}, false, storageErr("load answer", err)
	}
	return a, ok, nil
}

// TopStreaks returns the best-streak leaderboard with usernames resolved.
func (s *AnswerService) TopStreaks(ctx context.Context, limit int) ([]domain.StreakEntry, error) {
	if s.leaderboard == nil {
		return []domain.StreakEntry{}, nil
	}
	entries, err := s.leaderboard.TopStreaks(ctx, limit)
	if err != nil {
		return nil, storageErr("load leaderboard", err)
	}
	for i := range entries {
		u, err := s.users.UserByID(ctx, entries[i].UserID)
		if err != nil {
			s.log.Debug("leaderboard user missing", "user_id", entries[i].UserID, "error", err)
			continue
		}
		entries[i].Username = u.Username
	}
	return entries, nil
}

// Streak returns the stored strike without applying the loss check.
func (s *AnswerService) Streak(ctx context.Context, userID int64) (domain.UserStreak, error) {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return domain.UserStreak{}, storageErr("load user", err)
	}
	return u.Streak, nil
}
