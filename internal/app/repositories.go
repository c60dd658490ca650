package app

import (
	"context"

	"dailyquest-service/internal/domain"
)

// StreakStep transforms a user's streak inside a storage transaction.
type StreakStep func(domain.UserStreak) domain.UserStreak

// QuestionRepository stores the question bank and the active-question flag.
// Activate and Deactivate are conditional transitions: they report false when the
// expected prior state no longer holds.
type QuestionRepository interface {
	ActiveQuestion(ctx context.Context) (domain.Question, bool, error)
	RandomInactive(ctx context.Context) (domain.Question, bool, error)
	// Activate marks id active for period only if no question is active.
	Activate(ctx context.Context, id int64, period domain.Period) (bool, error)
	// Deactivate clears id only if it is still active for period.
	Deactivate(ctx context.Context, id int64, period domain.Period) (bool, error)
	GetQuestion(ctx context.Context, id int64) (domain.Question, error)
	CreateQuestion(ctx context.Context, q domain.Question) (domain.Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
	ListQuestions(ctx context.Context) ([]domain.Question, error)
}

// AnswerRepository stores answers keyed on (user, question).
type AnswerRepository interface {
	// RecordAnswer upserts the answer and applies step to the author's streak atomically.
	RecordAnswer(ctx context.Context, answer domain.Answer, step StreakStep) (domain.Answer, domain.UserStreak, error)
	FindAnswer(ctx context.Context, userID, questionID int64) (domain.Answer, bool, error)
	// CountVotes returns answer counts keyed by option number.
	CountVotes(ctx context.Context, questionID int64) (map[int]int, error)
	CountAnswers(ctx context.Context, userID int64) (int, error)
	RecentAnswers(ctx context.Context, userID int64, limit int) ([]domain.AnswerHistoryEntry, error)
	// Compatibility counts questions both users answered and how many got the same option.
	Compatibility(ctx context.Context, userA, userB int64) (matching, common int, err error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	UserByID(ctx context.Context, id int64) (domain.User, error)
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdatePrivacy(ctx context.Context, id int64, friends, answers domain.Privacy) error
	SetAdmin(ctx context.Context, id int64, admin bool) error
	// UpdateStreak applies step to the stored streak under a row lock and returns the result.
	UpdateStreak(ctx context.Context, id int64, step StreakStep) (domain.UserStreak, error)
	SearchUsers(ctx context.Context, query string, excludeID int64, limit int) ([]domain.UserSummary, error)
}

type GroupRepository interface {
	CreateGroup(ctx context.Context, name string, createdBy int64, memberIDs []int64) (domain.Group, error)
	GetGroup(ctx context.Context, id int64) (domain.Group, error)
	RenameGroup(ctx context.Context, id int64, name string) error
	// AddMember reports false when the user already belongs to the group.
	AddMember(ctx context.Context, groupID, userID int64) (bool, error)
	RemoveMember(ctx context.Context, groupID, userID int64) (bool, error)
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
	GroupIDsForUser(ctx context.Context, userID int64) ([]int64, error)
	// GroupSummaries lists the user's groups, most recent activity first.
	// Pings count unread messages mentioning "@username".
	GroupSummaries(ctx context.Context, userID int64, username string) ([]domain.GroupSummary, error)
	Members(ctx context.Context, groupID int64) ([]domain.UserSummary, error)
	// InsertMessage fills ID, CreatedAt and Username.
	InsertMessage(ctx context.Context, msg domain.Message) (domain.Message, error)
	Messages(ctx context.Context, groupID int64) ([]domain.Message, error)
	ReadReceipts(ctx context.Context, groupID int64) ([]domain.ReadReceipt, error)
	MarkRead(ctx context.Context, groupID, userID int64) error
}

type FriendRepository interface {
	// CreateFriendship returns domain.ErrAlreadyRequested when any friendship links the pair.
	CreateFriendship(ctx context.Context, requesterID, addresseeID int64) (domain.Friendship, error)
	FriendshipBetween(ctx context.Context, a, b int64) (domain.Friendship, bool, error)
	AcceptFriendship(ctx context.Context, id, addresseeID int64) (bool, error)
	DeleteFriendship(ctx context.Context, id, userID int64) (bool, error)
	FriendLists(ctx context.Context, userID int64) (domain.FriendLists, error)
}

// Leaderboard ranks users by best streak.
type Leaderboard interface {
	RecordMaxStreak(ctx context.Context, userID int64, maxStreak int) error
	TopStreaks(ctx context.Context, limit int) ([]domain.StreakEntry, error)
}

// MessageBus delivers stored group messages to live subscribers.
// The caller must invoke the returned cancel function to avoid leaks.
type MessageBus interface {
	Publish(ctx context.Context, msg domain.Message) error
	Subscribe(ctx context.Context, groupID int64) (<-chan domain.Message, func(), error)
}

// TokenIssuer signs and verifies identity tokens.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
	Parse(token string) (int64, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
