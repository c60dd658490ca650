package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinOptions = 2
	MaxOptions = 4
)

// Question is one entry of the question bank.
type Question struct {
	ID           int64     `json:"id"`
	Text         string    `json:"text"`
	Options      []string  `json:"options"`
	IsActive     bool      `json:"isActive"`
	ScheduledFor Period    `json:"scheduledFor"` // zero until first activation
	CreatedAt    time.Time `json:"createdAt"`
}

// OptionText returns the text of a 1-based option number.
func (q Question) OptionText(option int) (string, error) {
	if option < 1 || option > len(q.Options) {
		return "", ErrInvalidOption
	}
	return q.Options[option-1], nil
}

// NewQuestion trims and validates admin input.
func NewQuestion(text string, options []string) (Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Question{}, fmt.Errorf("%w: text is required", ErrInvalidQuestion)
	}
	cleaned := make([]string, 0, len(options))
	for _, opt := range options {
		if opt = strings.TrimSpace(opt); opt != "" {
			cleaned = append(cleaned, opt)
		}
	}
	if len(cleaned) < MinOptions || len(cleaned) > MaxOptions {
		return Question{}, fmt.Errorf("%w: need %d to %d options, got %d", ErrInvalidQuestion, MinOptions, MaxOptions, len(cleaned))
	}
	return Question{Text: text, Options: cleaned}, nil
}

// Answer is a user's single answer to a question. Text is copied from the option at submission time.
type Answer struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"userId"`
	QuestionID int64     `json:"questionId"`
	Option     int       `json:"option"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AnswerHistoryEntry is an answer joined with its question, used by profiles.
type AnswerHistoryEntry struct {
	AnswerID     int64     `json:"answerId"`
	QuestionID   int64     `json:"questionId"`
	QuestionText string    `json:"questionText"`
	Option       int       `json:"option"`
	Text         string    `json:"text"`
	AnsweredAt   time.Time `json:"answeredAt"`
}

// Privacy controls who can see parts of a profile.
type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyFriends Privacy = "friends"
	PrivacyPrivate Privacy = "private"
)

func ParsePrivacy(raw string) (Privacy, error) {
	switch p := Privacy(raw); p {
	case PrivacyPublic, PrivacyFriends, PrivacyPrivate:
		return p, nil
	}
	return "", fmt.Errorf("%w: privacy %q", ErrInvalidArgument, raw)
}

// Allows reports whether a viewer with the given relationship may see the guarded data.
func (p Privacy) Allows(own, friends bool) bool {
	switch {
	case own:
		return true
	case p == PrivacyPublic:
		return true
	case p == PrivacyFriends:
		return friends
	default:
		return false
	}
}

type User struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"-"`
	PasswordHash   string     `json:"-"`
	IsAdmin        bool       `json:"isAdmin"`
	Streak         UserStreak `json:"streak"`
	PrivacyFriends Privacy    `json:"privacyFriends"`
	PrivacyAnswers Privacy    `json:"privacyAnswers"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// UserSummary is the public face of a user in lists.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// MessageType distinguishes chat messages from generated ones.
type MessageType string

const (
	MessageStandard    MessageType = "standard"
	MessageSystem      MessageType = "system"
	MessageDailyAnswer MessageType = "daily_answer"
)

type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int64     `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// GroupSummary is a group as listed for one member.
type GroupSummary struct {
	Group
	MemberCount     int        `json:"memberCount"`
	LastMessage     string     `json:"lastMessage,omitempty"`
	LastAuthor      string     `json:"lastAuthor,omitempty"`
	LastMessageAt   *time.Time `json:"lastMessageAt,omitempty"`
	UnreadCount     int        `json:"unreadCount"`
	UnreadPingCount int        `json:"unreadPingCount"`
}

type Message struct {
	ID              int64       `json:"id"`
	GroupID         int64       `json:"groupId"`
	UserID          int64       `json:"userId"`
	Username        string      `json:"username"`
	Text            string      `json:"text"`
	Type            MessageType `json:"type"`
	RelatedAnswerID int64       `json:"relatedAnswerId,omitempty"`
	ReplyToID       int64       `json:"replyToId,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// ReadReceipt marks the last message a member has read.
type ReadReceipt struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	MessageID int64  `json:"messageId"`
}

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

type Friendship struct {
	ID          int64            `json:"id"`
	RequesterID int64            `json:"requesterId"`
	AddresseeID int64            `json:"addresseeId"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Other returns the id on the opposite side of the friendship from userID.
func (f Friendship) Other(userID int64) int64 {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}

// FriendEntry is a friendship seen from one user.
type FriendEntry struct {
	FriendshipID int64       `json:"friendshipId"`
	User         UserSummary `json:"user"`
}

type FriendLists struct {
	Friends  []FriendEntry `json:"friends"`
	Incoming []FriendEntry `json:"incoming"`
	Outgoing []FriendEntry `json:"outgoing"`
}

// StreakEntry is one row of the streak leaderboard.
type StreakEntry struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username,omitempty"`
	MaxStreak int    `json:"maxStreak"`
	Rank      int    `json:"rank"`
}
