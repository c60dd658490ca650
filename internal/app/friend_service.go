package app

import (
	"context"
	"fmt"
	"strings"

	"dailyquest-service/internal/domain"
	"dailyquest-service/internal/pkg/logger"
)

const (
	MinSearchLength     = 2
	MaxSearchResults    = 10
	RecentAnswersOnPage = 15
)

// SearchResult is a user found by search, with the relationship to the searcher.
type SearchResult struct {
	User   domain.UserSummary      `json:"user"`
	Status domain.FriendshipStatus `json:"status,omitempty"`
	// Incoming is true when a pending request was sent by the found user.
	Incoming bool `json:"incoming,omitempty"`
}

// Profile is a user's public page as seen by a viewer.
type Profile struct {
	User          domain.UserSummary          `json:"user"`
	Streak        domain.UserStreak           `json:"streak"`
	AnswersCount  int                         `json:"answersCount"`
	FriendsCount  int                         `json:"friendsCount"`
	Friendship    *domain.Friendship          `json:"friendship,omitempty"`
	Compatibility *int                        `json:"compatibility,omitempty"`
	Friends       []domain.UserSummary        `json:"friends,omitempty"`
	RecentAnswers []domain.AnswerHistoryEntry `json:"recentAnswers,omitempty"`
	FriendsHidden bool                        `json:"friendsHidden"`
	AnswersHidden bool                        `json:"answersHidden"`
}

// FriendService manages friendships, user search and profiles.
type FriendService struct {
	friends FriendRepository
	users   UserRepository
	answers AnswerRepository
	log     *logger.Logger
}

func NewFriendService(friends FriendRepository, users UserRepository, answers AnswerRepository, log *logger.Logger) *FriendService {
	if log == nil {
		log = logger.NewNop()
	}
	return &FriendService{friends: friends, users: users, answers: answers, log: log}
}

func (s *FriendService) SendRequest(ctx context.Context, fromID, toID int64) (domain.Friendship, error) {
	if fromID <= 0 {
		return domain.Friendship{}, domain.ErrUnauthenticated
	}
	if fromID == toID {
		return domain.Friendship{}, fmt.Errorf("%w: cannot befriend yourself", domain.ErrInvalidArgument)
	}
	if _, err := s.users.UserByID(ctx, toID); err != nil {
		return domain.Friendship{}, storageErr("load user", err)
	}
	f, err := s.friends.CreateFriendship(ctx, fromID, toID)
	if err != nil {
		return domain.Friendship{}, storageErr("create friendship", err)
	}
	s.log.Info("friend request sent", "friendship_id", f.ID, "from", fromID, "to", toID)
	return f, nil
}

// Accept confirms a pending request; only its addressee may accept.
func (s *FriendService) Accept(ctx context.Context, userID, friendshipID int64) error {
	if userID <= 0 {
		return domain.ErrUnauthenticated
	}
	ok, err := s.friends.AcceptFriendship(ctx, friendshipID, userID)
	if err != nil {
		return storageErr("accept friendship", err)
	}
	if !ok {
		return domain.ErrFriendshipNotFound
	}
	return nil
}

// Remove deletes a friendship or request the user is part of.
func (s *FriendService) Remove(ctx context.Context, userID, friendshipID int64) error {
	if userID <= 0 {
		return domain.ErrUnauthenticated
	}
	ok, err := s.friends.DeleteFriendship(ctx, friendshipID, userID)
	if err != nil {
		return storageErr("delete friendship", err)
	}
	if !ok {
		return domain.ErrFriendshipNotFound
	}
	return nil
}

func (s *FriendService) Friends(ctx context.Context, userID int64) (domain.FriendLists, error) {
	if userID <= 0 {
		return domain.FriendLists{}, domain.ErrUnauthenticated
	}
	lists, err := s.friends.FriendLists(ctx, userID)
	if err != nil {
		return domain.FriendLists{}, storageErr("list friends", err)
	}
	return lists, nil
}

// SearchUsers finds users by username prefix or substring, excluding the searcher.
func (s *FriendService) SearchUsers(ctx context.Context, userID int64, query string) ([]SearchResult, error) {
	if userID <= 0 {
		return nil, domain.ErrUnauthenticated
	}
	query = strings.TrimSpace(query)
	if len(query) < MinSearchLength {
		return []SearchResult{}, nil
	}
	users, err := s.users.SearchUsers(ctx, query, userID, MaxSearchResults)
	if err != nil {
		return nil, storageErr("search users", err)
	}
	out := make([]SearchResult, 0, len(users))
	for _, u := range users {
		res := SearchResult{User: u}
		f, ok, err := s.friends.FriendshipBetween(ctx, userID, u.ID)
		if err != nil {
			return nil, storageErr("load friendship", err)
		}
		if ok {
			res.Status = f.Status
			res.Incoming = f.Status == domain.FriendshipPending && f.AddresseeID == userID
		}
		out = append(out, res)
	}
	return out, nil
}

// Profile builds userID's profile as seen by viewerID, honoring privacy settings.
func (s *FriendService) Profile(ctx context.Context, viewerID, userID int64) (Profile, error) {
	if viewerID <= 0 {
		return Profile{}, domain.ErrUnauthenticated
	}
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return Profile{}, storageErr("load user", err)
	}
	p := Profile{
		User:   domain.UserSummary{ID: u.ID, Username: u.Username},
		Streak: u.Streak,
	}

	own := viewerID == userID
	areFriends := false
	if !own {
		f, ok, err := s.friends.FriendshipBetween(ctx, viewerID, userID)
		if err != nil {
			return Profile{}, storageErr("load friendship", err)
		}
		if ok {
			p.Friendship = &f
			areFriends = f.Status == domain.FriendshipAccepted
		}
	}

	if p.AnswersCount, err = s.answers.CountAnswers(ctx, userID); err != nil {
		return Profile{}, storageErr("count answers", err)
	}
	lists, err := s.friends.FriendLists(ctx, userID)
	if err != nil {
		return Profile{}, storageErr("list friends", err)
	}
	p.FriendsCount = len(lists.Friends)

	if !own {
		matching, common, err := s.answers.Compatibility(ctx, viewerID, userID)
		if err != nil {
			return Profile{}, storageErr("compatibility", err)
		}
		if common > 0 {
			pct := domain.Percent(matching, common)
			p.Compatibility = &pct
		}
	}

	if u.PrivacyFriends.Allows(own, areFriends) {
		p.Friends = make([]domain.UserSummary, 0, len(lists.Friends))
		for _, f := range lists.Friends {
			p.Friends = append(p.Friends, f.User)
		}
	} else {
		p.FriendsHidden = true
	}

	if u.PrivacyAnswers.Allows(own, areFriends) {
		p.RecentAnswers, err = s.answers.RecentAnswers(ctx, userID, RecentAnswersOnPage)
		if err != nil {
			return Profile{}, storageErr("recent answers", err)
		}
	} else {
		p.AnswersHidden = true
	}
	return p, nil
}
