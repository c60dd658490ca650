package app

import (
	"context"
	"fmt"
	"strings"

	"dailyquest-service/internal/domain"
	"dailyquest-service/internal/pkg/logger"
)

const (
	MaxGroupNameLength = 100
	MaxMessageLength   = 2000
)

// Conversation is a group's message history plus read positions.
type Conversation struct {
	Group        domain.Group         `json:"group"`
	Members      []domain.UserSummary `json:"members"`
	Messages     []domain.Message     `json:"messages"`
	ReadReceipts []domain.ReadReceipt `json:"readReceipts"`
}

// GroupService manages discussion groups and their messages.
type GroupService struct {
	groups GroupRepository
	users  UserRepository
	bus    MessageBus
	log    *logger.Logger
}

func NewGroupService(groups GroupRepository, users UserRepository, bus MessageBus, log *logger.Logger) *GroupService {
	if log == nil {
		log = logger.NewNop()
	}
	return &GroupService{groups: groups, users: users, bus: bus, log: log}
}

// CreateGroup creates a group owned by creatorID with the creator and memberIDs as members.
func (s *GroupService) CreateGroup(ctx context.Context, creatorID int64, name string, memberIDs []int64) (domain.Group, error) {
	if creatorID <= 0 {
		return domain.Group{}, domain.ErrUnauthenticated
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxGroupNameLength {
		return domain.Group{}, fmt.Errorf("%w: group name must be 1 to %d characters", domain.ErrInvalidArgument, MaxGroupNameLength)
	}
	seen := map[int64]bool{creatorID: true}
	members := []int64{creatorID}
	for _, id := range memberIDs {
		if seen[id] {
			continue
		}
		if _, err := s.users.UserByID(ctx, id); err != nil {
			return domain.Group{}, storageErr("load member", err)
		}
		seen[id] = true
		members = append(members, id)
	}
	g, err := s.groups.CreateGroup(ctx, name, creatorID, members)
	if err != nil {
		return domain.Group{}, storageErr("create group", err)
	}
	s.log.Info("group created", "group_id", g.ID, "creator_id", creatorID, "members", len(members))
	return g, nil
}

// RenameGroup lets the group creator change its name.
func (s *GroupService) RenameGroup(ctx context.Context, actorID, groupID int64, name string) (domain.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxGroupNameLength {
		return domain.Group{}, fmt.Errorf("%w: group name must be 1 to %d characters", domain.ErrInvalidArgument, MaxGroupNameLength)
	}
	g, err := s.requireCreator(ctx, groupID, actorID)
	if err != nil {
		return domain.Group{}, err
	}
	if err := s.groups.RenameGroup(ctx, g.ID, name); err != nil {
		return domain.Group{}, storageErr("rename group", err)
	}
	g.Name = name
	return g, nil
}

// Groups lists the user's groups with unread counters.
func (s *GroupService) Groups(ctx context.Context, userID int64) ([]domain.GroupSummary, error) {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return nil, storageErr("load user", err)
	}
	groups, err := s.groups.GroupSummaries(ctx, userID, u.Username)
	if err != nil {
		return nil, storageErr("list groups", err)
	}
	return groups, nil
}

// ListGroupsForUser returns the ids of every group the user belongs to.
func (s *GroupService) ListGroupsForUser(ctx context.Context, userID int64) ([]int64, error) {
	ids, err := s.groups.GroupIDsForUser(ctx, userID)
	if err != nil {
		return nil, storageErr("list group ids", err)
	}
	return ids, nil
}

// PostSystemMessage stores a generated message and publishes it to live subscribers.
func (s *GroupService) PostSystemMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	if msg.Type == "" {
		msg.Type = domain.MessageSystem
	}
	return s.store(ctx, msg)
}

// PostMessage stores a chat message from a member.
func (s *GroupService) PostMessage(ctx context.Context, userID, groupID int64, text string, replyToID int64) (domain.Message, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return domain.Message{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" || len(text) > MaxMessageLength {
		return domain.Message{}, fmt.Errorf("%w: message must be 1 to %d characters", domain.ErrInvalidArgument, MaxMessageLength)
	}
	msg, err := s.store(ctx, domain.Message{
		GroupID:   groupID,
		UserID:    userID,
		Text:      text,
		Type:      domain.MessageStandard,
		ReplyToID: replyToID,
	})
	if err != nil {
		return domain.Message{}, err
	}
	// the author has read their own message
	if err := s.groups.MarkRead(ctx, groupID, userID); err != nil {
		s.log.Warn("mark read failed", "group_id", groupID, "user_id", userID, "error", err)
	}
	return msg, nil
}

func (s *GroupService) store(ctx context.Context, msg domain.Message) (domain.Message, error) {
	stored, err := s.groups.InsertMessage(ctx, msg)
	if err != nil {
		return domain.Message{}, storageErr("insert message", err)
	}
	if s.bus != nil {
		if err := s.bus.Publish(ctx, stored); err != nil {
			s.log.Warn("publish message failed", "group_id", stored.GroupID, "message_id", stored.ID, "error", err)
		}
	}
	return stored, nil
}

// Conversation returns the group's history and marks it read for userID.
func (s *GroupService) Conversation(ctx context.Context, userID, groupID int64) (Conversation, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return Conversation{}, err
	}
	g, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return Conversation{}, storageErr("load group", err)
	}
	members, err := s.groups.Members(ctx, groupID)
	if err != nil {
		return Conversation{}, storageErr("list members", err)
	}
	if err := s.groups.MarkRead(ctx, groupID, userID); err != nil {
		return Conversation{}, storageErr("mark read", err)
	}
	msgs, err := s.groups.Messages(ctx, groupID)
	if err != nil {
		return Conversation{}, storageErr("list messages", err)
	}
	receipts, err := s.groups.ReadReceipts(ctx, groupID)
	if err != nil {
		return Conversation{}, storageErr("list read receipts", err)
	}
	return Conversation{Group: g, Members: members, Messages: msgs, ReadReceipts: receipts}, nil
}

func (s *GroupService) MarkRead(ctx context.Context, userID, groupID int64) error {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return err
	}
	return storageErr("mark read", s.groups.MarkRead(ctx, groupID, userID))
}

// AddMember lets the group creator add a user.
func (s *GroupService) AddMember(ctx context.Context, actorID, groupID, userID int64) error {
	g, err := s.requireCreator(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	target, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return storageErr("load user", err)
	}
	added, err := s.groups.AddMember(ctx, g.ID, userID)
	if err != nil {
		return storageErr("add member", err)
	}
	if !added {
		return nil
	}
	s.announce(ctx, g.ID, actorID, func(actor string) string {
		return fmt.Sprintf("%s added %s to the group.", actor, target.Username)
	})
	return nil
}

// RemoveMember lets the group creator remove another member.
func (s *GroupService) RemoveMember(ctx context.Context, actorID, groupID, userID int64) error {
	g, err := s.requireCreator(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if userID == g.CreatedBy {
		return fmt.Errorf("%w: the creator cannot be removed", domain.ErrForbidden)
	}
	target, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return storageErr("load user", err)
	}
	removed, err := s.groups.RemoveMember(ctx, g.ID, userID)
	if err != nil {
		return storageErr("remove member", err)
	}
	if !removed {
		return domain.ErrNotGroupMember
	}
	s.announce(ctx, g.ID, actorID, func(actor string) string {
		return fmt.Sprintf("%s was removed by %s.", target.Username, actor)
	})
	return nil
}

// Leave removes userID from the group. The creator cannot leave.
func (s *GroupService) Leave(ctx context.Context, userID, groupID int64) error {
	if userID <= 0 {
		return domain.ErrUnauthenticated
	}
	g, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return storageErr("load group", err)
	}
	if g.CreatedBy == userID {
		return fmt.Errorf("%w: the creator cannot leave the group", domain.ErrForbidden)
	}
	removed, err := s.groups.RemoveMember(ctx, groupID, userID)
	if err != nil {
		return storageErr("remove member", err)
	}
	if !removed {
		return domain.ErrNotGroupMember
	}
	s.announce(ctx, groupID, userID, func(actor string) string {
		return fmt.Sprintf("%s left the group.", actor)
	})
	return nil
}

// Subscribe streams new messages of a group to a member.
func (s *GroupService) Subscribe(ctx context.Context, userID, groupID int64) (<-chan domain.Message, func(), error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, nil, err
	}
	if s.bus == nil {
		return nil, nil, fmt.Errorf("%w: live updates disabled", domain.ErrStorage)
	}
	return s.bus.Subscribe(ctx, groupID)
}

func (s *GroupService) announce(ctx context.Context, groupID, actorID int64, text func(actor string) string) {
	actor, err := s.users.UserByID(ctx, actorID)
	if err != nil {
		s.log.Warn("announce: load actor failed", "user_id", actorID, "error", err)
		return
	}
	if _, err := s.PostSystemMessage(ctx, domain.Message{
		GroupID: groupID,
		UserID:  actorID,
		Type:    domain.MessageSystem,
		Text:    text(actor.Username),
	}); err != nil {
		s.log.Warn("announce failed", "group_id", groupID, "error", err)
	}
}

func (s *GroupService) requireMember(ctx context.Context, groupID, userID int64) error {
	if userID <= 0 {
		return domain.ErrUnauthenticated
	}
	ok, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return storageErr("check membership", err)
	}
	if !ok {
		return domain.ErrNotGroupMember
	}
	return nil
}

func (s *GroupService) requireCreator(ctx context.Context, groupID, userID int64) (domain.Group, error) {
	if userID <= 0 {
		return domain.Group{}, domain.ErrUnauthenticated
	}
	g, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return domain.Group{}, storageErr("load group", err)
	}
	if g.CreatedBy != userID {
		return domain.Group{}, fmt.Errorf("%w: only the group creator can manage the group", domain.ErrForbidden)
	}
	return g, nil
}
