package app_test

import (
	"context"
	"errors"
	"testing"

	"dailyquest-service/internal/domain"
)

func TestAuthRegisterLoginAndPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sess, err := f.auth.Register(ctx, "alice", "Alice@Example.com", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	id, err := f.auth.Authenticate(ctx, sess.Token)
	if err != nil || id != sess.User.ID {
		t.Fatalf("authenticate: id=%d err=%v", id, err)
	}
	if _, err := f.auth.Register(ctx, "alice2", "alice@example.com", "secret1"); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected duplicate email rejected, got %v", err)
	}
	if _, err := f.auth.Register(ctx, "bob", "bob@example.com", "short"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected short password rejected, got %v", err)
	}
	if _, err := f.auth.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := f.auth.Login(ctx, "nobody@example.com", "secret1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}

	if err := f.auth.ChangePassword(ctx, sess.User.ID, "wrong", "newsecret"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected current password check, got %v", err)
	}
	if err := f.auth.ChangePassword(ctx, sess.User.ID, "secret1", "newsecret"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := f.auth.Login(ctx, "ALICE@example.com", "newsecret"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := f.auth.Authenticate(ctx, "not-a-token"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for bad token, got %v", err)
	}
}

func TestUpdatePrivacyValidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "alice")
	if err := f.auth.UpdatePrivacy(ctx, u.ID, "friends", "everyone"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected invalid privacy, got %v", err)
	}
	if err := f.auth.UpdatePrivacy(ctx, u.ID, "friends", "private"); err != nil {
		t.Fatalf("update privacy: %v", err)
	}
	got, _ := f.store.UserByID(ctx, u.ID)
	if got.PrivacyFriends != domain.PrivacyFriends || got.PrivacyAnswers != domain.PrivacyPrivate {
		t.Fatalf("privacy not stored: %+v", got)
	}
}

func TestFriendRequestFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	if _, err := f.friends.SendRequest(ctx, alice.ID, alice.ID); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected self request rejected, got %v", err)
	}
	req, err := f.friends.SendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := f.friends.SendRequest(ctx, bob.ID, alice.ID); !errors.Is(err, domain.ErrAlreadyRequested) {
		t.Fatalf("expected duplicate request rejected, got %v", err)
	}

	results, err := f.friends.SearchUsers(ctx, bob.ID, "ali")
	if err != nil || len(results) != 1 {
		t.Fatalf("search: %v %+v", err, results)
	}
	if results[0].Status != domain.FriendshipPending || !results[0].Incoming {
		t.Fatalf("expected incoming pending request, got %+v", results[0])
	}
	if short, _ := f.friends.SearchUsers(ctx, bob.ID, "a"); len(short) != 0 {
		t.Fatalf("one-letter queries must return nothing")
	}

	if err := f.friends.Accept(ctx, alice.ID, req.ID); !errors.Is(err, domain.ErrFriendshipNotFound) {
		t.Fatalf("requester must not accept, got %v", err)
	}
	if err := f.friends.Accept(ctx, bob.ID, req.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	lists, _ := f.friends.Friends(ctx, alice.ID)
	if len(lists.Friends) != 1 || lists.Friends[0].User.ID != bob.ID {
		t.Fatalf("expected bob as friend, got %+v", lists)
	}
	if err := f.friends.Remove(ctx, bob.ID, req.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := f.friends.Remove(ctx, bob.ID, req.ID); !errors.Is(err, domain.ErrFriendshipNotFound) {
		t.Fatalf("expected not found on second remove, got %v", err)
	}
}

func TestProfileHonorsPrivacy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.question(t, "q", "a", "b")
	q := f.live(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")

	_, _ = f.answers.SubmitAnswer(ctx, alice.ID, q.ID, 1)
	_, _ = f.answers.SubmitAnswer(ctx, bob.ID, q.ID, 1)
	if err := f.auth.UpdatePrivacy(ctx, alice.ID, "public", "friends"); err != nil {
		t.Fatalf("privacy: %v", err)
	}
	req, _ := f.friends.SendRequest(ctx, alice.ID, bob.ID)
	_ = f.friends.Accept(ctx, bob.ID, req.ID)

	byBob, err := f.friends.Profile(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if byBob.AnswersHidden || len(byBob.RecentAnswers) != 1 {
		t.Fatalf("friend must see answers, got %+v", byBob)
	}
	if byBob.Compatibility == nil || *byBob.Compatibility != 100 {
		t.Fatalf("expected 100%% compatibility, got %v", byBob.Compatibility)
	}
	if byBob.FriendsCount != 1 || byBob.AnswersCount != 1 || byBob.Streak.Current != 1 {
		t.Fatalf("unexpected counters %+v", byBob)
	}

	byCarol, err := f.friends.Profile(ctx, carol.ID, alice.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if !byCarol.AnswersHidden || byCarol.RecentAnswers != nil {
		t.Fatalf("stranger must not see answers, got %+v", byCarol)
	}
	if byCarol.FriendsHidden || len(byCarol.Friends) != 1 {
		t.Fatalf("public friend list must be visible, got %+v", byCarol)
	}
	if byCarol.Compatibility != nil {
		t.Fatalf("no common answers means no compatibility, got %d", *byCarol.Compatibility)
	}

	own, _ := f.friends.Profile(ctx, alice.ID, alice.ID)
	if own.AnswersHidden || own.Compatibility != nil {
		t.Fatalf("own profile shows everything without compatibility, got %+v", own)
	}
}

func TestGroupMembershipRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")

	g, err := f.groups.CreateGroup(ctx, alice.ID, "  club ", []int64{bob.ID, bob.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if g.Name != "club" {
		t.Fatalf("expected trimmed name, got %q", g.Name)
	}
	if _, err := f.groups.CreateGroup(ctx, alice.ID, " ", nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected empty name rejected, got %v", err)
	}

	if err := f.groups.AddMember(ctx, bob.ID, g.ID, carol.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("only the creator adds members, got %v", err)
	}
	if err := f.groups.AddMember(ctx, alice.ID, g.ID, carol.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.groups.Leave(ctx, alice.ID, g.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("creator cannot leave, got %v", err)
	}
	if err := f.groups.Leave(ctx, carol.ID, g.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if _, err := f.groups.PostMessage(ctx, carol.ID, g.ID, "hi", 0); !errors.Is(err, domain.ErrNotGroupMember) {
		t.Fatalf("former member must not post, got %v", err)
	}
	if err := f.groups.RemoveMember(ctx, alice.ID, g.ID, bob.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	conv, err := f.groups.Conversation(ctx, alice.ID, g.ID)
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	want := []string{"alice added carol to the group.", "carol left the group.", "bob was removed by alice."}
	if len(conv.Messages) != len(want) {
		t.Fatalf("expected %d system messages, got %+v", len(want), conv.Messages)
	}
	for i, m := range conv.Messages {
		if m.Type != domain.MessageSystem || m.Text != want[i] {
			t.Fatalf("message %d: got %q (%s), want %q", i, m.Text, m.Type, want[i])
		}
	}
	if len(conv.Members) != 1 {
		t.Fatalf("expected only the creator left, got %+v", conv.Members)
	}
}

func TestHomeRevealsTallyAfterAnswer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")

	view, err := f.home.Home(ctx, alice.ID)
	if err != nil {
		t.Fatalf("home: %v", err)
	}
	if view.Question != nil || view.Placeholder == "" {
		t.Fatalf("expected placeholder with an empty bank, got %+v", view)
	}

	f.question(t, "q", "a", "b")
	view, _ = f.home.Home(ctx, alice.ID)
	if view.Question == nil || view.HasAnswered || view.Tally != nil {
		t.Fatalf("tally must stay hidden before answering, got %+v", view)
	}
	if !view.NextRollover.Equal(at(2024, 1, 12, 12)) {
		t.Fatalf("unexpected next rollover %s", view.NextRollover)
	}

	if _, err := f.answers.SubmitAnswer(ctx, alice.ID, view.Question.ID, 2); err != nil {
		t.Fatalf("submit: %v", err)
	}
	view, _ = f.home.Home(ctx, alice.ID)
	if !view.HasAnswered || view.UserAnswer.Option != 2 || view.Tally == nil || view.Tally.Total != 1 {
		t.Fatalf("expected answer and tally, got %+v", view)
	}
	if _, err := f.home.Home(ctx, 0); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestRenameGroupCreatorOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	g, err := f.groups.CreateGroup(ctx, alice.ID, "club", []int64{bob.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.groups.RenameGroup(ctx, bob.ID, g.ID, "bob's club"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("only the creator renames, got %v", err)
	}
	if _, err := f.groups.RenameGroup(ctx, alice.ID, g.ID, "   "); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected blank name rejected, got %v", err)
	}
	if _, err := f.groups.RenameGroup(ctx, alice.ID, g.ID+100, "x"); !errors.Is(err, domain.ErrGroupNotFound) {
		t.Fatalf("expected unknown group, got %v", err)
	}
	renamed, err := f.groups.RenameGroup(ctx, alice.ID, g.ID, "  book club ")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Name != "book club" {
		t.Fatalf("expected trimmed name, got %q", renamed.Name)
	}
	stored, _ := f.store.GetGroup(ctx, g.ID)
	if stored.Name != "book club" {
		t.Fatalf("rename not stored: %+v", stored)
	}
	conv, _ := f.groups.Conversation(ctx, alice.ID, g.ID)
	if len(conv.Messages) != 0 {
		t.Fatalf("rename must not post messages, got %+v", conv.Messages)
	}
}
