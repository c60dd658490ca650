package memory

import (
	"context"
	"errors"
	"testing"

	"dailyquest-service/internal/domain"
)

func TestGroupSummariesCountUnreadAndPings(t *testing.T) {
	ctx := context.Background()
	s := NewStoreWithClock(fixedClock())
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	g, err := s.CreateGroup(ctx, "book club", alice.ID, []int64{bob.ID})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	for _, text := range []string{"hello", "hey @Alice look", "bye"} {
		if _, err := s.InsertMessage(ctx, domain.Message{GroupID: g.ID, UserID: bob.ID, Text: text, Type: domain.MessageStandard}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if _, err := s.InsertMessage(ctx, domain.Message{GroupID: g.ID, UserID: alice.ID, Text: "own", Type: domain.MessageStandard}); err != nil {
		t.Fatalf("insert own: %v", err)
	}

	sums, err := s.GroupSummaries(ctx, alice.ID, alice.Username)
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if len(sums) != 1 {
		t.Fatalf("expected one group, got %d", len(sums))
	}
	sum := sums[0]
	if sum.UnreadCount != 3 || sum.UnreadPingCount != 1 {
		t.Fatalf("expected 3 unread and 1 ping, got %d/%d", sum.UnreadCount, sum.UnreadPingCount)
	}
	if sum.MemberCount != 2 || sum.LastMessage != "own" || sum.LastAuthor != "alice" {
		t.Fatalf("unexpected summary %+v", sum)
	}

	if err := s.MarkRead(ctx, g.ID, alice.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	sums, _ = s.GroupSummaries(ctx, alice.ID, alice.Username)
	if sums[0].UnreadCount != 0 {
		t.Fatalf("expected no unread after mark read, got %d", sums[0].UnreadCount)
	}
	receipts, _ := s.ReadReceipts(ctx, g.ID)
	if len(receipts) != 1 || receipts[0].UserID != alice.ID {
		t.Fatalf("expected alice's receipt, got %+v", receipts)
	}
}

func TestMembershipChanges(t *testing.T) {
	ctx := context.Background()
	s := NewStoreWithClock(fixedClock())
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	g, _ := s.CreateGroup(ctx, "g", alice.ID, nil)

	if added, _ := s.AddMember(ctx, g.ID, bob.ID); !added {
		t.Fatalf("expected bob added")
	}
	if added, _ := s.AddMember(ctx, g.ID, bob.ID); added {
		t.Fatalf("second add must report false")
	}
	ids, _ := s.GroupIDsForUser(ctx, bob.ID)
	if len(ids) != 1 || ids[0] != g.ID {
		t.Fatalf("expected bob in group, got %v", ids)
	}
	if removed, _ := s.RemoveMember(ctx, g.ID, bob.ID); !removed {
		t.Fatalf("expected bob removed")
	}
	if ok, _ := s.IsMember(ctx, g.ID, bob.ID); ok {
		t.Fatalf("bob must no longer be a member")
	}
	if _, err := s.IsMember(ctx, 999, bob.ID); !errors.Is(err, domain.ErrGroupNotFound) {
		t.Fatalf("expected group not found, got %v", err)
	}
}

func TestFriendshipLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStoreWithClock(fixedClock())
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")

	f, err := s.CreateFriendship(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := s.CreateFriendship(ctx, bob.ID, alice.ID); !errors.Is(err, domain.ErrAlreadyRequested) {
		t.Fatalf("expected reverse request rejected, got %v", err)
	}

	lists, _ := s.FriendLists(ctx, bob.ID)
	if len(lists.Incoming) != 1 || lists.Incoming[0].User.Username != "alice" {
		t.Fatalf("expected incoming request from alice, got %+v", lists)
	}

	if ok, _ := s.AcceptFriendship(ctx, f.ID, alice.ID); ok {
		t.Fatalf("requester must not accept their own request")
	}
	if ok, _ := s.AcceptFriendship(ctx, f.ID, bob.ID); !ok {
		t.Fatalf("addressee accept failed")
	}
	lists, _ = s.FriendLists(ctx, alice.ID)
	if len(lists.Friends) != 1 || lists.Friends[0].User.ID != bob.ID {
		t.Fatalf("expected bob as friend, got %+v", lists)
	}

	if ok, _ := s.DeleteFriendship(ctx, f.ID, 12345); ok {
		t.Fatalf("outsider must not delete friendship")
	}
	if ok, _ := s.DeleteFriendship(ctx, f.ID, alice.ID); !ok {
		t.Fatalf("delete failed")
	}
	if _, ok, _ := s.FriendshipBetween(ctx, alice.ID, bob.ID); ok {
		t.Fatalf("friendship must be gone")
	}
}
