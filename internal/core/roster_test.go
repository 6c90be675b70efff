package core

import (
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/session"
)

func TestRosterSortsByJoinTime(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRoster([]Member{
		{UserID: 3, Username: "carol", JoinedAt: base.Add(2 * time.Hour)},
		{UserID: 1, Username: "alice", JoinedAt: base},
		{UserID: 2, Username: "bob", JoinedAt: base.Add(time.Hour)},
	})

	members := r.Members()
	if members[0].Username != "alice" || members[2].Username != "carol" {
		t.Fatalf("unexpected order: %+v", members)
	}

	owner, ok := r.DisplayOwner()
	if !ok || owner.UserID != 1 {
		t.Fatalf("expected alice as display owner, got %+v", owner)
	}
}

func TestDisplayOwnerEmptyRoster(t *testing.T) {
	r := NewRoster(nil)
	if _, ok := r.DisplayOwner(); ok {
		t.Fatalf("empty roster has no display owner")
	}
}

func TestCanIssueInviteIndependentOfDisplayOwner(t *testing.T) {
	// The first joiner is not the creator here: the display convention and
	// the authorization fact must disagree without either leaking into the
	// other.
	room := session.Room{RoomID: 1, IsPrivate: true, CreatorID: 2}

	if !CanIssueInvite(room, 2) {
		t.Fatalf("creator of a private room must be allowed")
	}
	if CanIssueInvite(room, 1) {
		t.Fatalf("first joiner must not inherit invite rights")
	}

	public := session.Room{RoomID: 2, IsPrivate: false, CreatorID: 2}
	if CanIssueInvite(public, 2) {
		t.Fatalf("public rooms never issue invite codes")
	}
}
