package core

import (
	"sort"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/session"
)

// Member is one entry of the room roster.
type Member struct {
	UserID   int64
	Username string
	JoinedAt time.Time
}

// Roster is the room's member list, refreshed wholesale from history load.
// It is advisory display state, never an authorization source: the list can
// go stale between loads and no join/leave events update it incrementally.
type Roster struct {
	members []Member
}

// NewRoster sorts members stably by join time so index 0 is the earliest
// joiner.
func NewRoster(members []Member) *Roster {
	sorted := make([]Member, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].JoinedAt.Before(sorted[j].JoinedAt)
	})
	return &Roster{members: sorted}
}

// Members returns a copy in join order.
func (r *Roster) Members() []Member {
	out := make([]Member, len(r.members))
	copy(out, r.members)
	return out
}

// DisplayOwner returns the earliest joiner, conventionally shown as the
// room owner. This is a display hint only; it is a distinct fact from the
// room's creator id and must never stand in for it.
func (r *Roster) DisplayOwner() (Member, bool) {
	if len(r.members) == 0 {
		return Member{}, false
	}
	return r.members[0], true
}

// Len returns the member count.
func (r *Roster) Len() int {
	return len(r.members)
}

// CanIssueInvite gates the invite-code action: only the creator of a
// private room may issue codes. The roster's display owner plays no part
// here.
func CanIssueInvite(room session.Room, userID int64) bool {
	return room.IsPrivate && room.CreatorID == userID
}
