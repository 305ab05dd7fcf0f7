package realtime

import (
	"github.com/ValentinKt/clean-up-crew/internal/types"
)

type ChangeKind int

const (
	ChangeStatus ChangeKind = iota
	ChangeParticipantJoined
	ChangeParticipantLeft
	ChangeNewChatMessage
)

// Change is a semantic difference between two snapshots of the same event,
// as opposed to a raw field-level patch.
type Change struct {
	Kind    ChangeKind
	Status  types.EventStatus
	User    types.User
	Message types.ChatMessage
}

// Diff compares two snapshots of the same event and reports what
// meaningfully changed. The comparison is purely structural: a status that
// reverts in a replay still counts as a change. Changes are ordered status,
// joins, leaves, chat so assertions stay deterministic.
//
// Join, leave and chat changes authored by viewerId are suppressed; status
// changes are not, matching the original product behavior. Only the single
// newest chat message is reported even when several arrived, to avoid
// flooding the notification queue.
func Diff(prev, cur *types.Event, viewerId string) []Change {
	if prev == nil || cur == nil || prev.Id != cur.Id {
		return nil
	}

	var changes []Change

	if prev.Status != cur.Status {
		changes = append(changes, Change{Kind: ChangeStatus, Status: cur.Status})
	}

	if len(cur.Participants) > len(prev.Participants) {
		for _, p := range cur.Participants {
			if !prev.HasParticipant(p.Id) && p.Id != viewerId {
				changes = append(changes, Change{Kind: ChangeParticipantJoined, User: p})
			}
		}
	}

	if len(cur.Participants) < len(prev.Participants) {
		for _, p := range prev.Participants {
			if !cur.HasParticipant(p.Id) && p.Id != viewerId {
				changes = append(changes, Change{Kind: ChangeParticipantLeft, User: p})
			}
		}
	}

	if len(cur.Chat) > len(prev.Chat) {
		newest := cur.Chat[len(cur.Chat)-1]
		if newest.User.Id != viewerId {
			changes = append(changes, Change{Kind: ChangeNewChatMessage, Message: newest})
		}
	}

	return changes
}
