// Package view derives UI-actionable predicates from the latest authoritative
// snapshot. Projection is pure: the same (snapshot, now) pair always yields
// the same View, and nothing from earlier snapshots is retained.
package view

import (
	"math"
	"time"

	"github.com/luoxi-dev/mahjong-client/internal/protocol"
)

// View is the derived, ephemeral read of one snapshot at one instant.
type View struct {
	// IsYourTurn is true only when the local seat owns the turn AND a
	// discard is owed. Turn ownership alone is not enough: the turn holder
	// may still be waiting out a reaction window.
	IsYourTurn bool

	// ActionableTiles are the tile codes currently legal to discard. While a
	// ting proposal is pending this shrinks to the server-allowed subset.
	ActionableTiles map[string]bool

	// CanTing reports whether the server currently offers a ting declaration.
	CanTing bool

	// ReactionOpen is true while a multi-party reaction window is open;
	// ReactionSecondsRemaining is only meaningful then, and never negative.
	ReactionOpen             bool
	ReactionSecondsRemaining int
}

// Project computes the View for a snapshot at wall-clock time now. A nil
// snapshot (nothing received yet) projects to the zero view.
func Project(s *protocol.Snapshot, now time.Time) View {
	v := View{ActionableTiles: map[string]bool{}}
	if s == nil {
		return v
	}

	you := s.You()
	v.IsYourTurn = you != nil && you.Turn && s.ExpectsDiscard
	v.CanTing = s.CanTing

	if v.IsYourTurn {
		if s.YourTingPending {
			allowed := make(map[string]bool, len(s.TingDiscardables))
			for _, t := range s.TingDiscardables {
				allowed[t] = true
			}
			for _, t := range s.YourHand {
				if allowed[t] {
					v.ActionableTiles[t] = true
				}
			}
		} else {
			for _, t := range s.YourHand {
				v.ActionableTiles[t] = true
			}
		}
	}

	if s.ReactionActive {
		v.ReactionOpen = true
		v.ReactionSecondsRemaining = secondsUntil(s.ReactionDeadlineTs, now)
	}
	return v
}

// secondsUntil rounds the remaining time up to whole seconds, clamped at
// zero. The deadline is epoch seconds on the wire.
func secondsUntil(deadlineTs float64, now time.Time) int {
	remaining := deadlineTs - float64(now.UnixMilli())/1000.0
	secs := int(math.Ceil(remaining))
	if secs < 0 {
		return 0
	}
	return secs
}
