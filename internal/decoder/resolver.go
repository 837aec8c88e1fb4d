package decoder

import (
	"log/slog"
	"sync"
	"time"
)

// recencyWindow bounds how long a sticky resolution stays valid. Entries
// older than this are treated as absent, never reused.
const recencyWindow = 2000 * time.Millisecond

// Clock supplies timestamps for the recency window. time.Now readings carry
// a monotonic component, which keeps the window correct across wall-clock
// adjustments; tests inject a fake.
type Clock func() time.Time

// Parameter bytes that address a pair of physical buttons through one
// signaling parameter.
const (
	paramGreenPair = 0x02 // green left / green right
	paramGreenUpDn = 0x05 // green up / green down
	paramRedUpDn   = 0x4c // red up / red down
)

// recencyEntry is the per-parameter state of the classifier: the last
// resolved action and when it was resolved.
type recencyEntry struct {
	action ActionID
	seenAt time.Time
}

// Resolver turns ambiguous (identifier, parameter) pairs into stable actions.
//
// The identifier byte increments on every physical press regardless of which
// button was pressed, so it carries no identity on its own. For the paired
// green left/right parameter the resolver keeps a short recency cache:
// repeated presses inside the window reuse the previous classification
// ("sticky") instead of re-deriving it from parity, because a rapid run of
// presses on one button produces identifiers of alternating parity.
//
// The 0x05 and 0x4c pairs have shown stable parity correlation on real
// hardware, so they resolve directly from parity with no cache.
//
// One Resolver belongs to one device. Resolve never fails: every pair yields
// some action, best-effort.
type Resolver struct {
	now    Clock
	logger *slog.Logger

	mu     sync.Mutex
	recent map[byte]recencyEntry
}

// NewResolver creates a resolver for a single device.
func NewResolver(logger *slog.Logger, now Clock) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{
		now:    now,
		logger: logger,
		recent: make(map[byte]recencyEntry),
	}
}

// Resolve returns the action for a piece of button evidence. Evidence whose
// parse already determined the action passes through unchanged.
func (r *Resolver) Resolve(ev ButtonEvidence) ActionID {
	if ev.Action != "" {
		return ev.Action
	}

	switch ev.Parameter {
	case paramGreenUpDn:
		return parityAction(ev.Identifier, ActionPressedGreenUp, ActionPressedGreenDown)
	case paramRedUpDn:
		return parityAction(ev.Identifier, ActionPressedRedUp, ActionPressedRedDown)
	default:
		// paramGreenPair and any parameter we have no table row for: sticky
		// recency cache, parity as the cold-start guess.
		return r.resolveSticky(ev)
	}
}

// resolveSticky applies the recency cache for one parameter byte. A valid
// cache hit refreshes the timestamp so a run of rapid presses stays sticky
// for its whole duration, not just 2s from the first press.
func (r *Resolver) resolveSticky(ev ButtonEvidence) ActionID {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.recent[ev.Parameter]; ok && now.Sub(entry.seenAt) < recencyWindow {
		entry.seenAt = now
		r.recent[ev.Parameter] = entry
		r.logger.Debug("sticky resolution",
			"parameter", ev.Parameter, "identifier", ev.Identifier, "action", entry.action)
		return entry.action
	}

	action := parityAction(ev.Identifier, ActionPressedGreenLeft, ActionPressedGreenRight)
	r.recent[ev.Parameter] = recencyEntry{action: action, seenAt: now}
	r.logger.Debug("parity resolution",
		"parameter", ev.Parameter, "identifier", ev.Identifier, "action", action)
	return action
}

// Reset clears all cached resolutions. Called on device teardown.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.recent)
}

// parityAction picks odd for odd identifiers, even otherwise.
func parityAction(identifier byte, odd, even ActionID) ActionID {
	if identifier%2 == 1 {
		return odd
	}
	return even
}
