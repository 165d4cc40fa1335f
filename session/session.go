// Package session holds the mutable swap-selection state: the chain pair,
// token pair, amount and slippage the user is working with, plus the single
// "current quote" slot the orchestrator consumes. All reads and writes go
// through the session so stale fetch results can be suppressed with a
// generation counter keyed on the full request identity.
package session

import (
	"sync"

	"github.com/Azurepeal/matrixswap-lib/common/errors"
	"github.com/Azurepeal/matrixswap-lib/common/types"
	"github.com/sirupsen/logrus"
)

// Selection is the user's current swap input.
type Selection struct {
	FromChain    types.Chain
	ToChain      types.Chain
	TokenIn      types.Token
	TokenOut     types.Token
	RawAmount    string
	SlippageBps  int
	CrossChain   bool
	CyclicRoutes bool
}

// Snapshot pins the quote the user confirmed against. The orchestrator only
// ever reads the snapshot; the live slot may move underneath it, in which
// case Validate rejects the confirmation instead of submitting a quote the
// user never saw.
type Snapshot struct {
	Candidate   types.RouteCandidate
	Generation  uint64
	Fingerprint string
}

// Session is safe for concurrent use by the fetch loop and the UI thread.
type Session struct {
	mu          sync.Mutex
	selection   Selection
	generation  uint64
	fingerprint string
	current     types.RouteCandidate
	logger      *logrus.Logger
}

// New creates a session with the initial selection.
func New(initial Selection, logger *logrus.Logger) *Session {
	return &Session{selection: initial, logger: logger}
}

// Selection returns a copy of the current selection.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// Update applies a mutation to the selection under the lock and returns the
// resulting copy. Any selection change invalidates the current quote slot:
// a quote is only valid for the exact inputs it was requested with.
func (s *Session) Update(mutate func(*Selection)) Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	mutate(&s.selection)
	s.current = nil
	s.fingerprint = ""
	return s.selection
}

// Reverse swaps the chain pair and token pair and resets the input amount
// to zero in one atomic update.
func (s *Session) Reverse() Selection {
	return s.Update(func(sel *Selection) {
		sel.FromChain, sel.ToChain = sel.ToChain, sel.FromChain
		sel.TokenIn, sel.TokenOut = sel.TokenOut, sel.TokenIn
		sel.RawAmount = "0"
	})
}

// Begin opens a new fetch generation for the request fingerprint and
// returns the generation number the fetch must present when committing.
func (s *Session) Begin(fingerprint string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.fingerprint = fingerprint
	return s.generation
}

// Commit installs a fetched candidate into the current slot. The commit is
// refused when a newer generation has been initiated since the fetch began
// or the slot's request identity changed: the last initiated request wins,
// not the last one to arrive.
func (s *Session) Commit(generation uint64, fingerprint string, candidate types.RouteCandidate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation || fingerprint != s.fingerprint {
		s.logger.WithFields(logrus.Fields{
			"generation": generation,
			"current":    s.generation,
		}).Debug("Discarding stale quote result")
		return false
	}

	s.current = candidate
	return true
}

// Invalidate clears the current quote slot without touching the selection,
// used when a fetch for the live generation fails and the caller recovers
// into a "no current route" state.
func (s *Session) Invalidate(generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation == s.generation {
		s.current = nil
	}
}

// Current returns the candidate in the quote slot, nil when none.
func (s *Session) Current() types.RouteCandidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SnapshotQuote pins the current candidate for confirmation.
func (s *Session) SnapshotQuote() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, errors.ErrNoQuoteSelected
	}
	return &Snapshot{
		Candidate:   s.current,
		Generation:  s.generation,
		Fingerprint: s.fingerprint,
	}, nil
}

// Validate reports whether the snapshot still matches the live slot. A
// snapshot goes stale the moment a newer fetch generation is initiated,
// even before its result arrives.
func (s *Session) Validate(snapshot *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snapshot == nil || snapshot.Candidate == nil {
		return errors.ErrNoQuoteSelected
	}
	if snapshot.Generation != s.generation || snapshot.Fingerprint != s.fingerprint {
		return errors.ErrQuoteStale
	}
	return nil
}
