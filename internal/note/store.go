// store.go - Confirmed and pending note tracking, spend marking, expiry
// classification and coin selection.
//
// The store assumes exclusive access during a mutation; it holds no internal
// locks and is driven by a single logical caller, the wallet session.

package note

import (
	"errors"
	"fmt"
	"sort"

	"shieldedpool/internal/pool"
)

var (
	// ErrInvalidMinNotes is returned when coin selection is asked for fewer
	// than one note.
	ErrInvalidMinNotes = errors.New("note: minNotes must be at least 1")
)

// InsufficientBalanceError reports that the unspent pool cannot cover a
// requested amount.
type InsufficientBalanceError struct {
	Have uint64
	Need uint64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("note: insufficient balance: have %d, need %d", e.Have, e.Need)
}

// InsufficientNotesError reports that fewer unspent notes exist than the
// selection floor requires.
type InsufficientNotesError struct {
	Have int
	Need int
}

func (e *InsufficientNotesError) Error() string {
	return fmt.Sprintf("note: insufficient notes: have %d, need %d", e.Have, e.Need)
}

// BalanceInfo is a derived view over the store, not state.
type BalanceInfo struct {
	Total     uint64 `json:"total"`
	Spendable uint64 `json:"spendable"`
	Pending   uint64 `json:"pending"`
	Expiring  uint64 `json:"expiring"`
	Expired   uint64 `json:"expired"`

	NoteCount    int `json:"note_count"`
	PendingCount int `json:"pending_count"`

	// EarliestExpiry is the first epoch at which some unspent note becomes
	// unspendable, nil when no unspent note exists.
	EarliestExpiry *uint64 `json:"earliest_expiry,omitempty"`
}

// Store owns the wallet's notes: confirmed notes in insertion order indexed
// by commitment, plus a deduplicated pending set.
type Store struct {
	params       pool.Params
	token        [32]byte
	nullifierKey *[32]byte

	notes      []*Note
	index      map[[32]byte]int
	pending    []*Note
	pendingIdx map[[32]byte]int

	currentEpoch uint64
}

// NewStore creates an empty store for the given token mint.
func NewStore(params pool.Params, token [32]byte) *Store {
	return &Store{
		params:     params,
		token:      token,
		index:      make(map[[32]byte]int),
		pendingIdx: make(map[[32]byte]int),
	}
}

// SetNullifierKey arms the store to derive nullifiers on confirmation.
func (s *Store) SetNullifierKey(key [32]byte) {
	k := key
	s.nullifierKey = &k
}

// SetCurrentEpoch advances the store's epoch clock.
func (s *Store) SetCurrentEpoch(epoch uint64) {
	s.currentEpoch = epoch
}

// CurrentEpoch returns the store's view of the pool epoch.
func (s *Store) CurrentEpoch() uint64 {
	return s.currentEpoch
}

// Add inserts a confirmed note. If the commitment already exists, only
// previously-absent confirmation metadata is filled in; the value is never
// updated. A pending entry with the same commitment is consumed.
func (s *Store) Add(n *Note) {
	if i, ok := s.index[n.Commitment]; ok {
		existing := s.notes[i]
		if existing.LeafIndex == nil && n.LeafIndex != nil {
			idx := *n.LeafIndex
			existing.LeafIndex = &idx
		}
		if existing.Epoch == nil && n.Epoch != nil {
			ep := *n.Epoch
			existing.Epoch = &ep
		}
		s.deriveNullifier(existing)
		return
	}
	s.notes = append(s.notes, n)
	s.index[n.Commitment] = len(s.notes) - 1
	s.deriveNullifier(n)
	s.removePending(n.Commitment)
}

// AddPending records a note awaiting confirmation, deduplicated by
// commitment.
func (s *Store) AddPending(n *Note) {
	if _, ok := s.pendingIdx[n.Commitment]; ok {
		return
	}
	if _, ok := s.index[n.Commitment]; ok {
		return
	}
	s.pending = append(s.pending, n)
	s.pendingIdx[n.Commitment] = len(s.pending) - 1
}

func (s *Store) removePending(commitment [32]byte) {
	i, ok := s.pendingIdx[commitment]
	if !ok {
		return
	}
	s.pending = append(s.pending[:i], s.pending[i+1:]...)
	delete(s.pendingIdx, commitment)
	for j := i; j < len(s.pending); j++ {
		s.pendingIdx[s.pending[j].Commitment] = j
	}
}

func (s *Store) deriveNullifier(n *Note) {
	if s.nullifierKey == nil || n.Nullifier != nil || !n.Confirmed() {
		return
	}
	// Derivation only fails on impossible widths; drop silently otherwise.
	_ = n.RecomputeNullifier(*s.nullifierKey)
}

// MarkSpent flips the note with the given commitment to spent. Idempotent;
// reports whether a note transitioned.
func (s *Store) MarkSpent(commitment [32]byte) bool {
	i, ok := s.index[commitment]
	if !ok || s.notes[i].Spent {
		return false
	}
	s.notes[i].Spent = true
	return true
}

// MarkSpentByNullifier flips the first unspent note carrying the nullifier.
// An unknown nullifier is a no-op; an optional epoch hint narrows the match.
func (s *Store) MarkSpentByNullifier(nullifier [32]byte, epochHint ...uint64) bool {
	for _, n := range s.notes {
		if n.Spent || n.Nullifier == nil || *n.Nullifier != nullifier {
			continue
		}
		if len(epochHint) > 0 && (n.Epoch == nil || *n.Epoch != epochHint[0]) {
			continue
		}
		n.Spent = true
		return true
	}
	return false
}

// CreateNote builds a fresh pending note for the store's token and registers
// it. The nullifier stays absent until the leaf position is known.
func (s *Store) CreateNote(value uint64, owner [32]byte) (*Note, error) {
	n, err := New(value, s.token, owner, "")
	if err != nil {
		return nil, err
	}
	s.AddPending(n)
	return n, nil
}

// Notes returns the confirmed notes in insertion order.
func (s *Store) Notes() []*Note {
	return s.notes
}

// PendingNotes returns the notes awaiting confirmation.
func (s *Store) PendingNotes() []*Note {
	return s.pending
}

// NoteByCommitment looks a confirmed note up.
func (s *Store) NoteByCommitment(commitment [32]byte) (*Note, bool) {
	i, ok := s.index[commitment]
	if !ok {
		return nil, false
	}
	return s.notes[i], true
}

// UnspentNotes returns all confirmed, unspent notes.
func (s *Store) UnspentNotes() []*Note {
	var out []*Note
	for _, n := range s.notes {
		if !n.Spent {
			out = append(out, n)
		}
	}
	return out
}

// expired reports whether the note's epoch passed the expiry horizon.
func (s *Store) expired(n *Note) bool {
	if n.Epoch == nil {
		return false
	}
	return s.currentEpoch > *n.Epoch+s.params.LifetimeEpochs()
}

// expiring reports whether the note is inside the warning window before its
// expiry horizon.
func (s *Store) expiring(n *Note) bool {
	if n.Epoch == nil || s.expired(n) {
		return false
	}
	return *n.Epoch < s.currentEpoch &&
		*n.Epoch+s.params.LifetimeEpochs() <= s.currentEpoch+s.params.WarningEpochs
}

// ExpiringNotes returns unspent notes close enough to expiry that the user
// should renew them.
func (s *Store) ExpiringNotes() []*Note {
	var out []*Note
	for _, n := range s.notes {
		if !n.Spent && s.expiring(n) {
			out = append(out, n)
		}
	}
	return out
}

// ExpiredNotes returns unspent notes whose epoch passed the expiry horizon
// without renewal.
func (s *Store) ExpiredNotes() []*Note {
	var out []*Note
	for _, n := range s.notes {
		if !n.Spent && s.expired(n) {
			out = append(out, n)
		}
	}
	return out
}

// SelectNotes picks unspent notes to cover amount with at least minNotes
// entries: deduplicate by commitment, sort by (epoch ascending, value
// descending), accumulate greedily. The epoch-ascending order drains older
// notes first so expiry risk decreases.
func (s *Store) SelectNotes(amount uint64, minNotes int) ([]*Note, error) {
	if minNotes < 1 {
		return nil, ErrInvalidMinNotes
	}
	seen := make(map[[32]byte]bool)
	var candidates []*Note
	var total uint64
	for _, n := range s.notes {
		if n.Spent || !n.Confirmed() || s.expired(n) || seen[n.Commitment] {
			continue
		}
		seen[n.Commitment] = true
		candidates = append(candidates, n)
		total += n.Value
	}
	if len(candidates) < minNotes {
		return nil, &InsufficientNotesError{Have: len(candidates), Need: minNotes}
	}
	if total < amount {
		return nil, &InsufficientBalanceError{Have: total, Need: amount}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if *candidates[i].Epoch != *candidates[j].Epoch {
			return *candidates[i].Epoch < *candidates[j].Epoch
		}
		return candidates[i].Value > candidates[j].Value
	})
	var selected []*Note
	var sum uint64
	for _, n := range candidates {
		if sum >= amount && len(selected) >= minNotes {
			break
		}
		selected = append(selected, n)
		sum += n.Value
	}
	return selected, nil
}

// SelectNotesForRenewal returns up to max expiring notes, oldest epoch first.
func (s *Store) SelectNotesForRenewal(max int) []*Note {
	expiring := s.ExpiringNotes()
	sort.SliceStable(expiring, func(i, j int) bool {
		return *expiring[i].Epoch < *expiring[j].Epoch
	})
	if len(expiring) > max {
		expiring = expiring[:max]
	}
	return expiring
}

// Balance returns the sum of unspent confirmed notes.
func (s *Store) Balance() uint64 {
	var total uint64
	for _, n := range s.notes {
		if !n.Spent {
			total += n.Value
		}
	}
	return total
}

// BalanceInfo partitions the balance into spendable, expiring and expired
// shares, plus the pending sum.
func (s *Store) BalanceInfo() BalanceInfo {
	info := BalanceInfo{}
	lifetime := s.params.LifetimeEpochs()
	for _, n := range s.notes {
		if n.Spent {
			continue
		}
		info.Total += n.Value
		info.NoteCount++
		switch {
		case s.expired(n):
			info.Expired += n.Value
		case s.expiring(n):
			info.Expiring += n.Value
		default:
			info.Spendable += n.Value
		}
		if n.Epoch != nil {
			expiry := *n.Epoch + lifetime + 1
			if info.EarliestExpiry == nil || expiry < *info.EarliestExpiry {
				e := expiry
				info.EarliestExpiry = &e
			}
		}
	}
	for _, n := range s.pending {
		info.Pending += n.Value
		info.PendingCount++
	}
	return info
}

// Snapshot is the persistent form of a store.
type Snapshot struct {
	Notes        []*Note `json:"notes"`
	Pending      []*Note `json:"pending"`
	CurrentEpoch uint64  `json:"current_epoch"`
}

// Snapshot captures the store state for persistence. Keys are never part of
// a snapshot.
func (s *Store) Snapshot() *Snapshot {
	return &Snapshot{Notes: s.notes, Pending: s.pending, CurrentEpoch: s.currentEpoch}
}

// Restore replaces the store contents with a snapshot.
func (s *Store) Restore(snap *Snapshot) {
	s.notes = nil
	s.pending = nil
	s.index = make(map[[32]byte]int)
	s.pendingIdx = make(map[[32]byte]int)
	s.currentEpoch = snap.CurrentEpoch
	for _, n := range snap.Notes {
		s.Add(n)
	}
	for _, n := range snap.Pending {
		s.AddPending(n)
	}
}
