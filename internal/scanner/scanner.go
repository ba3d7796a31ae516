// scanner.go - Event ingestion and note discovery.
//
// The scanner routes parsed pool events into the note store, attempts trial
// decryption of sealed outputs with the viewing key, mirrors commitments
// into local epoch trees so inclusion proofs can be produced later, and
// drives the epoch clock. Decryption failure is the normal case - most
// events belong to other users - and never surfaces as an error.

package scanner

import (
	"shieldedpool/internal/events"
	"shieldedpool/internal/merkle"
	"shieldedpool/internal/note"
)

// Stats counts what a scanner has seen; read by the watcher daemon.
type Stats struct {
	EventsSeen     uint64
	EventsIgnored  uint64
	NotesRecovered uint64
	SpendsObserved uint64
	RootMismatches uint64
	IndexGaps      uint64
}

// Scanner owns a viewing key, a token mint and a pool identity, plus
// references to the note store and the epoch tree set it maintains.
type Scanner struct {
	viewingKey [32]byte
	pool       [32]byte
	token      [32]byte
	store      *note.Store
	trees      map[uint64]*merkle.EpochTree
	stats      Stats
}

// New creates a scanner over an existing store and tree set. The tree map is
// shared with the wallet session; the scanner is its writer.
func New(viewingKey, pool, token [32]byte, store *note.Store, trees map[uint64]*merkle.EpochTree) *Scanner {
	return &Scanner{
		viewingKey: viewingKey,
		pool:       pool,
		token:      token,
		store:      store,
		trees:      trees,
	}
}

// Stats returns a copy of the ingestion counters.
func (s *Scanner) Stats() Stats {
	return s.stats
}

// Tree returns the epoch's tree, creating an active one on first use.
func (s *Scanner) Tree(epoch uint64) *merkle.EpochTree {
	t, ok := s.trees[epoch]
	if !ok {
		t = merkle.NewEpochTree(epoch)
		s.trees[epoch] = t
	}
	return t
}

// Process ingests one raw event record. Unknown discriminators, truncated
// payloads and foreign-pool events are skipped.
func (s *Scanner) Process(data []byte) {
	ev, ok := events.Parse(data)
	if !ok {
		s.stats.EventsIgnored++
		return
	}
	if ev.EventPool() != s.pool {
		s.stats.EventsIgnored++
		return
	}
	s.stats.EventsSeen++
	switch e := ev.(type) {
	case *events.Deposit:
		s.handleDeposit(e)
	case *events.Withdraw:
		s.handleWithdraw(e)
	case *events.Transfer:
		s.handleTransfer(e)
	case *events.Renew:
		s.handleRenew(e)
	case *events.EpochRollover:
		s.handleRollover(e)
	case *events.EpochFinalized:
		s.handleFinalized(e)
	}
}

// ProcessAll ingests a batch in arrival order.
func (s *Scanner) ProcessAll(records [][]byte) {
	for _, r := range records {
		s.Process(r)
	}
}

// mirror appends a commitment to the epoch's local tree replica and checks
// it lands at the position the ledger reported.
func (s *Scanner) mirror(epoch uint64, leafIndex uint32, commitment [32]byte) {
	tree := s.Tree(epoch)
	if tree.NextIndex() != leafIndex {
		s.stats.IndexGaps++
	}
	if _, _, err := tree.Insert(commitment); err != nil {
		// Frozen or full replica; the event stream stays authoritative.
		s.stats.IndexGaps++
	}
}

// tryRecover trial-decrypts a sealed output and, when it is ours, confirms
// it into the store. The recomputed commitment must match the one the
// ledger published or the result is dropped.
func (s *Scanner) tryRecover(sealed []byte, commitment [32]byte, epoch uint64, leafIndex uint32) {
	n, err := note.Open(sealed, s.viewingKey)
	if err != nil {
		return
	}
	if n.Commitment != commitment {
		return
	}
	n.Confirm(leafIndex, epoch)
	s.store.Add(n)
	s.stats.NotesRecovered++
}

func (s *Scanner) handleDeposit(e *events.Deposit) {
	s.mirror(e.Epoch, e.LeafIndex, e.Commitment)
	if tree := s.Tree(e.Epoch); tree.Root() != e.NewRoot && !tree.IsKnownRoot(e.NewRoot) {
		s.stats.RootMismatches++
	}
	s.tryRecover(e.EncryptedNote, e.Commitment, e.Epoch, e.LeafIndex)
}

func (s *Scanner) handleWithdraw(e *events.Withdraw) {
	if s.store.MarkSpentByNullifier(e.Nullifier, e.Epoch) ||
		s.store.MarkSpentByNullifier(e.Nullifier) {
		s.stats.SpendsObserved++
	}
}

func (s *Scanner) handleTransfer(e *events.Transfer) {
	for i, nf := range e.Nullifiers {
		marked := false
		if i < len(e.InputEpochs) {
			marked = s.store.MarkSpentByNullifier(nf, e.InputEpochs[i])
		}
		if !marked {
			marked = s.store.MarkSpentByNullifier(nf)
		}
		if marked {
			s.stats.SpendsObserved++
		}
	}
	for i, cm := range e.Commitments {
		if i >= len(e.LeafIndices) {
			break
		}
		s.mirror(e.OutputEpoch, e.LeafIndices[i], cm)
		if i < len(e.EncryptedNotes) {
			s.tryRecover(e.EncryptedNotes[i], cm, e.OutputEpoch, e.LeafIndices[i])
		}
	}
}

func (s *Scanner) handleRenew(e *events.Renew) {
	if s.store.MarkSpentByNullifier(e.Nullifier, e.SourceEpoch) ||
		s.store.MarkSpentByNullifier(e.Nullifier) {
		s.stats.SpendsObserved++
	}
	s.mirror(e.TargetEpoch, e.LeafIndex, e.Commitment)
	s.tryRecover(e.EncryptedNote, e.Commitment, e.TargetEpoch, e.LeafIndex)
}

func (s *Scanner) handleRollover(e *events.EpochRollover) {
	if t, ok := s.trees[e.PreviousEpoch]; ok {
		t.Freeze()
	}
	s.Tree(e.NewEpoch)
	s.store.SetCurrentEpoch(e.NewEpoch)
}

func (s *Scanner) handleFinalized(e *events.EpochFinalized) {
	s.Tree(e.Epoch).SetFinalRoot(e.MerkleRoot)
}
