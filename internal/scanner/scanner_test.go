package scanner

import (
	"testing"

	"shieldedpool/internal/events"
	"shieldedpool/internal/keys"
	"shieldedpool/internal/merkle"
	"shieldedpool/internal/note"
	"shieldedpool/internal/pool"
)

var (
	testPool  = fill(0x50)
	testToken = fill(0x60)
)

func fill(b byte) [32]byte {
	var out [32]byte
	for i := range out {
		out[i] = b
	}
	return out
}

func newTestScanner(t *testing.T) (*Scanner, *note.Store, *keys.SpendingKeys) {
	t.Helper()
	var seed [32]byte
	for i := range seed {
		seed[i] = byte(i)
	}
	k := keys.Derive(seed)
	store := note.NewStore(pool.DefaultParams(), testToken)
	store.SetNullifierKey(k.NullifierKey)
	s := New(k.ViewingKey, testPool, testToken, store, make(map[uint64]*merkle.EpochTree))
	return s, store, k
}

// sealedDeposit builds a deposit event carrying a note sealed for owner.
func sealedDeposit(t *testing.T, k *keys.SpendingKeys, value uint64, epoch uint64, leafIndex uint32) (*events.Deposit, *note.Note) {
	t.Helper()
	n, err := note.New(value, testToken, k.ShieldedAddress, "")
	if err != nil {
		t.Fatalf("note.New failed: %v", err)
	}
	sealed, err := note.Seal(n, k.ViewingKey)
	if err != nil {
		t.Fatalf("note.Seal failed: %v", err)
	}
	return &events.Deposit{
		Epoch:         epoch,
		Pool:          testPool,
		Commitment:    n.Commitment,
		LeafIndex:     leafIndex,
		EncryptedNote: sealed,
	}, n
}

func TestDepositLifecycle(t *testing.T) {
	s, store, k := newTestScanner(t)
	dep, n := sealedDeposit(t, k, 1_000_000, 0, 0)
	dep.NewRoot = expectedRoot(n.Commitment)
	s.Process(dep.Encode())

	if got := store.Balance(); got != 1_000_000 {
		t.Fatalf("balance after deposit = %d, want 1_000_000", got)
	}
	stored, ok := store.NoteByCommitment(n.Commitment)
	if !ok || stored.Epoch == nil || *stored.Epoch != 0 || stored.LeafIndex == nil || *stored.LeafIndex != 0 {
		t.Fatalf("recovered note not confirmed: %+v", stored)
	}

	// The mirrored tree proves inclusion.
	proof, err := s.Tree(0).Proof(0)
	if err != nil {
		t.Fatalf("Proof failed: %v", err)
	}
	if !merkle.VerifyProof(proof) {
		t.Errorf("mirrored tree proof does not verify")
	}

	// The matching withdraw event zeroes the balance.
	if stored.Nullifier == nil {
		t.Fatalf("nullifier not derived on confirmation")
	}
	wd := &events.Withdraw{Epoch: 0, Pool: testPool, Nullifier: *stored.Nullifier, Amount: 1_000_000, Recipient: fill(0x01)}
	s.Process(wd.Encode())
	if got := store.Balance(); got != 0 {
		t.Errorf("balance after spend = %d, want 0", got)
	}
	if got := store.BalanceInfo().NoteCount; got != 0 {
		t.Errorf("unspent note count after spend = %d, want 0", got)
	}
	if s.Stats().RootMismatches != 0 {
		t.Errorf("unexpected root mismatch recorded")
	}
}

func expectedRoot(commitment [32]byte) [32]byte {
	tree := merkle.NewEpochTree(0)
	_, root, _ := tree.Insert(commitment)
	return root
}

func TestForeignNoteIgnored(t *testing.T) {
	s, store, _ := newTestScanner(t)
	var otherSeed [32]byte
	otherSeed[0] = 0xff
	other := keys.Derive(otherSeed)
	dep, _ := sealedDeposit(t, other, 500, 0, 0)
	// Seal under the other user's viewing key; our scanner cannot open it.
	s.Process(dep.Encode())
	if store.Balance() != 0 {
		t.Errorf("foreign note should not be recovered")
	}
	if len(store.Notes()) != 0 {
		t.Errorf("foreign note landed in the store")
	}
	// The commitment is still mirrored for proof generation.
	if s.Tree(0).NextIndex() != 1 {
		t.Errorf("foreign commitment should still be mirrored")
	}
}

func TestCommitmentMismatchDropped(t *testing.T) {
	s, store, k := newTestScanner(t)
	dep, _ := sealedDeposit(t, k, 500, 0, 0)
	dep.Commitment = fill(0x13) // event lies about the commitment
	s.Process(dep.Encode())
	if store.Balance() != 0 {
		t.Errorf("note with mismatched commitment must be dropped")
	}
}

func TestForeignPoolIgnored(t *testing.T) {
	s, store, k := newTestScanner(t)
	dep, _ := sealedDeposit(t, k, 500, 0, 0)
	dep.Pool = fill(0x99)
	s.Process(dep.Encode())
	if store.Balance() != 0 || s.Stats().EventsSeen != 0 {
		t.Errorf("foreign-pool event should be skipped entirely")
	}
}

func TestSpendBeforeConfirmationIsNoOp(t *testing.T) {
	s, store, _ := newTestScanner(t)
	wd := &events.Withdraw{Epoch: 0, Pool: testPool, Nullifier: fill(0x31), Amount: 1, Recipient: fill(0x02)}
	s.Process(wd.Encode())
	if store.Balance() != 0 || s.Stats().SpendsObserved != 0 {
		t.Errorf("unknown nullifier must be a no-op")
	}
}

func TestTransferRecoversOutputAndMarksInput(t *testing.T) {
	s, store, k := newTestScanner(t)

	// Confirm a note first, then watch it spent inside a transfer whose
	// second output comes back to us as change.
	dep, n := sealedDeposit(t, k, 1_000, 2, 0)
	s.Process(dep.Encode())
	stored, _ := store.NoteByCommitment(n.Commitment)

	change, err := note.New(400, testToken, k.ShieldedAddress, "")
	if err != nil {
		t.Fatalf("note.New failed: %v", err)
	}
	sealedChange, err := note.Seal(change, k.ViewingKey)
	if err != nil {
		t.Fatalf("note.Seal failed: %v", err)
	}
	tr := &events.Transfer{
		OutputEpoch:    3,
		Pool:           testPool,
		Nullifiers:     [][32]byte{*stored.Nullifier, fill(0x44)},
		InputEpochs:    []uint64{2, 3},
		Commitments:    [][32]byte{fill(0x55), change.Commitment},
		LeafIndices:    []uint32{0, 1},
		EncryptedNotes: [][]byte{{0x00}, sealedChange},
	}
	s.Process(tr.Encode())

	if stored.Spent != true {
		t.Errorf("transfer input should be marked spent")
	}
	if got := store.Balance(); got != 400 {
		t.Errorf("balance = %d, want the 400 change output", got)
	}
	changeStored, ok := store.NoteByCommitment(change.Commitment)
	if !ok || changeStored.Epoch == nil || *changeStored.Epoch != 3 || *changeStored.LeafIndex != 1 {
		t.Errorf("change output not confirmed correctly: %+v", changeStored)
	}
}

func TestRenewMovesNote(t *testing.T) {
	s, store, k := newTestScanner(t)
	dep, n := sealedDeposit(t, k, 750, 1, 0)
	s.Process(dep.Encode())
	old, _ := store.NoteByCommitment(n.Commitment)

	renewed, err := note.New(750, testToken, k.ShieldedAddress, "")
	if err != nil {
		t.Fatalf("note.New failed: %v", err)
	}
	sealedRenewed, err := note.Seal(renewed, k.ViewingKey)
	if err != nil {
		t.Fatalf("note.Seal failed: %v", err)
	}
	rn := &events.Renew{
		SourceEpoch:   1,
		TargetEpoch:   4,
		Pool:          testPool,
		Nullifier:     *old.Nullifier,
		Commitment:    renewed.Commitment,
		LeafIndex:     0,
		EncryptedNote: sealedRenewed,
	}
	s.Process(rn.Encode())

	if !old.Spent {
		t.Errorf("renewed source note should be spent")
	}
	if got := store.Balance(); got != 750 {
		t.Errorf("balance = %d, want 750 carried into the new epoch", got)
	}
	fresh, ok := store.NoteByCommitment(renewed.Commitment)
	if !ok || fresh.Epoch == nil || *fresh.Epoch != 4 {
		t.Errorf("renewed note not confirmed in target epoch: %+v", fresh)
	}
}

func TestEpochClock(t *testing.T) {
	s, store, _ := newTestScanner(t)
	s.Tree(0)
	roll := &events.EpochRollover{PreviousEpoch: 0, NewEpoch: 1, Pool: testPool}
	s.Process(roll.Encode())
	if store.CurrentEpoch() != 1 {
		t.Errorf("current epoch = %d, want 1", store.CurrentEpoch())
	}
	if s.Tree(0).State() != merkle.Frozen {
		t.Errorf("previous epoch tree should be frozen")
	}
	if s.Tree(1).State() != merkle.Active {
		t.Errorf("new epoch tree should be active")
	}

	fin := &events.EpochFinalized{Epoch: 0, Pool: testPool, MerkleRoot: fill(0x0f)}
	s.Process(fin.Encode())
	if s.Tree(0).State() != merkle.Finalized {
		t.Errorf("finalized epoch tree should be finalized")
	}
	if !s.Tree(0).IsKnownRoot(fill(0x0f)) {
		t.Errorf("final root should be known after finalization")
	}
}

func TestGarbageInput(t *testing.T) {
	s, _, _ := newTestScanner(t)
	s.Process(nil)
	s.Process([]byte{1, 2, 3})
	s.Process(make([]byte, 64))
	if s.Stats().EventsIgnored != 3 {
		t.Errorf("garbage records should be counted as ignored, got %d", s.Stats().EventsIgnored)
	}
}
