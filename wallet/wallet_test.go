package wallet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shieldedpool/internal/events"
	"shieldedpool/internal/note"
	"shieldedpool/internal/pool"
	"shieldedpool/internal/prover"
)

var (
	testPool  = fill(0x31)
	testToken = fill(0x32)
)

func fill(b byte) [32]byte {
	var out [32]byte
	for i := range out {
		out[i] = b
	}
	return out
}

func newTestWallet(seedByte byte, prv prover.Prover) *Wallet {
	var seed [32]byte
	seed[0] = seedByte
	return New(seed, testPool, testToken, prv, pool.DefaultParams())
}

// depositEvent confirms a fresh note for the wallet at the next index of
// the epoch's tree.
func depositEvent(t *testing.T, w *Wallet, value uint64, epoch uint64) *note.Note {
	t.Helper()
	n, err := note.New(value, testToken, w.Keys().ShieldedAddress, "")
	if err != nil {
		t.Fatalf("note.New failed: %v", err)
	}
	sealed, err := note.Seal(n, w.Keys().ViewingKey)
	if err != nil {
		t.Fatalf("note.Seal failed: %v", err)
	}
	ev := &events.Deposit{
		Epoch:         epoch,
		Pool:          testPool,
		Commitment:    n.Commitment,
		LeafIndex:     w.Tree(epoch).NextIndex(),
		EncryptedNote: sealed,
	}
	w.ProcessEvent(ev.Encode())
	return n
}

func TestEndToEndSpendFlow(t *testing.T) {
	w := newTestWallet(1, prover.Mock{})

	n := depositEvent(t, w, 1_000_000, 0)
	if w.Balance() != 1_000_000 {
		t.Fatalf("balance after deposit = %d, want 1_000_000", w.Balance())
	}

	prep, err := w.PrepareWithdraw(context.Background(), 1_000_000, fill(0x01))
	if err != nil {
		t.Fatalf("PrepareWithdraw failed: %v", err)
	}
	if len(prep.InstructionData(fill(0x02))) != 444 {
		t.Errorf("withdraw payload should be 444 bytes")
	}

	// The ledger echoes the spend; balance drops to zero.
	wd := &events.Withdraw{Epoch: 0, Pool: testPool, Nullifier: prep.Nullifier, Amount: 1_000_000, Recipient: fill(0x01)}
	w.ProcessEvent(wd.Encode())
	if w.Balance() != 0 {
		t.Errorf("balance after spend = %d, want 0", w.Balance())
	}
	stored, _ := w.store.NoteByCommitment(n.Commitment)
	if stored == nil || !stored.Spent {
		t.Errorf("spent note not marked")
	}
}

func TestTransferUsesSelection(t *testing.T) {
	w := newTestWallet(2, prover.Mock{})
	depositEvent(t, w, 600, 0)
	depositEvent(t, w, 500, 0)

	recipient := newTestWallet(3, prover.Mock{})
	prep, err := w.PrepareTransfer(context.Background(), 900, 0,
		recipient.Keys().ShieldedAddress, recipient.Keys().ViewingKey)
	if err != nil {
		t.Fatalf("PrepareTransfer failed: %v", err)
	}
	if prep.OutputNotes[0].Value != 900 || prep.OutputNotes[1].Value != 200 {
		t.Errorf("output split = %d/%d, want 900/200", prep.OutputNotes[0].Value, prep.OutputNotes[1].Value)
	}

	// The recipient discovers their output from the transfer event.
	tr := &events.Transfer{
		OutputEpoch:    0,
		Pool:           testPool,
		Nullifiers:     [][32]byte{prep.Nullifiers[0], prep.Nullifiers[1]},
		InputEpochs:    []uint64{prep.InputEpochs[0], prep.InputEpochs[1]},
		Commitments:    [][32]byte{prep.Commitments[0], prep.Commitments[1]},
		LeafIndices:    []uint32{2, 3},
		EncryptedNotes: [][]byte{prep.EncryptedNotes[0], prep.EncryptedNotes[1]},
	}
	recipient.ProcessEvent(tr.Encode())
	if recipient.Balance() != 900 {
		t.Errorf("recipient balance = %d, want 900", recipient.Balance())
	}

	// The sender sees its inputs spent and recovers the change.
	w.ProcessEvent(tr.Encode())
	if w.Balance() != 200 {
		t.Errorf("sender balance = %d, want the 200 change", w.Balance())
	}
}

func TestRenewalFlow(t *testing.T) {
	w := newTestWallet(4, prover.Mock{})
	lifetime := pool.DefaultParams().LifetimeEpochs()
	old := depositEvent(t, w, 3_000, 2)

	// Roll forward until the note sits in the warning window.
	current := 2 + lifetime
	roll := &events.EpochRollover{PreviousEpoch: 2, NewEpoch: current, Pool: testPool}
	w.ProcessEvent(roll.Encode())
	if len(w.ExpiringNotes()) != 1 {
		t.Fatalf("note should be expiring at epoch %d", current)
	}

	preps, err := w.PrepareRenewals(context.Background(), 4)
	if err != nil {
		t.Fatalf("PrepareRenewals failed: %v", err)
	}
	if len(preps) != 1 {
		t.Fatalf("prepared %d renewals, want 1", len(preps))
	}
	prep := preps[0]
	if prep.SourceEpoch != 2 || prep.TargetEpoch != current {
		t.Errorf("renewal epochs = %d→%d", prep.SourceEpoch, prep.TargetEpoch)
	}

	// The ledger confirms the renewal.
	rn := &events.Renew{
		SourceEpoch:   2,
		TargetEpoch:   current,
		Pool:          testPool,
		Nullifier:     prep.OldNullifier,
		Commitment:    prep.NewCommitment,
		LeafIndex:     0,
		EncryptedNote: prep.EncryptedNote,
	}
	w.ProcessEvent(rn.Encode())
	if w.Balance() != 3_000 {
		t.Errorf("balance after renewal = %d, want 3_000", w.Balance())
	}
	oldStored, _ := w.store.NoteByCommitment(old.Commitment)
	if oldStored == nil || !oldStored.Spent {
		t.Errorf("old note should be spent after renewal")
	}
	if len(w.ExpiringNotes()) != 0 {
		t.Errorf("renewed note should no longer be expiring")
	}
}

func TestSpendWithoutProverBackend(t *testing.T) {
	w := newTestWallet(5, prover.Unintegrated{})
	depositEvent(t, w, 1_000, 0)
	_, err := w.PrepareWithdraw(context.Background(), 1_000, fill(0x01))
	if !errors.Is(err, prover.ErrFrameworkNotIntegrated) {
		t.Errorf("err = %v, want wrapped ErrFrameworkNotIntegrated", err)
	}
}

func TestNotesPersistence(t *testing.T) {
	w := newTestWallet(6, prover.Mock{})
	depositEvent(t, w, 2_500, 1)
	roll := &events.EpochRollover{PreviousEpoch: 1, NewEpoch: 2, Pool: testPool}
	w.ProcessEvent(roll.Encode())

	path := filepath.Join(t.TempDir(), "notes.json")
	if err := w.SaveNotes(path); err != nil {
		t.Fatalf("SaveNotes failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("notes file missing: %v", err)
	}

	restored := newTestWallet(6, prover.Mock{})
	if err := restored.LoadNotes(path); err != nil {
		t.Fatalf("LoadNotes failed: %v", err)
	}
	if restored.Balance() != 2_500 || restored.CurrentEpoch() != 2 {
		t.Errorf("restored balance=%d epoch=%d", restored.Balance(), restored.CurrentEpoch())
	}
}
