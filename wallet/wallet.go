// wallet.go - Wallet session tying keys, note store, epoch trees, scanner
// and transaction builder together.
//
// One Wallet is logically owned by one caller; the scanner and the builder
// share the note store through this session and must not run concurrently
// without external serialization.

package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"shieldedpool/internal/keys"
	"shieldedpool/internal/merkle"
	"shieldedpool/internal/note"
	"shieldedpool/internal/pool"
	"shieldedpool/internal/prover"
	"shieldedpool/internal/scanner"
	"shieldedpool/internal/txbuilder"
)

// Wallet is one user's session against a shielded pool.
type Wallet struct {
	keys    *keys.SpendingKeys
	store   *note.Store
	trees   map[uint64]*merkle.EpochTree
	scanner *scanner.Scanner
	builder *txbuilder.Builder
	params  pool.Params
	poolID  [32]byte
	token   [32]byte
}

// New derives the key record from seed and assembles the session. Pass
// prover.Unintegrated{} when no proving backend is linked; deposits and
// scanning still work, spends fail with the framework error.
func New(seed [32]byte, poolID, token [32]byte, prv prover.Prover, params pool.Params) *Wallet {
	k := keys.Derive(seed)
	store := note.NewStore(params, token)
	store.SetNullifierKey(k.NullifierKey)
	trees := make(map[uint64]*merkle.EpochTree)
	return &Wallet{
		keys:    k,
		store:   store,
		trees:   trees,
		scanner: scanner.New(k.ViewingKey, poolID, token, store, trees),
		builder: txbuilder.New(k, store, prv, params, poolID, token),
		params:  params,
		poolID:  poolID,
		token:   token,
	}
}

// Keys returns the session's key record.
func (w *Wallet) Keys() *keys.SpendingKeys {
	return w.keys
}

// Address returns the Base58 shielded address.
func (w *Wallet) Address() string {
	return w.keys.Address()
}

// ProcessEvent feeds one raw ledger event to the scanner.
func (w *Wallet) ProcessEvent(data []byte) {
	w.scanner.Process(data)
}

// Scan feeds a batch of raw ledger events in arrival order.
func (w *Wallet) Scan(records [][]byte) {
	w.scanner.ProcessAll(records)
}

// ScannerStats returns the ingestion counters.
func (w *Wallet) ScannerStats() scanner.Stats {
	return w.scanner.Stats()
}

// CurrentEpoch returns the session's view of the pool epoch.
func (w *Wallet) CurrentEpoch() uint64 {
	return w.store.CurrentEpoch()
}

// Tree returns the epoch's local tree replica, creating it on first use.
func (w *Wallet) Tree(epoch uint64) *merkle.EpochTree {
	return w.scanner.Tree(epoch)
}

// Balance returns the unspent confirmed sum.
func (w *Wallet) Balance() uint64 {
	return w.store.Balance()
}

// BalanceInfo returns the partitioned balance view.
func (w *Wallet) BalanceInfo() note.BalanceInfo {
	return w.store.BalanceInfo()
}

// Notes returns the confirmed notes.
func (w *Wallet) Notes() []*note.Note {
	return w.store.Notes()
}

// ExpiringNotes returns unspent notes that should be renewed soon.
func (w *Wallet) ExpiringNotes() []*note.Note {
	return w.store.ExpiringNotes()
}

// SelectNotes runs coin selection over the store.
func (w *Wallet) SelectNotes(amount uint64, minNotes int) ([]*note.Note, error) {
	return w.store.SelectNotes(amount, minNotes)
}

// PrepareDeposit builds a deposit to our own shielded address.
func (w *Wallet) PrepareDeposit(amount uint64, memo string) (*txbuilder.PreparedDeposit, error) {
	return w.builder.PrepareDeposit(amount, w.keys.ShieldedAddress, w.keys.ViewingKey, memo)
}

// PrepareDepositTo builds a deposit for another recipient, sealed under
// their viewing key.
func (w *Wallet) PrepareDepositTo(amount uint64, recipient, recipientViewingKey [32]byte, memo string) (*txbuilder.PreparedDeposit, error) {
	return w.builder.PrepareDeposit(amount, recipient, recipientViewingKey, memo)
}

// PrepareWithdraw takes the first note coin selection picks for amount
// (oldest epoch, then largest value) and proves it out to a transparent
// recipient. It fails with an InsufficientBalanceError when that note alone
// does not cover amount.
func (w *Wallet) PrepareWithdraw(ctx context.Context, amount uint64, recipient [32]byte) (*txbuilder.PreparedWithdraw, error) {
	selected, err := w.store.SelectNotes(amount, 1)
	if err != nil {
		return nil, err
	}
	n := selected[0]
	if n.Value < amount {
		return nil, &note.InsufficientBalanceError{Have: n.Value, Need: amount}
	}
	tree, ok := w.trees[*n.Epoch]
	if !ok {
		return nil, txbuilder.ErrEpochTreeNotFound
	}
	return w.builder.PrepareWithdraw(ctx, n, tree, recipient, amount)
}

// PrepareTransfer selects inputs for amount+fee and builds the 2-in/2-out
// transfer to a shielded recipient.
func (w *Wallet) PrepareTransfer(ctx context.Context, amount, fee uint64, recipient, recipientViewingKey [32]byte) (*txbuilder.PreparedTransfer, error) {
	selected, err := w.store.SelectNotes(amount+fee, 1)
	if err != nil {
		return nil, err
	}
	if len(selected) > 2 {
		return nil, txbuilder.ErrTooManyInputs
	}
	return w.builder.PrepareTransfer(ctx, selected, w.trees, recipient, recipientViewingKey, amount, fee)
}

// PrepareRenewals builds renewal operations for up to max expiring notes.
func (w *Wallet) PrepareRenewals(ctx context.Context, max int) ([]*txbuilder.PreparedRenew, error) {
	target := w.store.CurrentEpoch()
	var out []*txbuilder.PreparedRenew
	for _, n := range w.store.SelectNotesForRenewal(max) {
		tree, ok := w.trees[*n.Epoch]
		if !ok {
			return nil, txbuilder.ErrEpochTreeNotFound
		}
		prep, err := w.builder.PrepareRenew(ctx, n, tree, target)
		if err != nil {
			return nil, err
		}
		out = append(out, prep)
	}
	return out, nil
}

// SaveNotes persists the note store as JSON. Keys never touch disk; the
// host re-derives them from its seed.
func (w *Wallet) SaveNotes(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(w.store.Snapshot()); err != nil {
		return fmt.Errorf("wallet: encoding notes failed: %w", err)
	}
	return nil
}

// LoadNotes replaces the note store with a persisted snapshot.
func (w *Wallet) LoadNotes(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var snap note.Snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("wallet: decoding notes failed: %w", err)
	}
	w.store.Restore(&snap)
	return nil
}
