// builder.go - Preparation of the four pool operations.
//
// Each Prepare method assembles the binary fields the instruction encoder
// splices into a transaction. The prover call is the only suspension point;
// no store mutation happens until it returns successfully.

package txbuilder

import (
	"context"
	"errors"
	"fmt"

	"shieldedpool/internal/instructions"
	"shieldedpool/internal/keys"
	"shieldedpool/internal/merkle"
	"shieldedpool/internal/note"
	"shieldedpool/internal/pool"
	"shieldedpool/internal/prover"
)

var (
	// ErrNoteNotConfirmed is returned when spending a note with no on-chain
	// position.
	ErrNoteNotConfirmed = errors.New("txbuilder: note not confirmed")
	// ErrEpochTreeNotFound is returned when no tree exists for an input's
	// epoch.
	ErrEpochTreeNotFound = errors.New("txbuilder: epoch tree not found")
	// ErrNoInputs is returned when a transfer has nothing to spend.
	ErrNoInputs = errors.New("txbuilder: transfer requires at least one input")
	// ErrTooManyInputs is returned when a transfer exceeds the circuit's
	// two spend slots.
	ErrTooManyInputs = errors.New("txbuilder: transfer supports at most 2 inputs")
	// ErrRenewNotNeeded is returned when the note already lives in the
	// target epoch or later.
	ErrRenewNotNeeded = errors.New("txbuilder: renewal not needed")
)

// EpochMismatchError reports a note whose epoch differs from the supplied
// tree's.
type EpochMismatchError struct {
	Note uint64
	Tree uint64
}

func (e *EpochMismatchError) Error() string {
	return fmt.Sprintf("txbuilder: epoch mismatch: note %d, tree %d", e.Note, e.Tree)
}

// ConservationError reports Σin != Σout + fee.
type ConservationError struct {
	In  uint64
	Out uint64
}

func (e *ConservationError) Error() string {
	return fmt.Sprintf("txbuilder: value conservation violated: in %d, out %d", e.In, e.Out)
}

// ValidateConservation checks Σ inputs = Σ outputs + fee.
func ValidateConservation(inputs, outputs []uint64, fee uint64) error {
	var in, out uint64
	for _, v := range inputs {
		in += v
	}
	out = fee
	for _, v := range outputs {
		out += v
	}
	if in != out {
		return &ConservationError{In: in, Out: out}
	}
	return nil
}

// Builder composes pool operations for one wallet session.
type Builder struct {
	keys   *keys.SpendingKeys
	store  *note.Store
	prover prover.Prover
	params pool.Params
	poolID [32]byte
	token  [32]byte
}

// New creates a builder. The store handle is shared with the scanner; the
// session serializes access.
func New(k *keys.SpendingKeys, store *note.Store, prv prover.Prover, params pool.Params, poolID, token [32]byte) *Builder {
	return &Builder{keys: k, store: store, prover: prv, params: params, poolID: poolID, token: token}
}

// PreparedDeposit is a deposit ready for encoding. No proof is required;
// value moves transparently into the vault.
type PreparedDeposit struct {
	Commitment    [32]byte
	Amount        uint64
	EncryptedNote []byte
	Epoch         uint64
	OutputNote    *note.Note
}

// InstructionData renders the depositV2 payload.
func (p *PreparedDeposit) InstructionData() []byte {
	return instructions.EncodeDepositV2(p.Commitment, p.Amount, p.EncryptedNote)
}

// PrepareDeposit builds a fresh note for the recipient, seals it under their
// viewing key and registers it as pending when it is our own.
func (b *Builder) PrepareDeposit(amount uint64, recipient, recipientViewingKey [32]byte, memo string) (*PreparedDeposit, error) {
	n, err := note.New(amount, b.token, recipient, memo)
	if err != nil {
		return nil, err
	}
	sealed, err := note.Seal(n, recipientViewingKey)
	if err != nil {
		return nil, err
	}
	if recipient == b.keys.ShieldedAddress {
		b.store.AddPending(n)
	}
	return &PreparedDeposit{
		Commitment:    n.Commitment,
		Amount:        amount,
		EncryptedNote: sealed,
		Epoch:         b.store.CurrentEpoch(),
		OutputNote:    n,
	}, nil
}

// PreparedWithdraw is a withdrawal ready for encoding.
type PreparedWithdraw struct {
	ProofBytes   []byte
	PublicInputs [][32]byte
	Nullifier    [32]byte
	Amount       uint64
	Epoch        uint64
	LeafIndex    uint32
	Recipient    [32]byte
	Root         [32]byte
	PoolID       [32]byte
}

// InstructionData renders the withdrawV2 payload against a transaction
// anchor.
func (p *PreparedWithdraw) InstructionData(txAnchor [32]byte) []byte {
	return instructions.EncodeWithdrawV2(p.ProofBytes, &instructions.WithdrawPublicArgs{
		Root:      p.Root,
		Nullifier: p.Nullifier,
		Amount:    p.Amount,
		Recipient: p.Recipient,
		Epoch:     p.Epoch,
		TxAnchor:  txAnchor,
		PoolID:    p.PoolID,
	})
}

// PrepareWithdraw proves ownership and inclusion of one note and binds the
// payout to a transparent recipient.
func (b *Builder) PrepareWithdraw(ctx context.Context, n *note.Note, tree *merkle.EpochTree, recipient [32]byte, amount uint64) (*PreparedWithdraw, error) {
	if !n.Confirmed() {
		return nil, ErrNoteNotConfirmed
	}
	if *n.Epoch != tree.Epoch() {
		return nil, &EpochMismatchError{Note: *n.Epoch, Tree: tree.Epoch()}
	}
	mproof, err := tree.Proof(*n.LeafIndex)
	if err != nil {
		return nil, err
	}
	nullifier, err := note.Nullifier(n.Commitment, b.keys.NullifierKey, *n.Epoch, *n.LeafIndex)
	if err != nil {
		return nil, err
	}
	proof, publicInputs, err := b.prover.ProveWithdraw(ctx, &prover.WithdrawInputs{
		Note:        n,
		Keys:        b.keys,
		MerkleProof: mproof,
		MerkleRoot:  mproof.Root,
		Recipient:   recipient,
		Amount:      amount,
		Epoch:       *n.Epoch,
		LeafIndex:   *n.LeafIndex,
	})
	if err != nil {
		return nil, fmt.Errorf("txbuilder: proof generation failed: %w", err)
	}
	return &PreparedWithdraw{
		ProofBytes:   proof.Bytes(),
		PublicInputs: publicInputs,
		Nullifier:    nullifier,
		Amount:       amount,
		Epoch:        *n.Epoch,
		LeafIndex:    *n.LeafIndex,
		Recipient:    recipient,
		Root:         mproof.Root,
		PoolID:       b.poolID,
	}, nil
}

// PreparedTransfer is a 2-in/2-out transfer ready for encoding. Slot 0 is
// the recipient output, slot 1 the change back to the sender.
type PreparedTransfer struct {
	ProofBytes       []byte
	PublicInputs     [][32]byte
	Nullifiers       [2][32]byte
	Commitments      [2][32]byte
	InputEpochs      [2]uint64
	InputLeafIndices [2]uint32
	OutputEpoch      uint64
	EncryptedNotes   [2][]byte
	Root             [32]byte
	OutputNotes      [2]*note.Note
	PoolID           [32]byte
}

// InstructionData renders the transferV2 payload against a transaction
// anchor.
func (p *PreparedTransfer) InstructionData(txAnchor [32]byte) []byte {
	return instructions.EncodeTransferV2(p.ProofBytes, &instructions.TransferPublicArgs{
		Root:        p.Root,
		NullifierA:  p.Nullifiers[0],
		NullifierB:  p.Nullifiers[1],
		CommitmentA: p.Commitments[0],
		CommitmentB: p.Commitments[1],
		OutputEpoch: p.OutputEpoch,
		TxAnchor:    txAnchor,
		PoolID:      p.PoolID,
	}, [][]byte{p.EncryptedNotes[0], p.EncryptedNotes[1]})
}

// dummyInput pads the spend vector to the circuit's fixed two slots with a
// zero-value note and an all-zero inclusion path.
func (b *Builder) dummyInput(epoch uint64) (prover.TransferInput, error) {
	n, err := note.New(0, b.token, b.keys.ShieldedAddress, "")
	if err != nil {
		return prover.TransferInput{}, err
	}
	n.Confirm(0, epoch)
	nullifier, err := note.Nullifier(n.Commitment, b.keys.NullifierKey, epoch, 0)
	if err != nil {
		return prover.TransferInput{}, err
	}
	return prover.TransferInput{
		Note:        n,
		MerkleProof: &merkle.Proof{Leaf: n.Commitment, Epoch: epoch},
		Nullifier:   nullifier,
		Dummy:       true,
	}, nil
}

// PrepareTransfer spends up to two notes privately: one output for the
// recipient, one change output back to the sender. Value conservation is
// validated before proving.
func (b *Builder) PrepareTransfer(ctx context.Context, inputs []*note.Note, trees map[uint64]*merkle.EpochTree,
	recipient, recipientViewingKey [32]byte, amount, fee uint64) (*PreparedTransfer, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	if len(inputs) > 2 {
		return nil, ErrTooManyInputs
	}

	var (
		proverInputs [2]prover.TransferInput
		roots        [2][32]byte
		totalIn      uint64
	)
	for i, n := range inputs {
		if !n.Confirmed() {
			return nil, ErrNoteNotConfirmed
		}
		tree, ok := trees[*n.Epoch]
		if !ok {
			return nil, ErrEpochTreeNotFound
		}
		if *n.Epoch != tree.Epoch() {
			return nil, &EpochMismatchError{Note: *n.Epoch, Tree: tree.Epoch()}
		}
		mproof, err := tree.Proof(*n.LeafIndex)
		if err != nil {
			return nil, err
		}
		nullifier, err := note.Nullifier(n.Commitment, b.keys.NullifierKey, *n.Epoch, *n.LeafIndex)
		if err != nil {
			return nil, err
		}
		proverInputs[i] = prover.TransferInput{Note: n, MerkleProof: mproof, Nullifier: nullifier}
		roots[i] = mproof.Root
		totalIn += n.Value
	}
	outputEpoch := b.store.CurrentEpoch()
	if len(inputs) == 1 {
		dummy, err := b.dummyInput(outputEpoch)
		if err != nil {
			return nil, err
		}
		proverInputs[1] = dummy
		roots[1] = roots[0]
	}

	if totalIn < amount+fee {
		return nil, &ConservationError{In: totalIn, Out: amount + fee}
	}
	change := totalIn - amount - fee

	recipientNote, err := note.New(amount, b.token, recipient, "")
	if err != nil {
		return nil, err
	}
	changeNote, err := note.New(change, b.token, b.keys.ShieldedAddress, "")
	if err != nil {
		return nil, err
	}
	if err := ValidateConservation(
		[]uint64{proverInputs[0].Note.Value, proverInputs[1].Note.Value},
		[]uint64{recipientNote.Value, changeNote.Value}, fee); err != nil {
		return nil, err
	}

	sealedRecipient, err := note.Seal(recipientNote, recipientViewingKey)
	if err != nil {
		return nil, err
	}
	sealedChange, err := note.Seal(changeNote, b.keys.ViewingKey)
	if err != nil {
		return nil, err
	}

	proof, publicInputs, err := b.prover.ProveTransfer(ctx, &prover.TransferInputs{
		Inputs: proverInputs,
		Outputs: [2]prover.TransferOutput{
			{Note: recipientNote, Commitment: recipientNote.Commitment},
			{Note: changeNote, Commitment: changeNote.Commitment},
		},
		Keys:        b.keys,
		MerkleRoots: roots,
		OutputEpoch: outputEpoch,
		Fee:         fee,
	})
	if err != nil {
		return nil, fmt.Errorf("txbuilder: proof generation failed: %w", err)
	}

	b.store.AddPending(changeNote)
	if recipient == b.keys.ShieldedAddress {
		b.store.AddPending(recipientNote)
	}

	prepared := &PreparedTransfer{
		ProofBytes:     proof.Bytes(),
		PublicInputs:   publicInputs,
		OutputEpoch:    outputEpoch,
		Root:           roots[0],
		OutputNotes:    [2]*note.Note{recipientNote, changeNote},
		EncryptedNotes: [2][]byte{sealedRecipient, sealedChange},
		PoolID:         b.poolID,
	}
	for i := 0; i < 2; i++ {
		prepared.Nullifiers[i] = proverInputs[i].Nullifier
		prepared.InputEpochs[i] = *proverInputs[i].Note.Epoch
		prepared.InputLeafIndices[i] = *proverInputs[i].Note.LeafIndex
	}
	prepared.Commitments = [2][32]byte{recipientNote.Commitment, changeNote.Commitment}
	return prepared, nil
}

// PreparedRenew is a renewal ready for encoding.
type PreparedRenew struct {
	ProofBytes      []byte
	PublicInputs    [][32]byte
	OldNullifier    [32]byte
	NewCommitment   [32]byte
	EncryptedNote   []byte
	SourceEpoch     uint64
	SourceLeafIndex uint32
	TargetEpoch     uint64
	Root            [32]byte
	NewNote         *note.Note
	PoolID          [32]byte
}

// InstructionData renders the renewNote payload against a transaction
// anchor.
func (p *PreparedRenew) InstructionData(txAnchor [32]byte) []byte {
	return instructions.EncodeRenewNote(p.ProofBytes, &instructions.RenewPublicArgs{
		Root:          p.Root,
		Nullifier:     p.OldNullifier,
		NewCommitment: p.NewCommitment,
		SourceEpoch:   p.SourceEpoch,
		TargetEpoch:   p.TargetEpoch,
		TxAnchor:      txAnchor,
		PoolID:        p.PoolID,
	}, p.EncryptedNote)
}

// PrepareRenew moves a note into targetEpoch without disclosing it: same
// value and owner, fresh randomness, proven against the old epoch's tree.
func (b *Builder) PrepareRenew(ctx context.Context, n *note.Note, tree *merkle.EpochTree, targetEpoch uint64) (*PreparedRenew, error) {
	if !n.Confirmed() {
		return nil, ErrNoteNotConfirmed
	}
	if *n.Epoch >= targetEpoch {
		return nil, ErrRenewNotNeeded
	}
	if *n.Epoch != tree.Epoch() {
		return nil, &EpochMismatchError{Note: *n.Epoch, Tree: tree.Epoch()}
	}
	mproof, err := tree.Proof(*n.LeafIndex)
	if err != nil {
		return nil, err
	}
	oldNullifier, err := note.Nullifier(n.Commitment, b.keys.NullifierKey, *n.Epoch, *n.LeafIndex)
	if err != nil {
		return nil, err
	}
	renewed, err := note.New(n.Value, n.Token, n.Owner, n.Memo)
	if err != nil {
		return nil, err
	}
	sealed, err := note.Seal(renewed, b.keys.ViewingKey)
	if err != nil {
		return nil, err
	}
	proof, publicInputs, err := b.prover.ProveRenew(ctx, &prover.RenewInputs{
		OldNote:       n,
		NewNote:       renewed,
		Keys:          b.keys,
		MerkleProof:   mproof,
		MerkleRoot:    mproof.Root,
		OldNullifier:  oldNullifier,
		NewCommitment: renewed.Commitment,
		SourceEpoch:   *n.Epoch,
		TargetEpoch:   targetEpoch,
	})
	if err != nil {
		return nil, fmt.Errorf("txbuilder: proof generation failed: %w", err)
	}
	b.store.AddPending(renewed)
	return &PreparedRenew{
		ProofBytes:      proof.Bytes(),
		PublicInputs:    publicInputs,
		OldNullifier:    oldNullifier,
		NewCommitment:   renewed.Commitment,
		EncryptedNote:   sealed,
		SourceEpoch:     *n.Epoch,
		SourceLeafIndex: *n.LeafIndex,
		TargetEpoch:     targetEpoch,
		Root:            mproof.Root,
		NewNote:         renewed,
		PoolID:          b.poolID,
	}, nil
}
