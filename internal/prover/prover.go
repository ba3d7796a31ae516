// prover.go - The external proving capability consumed by the transaction
// builder.
//
// The Groth16 backend and its witness calculator live outside the core; they
// are reached through the Prover interface with typed input records. When no
// backend is linked, every call fails with ErrFrameworkNotIntegrated - a
// precondition, not a failure of the core.

package prover

import (
	"context"
	"errors"

	"shieldedpool/internal/keys"
	"shieldedpool/internal/merkle"
	"shieldedpool/internal/note"
)

var (
	// ErrFrameworkNotIntegrated is returned by the default prover when no
	// backend is linked.
	ErrFrameworkNotIntegrated = errors.New("prover: framework not integrated")
	// ErrInvalidInputs is returned when an input record is incomplete.
	ErrInvalidInputs = errors.New("prover: invalid inputs")
	// ErrWitnessGeneration is returned when the witness calculator fails.
	ErrWitnessGeneration = errors.New("prover: witness generation failed")
	// ErrProofGeneration is returned when the backend fails to prove.
	ErrProofGeneration = errors.New("prover: proof generation failed")
)

// WithdrawInputs feeds the withdraw circuit.
type WithdrawInputs struct {
	Note        *note.Note
	Keys        *keys.SpendingKeys
	MerkleProof *merkle.Proof
	MerkleRoot  [32]byte
	Recipient   [32]byte
	Amount      uint64
	Epoch       uint64
	LeafIndex   uint32
}

// TransferInput is one spent side of a transfer. Dummy inputs keep the
// circuit shape fixed at two spends; they carry a zero-value note and an
// all-zero inclusion path.
type TransferInput struct {
	Note        *note.Note
	MerkleProof *merkle.Proof
	Nullifier   [32]byte
	Dummy       bool
}

// TransferOutput is one created side of a transfer.
type TransferOutput struct {
	Note       *note.Note
	Commitment [32]byte
}

// TransferInputs feeds the 2-in/2-out transfer circuit.
type TransferInputs struct {
	Inputs      [2]TransferInput
	Outputs     [2]TransferOutput
	Keys        *keys.SpendingKeys
	MerkleRoots [2][32]byte
	OutputEpoch uint64
	Fee         uint64
}

// RenewInputs feeds the renewal circuit: prove the old note, commit the new
// one in the target epoch.
type RenewInputs struct {
	OldNote       *note.Note
	NewNote       *note.Note
	Keys          *keys.SpendingKeys
	MerkleProof   *merkle.Proof
	MerkleRoot    [32]byte
	OldNullifier  [32]byte
	NewCommitment [32]byte
	SourceEpoch   uint64
	TargetEpoch   uint64
}

// Prover is the proving capability. Calls are the builder's only suspension
// points; implementations should honor ctx cancellation.
type Prover interface {
	ProveWithdraw(ctx context.Context, in *WithdrawInputs) (*Groth16Proof, [][32]byte, error)
	ProveTransfer(ctx context.Context, in *TransferInputs) (*Groth16Proof, [][32]byte, error)
	ProveRenew(ctx context.Context, in *RenewInputs) (*Groth16Proof, [][32]byte, error)
}

// Unintegrated is the default prover: every call reports that no backend is
// linked.
type Unintegrated struct{}

func (Unintegrated) ProveWithdraw(context.Context, *WithdrawInputs) (*Groth16Proof, [][32]byte, error) {
	return nil, nil, ErrFrameworkNotIntegrated
}

func (Unintegrated) ProveTransfer(context.Context, *TransferInputs) (*Groth16Proof, [][32]byte, error) {
	return nil, nil, ErrFrameworkNotIntegrated
}

func (Unintegrated) ProveRenew(context.Context, *RenewInputs) (*Groth16Proof, [][32]byte, error) {
	return nil, nil, ErrFrameworkNotIntegrated
}

// Mock returns a zero proof of the correct shape and no public signals; it
// exists so the builder and encoder layers are testable without a backend.
type Mock struct{}

func (Mock) ProveWithdraw(context.Context, *WithdrawInputs) (*Groth16Proof, [][32]byte, error) {
	return &Groth16Proof{}, nil, nil
}

func (Mock) ProveTransfer(context.Context, *TransferInputs) (*Groth16Proof, [][32]byte, error) {
	return &Groth16Proof{}, nil, nil
}

func (Mock) ProveRenew(context.Context, *RenewInputs) (*Groth16Proof, [][32]byte, error) {
	return &Groth16Proof{}, nil, nil
}
