// instructions.go - Binary encoding of the eight on-chain operations.
//
// Each instruction's data payload is discriminator(8) ‖ little-endian args
// with u32 length prefixes. The account list for each operation is a fixed
// vector in the order documented on its builder.

package instructions

import (
	"shieldedpool/internal/codec"
)

// Instruction discriminators, fixed constants of the on-chain program.
var (
	InitializePoolV2Discriminator          = [8]byte{0xcf, 0x2d, 0x57, 0xf2, 0x1b, 0x3f, 0xcc, 0x43}
	InitializeEpochLeafChunkDiscriminator  = [8]byte{0x80, 0xb5, 0xe0, 0xa7, 0xbd, 0xc3, 0xa1, 0xd3}
	DepositV2Discriminator                 = [8]byte{0x6d, 0x4b, 0x45, 0x99, 0xac, 0xda, 0x92, 0x13}
	WithdrawV2Discriminator                = [8]byte{0xf2, 0x50, 0xa3, 0x00, 0xc4, 0xdd, 0xc2, 0xc2}
	TransferV2Discriminator                = [8]byte{0x77, 0x28, 0x06, 0xeb, 0xea, 0xdd, 0xf8, 0x31}
	RenewNoteDiscriminator                 = [8]byte{0xcf, 0xfe, 0x07, 0x63, 0xcc, 0x44, 0xa3, 0xab}
	RolloverEpochDiscriminator             = [8]byte{0xb2, 0x0c, 0x6a, 0xe9, 0x7d, 0x37, 0x3a, 0x6f}
	FinalizeEpochDiscriminator             = [8]byte{0x9f, 0x5d, 0x75, 0xd9, 0x3f, 0x2c, 0xf9, 0x4c}
)

// AccountMeta is one entry of an instruction's account vector.
type AccountMeta struct {
	PublicKey  [32]byte
	IsSigner   bool
	IsWritable bool
}

// Instruction is a fully-assembled on-chain call.
type Instruction struct {
	ProgramID [32]byte
	Accounts  []AccountMeta
	Data      []byte
}

// WithdrawPublicArgs are the public inputs spliced after the proof in a
// withdrawV2 payload. Wire order: root, amount, nullifier, recipient,
// epoch, txAnchor, poolId.
type WithdrawPublicArgs struct {
	Root      [32]byte
	Nullifier [32]byte
	Amount    uint64
	Recipient [32]byte
	Epoch     uint64
	TxAnchor  [32]byte
	PoolID    [32]byte
}

// TransferPublicArgs are the public inputs of a transferV2 payload.
type TransferPublicArgs struct {
	Root        [32]byte
	NullifierA  [32]byte
	NullifierB  [32]byte
	CommitmentA [32]byte
	CommitmentB [32]byte
	OutputEpoch uint64
	TxAnchor    [32]byte
	PoolID      [32]byte
}

// RenewPublicArgs are the public inputs of a renewNote payload.
type RenewPublicArgs struct {
	Root          [32]byte
	Nullifier     [32]byte
	NewCommitment [32]byte
	SourceEpoch   uint64
	TargetEpoch   uint64
	TxAnchor      [32]byte
	PoolID        [32]byte
}

// EncodeInitializePoolV2 builds the pool-init payload.
func EncodeInitializePoolV2(epochDurationSlots, expirySlots, finalizationDelaySlots uint64) []byte {
	e := codec.NewEncoder()
	e.WriteFixed(InitializePoolV2Discriminator[:])
	e.WriteU64(epochDurationSlots)
	e.WriteU64(expirySlots)
	e.WriteU64(finalizationDelaySlots)
	return e.Bytes()
}

// EncodeInitializeEpochLeafChunk builds the leaf-chunk-init payload.
func EncodeInitializeEpochLeafChunk(epoch uint64, chunkIndex uint32) []byte {
	e := codec.NewEncoder()
	e.WriteFixed(InitializeEpochLeafChunkDiscriminator[:])
	e.WriteU64(epoch)
	e.WriteU32(chunkIndex)
	return e.Bytes()
}

// EncodeDepositV2 builds the deposit payload.
func EncodeDepositV2(commitment [32]byte, amount uint64, encryptedNote []byte) []byte {
	e := codec.NewEncoder()
	e.WriteFixed(DepositV2Discriminator[:])
	e.WriteBytes32(commitment)
	e.WriteU64(amount)
	e.WriteBytes(encryptedNote)
	return e.Bytes()
}

// EncodeWithdrawV2 builds the withdraw payload: length-prefixed proof, then
// the public args.
func EncodeWithdrawV2(proof []byte, args *WithdrawPublicArgs) []byte {
	e := codec.NewEncoder()
	e.WriteFixed(WithdrawV2Discriminator[:])
	e.WriteBytes(proof)
	e.WriteBytes32(args.Root)
	e.WriteU64(args.Amount)
	e.WriteBytes32(args.Nullifier)
	e.WriteBytes32(args.Recipient)
	e.WriteU64(args.Epoch)
	e.WriteBytes32(args.TxAnchor)
	e.WriteBytes32(args.PoolID)
	return e.Bytes()
}

// EncodeTransferV2 builds the transfer payload.
func EncodeTransferV2(proof []byte, args *TransferPublicArgs, encryptedNotes [][]byte) []byte {
	e := codec.NewEncoder()
	e.WriteFixed(TransferV2Discriminator[:])
	e.WriteBytes(proof)
	e.WriteBytes32(args.Root)
	e.WriteBytes32(args.NullifierA)
	e.WriteBytes32(args.NullifierB)
	e.WriteBytes32(args.CommitmentA)
	e.WriteBytes32(args.CommitmentB)
	e.WriteU64(args.OutputEpoch)
	e.WriteBytes32(args.TxAnchor)
	e.WriteBytes32(args.PoolID)
	e.WriteBytesVec(encryptedNotes)
	return e.Bytes()
}

// EncodeRenewNote builds the renewal payload.
func EncodeRenewNote(proof []byte, args *RenewPublicArgs, encryptedNote []byte) []byte {
	e := codec.NewEncoder()
	e.WriteFixed(RenewNoteDiscriminator[:])
	e.WriteBytes(proof)
	e.WriteBytes32(args.Root)
	e.WriteBytes32(args.Nullifier)
	e.WriteBytes32(args.NewCommitment)
	e.WriteU64(args.SourceEpoch)
	e.WriteU64(args.TargetEpoch)
	e.WriteBytes32(args.TxAnchor)
	e.WriteBytes32(args.PoolID)
	e.WriteBytes(encryptedNote)
	return e.Bytes()
}

// EncodeRolloverEpoch builds the epoch-rollover payload; it carries no args.
func EncodeRolloverEpoch() []byte {
	e := codec.NewEncoder()
	e.WriteFixed(RolloverEpochDiscriminator[:])
	return e.Bytes()
}

// EncodeFinalizeEpoch builds the epoch-finalization payload.
func EncodeFinalizeEpoch(epoch uint64) []byte {
	e := codec.NewEncoder()
	e.WriteFixed(FinalizeEpochDiscriminator[:])
	e.WriteU64(epoch)
	return e.Bytes()
}
