// events.go - Typed decoding of the six pool event records emitted in
// program logs.
//
// Every record starts with a fixed 8-byte discriminator; the payload is
// little-endian with u32 length prefixes. Unknown discriminators are
// ignored and truncated input never panics - both yield (nil, false).

package events

import (
	"shieldedpool/internal/codec"
)

// DiscriminatorLen is the fixed event tag size.
const DiscriminatorLen = 8

// Event discriminators, fixed constants supplied by the program.
var (
	DepositV2Discriminator      = [8]byte{0xa4, 0xd6, 0x2a, 0x2f, 0x25, 0xf5, 0x58, 0x6a}
	WithdrawV2Discriminator     = [8]byte{0xe7, 0xe7, 0x67, 0x4f, 0xbb, 0x93, 0x72, 0xb4}
	TransferV2Discriminator     = [8]byte{0x5c, 0x93, 0xfe, 0x4c, 0x44, 0xc9, 0xa0, 0x80}
	RenewV2Discriminator        = [8]byte{0x97, 0x7e, 0x4e, 0x25, 0x5c, 0x7d, 0x9e, 0xa7}
	EpochRolloverDiscriminator  = [8]byte{0x12, 0xb3, 0x4a, 0x7f, 0x81, 0x5c, 0x2e, 0x9f}
	EpochFinalizedDiscriminator = [8]byte{0x3f, 0xa9, 0x8c, 0x12, 0x67, 0x4b, 0xd1, 0xe3}
)

// Event is one decoded pool event.
type Event interface {
	// EventPool returns the pool the event belongs to.
	EventPool() [32]byte
}

// Deposit is a transparent value entering the pool as a new commitment.
type Deposit struct {
	Epoch         uint64
	Pool          [32]byte
	Commitment    [32]byte
	LeafIndex     uint32
	NewRoot       [32]byte
	EncryptedNote []byte
}

func (e *Deposit) EventPool() [32]byte { return e.Pool }

// Withdraw is a note leaving the pool to a transparent recipient.
type Withdraw struct {
	Epoch     uint64
	Pool      [32]byte
	Nullifier [32]byte
	Amount    uint64
	Recipient [32]byte
}

func (e *Withdraw) EventPool() [32]byte { return e.Pool }

// Transfer is a 2-in/2-out private transfer.
type Transfer struct {
	OutputEpoch    uint64
	Pool           [32]byte
	Nullifiers     [][32]byte
	InputEpochs    []uint64
	Commitments    [][32]byte
	LeafIndices    []uint32
	EncryptedNotes [][]byte
}

func (e *Transfer) EventPool() [32]byte { return e.Pool }

// Renew moves a note from an expiring epoch into the current one.
type Renew struct {
	SourceEpoch   uint64
	TargetEpoch   uint64
	Pool          [32]byte
	Nullifier     [32]byte
	Commitment    [32]byte
	LeafIndex     uint32
	EncryptedNote []byte
}

func (e *Renew) EventPool() [32]byte { return e.Pool }

// EpochRollover advances the pool's active epoch.
type EpochRollover struct {
	PreviousEpoch uint64
	NewEpoch      uint64
	Pool          [32]byte
}

func (e *EpochRollover) EventPool() [32]byte { return e.Pool }

// EpochFinalized installs the immutable root of a past epoch.
type EpochFinalized struct {
	Epoch      uint64
	Pool       [32]byte
	MerkleRoot [32]byte
}

func (e *EpochFinalized) EventPool() [32]byte { return e.Pool }

// Parse decodes one event record. It returns (nil, false) for unknown
// discriminators and for truncated payloads.
func Parse(data []byte) (Event, bool) {
	if len(data) < DiscriminatorLen {
		return nil, false
	}
	var disc [8]byte
	copy(disc[:], data[:DiscriminatorLen])
	d := codec.NewDecoder(data[DiscriminatorLen:])
	switch disc {
	case DepositV2Discriminator:
		return parseDeposit(d)
	case WithdrawV2Discriminator:
		return parseWithdraw(d)
	case TransferV2Discriminator:
		return parseTransfer(d)
	case RenewV2Discriminator:
		return parseRenew(d)
	case EpochRolloverDiscriminator:
		return parseRollover(d)
	case EpochFinalizedDiscriminator:
		return parseFinalized(d)
	default:
		return nil, false
	}
}

func parseDeposit(d *codec.Decoder) (Event, bool) {
	var (
		e   Deposit
		err error
	)
	if e.Epoch, err = d.ReadU64(); err != nil {
		return nil, false
	}
	if e.Pool, err = d.ReadBytes32(); err != nil {
		return nil, false
	}
	if e.Commitment, err = d.ReadBytes32(); err != nil {
		return nil, false
	}
	// leafIndex is u64 on the wire; readers truncate.
	leafIndex, err := d.ReadU64()
	if err != nil {
		return nil, false
	}
	e.LeafIndex = uint32(leafIndex)
	if e.NewRoot, err = d.ReadBytes32(); err != nil {
		return nil, false
	}
	if e.EncryptedNote, err = d.ReadBytes(); err != nil {
		return nil, false
	}
	return &e, true
}

func parseWithdraw(d *codec.Decoder) (Event, bool) {
	var (
		e   Withdraw
		err error
	)
	if e.Epoch, err = d.ReadU64(); err != nil {
		return nil, false
	}
	if e.Pool, err = d.ReadBytes32(); err != nil {
		return nil, false
	}
	if e.Nullifier, err = d.ReadBytes32(); err != nil {
		return nil, false
	}
	if e.Amount, err = d.ReadU64(); err != nil {
		return nil, false
	}
	if e.Recipient, err = d.ReadBytes32(); err != nil {
		return nil, false
	}
	return &e, true
}

func parseTransfer(d *codec.Decoder) (Event, bool) {
	var (
		e   Transfer
		err error
	)
	if e.OutputEpoch, err = d.ReadU64(); err != nil {
		return nil, false
	}
	if e.Pool, err = d.ReadBytes32(); err != nil {
		return nil, false
	}
	if e.Nullifiers, err = d.ReadBytes32Vec(); err != nil {
		return nil, false
	}
	if e.InputEpochs, err = d.ReadU64Vec(); err != nil {
		return nil, false
	}
	if e.Commitments, err = d.ReadBytes32Vec(); err != nil {
		return nil, false
	}
	indices, err := d.ReadU64Vec()
	if err != nil {
		return nil, false
	}
	e.LeafIndices = make([]uint32, len(indices))
	for i, idx := range indices {
		e.LeafIndices[i] = uint32(idx)
	}
	if e.EncryptedNotes, err = d.ReadBytesVec(); err != nil {
		return nil, false
	}
	return &e, true
}

func parseRenew(d *codec.Decoder) (Event, bool) {
	var (
		e   Renew
		err error
	)
	if e.SourceEpoch, err = d.ReadU64(); err != nil {
		return nil, false
	}
	if e.TargetEpoch, err = d.ReadU64(); err != nil {
		return nil, false
	}
	if e.Pool, err = d.ReadBytes32(); err != nil {
		return nil, false
	}
	if e.Nullifier, err = d.ReadBytes32(); err != nil {
		return nil, false
	}
	if e.Commitment, err = d.ReadBytes32(); err != nil {
		return nil, false
	}
	leafIndex, err := d.ReadU64()
	if err != nil {
		return nil, false
	}
	e.LeafIndex = uint32(leafIndex)
	if e.EncryptedNote, err = d.ReadBytes(); err != nil {
		return nil, false
	}
	return &e, true
}

func parseRollover(d *codec.Decoder) (Event, bool) {
	var (
		e   EpochRollover
		err error
	)
	if e.PreviousEpoch, err = d.ReadU64(); err != nil {
		return nil, false
	}
	if e.NewEpoch, err = d.ReadU64(); err != nil {
		return nil, false
	}
	if e.Pool, err = d.ReadBytes32(); err != nil {
		return nil, false
	}
	return &e, true
}

func parseFinalized(d *codec.Decoder) (Event, bool) {
	var (
		e   EpochFinalized
		err error
	)
	if e.Epoch, err = d.ReadU64(); err != nil {
		return nil, false
	}
	if e.Pool, err = d.ReadBytes32(); err != nil {
		return nil, false
	}
	if e.MerkleRoot, err = d.ReadBytes32(); err != nil {
		return nil, false
	}
	return &e, true
}
