// note.go - Note type and derivations for the shielded pool.
//
// A Note is a privately-owned unit of token value, bound on-chain by its
// commitment and spent by publishing its nullifier. Notes start pending and
// are confirmed once their commitment is observed in an epoch tree.

package note

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"shieldedpool/internal/poseidon"
)

// MaxMemoLen bounds the UTF-8 memo carried inside the sealed note record.
const MaxMemoLen = 65535

// serializedMinLen is value(32) + token(32) + owner(32) + randomness(32) +
// memo length prefix(2).
const serializedMinLen = 130

var (
	// ErrInvalidNoteLength is returned when a serialized note record has an
	// impossible length.
	ErrInvalidNoteLength = errors.New("note: invalid serialized note length")
	// ErrMemoTooLong is returned when a memo exceeds MaxMemoLen bytes.
	ErrMemoTooLong = errors.New("note: memo exceeds 65535 bytes")
)

// Note is a pool UTXO.
//
// LeafIndex, Epoch and Nullifier are nil until the note is confirmed
// on-chain; Spent flips once its nullifier is observed.
type Note struct {
	Value      uint64    `json:"value"`
	Token      [32]byte  `json:"token"`
	Owner      [32]byte  `json:"owner"`
	Randomness [32]byte  `json:"randomness"`
	Memo       string    `json:"memo,omitempty"`
	Commitment [32]byte  `json:"commitment"`
	LeafIndex  *uint32   `json:"leaf_index,omitempty"`
	Epoch      *uint64   `json:"epoch,omitempty"`
	Nullifier  *[32]byte `json:"nullifier,omitempty"`
	Spent      bool      `json:"spent"`
}

// Commitment derives the note commitment H(value, owner, randomness) with the
// value encoded as 32 big-endian bytes.
func Commitment(value uint64, owner, randomness [32]byte) ([32]byte, error) {
	var valueBE [32]byte
	binary.BigEndian.PutUint64(valueBE[24:], value)
	return poseidon.HashFixed(valueBE, owner, randomness)
}

// Nullifier derives H(commitment, nullifierKey, epoch, leafIndex) with the
// two integers zero-padded to 32 bytes in little-endian, matching the
// on-chain circuit. The endianness asymmetry against Commitment is
// deliberate and must not be normalized.
func Nullifier(commitment, nullifierKey [32]byte, epoch uint64, leafIndex uint32) ([32]byte, error) {
	var epochLE, indexLE [32]byte
	binary.LittleEndian.PutUint64(epochLE[:8], epoch)
	binary.LittleEndian.PutUint32(indexLE[:4], leafIndex)
	return poseidon.HashFixed(commitment, nullifierKey, epochLE, indexLE)
}

// New builds a fresh pending note with cryptographic randomness and a
// recomputed commitment.
func New(value uint64, token, owner [32]byte, memo string) (*Note, error) {
	if len(memo) > MaxMemoLen {
		return nil, ErrMemoTooLong
	}
	var randomness [32]byte
	if _, err := rand.Read(randomness[:]); err != nil {
		return nil, fmt.Errorf("note: randomness generation failed: %w", err)
	}
	cm, err := Commitment(value, owner, randomness)
	if err != nil {
		return nil, err
	}
	return &Note{
		Value:      value,
		Token:      token,
		Owner:      owner,
		Randomness: randomness,
		Memo:       memo,
		Commitment: cm,
	}, nil
}

// Confirm records the on-chain position of the note.
func (n *Note) Confirm(leafIndex uint32, epoch uint64) {
	idx, ep := leafIndex, epoch
	n.LeafIndex = &idx
	n.Epoch = &ep
}

// Confirmed reports whether the note has an on-chain position.
func (n *Note) Confirmed() bool {
	return n.LeafIndex != nil && n.Epoch != nil
}

// RecomputeNullifier derives and caches the nullifier once the note is
// confirmed.
func (n *Note) RecomputeNullifier(nullifierKey [32]byte) error {
	if !n.Confirmed() {
		return fmt.Errorf("note: cannot derive nullifier before confirmation")
	}
	nf, err := Nullifier(n.Commitment, nullifierKey, *n.Epoch, *n.LeafIndex)
	if err != nil {
		return err
	}
	n.Nullifier = &nf
	return nil
}

// Serialize encodes the note record sealed inside event ciphertexts:
// value as 32 big-endian bytes, token, owner, randomness, then the memo with
// a little-endian u16 length prefix.
func (n *Note) Serialize() ([]byte, error) {
	if len(n.Memo) > MaxMemoLen {
		return nil, ErrMemoTooLong
	}
	out := make([]byte, 0, serializedMinLen+len(n.Memo))
	var valueBE [32]byte
	binary.BigEndian.PutUint64(valueBE[24:], n.Value)
	out = append(out, valueBE[:]...)
	out = append(out, n.Token[:]...)
	out = append(out, n.Owner[:]...)
	out = append(out, n.Randomness[:]...)
	var memoLen [2]byte
	binary.LittleEndian.PutUint16(memoLen[:], uint16(len(n.Memo)))
	out = append(out, memoLen[:]...)
	out = append(out, n.Memo...)
	return out, nil
}

// Deserialize parses a serialized note record and recomputes its commitment.
func Deserialize(data []byte) (*Note, error) {
	if len(data) < serializedMinLen {
		return nil, ErrInvalidNoteLength
	}
	// The top 24 bytes of the value field must be zero for a u64 value.
	for _, b := range data[:24] {
		if b != 0 {
			return nil, ErrInvalidNoteLength
		}
	}
	n := &Note{Value: binary.BigEndian.Uint64(data[24:32])}
	copy(n.Token[:], data[32:64])
	copy(n.Owner[:], data[64:96])
	copy(n.Randomness[:], data[96:128])
	memoLen := int(binary.LittleEndian.Uint16(data[128:130]))
	if len(data) != serializedMinLen+memoLen {
		return nil, ErrInvalidNoteLength
	}
	n.Memo = string(data[130:])
	cm, err := Commitment(n.Value, n.Owner, n.Randomness)
	if err != nil {
		return nil, err
	}
	n.Commitment = cm
	return n, nil
}
