// proof.go - Raw Groth16 proof container.
//
// Proofs cross the prover boundary as the uncompressed point concatenation
// A(64) ‖ B(128) ‖ C(64): affine coordinates, 32 bytes big-endian each, with
// G2 coordinates ordered c0 then c1.

package prover

import (
	"errors"
)

// Proof segment sizes.
const (
	G1Len    = 64
	G2Len    = 128
	ProofLen = G1Len + G2Len + G1Len
)

// ErrInvalidProofLength is returned when a proof blob is not 256 bytes.
var ErrInvalidProofLength = errors.New("prover: proof must be 256 bytes")

// Groth16Proof holds the three proof points in wire form.
type Groth16Proof struct {
	A [G1Len]byte
	B [G2Len]byte
	C [G1Len]byte
}

// Bytes returns the on-wire concatenation A ‖ B ‖ C.
func (p *Groth16Proof) Bytes() []byte {
	out := make([]byte, 0, ProofLen)
	out = append(out, p.A[:]...)
	out = append(out, p.B[:]...)
	out = append(out, p.C[:]...)
	return out
}

// ProofFromBytes splits a 256-byte blob back into its points.
func ProofFromBytes(data []byte) (*Groth16Proof, error) {
	if len(data) != ProofLen {
		return nil, ErrInvalidProofLength
	}
	var p Groth16Proof
	copy(p.A[:], data[:G1Len])
	copy(p.B[:], data[G1Len:G1Len+G2Len])
	copy(p.C[:], data[G1Len+G2Len:])
	return &p, nil
}
