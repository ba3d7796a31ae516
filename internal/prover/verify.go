// verify.go - Local Groth16 verification against an embedded verifying key.
//
// Before broadcasting, an SDK can check a proof with the BN254 pairing
// identity e(A,B) = e(alpha,beta) · e(vk_x,gamma) · e(C,delta), where vk_x
// folds the public inputs into the IC points. The on-chain program remains
// the authority; this only saves a doomed submission.

package prover

import (
	"errors"
	"fmt"
	"math/big"

	bn254 "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

var (
	// ErrInvalidPoint is returned when a proof or key point is off-curve or
	// outside the prime-order subgroup.
	ErrInvalidPoint = errors.New("prover: point not on curve")
	// ErrInvalidVerifyingKey is returned when a key blob is malformed.
	ErrInvalidVerifyingKey = errors.New("prover: invalid verifying key")
	// ErrPublicInputCount is returned when the signal count does not match
	// the key's IC vector.
	ErrPublicInputCount = errors.New("prover: public input count mismatch")
)

// VerifyingKey holds the verifier side of a Groth16 setup.
type VerifyingKey struct {
	Alpha bn254.G1Affine
	Beta  bn254.G2Affine
	Gamma bn254.G2Affine
	Delta bn254.G2Affine
	IC    []bn254.G1Affine
}

func parseG1(data []byte) (bn254.G1Affine, error) {
	var p bn254.G1Affine
	var x, y fp.Element
	x.SetBytes(data[:32])
	y.SetBytes(data[32:64])
	p.X, p.Y = x, y
	if !p.IsOnCurve() || !p.IsInSubGroup() {
		return p, ErrInvalidPoint
	}
	return p, nil
}

func parseG2(data []byte) (bn254.G2Affine, error) {
	var p bn254.G2Affine
	p.X.A0.SetBytes(data[:32])
	p.X.A1.SetBytes(data[32:64])
	p.Y.A0.SetBytes(data[64:96])
	p.Y.A1.SetBytes(data[96:128])
	if !p.IsOnCurve() || !p.IsInSubGroup() {
		return p, ErrInvalidPoint
	}
	return p, nil
}

// ParseVerifyingKey decodes alpha(64) ‖ beta(128) ‖ gamma(128) ‖ delta(128)
// ‖ u32 count ‖ count × IC(64), all coordinates 32 bytes big-endian.
func ParseVerifyingKey(data []byte) (*VerifyingKey, error) {
	const fixed = G1Len + 3*G2Len + 4
	if len(data) < fixed {
		return nil, ErrInvalidVerifyingKey
	}
	var (
		vk  VerifyingKey
		err error
	)
	off := 0
	if vk.Alpha, err = parseG1(data[off : off+G1Len]); err != nil {
		return nil, fmt.Errorf("alpha: %w", err)
	}
	off += G1Len
	if vk.Beta, err = parseG2(data[off : off+G2Len]); err != nil {
		return nil, fmt.Errorf("beta: %w", err)
	}
	off += G2Len
	if vk.Gamma, err = parseG2(data[off : off+G2Len]); err != nil {
		return nil, fmt.Errorf("gamma: %w", err)
	}
	off += G2Len
	if vk.Delta, err = parseG2(data[off : off+G2Len]); err != nil {
		return nil, fmt.Errorf("delta: %w", err)
	}
	off += G2Len
	count := int(uint32(data[off]) | uint32(data[off+1])<<8 | uint32(data[off+2])<<16 | uint32(data[off+3])<<24)
	off += 4
	if count == 0 || len(data) != off+count*G1Len {
		return nil, ErrInvalidVerifyingKey
	}
	vk.IC = make([]bn254.G1Affine, count)
	for i := 0; i < count; i++ {
		if vk.IC[i], err = parseG1(data[off : off+G1Len]); err != nil {
			return nil, fmt.Errorf("ic[%d]: %w", i, err)
		}
		off += G1Len
	}
	return &vk, nil
}

// Verify checks the proof against the key and public signals. Signals are
// 32-byte big-endian field elements, reduced mod r.
func (vk *VerifyingKey) Verify(proof *Groth16Proof, publicInputs [][32]byte) (bool, error) {
	if len(publicInputs) != len(vk.IC)-1 {
		return false, ErrPublicInputCount
	}
	a, err := parseG1(proof.A[:])
	if err != nil {
		return false, fmt.Errorf("proof A: %w", err)
	}
	b, err := parseG2(proof.B[:])
	if err != nil {
		return false, fmt.Errorf("proof B: %w", err)
	}
	c, err := parseG1(proof.C[:])
	if err != nil {
		return false, fmt.Errorf("proof C: %w", err)
	}

	// vk_x = IC[0] + Σ signal_i · IC[i+1]
	var acc bn254.G1Jac
	acc.FromAffine(&vk.IC[0])
	for i, sig := range publicInputs {
		var s fr.Element
		s.SetBytes(sig[:])
		var term bn254.G1Affine
		term.ScalarMultiplication(&vk.IC[i+1], s.BigInt(new(big.Int)))
		acc.AddMixed(&term)
	}
	var vkx bn254.G1Affine
	vkx.FromJacobian(&acc)

	var negA bn254.G1Affine
	negA.Neg(&a)
	return bn254.PairingCheck(
		[]bn254.G1Affine{negA, vk.Alpha, vkx, c},
		[]bn254.G2Affine{b, vk.Beta, vk.Gamma, vk.Delta},
	)
}
