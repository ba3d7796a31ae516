// poseidon.go - BN254 Poseidon hashing for commitments, nullifiers and Merkle nodes.
//
// The permutation parameters (round counts, ARK constants, MDS matrices for
// widths 2..5) are the circomlib tables used by the on-chain verifier; they
// are loaded once at process start and are read-only afterwards.

package poseidon

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	iden3poseidon "github.com/iden3/go-iden3-crypto/poseidon"
)

// MaxInputs is the largest supported input count; the permutation width is
// inputs+1, and only widths 2..5 carry parameter tables.
const MaxInputs = 4

var (
	// ErrInvalidInputCount is returned when the input count is outside 1..4.
	ErrInvalidInputCount = errors.New("poseidon: input count must be between 1 and 4")
)

// Modulus returns the BN254 scalar field prime p.
func Modulus() *big.Int {
	return fr.Modulus()
}

// Reduce interprets b as a big-endian integer and reduces it modulo p,
// returning the canonical 32-byte big-endian encoding.
func Reduce(b []byte) [32]byte {
	var e fr.Element
	if len(b) <= fr.Bytes {
		e.SetBytes(b)
	} else {
		e.SetBigInt(new(big.Int).SetBytes(b))
	}
	return e.Bytes()
}

// Hash computes the Poseidon hash of 1..4 field elements.
//
// Each input is a byte sequence interpreted big-endian and reduced mod p
// before absorption. The result is written as 32 bytes big-endian,
// zero-padded on the left.
func Hash(inputs ...[]byte) ([32]byte, error) {
	if len(inputs) == 0 || len(inputs) > MaxInputs {
		return [32]byte{}, ErrInvalidInputCount
	}
	elems := make([]*big.Int, len(inputs))
	for i, in := range inputs {
		var e fr.Element
		if len(in) <= fr.Bytes {
			e.SetBytes(in)
		} else {
			e.SetBigInt(new(big.Int).SetBytes(in))
		}
		elems[i] = e.BigInt(new(big.Int))
	}
	sum, err := iden3poseidon.Hash(elems)
	if err != nil {
		return [32]byte{}, fmt.Errorf("poseidon: %w", err)
	}
	var out fr.Element
	out.SetBigInt(sum)
	return out.Bytes(), nil
}

// HashFixed is Hash over 32-byte operands; the common case for commitments,
// nullifiers and Merkle nodes.
func HashFixed(inputs ...[32]byte) ([32]byte, error) {
	raw := make([][]byte, len(inputs))
	for i := range inputs {
		raw[i] = inputs[i][:]
	}
	return Hash(raw...)
}

// HashPair hashes two 32-byte nodes with the width-3 permutation. It is the
// Merkle node combiner; both operands are reduced mod p first.
func HashPair(left, right [32]byte) [32]byte {
	out, err := Hash(left[:], right[:])
	if err != nil {
		// Two inputs is always a valid width; unreachable.
		panic(err)
	}
	return out
}
