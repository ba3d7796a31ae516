// pda.go - Program-derived address computation and the pool's seed schemas.
//
// A program-derived address is SHA256(seeds ‖ bump ‖ programId ‖ marker)
// ground from bump 255 down until the digest is not a valid ed25519 point,
// so the address can never sign.

package instructions

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"filippo.io/edwards25519"
)

const pdaMarker = "ProgramDerivedAddress"

// ChunkLeaves is how many leaves one leaf-chunk account holds.
const ChunkLeaves = 256

// ErrNoViableBump is returned when every bump byte yields an on-curve
// address; statistically this does not happen.
var ErrNoViableBump = errors.New("instructions: unable to find viable program address bump")

// isOnCurve reports whether b decompresses to an ed25519 point.
func isOnCurve(b [32]byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b[:])
	return err == nil
}

// CreateProgramAddress derives the address for an explicit bump. It fails
// when the digest lands on the curve.
func CreateProgramAddress(seeds [][]byte, bump uint8, programID [32]byte) ([32]byte, error) {
	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write([]byte{bump})
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))
	var addr [32]byte
	copy(addr[:], h.Sum(nil))
	if isOnCurve(addr) {
		return [32]byte{}, errors.New("instructions: derived address is on curve")
	}
	return addr, nil
}

// FindProgramAddress grinds the bump from 255 downward until the derived
// address is off-curve, returning the address and the bump that produced it.
func FindProgramAddress(seeds [][]byte, programID [32]byte) ([32]byte, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		addr, err := CreateProgramAddress(seeds, uint8(bump), programID)
		if err != nil {
			continue
		}
		return addr, uint8(bump), nil
	}
	return [32]byte{}, 0, ErrNoViableBump
}

func u64le(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

func u32le(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}

// ChunkIndex maps a leaf index to its chunk account.
func ChunkIndex(leafIndex uint32) uint32 {
	return leafIndex / ChunkLeaves
}

// PoolConfigAddress derives "pool_config" ‖ mint.
func PoolConfigAddress(mint, programID [32]byte) ([32]byte, uint8, error) {
	return FindProgramAddress([][]byte{[]byte("pool_config"), mint[:]}, programID)
}

// EpochTreeAddress derives "epoch_tree" ‖ poolConfig ‖ epoch.
func EpochTreeAddress(poolConfig [32]byte, epoch uint64, programID [32]byte) ([32]byte, uint8, error) {
	return FindProgramAddress([][]byte{[]byte("epoch_tree"), poolConfig[:], u64le(epoch)}, programID)
}

// LeafChunkAddress derives "leaves" ‖ poolConfig ‖ epoch ‖ chunkIndex.
func LeafChunkAddress(poolConfig [32]byte, epoch uint64, chunkIndex uint32, programID [32]byte) ([32]byte, uint8, error) {
	return FindProgramAddress([][]byte{[]byte("leaves"), poolConfig[:], u64le(epoch), u32le(chunkIndex)}, programID)
}

// VaultAuthorityAddress derives "vault_authority" ‖ poolConfig.
func VaultAuthorityAddress(poolConfig, programID [32]byte) ([32]byte, uint8, error) {
	return FindProgramAddress([][]byte{[]byte("vault_authority"), poolConfig[:]}, programID)
}

// VaultAddress derives "vault" ‖ poolConfig.
func VaultAddress(poolConfig, programID [32]byte) ([32]byte, uint8, error) {
	return FindProgramAddress([][]byte{[]byte("vault"), poolConfig[:]}, programID)
}

// NullifierMarkerAddress derives "nullifier" ‖ poolConfig ‖ nullifier.
func NullifierMarkerAddress(poolConfig, nullifier, programID [32]byte) ([32]byte, uint8, error) {
	return FindProgramAddress([][]byte{[]byte("nullifier"), poolConfig[:], nullifier[:]}, programID)
}

// VerifierConfigAddress derives "verifier" ‖ poolConfig ‖ circuitName.
func VerifierConfigAddress(poolConfig [32]byte, circuitName string, programID [32]byte) ([32]byte, uint8, error) {
	return FindProgramAddress([][]byte{[]byte("verifier"), poolConfig[:], []byte(circuitName)}, programID)
}
