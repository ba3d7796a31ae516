// keys.go - Spending-key derivation and shielded-address rendering.
//
// The spending, viewing and nullifier keys are domain-separated SHA-256
// digests of a 32-byte seed; the shielded address is the domain-separated
// digest of the spending key. The seed is owned exclusively by the wallet; the derived sub-keys are handed
// read-only to the scanner and the transaction builder.

package keys

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// Derivation domains.
const (
	domainSpending  = "spending"
	domainViewing   = "viewing"
	domainNullifier = "nullifier"
	domainAddress   = "address"
)

var (
	// ErrEmptyAddress is returned when decoding an empty address string.
	ErrEmptyAddress = errors.New("keys: empty address")
)

// SpendingKeys bundles a seed with its derived sub-keys.
type SpendingKeys struct {
	Seed            [32]byte
	SpendingKey     [32]byte
	ViewingKey      [32]byte
	NullifierKey    [32]byte
	ShieldedAddress [32]byte
}

func derive(domain string, material []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write(material)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Derive derives the full key record from a 32-byte seed.
func Derive(seed [32]byte) *SpendingKeys {
	k := &SpendingKeys{Seed: seed}
	k.SpendingKey = derive(domainSpending, seed[:])
	k.ViewingKey = derive(domainViewing, seed[:])
	k.NullifierKey = derive(domainNullifier, seed[:])
	k.ShieldedAddress = derive(domainAddress, k.SpendingKey[:])
	return k
}

// Address returns the Base58 rendering of the shielded address.
func (k *SpendingKeys) Address() string {
	return EncodeAddress(k.ShieldedAddress)
}

// EncodeAddress renders a raw shielded address with the Bitcoin Base58
// alphabet.
func EncodeAddress(addr [32]byte) string {
	return base58.Encode(addr[:])
}

// DecodeAddress parses a Base58 shielded address. Characters outside the
// alphabet and inputs that do not decode to exactly 32 bytes are rejected;
// leading '1' characters decode to leading zero bytes.
func DecodeAddress(s string) ([32]byte, error) {
	var out [32]byte
	if s == "" {
		return out, ErrEmptyAddress
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return out, fmt.Errorf("keys: %w", err)
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("keys: decoded address is %d bytes, want %d", len(raw), len(out))
	}
	copy(out[:], raw)
	return out, nil
}
