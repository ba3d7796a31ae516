package note

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func filled(b byte) [32]byte {
	var out [32]byte
	for i := range out {
		out[i] = b
	}
	return out
}

func TestCommitmentDeterminism(t *testing.T) {
	a, err := Commitment(1_000_000, filled(0xbb), filled(0xcc))
	if err != nil {
		t.Fatalf("Commitment failed: %v", err)
	}
	b, err := Commitment(1_000_000, filled(0xbb), filled(0xcc))
	if err != nil {
		t.Fatalf("Commitment failed: %v", err)
	}
	if a != b {
		t.Errorf("commitment not reproducible: %x vs %x", a, b)
	}
}

func TestCommitmentSensitivity(t *testing.T) {
	base, err := Commitment(1_000_000, filled(0xbb), filled(0xcc))
	if err != nil {
		t.Fatalf("Commitment failed: %v", err)
	}
	variants := []struct {
		name       string
		value      uint64
		owner      [32]byte
		randomness [32]byte
	}{
		{"value", 1_000_001, filled(0xbb), filled(0xcc)},
		{"owner", 1_000_000, filled(0xbc), filled(0xcc)},
		{"randomness", 1_000_000, filled(0xbb), filled(0xcd)},
	}
	for _, v := range variants {
		got, err := Commitment(v.value, v.owner, v.randomness)
		if err != nil {
			t.Fatalf("Commitment(%s) failed: %v", v.name, err)
		}
		if got == base {
			t.Errorf("changing %s did not change the commitment", v.name)
		}
	}
}

func TestNullifierSensitivity(t *testing.T) {
	cm := filled(0x10)
	key := filled(0x20)
	base, err := Nullifier(cm, key, 5, 7)
	if err != nil {
		t.Fatalf("Nullifier failed: %v", err)
	}
	variants := []struct {
		name      string
		cm, key   [32]byte
		epoch     uint64
		leafIndex uint32
	}{
		{"commitment", filled(0x11), key, 5, 7},
		{"nullifierKey", cm, filled(0x21), 5, 7},
		{"epoch", cm, key, 6, 7},
		{"leafIndex", cm, key, 5, 8},
	}
	for _, v := range variants {
		got, err := Nullifier(v.cm, v.key, v.epoch, v.leafIndex)
		if err != nil {
			t.Fatalf("Nullifier(%s) failed: %v", v.name, err)
		}
		if got == base {
			t.Errorf("changing %s did not change the nullifier", v.name)
		}
	}
}

func TestSerializeVector(t *testing.T) {
	n := &Note{
		Value:      1_000_000,
		Token:      filled(0xaa),
		Owner:      filled(0xbb),
		Randomness: filled(0xcc),
		Memo:       "hello",
	}
	data, err := n.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if len(data) != 135 {
		t.Fatalf("serialized length = %d, want 135", len(data))
	}
	want := "00000000000000000000000000000000000000000000000000000000000f4240" +
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" +
		"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb" +
		"cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc" +
		"0500" + "68656c6c6f"
	if got := hex.EncodeToString(data); got != want {
		t.Errorf("serialized bytes:\n got %s\nwant %s", got, want)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	orig, err := New(42_000, filled(0x01), filled(0x02), "memo bytes")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	data, err := orig.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if got.Value != orig.Value || got.Token != orig.Token || got.Owner != orig.Owner ||
		got.Randomness != orig.Randomness || got.Memo != orig.Memo || got.Commitment != orig.Commitment {
		t.Errorf("round trip changed the note: %+v vs %+v", got, orig)
	}
}

func TestDeserializeRejectsBadLength(t *testing.T) {
	if _, err := Deserialize(bytes.Repeat([]byte{0}, 129)); err != ErrInvalidNoteLength {
		t.Errorf("short input: err = %v, want ErrInvalidNoteLength", err)
	}
	// Memo length prefix promising more than present.
	data := make([]byte, 130)
	data[128] = 10
	if _, err := Deserialize(data); err != ErrInvalidNoteLength {
		t.Errorf("bad memo length: err = %v, want ErrInvalidNoteLength", err)
	}
	// Value field with nonzero high bytes is not a u64.
	data = make([]byte, 130)
	data[0] = 1
	if _, err := Deserialize(data); err != ErrInvalidNoteLength {
		t.Errorf("oversized value: err = %v, want ErrInvalidNoteLength", err)
	}
}

func TestRecomputeNullifier(t *testing.T) {
	n, err := New(100, filled(0x01), filled(0x02), "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := n.RecomputeNullifier(filled(0x03)); err == nil {
		t.Errorf("nullifier derivation before confirmation should fail")
	}
	n.Confirm(9, 4)
	if err := n.RecomputeNullifier(filled(0x03)); err != nil {
		t.Fatalf("RecomputeNullifier failed: %v", err)
	}
	want, err := Nullifier(n.Commitment, filled(0x03), 4, 9)
	if err != nil {
		t.Fatalf("Nullifier failed: %v", err)
	}
	if n.Nullifier == nil || *n.Nullifier != want {
		t.Errorf("cached nullifier mismatch")
	}
}
