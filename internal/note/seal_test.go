package note

import (
	"testing"
)

func TestSealOpenRoundTrip(t *testing.T) {
	n, err := New(5_000_000, filled(0xaa), filled(0xbb), "tip")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	key := filled(0x42)
	sealed, err := Seal(n, key)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	// nonce(12) + record + tag(16)
	record, _ := n.Serialize()
	if len(sealed) != 12+len(record)+16 {
		t.Errorf("sealed length = %d, want %d", len(sealed), 12+len(record)+16)
	}
	got, err := Open(sealed, key)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got.Value != n.Value || got.Commitment != n.Commitment || got.Memo != n.Memo {
		t.Errorf("opened note differs: %+v vs %+v", got, n)
	}
}

func TestOpenWrongKey(t *testing.T) {
	n, err := New(1, filled(0x01), filled(0x02), "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	sealed, err := Seal(n, filled(0x42))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if _, err := Open(sealed, filled(0x43)); err != ErrDecryptionFailed {
		t.Errorf("wrong key: err = %v, want ErrDecryptionFailed", err)
	}
}

func TestOpenTamperedNonce(t *testing.T) {
	n, err := New(1, filled(0x01), filled(0x02), "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	key := filled(0x42)
	sealed, err := Seal(n, key)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	sealed[0] ^= 0x01
	if _, err := Open(sealed, key); err != ErrDecryptionFailed {
		t.Errorf("tampered nonce: err = %v, want ErrDecryptionFailed", err)
	}
}

func TestOpenTooShort(t *testing.T) {
	if _, err := Open(make([]byte, 27), filled(0x42)); err != ErrSealedTooShort {
		t.Errorf("short blob: err = %v, want ErrSealedTooShort", err)
	}
}
