package events

import (
	"bytes"
	"testing"
)

func b32(b byte) [32]byte {
	var out [32]byte
	for i := range out {
		out[i] = b
	}
	return out
}

func TestParseDeposit(t *testing.T) {
	orig := &Deposit{
		Epoch:         3,
		Pool:          b32(0x11),
		Commitment:    b32(0x22),
		LeafIndex:     41,
		NewRoot:       b32(0x33),
		EncryptedNote: []byte{0xde, 0xad, 0xbe, 0xef},
	}
	ev, ok := Parse(orig.Encode())
	if !ok {
		t.Fatalf("Parse failed")
	}
	got, ok := ev.(*Deposit)
	if !ok {
		t.Fatalf("Parse returned %T, want *Deposit", ev)
	}
	if got.Epoch != orig.Epoch || got.Pool != orig.Pool || got.Commitment != orig.Commitment ||
		got.LeafIndex != orig.LeafIndex || got.NewRoot != orig.NewRoot ||
		!bytes.Equal(got.EncryptedNote, orig.EncryptedNote) {
		t.Errorf("round trip mismatch: %+v vs %+v", got, orig)
	}
}

func TestParseWithdraw(t *testing.T) {
	orig := &Withdraw{Epoch: 9, Pool: b32(0x01), Nullifier: b32(0x02), Amount: 750_000, Recipient: b32(0x03)}
	ev, ok := Parse(orig.Encode())
	if !ok {
		t.Fatalf("Parse failed")
	}
	got, ok := ev.(*Withdraw)
	if !ok {
		t.Fatalf("Parse returned %T, want *Withdraw", ev)
	}
	if *got != *orig {
		t.Errorf("round trip mismatch: %+v vs %+v", got, orig)
	}
}

func TestParseTransfer(t *testing.T) {
	orig := &Transfer{
		OutputEpoch:    5,
		Pool:           b32(0x07),
		Nullifiers:     [][32]byte{b32(0x10), b32(0x11)},
		InputEpochs:    []uint64{4, 5},
		Commitments:    [][32]byte{b32(0x20), b32(0x21)},
		LeafIndices:    []uint32{12, 13},
		EncryptedNotes: [][]byte{{0x01}, {0x02, 0x03}},
	}
	ev, ok := Parse(orig.Encode())
	if !ok {
		t.Fatalf("Parse failed")
	}
	got, ok := ev.(*Transfer)
	if !ok {
		t.Fatalf("Parse returned %T, want *Transfer", ev)
	}
	if got.OutputEpoch != 5 || len(got.Nullifiers) != 2 || got.Nullifiers[1] != b32(0x11) ||
		len(got.InputEpochs) != 2 || got.InputEpochs[0] != 4 ||
		len(got.Commitments) != 2 || got.LeafIndices[1] != 13 ||
		len(got.EncryptedNotes) != 2 || !bytes.Equal(got.EncryptedNotes[1], []byte{0x02, 0x03}) {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestParseRenew(t *testing.T) {
	orig := &Renew{
		SourceEpoch:   2,
		TargetEpoch:   6,
		Pool:          b32(0x04),
		Nullifier:     b32(0x05),
		Commitment:    b32(0x06),
		LeafIndex:     99,
		EncryptedNote: []byte{0xaa},
	}
	ev, ok := Parse(orig.Encode())
	if !ok {
		t.Fatalf("Parse failed")
	}
	got, ok := ev.(*Renew)
	if !ok {
		t.Fatalf("Parse returned %T, want *Renew", ev)
	}
	if got.SourceEpoch != 2 || got.TargetEpoch != 6 || got.LeafIndex != 99 ||
		!bytes.Equal(got.EncryptedNote, []byte{0xaa}) {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestParseEpochEvents(t *testing.T) {
	roll := &EpochRollover{PreviousEpoch: 4, NewEpoch: 5, Pool: b32(0x01)}
	ev, ok := Parse(roll.Encode())
	if !ok {
		t.Fatalf("Parse rollover failed")
	}
	if got, ok := ev.(*EpochRollover); !ok || *got != *roll {
		t.Errorf("rollover round trip mismatch: %+v", ev)
	}

	fin := &EpochFinalized{Epoch: 4, Pool: b32(0x01), MerkleRoot: b32(0x09)}
	ev, ok = Parse(fin.Encode())
	if !ok {
		t.Fatalf("Parse finalized failed")
	}
	if got, ok := ev.(*EpochFinalized); !ok || *got != *fin {
		t.Errorf("finalized round trip mismatch: %+v", ev)
	}
}

func TestParseUnknownDiscriminator(t *testing.T) {
	data := make([]byte, 64)
	for i := range data {
		data[i] = 0x5a
	}
	if ev, ok := Parse(data); ok || ev != nil {
		t.Errorf("unknown discriminator should be ignored")
	}
}

func TestParseTruncated(t *testing.T) {
	full := (&Deposit{
		Epoch:         1,
		Pool:          b32(0x01),
		Commitment:    b32(0x02),
		LeafIndex:     0,
		NewRoot:       b32(0x03),
		EncryptedNote: []byte{1, 2, 3},
	}).Encode()
	for cut := 0; cut < len(full); cut++ {
		if ev, ok := Parse(full[:cut]); ok || ev != nil {
			t.Fatalf("truncated deposit at %d bytes should not parse", cut)
		}
	}

	transfer := (&Transfer{
		OutputEpoch: 1,
		Pool:        b32(0x01),
		Nullifiers:  [][32]byte{b32(0x02)},
		InputEpochs: []uint64{1},
		Commitments: [][32]byte{b32(0x03)},
		LeafIndices: []uint32{0},
	}).Encode()
	for cut := 0; cut < len(transfer); cut++ {
		if ev, ok := Parse(transfer[:cut]); ok || ev != nil {
			t.Fatalf("truncated transfer at %d bytes should not parse", cut)
		}
	}
}
