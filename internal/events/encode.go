// encode.go - Wire encoding of event records.
//
// The ledger is the only real emitter; these encoders exist for round-trip
// tests and local pool simulation.

package events

import (
	"shieldedpool/internal/codec"
)

// Encode renders the deposit record in wire form.
func (e *Deposit) Encode() []byte {
	enc := codec.NewEncoder()
	enc.WriteFixed(DepositV2Discriminator[:])
	enc.WriteU64(e.Epoch)
	enc.WriteBytes32(e.Pool)
	enc.WriteBytes32(e.Commitment)
	enc.WriteU64(uint64(e.LeafIndex))
	enc.WriteBytes32(e.NewRoot)
	enc.WriteBytes(e.EncryptedNote)
	return enc.Bytes()
}

// Encode renders the withdraw record in wire form.
func (e *Withdraw) Encode() []byte {
	enc := codec.NewEncoder()
	enc.WriteFixed(WithdrawV2Discriminator[:])
	enc.WriteU64(e.Epoch)
	enc.WriteBytes32(e.Pool)
	enc.WriteBytes32(e.Nullifier)
	enc.WriteU64(e.Amount)
	enc.WriteBytes32(e.Recipient)
	return enc.Bytes()
}

// Encode renders the transfer record in wire form.
func (e *Transfer) Encode() []byte {
	enc := codec.NewEncoder()
	enc.WriteFixed(TransferV2Discriminator[:])
	enc.WriteU64(e.OutputEpoch)
	enc.WriteBytes32(e.Pool)
	enc.WriteBytes32Vec(e.Nullifiers)
	enc.WriteU64Vec(e.InputEpochs)
	enc.WriteBytes32Vec(e.Commitments)
	indices := make([]uint64, len(e.LeafIndices))
	for i, idx := range e.LeafIndices {
		indices[i] = uint64(idx)
	}
	enc.WriteU64Vec(indices)
	enc.WriteBytesVec(e.EncryptedNotes)
	return enc.Bytes()
}

// Encode renders the renew record in wire form.
func (e *Renew) Encode() []byte {
	enc := codec.NewEncoder()
	enc.WriteFixed(RenewV2Discriminator[:])
	enc.WriteU64(e.SourceEpoch)
	enc.WriteU64(e.TargetEpoch)
	enc.WriteBytes32(e.Pool)
	enc.WriteBytes32(e.Nullifier)
	enc.WriteBytes32(e.Commitment)
	enc.WriteU64(uint64(e.LeafIndex))
	enc.WriteBytes(e.EncryptedNote)
	return enc.Bytes()
}

// Encode renders the rollover record in wire form.
func (e *EpochRollover) Encode() []byte {
	enc := codec.NewEncoder()
	enc.WriteFixed(EpochRolloverDiscriminator[:])
	enc.WriteU64(e.PreviousEpoch)
	enc.WriteU64(e.NewEpoch)
	enc.WriteBytes32(e.Pool)
	return enc.Bytes()
}

// Encode renders the finalization record in wire form.
func (e *EpochFinalized) Encode() []byte {
	enc := codec.NewEncoder()
	enc.WriteFixed(EpochFinalizedDiscriminator[:])
	enc.WriteU64(e.Epoch)
	enc.WriteBytes32(e.Pool)
	enc.WriteBytes32(e.MerkleRoot)
	return enc.Bytes()
}
