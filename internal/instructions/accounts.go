// accounts.go - Fixed account vectors for the user-facing operations.
//
// The on-chain program expects each operation's accounts in a fixed order;
// the builders here derive every pool address from its seeds so callers only
// supply the identities they actually own.

package instructions

import "fmt"

// SystemProgramID is the ledger's native system program.
var SystemProgramID [32]byte

// DepositAccounts assembles the depositV2 account vector:
// payer (signer, writable), poolConfig (writable), epochTree (writable),
// leafChunk (writable), vault (writable), vaultAuthority, payerTokenAccount
// (writable), systemProgram.
func DepositAccounts(payer, payerToken, mint, programID [32]byte, epoch uint64, leafIndex uint32) ([]AccountMeta, error) {
	poolConfig, _, err := PoolConfigAddress(mint, programID)
	if err != nil {
		return nil, fmt.Errorf("pool config: %w", err)
	}
	epochTree, _, err := EpochTreeAddress(poolConfig, epoch, programID)
	if err != nil {
		return nil, fmt.Errorf("epoch tree: %w", err)
	}
	leafChunk, _, err := LeafChunkAddress(poolConfig, epoch, ChunkIndex(leafIndex), programID)
	if err != nil {
		return nil, fmt.Errorf("leaf chunk: %w", err)
	}
	vault, _, err := VaultAddress(poolConfig, programID)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	vaultAuthority, _, err := VaultAuthorityAddress(poolConfig, programID)
	if err != nil {
		return nil, fmt.Errorf("vault authority: %w", err)
	}
	return []AccountMeta{
		{PublicKey: payer, IsSigner: true, IsWritable: true},
		{PublicKey: poolConfig, IsWritable: true},
		{PublicKey: epochTree, IsWritable: true},
		{PublicKey: leafChunk, IsWritable: true},
		{PublicKey: vault, IsWritable: true},
		{PublicKey: vaultAuthority},
		{PublicKey: payerToken, IsWritable: true},
		{PublicKey: SystemProgramID},
	}, nil
}

// WithdrawAccounts assembles the withdrawV2 account vector:
// payer (signer, writable), poolConfig (writable), epochTree,
// nullifierMarker (writable), vault (writable), vaultAuthority,
// recipientTokenAccount (writable), verifierConfig, systemProgram.
func WithdrawAccounts(payer, recipientToken, mint, nullifier, programID [32]byte, epoch uint64) ([]AccountMeta, error) {
	poolConfig, _, err := PoolConfigAddress(mint, programID)
	if err != nil {
		return nil, fmt.Errorf("pool config: %w", err)
	}
	epochTree, _, err := EpochTreeAddress(poolConfig, epoch, programID)
	if err != nil {
		return nil, fmt.Errorf("epoch tree: %w", err)
	}
	marker, _, err := NullifierMarkerAddress(poolConfig, nullifier, programID)
	if err != nil {
		return nil, fmt.Errorf("nullifier marker: %w", err)
	}
	vault, _, err := VaultAddress(poolConfig, programID)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	vaultAuthority, _, err := VaultAuthorityAddress(poolConfig, programID)
	if err != nil {
		return nil, fmt.Errorf("vault authority: %w", err)
	}
	verifier, _, err := VerifierConfigAddress(poolConfig, "withdraw", programID)
	if err != nil {
		return nil, fmt.Errorf("verifier config: %w", err)
	}
	return []AccountMeta{
		{PublicKey: payer, IsSigner: true, IsWritable: true},
		{PublicKey: poolConfig, IsWritable: true},
		{PublicKey: epochTree},
		{PublicKey: marker, IsWritable: true},
		{PublicKey: vault, IsWritable: true},
		{PublicKey: vaultAuthority},
		{PublicKey: recipientToken, IsWritable: true},
		{PublicKey: verifier},
		{PublicKey: SystemProgramID},
	}, nil
}

// TransferAccounts assembles the transferV2 account vector:
// payer (signer, writable), poolConfig (writable), outputEpochTree
// (writable), outputLeafChunk (writable), nullifierMarkerA (writable),
// nullifierMarkerB (writable), verifierConfig, systemProgram.
func TransferAccounts(payer, mint, nullifierA, nullifierB, programID [32]byte, outputEpoch uint64, nextLeafIndex uint32) ([]AccountMeta, error) {
	poolConfig, _, err := PoolConfigAddress(mint, programID)
	if err != nil {
		return nil, fmt.Errorf("pool config: %w", err)
	}
	epochTree, _, err := EpochTreeAddress(poolConfig, outputEpoch, programID)
	if err != nil {
		return nil, fmt.Errorf("epoch tree: %w", err)
	}
	leafChunk, _, err := LeafChunkAddress(poolConfig, outputEpoch, ChunkIndex(nextLeafIndex), programID)
	if err != nil {
		return nil, fmt.Errorf("leaf chunk: %w", err)
	}
	markerA, _, err := NullifierMarkerAddress(poolConfig, nullifierA, programID)
	if err != nil {
		return nil, fmt.Errorf("nullifier marker: %w", err)
	}
	markerB, _, err := NullifierMarkerAddress(poolConfig, nullifierB, programID)
	if err != nil {
		return nil, fmt.Errorf("nullifier marker: %w", err)
	}
	verifier, _, err := VerifierConfigAddress(poolConfig, "transfer", programID)
	if err != nil {
		return nil, fmt.Errorf("verifier config: %w", err)
	}
	return []AccountMeta{
		{PublicKey: payer, IsSigner: true, IsWritable: true},
		{PublicKey: poolConfig, IsWritable: true},
		{PublicKey: epochTree, IsWritable: true},
		{PublicKey: leafChunk, IsWritable: true},
		{PublicKey: markerA, IsWritable: true},
		{PublicKey: markerB, IsWritable: true},
		{PublicKey: verifier},
		{PublicKey: SystemProgramID},
	}, nil
}

// RenewAccounts assembles the renewNote account vector:
// payer (signer, writable), poolConfig (writable), sourceEpochTree,
// targetEpochTree (writable), targetLeafChunk (writable), nullifierMarker
// (writable), verifierConfig, systemProgram.
func RenewAccounts(payer, mint, nullifier, programID [32]byte, sourceEpoch, targetEpoch uint64, nextLeafIndex uint32) ([]AccountMeta, error) {
	poolConfig, _, err := PoolConfigAddress(mint, programID)
	if err != nil {
		return nil, fmt.Errorf("pool config: %w", err)
	}
	sourceTree, _, err := EpochTreeAddress(poolConfig, sourceEpoch, programID)
	if err != nil {
		return nil, fmt.Errorf("source epoch tree: %w", err)
	}
	targetTree, _, err := EpochTreeAddress(poolConfig, targetEpoch, programID)
	if err != nil {
		return nil, fmt.Errorf("target epoch tree: %w", err)
	}
	leafChunk, _, err := LeafChunkAddress(poolConfig, targetEpoch, ChunkIndex(nextLeafIndex), programID)
	if err != nil {
		return nil, fmt.Errorf("leaf chunk: %w", err)
	}
	marker, _, err := NullifierMarkerAddress(poolConfig, nullifier, programID)
	if err != nil {
		return nil, fmt.Errorf("nullifier marker: %w", err)
	}
	verifier, _, err := VerifierConfigAddress(poolConfig, "renew", programID)
	if err != nil {
		return nil, fmt.Errorf("verifier config: %w", err)
	}
	return []AccountMeta{
		{PublicKey: payer, IsSigner: true, IsWritable: true},
		{PublicKey: poolConfig, IsWritable: true},
		{PublicKey: sourceTree},
		{PublicKey: targetTree, IsWritable: true},
		{PublicKey: leafChunk, IsWritable: true},
		{PublicKey: marker, IsWritable: true},
		{PublicKey: verifier},
		{PublicKey: SystemProgramID},
	}, nil
}
