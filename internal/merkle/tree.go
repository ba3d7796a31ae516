// tree.go - Epoch-partitioned append-only Merkle tree, depth 12.
//
// Each epoch owns one tree of up to 4096 commitment leaves. Node hashing is
// the width-3 Poseidon of (left, right); missing right siblings are padded
// with the zero hash of their level. The zero hashes and the empty-tree root
// are process-scoped read-only constants that must match the ledger.

package merkle

import (
	"errors"
	"fmt"

	"shieldedpool/internal/poseidon"
)

// Tree geometry.
const (
	Depth     = 12
	MaxLeaves = 1 << Depth
)

var (
	// ErrEpochNotActive is returned when inserting into a frozen or
	// finalized tree.
	ErrEpochNotActive = errors.New("merkle: epoch not active")
	// ErrTreeFull is returned when the epoch already holds 4096 leaves.
	ErrTreeFull = errors.New("merkle: tree full")
	// ErrLeafNotFound is returned when proving an index with no leaf.
	ErrLeafNotFound = errors.New("merkle: leaf not found at index")
)

// State is the epoch lifecycle position.
type State int

const (
	Active State = iota
	Frozen
	Finalized
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Frozen:
		return "frozen"
	case Finalized:
		return "finalized"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// zeroHashes[i] is the root of an empty subtree of height i:
// zeroHashes[0] = 0, zeroHashes[i] = H(zeroHashes[i-1], zeroHashes[i-1]).
var zeroHashes [Depth + 1][32]byte

func init() {
	for i := 1; i <= Depth; i++ {
		zeroHashes[i] = poseidon.HashPair(zeroHashes[i-1], zeroHashes[i-1])
	}
}

// ZeroHash returns the empty-subtree constant for a level in 0..12.
func ZeroHash(level int) [32]byte {
	return zeroHashes[level]
}

// EmptyRoot returns the root of a tree with no leaves.
func EmptyRoot() [32]byte {
	return zeroHashes[Depth]
}

// Proof is a self-describing Merkle inclusion proof.
type Proof struct {
	Leaf      [32]byte
	LeafIndex uint32
	Epoch     uint64
	Siblings  [Depth][32]byte
	Root      [32]byte
}

// VerifyProof walks the proof bottom-up, ordering each pair by the index bit
// at that level, and reports whether the recomputed root matches.
func VerifyProof(p *Proof) bool {
	current := p.Leaf
	for level := 0; level < Depth; level++ {
		sibling := p.Siblings[level]
		if p.LeafIndex>>level&1 == 0 {
			current = poseidon.HashPair(current, sibling)
		} else {
			current = poseidon.HashPair(sibling, current)
		}
	}
	return current == p.Root
}

// EpochTree is one epoch's append-only commitment tree.
type EpochTree struct {
	epoch       uint64
	state       State
	leaves      [][32]byte
	rootHistory [][32]byte
	finalRoot   *[32]byte
}

// NewEpochTree creates an empty active tree for an epoch.
func NewEpochTree(epoch uint64) *EpochTree {
	return &EpochTree{epoch: epoch}
}

// Epoch returns the epoch this tree belongs to.
func (t *EpochTree) Epoch() uint64 {
	return t.epoch
}

// State returns the lifecycle state.
func (t *EpochTree) State() State {
	return t.state
}

// NextIndex returns the position the next insert would take; it is also the
// total order sequence number of inserts.
func (t *EpochTree) NextIndex() uint32 {
	return uint32(len(t.leaves))
}

// LeafAt returns the leaf stored at an index.
func (t *EpochTree) LeafAt(index uint32) ([32]byte, error) {
	if int(index) >= len(t.leaves) {
		return [32]byte{}, ErrLeafNotFound
	}
	return t.leaves[index], nil
}

// Freeze stops accepting inserts; the rollover transition.
func (t *EpochTree) Freeze() {
	if t.state == Active {
		t.state = Frozen
	}
}

// SetFinalRoot installs the on-chain final root and finalizes the tree.
// Subsequent inserts fail.
func (t *EpochTree) SetFinalRoot(root [32]byte) {
	r := root
	t.finalRoot = &r
	t.state = Finalized
}

// Insert appends a leaf, recomputes the root and records it in the history.
func (t *EpochTree) Insert(leaf [32]byte) (uint32, [32]byte, error) {
	if t.state != Active {
		return 0, [32]byte{}, ErrEpochNotActive
	}
	if len(t.leaves) >= MaxLeaves {
		return 0, [32]byte{}, ErrTreeFull
	}
	index := uint32(len(t.leaves))
	t.leaves = append(t.leaves, leaf)
	root := t.recompute()
	t.rootHistory = append(t.rootHistory, root)
	return index, root, nil
}

// InsertMany appends leaves in order and recomputes the root once at the
// end. The intermediate roots are not part of the history.
func (t *EpochTree) InsertMany(leaves [][32]byte) ([32]byte, error) {
	if t.state != Active {
		return [32]byte{}, ErrEpochNotActive
	}
	if len(t.leaves)+len(leaves) > MaxLeaves {
		return [32]byte{}, ErrTreeFull
	}
	if len(leaves) == 0 {
		return t.Root(), nil
	}
	t.leaves = append(t.leaves, leaves...)
	root := t.recompute()
	t.rootHistory = append(t.rootHistory, root)
	return root, nil
}

// recompute rebuilds the tree level by level, pairing nodes and padding
// missing right siblings with the level's zero hash. O(N log N) with
// N <= 4096; identical roots to a frontier implementation.
func (t *EpochTree) recompute() [32]byte {
	level := make([][32]byte, len(t.leaves))
	copy(level, t.leaves)
	for h := 0; h < Depth; h++ {
		next := make([][32]byte, (len(level)+1)/2)
		for i := range next {
			left := level[2*i]
			right := zeroHashes[h]
			if 2*i+1 < len(level) {
				right = level[2*i+1]
			}
			next[i] = poseidon.HashPair(left, right)
		}
		if len(next) == 0 {
			next = [][32]byte{zeroHashes[h+1]}
		}
		level = next
	}
	return level[0]
}

// Root returns the final root if set, else the latest history entry, else
// the empty-tree constant.
func (t *EpochTree) Root() [32]byte {
	if t.finalRoot != nil {
		return *t.finalRoot
	}
	if n := len(t.rootHistory); n > 0 {
		return t.rootHistory[n-1]
	}
	return EmptyRoot()
}

// IsKnownRoot reports whether r was ever emitted by this tree or installed
// as its final root. Withdrawal flows verify proofs against historic roots.
func (t *EpochTree) IsKnownRoot(r [32]byte) bool {
	if t.finalRoot != nil && *t.finalRoot == r {
		return true
	}
	for _, h := range t.rootHistory {
		if h == r {
			return true
		}
	}
	return false
}

// RootHistory returns every root emitted by inserts, oldest first.
func (t *EpochTree) RootHistory() [][32]byte {
	return t.rootHistory
}

// Proof builds the inclusion proof for a leaf index, padding absent
// positions with the zero hash of each level.
func (t *EpochTree) Proof(index uint32) (*Proof, error) {
	if int(index) >= len(t.leaves) {
		return nil, ErrLeafNotFound
	}
	p := &Proof{
		Leaf:      t.leaves[index],
		LeafIndex: index,
		Epoch:     t.epoch,
		Root:      t.Root(),
	}
	level := make([][32]byte, len(t.leaves))
	copy(level, t.leaves)
	pos := index
	for h := 0; h < Depth; h++ {
		sibling := pos ^ 1
		if int(sibling) < len(level) {
			p.Siblings[h] = level[sibling]
		} else {
			p.Siblings[h] = zeroHashes[h]
		}
		next := make([][32]byte, (len(level)+1)/2)
		for i := range next {
			left := level[2*i]
			right := zeroHashes[h]
			if 2*i+1 < len(level) {
				right = level[2*i+1]
			}
			next[i] = poseidon.HashPair(left, right)
		}
		level = next
		pos >>= 1
	}
	return p, nil
}
