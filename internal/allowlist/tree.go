// Package allowlist builds Merkle inclusion proofs for presale allowlists.
//
// The tree matches what the collection contracts verify on chain and what
// merkletreejs produces with {hashLeaves: true, sortPairs: true}:
//
//   - leaf = keccak256(address bytes)
//   - parent = keccak256(min(a, b) || max(a, b))
//   - an odd node at the end of a layer is promoted unchanged
package allowlist

import (
	"bytes"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Proof is the inclusion proof of one address.
type Proof struct {
	Leaf common.Hash
	Path []common.Hash
}

// Tree is an immutable Merkle tree over an allowlist.
type Tree struct {
	layers [][]common.Hash
	index  map[common.Hash]int
}

// New builds the tree for the given allowlist entries. An empty list yields a
// tree with an empty root that verifies nothing.
func New(entries []string) *Tree {
	leaves := make([]common.Hash, len(entries))
	index := make(map[common.Hash]int, len(entries))
	for i, e := range entries {
		leaves[i] = Leaf(e)
		if _, seen := index[leaves[i]]; !seen {
			index[leaves[i]] = i
		}
	}

	t := &Tree{index: index, layers: [][]common.Hash{leaves}}
	for layer := leaves; len(layer) > 1; {
		next := make([]common.Hash, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			if i+1 == len(layer) {
				next = append(next, layer[i])
				continue
			}
			next = append(next, hashPair(layer[i], layer[i+1]))
		}
		t.layers = append(t.layers, next)
		layer = next
	}
	return t
}

// Leaf hashes one allowlist entry. Hex addresses hash their 20 raw bytes; any
// other string hashes its UTF-8 bytes.
func Leaf(entry string) common.Hash {
	entry = strings.TrimSpace(entry)
	if common.IsHexAddress(entry) {
		return keccak(common.HexToAddress(entry).Bytes())
	}
	return keccak([]byte(entry))
}

// Root returns the root digest. ok is false for an empty tree.
func (t *Tree) Root() (root common.Hash, ok bool) {
	top := t.layers[len(t.layers)-1]
	if len(top) == 0 {
		return common.Hash{}, false
	}
	return top[0], true
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.layers[0])
}

// ProofFor returns the proof for address. An address that is not in the tree
// gets its leaf and an empty path, which does not verify.
func (t *Tree) ProofFor(address string) Proof {
	leaf := Leaf(address)
	p := Proof{Leaf: leaf, Path: []common.Hash{}}

	idx, ok := t.index[leaf]
	if !ok {
		return p
	}
	for _, layer := range t.layers[:len(t.layers)-1] {
		pair := idx + 1
		if idx%2 == 1 {
			pair = idx - 1
		}
		if pair < len(layer) {
			p.Path = append(p.Path, layer[pair])
		}
		idx /= 2
	}
	return p
}

// Verify checks proof against the tree root. Always false for an empty tree.
func (t *Tree) Verify(proof Proof) bool {
	root, ok := t.Root()
	if !ok {
		return false
	}
	return VerifyProof(root, proof)
}

// Contains reports whether address is provably on the allowlist.
func (t *Tree) Contains(address string) bool {
	return t.Verify(t.ProofFor(address))
}

// VerifyProof folds proof.Path onto proof.Leaf and compares with root.
func VerifyProof(root common.Hash, proof Proof) bool {
	h := proof.Leaf
	for _, sibling := range proof.Path {
		h = hashPair(h, sibling)
	}
	return h == root
}

// PathBytes returns the proof path as the bytes32[] argument contracts expect.
func (p Proof) PathBytes() [][32]byte {
	out := make([][32]byte, len(p.Path))
	for i, h := range p.Path {
		out[i] = h
	}
	return out
}

// HexPath returns the proof path as 0x-prefixed hex strings.
func (p Proof) HexPath() []string {
	out := make([]string, len(p.Path))
	for i, h := range p.Path {
		out[i] = h.Hex()
	}
	return out
}

func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return keccak(a[:], b[:])
}

func keccak(data ...[]byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out common.Hash
	h.Sum(out[:0])
	return out
}
