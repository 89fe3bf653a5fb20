// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package zk

import (
	"fmt"
)

// TreeDepth is the depth of the license tree. It holds at most 2^TreeDepth licenses
const TreeDepth = 16

// TreeCapacity is the number of leaves in a full tree
const TreeCapacity = 1 << TreeDepth

var zeroHashes = computeZeroHashes()

func computeZeroHashes() [TreeDepth + 1]Element {
	var ret [TreeDepth + 1]Element
	for i := 1; i <= TreeDepth; i++ {
		ret[i] = Hash(ret[i-1], ret[i-1])
	}
	return ret
}

// Path is the inclusion proof of the leaf at Position under Root
type Path struct {
	Position uint64
	Siblings [TreeDepth]Element
	Root     Element
}

// VerifyPath recomputes the root from the leaf and the path siblings
func VerifyPath(leaf Element, path Path) bool {
	if path.Position >= TreeCapacity {
		return false
	}
	node := leaf
	for i := range TreeDepth {
		if (path.Position>>i)&1 == 1 {
			node = Hash(path.Siblings[i], node)
		} else {
			node = Hash(node, path.Siblings[i])
		}
	}
	return node == path.Root
}

// Tree is an append-only, position-indexed MiMC Merkle tree. Empty leaves are zero
type Tree struct {
	leaves []Element
}

// NewTree returns an empty tree
func NewTree() *Tree {
	return &Tree{}
}

// Len returns the number of appended leaves
func (t *Tree) Len() uint64 {
	return uint64(len(t.leaves))
}

// Append adds a leaf and returns its position
func (t *Tree) Append(leaf Element) (uint64, error) {
	if len(t.leaves) >= TreeCapacity {
		return 0, fmt.Errorf("tree is full (%d leaves)", TreeCapacity)
	}
	t.leaves = append(t.leaves, leaf)
	return uint64(len(t.leaves) - 1), nil
}

// Root returns the current tree root
func (t *Tree) Root() Element {
	level := t.leaves
	for depth := range TreeDepth {
		level = nextLevel(level, depth)
	}
	if len(level) == 0 {
		return zeroHashes[TreeDepth]
	}
	return level[0]
}

// Path returns the inclusion proof for the leaf at the position, against the current root
func (t *Tree) Path(position uint64) (Path, error) {
	if position >= t.Len() {
		return Path{}, fmt.Errorf("position %d is beyond the tree length %d", position, t.Len())
	}
	ret := Path{Position: position}
	level := t.leaves
	idx := position
	for depth := range TreeDepth {
		sibling := idx ^ 1
		if sibling < uint64(len(level)) {
			ret.Siblings[depth] = level[sibling]
		} else {
			ret.Siblings[depth] = zeroHashes[depth]
		}
		level = nextLevel(level, depth)
		idx >>= 1
	}
	ret.Root = level[0]
	return ret, nil
}

func nextLevel(level []Element, depth int) []Element {
	if len(level) == 0 {
		return level
	}
	ret := make([]Element, (len(level)+1)/2)
	for i := range ret {
		left := level[2*i]
		right := zeroHashes[depth]
		if 2*i+1 < len(level) {
			right = level[2*i+1]
		}
		ret[i] = Hash(left, right)
	}
	return ret
}
