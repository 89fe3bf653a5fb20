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

package zk_test

import (
	"crypto/rand"
	"strings"
	"testing"

	"github.com/blinklabs-io/zklicense/zk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementParse(t *testing.T) {
	e := zk.ElementFromUint64(258)
	parsed, err := zk.ParseElement(e.String())
	require.NoError(t, err)
	assert.Equal(t, e, parsed)
	assert.Equal(t, uint64(258), parsed.BigInt().Uint64())

	// The field order itself is not canonical
	_, err = zk.ParseElement(
		"30644e72e131a029b85045b68181585d2833e84879b9709143e1f593f0000001",
	)
	assert.Error(t, err)
	_, err = zk.ParseElement(strings.Repeat("00", 31))
	assert.Error(t, err)
}

func TestHashToElementCanonical(t *testing.T) {
	for i := range 32 {
		e := zk.HashToElement([]byte{byte(i)})
		assert.True(t, e.Valid())
	}
	assert.Equal(t, zk.HashToElement([]byte("a")), zk.HashToElement([]byte("a")))
	assert.NotEqual(t, zk.HashToElement([]byte("a")), zk.HashToElement([]byte("b")))
}

func TestHashOrderMatters(t *testing.T) {
	a, b := zk.ElementFromUint64(1), zk.ElementFromUint64(2)
	assert.NotEqual(t, zk.Hash(a, b), zk.Hash(b, a))
	assert.True(t, zk.Hash(a, b).Valid())
}

func TestTreePaths(t *testing.T) {
	tree := zk.NewTree()
	emptyRoot := tree.Root()
	var leaves []zk.Element
	for range 7 {
		leaf, err := zk.RandomElement(rand.Reader)
		require.NoError(t, err)
		pos, err := tree.Append(leaf)
		require.NoError(t, err)
		assert.Equal(t, uint64(len(leaves)), pos)
		leaves = append(leaves, leaf)
	}
	assert.NotEqual(t, emptyRoot, tree.Root())
	assert.Equal(t, uint64(7), tree.Len())
	for i, leaf := range leaves {
		path, err := tree.Path(uint64(i))
		require.NoError(t, err)
		assert.Equal(t, tree.Root(), path.Root)
		assert.True(t, zk.VerifyPath(leaf, path), "leaf %d", i)
		// A valid path does not open any other leaf
		other := leaves[(i+1)%len(leaves)]
		assert.False(t, zk.VerifyPath(other, path), "leaf %d", i)
	}
	_, err := tree.Path(7)
	assert.Error(t, err)
}

func TestTreeSingleLeaf(t *testing.T) {
	tree := zk.NewTree()
	leaf := zk.ElementFromUint64(5)
	_, err := tree.Append(leaf)
	require.NoError(t, err)
	path, err := tree.Path(0)
	require.NoError(t, err)
	assert.True(t, zk.VerifyPath(leaf, path))
	path.Position = zk.TreeCapacity
	assert.False(t, zk.VerifyPath(leaf, path))
}
