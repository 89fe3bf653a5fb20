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

package ledger

import (
	"github.com/blinklabs-io/zklicense/cbor"
	"github.com/blinklabs-io/zklicense/zk"
)

// Opening is the Merkle inclusion proof of the license at Position, as served by the
// get-merkle-opening query. It is never persisted
type Opening struct {
	cbor.StructAsArray
	Position uint64
	Root     FieldElement
	Siblings [zk.TreeDepth]FieldElement
}

func NewOpening(path zk.Path) *Opening {
	return &Opening{
		Position: path.Position,
		Root:     path.Root,
		Siblings: path.Siblings,
	}
}

func (o *Opening) Path() zk.Path {
	return zk.Path{
		Position: o.Position,
		Root:     o.Root,
		Siblings: o.Siblings,
	}
}

// Verify checks that the commitment is the leaf at the opening's position under its root
func (o *Opening) Verify(commitment FieldElement) bool {
	return zk.VerifyPath(commitment, o.Path())
}
