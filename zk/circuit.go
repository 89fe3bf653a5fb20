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
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// SessionCircuit proves knowledge of a license secret whose commitment is a leaf of the
// license tree under Root, that SessionID was derived from that secret and Challenge,
// and that the committed attribute is Attribute
type SessionCircuit struct {
	Root      frontend.Variable `gnark:",public"`
	SessionID frontend.Variable `gnark:",public"`
	Challenge frontend.Variable `gnark:",public"`
	Attribute frontend.Variable `gnark:",public"`

	Secret   frontend.Variable
	Siblings [TreeDepth]frontend.Variable
	PathBits [TreeDepth]frontend.Variable
}

// Define implements the frontend.Circuit interface
func (c *SessionCircuit) Define(api frontend.API) error {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	// Session identifier
	h.Write(c.Secret, c.Challenge)
	api.AssertIsEqual(h.Sum(), c.SessionID)
	// License commitment is the leaf
	h.Reset()
	h.Write(c.Secret, c.Attribute)
	node := h.Sum()
	// Walk up to the root
	for i := range TreeDepth {
		api.AssertIsBoolean(c.PathBits[i])
		left := api.Select(c.PathBits[i], c.Siblings[i], node)
		right := api.Select(c.PathBits[i], node, c.Siblings[i])
		h.Reset()
		h.Write(left, right)
		node = h.Sum()
	}
	api.AssertIsEqual(node, c.Root)
	return nil
}
