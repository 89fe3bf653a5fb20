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
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/blinklabs-io/zklicense/cbor"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/blinklabs-io/zklicense/zk"
	"golang.org/x/crypto/blake2b"
)

const Blake2b256Size = 32

// Blake2b256 is a content hash over the canonical encoding of a payload
type Blake2b256 [Blake2b256Size]byte

// FieldElement is a BN254 scalar field element, as used by commitments, roots and session IDs
type FieldElement = zk.Element

func NewBlake2b256(data []byte) Blake2b256 {
	b := Blake2b256{}
	copy(b[:], data)
	return b
}

// ParseBlake2b256 decodes a hex encoded hash
func ParseBlake2b256(s string) (Blake2b256, error) {
	var ret Blake2b256
	if err := decodeFixedHex(s, ret[:]); err != nil {
		return ret, protocol.NewValidationError("parse hash", "%w", err)
	}
	return ret, nil
}

func (b Blake2b256) String() string {
	return hex.EncodeToString(b[:])
}

func (b Blake2b256) Bytes() []byte {
	return b[:]
}

func (b Blake2b256) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b Blake2b256) MarshalCBOR() ([]byte, error) {
	// Ensure we always encode a full-sized bytestring, even if the hash is zero-valued
	hashBytes := make([]byte, Blake2b256Size)
	copy(hashBytes, b[:])
	return cbor.Encode(hashBytes)
}

// Blake2b256Hash generates a Blake2b-256 hash from the provided data
func Blake2b256Hash(data []byte) Blake2b256 {
	tmpHash, err := blake2b.New(Blake2b256Size, nil)
	if err != nil {
		panic(
			fmt.Sprintf(
				"unexpected error generating empty blake2b hash: %s",
				err,
			),
		)
	}
	tmpHash.Write(data)
	return Blake2b256(tmpHash.Sum(nil))
}
