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
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"golang.org/x/crypto/blake2b"
)

// ElementSize is the size of a canonical big-endian BN254 scalar field element
const ElementSize = fr.Bytes

// Element is a BN254 scalar field element in canonical big-endian form
type Element [ElementSize]byte

// ElementFromUint64 returns the field element for v
func ElementFromUint64(v uint64) Element {
	var e fr.Element
	e.SetUint64(v)
	return Element(e.Bytes())
}

// ParseElement decodes a hex string into a canonical field element
func ParseElement(s string) (Element, error) {
	var ret Element
	data, err := hex.DecodeString(s)
	if err != nil {
		return ret, fmt.Errorf("decode hex: %w", err)
	}
	if len(data) != ElementSize {
		return ret, fmt.Errorf("field element must be %d bytes, got %d", ElementSize, len(data))
	}
	copy(ret[:], data)
	if !ret.Valid() {
		return ret, fmt.Errorf("value is not a canonical field element")
	}
	return ret, nil
}

// RandomElement draws a uniformly distributed field element from the entropy source
func RandomElement(rand io.Reader) (Element, error) {
	// 64 bytes reduced modulo the field order keeps the bias negligible
	var buf [64]byte
	if _, err := io.ReadFull(rand, buf[:]); err != nil {
		return Element{}, err
	}
	return reduce(buf[:]), nil
}

// HashToElement hashes arbitrary data into the field
func HashToElement(data ...[]byte) Element {
	h, err := blake2b.New512(nil)
	if err != nil {
		panic(fmt.Sprintf("unexpected error generating empty blake2b hash: %s", err))
	}
	for _, d := range data {
		h.Write(d)
	}
	return reduce(h.Sum(nil))
}

// Hash is the two-to-one MiMC hash used by the session circuit and the license tree.
// Both inputs must be canonical field elements
func Hash(left Element, right Element) Element {
	h := mimc.NewMiMC()
	if _, err := h.Write(left[:]); err != nil {
		panic(fmt.Sprintf("unexpected error hashing field element: %s", err))
	}
	if _, err := h.Write(right[:]); err != nil {
		panic(fmt.Sprintf("unexpected error hashing field element: %s", err))
	}
	return Element(h.Sum(nil))
}

// Commitment is the tree leaf for a license: H(secret, attribute)
func Commitment(secret Element, attribute Element) Element {
	return Hash(secret, attribute)
}

// SessionID is the deterministic session identifier: H(secret, challenge)
func SessionID(secret Element, challenge Element) Element {
	return Hash(secret, challenge)
}

// Valid reports whether the element is canonical (strictly below the field order)
func (e Element) Valid() bool {
	var tmp fr.Element
	return tmp.SetBytesCanonical(e[:]) == nil
}

// BigInt returns the element as an integer
func (e Element) BigInt() *big.Int {
	return new(big.Int).SetBytes(e[:])
}

func (e Element) String() string {
	return hex.EncodeToString(e[:])
}

// MarshalText implements encoding.TextMarshaler
func (e Element) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (e *Element) UnmarshalText(text []byte) error {
	tmp, err := ParseElement(string(text))
	if err != nil {
		return err
	}
	*e = tmp
	return nil
}

func reduce(data []byte) Element {
	var e fr.Element
	e.SetBytes(data)
	return Element(e.Bytes())
}
