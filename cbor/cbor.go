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

package cbor

import (
	_cbor "github.com/fxamacker/cbor/v2"
)

const (
	CborTypeByteString uint8 = 0x40
	CborTypeArray      uint8 = 0x80
	CborTypeMap        uint8 = 0xa0

	// Only the top 3 bits are used to specify the type
	CborTypeMask uint8 = 0xe0

	// The encoding of a CBOR null value
	CborNull uint8 = 0xf6
)

// Create an alias for RawMessage for convenience
type RawMessage = _cbor.RawMessage

// Useful for embedding and easier to remember
type StructAsArray struct {
	// Tells the CBOR decoder to convert to/from a struct and a CBOR array
	_ struct{} `cbor:",toarray"`
}

type DecodeStoreCborInterface interface {
	Cbor() []byte
	SetCbor([]byte)
}

// DecodeStoreCbor can be embedded in a type to keep the original CBOR it was decoded from.
// Content hashes are always computed over these bytes rather than a re-encoding
type DecodeStoreCbor struct {
	cborData []byte
}

// Cbor returns the original CBOR for the object
func (d *DecodeStoreCbor) Cbor() []byte {
	return d.cborData
}

// SetCbor stores a copy of the provided CBOR data
func (d *DecodeStoreCbor) SetCbor(cborData []byte) {
	if cborData == nil {
		d.cborData = nil
		return
	}
	d.cborData = make([]byte, len(cborData))
	copy(d.cborData, cborData)
}

// IsNull returns whether the provided data is exactly the CBOR encoding of null
func IsNull(cborData []byte) bool {
	return len(cborData) == 1 && cborData[0] == CborNull
}
