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

// Package cbor is the canonical codec for every payload exchanged with the ledger.
//
// It wraps github.com/fxamacker/cbor/v2 with a cached deterministic encoder and a
// strict decoder (no duplicate map keys, no indefinite lengths, bounded nesting).
//
// # Decoding
//
//   - Decode: decodes the first item and reports how many bytes it used
//   - Wellformed: checks the bytes without producing a value
//   - DecodeExact: Wellformed followed by a decode that rejects trailing data
//
// Payloads received from the network should go through DecodeExact so that a
// corrupt payload is rejected before any owned value is built.
//
// # Preserving original bytes
//
// Types whose content hash matters embed DecodeStoreCbor:
//
//	type MyType struct {
//	    cbor.StructAsArray
//	    cbor.DecodeStoreCbor
//	    Field1 [32]byte
//	}
//
//	func (m *MyType) UnmarshalCBOR(data []byte) error {
//	    if err := cbor.DecodeGeneric(data, m); err != nil {
//	        return err
//	    }
//	    m.SetCbor(data)
//	    return nil
//	}
//
// Hashes are then computed over m.Cbor(), never over a re-encoding.
package cbor
