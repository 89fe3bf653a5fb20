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

package cbor_test

import (
	"encoding/hex"
	"testing"

	"github.com/blinklabs-io/zklicense/cbor"
)

type encodeTestDefinition struct {
	CborHex string
	Object  any
}

type testArrayStruct struct {
	cbor.StructAsArray
	Num   uint64
	Bytes [4]byte
}

var encodeTests = []encodeTestDefinition{
	// Simple list of numbers
	{
		CborHex: "83010203",
		Object:  []any{1, 2, 3},
	},
	// Map keys are sorted
	{
		CborHex: "a2616101616202",
		Object:  map[string]int{"b": 2, "a": 1},
	},
	// Struct as array, fixed-size byte array as bytestring
	{
		CborHex: "82074401020304",
		Object: testArrayStruct{
			Num:   7,
			Bytes: [4]byte{1, 2, 3, 4},
		},
	},
}

func TestEncode(t *testing.T) {
	for _, test := range encodeTests {
		cborData, err := cbor.Encode(test.Object)
		if err != nil {
			t.Fatalf("failed to encode object to CBOR: %s", err)
		}
		cborHex := hex.EncodeToString(cborData)
		if cborHex != test.CborHex {
			t.Fatalf(
				"object did not encode to expected CBOR\n  got: %s\n  wanted: %s",
				cborHex,
				test.CborHex,
			)
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	obj := map[string]any{"z": []byte{1}, "a": uint64(5), "m": "x"}
	first, err := cbor.Encode(obj)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	for range 10 {
		next, err := cbor.Encode(obj)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if hex.EncodeToString(next) != hex.EncodeToString(first) {
			t.Fatalf("encoding is not deterministic: %x != %x", next, first)
		}
	}
}
