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
)

// Info summarizes the license contract state, as returned by get-info
type Info struct {
	cbor.StructAsArray
	Requests   uint64
	Licenses   uint64
	Sessions   uint64
	TreeLength uint64
	Root       FieldElement
}
