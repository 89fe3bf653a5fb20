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

// IssueLicenseArgs are the arguments of the issue-license call. Position is the tree
// position the LP expects the license to land at and Hash the content hash of the
// request being answered
type IssueLicenseArgs struct {
	cbor.StructAsArray
	License  *License
	Position uint64
	Request  Blake2b256
}

// UseLicenseArgs are the arguments of the use-license call
type UseLicenseArgs struct {
	cbor.StructAsArray
	PublicInputs PublicInputs
	Proof        []byte
}

// GetLicensesArgs select the half-open position range [From, To) of a license stream
type GetLicensesArgs struct {
	cbor.StructAsArray
	From uint64
	To   uint64
}

// GetInfoArgs are the (empty) arguments of get-info
type GetInfoArgs struct {
	cbor.StructAsArray
}
