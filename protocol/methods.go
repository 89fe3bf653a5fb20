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

package protocol

// Contract methods consumed by the engine
const (
	MethodRequestLicense   = "request_license"
	MethodIssueLicense     = "issue_license"
	MethodUseLicense       = "use_license"
	MethodGetLicenses      = "get_licenses"
	MethodGetMerkleOpening = "get_merkle_opening"
	MethodGetSession       = "get_session"
	MethodGetInfo          = "get_info"
)

// DefaultScanWindow is the number of blocks fetched per scanner window
const DefaultScanWindow = 10000
