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

package license

import (
	"github.com/blinklabs-io/zklicense/protocol"
)

// Role names
const (
	ROLE_USER     = "user"
	ROLE_PROVIDER = "provider"
	ROLE_SERVICE  = "service"
)

// Operations driving the role state machines
const (
	OP_SUBMIT_REQUEST  = "submit_request"
	OP_OBTAIN_LICENSE  = "obtain_license"
	OP_COMPUTE_PROOF   = "compute_proof"
	OP_USE_LICENSE     = "use_license"
	OP_REQUEST_SERVICE = "request_service"
	OP_SCAN            = "scan"
	OP_ISSUE           = "issue"
	OP_CONFIRM         = "confirm"
	OP_ABORT           = "abort"
	OP_LOOKUP          = "lookup"
	OP_VERIFY          = "verify"
	OP_REJECT          = "reject"
)

// User states
var (
	STATE_INIT                = protocol.NewState(1, "Init")
	STATE_REQUEST_SUBMITTED   = protocol.NewState(2, "RequestSubmitted")
	STATE_LICENSE_OBTAINED    = protocol.NewState(3, "LicenseObtained")
	STATE_PROOF_COMPUTED      = protocol.NewState(4, "ProofComputed")
	STATE_SESSION_ESTABLISHED = protocol.NewState(5, "SessionEstablished")
	STATE_SERVICE_GRANTED     = protocol.NewState(6, "ServiceGranted")
)

// LP and SP states
var (
	STATE_IDLE           = protocol.NewState(10, "Idle")
	STATE_SCANNING       = protocol.NewState(11, "Scanning")
	STATE_ISSUE_PENDING  = protocol.NewState(12, "IssuePending")
	STATE_LICENSE_ISSUED = protocol.NewState(13, "LicenseIssued")
	STATE_SESSION_LOOKUP = protocol.NewState(20, "SessionLookup")
	STATE_VERIFIED       = protocol.NewState(21, "Verified")
	STATE_REJECTED       = protocol.NewState(22, "Rejected")
)

// A license can be obtained from any state, since it may have been requested by an
// earlier process. Every later step needs the one before it
var userRestart = []protocol.StateTransition{
	{
		Op:       OP_SUBMIT_REQUEST,
		NewState: STATE_REQUEST_SUBMITTED,
	},
	{
		Op:       OP_OBTAIN_LICENSE,
		NewState: STATE_LICENSE_OBTAINED,
	},
}

var UserStateMap = protocol.StateMap{
	STATE_INIT: protocol.StateMapEntry{
		Transitions: userRestart,
	},
	STATE_REQUEST_SUBMITTED: protocol.StateMapEntry{
		Transitions: userRestart,
	},
	STATE_LICENSE_OBTAINED: protocol.StateMapEntry{
		Transitions: append(
			[]protocol.StateTransition{
				{
					Op:       OP_COMPUTE_PROOF,
					NewState: STATE_PROOF_COMPUTED,
				},
			},
			userRestart...,
		),
	},
	STATE_PROOF_COMPUTED: protocol.StateMapEntry{
		Transitions: append(
			[]protocol.StateTransition{
				{
					Op:       OP_COMPUTE_PROOF,
					NewState: STATE_PROOF_COMPUTED,
				},
				{
					Op:       OP_USE_LICENSE,
					NewState: STATE_SESSION_ESTABLISHED,
				},
			},
			userRestart...,
		),
	},
	STATE_SESSION_ESTABLISHED: protocol.StateMapEntry{
		Transitions: append(
			[]protocol.StateTransition{
				{
					Op:       OP_REQUEST_SERVICE,
					NewState: STATE_SERVICE_GRANTED,
				},
			},
			userRestart...,
		),
	},
	STATE_SERVICE_GRANTED: protocol.StateMapEntry{
		Transitions: append(
			[]protocol.StateTransition{
				{
					Op:       OP_REQUEST_SERVICE,
					NewState: STATE_SERVICE_GRANTED,
				},
			},
			userRestart...,
		),
	},
}

var ProviderStateMap = protocol.StateMap{
	STATE_IDLE: protocol.StateMapEntry{
		Transitions: []protocol.StateTransition{
			{
				Op:       OP_SCAN,
				NewState: STATE_SCANNING,
			},
		},
	},
	STATE_SCANNING: protocol.StateMapEntry{
		Transitions: []protocol.StateTransition{
			{
				Op:       OP_SCAN,
				NewState: STATE_SCANNING,
			},
			{
				Op:       OP_ISSUE,
				NewState: STATE_ISSUE_PENDING,
			},
		},
	},
	STATE_ISSUE_PENDING: protocol.StateMapEntry{
		Transitions: []protocol.StateTransition{
			{
				Op:       OP_CONFIRM,
				NewState: STATE_LICENSE_ISSUED,
			},
			{
				Op:       OP_ABORT,
				NewState: STATE_SCANNING,
			},
		},
	},
	STATE_LICENSE_ISSUED: protocol.StateMapEntry{
		Transitions: []protocol.StateTransition{
			{
				Op:       OP_SCAN,
				NewState: STATE_SCANNING,
			},
			{
				Op:       OP_ISSUE,
				NewState: STATE_ISSUE_PENDING,
			},
		},
	},
}

var serviceLookup = []protocol.StateTransition{
	{
		Op:       OP_LOOKUP,
		NewState: STATE_SESSION_LOOKUP,
	},
}

var ServiceStateMap = protocol.StateMap{
	STATE_IDLE: protocol.StateMapEntry{
		Transitions: serviceLookup,
	},
	STATE_SESSION_LOOKUP: protocol.StateMapEntry{
		Transitions: []protocol.StateTransition{
			{
				Op:       OP_VERIFY,
				NewState: STATE_VERIFIED,
			},
			{
				Op:       OP_REJECT,
				NewState: STATE_REJECTED,
			},
			{
				Op:       OP_ABORT,
				NewState: STATE_IDLE,
			},
		},
	},
	STATE_VERIFIED: protocol.StateMapEntry{
		Transitions: serviceLookup,
	},
	STATE_REJECTED: protocol.StateMapEntry{
		Transitions: serviceLookup,
	},
}
