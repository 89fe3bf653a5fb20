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

package query

import (
	"context"

	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/protocol"
)

// LicenseContract wraps the read-only methods of the license contract
type LicenseContract struct {
	client   *Client
	contract ledger.ContractID
}

func NewLicenseContract(client *Client, contract ledger.ContractID) *LicenseContract {
	return &LicenseContract{
		client:   client,
		contract: contract,
	}
}

// Contract returns the contract ID
func (l *LicenseContract) Contract() ledger.ContractID {
	return l.contract
}

// GetLicenses streams the license entries with positions in [from, to)
func (l *LicenseContract) GetLicenses(
	ctx context.Context,
	from uint64,
	to uint64,
) (*StreamDecoder[ledger.LicenseEntry], error) {
	return Stream(
		ctx,
		l.client,
		l.contract,
		protocol.MethodGetLicenses,
		&ledger.GetLicensesArgs{From: from, To: to},
		ledger.LicenseEntrySize,
		ledger.DecodeLicenseEntry,
	)
}

// GetMerkleOpening returns the inclusion proof for the license at the position
func (l *LicenseContract) GetMerkleOpening(
	ctx context.Context,
	position uint64,
) (*ledger.Opening, error) {
	return QueryOptional[uint64, ledger.Opening](
		ctx,
		l.client,
		l.contract,
		protocol.MethodGetMerkleOpening,
		position,
	)
}

// GetSession returns the session record for the session ID
func (l *LicenseContract) GetSession(
	ctx context.Context,
	sessionID ledger.FieldElement,
) (*ledger.Session, error) {
	return QueryOptional[ledger.FieldElement, ledger.Session](
		ctx,
		l.client,
		l.contract,
		protocol.MethodGetSession,
		sessionID,
	)
}

// GetInfo returns the contract state summary
func (l *LicenseContract) GetInfo(ctx context.Context) (*ledger.Info, error) {
	info, err := Query[*ledger.GetInfoArgs, ledger.Info](
		ctx,
		l.client,
		l.contract,
		protocol.MethodGetInfo,
		&ledger.GetInfoArgs{},
	)
	if err != nil {
		return nil, err
	}
	return &info, nil
}
