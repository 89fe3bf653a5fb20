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
	"fmt"

	"github.com/blinklabs-io/zklicense/protocol"
)

const (
	ContractIDSize = 32
	TxIDSize       = 32
)

// ContractID identifies a deployed contract on the ledger
type ContractID [ContractIDSize]byte

// ParseContractID decodes a hex encoded contract ID
func ParseContractID(s string) (ContractID, error) {
	var ret ContractID
	if err := decodeFixedHex(s, ret[:]); err != nil {
		return ret, protocol.NewValidationError("parse contract ID", "%s", err)
	}
	return ret, nil
}

func (c ContractID) String() string {
	return hex.EncodeToString(c[:])
}

func (c ContractID) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ContractID) UnmarshalText(text []byte) error {
	tmp, err := ParseContractID(string(text))
	if err != nil {
		return err
	}
	*c = tmp
	return nil
}

// TxID is the ledger-assigned transaction identifier
type TxID [TxIDSize]byte

// ParseTxID decodes a hex encoded transaction ID
func ParseTxID(s string) (TxID, error) {
	var ret TxID
	if err := decodeFixedHex(s, ret[:]); err != nil {
		return ret, protocol.NewValidationError("parse transaction ID", "%s", err)
	}
	return ret, nil
}

func (t TxID) String() string {
	return hex.EncodeToString(t[:])
}

func (t TxID) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TxID) UnmarshalText(text []byte) error {
	tmp, err := ParseTxID(string(text))
	if err != nil {
		return err
	}
	*t = tmp
	return nil
}

// HexBytes is a byte slice carried as a hex string in JSON
type HexBytes []byte

func (h HexBytes) String() string {
	return hex.EncodeToString(h)
}

func (h HexBytes) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *HexBytes) UnmarshalText(text []byte) error {
	data, err := hex.DecodeString(string(text))
	if err != nil {
		return err
	}
	*h = data
	return nil
}

func decodeFixedHex(s string, dest []byte) error {
	data, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}
	if len(data) != len(dest) {
		return fmt.Errorf("expected %d bytes, got %d", len(dest), len(data))
	}
	copy(dest, data)
	return nil
}
