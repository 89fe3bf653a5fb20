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
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/blinklabs-io/zklicense/cbor"
	"github.com/blinklabs-io/zklicense/protocol"
)

var ErrInvalidTransactionSignature = errors.New("invalid transaction signature")

// Transaction is a contract call as reported by the node in a transaction window
type Transaction struct {
	ID       TxID       `json:"id"`
	Height   uint64     `json:"height"`
	Contract ContractID `json:"contract"`
	Method   string     `json:"fn_name"`
	CallData HexBytes   `json:"call_data"`
}

// TxWindow is the node's answer for a height range, along with its top height at the time
type TxWindow struct {
	TopHeight    uint64        `json:"top_height"`
	Transactions []Transaction `json:"transactions"`
}

// TxStatus is the execution status of a transaction. A nil Err means it succeeded
type TxStatus struct {
	Err *string `json:"err,omitempty"`
}

func (s TxStatus) Failed() bool {
	return s.Err != nil
}

// Gas is the execution budget attached to a call
type Gas struct {
	cbor.StructAsArray
	Limit uint64
	Price uint64
}

// Call is the unsigned body of a contract call transaction
type Call struct {
	cbor.StructAsArray
	Contract ContractID
	Method   string
	Args     []byte
	Gas      Gas
	Nonce    uint64
}

// SignedTransaction is the envelope broadcast to the node
type SignedTransaction struct {
	cbor.StructAsArray
	cbor.DecodeStoreCbor
	Call      Call
	Signer    [ed25519.PublicKeySize]byte
	Signature [ed25519.SignatureSize]byte
}

// SigningBytes returns the canonical encoding of the call that signers sign
func (c *Call) SigningBytes() ([]byte, error) {
	data, err := cbor.Encode(c)
	if err != nil {
		return nil, protocol.NewEncodingError("encode call", err)
	}
	return data, nil
}

// DecodeSignedTransaction strictly decodes a broadcast transaction
func DecodeSignedTransaction(data []byte) (*SignedTransaction, error) {
	if err := protocol.CheckSize("decode transaction", protocol.PayloadCall, data); err != nil {
		return nil, err
	}
	var tx SignedTransaction
	if err := cbor.DecodeExact(data, &tx); err != nil {
		return nil, protocol.NewEncodingError("decode transaction", err)
	}
	return &tx, nil
}

func (t *SignedTransaction) UnmarshalCBOR(cborData []byte) error {
	type tSignedTransaction SignedTransaction
	var tmp tSignedTransaction
	if _, err := cbor.Decode(cborData, &tmp); err != nil {
		return err
	}
	*t = SignedTransaction(tmp)
	t.SetCbor(cborData)
	return nil
}

func (t *SignedTransaction) MarshalCBOR() ([]byte, error) {
	if t.Cbor() != nil {
		return t.Cbor(), nil
	}
	return cbor.EncodeGeneric(t)
}

// ID returns the identifier a node assigns to this transaction
func (t *SignedTransaction) ID() TxID {
	data, err := t.MarshalCBOR()
	if err != nil {
		panic(fmt.Sprintf("unexpected error encoding transaction: %s", err))
	}
	return TxID(Blake2b256Hash(data))
}

// Verify checks the signature over the call
func (t *SignedTransaction) Verify() error {
	msg, err := t.Call.SigningBytes()
	if err != nil {
		return err
	}
	if !ed25519.Verify(ed25519.PublicKey(t.Signer[:]), msg, t.Signature[:]) {
		return ErrInvalidTransactionSignature
	}
	return nil
}
