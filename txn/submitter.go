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

// Package txn submits signed contract calls to the ledger and watches for their
// confirmation.
package txn

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/zklicense/cbor"
	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/protocol"
)

// DefaultGas is attached to calls that do not specify a budget
var DefaultGas = ledger.Gas{Limit: 1_000_000, Price: 1}

// Broadcaster sends a signed transaction to the ledger
type Broadcaster interface {
	Broadcast(ctx context.Context, tx []byte) (ledger.TxID, error)
}

// Submitter signs and broadcasts contract calls. Broadcasts are never retried
type Submitter struct {
	broadcaster Broadcaster
	signer      Signer
	watcher     *Watcher
	rand        io.Reader
	logger      *slog.Logger
}

// SubmitterOptionFunc is a type that represents functions that modify the Submitter config
type SubmitterOptionFunc func(*Submitter)

// WithWatcher specifies the watcher used by SubmitAndWait
func WithWatcher(watcher *Watcher) SubmitterOptionFunc {
	return func(s *Submitter) {
		s.watcher = watcher
	}
}

// WithRand specifies the entropy source for transaction nonces
func WithRand(rand io.Reader) SubmitterOptionFunc {
	return func(s *Submitter) {
		s.rand = rand
	}
}

// WithSubmitterLogger specifies the logger
func WithSubmitterLogger(logger *slog.Logger) SubmitterOptionFunc {
	return func(s *Submitter) {
		s.logger = logger
	}
}

func NewSubmitter(
	broadcaster Broadcaster,
	signer Signer,
	opts ...SubmitterOptionFunc,
) *Submitter {
	s := &Submitter{
		broadcaster: broadcaster,
		signer:      signer,
		rand:        rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Submit encodes payload as the call arguments, signs the call and broadcasts it once
func (s *Submitter) Submit(
	ctx context.Context,
	payload any,
	contract ledger.ContractID,
	method string,
	gas ledger.Gas,
) (ledger.TxID, error) {
	op := "submit " + method
	args, err := cbor.Encode(payload)
	if err != nil {
		return ledger.TxID{}, protocol.NewEncodingError(op, err)
	}
	if err := protocol.CheckSize(op, protocol.PayloadCall, args); err != nil {
		return ledger.TxID{}, err
	}
	var nonce [8]byte
	if _, err := io.ReadFull(s.rand, nonce[:]); err != nil {
		return ledger.TxID{}, fmt.Errorf("%s: generate nonce: %w", op, err)
	}
	tx := &ledger.SignedTransaction{
		Call: ledger.Call{
			Contract: contract,
			Method:   method,
			Args:     args,
			Gas:      gas,
			Nonce:    binary.BigEndian.Uint64(nonce[:]),
		},
		Signer: s.signer.PublicKey(),
	}
	msg, err := tx.Call.SigningBytes()
	if err != nil {
		return ledger.TxID{}, err
	}
	sig, err := s.signer.Sign(msg)
	if err != nil {
		return ledger.TxID{}, fmt.Errorf("%s: sign: %w", op, err)
	}
	if len(sig) != ed25519.SignatureSize {
		return ledger.TxID{}, fmt.Errorf("%s: signer returned %d byte signature", op, len(sig))
	}
	copy(tx.Signature[:], sig)
	txCbor, err := cbor.Encode(tx)
	if err != nil {
		return ledger.TxID{}, protocol.NewEncodingError(op, err)
	}
	if err := protocol.CheckSize(op, protocol.PayloadCall, txCbor); err != nil {
		return ledger.TxID{}, err
	}
	id, err := s.broadcaster.Broadcast(ctx, txCbor)
	if err != nil {
		return ledger.TxID{}, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Debug(
		"broadcast transaction",
		"component", "txn",
		"method", method,
		"tx", id.String(),
	)
	return id, nil
}

// SubmitAndWait submits the call and waits for its confirmation
func (s *Submitter) SubmitAndWait(
	ctx context.Context,
	payload any,
	contract ledger.ContractID,
	method string,
	gas ledger.Gas,
) (ledger.TxID, error) {
	if s.watcher == nil {
		return ledger.TxID{}, fmt.Errorf("submit %s: no watcher configured", method)
	}
	id, err := s.Submit(ctx, payload, contract, method, gas)
	if err != nil {
		return id, err
	}
	if err := s.watcher.AwaitConfirmation(ctx, id); err != nil {
		return id, err
	}
	return id, nil
}
