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
	"errors"
	"fmt"
	"io"

	"github.com/blinklabs-io/zklicense/cbor"
	"github.com/blinklabs-io/zklicense/keys"
	"github.com/blinklabs-io/zklicense/protocol"
)

// Request is a license request from a User to an LP. The stealth address is derived from
// the LP's public key, so only that LP recognizes the request and can open its payload
type Request struct {
	cbor.StructAsArray
	cbor.DecodeStoreCbor
	StealthAddress keys.StealthAddress
	Payload        []byte
}

// RequestPayload is the sealed content of a Request. LicenseAddress is the stealth address
// the license will be issued to and LicenseKey the key the LP seals license secrets with
type RequestPayload struct {
	cbor.StructAsArray
	LicenseAddress keys.StealthAddress
	LicenseKey     keys.SharedKey
}

// NewRequest builds a request addressed to the LP for a license owned by user
func NewRequest(
	lp keys.PublicKey,
	user keys.PublicKey,
	rand io.Reader,
) (*Request, error) {
	licenseAddr, licenseKey, err := keys.NewStealthAddress(user, rand)
	if err != nil {
		return nil, fmt.Errorf("derive license address: %w", err)
	}
	requestAddr, lpKey, err := keys.NewStealthAddress(lp, rand)
	if err != nil {
		return nil, fmt.Errorf("derive request address: %w", err)
	}
	payload, err := cbor.Encode(
		&RequestPayload{
			LicenseAddress: licenseAddr,
			LicenseKey:     licenseKey,
		},
	)
	if err != nil {
		return nil, protocol.NewEncodingError("encode request payload", err)
	}
	sealed, err := keys.Seal(lpKey, payload, requestAddr.P[:], rand)
	if err != nil {
		return nil, fmt.Errorf("seal request payload: %w", err)
	}
	req := &Request{
		StealthAddress: requestAddr,
		Payload:        sealed,
	}
	reqCbor, err := cbor.Encode(req)
	if err != nil {
		return nil, protocol.NewEncodingError("encode request", err)
	}
	if err := protocol.CheckSize("build request", protocol.PayloadRequest, reqCbor); err != nil {
		return nil, err
	}
	req.SetCbor(reqCbor)
	return req, nil
}

// DecodeRequest strictly decodes a request from call data
func DecodeRequest(data []byte) (*Request, error) {
	if err := protocol.CheckSize("decode request", protocol.PayloadRequest, data); err != nil {
		return nil, err
	}
	var req Request
	if err := cbor.DecodeExact(data, &req); err != nil {
		return nil, protocol.NewEncodingError("decode request", err)
	}
	return &req, nil
}

func (r *Request) UnmarshalCBOR(cborData []byte) error {
	if err := cbor.DecodeGeneric(cborData, r); err != nil {
		return err
	}
	r.SetCbor(cborData)
	return nil
}

func (r *Request) MarshalCBOR() ([]byte, error) {
	if r.Cbor() != nil {
		return r.Cbor(), nil
	}
	return cbor.EncodeGeneric(r)
}

// Hash returns the content hash of the request
func (r *Request) Hash() Blake2b256 {
	data, err := r.MarshalCBOR()
	if err != nil {
		panic(fmt.Sprintf("unexpected error encoding request: %s", err))
	}
	return Blake2b256Hash(data)
}

// Address returns the stealth address the request was sent to
func (r *Request) Address() keys.StealthAddress {
	return r.StealthAddress
}

// Open recovers the sealed payload with the recipient's view key
func (r *Request) Open(vk keys.ViewKey) (*RequestPayload, error) {
	if !vk.Owns(r.StealthAddress) {
		return nil, errors.New("request is not addressed to this view key")
	}
	shared, err := vk.SharedKey(r.StealthAddress)
	if err != nil {
		return nil, err
	}
	plaintext, err := keys.Open(shared, r.Payload, r.StealthAddress.P[:])
	if err != nil {
		return nil, err
	}
	var payload RequestPayload
	if err := cbor.DecodeExact(plaintext, &payload); err != nil {
		return nil, protocol.NewEncodingError("decode request payload", err)
	}
	return &payload, nil
}
