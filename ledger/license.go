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
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/blinklabs-io/zklicense/cbor"
	"github.com/blinklabs-io/zklicense/keys"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/blinklabs-io/zklicense/zk"
)

const (
	// LicenseSecretSize is the size of the sealed plaintext: secret followed by attribute
	LicenseSecretSize = 2 * zk.ElementSize
	// LicenseCiphertextSize is the size of a sealed license secret
	LicenseCiphertextSize = LicenseSecretSize + keys.SealOverhead
	// LicensePositionSize is the size of the position prefix in a license stream frame
	LicensePositionSize = 8
)

var (
	// LicenseSize is the encoded size of every License. All fields have a fixed size
	LicenseSize = mustLicenseSize()
	// LicenseEntrySize is the size of a framed LicenseEntry in a license stream
	LicenseEntrySize = LicensePositionSize + LicenseSize
)

var ErrInvalidLicenseSignature = errors.New("invalid license signature")

func mustLicenseSize() int {
	data, err := cbor.Encode(&License{})
	if err != nil {
		panic(fmt.Sprintf("unexpected error encoding empty license: %s", err))
	}
	return len(data)
}

// License is issued by an LP in answer to a Request. The ciphertext carries the license
// secret and attribute sealed under the key from the request, and the commitment to both
// is the leaf appended to the license tree
type License struct {
	cbor.StructAsArray
	cbor.DecodeStoreCbor
	StealthAddress keys.StealthAddress
	Ciphertext     [LicenseCiphertextSize]byte
	Commitment     FieldElement
	Issuer         [ed25519.PublicKeySize]byte
	Signature      [ed25519.SignatureSize]byte
}

// LicenseSecret is the plaintext of a license ciphertext
type LicenseSecret struct {
	Secret    FieldElement
	Attribute FieldElement
}

type licenseBody struct {
	cbor.StructAsArray
	StealthAddress keys.StealthAddress
	Ciphertext     [LicenseCiphertextSize]byte
	Commitment     FieldElement
	Issuer         [ed25519.PublicKeySize]byte
}

// NewLicense issues a license for the opened request. A fresh secret is drawn from rand
// and sealed together with the attribute
func NewLicense(
	req *RequestPayload,
	attribute FieldElement,
	issuer *keys.SecretKey,
	rand io.Reader,
) (*License, error) {
	if !attribute.Valid() {
		return nil, protocol.NewValidationError("issue license", "attribute is not a field element")
	}
	secret, err := zk.RandomElement(rand)
	if err != nil {
		return nil, fmt.Errorf("generate license secret: %w", err)
	}
	plaintext := make([]byte, 0, LicenseSecretSize)
	plaintext = append(plaintext, secret[:]...)
	plaintext = append(plaintext, attribute[:]...)
	sealed, err := keys.Seal(
		req.LicenseKey,
		plaintext,
		req.LicenseAddress.P[:],
		rand,
	)
	if err != nil {
		return nil, fmt.Errorf("seal license secret: %w", err)
	}
	lic := &License{
		StealthAddress: req.LicenseAddress,
		Commitment:     zk.Commitment(secret, attribute),
	}
	copy(lic.Ciphertext[:], sealed)
	pub := issuer.SigningKey().Public().(ed25519.PublicKey)
	copy(lic.Issuer[:], pub)
	msg, err := lic.signingBytes()
	if err != nil {
		return nil, err
	}
	copy(lic.Signature[:], issuer.Sign(msg))
	return lic, nil
}

// DecodeLicense strictly decodes a license
func DecodeLicense(data []byte) (*License, error) {
	if err := protocol.CheckSize("decode license", protocol.PayloadLicense, data); err != nil {
		return nil, err
	}
	var lic License
	if err := cbor.DecodeExact(data, &lic); err != nil {
		return nil, protocol.NewEncodingError("decode license", err)
	}
	return &lic, nil
}

func (l *License) UnmarshalCBOR(cborData []byte) error {
	type tLicense License
	var tmp tLicense
	if _, err := cbor.Decode(cborData, &tmp); err != nil {
		return err
	}
	*l = License(tmp)
	l.SetCbor(cborData)
	return nil
}

func (l *License) MarshalCBOR() ([]byte, error) {
	if l.Cbor() != nil {
		return l.Cbor(), nil
	}
	return cbor.EncodeGeneric(l)
}

// Hash returns the content hash of the license
func (l *License) Hash() Blake2b256 {
	data, err := l.MarshalCBOR()
	if err != nil {
		panic(fmt.Sprintf("unexpected error encoding license: %s", err))
	}
	return Blake2b256Hash(data)
}

// Address returns the stealth address the license was issued to
func (l *License) Address() keys.StealthAddress {
	return l.StealthAddress
}

// VerifySignature checks the issuer's signature over the license
func (l *License) VerifySignature() error {
	msg, err := l.signingBytes()
	if err != nil {
		return err
	}
	if !ed25519.Verify(ed25519.PublicKey(l.Issuer[:]), msg, l.Signature[:]) {
		return ErrInvalidLicenseSignature
	}
	return nil
}

// Open recovers the license secret and attribute with the owner's view key. The recovered
// values are checked against the commitment
func (l *License) Open(vk keys.ViewKey) (*LicenseSecret, error) {
	if !vk.Owns(l.StealthAddress) {
		return nil, errors.New("license is not addressed to this view key")
	}
	shared, err := vk.SharedKey(l.StealthAddress)
	if err != nil {
		return nil, err
	}
	plaintext, err := keys.Open(shared, l.Ciphertext[:], l.StealthAddress.P[:])
	if err != nil {
		return nil, err
	}
	if len(plaintext) != LicenseSecretSize {
		return nil, fmt.Errorf("unexpected license secret size %d", len(plaintext))
	}
	ret := &LicenseSecret{}
	copy(ret.Secret[:], plaintext[:zk.ElementSize])
	copy(ret.Attribute[:], plaintext[zk.ElementSize:])
	if !ret.Secret.Valid() || !ret.Attribute.Valid() {
		return nil, errors.New("license secret is not a field element")
	}
	if zk.Commitment(ret.Secret, ret.Attribute) != l.Commitment {
		return nil, errors.New("license secret does not match commitment")
	}
	return ret, nil
}

func (l *License) signingBytes() ([]byte, error) {
	body := &licenseBody{
		StealthAddress: l.StealthAddress,
		Ciphertext:     l.Ciphertext,
		Commitment:     l.Commitment,
		Issuer:         l.Issuer,
	}
	data, err := cbor.Encode(body)
	if err != nil {
		return nil, protocol.NewEncodingError("encode license body", err)
	}
	return data, nil
}

// LicenseEntry is a license together with its position in the license tree
type LicenseEntry struct {
	Position uint64
	License  *License
}

// Frame encodes the entry as it appears in a license stream: an 8-byte big-endian position
// followed by the license encoding
func (e LicenseEntry) Frame() ([]byte, error) {
	licCbor, err := e.License.MarshalCBOR()
	if err != nil {
		return nil, protocol.NewEncodingError("encode license entry", err)
	}
	if len(licCbor) != LicenseSize {
		return nil, protocol.NewEncodingError(
			"encode license entry",
			fmt.Errorf("license is %d bytes, expected %d", len(licCbor), LicenseSize),
		)
	}
	ret := make([]byte, LicensePositionSize, LicenseEntrySize)
	binary.BigEndian.PutUint64(ret, e.Position)
	return append(ret, licCbor...), nil
}

// DecodeLicenseEntry decodes one framed license entry
func DecodeLicenseEntry(frame []byte) (LicenseEntry, error) {
	if len(frame) != LicenseEntrySize {
		return LicenseEntry{}, protocol.NewEncodingError(
			"decode license entry",
			fmt.Errorf("frame is %d bytes, expected %d", len(frame), LicenseEntrySize),
		)
	}
	lic, err := DecodeLicense(frame[LicensePositionSize:])
	if err != nil {
		return LicenseEntry{}, err
	}
	return LicenseEntry{
		Position: binary.BigEndian.Uint64(frame[:LicensePositionSize]),
		License:  lic,
	}, nil
}

func (e LicenseEntry) Hash() Blake2b256 {
	return e.License.Hash()
}

func (e LicenseEntry) Address() keys.StealthAddress {
	return e.License.StealthAddress
}
