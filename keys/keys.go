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

// Package keys implements the key material of the licensing protocol: view and spend
// keys on edwards25519, one-time stealth addresses, the ownership test, symmetric
// sealing of payloads and an ed25519 identity key.
package keys

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"io"

	"filippo.io/edwards25519"
)

const (
	// ScalarSize is the size of an encoded edwards25519 scalar
	ScalarSize = 32
	// PointSize is the size of an encoded edwards25519 point
	PointSize = 32
	// PublicKeySize is the size of the packed public key (view, spend, identity)
	PublicKeySize = 2*PointSize + ed25519.PublicKeySize
	// SecretKeySize is the size of the packed secret key (view, spend, identity seed)
	SecretKeySize = 2*ScalarSize + ed25519.SeedSize
)

// SecretKey holds every secret of an actor. The view scalar recognizes stealth
// addresses, the spend scalar is kept for spending authority and the identity seed
// signs licenses and transactions
type SecretKey struct {
	View     [ScalarSize]byte
	Spend    [ScalarSize]byte
	Identity [ed25519.SeedSize]byte
}

// PublicKey is the public counterpart of a SecretKey
type PublicKey struct {
	View     [PointSize]byte
	Spend    [PointSize]byte
	Identity [ed25519.PublicKeySize]byte
}

// GenerateKey creates a new random SecretKey from the provided entropy source
func GenerateKey(rand io.Reader) (*SecretKey, error) {
	sk := &SecretKey{}
	view, err := randomScalar(rand)
	if err != nil {
		return nil, fmt.Errorf("generate view key: %w", err)
	}
	spend, err := randomScalar(rand)
	if err != nil {
		return nil, fmt.Errorf("generate spend key: %w", err)
	}
	copy(sk.View[:], view.Bytes())
	copy(sk.Spend[:], spend.Bytes())
	if _, err := io.ReadFull(rand, sk.Identity[:]); err != nil {
		return nil, fmt.Errorf("generate identity key: %w", err)
	}
	return sk, nil
}

// Public derives the PublicKey
func (sk *SecretKey) Public() (PublicKey, error) {
	var pk PublicKey
	view, err := edwards25519.NewScalar().SetCanonicalBytes(sk.View[:])
	if err != nil {
		return pk, fmt.Errorf("invalid view key: %w", err)
	}
	spend, err := edwards25519.NewScalar().SetCanonicalBytes(sk.Spend[:])
	if err != nil {
		return pk, fmt.Errorf("invalid spend key: %w", err)
	}
	copy(pk.View[:], new(edwards25519.Point).ScalarBaseMult(view).Bytes())
	copy(pk.Spend[:], new(edwards25519.Point).ScalarBaseMult(spend).Bytes())
	copy(pk.Identity[:], sk.SigningKey().Public().(ed25519.PublicKey))
	return pk, nil
}

// ViewKey returns the view-only key used to recognize owned stealth addresses
func (sk *SecretKey) ViewKey() (ViewKey, error) {
	pk, err := sk.Public()
	if err != nil {
		return ViewKey{}, err
	}
	return ViewKey{
		Secret: sk.View,
		Spend:  pk.Spend,
	}, nil
}

// SigningKey returns the ed25519 identity key
func (sk *SecretKey) SigningKey() ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(sk.Identity[:])
}

// Bytes packs the secret key
func (sk *SecretKey) Bytes() []byte {
	ret := make([]byte, 0, SecretKeySize)
	ret = append(ret, sk.View[:]...)
	ret = append(ret, sk.Spend[:]...)
	ret = append(ret, sk.Identity[:]...)
	return ret
}

// NewSecretKey unpacks a secret key produced by Bytes
func NewSecretKey(data []byte) (*SecretKey, error) {
	if len(data) != SecretKeySize {
		return nil, fmt.Errorf(
			"secret key must be %d bytes, got %d",
			SecretKeySize,
			len(data),
		)
	}
	sk := &SecretKey{}
	copy(sk.View[:], data[0:ScalarSize])
	copy(sk.Spend[:], data[ScalarSize:2*ScalarSize])
	copy(sk.Identity[:], data[2*ScalarSize:])
	// Make sure the scalars are usable
	if _, err := sk.Public(); err != nil {
		return nil, err
	}
	return sk, nil
}

// Bytes packs the public key
func (pk PublicKey) Bytes() []byte {
	ret := make([]byte, 0, PublicKeySize)
	ret = append(ret, pk.View[:]...)
	ret = append(ret, pk.Spend[:]...)
	ret = append(ret, pk.Identity[:]...)
	return ret
}

// NewPublicKey unpacks a public key produced by Bytes
func NewPublicKey(data []byte) (PublicKey, error) {
	var pk PublicKey
	if len(data) != PublicKeySize {
		return pk, fmt.Errorf(
			"public key must be %d bytes, got %d",
			PublicKeySize,
			len(data),
		)
	}
	copy(pk.View[:], data[0:PointSize])
	copy(pk.Spend[:], data[PointSize:2*PointSize])
	copy(pk.Identity[:], data[2*PointSize:])
	if _, err := new(edwards25519.Point).SetBytes(pk.View[:]); err != nil {
		return pk, fmt.Errorf("invalid view point: %w", err)
	}
	if _, err := new(edwards25519.Point).SetBytes(pk.Spend[:]); err != nil {
		return pk, fmt.Errorf("invalid spend point: %w", err)
	}
	return pk, nil
}

// VerifyIdentity checks an ed25519 signature made with the identity key
func (pk PublicKey) VerifyIdentity(msg []byte, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pk.Identity[:]), msg, sig)
}

func randomScalar(rand io.Reader) (*edwards25519.Scalar, error) {
	if rand == nil {
		return nil, errors.New("no entropy source")
	}
	var buf [64]byte
	if _, err := io.ReadFull(rand, buf[:]); err != nil {
		return nil, err
	}
	return edwards25519.NewScalar().SetUniformBytes(buf[:])
}

// Sign signs msg with the identity key
func (sk *SecretKey) Sign(msg []byte) []byte {
	return ed25519.Sign(sk.SigningKey(), msg)
}
