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

package keys

import (
	"crypto/subtle"
	"fmt"
	"io"

	"github.com/blinklabs-io/zklicense/cbor"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/blake2b"
)

// Domain separation tags for the hashes derived from the stealth shared point
var (
	stealthScalarTag = []byte("zklicense/stealth/scalar")
	stealthSealTag   = []byte("zklicense/stealth/seal")
)

// StealthAddress is a one-time public key. R is the sender's ephemeral point and P the
// one-time key, recognizable only with the recipient's view key
type StealthAddress struct {
	cbor.StructAsArray
	R [PointSize]byte
	P [PointSize]byte
}

// SharedKey is the symmetric key both parties of a stealth address can derive
type SharedKey [32]byte

// NewStealthAddress derives a fresh stealth address for the owner of the provided
// public key. It also returns the shared key the owner will derive with their view key
func NewStealthAddress(
	pk PublicKey,
	rand io.Reader,
) (StealthAddress, SharedKey, error) {
	var addr StealthAddress
	var shared SharedKey
	viewPoint, err := new(edwards25519.Point).SetBytes(pk.View[:])
	if err != nil {
		return addr, shared, fmt.Errorf("invalid view point: %w", err)
	}
	spendPoint, err := new(edwards25519.Point).SetBytes(pk.Spend[:])
	if err != nil {
		return addr, shared, fmt.Errorf("invalid spend point: %w", err)
	}
	r, err := randomScalar(rand)
	if err != nil {
		return addr, shared, fmt.Errorf("generate ephemeral key: %w", err)
	}
	// R = r*B, D = r*V, P = Hs(D)*B + S
	ephemeral := new(edwards25519.Point).ScalarBaseMult(r)
	sharedPoint := new(edwards25519.Point).ScalarMult(r, viewPoint)
	p, err := oneTimeKey(sharedPoint, spendPoint)
	if err != nil {
		return addr, shared, err
	}
	copy(addr.R[:], ephemeral.Bytes())
	copy(addr.P[:], p.Bytes())
	return addr, deriveSharedKey(sharedPoint), nil
}

// ViewKey recognizes stealth addresses without granting spending authority
type ViewKey struct {
	Secret [ScalarSize]byte
	Spend  [PointSize]byte
}

// Owns reports whether the stealth address was derived for this view key
func (vk ViewKey) Owns(addr StealthAddress) bool {
	sharedPoint, spendPoint, err := vk.sharedPoint(addr)
	if err != nil {
		return false
	}
	p, err := oneTimeKey(sharedPoint, spendPoint)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(p.Bytes(), addr.P[:]) == 1
}

// SharedKey derives the symmetric key shared with the creator of the stealth address
func (vk ViewKey) SharedKey(addr StealthAddress) (SharedKey, error) {
	sharedPoint, _, err := vk.sharedPoint(addr)
	if err != nil {
		return SharedKey{}, err
	}
	return deriveSharedKey(sharedPoint), nil
}

func (vk ViewKey) sharedPoint(
	addr StealthAddress,
) (*edwards25519.Point, *edwards25519.Point, error) {
	v, err := edwards25519.NewScalar().SetCanonicalBytes(vk.Secret[:])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid view key: %w", err)
	}
	spendPoint, err := new(edwards25519.Point).SetBytes(vk.Spend[:])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid spend point: %w", err)
	}
	ephemeral, err := new(edwards25519.Point).SetBytes(addr.R[:])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid ephemeral point: %w", err)
	}
	// D = v*R = r*V
	return new(edwards25519.Point).ScalarMult(v, ephemeral), spendPoint, nil
}

func oneTimeKey(
	sharedPoint *edwards25519.Point,
	spendPoint *edwards25519.Point,
) (*edwards25519.Point, error) {
	h := blake2b.Sum512(append(append([]byte{}, stealthScalarTag...), sharedPoint.Bytes()...))
	hs, err := edwards25519.NewScalar().SetUniformBytes(h[:])
	if err != nil {
		return nil, err
	}
	p := new(edwards25519.Point).ScalarBaseMult(hs)
	return p.Add(p, spendPoint), nil
}

func deriveSharedKey(sharedPoint *edwards25519.Point) SharedKey {
	return SharedKey(
		blake2b.Sum256(append(append([]byte{}, stealthSealTag...), sharedPoint.Bytes()...)),
	)
}
