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

package txn

import (
	"crypto/ed25519"
	"errors"

	"github.com/blinklabs-io/zklicense/keys"
)

// Signer signs transaction bodies. Key custody is up to the implementation
type Signer interface {
	PublicKey() [ed25519.PublicKeySize]byte
	Sign(msg []byte) ([]byte, error)
}

// Ed25519Signer signs with an in-memory ed25519 key
type Ed25519Signer struct {
	key ed25519.PrivateKey
}

func NewEd25519Signer(key ed25519.PrivateKey) (*Ed25519Signer, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, errors.New("invalid ed25519 private key size")
	}
	return &Ed25519Signer{key: key}, nil
}

// NewSigner returns a signer using the identity key of sk
func NewSigner(sk *keys.SecretKey) *Ed25519Signer {
	return &Ed25519Signer{key: sk.SigningKey()}
}

func (s *Ed25519Signer) PublicKey() [ed25519.PublicKeySize]byte {
	var ret [ed25519.PublicKeySize]byte
	copy(ret[:], s.key.Public().(ed25519.PublicKey))
	return ret
}

func (s *Ed25519Signer) Sign(msg []byte) ([]byte, error) {
	return ed25519.Sign(s.key, msg), nil
}
