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

	"github.com/blinklabs-io/zklicense/cbor"
	"github.com/blinklabs-io/zklicense/zk"
)

const NonceSize = 32

var challengeTag = []byte("zklicense/challenge")

// PublicInputs are the public values a session proof is checked against
type PublicInputs struct {
	cbor.StructAsArray
	Root      FieldElement
	SessionID FieldElement
	Challenge FieldElement
	Attribute FieldElement
	LPKey     [ed25519.PublicKeySize]byte
	SPKey     [ed25519.PublicKeySize]byte
	Nonce     [NonceSize]byte
}

// DeriveChallenge binds a session to an LP, an SP and an SP-chosen nonce
func DeriveChallenge(
	lpKey [ed25519.PublicKeySize]byte,
	spKey [ed25519.PublicKeySize]byte,
	nonce [NonceSize]byte,
) FieldElement {
	return zk.HashToElement(challengeTag, lpKey[:], spKey[:], nonce[:])
}

// ChallengeValid reports whether the challenge was derived from the keys and nonce
func (p *PublicInputs) ChallengeValid() bool {
	return DeriveChallenge(p.LPKey, p.SPKey, p.Nonce) == p.Challenge
}

// Witness returns the circuit-facing subset of the public inputs
func (p *PublicInputs) Witness() zk.PublicWitness {
	return zk.PublicWitness{
		Root:      p.Root,
		SessionID: p.SessionID,
		Challenge: p.Challenge,
		Attribute: p.Attribute,
	}
}

// Session is the ledger record created by a confirmed use-license call, keyed by session ID
type Session struct {
	cbor.StructAsArray
	PublicInputs PublicInputs
	Proof        []byte
}

func (s *Session) SessionID() FieldElement {
	return s.PublicInputs.SessionID
}

// SessionCookie is built by the User after proving and handed to the SP. It carries the
// deterministic session ID and the revealed attribute next to the proof material
type SessionCookie struct {
	cbor.StructAsArray
	SessionID    FieldElement
	Attribute    FieldElement
	PublicInputs PublicInputs
	Proof        []byte
}

// NewSessionCookie wraps a proof and its public inputs
func NewSessionCookie(pub PublicInputs, proof []byte) *SessionCookie {
	return &SessionCookie{
		SessionID:    pub.SessionID,
		Attribute:    pub.Attribute,
		PublicInputs: pub,
		Proof:        proof,
	}
}

// Session returns the record that a use-license call stores for this cookie
func (c *SessionCookie) Session() *Session {
	return &Session{
		PublicInputs: c.PublicInputs,
		Proof:        c.Proof,
	}
}

// Consistent reports whether the cookie's summary fields match its public inputs
func (c *SessionCookie) Consistent() bool {
	return c.SessionID == c.PublicInputs.SessionID &&
		c.Attribute == c.PublicInputs.Attribute
}
