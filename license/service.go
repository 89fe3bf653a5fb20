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

package license

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/blinklabs-io/zklicense/keys"
	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/protocol"
)

// Service is the Service Provider (SP). It challenges Users and verifies the sessions
// they record on the ledger against the licenses of one trusted LP
type Service struct {
	role
	identity [ed25519.PublicKeySize]byte
	lpKey    [ed25519.PublicKeySize]byte
	verifier Verifier
	// nonces handed out and not yet used
	nonceMutex sync.Mutex
	nonces     map[[ledger.NonceSize]byte]struct{}
}

// NewService returns an SP holding the secret key that accepts licenses issued by lp
func NewService(
	key *keys.SecretKey,
	lp keys.PublicKey,
	verifier Verifier,
	cfg Config,
) (*Service, error) {
	if err := cfg.validate(ROLE_SERVICE, false, false); err != nil {
		return nil, err
	}
	if verifier == nil {
		return nil, protocol.NewValidationError("new "+ROLE_SERVICE, "no verifier configured")
	}
	public, err := key.Public()
	if err != nil {
		return nil, err
	}
	return &Service{
		role:     newRole(ROLE_SERVICE, ServiceStateMap, STATE_IDLE, cfg),
		identity: public.Identity,
		lpKey:    lp.Identity,
		verifier: verifier,
		nonces:   make(map[[ledger.NonceSize]byte]struct{}),
	}, nil
}

// NewChallenge returns a challenge with a fresh nonce for a User to prove against
func (s *Service) NewChallenge() (Challenge, error) {
	c := Challenge{
		LPKey: s.lpKey,
		SPKey: s.identity,
	}
	if _, err := io.ReadFull(s.config.Rand, c.Nonce[:]); err != nil {
		return Challenge{}, fmt.Errorf("generate nonce: %w", err)
	}
	s.nonceMutex.Lock()
	s.nonces[c.Nonce] = struct{}{}
	s.nonceMutex.Unlock()
	return c, nil
}

// GetSession looks up the session record without verifying it
func (s *Service) GetSession(ctx context.Context, sessionID ledger.FieldElement) (*ledger.Session, error) {
	session, err := s.config.Contract.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// VerifySession checks that the session exists on the ledger, that it was proven against
// the challenge made of the trusted LP, this SP and the nonce, and that its proof holds.
// Rejections wrap ErrSessionRejected
func (s *Service) VerifySession(
	ctx context.Context,
	sessionID ledger.FieldElement,
	nonce [ledger.NonceSize]byte,
) (*ledger.Session, error) {
	s.opMutex.Lock()
	defer s.opMutex.Unlock()
	if err := s.transition(OP_LOOKUP); err != nil {
		return nil, err
	}
	session, err := s.config.Contract.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, protocol.ErrNotFound) {
			return nil, s.reject(sessionID, err)
		}
		if abortErr := s.transition(OP_ABORT); abortErr != nil {
			return nil, abortErr
		}
		return nil, fmt.Errorf("verify session: %w", err)
	}
	pub := &session.PublicInputs
	switch {
	case pub.SessionID != sessionID:
		return nil, s.reject(sessionID, errors.New("session record has a different ID"))
	case pub.LPKey != s.lpKey:
		return nil, s.reject(sessionID, errors.New("license was not issued by the trusted LP"))
	case pub.SPKey != s.identity:
		return nil, s.reject(sessionID, errors.New("session was opened for another SP"))
	case pub.Nonce != nonce:
		return nil, s.reject(sessionID, errors.New("nonce does not match"))
	case !pub.ChallengeValid():
		return nil, s.reject(sessionID, errors.New("challenge does not reconstruct"))
	}
	if err := s.verifier.Verify(session.Proof, pub.Witness()); err != nil {
		return nil, s.reject(sessionID, err)
	}
	if err := s.transition(OP_VERIFY); err != nil {
		return nil, err
	}
	s.config.Logger.Info(
		"session verified",
		"component", "license",
		"role", s.name,
		"session", sessionID.String(),
		"attribute", pub.Attribute.String(),
	)
	return session, nil
}

func (s *Service) reject(sessionID ledger.FieldElement, reason error) error {
	if err := s.transition(OP_REJECT); err != nil {
		return err
	}
	s.config.Logger.Info(
		"session rejected",
		"component", "license",
		"role", s.name,
		"session", sessionID.String(),
		"reason", reason.Error(),
	)
	return fmt.Errorf("verify session %s: %w: %w", sessionID, ErrSessionRejected, reason)
}

// Grant verifies the session behind a cookie made for one of this SP's challenges. Each
// challenge grants service once
func (s *Service) Grant(ctx context.Context, cookie *ledger.SessionCookie) (*ledger.Session, error) {
	op := "grant service"
	if cookie == nil {
		return nil, protocol.NewValidationError(op, "no session cookie")
	}
	if !cookie.Consistent() {
		return nil, protocol.NewValidationError(op, "session cookie does not match its public inputs")
	}
	nonce := cookie.PublicInputs.Nonce
	// Claim the nonce up front so concurrent grants cannot share it
	s.nonceMutex.Lock()
	_, ok := s.nonces[nonce]
	delete(s.nonces, nonce)
	s.nonceMutex.Unlock()
	if !ok {
		return nil, protocol.NewValidationError(op, "unknown or used challenge nonce")
	}
	session, err := s.VerifySession(ctx, cookie.SessionID, nonce)
	if err != nil {
		s.nonceMutex.Lock()
		s.nonces[nonce] = struct{}{}
		s.nonceMutex.Unlock()
		return nil, err
	}
	return session, nil
}
