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
	"errors"
	"fmt"

	"github.com/blinklabs-io/zklicense/keys"
	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/blinklabs-io/zklicense/query"
	"github.com/blinklabs-io/zklicense/scanner"
	"github.com/blinklabs-io/zklicense/zk"
)

// OwnedLicense is a license entry together with the secret recovered from it
type OwnedLicense struct {
	Entry  ledger.LicenseEntry
	Secret ledger.LicenseSecret
}

// Granter grants service for a session. *Service is a Granter
type Granter interface {
	Grant(ctx context.Context, cookie *ledger.SessionCookie) (*ledger.Session, error)
}

// User requests licenses, proves possession of them and uses them to open sessions
type User struct {
	role
	key      *keys.SecretKey
	public   keys.PublicKey
	viewKey  keys.ViewKey
	prover   Prover
	requests []*ledger.Request
	licenses *scanner.State[ledger.LicenseEntry]
	owned    *OwnedLicense
	cookie   *ledger.SessionCookie
}

// NewUser returns a User holding the secret key. The prover may be nil for a User that
// never computes proofs
func NewUser(key *keys.SecretKey, prover Prover, cfg Config) (*User, error) {
	if err := cfg.validate(ROLE_USER, true, true); err != nil {
		return nil, err
	}
	public, err := key.Public()
	if err != nil {
		return nil, err
	}
	viewKey, err := key.ViewKey()
	if err != nil {
		return nil, err
	}
	return &User{
		role:     newRole(ROLE_USER, UserStateMap, STATE_INIT, cfg),
		key:      key,
		public:   public,
		viewKey:  viewKey,
		prover:   prover,
		licenses: scanner.NewState[ledger.LicenseEntry](),
	}, nil
}

// PublicKey returns the User's public key
func (u *User) PublicKey() keys.PublicKey {
	return u.public
}

// SubmitRequest submits a license request to the LP and waits for it to be confirmed
func (u *User) SubmitRequest(ctx context.Context, lp keys.PublicKey) (*ledger.Request, error) {
	u.opMutex.Lock()
	defer u.opMutex.Unlock()
	if err := u.check(OP_SUBMIT_REQUEST); err != nil {
		return nil, err
	}
	req, err := ledger.NewRequest(lp, u.public, u.config.Rand)
	if err != nil {
		return nil, err
	}
	txID, err := u.config.Submitter.SubmitAndWait(
		ctx,
		req,
		u.config.Contract.Contract(),
		protocol.MethodRequestLicense,
		u.config.Gas,
	)
	if err != nil {
		return nil, fmt.Errorf("submit request: %w", err)
	}
	u.requests = append(u.requests, req)
	u.config.Logger.Info(
		"license request confirmed",
		"component", "license",
		"role", u.name,
		"request", req.Hash().String(),
		"tx", txID.String(),
	)
	if err := u.transition(OP_SUBMIT_REQUEST); err != nil {
		return nil, err
	}
	return req, nil
}

// ListRequests returns the requests submitted by this User
func (u *User) ListRequests() []*ledger.Request {
	u.opMutex.Lock()
	defer u.opMutex.Unlock()
	ret := make([]*ledger.Request, len(u.requests))
	copy(ret, u.requests)
	return ret
}

// ListLicenses scans the issued licenses and returns the ones owned by this User
func (u *User) ListLicenses(ctx context.Context) ([]ledger.LicenseEntry, error) {
	u.opMutex.Lock()
	defer u.opMutex.Unlock()
	if err := u.scanLicenses(ctx); err != nil {
		return nil, err
	}
	return u.licenses.Entries(), nil
}

func (u *User) licenseStream(ctx context.Context) (*query.StreamDecoder[ledger.LicenseEntry], error) {
	top, err := u.config.Node.TopHeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan licenses: %w", err)
	}
	// The top is a lower bound on the ledger height, so the range includes it
	return u.config.Contract.GetLicenses(ctx, 0, top+1)
}

func (u *User) scanLicenses(ctx context.Context) error {
	stream, err := u.licenseStream(ctx)
	if err != nil {
		return err
	}
	entries, err := stream.CollectAll(ctx)
	if err != nil {
		return fmt.Errorf("scan licenses: %w", err)
	}
	inserted := scanner.Collect(entries, u.viewKey, u.licenses)
	u.config.Metrics.OwnedInserted("license", inserted)
	u.config.Logger.Debug(
		"scanned licenses",
		"component", "license",
		"role", u.name,
		"licenses", len(entries),
		"owned", inserted,
	)
	return nil
}

// ObtainLicense finds an owned license and recovers its secret. With a target hash the
// license with that content hash is selected, otherwise the owned one with the highest
// tree position
func (u *User) ObtainLicense(
	ctx context.Context,
	target *ledger.Blake2b256,
) (*OwnedLicense, error) {
	u.opMutex.Lock()
	defer u.opMutex.Unlock()
	op := "obtain license"
	if err := u.check(OP_OBTAIN_LICENSE); err != nil {
		return nil, err
	}
	var entry ledger.LicenseEntry
	if target != nil {
		stream, err := u.licenseStream(ctx)
		if err != nil {
			return nil, err
		}
		entry, _, err = stream.FindFirst(
			ctx,
			func(e ledger.LicenseEntry) bool {
				return e.Hash() == *target && u.viewKey.Owns(e.Address())
			},
		)
		if err != nil {
			var notFoundErr *protocol.NotFoundError
			if errors.As(err, &notFoundErr) {
				return nil, &protocol.NotFoundError{Op: op, Key: "license " + target.String()}
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		u.licenses.Insert(entry)
	} else {
		if err := u.scanLicenses(ctx); err != nil {
			return nil, err
		}
		var ok bool
		entry, ok = latestLicense(u.licenses.Entries())
		if !ok {
			return nil, &protocol.NotFoundError{Op: op, Key: "owned license"}
		}
	}
	if err := entry.License.VerifySignature(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	secret, err := entry.License.Open(u.viewKey)
	if err != nil {
		return nil, &protocol.ProtocolError{Op: op, Err: err}
	}
	owned := &OwnedLicense{
		Entry:  entry,
		Secret: *secret,
	}
	u.owned = owned
	if err := u.transition(OP_OBTAIN_LICENSE); err != nil {
		return nil, err
	}
	return owned, nil
}

// latestLicense returns the entry with the highest tree position. Insertion order does not
// follow the ledger, since a targeted lookup can insert a newer license before a scan
// finds older ones
func latestLicense(entries []ledger.LicenseEntry) (ledger.LicenseEntry, bool) {
	var ret ledger.LicenseEntry
	found := false
	for _, entry := range entries {
		if !found || entry.Position > ret.Position {
			ret = entry
			found = true
		}
	}
	return ret, found
}

// ComputeProof proves possession of the owned license for the challenge and returns the
// session cookie to hand to the SP
func (u *User) ComputeProof(
	ctx context.Context,
	owned *OwnedLicense,
	challenge Challenge,
) (*ledger.SessionCookie, error) {
	u.opMutex.Lock()
	defer u.opMutex.Unlock()
	op := "compute proof"
	if err := u.check(OP_COMPUTE_PROOF); err != nil {
		return nil, err
	}
	if u.prover == nil {
		return nil, protocol.NewValidationError(op, "no prover configured")
	}
	if owned == nil {
		owned = u.owned
	}
	if owned == nil || owned.Entry.License == nil {
		return nil, protocol.NewValidationError(op, "no license obtained")
	}
	if challenge.LPKey != owned.Entry.License.Issuer {
		return nil, protocol.NewValidationError(op, "challenge names a different LP than the license issuer")
	}
	opening, err := u.config.Contract.GetMerkleOpening(ctx, owned.Entry.Position)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if opening.Position != owned.Entry.Position || !opening.Verify(owned.Entry.License.Commitment) {
		return nil, &protocol.ProtocolError{
			Op:     op,
			Reason: fmt.Sprintf("opening does not prove the license at position %d", owned.Entry.Position),
		}
	}
	pub := ledger.PublicInputs{
		Root:      opening.Root,
		SessionID: zk.SessionID(owned.Secret.Secret, challenge.Value()),
		Challenge: challenge.Value(),
		Attribute: owned.Secret.Attribute,
		LPKey:     challenge.LPKey,
		SPKey:     challenge.SPKey,
		Nonce:     challenge.Nonce,
	}
	proof, err := u.prover.Prove(
		ctx,
		zk.Witness{
			PublicWitness: pub.Witness(),
			Secret:        owned.Secret.Secret,
			Path:          opening.Path(),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cookie := ledger.NewSessionCookie(pub, proof)
	u.cookie = cookie
	if err := u.transition(OP_COMPUTE_PROOF); err != nil {
		return nil, err
	}
	return cookie, nil
}

// UseLicense records the session on the ledger and waits for it to be confirmed
func (u *User) UseLicense(ctx context.Context, cookie *ledger.SessionCookie) (ledger.TxID, error) {
	u.opMutex.Lock()
	defer u.opMutex.Unlock()
	op := "use license"
	if err := u.check(OP_USE_LICENSE); err != nil {
		return ledger.TxID{}, err
	}
	if cookie == nil {
		cookie = u.cookie
	}
	if cookie == nil {
		return ledger.TxID{}, protocol.NewValidationError(op, "no session cookie")
	}
	if !cookie.Consistent() {
		return ledger.TxID{}, protocol.NewValidationError(op, "session cookie does not match its public inputs")
	}
	txID, err := u.config.Submitter.SubmitAndWait(
		ctx,
		&ledger.UseLicenseArgs{
			PublicInputs: cookie.PublicInputs,
			Proof:        cookie.Proof,
		},
		u.config.Contract.Contract(),
		protocol.MethodUseLicense,
		u.config.Gas,
	)
	if err != nil {
		return ledger.TxID{}, fmt.Errorf("%s: %w", op, err)
	}
	u.config.Logger.Info(
		"session established",
		"component", "license",
		"role", u.name,
		"session", cookie.SessionID.String(),
		"tx", txID.String(),
	)
	if err := u.transition(OP_USE_LICENSE); err != nil {
		return ledger.TxID{}, err
	}
	return txID, nil
}

// RequestService hands the session cookie to the SP
func (u *User) RequestService(
	ctx context.Context,
	service Granter,
	cookie *ledger.SessionCookie,
) (*ledger.Session, error) {
	u.opMutex.Lock()
	defer u.opMutex.Unlock()
	if err := u.check(OP_REQUEST_SERVICE); err != nil {
		return nil, err
	}
	if cookie == nil {
		cookie = u.cookie
	}
	if cookie == nil {
		return nil, protocol.NewValidationError("request service", "no session cookie")
	}
	session, err := service.Grant(ctx, cookie)
	if err != nil {
		return nil, fmt.Errorf("request service: %w", err)
	}
	if err := u.transition(OP_REQUEST_SERVICE); err != nil {
		return nil, err
	}
	return session, nil
}
