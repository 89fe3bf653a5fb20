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
	"fmt"

	"github.com/blinklabs-io/zklicense/keys"
	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/blinklabs-io/zklicense/scanner"
)

// Provider is the License Provider (LP). It scans the ledger for requests addressed to
// it and answers them by issuing licenses
type Provider struct {
	role
	key       *keys.SecretKey
	public    keys.PublicKey
	viewKey   keys.ViewKey
	scanner   *scanner.Scanner[*ledger.Request]
	requests  *scanner.State[*ledger.Request]
	watermark uint64
}

// NewProvider returns an LP holding the secret key
func NewProvider(key *keys.SecretKey, cfg Config) (*Provider, error) {
	if err := cfg.validate(ROLE_PROVIDER, true, true); err != nil {
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
	p := &Provider{
		role:     newRole(ROLE_PROVIDER, ProviderStateMap, STATE_IDLE, cfg),
		key:      key,
		public:   public,
		viewKey:  viewKey,
		requests: scanner.NewState[*ledger.Request](),
	}
	p.scanner = scanner.New[*ledger.Request](
		cfg.Node,
		scanner.Filter{
			Contract: cfg.Contract.Contract(),
			Method:   protocol.MethodRequestLicense,
		},
		ledger.DecodeRequest,
		scanner.NewConfig(
			scanner.WithWindow(cfg.ScanWindow),
			scanner.WithLogger(cfg.Logger),
			scanner.WithMetrics(cfg.Metrics),
			scanner.WithKind("request"),
		),
	)
	return p, nil
}

// PublicKey returns the LP's public key, which Users address their requests to
func (p *Provider) PublicKey() keys.PublicKey {
	return p.public
}

// Scan scans the heights not yet seen for requests addressed to this LP and queues them.
// It returns the number of new requests
func (p *Provider) Scan(ctx context.Context) (int, error) {
	p.opMutex.Lock()
	defer p.opMutex.Unlock()
	if err := p.transition(OP_SCAN); err != nil {
		return 0, err
	}
	top, err := p.config.Node.TopHeight(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan requests: %w", err)
	}
	end := top + 1
	inserted, observedTop, err := p.scanner.ScanOwned(ctx, p.watermark, end, p.viewKey, p.requests)
	if err != nil {
		return 0, fmt.Errorf("scan requests: %w", err)
	}
	// Heights at or above the observed top may still receive transactions
	if observedTop > 0 {
		p.watermark = max(p.watermark, min(observedTop, end))
	}
	p.config.Logger.Info(
		"scanned requests",
		"component", "license",
		"role", p.name,
		"new", inserted,
		"queued", p.requests.Len(),
		"watermark", p.watermark,
	)
	return inserted, nil
}

// ListRequests returns the queued requests
func (p *Provider) ListRequests() []*ledger.Request {
	return p.requests.Entries()
}

// IssueLicense answers a queued request with a license carrying the attribute. With a
// target hash the request with that hash is answered, otherwise the most recent one. It
// returns once the issue-license call is confirmed
func (p *Provider) IssueLicense(
	ctx context.Context,
	target *ledger.Blake2b256,
	attribute ledger.FieldElement,
) (*ledger.LicenseEntry, error) {
	p.opMutex.Lock()
	defer p.opMutex.Unlock()
	op := "issue license"
	if !attribute.Valid() {
		return nil, protocol.NewValidationError(op, "attribute is not a field element")
	}
	if err := p.check(OP_ISSUE); err != nil {
		return nil, err
	}
	var req *ledger.Request
	var ok bool
	if target != nil {
		req, ok = p.requests.Take(*target)
		if !ok {
			return nil, &protocol.NotFoundError{Op: op, Key: "request " + target.String()}
		}
	} else {
		req, ok = p.requests.Pop()
		if !ok {
			return nil, &protocol.NotFoundError{Op: op, Key: "queued request"}
		}
	}
	if err := p.transition(OP_ISSUE); err != nil {
		p.requests.Restore(req)
		return nil, err
	}
	entry, err := p.issue(ctx, req, attribute)
	if err != nil {
		p.requests.Restore(req)
		if abortErr := p.transition(OP_ABORT); abortErr != nil {
			return nil, abortErr
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := p.transition(OP_CONFIRM); err != nil {
		return nil, err
	}
	return entry, nil
}

func (p *Provider) issue(
	ctx context.Context,
	req *ledger.Request,
	attribute ledger.FieldElement,
) (*ledger.LicenseEntry, error) {
	payload, err := req.Open(p.viewKey)
	if err != nil {
		return nil, &protocol.ProtocolError{Op: "open request", Err: err}
	}
	lic, err := ledger.NewLicense(payload, attribute, p.key, p.config.Rand)
	if err != nil {
		return nil, err
	}
	info, err := p.config.Contract.GetInfo(ctx)
	if err != nil {
		return nil, err
	}
	txID, err := p.config.Submitter.SubmitAndWait(
		ctx,
		&ledger.IssueLicenseArgs{
			License:  lic,
			Position: info.TreeLength,
			Request:  req.Hash(),
		},
		p.config.Contract.Contract(),
		protocol.MethodIssueLicense,
		p.config.Gas,
	)
	if err != nil {
		return nil, err
	}
	entry := &ledger.LicenseEntry{
		Position: info.TreeLength,
		License:  lic,
	}
	p.config.Logger.Info(
		"license issued",
		"component", "license",
		"role", p.name,
		"request", req.Hash().String(),
		"license", entry.Hash().String(),
		"position", entry.Position,
		"tx", txID.String(),
	)
	return entry, nil
}
