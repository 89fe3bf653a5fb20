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

// Package zklicense implements anonymous licensing on top of a ledger with smart contract
// support. A User obtains a license from a License Provider without revealing who it is,
// and later proves possession of it to a Service Provider with a zero-knowledge proof.
//
// This package is the main entry point into this library. It wires the transports,
// query client, transaction submitter and confirmation watcher together and hands out
// the role objects from the license package.
package zklicense

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/blinklabs-io/zklicense/keys"
	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/license"
	"github.com/blinklabs-io/zklicense/metrics"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/blinklabs-io/zklicense/query"
	"github.com/blinklabs-io/zklicense/rpc"
	"github.com/blinklabs-io/zklicense/txn"
	"golang.org/x/time/rate"
)

// The Client type holds the connections to a ledger node and the license contract
type Client struct {
	httpEndpoint      string
	webSocketEndpoint string
	contractID        ledger.ContractID
	hasContract       bool
	logger            *slog.Logger
	scanWindow        uint64
	pollInterval      time.Duration
	pollAttempts      int
	gas               ledger.Gas
	signer            txn.Signer
	prover            license.Prover
	verifier          license.Verifier
	metrics           *metrics.Metrics
	limiter           *rate.Limiter
	httpClient        *http.Client
	// Components
	node      *rpc.HTTPClient
	webSocket *rpc.WebSocketClient
	query     *query.Client
	contract  *query.LicenseContract
	watcher   *txn.Watcher
	onceClose sync.Once
}

// NewClient returns a new Client object with the specified options. An HTTP endpoint and
// a contract are required
func NewClient(options ...ClientOptionFunc) (*Client, error) {
	c := &Client{
		scanWindow:   protocol.DefaultScanWindow,
		pollInterval: txn.DefaultPollInterval,
		pollAttempts: txn.DefaultAttempts,
		gas:          txn.DefaultGas,
	}
	// Apply provided options functions
	for _, option := range options {
		option(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.httpEndpoint == "" {
		return nil, protocol.NewValidationError("new client", "no HTTP endpoint specified")
	}
	if !c.hasContract {
		return nil, protocol.NewValidationError("new client", "no contract specified")
	}
	if err := c.setup(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) setup() error {
	httpOpts := []rpc.HTTPOptionFunc{
		rpc.WithHTTPLogger(c.logger),
	}
	if c.httpClient != nil {
		httpOpts = append(httpOpts, rpc.WithHTTPClient(c.httpClient))
	}
	if c.limiter != nil {
		httpOpts = append(httpOpts, rpc.WithRateLimiter(c.limiter))
	}
	node, err := rpc.NewHTTPClient(c.httpEndpoint, httpOpts...)
	if err != nil {
		return err
	}
	c.node = node
	var transport rpc.Transport = node
	if c.webSocketEndpoint != "" {
		ws, err := rpc.NewWebSocketClient(
			c.webSocketEndpoint,
			rpc.WithWebSocketLogger(c.logger),
		)
		if err != nil {
			return err
		}
		c.webSocket = ws
		transport = ws
	}
	// License streams always use the HTTP transport
	c.query = query.NewClient(
		transport,
		query.WithStreamTransport(node),
		query.WithMetrics(c.metrics),
		query.WithLogger(c.logger),
	)
	c.contract = query.NewLicenseContract(c.query, c.contractID)
	c.watcher = txn.NewWatcher(
		node,
		txn.NewWatcherConfig(
			txn.WithInterval(c.pollInterval),
			txn.WithAttempts(c.pollAttempts),
			txn.WithWatcherLogger(c.logger),
			txn.WithWatcherMetrics(c.metrics),
		),
	)
	return nil
}

// Connect opens the WebSocket connection, if one is configured. Calls connect on demand
// otherwise
func (c *Client) Connect(ctx context.Context) error {
	if c.webSocket == nil {
		return nil
	}
	return c.webSocket.Connect(ctx)
}

// Close closes the WebSocket connection, if any
func (c *Client) Close() error {
	var err error
	c.onceClose.Do(func() {
		if c.webSocket != nil {
			err = c.webSocket.Close()
		}
	})
	return err
}

// Node returns the node client used for scanning, status polling and broadcasting
func (c *Client) Node() *rpc.HTTPClient {
	return c.node
}

// Query returns the contract query client
func (c *Client) Query() *query.Client {
	return c.query
}

// Contract returns the license contract wrapper
func (c *Client) Contract() *query.LicenseContract {
	return c.contract
}

// Watcher returns the confirmation watcher
func (c *Client) Watcher() *txn.Watcher {
	return c.watcher
}

// Submitter returns a submitter signing with the configured signer, or with the identity
// key of key when no signer is configured
func (c *Client) Submitter(key *keys.SecretKey) (*txn.Submitter, error) {
	signer := c.signer
	if signer == nil {
		if key == nil {
			return nil, protocol.NewValidationError("new submitter", "no signer or key specified")
		}
		signer = txn.NewSigner(key)
	}
	return txn.NewSubmitter(
		c.node,
		signer,
		txn.WithWatcher(c.watcher),
		txn.WithSubmitterLogger(c.logger),
	), nil
}

// RoleConfig returns the ledger access for a role holding key
func (c *Client) RoleConfig(key *keys.SecretKey) (license.Config, error) {
	submitter, err := c.Submitter(key)
	if err != nil {
		return license.Config{}, err
	}
	return license.NewConfig(
		license.WithNode(c.node),
		license.WithContract(c.contract),
		license.WithSubmitter(submitter),
		license.WithScanWindow(c.scanWindow),
		license.WithGas(c.gas),
		license.WithLogger(c.logger),
		license.WithMetrics(c.metrics),
	), nil
}

// NewUser returns a User holding key
func (c *Client) NewUser(key *keys.SecretKey) (*license.User, error) {
	cfg, err := c.RoleConfig(key)
	if err != nil {
		return nil, err
	}
	return license.NewUser(key, c.prover, cfg)
}

// NewProvider returns an LP holding key
func (c *Client) NewProvider(key *keys.SecretKey) (*license.Provider, error) {
	cfg, err := c.RoleConfig(key)
	if err != nil {
		return nil, err
	}
	return license.NewProvider(key, cfg)
}

// NewService returns an SP holding key that trusts licenses issued by lp
func (c *Client) NewService(key *keys.SecretKey, lp keys.PublicKey) (*license.Service, error) {
	cfg, err := c.RoleConfig(key)
	if err != nil {
		return nil, err
	}
	return license.NewService(key, lp, c.verifier, cfg)
}
