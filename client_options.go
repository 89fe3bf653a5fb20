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

package zklicense

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/license"
	"github.com/blinklabs-io/zklicense/metrics"
	"github.com/blinklabs-io/zklicense/txn"
	"golang.org/x/time/rate"
)

// ClientOptionFunc is a type that represents functions that modify the Client config
type ClientOptionFunc func(*Client)

// WithHTTPEndpoint specifies the base URL of the node's HTTP API
func WithHTTPEndpoint(endpoint string) ClientOptionFunc {
	return func(c *Client) {
		c.httpEndpoint = endpoint
	}
}

// WithWebSocketEndpoint specifies a WebSocket endpoint to send contract queries over. If
// none is provided, queries use the HTTP API
func WithWebSocketEndpoint(endpoint string) ClientOptionFunc {
	return func(c *Client) {
		c.webSocketEndpoint = endpoint
	}
}

// WithContract specifies the license contract
func WithContract(contract ledger.ContractID) ClientOptionFunc {
	return func(c *Client) {
		c.contractID = contract
		c.hasContract = true
	}
}

// WithLogger specifies the logger object to use
func WithLogger(logger *slog.Logger) ClientOptionFunc {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithScanWindow specifies the number of heights fetched per scan request
func WithScanWindow(window uint64) ClientOptionFunc {
	return func(c *Client) {
		c.scanWindow = window
	}
}

// WithConfirmation specifies how often and how many times transaction status is polled
func WithConfirmation(interval time.Duration, attempts int) ClientOptionFunc {
	return func(c *Client) {
		c.pollInterval = interval
		c.pollAttempts = attempts
	}
}

// WithGas specifies the gas attached to submitted calls
func WithGas(gas ledger.Gas) ClientOptionFunc {
	return func(c *Client) {
		c.gas = gas
	}
}

// WithSigner specifies the signer for submitted transactions. By default the identity key
// of each role signs its own transactions
func WithSigner(signer txn.Signer) ClientOptionFunc {
	return func(c *Client) {
		c.signer = signer
	}
}

// WithProver specifies the prover Users compute session proofs with
func WithProver(prover license.Prover) ClientOptionFunc {
	return func(c *Client) {
		c.prover = prover
	}
}

// WithVerifier specifies the verifier SPs check session proofs with
func WithVerifier(verifier license.Verifier) ClientOptionFunc {
	return func(c *Client) {
		c.verifier = verifier
	}
}

// WithMetrics specifies the metrics collectors to update
func WithMetrics(m *metrics.Metrics) ClientOptionFunc {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithRateLimit limits the rate of HTTP requests to the node
func WithRateLimit(limit rate.Limit, burst int) ClientOptionFunc {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithHTTPClient specifies the HTTP client to use
func WithHTTPClient(client *http.Client) ClientOptionFunc {
	return func(c *Client) {
		c.httpClient = client
	}
}
