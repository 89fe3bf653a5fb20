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

// Package license drives the license lifecycle for the three protocol roles. A User
// requests a license from an LP, the LP issues it to the ledger, the User proves
// possession of it to open a session and an SP verifies that session.
package license

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/metrics"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/blinklabs-io/zklicense/query"
	"github.com/blinklabs-io/zklicense/rpc"
	"github.com/blinklabs-io/zklicense/txn"
	"github.com/blinklabs-io/zklicense/zk"
)

var ErrSessionRejected = errors.New("session rejected")

// Prover computes session proofs. *zk.Context is a Prover
type Prover interface {
	Prove(ctx context.Context, w zk.Witness) ([]byte, error)
}

// Verifier checks session proofs. *zk.Context is a Verifier
type Verifier interface {
	Verify(proof []byte, pub zk.PublicWitness) error
}

// Challenge is issued by an SP to a User. It names the LP whose license must be used,
// the SP itself and a fresh nonce
type Challenge struct {
	LPKey [ed25519.PublicKeySize]byte
	SPKey [ed25519.PublicKeySize]byte
	Nonce [ledger.NonceSize]byte
}

// Value returns the field element the session proof is bound to
func (c Challenge) Value() ledger.FieldElement {
	return ledger.DeriveChallenge(c.LPKey, c.SPKey, c.Nonce)
}

// Config holds the ledger access shared by all roles
type Config struct {
	Node       rpc.Node
	Contract   *query.LicenseContract
	Submitter  *txn.Submitter
	ScanWindow uint64
	Gas        ledger.Gas
	Rand       io.Reader
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// ConfigOptionFunc is a type that represents functions that modify the role config
type ConfigOptionFunc func(*Config)

// NewConfig returns a new role config object with the provided options applied
func NewConfig(options ...ConfigOptionFunc) Config {
	c := Config{
		ScanWindow: protocol.DefaultScanWindow,
		Gas:        txn.DefaultGas,
		Rand:       rand.Reader,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithNode specifies the node used for scanning
func WithNode(node rpc.Node) ConfigOptionFunc {
	return func(c *Config) {
		c.Node = node
	}
}

// WithContract specifies the license contract to query
func WithContract(contract *query.LicenseContract) ConfigOptionFunc {
	return func(c *Config) {
		c.Contract = contract
	}
}

// WithSubmitter specifies the submitter used for contract calls. It must have a watcher
func WithSubmitter(submitter *txn.Submitter) ConfigOptionFunc {
	return func(c *Config) {
		c.Submitter = submitter
	}
}

// WithScanWindow specifies the number of heights fetched per scan request
func WithScanWindow(window uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.ScanWindow = window
	}
}

// WithGas specifies the gas attached to submitted calls
func WithGas(gas ledger.Gas) ConfigOptionFunc {
	return func(c *Config) {
		c.Gas = gas
	}
}

// WithRand specifies the randomness source for keys, secrets and nonces
func WithRand(rand io.Reader) ConfigOptionFunc {
	return func(c *Config) {
		c.Rand = rand
	}
}

// WithLogger specifies the logger object to use
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics specifies the metrics collectors to update
func WithMetrics(m *metrics.Metrics) ConfigOptionFunc {
	return func(c *Config) {
		c.Metrics = m
	}
}

func (c *Config) validate(role string, needNode bool, needSubmitter bool) error {
	op := "new " + role
	if c.Contract == nil {
		return protocol.NewValidationError(op, "no license contract configured")
	}
	if needNode && c.Node == nil {
		return protocol.NewValidationError(op, "no node configured")
	}
	if needSubmitter && c.Submitter == nil {
		return protocol.NewValidationError(op, "no submitter configured")
	}
	if c.Rand == nil {
		c.Rand = rand.Reader
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.ScanWindow == 0 {
		c.ScanWindow = protocol.DefaultScanWindow
	}
	return nil
}

// role holds what every role shares: its state machine and ledger access
type role struct {
	name    string
	machine *protocol.StateMachine
	config  Config
	// serializes operations
	opMutex sync.Mutex
}

func newRole(name string, stateMap protocol.StateMap, initial protocol.State, cfg Config) role {
	return role{
		name:    name,
		machine: protocol.NewStateMachine(stateMap, initial),
		config:  cfg,
	}
}

// State returns the current lifecycle state
func (r *role) State() protocol.State {
	return r.machine.Current()
}

// ShowState returns the contract state summary
func (r *role) ShowState(ctx context.Context) (*ledger.Info, error) {
	info, err := r.config.Contract.GetInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("show state: %w", err)
	}
	return info, nil
}

// check fails if op is not allowed in the current state
func (r *role) check(op string) error {
	_, err := r.machine.Next(op)
	return err
}

func (r *role) transition(op string) error {
	from := r.machine.Current()
	to, err := r.machine.Transition(op)
	if err != nil {
		return err
	}
	r.config.Metrics.Transition(r.name, to.Name)
	if from != to {
		r.config.Logger.Info(
			"state transition",
			"component", "license",
			"role", r.name,
			"op", op,
			"from", from.Name,
			"to", to.Name,
		)
	}
	return nil
}
