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

// Package metrics provides Prometheus collectors for the scanner, the confirmation
// watcher, the contract query client and the license roles. A nil *Metrics is valid
// and records nothing.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultNamespace = "zklicense"

// Outcome labels
const (
	OutcomeSuccess   = "success"
	OutcomeNotFound  = "not_found"
	OutcomeTransport = "transport"
	OutcomeEncoding  = "encoding"
	OutcomeProtocol  = "protocol"
	OutcomeTimeout   = "timeout"
	OutcomeInvalid   = "invalid"
	OutcomeCanceled  = "canceled"
	OutcomeOther     = "other"
)

// Metrics holds the collectors
type Metrics struct {
	windowsScanned    prometheus.Counter
	transactionsSeen  prometheus.Counter
	ownedInserted     *prometheus.CounterVec
	undecodable       prometheus.Counter
	confirmationPolls *prometheus.CounterVec
	queries           *prometheus.CounterVec
	queryDuration     *prometheus.HistogramVec
	transitions       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	m := &Metrics{
		windowsScanned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scanner",
				Name:      "windows_total",
				Help:      "Total number of transaction windows fetched",
			},
		),
		transactionsSeen: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scanner",
				Name:      "matching_transactions_total",
				Help:      "Total number of transactions matching a scanner filter",
			},
		),
		ownedInserted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scanner",
				Name:      "owned_entries_total",
				Help:      "Total number of owned entries newly inserted into scanner state",
			},
			[]string{"kind"},
		),
		undecodable: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scanner",
				Name:      "undecodable_total",
				Help:      "Total number of matching transactions skipped because their call data did not decode",
			},
		),
		confirmationPolls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "watcher",
				Name:      "polls_total",
				Help:      "Total number of transaction status polls",
			},
			[]string{"outcome"},
		),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "calls_total",
				Help:      "Total number of contract queries",
			},
			[]string{"method", "outcome"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "duration_seconds",
				Help:      "Contract query latency",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"method"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "license",
				Name:      "transitions_total",
				Help:      "Total number of license role state transitions",
			},
			[]string{"role", "state"},
		),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{
			m.windowsScanned,
			m.transactionsSeen,
			m.ownedInserted,
			m.undecodable,
			m.confirmationPolls,
			m.queries,
			m.queryDuration,
			m.transitions,
		} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// WindowScanned records one fetched window and the number of matching transactions in it
func (m *Metrics) WindowScanned(matching int) {
	if m == nil {
		return
	}
	m.windowsScanned.Inc()
	m.transactionsSeen.Add(float64(matching))
}

// Undecodable records a matching transaction whose call data was skipped
func (m *Metrics) Undecodable() {
	if m == nil {
		return
	}
	m.undecodable.Inc()
}

// OwnedInserted records newly inserted owned entries of a kind (request, license)
func (m *Metrics) OwnedInserted(kind string, count int) {
	if m == nil {
		return
	}
	m.ownedInserted.WithLabelValues(kind).Add(float64(count))
}

// ConfirmationPoll records one status poll
func (m *Metrics) ConfirmationPoll(outcome string) {
	if m == nil {
		return
	}
	m.confirmationPolls.WithLabelValues(outcome).Inc()
}

// Query records one contract query
func (m *Metrics) Query(method string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(method, Outcome(err)).Inc()
	m.queryDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// Transition records a role entering a state
func (m *Metrics) Transition(role string, state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(role, state).Inc()
}

// Outcome maps an error onto an outcome label
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case errors.Is(err, protocol.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, protocol.ErrTransport):
		return OutcomeTransport
	case errors.Is(err, protocol.ErrEncoding):
		return OutcomeEncoding
	case errors.Is(err, protocol.ErrProtocol):
		return OutcomeProtocol
	case errors.Is(err, protocol.ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, protocol.ErrValidation):
		return OutcomeInvalid
	default:
		return OutcomeOther
	}
}
