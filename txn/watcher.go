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
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/metrics"
	"github.com/blinklabs-io/zklicense/protocol"
)

const (
	DefaultPollInterval = time.Second
	DefaultAttempts     = 30
)

// StatusSource reports transaction status. Unknown transactions are a NotFoundError
type StatusSource interface {
	TxStatus(ctx context.Context, id ledger.TxID) (*ledger.TxStatus, error)
}

// WatcherConfig is used to configure a Watcher
type WatcherConfig struct {
	Interval time.Duration
	Attempts int
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// WatcherOptionFunc represents a function used to modify the Watcher config
type WatcherOptionFunc func(*WatcherConfig)

// NewWatcherConfig returns a new Watcher config object with the provided options
func NewWatcherConfig(options ...WatcherOptionFunc) WatcherConfig {
	c := WatcherConfig{
		Interval: DefaultPollInterval,
		Attempts: DefaultAttempts,
	}
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithInterval specifies the delay between polls
func WithInterval(interval time.Duration) WatcherOptionFunc {
	return func(c *WatcherConfig) {
		c.Interval = interval
	}
}

// WithAttempts specifies the maximum number of polls
func WithAttempts(attempts int) WatcherOptionFunc {
	return func(c *WatcherConfig) {
		c.Attempts = attempts
	}
}

// WithWatcherLogger specifies the logger
func WithWatcherLogger(logger *slog.Logger) WatcherOptionFunc {
	return func(c *WatcherConfig) {
		c.Logger = logger
	}
}

// WithWatcherMetrics specifies the metrics collectors
func WithWatcherMetrics(m *metrics.Metrics) WatcherOptionFunc {
	return func(c *WatcherConfig) {
		c.Metrics = m
	}
}

// Watcher polls for transaction confirmation. It holds no per-transaction state, so one
// watcher can await any number of transactions concurrently
type Watcher struct {
	source StatusSource
	config WatcherConfig
}

func NewWatcher(source StatusSource, cfg WatcherConfig) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Watcher{
		source: source,
		config: cfg,
	}
}

// AwaitConfirmation polls the transaction status immediately and then once per interval.
// It returns nil once the transaction executed successfully, a ProtocolError as soon as
// it is reported failed, and a TimeoutError when the attempts run out while it is unknown
func (w *Watcher) AwaitConfirmation(ctx context.Context, id ledger.TxID) error {
	op := "await confirmation"
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for attempt := 1; attempt <= w.config.Attempts; attempt++ {
		if attempt > 1 {
			if timer == nil {
				timer = time.NewTimer(w.config.Interval)
			} else {
				timer.Reset(w.config.Interval)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
		status, err := w.source.TxStatus(ctx, id)
		if err != nil {
			if errors.Is(err, protocol.ErrNotFound) {
				w.config.Metrics.ConfirmationPoll(metrics.OutcomeNotFound)
				w.config.Logger.Debug(
					"transaction not yet known",
					"component", "txn",
					"tx", id.String(),
					"attempt", attempt,
				)
				continue
			}
			w.config.Metrics.ConfirmationPoll(metrics.Outcome(err))
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
		if status.Failed() {
			w.config.Metrics.ConfirmationPoll(metrics.OutcomeProtocol)
			return &protocol.ProtocolError{
				Op:     op,
				Reason: "transaction " + id.String() + " failed: " + *status.Err,
			}
		}
		w.config.Metrics.ConfirmationPoll(metrics.OutcomeSuccess)
		w.config.Logger.Debug(
			"transaction confirmed",
			"component", "txn",
			"tx", id.String(),
			"attempt", attempt,
		)
		return nil
	}
	return &protocol.TimeoutError{Op: op, Attempts: w.config.Attempts}
}
