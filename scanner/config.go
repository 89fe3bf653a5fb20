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

package scanner

import (
	"log/slog"

	"github.com/blinklabs-io/zklicense/metrics"
	"github.com/blinklabs-io/zklicense/protocol"
)

// Config is used to configure a Scanner
type Config struct {
	// Window is the number of heights fetched per request
	Window  uint64
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Kind labels the scanned entries in metrics
	Kind string
}

// ScannerOptionFunc represents a function used to modify the Scanner config
type ScannerOptionFunc func(*Config)

// NewConfig returns a new Scanner config object with the provided options
func NewConfig(options ...ScannerOptionFunc) Config {
	c := Config{
		Window: protocol.DefaultScanWindow,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithWindow specifies the number of heights fetched per request
func WithWindow(window uint64) ScannerOptionFunc {
	return func(c *Config) {
		c.Window = window
	}
}

// WithLogger specifies the logger
func WithLogger(logger *slog.Logger) ScannerOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics specifies the metrics collectors
func WithMetrics(m *metrics.Metrics) ScannerOptionFunc {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithKind specifies the metrics label for scanned entries
func WithKind(kind string) ScannerOptionFunc {
	return func(c *Config) {
		c.Kind = kind
	}
}
