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

package common

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/blinklabs-io/zklicense"
	"github.com/blinklabs-io/zklicense/keys"
	"golang.org/x/time/rate"
)

// CreateClient validates the config and builds a client from it. It exits on failure
func CreateClient(f *GlobalFlags, opts ...zklicense.ClientOptionFunc) *zklicense.Client {
	cfg := f.Config
	if err := cfg.Validate(); err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	contract, err := cfg.ContractID()
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	clientOpts := []zklicense.ClientOptionFunc{
		zklicense.WithHTTPEndpoint(cfg.HTTPEndpoint),
		zklicense.WithContract(contract),
		zklicense.WithLogger(slog.Default()),
		zklicense.WithScanWindow(cfg.ScanWindow),
		zklicense.WithConfirmation(cfg.PollInterval, cfg.PollAttempts),
		zklicense.WithGas(cfg.Gas()),
	}
	if cfg.WebSocketEndpoint != "" {
		clientOpts = append(clientOpts, zklicense.WithWebSocketEndpoint(cfg.WebSocketEndpoint))
	}
	if cfg.RateLimit > 0 {
		clientOpts = append(clientOpts, zklicense.WithRateLimit(rate.Limit(cfg.RateLimit), cfg.RateBurst))
	}
	clientOpts = append(clientOpts, opts...)
	client, err := zklicense.NewClient(clientOpts...)
	if err != nil {
		fmt.Printf("ERROR: failed to create client: %s\n", err)
		os.Exit(1)
	}
	return client
}

// LoadKey reads the secret key file named by the config. It exits on failure
func LoadKey(f *GlobalFlags) *keys.SecretKey {
	if f.Config.KeyFile == "" {
		fmt.Printf("ERROR: you must specify a key file with -key\n")
		os.Exit(1)
	}
	data, err := os.ReadFile(f.Config.KeyFile)
	if err != nil {
		fmt.Printf("ERROR: failed to read key file: %s\n", err)
		os.Exit(1)
	}
	key, err := keys.ParseSecretKey(strings.TrimSpace(string(data)))
	if err != nil {
		fmt.Printf("ERROR: failed to parse key file: %s\n", err)
		os.Exit(1)
	}
	return key
}

// ParsePublicKey parses a public key given on the command line. It exits on failure
func ParsePublicKey(name string, value string) keys.PublicKey {
	if value == "" {
		fmt.Printf("ERROR: you must specify -%s\n", name)
		os.Exit(1)
	}
	pk, err := keys.ParsePublicKey(value)
	if err != nil {
		fmt.Printf("ERROR: invalid -%s: %s\n", name, err)
		os.Exit(1)
	}
	return pk
}

// LPKey returns the LP public key from the flag value, falling back to the config
func LPKey(f *GlobalFlags, value string) keys.PublicKey {
	if value == "" {
		value = f.Config.LPKey
	}
	return ParsePublicKey("lp", value)
}

// Fatal prints the error and exits
func Fatal(msg string, err error) {
	fmt.Printf("ERROR: %s: %s\n", msg, err)
	os.Exit(1)
}
