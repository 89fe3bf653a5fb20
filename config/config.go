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

// Package config loads client settings from an optional YAML file and the environment.
// Environment variables use the ZKLICENSE_ prefix and take precedence over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "ZKLICENSE"

const (
	DefaultPollInterval = time.Second
	DefaultPollAttempts = 30
	DefaultGasLimit     = 1_000_000
	DefaultGasPrice     = 1
	DefaultLogLevel     = "info"
	DefaultZKKeyDir     = "zk-keys"
)

type Config struct {
	HTTPEndpoint      string        `yaml:"httpEndpoint"      envconfig:"HTTP_ENDPOINT"`
	WebSocketEndpoint string        `yaml:"webSocketEndpoint" envconfig:"WEBSOCKET_ENDPOINT"`
	Contract          string        `yaml:"contract"          envconfig:"CONTRACT"`
	KeyFile           string        `yaml:"keyFile"           envconfig:"KEY_FILE"`
	LPKey             string        `yaml:"lpKey"             envconfig:"LP_KEY"`
	ScanWindow        uint64        `yaml:"scanWindow"        envconfig:"SCAN_WINDOW"`
	PollInterval      time.Duration `yaml:"pollInterval"      envconfig:"POLL_INTERVAL"`
	PollAttempts      int           `yaml:"pollAttempts"      envconfig:"POLL_ATTEMPTS"`
	RateLimit         float64       `yaml:"rateLimit"         envconfig:"RATE_LIMIT"`
	RateBurst         int           `yaml:"rateBurst"         envconfig:"RATE_BURST"`
	GasLimit          uint64        `yaml:"gasLimit"          envconfig:"GAS_LIMIT"`
	GasPrice          uint64        `yaml:"gasPrice"          envconfig:"GAS_PRICE"`
	LogLevel          string        `yaml:"logLevel"          envconfig:"LOG_LEVEL"`
	ZKKeyDir          string        `yaml:"zkKeyDir"          envconfig:"ZK_KEY_DIR"`
}

// New returns a config with default values
func New() *Config {
	return &Config{
		ScanWindow:   protocol.DefaultScanWindow,
		PollInterval: DefaultPollInterval,
		PollAttempts: DefaultPollAttempts,
		RateBurst:    1,
		GasLimit:     DefaultGasLimit,
		GasPrice:     DefaultGasPrice,
		LogLevel:     DefaultLogLevel,
		ZKKeyDir:     DefaultZKKeyDir,
	}
}

// Load returns the defaults overridden by the YAML file, if a path is given, and then by
// the environment. The result is not validated, so that callers can apply their own
// overrides first
func Load(configFile string) (*Config, error) {
	cfg := New()
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	return cfg, nil
}

// Validate checks that the config describes a usable client
func (c *Config) Validate() error {
	op := "load config"
	if c.HTTPEndpoint == "" {
		return protocol.NewValidationError(op, "no HTTP endpoint configured")
	}
	if c.Contract == "" {
		return protocol.NewValidationError(op, "no contract configured")
	}
	if _, err := c.ContractID(); err != nil {
		return err
	}
	if c.ScanWindow == 0 {
		return protocol.NewValidationError(op, "scan window must be positive")
	}
	if c.PollInterval <= 0 || c.PollAttempts <= 0 {
		return protocol.NewValidationError(op, "confirmation polling needs a positive interval and attempt count")
	}
	if c.RateLimit < 0 {
		return protocol.NewValidationError(op, "rate limit must not be negative")
	}
	if _, err := c.Level(); err != nil {
		return protocol.NewValidationError(op, "%w", err)
	}
	return nil
}

// ContractID parses the configured contract
func (c *Config) ContractID() (ledger.ContractID, error) {
	return ledger.ParseContractID(c.Contract)
}

// Gas returns the configured gas for submitted calls
func (c *Config) Gas() ledger.Gas {
	return ledger.Gas{
		Limit: c.GasLimit,
		Price: c.GasPrice,
	}
}

// Level parses the configured log level
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, errors.New("invalid log level " + c.LogLevel)
	}
	return level, nil
}
