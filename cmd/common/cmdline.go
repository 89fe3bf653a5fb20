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
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/blinklabs-io/zklicense/config"
)

type GlobalFlags struct {
	Flagset           *flag.FlagSet
	ConfigFile        string
	HTTPEndpoint      string
	WebSocketEndpoint string
	Contract          string
	KeyFile           string
	LogLevel          string
	ZKKeyDir          string
	Config            *config.Config
}

func NewGlobalFlags() *GlobalFlags {
	f := &GlobalFlags{
		Flagset: flag.NewFlagSet(os.Args[0], flag.ExitOnError),
	}
	f.Flagset.StringVar(
		&f.ConfigFile,
		"config",
		"",
		"path to YAML config file",
	)
	f.Flagset.StringVar(
		&f.HTTPEndpoint,
		"http",
		"",
		"base URL of the node HTTP API",
	)
	f.Flagset.StringVar(
		&f.WebSocketEndpoint,
		"ws",
		"",
		"WebSocket URL to send contract queries over",
	)
	f.Flagset.StringVar(
		&f.Contract,
		"contract",
		"",
		"license contract ID in hex",
	)
	f.Flagset.StringVar(
		&f.KeyFile,
		"key",
		"",
		"path to the secret key file",
	)
	f.Flagset.StringVar(
		&f.LogLevel,
		"log-level",
		"",
		"log level (debug, info, warn, error)",
	)
	f.Flagset.StringVar(
		&f.ZKKeyDir,
		"zk-keys",
		"",
		"directory holding the Groth16 proving and verifying keys",
	)
	return f
}

// Parse parses the command line and loads the config, which the flags override
func (f *GlobalFlags) Parse() {
	if err := f.Flagset.Parse(os.Args[1:]); err != nil {
		fmt.Printf("failed to parse command args: %s\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(f.ConfigFile)
	if err != nil {
		fmt.Printf("failed to load config: %s\n", err)
		os.Exit(1)
	}
	if f.HTTPEndpoint != "" {
		cfg.HTTPEndpoint = f.HTTPEndpoint
	}
	if f.WebSocketEndpoint != "" {
		cfg.WebSocketEndpoint = f.WebSocketEndpoint
	}
	if f.Contract != "" {
		cfg.Contract = f.Contract
	}
	if f.KeyFile != "" {
		cfg.KeyFile = f.KeyFile
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.ZKKeyDir != "" {
		cfg.ZKKeyDir = f.ZKKeyDir
	}
	f.Config = cfg
}

// SetupLogger installs a text logger on stderr at the configured level
func (f *GlobalFlags) SetupLogger() {
	level, err := f.Config.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(
		slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
		),
	)
}
