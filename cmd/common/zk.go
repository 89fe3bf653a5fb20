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
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blinklabs-io/zklicense/zk"
)

const (
	provingKeyFile   = "proving.key"
	verifyingKeyFile = "verifying.key"
)

// ZKContext loads the Groth16 keys from the configured directory. When the directory holds
// no keys yet, it runs the setup and saves them there. It exits on failure
func ZKContext(f *GlobalFlags) *zk.Context {
	dir := f.Config.ZKKeyDir
	if dir == "" {
		fmt.Printf("ERROR: you must specify a key directory with -zk-keys\n")
		os.Exit(1)
	}
	zkCtx, err := loadZKContext(dir)
	if err == nil {
		return zkCtx
	}
	if !errors.Is(err, fs.ErrNotExist) {
		Fatal("failed to load zk keys", err)
	}
	slog.Info("no zk keys found, running setup", "dir", dir)
	zkCtx, err = zk.Setup()
	if err != nil {
		Fatal("failed to set up zk keys", err)
	}
	if err := saveZKContext(dir, zkCtx); err != nil {
		Fatal("failed to save zk keys", err)
	}
	return zkCtx
}

func loadZKContext(dir string) (*zk.Context, error) {
	pkFile, err := os.Open(filepath.Join(dir, provingKeyFile))
	if err != nil {
		return nil, err
	}
	defer pkFile.Close()
	vkFile, err := os.Open(filepath.Join(dir, verifyingKeyFile))
	if err != nil {
		return nil, err
	}
	defer vkFile.Close()
	return zk.Load(pkFile, vkFile)
}

func saveZKContext(dir string, zkCtx *zk.Context) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	pkFile, err := os.Create(filepath.Join(dir, provingKeyFile))
	if err != nil {
		return err
	}
	defer pkFile.Close()
	vkFile, err := os.Create(filepath.Join(dir, verifyingKeyFile))
	if err != nil {
		return err
	}
	defer vkFile.Close()
	if err := zkCtx.WriteKeys(pkFile, vkFile); err != nil {
		return err
	}
	if err := pkFile.Sync(); err != nil {
		return err
	}
	return vkFile.Sync()
}
