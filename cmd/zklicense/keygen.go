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

package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"os"

	"github.com/blinklabs-io/zklicense/cmd/common"
	"github.com/blinklabs-io/zklicense/keys"
)

type keygenFlags struct {
	flagset *flag.FlagSet
	out     string
}

func newKeygenFlags() *keygenFlags {
	f := &keygenFlags{
		flagset: flag.NewFlagSet("keygen", flag.ExitOnError),
	}
	f.flagset.StringVar(&f.out, "out", "", "write the secret key to this file instead of stdout")
	return f
}

func keygen(f *common.GlobalFlags) {
	keygenFlags := newKeygenFlags()
	if err := keygenFlags.flagset.Parse(f.Flagset.Args()[1:]); err != nil {
		fmt.Printf("failed to parse subcommand args: %s\n", err)
		os.Exit(1)
	}
	key, err := keys.GenerateKey(rand.Reader)
	if err != nil {
		common.Fatal("failed to generate key", err)
	}
	public, err := key.Public()
	if err != nil {
		common.Fatal("failed to derive public key", err)
	}
	if keygenFlags.out != "" {
		if err := os.WriteFile(keygenFlags.out, []byte(key.Text()+"\n"), 0o600); err != nil {
			common.Fatal("failed to write key file", err)
		}
	} else {
		fmt.Printf("secret key: %s\n", key.Text())
	}
	fmt.Printf("public key: %s\n", public)
}
