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
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/blinklabs-io/zklicense"
	"github.com/blinklabs-io/zklicense/cmd/common"
	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/zk"
)

type getSessionFlags struct {
	flagset *flag.FlagSet
	session string
	lp      string
	nonce   string
	verify  bool
}

func newGetSessionFlags() *getSessionFlags {
	f := &getSessionFlags{
		flagset: flag.NewFlagSet("get-session", flag.ExitOnError),
	}
	f.flagset.StringVar(&f.session, "session", "", "session ID in hex")
	f.flagset.BoolVar(&f.verify, "verify", false, "verify the session as the SP holding -key")
	f.flagset.StringVar(&f.lp, "lp", "", "public key of the trusted LP, for -verify")
	f.flagset.StringVar(&f.nonce, "nonce", "", "challenge nonce in hex, for -verify")
	return f
}

func getSession(ctx context.Context, f *common.GlobalFlags) {
	sessionFlags := newGetSessionFlags()
	if err := sessionFlags.flagset.Parse(f.Flagset.Args()[1:]); err != nil {
		fmt.Printf("failed to parse subcommand args: %s\n", err)
		os.Exit(1)
	}
	sessionID, err := zk.ParseElement(sessionFlags.session)
	if err != nil {
		common.Fatal("invalid -session", err)
	}
	var session *ledger.Session
	if sessionFlags.verify {
		lp := common.LPKey(f, sessionFlags.lp)
		nonce := parseNonce(sessionFlags.nonce)
		key := common.LoadKey(f)
		zkCtx := common.ZKContext(f)
		client := common.CreateClient(f, zklicense.WithVerifier(zkCtx))
		defer client.Close()
		service, err := client.NewService(key, lp)
		if err != nil {
			common.Fatal("failed to create service", err)
		}
		session, err = service.VerifySession(ctx, sessionID, nonce)
		if err != nil {
			common.Fatal("session not verified", err)
		}
		fmt.Printf("session verified\n")
	} else {
		client := common.CreateClient(f)
		defer client.Close()
		session, err = client.Contract().GetSession(ctx, sessionID)
		if err != nil {
			common.Fatal("failed to get session", err)
		}
	}
	pub := session.PublicInputs
	fmt.Printf("session:   %s\n", pub.SessionID)
	fmt.Printf("root:      %s\n", pub.Root)
	fmt.Printf("attribute: %s\n", pub.Attribute.BigInt())
	fmt.Printf("lp:        %s\n", hex.EncodeToString(pub.LPKey[:]))
	fmt.Printf("sp:        %s\n", hex.EncodeToString(pub.SPKey[:]))
	fmt.Printf("nonce:     %s\n", hex.EncodeToString(pub.Nonce[:]))
}
