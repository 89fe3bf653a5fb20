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
	"github.com/blinklabs-io/zklicense/cbor"
	"github.com/blinklabs-io/zklicense/cmd/common"
	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/license"
)

type submitRequestFlags struct {
	flagset *flag.FlagSet
	lp      string
}

func newSubmitRequestFlags() *submitRequestFlags {
	f := &submitRequestFlags{
		flagset: flag.NewFlagSet("submit-request", flag.ExitOnError),
	}
	f.flagset.StringVar(&f.lp, "lp", "", "public key of the LP to request a license from")
	return f
}

func submitRequest(ctx context.Context, f *common.GlobalFlags) {
	requestFlags := newSubmitRequestFlags()
	if err := requestFlags.flagset.Parse(f.Flagset.Args()[1:]); err != nil {
		fmt.Printf("failed to parse subcommand args: %s\n", err)
		os.Exit(1)
	}
	lp := common.LPKey(f, requestFlags.lp)
	key := common.LoadKey(f)
	client := common.CreateClient(f)
	defer client.Close()
	user, err := client.NewUser(key)
	if err != nil {
		common.Fatal("failed to create user", err)
	}
	req, err := user.SubmitRequest(ctx, lp)
	if err != nil {
		common.Fatal("failed to submit request", err)
	}
	fmt.Printf("request: %s\n", req.Hash())
}

func listLicenses(ctx context.Context, f *common.GlobalFlags) {
	key := common.LoadKey(f)
	client := common.CreateClient(f)
	defer client.Close()
	user, err := client.NewUser(key)
	if err != nil {
		common.Fatal("failed to create user", err)
	}
	entries, err := user.ListLicenses(ctx)
	if err != nil {
		common.Fatal("failed to list licenses", err)
	}
	for _, entry := range entries {
		fmt.Printf(
			"position %d: license %s issued by %s\n",
			entry.Position,
			entry.Hash(),
			hex.EncodeToString(entry.License.Issuer[:]),
		)
	}
}

type useLicenseFlags struct {
	flagset *flag.FlagSet
	license string
	sp      string
	nonce   string
}

func newUseLicenseFlags() *useLicenseFlags {
	f := &useLicenseFlags{
		flagset: flag.NewFlagSet("use-license", flag.ExitOnError),
	}
	f.flagset.StringVar(&f.license, "license", "", "hash of the license to use (default: most recent)")
	f.flagset.StringVar(&f.sp, "sp", "", "public key of the SP")
	f.flagset.StringVar(&f.nonce, "nonce", "", "challenge nonce from the SP in hex")
	return f
}

func useLicense(ctx context.Context, f *common.GlobalFlags) {
	useFlags := newUseLicenseFlags()
	if err := useFlags.flagset.Parse(f.Flagset.Args()[1:]); err != nil {
		fmt.Printf("failed to parse subcommand args: %s\n", err)
		os.Exit(1)
	}
	sp := common.ParsePublicKey("sp", useFlags.sp)
	nonce := parseNonce(useFlags.nonce)
	var target *ledger.Blake2b256
	if useFlags.license != "" {
		hash, err := ledger.ParseBlake2b256(useFlags.license)
		if err != nil {
			common.Fatal("invalid -license", err)
		}
		target = &hash
	}
	key := common.LoadKey(f)
	zkCtx := common.ZKContext(f)
	client := common.CreateClient(f, zklicense.WithProver(zkCtx))
	defer client.Close()
	user, err := client.NewUser(key)
	if err != nil {
		common.Fatal("failed to create user", err)
	}
	owned, err := user.ObtainLicense(ctx, target)
	if err != nil {
		common.Fatal("failed to obtain license", err)
	}
	challenge := license.Challenge{
		LPKey: owned.Entry.License.Issuer,
		SPKey: sp.Identity,
		Nonce: nonce,
	}
	cookie, err := user.ComputeProof(ctx, owned, challenge)
	if err != nil {
		common.Fatal("failed to compute proof", err)
	}
	txID, err := user.UseLicense(ctx, cookie)
	if err != nil {
		common.Fatal("failed to use license", err)
	}
	cookieCbor, err := cbor.Encode(cookie)
	if err != nil {
		common.Fatal("failed to encode session cookie", err)
	}
	fmt.Printf("transaction: %s\n", txID)
	fmt.Printf("session:     %s\n", cookie.SessionID)
	fmt.Printf("attribute:   %s\n", cookie.Attribute.BigInt())
	fmt.Printf("cookie:      %x\n", cookieCbor)
}

func parseNonce(value string) [ledger.NonceSize]byte {
	var ret [ledger.NonceSize]byte
	data, err := hex.DecodeString(value)
	if err != nil || len(data) != ledger.NonceSize {
		fmt.Printf("ERROR: -nonce must be %d bytes of hex\n", ledger.NonceSize)
		os.Exit(1)
	}
	copy(ret[:], data)
	return ret
}
