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
	"flag"
	"fmt"
	"math/big"
	"os"

	"github.com/blinklabs-io/zklicense"
	"github.com/blinklabs-io/zklicense/cmd/common"
	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/license"
	"github.com/blinklabs-io/zklicense/zk"
)

func newProvider(ctx context.Context, f *common.GlobalFlags) (*license.Provider, *zklicense.Client) {
	key := common.LoadKey(f)
	client := common.CreateClient(f)
	provider, err := client.NewProvider(key)
	if err != nil {
		common.Fatal("failed to create provider", err)
	}
	count, err := provider.Scan(ctx)
	if err != nil {
		common.Fatal("failed to scan requests", err)
	}
	fmt.Printf("found %d requests\n", count)
	return provider, client
}

func listRequests(ctx context.Context, f *common.GlobalFlags) {
	provider, client := newProvider(ctx, f)
	defer client.Close()
	for _, req := range provider.ListRequests() {
		fmt.Printf("request: %s\n", req.Hash())
	}
}

type issueLicenseFlags struct {
	flagset   *flag.FlagSet
	request   string
	attribute string
}

func newIssueLicenseFlags() *issueLicenseFlags {
	f := &issueLicenseFlags{
		flagset: flag.NewFlagSet("issue-license", flag.ExitOnError),
	}
	f.flagset.StringVar(&f.request, "request", "", "hash of the request to answer (default: most recent)")
	f.flagset.StringVar(&f.attribute, "attribute", "", "attribute value in decimal")
	return f
}

func issueLicense(ctx context.Context, f *common.GlobalFlags) {
	issueFlags := newIssueLicenseFlags()
	if err := issueFlags.flagset.Parse(f.Flagset.Args()[1:]); err != nil {
		fmt.Printf("failed to parse subcommand args: %s\n", err)
		os.Exit(1)
	}
	attribute := parseAttribute(issueFlags.attribute)
	var target *ledger.Blake2b256
	if issueFlags.request != "" {
		hash, err := ledger.ParseBlake2b256(issueFlags.request)
		if err != nil {
			common.Fatal("invalid -request", err)
		}
		target = &hash
	}
	provider, client := newProvider(ctx, f)
	defer client.Close()
	entry, err := provider.IssueLicense(ctx, target, attribute)
	if err != nil {
		common.Fatal("failed to issue license", err)
	}
	fmt.Printf("license %s issued at position %d\n", entry.Hash(), entry.Position)
}

func parseAttribute(value string) ledger.FieldElement {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok || v.Sign() < 0 || v.BitLen() > 8*zk.ElementSize {
		fmt.Printf("ERROR: -attribute must be a non-negative decimal number\n")
		os.Exit(1)
	}
	var ret ledger.FieldElement
	v.FillBytes(ret[:])
	if !ret.Valid() {
		fmt.Printf("ERROR: -attribute is too large\n")
		os.Exit(1)
	}
	return ret
}
