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
	"fmt"
	"os"

	"github.com/blinklabs-io/zklicense/cmd/common"
)

const usage = `usage: zklicense [global flags] <subcommand> [flags]

subcommands:
  keygen          generate a key pair
  submit-request  request a license from an LP (User)
  list-requests   scan for requests addressed to this LP (LP)
  issue-license   answer a request with a license (LP)
  list-licenses   scan for licenses owned by this User (User)
  use-license     prove possession of a license and record a session (User)
  get-session     look up or verify a session (SP)
  show-state      print the contract state summary

use-license and get-session -verify must share the Groth16 keys in -zk-keys.
`

func main() {
	f := common.NewGlobalFlags()
	f.Parse()
	f.SetupLogger()

	if len(f.Flagset.Args()) == 0 {
		fmt.Print(usage)
		os.Exit(1)
	}
	ctx := context.Background()
	switch f.Flagset.Arg(0) {
	case "keygen":
		keygen(f)
	case "submit-request":
		submitRequest(ctx, f)
	case "list-requests":
		listRequests(ctx, f)
	case "issue-license":
		issueLicense(ctx, f)
	case "list-licenses":
		listLicenses(ctx, f)
	case "use-license":
		useLicense(ctx, f)
	case "get-session":
		getSession(ctx, f)
	case "show-state":
		showState(ctx, f)
	default:
		fmt.Printf("Unknown subcommand: %s\n\n", f.Flagset.Arg(0))
		fmt.Print(usage)
		os.Exit(1)
	}
}

func showState(ctx context.Context, f *common.GlobalFlags) {
	client := common.CreateClient(f)
	defer client.Close()
	info, err := client.Contract().GetInfo(ctx)
	if err != nil {
		common.Fatal("failed to get contract state", err)
	}
	fmt.Printf("requests:    %d\n", info.Requests)
	fmt.Printf("licenses:    %d\n", info.Licenses)
	fmt.Printf("sessions:    %d\n", info.Sessions)
	fmt.Printf("tree length: %d\n", info.TreeLength)
	fmt.Printf("tree root:   %s\n", info.Root)
}
