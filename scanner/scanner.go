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

// Package scanner reads contract calls from the ledger in bounded height windows and
// keeps the entries a view key recognizes.
package scanner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/zklicense/keys"
	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/blinklabs-io/zklicense/rpc"
)

// Entry is a scanned item addressed to a stealth address and identified by content hash
type Entry interface {
	Hash() ledger.Blake2b256
	Address() keys.StealthAddress
}

// Owner decides whether a stealth address belongs to it. keys.ViewKey is an Owner
type Owner interface {
	Owns(addr keys.StealthAddress) bool
}

// Filter selects the calls of one method of one contract
type Filter struct {
	Contract ledger.ContractID
	Method   string
}

func (f Filter) Match(tx *ledger.Transaction) bool {
	return tx.Contract == f.Contract && tx.Method == f.Method
}

// Extractor decodes an entry from call data
type Extractor[T any] func(callData []byte) (T, error)

// Scanner scans the ledger for calls matching its filter
type Scanner[T Entry] struct {
	node    rpc.Node
	filter  Filter
	extract Extractor[T]
	config  Config
}

// New returns a scanner reading from node
func New[T Entry](
	node rpc.Node,
	filter Filter,
	extract Extractor[T],
	cfg Config,
) *Scanner[T] {
	if cfg.Window == 0 {
		cfg.Window = protocol.DefaultScanWindow
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scanner[T]{
		node:    node,
		filter:  filter,
		extract: extract,
		config:  cfg,
	}
}

// ScanWindow fetches the transactions with heights in [begin, end) in one request and
// returns the decoded matching entries, along with the top height the node reported
func (s *Scanner[T]) ScanWindow(
	ctx context.Context,
	begin uint64,
	end uint64,
) ([]T, uint64, error) {
	window, err := s.node.Transactions(ctx, begin, end)
	if err != nil {
		return nil, 0, fmt.Errorf("scan window [%d, %d): %w", begin, end, err)
	}
	var ret []T
	matching := 0
	for i := range window.Transactions {
		tx := &window.Transactions[i]
		if !s.filter.Match(tx) {
			continue
		}
		matching++
		item, err := s.extract(tx.CallData)
		if err != nil {
			// Anyone can call the contract with arbitrary data
			s.config.Metrics.Undecodable()
			s.config.Logger.Warn(
				"skipping undecodable call",
				"component", "scanner",
				"tx", tx.ID.String(),
				"method", tx.Method,
				"error", err,
			)
			continue
		}
		ret = append(ret, item)
	}
	s.config.Metrics.WindowScanned(matching)
	s.config.Logger.Debug(
		"scanned window",
		"component", "scanner",
		"method", s.filter.Method,
		"begin", begin,
		"end", end,
		"top", window.TopHeight,
		"matching", matching,
	)
	return ret, window.TopHeight, nil
}

// ScanRange scans [begin, end) in consecutive windows, stopping early once a window
// reaches the node's reported top height. It returns the last reported top height
func (s *Scanner[T]) ScanRange(
	ctx context.Context,
	begin uint64,
	end uint64,
) ([]T, uint64, error) {
	var ret []T
	var top uint64
	for cur := begin; cur < end; {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		windowEnd := min(cur+s.config.Window, end)
		// Guard against overflow at the top of the height range
		if windowEnd < cur {
			windowEnd = end
		}
		items, observedTop, err := s.ScanWindow(ctx, cur, windowEnd)
		if err != nil {
			return nil, 0, err
		}
		ret = append(ret, items...)
		top = observedTop
		if observedTop <= windowEnd {
			break
		}
		cur = windowEnd
	}
	return ret, top, nil
}

// ScanOwned scans [begin, end) and inserts the entries owner recognizes into state. It
// returns the number of newly inserted entries and the last reported top height
func (s *Scanner[T]) ScanOwned(
	ctx context.Context,
	begin uint64,
	end uint64,
	owner Owner,
	state *State[T],
) (int, uint64, error) {
	items, top, err := s.ScanRange(ctx, begin, end)
	if err != nil {
		return 0, 0, err
	}
	inserted := Collect(items, owner, state)
	s.config.Metrics.OwnedInserted(s.config.Kind, inserted)
	return inserted, top, nil
}

// Collect inserts the entries owner recognizes into state and returns the number of new ones
func Collect[T Entry](items []T, owner Owner, state *State[T]) int {
	inserted := 0
	for _, item := range items {
		if !owner.Owns(item.Address()) {
			continue
		}
		if state.Insert(item) {
			inserted++
		}
	}
	return inserted
}
