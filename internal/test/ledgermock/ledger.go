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

// Package ledgermock provides an in-memory ledger hosting the license contract, served
// over HTTP and WebSocket the way a real node serves it. Every accepted transaction is
// executed immediately in its own block.
package ledgermock

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/blinklabs-io/zklicense/cbor"
	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/blinklabs-io/zklicense/zk"
	"github.com/gorilla/websocket"
)

// DefaultChunkSize is the size of the writes used when streaming license entries
const DefaultChunkSize = 1000

// PathWebSocket is where the mock serves WebSocket queries
const PathWebSocket = "/ws"

var ErrDuplicateTransaction = errors.New("duplicate transaction")

// ProofVerifyFunc checks a session proof against its public inputs
type ProofVerifyFunc func(proof []byte, pub zk.PublicWitness) error

// Ledger is an in-memory ledger with the license contract deployed at one contract ID
type Ledger struct {
	mutex    sync.Mutex
	contract ledger.ContractID
	height   uint64
	txs      []ledger.Transaction
	statuses map[ledger.TxID]*txStatus
	requests map[ledger.Blake2b256]bool
	licenses []ledger.LicenseEntry
	tree     *zk.Tree
	roots    map[ledger.FieldElement]bool
	sessions map[ledger.FieldElement]*ledger.Session

	chunkSize         int
	confirmationDelay int
	verifyProof       ProofVerifyFunc
	badRequestIDs     bool

	server   *httptest.Server
	upgrader websocket.Upgrader
	wsConns  map[*websocket.Conn]struct{}
	wsWg     sync.WaitGroup
}

type txStatus struct {
	err          *string
	pendingPolls int
}

// LedgerOptionFunc is a type that represents functions that modify the Ledger config
type LedgerOptionFunc func(*Ledger)

// WithChunkSize specifies the size of each write of a license stream
func WithChunkSize(size int) LedgerOptionFunc {
	return func(l *Ledger) {
		l.chunkSize = size
	}
}

// WithConfirmationDelay makes the status of each transaction unknown for the first n polls
func WithConfirmationDelay(n int) LedgerOptionFunc {
	return func(l *Ledger) {
		l.confirmationDelay = n
	}
}

// WithProofVerifier makes use-license verify the submitted proof
func WithProofVerifier(verify ProofVerifyFunc) LedgerOptionFunc {
	return func(l *Ledger) {
		l.verifyProof = verify
	}
}

// WithBadRequestIDs makes WebSocket responses carry a request ID that does not match
func WithBadRequestIDs() LedgerOptionFunc {
	return func(l *Ledger) {
		l.badRequestIDs = true
	}
}

// New returns a ledger with the license contract deployed at contract. Call Start to serve it
func New(contract ledger.ContractID, opts ...LedgerOptionFunc) *Ledger {
	l := &Ledger{
		contract:  contract,
		statuses:  make(map[ledger.TxID]*txStatus),
		requests:  make(map[ledger.Blake2b256]bool),
		tree:      zk.NewTree(),
		roots:     make(map[ledger.FieldElement]bool),
		sessions:  make(map[ledger.FieldElement]*ledger.Session),
		chunkSize: DefaultChunkSize,
		wsConns:   make(map[*websocket.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.roots[l.tree.Root()] = true
	return l
}

// Start serves the ledger on a local test server
func (l *Ledger) Start() {
	l.server = httptest.NewServer(l.Handler())
}

// URL returns the base HTTP URL of the running server
func (l *Ledger) URL() string {
	return l.server.URL
}

// WebSocketURL returns the WebSocket URL of the running server
func (l *Ledger) WebSocketURL() string {
	return "ws" + strings.TrimPrefix(l.server.URL, "http") + PathWebSocket
}

// Close stops the server and any open WebSocket sessions
func (l *Ledger) Close() {
	l.mutex.Lock()
	for conn := range l.wsConns {
		conn.Close()
	}
	l.mutex.Unlock()
	if l.server != nil {
		l.server.Close()
	}
	l.wsWg.Wait()
}

// Contract returns the ID of the license contract
func (l *Ledger) Contract() ledger.ContractID {
	return l.contract
}

// Height returns the current top height
func (l *Ledger) Height() uint64 {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.height
}

// AdvanceHeight appends n empty blocks
func (l *Ledger) AdvanceHeight(n uint64) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.height += n
}

// AddTransaction records a raw contract call in a new block without executing it
func (l *Ledger) AddTransaction(
	contract ledger.ContractID,
	method string,
	callData []byte,
) ledger.TxID {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	id := ledger.TxID(ledger.Blake2b256Hash(append([]byte(method), callData...)))
	l.record(id, contract, method, callData, nil)
	return id
}

// Info returns the contract state summary
func (l *Ledger) Info() ledger.Info {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.info()
}

// Submit executes a signed transaction and records it in a new block. An error means the
// transaction was rejected outright; execution failures are only reported by its status
func (l *Ledger) Submit(txCbor []byte) (ledger.TxID, error) {
	tx, err := ledger.DecodeSignedTransaction(txCbor)
	if err != nil {
		return ledger.TxID{}, err
	}
	if err := tx.Verify(); err != nil {
		return ledger.TxID{}, err
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()
	id := tx.ID()
	if _, ok := l.statuses[id]; ok {
		return id, ErrDuplicateTransaction
	}
	execErr := l.execute(&tx.Call)
	var errMsg *string
	if execErr != nil {
		tmp := execErr.Error()
		errMsg = &tmp
	}
	l.record(id, tx.Call.Contract, tx.Call.Method, tx.Call.Args, errMsg)
	return id, nil
}

func (l *Ledger) record(
	id ledger.TxID,
	contract ledger.ContractID,
	method string,
	callData []byte,
	errMsg *string,
) {
	l.txs = append(
		l.txs,
		ledger.Transaction{
			ID:       id,
			Height:   l.height,
			Contract: contract,
			Method:   method,
			CallData: callData,
		},
	)
	l.height++
	l.statuses[id] = &txStatus{
		err:          errMsg,
		pendingPolls: l.confirmationDelay,
	}
}

func (l *Ledger) execute(call *ledger.Call) error {
	if call.Contract != l.contract {
		return fmt.Errorf("no contract %s", call.Contract)
	}
	switch call.Method {
	case protocol.MethodRequestLicense:
		req, err := ledger.DecodeRequest(call.Args)
		if err != nil {
			return err
		}
		l.requests[req.Hash()] = false
		return nil
	case protocol.MethodIssueLicense:
		var args ledger.IssueLicenseArgs
		if err := cbor.DecodeExact(call.Args, &args); err != nil {
			return err
		}
		return l.issueLicense(&args)
	case protocol.MethodUseLicense:
		var args ledger.UseLicenseArgs
		if err := cbor.DecodeExact(call.Args, &args); err != nil {
			return err
		}
		return l.useLicense(&args)
	default:
		return fmt.Errorf("method %q cannot be called in a transaction", call.Method)
	}
}

func (l *Ledger) issueLicense(args *ledger.IssueLicenseArgs) error {
	if args.License == nil {
		return errors.New("missing license")
	}
	answered, ok := l.requests[args.Request]
	if !ok {
		return fmt.Errorf("unknown request %s", args.Request)
	}
	if answered {
		return fmt.Errorf("request %s already answered", args.Request)
	}
	if err := args.License.VerifySignature(); err != nil {
		return err
	}
	if !args.License.Commitment.Valid() {
		return errors.New("commitment is not a field element")
	}
	if args.Position != l.tree.Len() {
		return fmt.Errorf(
			"position mismatch: expected %d, got %d",
			l.tree.Len(),
			args.Position,
		)
	}
	pos, err := l.tree.Append(args.License.Commitment)
	if err != nil {
		return err
	}
	l.requests[args.Request] = true
	l.roots[l.tree.Root()] = true
	l.licenses = append(
		l.licenses,
		ledger.LicenseEntry{Position: pos, License: args.License},
	)
	return nil
}

func (l *Ledger) useLicense(args *ledger.UseLicenseArgs) error {
	pub := args.PublicInputs
	if !l.roots[pub.Root] {
		return errors.New("unknown tree root")
	}
	if !pub.ChallengeValid() {
		return errors.New("challenge does not match keys and nonce")
	}
	if _, ok := l.sessions[pub.SessionID]; ok {
		return fmt.Errorf("session %s already exists", pub.SessionID)
	}
	if l.verifyProof != nil {
		if err := l.verifyProof(args.Proof, pub.Witness()); err != nil {
			return err
		}
	}
	l.sessions[pub.SessionID] = &ledger.Session{
		PublicInputs: pub,
		Proof:        args.Proof,
	}
	return nil
}

func (l *Ledger) info() ledger.Info {
	return ledger.Info{
		Requests:   uint64(len(l.requests)),
		Licenses:   uint64(len(l.licenses)),
		Sessions:   uint64(len(l.sessions)),
		TreeLength: l.tree.Len(),
		Root:       l.tree.Root(),
	}
}

// query answers a contract query. A nil result with no error means not found
func (l *Ledger) query(method string, args []byte) ([]byte, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	switch method {
	case protocol.MethodGetLicenses:
		var req ledger.GetLicensesArgs
		if err := cbor.DecodeExact(args, &req); err != nil {
			return nil, err
		}
		var ret []byte
		for _, entry := range l.licenses {
			if entry.Position < req.From || entry.Position >= req.To {
				continue
			}
			frame, err := entry.Frame()
			if err != nil {
				return nil, err
			}
			ret = append(ret, frame...)
		}
		if ret == nil {
			ret = []byte{}
		}
		return ret, nil
	case protocol.MethodGetMerkleOpening:
		var pos uint64
		if err := cbor.DecodeExact(args, &pos); err != nil {
			return nil, err
		}
		if pos >= l.tree.Len() {
			return []byte{cbor.CborNull}, nil
		}
		path, err := l.tree.Path(pos)
		if err != nil {
			return nil, err
		}
		return cbor.Encode(ledger.NewOpening(path))
	case protocol.MethodGetSession:
		var id ledger.FieldElement
		if err := cbor.DecodeExact(args, &id); err != nil {
			return nil, err
		}
		session, ok := l.sessions[id]
		if !ok {
			return []byte{cbor.CborNull}, nil
		}
		return cbor.Encode(session)
	case protocol.MethodGetInfo:
		info := l.info()
		return cbor.Encode(&info)
	default:
		return nil, fmt.Errorf("unknown method %q", method)
	}
}

func (l *Ledger) transactions(from uint64, to uint64) *ledger.TxWindow {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	ret := &ledger.TxWindow{
		TopHeight:    l.height,
		Transactions: []ledger.Transaction{},
	}
	for _, tx := range l.txs {
		if tx.Height >= from && tx.Height < to {
			ret.Transactions = append(ret.Transactions, tx)
		}
	}
	return ret
}

// status returns the status of a transaction, or false while it is unknown
func (l *Ledger) status(id ledger.TxID) (ledger.TxStatus, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	status, ok := l.statuses[id]
	if !ok {
		return ledger.TxStatus{}, false
	}
	if status.pendingPolls > 0 {
		status.pendingPolls--
		return ledger.TxStatus{}, false
	}
	return ledger.TxStatus{Err: status.err}, true
}
