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

package ledgermock

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/blinklabs-io/zklicense/rpc"
)

// Handler returns the HTTP handler serving the node endpoints
func (l *Ledger) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+rpc.PathContracts+"/{contract}/{method}", l.handleContract)
	mux.HandleFunc("GET "+rpc.PathStatus+"/{key}", l.handleStatus)
	mux.HandleFunc("GET "+rpc.PathTransactions, l.handleTransactions)
	mux.HandleFunc("POST "+rpc.PathTransactions, l.handleBroadcast)
	mux.HandleFunc("GET "+PathWebSocket, l.handleWebSocket)
	return mux
}

func (l *Ledger) handleContract(w http.ResponseWriter, r *http.Request) {
	contract, err := ledger.ParseContractID(r.PathValue("contract"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if contract != l.contract {
		http.Error(w, "unknown contract", http.StatusNotFound)
		return
	}
	args, err := io.ReadAll(io.LimitReader(r.Body, protocol.MaxCallSize+1))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	method := r.PathValue("method")
	result, err := l.query(method, args)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	if method != protocol.MethodGetLicenses {
		_, _ = w.Write(result)
		return
	}
	// Streams go out in chunks that do not line up with entry boundaries
	flusher, _ := w.(http.Flusher)
	for len(result) > 0 {
		n := min(l.chunkSize, len(result))
		if _, err := w.Write(result[:n]); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		result = result[n:]
	}
}

func (l *Ledger) handleStatus(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == rpc.TopHeightKey {
		writeJSON(w, rpc.TopHeightResponse{Height: l.Height()})
		return
	}
	id, err := ledger.ParseTxID(key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	status, ok := l.status(id)
	if !ok {
		http.Error(w, "unknown transaction", http.StatusNotFound)
		return
	}
	writeJSON(w, status)
}

func (l *Ledger) handleTransactions(w http.ResponseWriter, r *http.Request) {
	from, err := strconv.ParseUint(r.URL.Query().Get("from"), 10, 64)
	if err != nil {
		http.Error(w, "invalid from", http.StatusBadRequest)
		return
	}
	to, err := strconv.ParseUint(r.URL.Query().Get("to"), 10, 64)
	if err != nil {
		http.Error(w, "invalid to", http.StatusBadRequest)
		return
	}
	writeJSON(w, l.transactions(from, to))
}

func (l *Ledger) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, protocol.MaxCallSize+1))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := l.Submit(body)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrDuplicateTransaction) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, rpc.BroadcastResponse{ID: id})
}

func (l *Ledger) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	l.mutex.Lock()
	l.wsConns[conn] = struct{}{}
	l.wsWg.Add(1)
	l.mutex.Unlock()
	defer func() {
		l.mutex.Lock()
		delete(l.wsConns, conn)
		l.mutex.Unlock()
		conn.Close()
		l.wsWg.Done()
	}()
	for {
		var req rpc.WSRequest
		if err := conn.ReadJSON(&req); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				continue
			}
			return
		}
		resp := rpc.WSResponse{RequestID: req.RequestID}
		if l.badRequestIDs && req.RequestID != nil {
			bad := *req.RequestID + 1000
			resp.RequestID = &bad
		}
		switch {
		case req.Contract != l.contract:
			resp.Error = "unknown contract " + req.Contract.String()
		default:
			data, err := l.query(req.Method, req.Args)
			if err != nil {
				resp.Error = err.Error()
			} else {
				resp.Data = data
			}
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, strings.TrimSpace(err.Error()), http.StatusInternalServerError)
	}
}
