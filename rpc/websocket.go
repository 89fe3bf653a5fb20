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

package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/blinklabs-io/zklicense/ledger"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/gorilla/websocket"
)

const DefaultHandshakeTimeout = 10 * time.Second

// WebSocketClient performs contract queries over one long-lived WebSocket connection.
// Calls are serialized: exactly one request is in flight at a time. The connection is
// dialed on first use and redialed after a transport failure
type WebSocketClient struct {
	mutex      sync.Mutex
	url        string
	dialer     *websocket.Dialer
	conn       *websocket.Conn
	requestIDs bool
	nextID     uint64
	logger     *slog.Logger
}

// WebSocketOptionFunc is a type that represents functions that modify the WebSocketClient config
type WebSocketOptionFunc func(*WebSocketClient)

// WithRequestIDs specifies whether requests carry an ID that responses must echo. This is
// enabled by default
func WithRequestIDs(enabled bool) WebSocketOptionFunc {
	return func(c *WebSocketClient) {
		c.requestIDs = enabled
	}
}

// WithDialer specifies the websocket dialer
func WithDialer(dialer *websocket.Dialer) WebSocketOptionFunc {
	return func(c *WebSocketClient) {
		c.dialer = dialer
	}
}

// WithWebSocketLogger specifies the logger
func WithWebSocketLogger(logger *slog.Logger) WebSocketOptionFunc {
	return func(c *WebSocketClient) {
		c.logger = logger
	}
}

// NewWebSocketClient returns a client for the ws:// or wss:// endpoint. No connection is
// made until Connect or the first Call
func NewWebSocketClient(
	endpoint string,
	opts ...WebSocketOptionFunc,
) (*WebSocketClient, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, protocol.NewValidationError("parse endpoint", "%s", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, protocol.NewValidationError(
			"parse endpoint",
			"unsupported scheme %q",
			u.Scheme,
		)
	}
	c := &WebSocketClient{
		url:        u.String(),
		requestIDs: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dialer == nil {
		c.dialer = &websocket.Dialer{
			HandshakeTimeout: DefaultHandshakeTimeout,
		}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Connect dials the endpoint if not already connected
func (c *WebSocketClient) Connect(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.connect(ctx)
}

func (c *WebSocketClient) connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return &protocol.TransportError{Op: "websocket dial", Err: err}
	}
	c.conn = conn
	c.logger.Debug(
		"connected",
		"component", "rpc",
		"url", c.url,
	)
	return nil
}

// Close closes the connection. The client can be used again afterwards
func (c *WebSocketClient) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	closeErr := c.conn.Close()
	c.conn = nil
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return err
	}
	return closeErr
}

// Call performs a contract query over the connection
func (c *WebSocketClient) Call(
	ctx context.Context,
	contract ledger.ContractID,
	method string,
	args []byte,
) ([]byte, error) {
	op := "call " + method
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	req := WSRequest{
		Contract: contract,
		Method:   method,
		Args:     args,
	}
	var id uint64
	if c.requestIDs {
		c.nextID++
		id = c.nextID
		req.RequestID = &id
	}
	conn := c.conn
	// Deadlines follow the context, and cancellation interrupts a blocked read
	deadline, _ := ctx.Deadline()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return nil, c.fail(ctx, op, err)
	}
	if err := conn.WriteJSON(req); err != nil {
		return nil, c.fail(ctx, op, err)
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, c.fail(ctx, op, err)
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, c.fail(ctx, op, err)
	}
	var resp WSResponse
	if err := json.Unmarshal(msg, &resp); err != nil {
		return nil, protocol.NewEncodingError(op, err)
	}
	if c.requestIDs {
		if resp.RequestID == nil || *resp.RequestID != id {
			// The stream is out of step with our requests, so start over on a new connection
			c.drop()
			return nil, &protocol.ProtocolError{
				Op:  op,
				Err: fmt.Errorf("%w: sent %d", protocol.ErrCorrelationMismatch, id),
			}
		}
	}
	if resp.Error != "" {
		return nil, &protocol.ProtocolError{Op: op, Reason: resp.Error}
	}
	return resp.Data, nil
}

// fail drops the broken connection and reports the cause
func (c *WebSocketClient) fail(ctx context.Context, op string, err error) error {
	c.drop()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &protocol.TransportError{Op: op, Err: err}
}

func (c *WebSocketClient) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
