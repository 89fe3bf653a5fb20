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

package protocol

import (
	"errors"
	"fmt"
)

// Error kinds. Every typed error below matches exactly one of these with errors.Is
var (
	ErrTransport  = errors.New("transport error")
	ErrEncoding   = errors.New("encoding error")
	ErrProtocol   = errors.New("protocol error")
	ErrNotFound   = errors.New("not found")
	ErrTimeout    = errors.New("timeout")
	ErrValidation = errors.New("validation error")
)

// ErrCorrelationMismatch is wrapped by a ProtocolError when a response does not echo the request ID
var ErrCorrelationMismatch = errors.New("request ID mismatch")

// TransportError represents a connection or I/O failure talking to the ledger
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %s", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// EncodingError represents a malformed or corrupt binary payload
type EncodingError struct {
	Op  string
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: encoding: %s", e.Op, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

// ProtocolError represents an explicit failure reported by the ledger, or a
// response that does not belong to the request it answers
type ProtocolError struct {
	Op     string
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: protocol: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: protocol: %s", e.Op, e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }

// NotFoundError represents an absent transaction, session, opening or stream match
type NotFoundError struct {
	Op  string
	Key string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: not found", e.Op)
	}
	return fmt.Sprintf("%s: %s not found", e.Op, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TimeoutError represents an exhausted confirmation attempt budget
type TimeoutError struct {
	Op       string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %d attempts", e.Op, e.Attempts)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// ValidationError represents malformed caller input
type ValidationError struct {
	Op  string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid input: %s", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewEncodingError is a convenience for the most common error in this package's callers
func NewEncodingError(op string, err error) error {
	return &EncodingError{Op: op, Err: err}
}

// NewValidationError builds a ValidationError from a message
func NewValidationError(op string, format string, args ...any) error {
	return &ValidationError{Op: op, Err: fmt.Errorf(format, args...)}
}
