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
	"fmt"
)

// PayloadClass identifies a class of payload with its own size ceiling
type PayloadClass uint8

const (
	PayloadCall PayloadClass = iota
	PayloadRequest
	PayloadLicense
)

// Size ceilings for the payload classes. Oversized payloads are rejected, never truncated
const (
	MaxCallSize    = 64 * 1024
	MaxRequestSize = 8 * 1024
	MaxLicenseSize = 16 * 1024
)

func (c PayloadClass) String() string {
	switch c {
	case PayloadCall:
		return "call"
	case PayloadRequest:
		return "request"
	case PayloadLicense:
		return "license"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// MaxSize returns the size ceiling for the payload class
func (c PayloadClass) MaxSize() int {
	switch c {
	case PayloadRequest:
		return MaxRequestSize
	case PayloadLicense:
		return MaxLicenseSize
	default:
		return MaxCallSize
	}
}

// CheckSize returns a ValidationError if the payload exceeds the ceiling for its class
func CheckSize(op string, class PayloadClass, data []byte) error {
	if len(data) > class.MaxSize() {
		return NewValidationError(
			op,
			"%s payload is %d bytes, maximum is %d",
			class,
			len(data),
			class.MaxSize(),
		)
	}
	return nil
}
