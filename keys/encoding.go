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

package keys

import (
	"fmt"

	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/btcsuite/btcd/btcutil/bech32"
)

// Human readable prefixes for the bech32 text form of keys
const (
	PublicKeyPrefix = "zklpk"
	SecretKeyPrefix = "zklsk"
)

func (pk PublicKey) String() string {
	return encodeBech32(PublicKeyPrefix, pk.Bytes())
}

// MarshalText implements encoding.TextMarshaler
func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (pk *PublicKey) UnmarshalText(text []byte) error {
	tmp, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*pk = tmp
	return nil
}

// ParsePublicKey decodes the bech32 text form of a public key
func ParsePublicKey(s string) (PublicKey, error) {
	data, err := decodeBech32(PublicKeyPrefix, s)
	if err != nil {
		return PublicKey{}, protocol.NewValidationError("parse public key", "%w", err)
	}
	pk, err := NewPublicKey(data)
	if err != nil {
		return PublicKey{}, protocol.NewValidationError("parse public key", "%w", err)
	}
	return pk, nil
}

// Text returns the bech32 text form of the secret key
func (sk *SecretKey) Text() string {
	return encodeBech32(SecretKeyPrefix, sk.Bytes())
}

// ParseSecretKey decodes the bech32 text form of a secret key
func ParseSecretKey(s string) (*SecretKey, error) {
	data, err := decodeBech32(SecretKeyPrefix, s)
	if err != nil {
		return nil, protocol.NewValidationError("parse secret key", "%w", err)
	}
	sk, err := NewSecretKey(data)
	if err != nil {
		return nil, protocol.NewValidationError("parse secret key", "%w", err)
	}
	return sk, nil
}

func encodeBech32(prefix string, data []byte) string {
	// Convert data to base32 and encode as bech32
	convData, err := bech32.ConvertBits(data, 8, 5, true)
	if err != nil {
		panic(
			fmt.Sprintf("unexpected error converting data to base32: %s", err),
		)
	}
	encoded, err := bech32.Encode(prefix, convData)
	if err != nil {
		panic(fmt.Sprintf("unexpected error encoding data as bech32: %s", err))
	}
	return encoded
}

func decodeBech32(prefix string, s string) ([]byte, error) {
	// Keys are longer than the 90 character limit of BIP-173
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return nil, fmt.Errorf("decode bech32: %w", err)
	}
	if hrp != prefix {
		return nil, fmt.Errorf("unexpected prefix %q, wanted %q", hrp, prefix)
	}
	decoded, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("convert bech32 data: %w", err)
	}
	return decoded, nil
}
