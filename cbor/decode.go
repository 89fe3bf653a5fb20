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

package cbor

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"sync"

	_cbor "github.com/fxamacker/cbor/v2"
	"github.com/jinzhu/copier"
)

var (
	cachedDecMode     _cbor.DecMode
	cachedDecModeErr  error
	cachedDecModeOnce sync.Once
)

// getDecMode returns a cached DecMode, initializing it on first use.
// Returns the cached error if initialization failed.
func getDecMode() (_cbor.DecMode, error) {
	cachedDecModeOnce.Do(func() {
		decOptions := _cbor.DecOptions{
			ExtraReturnErrors: _cbor.ExtraDecErrorUnknownField,
			DupMapKey:         _cbor.DupMapKeyEnforcedAPF,
			IndefLength:       _cbor.IndefLengthForbidden,
			MaxNestedLevels:   32,
		}
		cachedDecMode, cachedDecModeErr = decOptions.DecMode()
	})
	return cachedDecMode, cachedDecModeErr
}

// Decode decodes the first CBOR data item into dest and returns the number of bytes read.
// Any data after the first item is left untouched
func Decode(dataBytes []byte, dest any) (int, error) {
	decMode, err := getDecMode()
	if err != nil {
		return 0, err
	}
	if decMode == nil {
		return 0, errors.New("CBOR decoder mode not initialized")
	}
	dec := decMode.NewDecoder(bytes.NewReader(dataBytes))
	err = dec.Decode(dest)
	return dec.NumBytesRead(), err
}

// Wellformed checks that the provided data is exactly one well-formed CBOR data item
// without materializing any value from it
func Wellformed(dataBytes []byte) error {
	decMode, err := getDecMode()
	if err != nil {
		return err
	}
	if decMode == nil {
		return errors.New("CBOR decoder mode not initialized")
	}
	return decMode.Wellformed(dataBytes)
}

// DecodeExact validates the provided data and then decodes it into dest. Unlike Decode,
// trailing data after the first item is an error
func DecodeExact(dataBytes []byte, dest any) error {
	if len(dataBytes) == 0 {
		return errors.New("no CBOR data")
	}
	if err := Wellformed(dataBytes); err != nil {
		return fmt.Errorf("malformed CBOR: %w", err)
	}
	decMode, err := getDecMode()
	if err != nil {
		return err
	}
	return decMode.Unmarshal(dataBytes, dest)
}

var (
	decodeGenericTypeCache      = map[reflect.Type]reflect.Type{}
	decodeGenericTypeCacheMutex sync.RWMutex
)

// DecodeGeneric decodes the specified CBOR into the destination object without using the
// destination object's UnmarshalCBOR() function
func DecodeGeneric(cborData []byte, dest any) error {
	valueDest := reflect.ValueOf(dest)
	if valueDest.Kind() != reflect.Pointer ||
		valueDest.Elem().Kind() != reflect.Struct {
		return errors.New("destination must be a pointer to a struct")
	}
	typeDest := valueDest.Elem().Type()
	// Check type cache
	decodeGenericTypeCacheMutex.RLock()
	tmpTypeDest, ok := decodeGenericTypeCache[typeDest]
	decodeGenericTypeCacheMutex.RUnlock()
	if !ok {
		tmpTypeDest = genericStructType(typeDest)
		decodeGenericTypeCacheMutex.Lock()
		decodeGenericTypeCache[typeDest] = tmpTypeDest
		decodeGenericTypeCacheMutex.Unlock()
	}
	// Decode CBOR into temporary object
	tmpDest := reflect.New(tmpTypeDest)
	if _, err := Decode(cborData, tmpDest.Interface()); err != nil {
		return err
	}
	// Copy values from temporary object into destination object
	return copier.Copy(dest, tmpDest.Interface())
}
