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
	"errors"
	"reflect"
	"sync"

	_cbor "github.com/fxamacker/cbor/v2"
	"github.com/jinzhu/copier"
)

var (
	cachedEncMode     _cbor.EncMode
	cachedEncModeErr  error
	cachedEncModeOnce sync.Once
)

// getEncMode returns a cached EncMode using the core deterministic encoding rules
func getEncMode() (_cbor.EncMode, error) {
	cachedEncModeOnce.Do(func() {
		opts := _cbor.CoreDetEncOptions()
		// Fixed-size byte arrays are always byte strings, never arrays of integers
		opts.ByteArray = _cbor.ByteArrayToByteSlice
		cachedEncMode, cachedEncModeErr = opts.EncMode()
	})
	return cachedEncMode, cachedEncModeErr
}

// Encode produces the canonical encoding of the provided value. Encoding the same value
// twice always produces the same bytes
func Encode(data any) ([]byte, error) {
	em, err := getEncMode()
	if err != nil {
		return nil, err
	}
	if em == nil {
		return nil, errors.New("CBOR encoder mode not initialized")
	}
	return em.Marshal(data)
}

var (
	encodeGenericTypeCache      = map[reflect.Type]reflect.Type{}
	encodeGenericTypeCacheMutex sync.RWMutex
)

// EncodeGeneric encodes the specified object to CBOR without using the source object's
// MarshalCBOR() function
func EncodeGeneric(src any) ([]byte, error) {
	valueSrc := reflect.ValueOf(src)
	if valueSrc.Kind() != reflect.Pointer ||
		valueSrc.Elem().Kind() != reflect.Struct {
		return nil, errors.New("source must be a pointer to a struct")
	}
	typeSrc := valueSrc.Elem().Type()
	// Check type cache
	encodeGenericTypeCacheMutex.RLock()
	tmpTypeSrc, ok := encodeGenericTypeCache[typeSrc]
	encodeGenericTypeCacheMutex.RUnlock()
	if !ok {
		// Create a duplicate(-ish) struct from the source
		// We do this so that we can bypass any custom MarshalCBOR() function on the
		// source object
		tmpTypeSrc = genericStructType(typeSrc)
		encodeGenericTypeCacheMutex.Lock()
		encodeGenericTypeCache[typeSrc] = tmpTypeSrc
		encodeGenericTypeCacheMutex.Unlock()
	}
	// Copy values from source object into temporary object
	tmpSrc := reflect.New(tmpTypeSrc)
	if err := copier.Copy(tmpSrc.Interface(), src); err != nil {
		return nil, err
	}
	return Encode(tmpSrc.Interface())
}

// genericStructType builds a struct type with the exported fields of the provided type,
// minus any embedded DecodeStoreCbor
func genericStructType(t reflect.Type) reflect.Type {
	fields := []reflect.StructField{}
	for i := range t.NumField() {
		tmpField := t.Field(i)
		if tmpField.IsExported() && tmpField.Name != "DecodeStoreCbor" {
			fields = append(fields, tmpField)
		}
	}
	return reflect.StructOf(fields)
}
