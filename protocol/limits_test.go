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

package protocol_test

import (
	"testing"

	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/stretchr/testify/assert"
)

func TestPayloadCeilings(t *testing.T) {
	testDefs := []struct {
		class   protocol.PayloadClass
		maxSize int
		name    string
	}{
		{protocol.PayloadCall, 64 * 1024, "call"},
		{protocol.PayloadRequest, 8 * 1024, "request"},
		{protocol.PayloadLicense, 16 * 1024, "license"},
	}
	for _, testDef := range testDefs {
		assert.Equal(t, testDef.maxSize, testDef.class.MaxSize())
		assert.Equal(t, testDef.name, testDef.class.String())
		assert.NoError(
			t,
			protocol.CheckSize("test", testDef.class, make([]byte, testDef.maxSize)),
		)
		err := protocol.CheckSize("test", testDef.class, make([]byte, testDef.maxSize+1))
		assert.ErrorIs(t, err, protocol.ErrValidation, testDef.name)
	}
}

func TestUnknownPayloadClass(t *testing.T) {
	c := protocol.PayloadClass(9)
	assert.Equal(t, "unknown(9)", c.String())
	assert.Equal(t, protocol.MaxCallSize, c.MaxSize())
}
