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

package metrics_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/blinklabs-io/zklicense/metrics"
	"github.com/blinklabs-io/zklicense/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.WindowScanned(3)
	m.Undecodable()
	m.OwnedInserted("request", 1)
	m.ConfirmationPoll(metrics.OutcomeSuccess)
	m.Query("get_info", time.Now(), nil)
	m.Transition("user", "Init")
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New("", reg)
	require.NoError(t, err)
	m.WindowScanned(2)
	m.WindowScanned(0)
	m.ConfirmationPoll(metrics.OutcomeNotFound)
	m.ConfirmationPoll(metrics.OutcomeNotFound)
	m.Query("get_info", time.Now(), &protocol.NotFoundError{Op: "get"})
	m.OwnedInserted("license", 4)

	count, err := testutil.GatherAndCount(reg, "zklicense_scanner_windows_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = testutil.GatherAndCount(reg, "zklicense_watcher_polls_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Registering twice fails
	_, err = metrics.New("", reg)
	assert.Error(t, err)
}

func TestOutcome(t *testing.T) {
	testDefs := []struct {
		err     error
		outcome string
	}{
		{nil, metrics.OutcomeSuccess},
		{fmt.Errorf("wrapped: %w", context.Canceled), metrics.OutcomeCanceled},
		{&protocol.NotFoundError{Op: "x"}, metrics.OutcomeNotFound},
		{&protocol.TransportError{Op: "x", Err: errors.New("y")}, metrics.OutcomeTransport},
		{protocol.NewEncodingError("x", errors.New("y")), metrics.OutcomeEncoding},
		{&protocol.ProtocolError{Op: "x"}, metrics.OutcomeProtocol},
		{&protocol.TimeoutError{Op: "x"}, metrics.OutcomeTimeout},
		{protocol.NewValidationError("x", "y"), metrics.OutcomeInvalid},
		{errors.New("other"), metrics.OutcomeOther},
	}
	for _, testDef := range testDefs {
		assert.Equal(t, testDef.outcome, metrics.Outcome(testDef.err))
	}
}
