// Copyright 2026 Simbig
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

package sentrymux

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/simbig/sentrymux/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDSN = "https://abc123@sentry.example.com/1"

type transportMock struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (t *transportMock) Configure(_ sentry.ClientOptions) {}

func (t *transportMock) SendEvent(event *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *transportMock) Flush(_ time.Duration) bool {
	return true
}

func (t *transportMock) Events() []*sentry.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*sentry.Event(nil), t.events...)
}

// newTestHub returns a hub bound to a client that delivers into an in-memory
// transport.
func newTestHub(t *testing.T) (*sentry.Hub, *transportMock) {
	t.Helper()
	transport := &transportMock{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:       testDSN,
		Transport: transport,
	})
	require.NoError(t, err)
	return sentry.NewHub(client, sentry.NewScope()), transport
}

func TestReporterClassification(t *testing.T) {
	tests := []struct {
		name            string
		capture         func(rep Reporter, ctx context.Context, err error) *sentry.EventID
		expectedHandled bool
	}{
		{
			"report flags events as handled",
			Reporter.Report,
			true,
		},
		{
			"capture unhandled flags events as unhandled",
			Reporter.CaptureUnhandled,
			false,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			hub, transport := newTestHub(t)
			ctx := sentry.SetHubOnContext(context.Background(), hub)
			registry := prometheus.NewRegistry()
			rep := NewReporter(NewMetrics(registry, true))

			eventID := test.capture(rep, ctx, errors.New("boom"))
			require.NotNil(t, eventID)

			events := transport.Events()
			require.Len(t, events, 1)
			require.NotEmpty(t, events[0].Exception)
			for _, exception := range events[0].Exception {
				require.NotNil(t, exception.Mechanism)
				assert.Equal(t, "generic", exception.Mechanism.Type)
				require.NotNil(t, exception.Mechanism.Handled)
				assert.Equal(t, test.expectedHandled, *exception.Mechanism.Handled)
			}
			label := strconv.FormatBool(test.expectedHandled)
			assert.Equal(t, 1.0, testutil.ToFloat64(rep.metrics.captures.WithLabelValues(label)))
		})
	}
}

func TestReporterNilError(t *testing.T) {
	hub, transport := newTestHub(t)
	ctx := sentry.SetHubOnContext(context.Background(), hub)
	assert.Nil(t, Report(ctx, nil))
	assert.Nil(t, CaptureUnhandled(ctx, nil))
	assert.Empty(t, transport.Events())
}

func TestReporterWithoutClient(t *testing.T) {
	hub := sentry.NewHub(nil, sentry.NewScope())
	ctx := sentry.SetHubOnContext(context.Background(), hub)
	assert.Nil(t, Report(ctx, errors.New("boom")))
}

func TestReporterFallsBackToProcessHub(t *testing.T) {
	transport := &transportMock{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:       testDSN,
		Transport: transport,
	})
	require.NoError(t, err)
	sentry.CurrentHub().BindClient(client)
	defer sentry.CurrentHub().BindClient(nil)

	eventID := Report(context.Background(), errors.New("boom"))
	require.NotNil(t, eventID)
	assert.Len(t, transport.Events(), 1)
}

func TestReporterAppliesTransactionState(t *testing.T) {
	hub, transport := newTestHub(t)
	ctx := sentry.SetHubOnContext(context.Background(), hub)

	state := transaction.NewState()
	state.Set("users.show")
	hub.Scope().AddEventProcessor(applyTransaction(state))

	require.NotNil(t, Report(ctx, errors.New("boom")))
	events := transport.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "users.show", events[0].Transaction)
}
