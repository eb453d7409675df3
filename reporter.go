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

	"github.com/getsentry/sentry-go"
)

// mechanismType tags events produced by this integration. The handled flag on
// the mechanism, not the type, distinguishes the two capture paths.
const mechanismType = "generic"

// Reporter captures exceptions as Sentry events. The zero value is usable and
// records no metrics.
type Reporter struct {
	metrics Metrics
}

// NewReporter returns a Reporter that counts captures in the given metrics
// bundle.
func NewReporter(metrics Metrics) Reporter {
	return Reporter{metrics: metrics}
}

// Report captures an exception that application code caught and chose to
// report. The resulting event is flagged handled.
func (rep Reporter) Report(ctx context.Context, err error) *sentry.EventID {
	return rep.capture(ctx, err, true)
}

// CaptureUnhandled captures an exception that surfaced through a top-level
// recovery path rather than application code. The resulting event is flagged
// unhandled.
func (rep Reporter) CaptureUnhandled(ctx context.Context, err error) *sentry.EventID {
	return rep.capture(ctx, err, false)
}

// capture produces exactly one event per invocation. The mechanism rides on
// the event's exception entries because the Go SDK's EventHint carries no
// mechanism field.
func (rep Reporter) capture(ctx context.Context, err error, handled bool) *sentry.EventID {
	if err == nil {
		return nil
	}
	hub := hubFromContext(ctx)
	client := hub.Client()
	if client == nil {
		return nil
	}
	event := client.EventFromException(err, sentry.LevelError)
	for i := range event.Exception {
		event.Exception[i].Mechanism = &sentry.Mechanism{
			Type:    mechanismType,
			Handled: &handled,
		}
	}
	hint := &sentry.EventHint{
		Context:           ctx,
		OriginalException: err,
	}
	rep.metrics.recordCapture(handled)
	return client.CaptureEvent(event, hint, hub.Scope())
}

// Report captures a handled exception on the default reporter. See
// Reporter.Report.
func Report(ctx context.Context, err error) *sentry.EventID {
	return Reporter{}.Report(ctx, err)
}

// CaptureUnhandled captures an unhandled exception on the default reporter.
// See Reporter.CaptureUnhandled.
func CaptureUnhandled(ctx context.Context, err error) *sentry.EventID {
	return Reporter{}.CaptureUnhandled(ctx, err)
}

// hubFromContext returns the request hub, falling back to the process hub for
// captures made outside the middleware.
func hubFromContext(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}
