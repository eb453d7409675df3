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
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gorilla/mux"
	"github.com/simbig/sentrymux/transaction"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Middleware attaches a Sentry hub and a transaction state to every request.
// Each request gets its own hub clone and its own state; nothing is shared
// across concurrent requests.
type Middleware struct {
	Reporter Reporter
	Logger   *zap.Logger
	// Repanic rethrows panics after they have been captured so that an outer
	// recovery handler can produce the response.
	Repanic bool
	// WaitForDelivery blocks panic recovery until captured events have been
	// flushed to Sentry, bounded by FlushTimeout.
	WaitForDelivery bool
	FlushTimeout    time.Duration
}

// NewMiddleware creates a new Sentry middleware object with defaults suitable
// for servers that recover panics above this middleware.
func NewMiddleware() Middleware {
	return Middleware{
		Logger:          zap.NewNop(),
		Repanic:         true,
		WaitForDelivery: true,
		FlushTimeout:    DefaultFlushTimeout,
	}
}

// HTTP wires the middleware into an http handler chain. It satisfies
// mux.MiddlewareFunc; the router applies it after route matching, which is
// the point at which the transaction name can be resolved. Error events
// captured during the request carry the resolved name unless they already
// carry one of their own. If this middleware is attached after a tracing
// middleware, the trace ID is added to the Sentry scope.
func (m Middleware) HTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		hub := sentry.GetHubFromContext(ctx)
		if hub == nil {
			hub = sentry.CurrentHub().Clone()
			ctx = sentry.SetHubOnContext(ctx, hub)
		}
		state := transaction.NewState()
		ctx = transaction.NewContext(ctx, state)

		name, source := resolveRequest(r)
		state.Set(name)
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetRequest(r)
			scope.AddEventProcessor(applyTransaction(state))
			if sc := trace.SpanFromContext(ctx).SpanContext(); sc.HasTraceID() {
				scope.SetTag("correlation_id", sc.TraceID().String())
			}
		})
		m.logger().Debug("resolved transaction",
			zap.String("transaction", name), zap.String("source", string(source)))

		defer func() {
			defer state.Clear()
			if rec := recover(); rec != nil {
				m.Reporter.CaptureUnhandled(ctx, recoveredError(rec))
				if m.WaitForDelivery {
					hub.Flush(m.flushTimeout())
				}
				if m.Repanic {
					panic(rec)
				}
				w.WriteHeader(http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m Middleware) logger() *zap.Logger {
	if m.Logger == nil {
		return zap.NewNop()
	}
	return m.Logger
}

func (m Middleware) flushTimeout() time.Duration {
	if m.FlushTimeout <= 0 {
		return DefaultFlushTimeout
	}
	return m.FlushTimeout
}

// resolveRequest derives the transaction name for a request. Requests routed
// through mux resolve via the matched route; anything else falls back to the
// raw URL path.
func resolveRequest(r *http.Request) (string, sentry.TransactionSource) {
	if route := mux.CurrentRoute(r); route != nil {
		return transaction.Resolve(DescriptorFromRoute(route, r))
	}
	return r.URL.Path, sentry.SourceURL
}

// DescriptorFromRoute converts a matched mux route into a transaction
// descriptor. Routes without a path template fall back to the request path.
func DescriptorFromRoute(route *mux.Route, r *http.Request) transaction.Descriptor {
	path, err := route.GetPathTemplate()
	if err != nil {
		path = r.URL.Path
	}
	return transaction.Named{Name: route.GetName(), Path: path}
}

// sentryEvent adapts *sentry.Event to transaction.Event. The SDK stores the
// transaction as a plain string, so an empty transaction reads as unset; this
// matches how the SDK itself applies scope transactions.
type sentryEvent struct {
	event *sentry.Event
}

func (e sentryEvent) Transaction() (string, bool) {
	return e.event.Transaction, e.event.Transaction != ""
}

func (e sentryEvent) SetTransaction(name string) {
	e.event.Transaction = name
}

// applyTransaction returns a scope processor that stamps the request's
// resolved transaction name onto outgoing events.
func applyTransaction(state *transaction.State) sentry.EventProcessor {
	return func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
		state.ApplyToEvent(sentryEvent{event})
		return event
	}
}

// recoveredError normalizes a recovered panic value into an error.
func recoveredError(rec interface{}) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("%v", rec)
}
