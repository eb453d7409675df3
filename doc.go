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

// Package sentrymux bridges the Sentry SDK into gorilla/mux request handling.
//
// The middleware gives every request its own Sentry hub and transaction
// state, names the transaction after the matched route, and recovers panics
// as unhandled error events. Application code reports caught errors through
// Report; both capture paths tag events with a mechanism recording whether
// the error was handled. A zapcore.Core is provided so that error logs reach
// Sentry through the same client, and ServiceConfig ties the pieces together
// into a runnable cobra command for services that want the full wiring.
package sentrymux
