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

package transaction

import "context"

// Event is the slice of an error event that transaction enrichment touches.
// Implementations that can represent an explicitly assigned empty name must
// report it as set; only an event with no transaction at all reports unset.
type Event interface {
	// Transaction returns the event's transaction name and whether one has
	// been assigned.
	Transaction() (name string, set bool)
	// SetTransaction assigns the event's transaction name.
	SetTransaction(name string)
}

// Listener receives route-matched notifications from the host framework. The
// composition root registers one implementation per request.
type Listener interface {
	RouteMatched(route Descriptor)
}

// State holds the transaction name for one in-flight request. It is written
// when routing completes, read when an error event is enriched, and cleared
// when the request ends. State is not safe for concurrent use: every request
// owns its own instance and must never share it with another request.
type State struct {
	name *string
}

// NewState returns an empty holder.
func NewState() *State {
	return &State{}
}

// Set overwrites the held transaction name.
func (s *State) Set(name string) {
	s.name = &name
}

// Clear resets the holder to absent.
func (s *State) Clear() {
	s.name = nil
}

// Name returns the held transaction name and whether one is set.
func (s *State) Name() (string, bool) {
	if s.name == nil {
		return "", false
	}
	return *s.name, true
}

// RouteMatched implements Listener by resolving the matched route and storing
// its name.
func (s *State) RouteMatched(route Descriptor) {
	name, _ := Resolve(route)
	s.Set(name)
}

// ApplyToEvent copies the held name onto e when e does not already carry a
// transaction. Events whose transaction was assigned explicitly, even to the
// empty string, are left untouched, as are events seen while the holder is
// empty.
func (s *State) ApplyToEvent(e Event) Event {
	if _, set := e.Transaction(); set {
		return e
	}
	if name, ok := s.Name(); ok {
		e.SetTransaction(name)
	}
	return e
}

// stateKey is the type used to uniquely place the state within context.Context
const stateKey = iota

// NewContext returns a context with the request's state attached.
func NewContext(ctx context.Context, state *State) context.Context {
	return context.WithValue(ctx, stateKey, state)
}

// FromContext returns the request's state, or nil when none is attached.
func FromContext(ctx context.Context) *State {
	if state, ok := ctx.Value(stateKey).(*State); ok {
		return state
	}
	return nil
}
