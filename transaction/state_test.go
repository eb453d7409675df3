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

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// eventMock distinguishes an explicitly assigned empty transaction from an
// absent one, which the sentry SDK's event type cannot.
type eventMock struct {
	name string
	set  bool
}

func (e *eventMock) Transaction() (string, bool) {
	return e.name, e.set
}

func (e *eventMock) SetTransaction(name string) {
	e.name = name
	e.set = true
}

func TestState(t *testing.T) {
	state := NewState()
	name, ok := state.Name()
	assert.False(t, ok)
	assert.Equal(t, "", name)

	state.Set("users.show")
	name, ok = state.Name()
	assert.True(t, ok)
	assert.Equal(t, "users.show", name)

	// reads have no side effects
	again, ok := state.Name()
	assert.True(t, ok)
	assert.Equal(t, name, again)

	// new matches overwrite, they do not merge
	state.Set("orders.index")
	name, _ = state.Name()
	assert.Equal(t, "orders.index", name)

	state.Clear()
	_, ok = state.Name()
	assert.False(t, ok)
}

func TestStateRouteMatched(t *testing.T) {
	state := NewState()
	state.RouteMatched(Named{Name: "users.show", Path: "/users/{id}"})
	name, ok := state.Name()
	assert.True(t, ok)
	assert.Equal(t, "users.show", name)

	state.RouteMatched(Legacy{
		Kind:   1,
		Params: []Param{{Name: "id", Value: "42"}},
		Path:   "/orders/42",
	})
	name, _ = state.Name()
	assert.Equal(t, "/orders/{id}", name)
}

func TestApplyToEvent(t *testing.T) {
	tests := []struct {
		name          string
		holder        *string
		event         *eventMock
		expectedName  string
		expectedIsSet bool
	}{
		{
			"an unset transaction is filled from the holder",
			strPtr("users.show"),
			&eventMock{},
			"users.show",
			true,
		},
		{
			"an explicitly empty transaction is left untouched",
			strPtr("users.show"),
			&eventMock{name: "", set: true},
			"",
			true,
		},
		{
			"an existing transaction is left untouched",
			strPtr("users.show"),
			&eventMock{name: "checkout", set: true},
			"checkout",
			true,
		},
		{
			"an empty holder leaves the event unchanged",
			nil,
			&eventMock{},
			"",
			false,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			state := NewState()
			if test.holder != nil {
				state.Set(*test.holder)
			}
			result := state.ApplyToEvent(test.event)
			assert.Equal(t, test.event, result)
			name, set := test.event.Transaction()
			assert.Equal(t, test.expectedName, name)
			assert.Equal(t, test.expectedIsSet, set)
		})
	}
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	state := NewState()
	ctx := NewContext(context.Background(), state)
	assert.Same(t, state, FromContext(ctx))
}

func strPtr(s string) *string {
	return &s
}
