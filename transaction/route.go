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
	"strings"

	"github.com/getsentry/sentry-go"
)

// generatedNamePrefix marks route names synthesized by route caching for
// routes the application never named. Such names change between deploys and
// cannot identify a transaction.
const generatedNamePrefix = "generated::"

// groupSeparator joins route group prefixes to route names. A name that ends
// with the separator is a bare group prefix, not a route name.
const groupSeparator = "."

// Descriptor describes a matched endpoint. It is a closed set: the only
// implementations are Named and Legacy.
type Descriptor interface {
	descriptor()
}

// Named is a route carrying an optional application-declared name and a path
// template.
type Named struct {
	// Name is the declared route name. It may be empty.
	Name string
	// Path is the route's path template, used when the declared name cannot
	// identify the transaction.
	Path string
}

func (Named) descriptor() {}

// Param is a single route parameter binding for the current request.
type Param struct {
	Name  string
	Value string
}

// Legacy is a route from routers that expose no declared name, only the
// matched path and the parameter values bound for the current request. Params
// preserves the router's binding order; substitution depends on it.
type Legacy struct {
	// Kind is the router's numeric route type code. It does not participate
	// in name resolution.
	Kind int
	// Middleware lists route metadata. It does not participate in name
	// resolution.
	Middleware []string
	Params     []Param
	Path       string
}

func (Legacy) descriptor() {}

// Resolve computes the transaction name for a matched route along with the
// source tag describing how the name was derived. It is pure: no side
// effects, deterministic for a given descriptor.
func Resolve(d Descriptor) (string, sentry.TransactionSource) {
	switch route := d.(type) {
	case Named:
		if name := usableName(route.Name); name != "" {
			return name, sentry.SourceRoute
		}
		return route.Path, sentry.SourceRoute
	case Legacy:
		return parameterizePath(route.Path, route.Params), sentry.SourceRoute
	}
	return "", sentry.SourceCustom
}

// usableName returns the declared route name when it can identify a
// transaction on its own, or the empty string when the caller should fall
// back to the path.
func usableName(name string) string {
	if name == "" || strings.HasSuffix(name, groupSeparator) || strings.HasPrefix(name, generatedNamePrefix) {
		return ""
	}
	return name
}

// parameterizePath rewrites a matched path back into a template by replacing
// each bound parameter value with a {name} placeholder. Each parameter
// replaces the first remaining occurrence of its value in binding order, so
// parameters sharing a value each claim one occurrence left to right. A value
// that no longer occurs in the path leaves the path unchanged for that step.
func parameterizePath(path string, params []Param) string {
	for _, p := range params {
		if p.Value == "" {
			continue
		}
		path = strings.Replace(path, p.Value, "{"+p.Name+"}", 1)
	}
	return path
}
