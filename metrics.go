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
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a bundle of prometheus capture metrics recorders
type Metrics struct {
	captures *prometheus.CounterVec
}

// NewMetrics creates and returns a metrics bundle. The user may optionally
// specify an existing Prometheus Registry. If no Registry is provided, the
// global Prometheus Registry is used. Finally, if mustRegister is true, and a
// registration error is encountered, the application will panic.
func NewMetrics(registry prometheus.Registerer, mustRegister bool) Metrics {
	captures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentry_captures_total",
			Help: "Total number of exceptions captured and forwarded to Sentry",
		},
		[]string{
			// Whether application code reported the exception itself
			"handled",
		},
	)
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	if mustRegister {
		registry.MustRegister(captures)
	} else if err := registry.Register(captures); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			captures = are.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	return Metrics{captures: captures}
}

// recordCapture counts one captured exception by handled classification. A
// zero-value Metrics records nothing.
func (m Metrics) recordCapture(handled bool) {
	if m.captures == nil {
		return
	}
	m.captures.With(prometheus.Labels{"handled": strconv.FormatBool(handled)}).Inc()
}
