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
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/pflag"
)

// DefaultFlushTimeout is how long event delivery may block when the process
// is about to crash or exit.
const DefaultFlushTimeout = 2 * time.Second

// Config defines the necessary configuration for binding a Sentry client
type Config struct {
	DSN          string
	Environment  string
	AppVersion   string
	Enabled      bool
	FlushTimeout time.Duration
	SampleRate   float64
}

// RegisterFlags registers Sentry flags with pflags
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.DSN, "sentry-dsn", "", "Sentry DSN")
	flags.StringVar(&c.Environment, "sentry-environment", "", "Sentry environment name")
	flags.BoolVarP(&c.Enabled, "sentry-enabled", "t", true, "Enable Sentry")
	flags.DurationVar(&c.FlushTimeout, "sentry-flush-timeout", DefaultFlushTimeout, "Time to wait for event delivery on panics and shutdown")
	flags.Float64Var(&c.SampleRate, "sentry-sample-rate", 1.0, "Fraction of error events to send")
}

// InitializeSentry binds the Sentry client. This function should be called as
// soon as possible after the application configuration is loaded so that
// events captured during startup are delivered.
func (c Config) InitializeSentry() error {
	if !c.Enabled {
		return nil
	}
	opts := sentry.ClientOptions{
		Dsn:         c.DSN,
		Environment: c.Environment,
		Release:     c.AppVersion,
		SampleRate:  c.SampleRate,
	}
	if err := sentry.Init(opts); err != nil {
		return fmt.Errorf("error initializing sentry - %w", err)
	}
	return nil
}
