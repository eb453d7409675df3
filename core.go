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
	"regexp"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap/zapcore"
)

// Core implements a zapcore.Core that sends logged errors to Sentry. Tee it
// into a zap logger so that error logs and captured exceptions reach the same
// project.
type Core struct {
	zapcore.LevelEnabler
	fields []zapcore.Field
}

// With adds structured context to the Sentry Core
func (c *Core) With(fields []zapcore.Field) zapcore.Core {
	if len(fields) == 0 {
		return c
	}
	clone := *c
	clone.fields = append(clone.fields[:len(clone.fields):len(clone.fields)], fields...)
	return &clone
}

// Check must be called before calling Write. Only entries at error level and
// above are sent to Sentry.
func (c *Core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if ent.Level >= zapcore.ErrorLevel {
		return ce.AddCore(ent, c)
	}
	return ce
}

// frames from this module and from the logger carry no signal in stack traces
// reported to sentry
var stacktraceModulesToIgnore = []*regexp.Regexp{
	regexp.MustCompile(`github\.com/simbig/sentrymux*`),
	regexp.MustCompile(`go\.uber\.org/zap*`),
}

// Write converts the log entry and its fields into a Sentry event and
// captures it on the process hub.
func (c *Core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, field := range c.fields {
		field.AddTo(enc)
	}
	for _, field := range fields {
		field.AddTo(enc)
	}

	// Group logs with the same stack trace together unless there is no stack
	// trace, then group by message
	fingerprint := ent.Stack
	if fingerprint == "" {
		fingerprint = ent.Message
	}

	event := sentry.NewEvent()
	event.Message = ent.Message
	event.Level = sentryLevel(ent.Level)
	event.Logger = ent.LoggerName
	event.Timestamp = ent.Time
	event.Extra = enc.Fields
	event.Fingerprint = []string{fingerprint}
	event.Threads = []sentry.Thread{{
		Stacktrace: filteredStacktrace(),
		Current:    true,
	}}
	sentry.CaptureEvent(event)

	// at levels higher than error the program might crash, so block while
	// sentry sends the event
	if ent.Level > zapcore.ErrorLevel {
		sentry.Flush(DefaultFlushTimeout)
	}
	return nil
}

// Sync flushes any buffered events
func (c *Core) Sync() error {
	if !sentry.Flush(DefaultFlushTimeout) {
		return fmt.Errorf("timed out waiting for Sentry flush")
	}
	return nil
}

// sentryLevel maps zap levels onto Sentry severities.
func sentryLevel(level zapcore.Level) sentry.Level {
	switch level {
	case zapcore.DebugLevel:
		return sentry.LevelDebug
	case zapcore.InfoLevel:
		return sentry.LevelInfo
	case zapcore.WarnLevel:
		return sentry.LevelWarning
	case zapcore.ErrorLevel:
		return sentry.LevelError
	default:
		// captures Panic, DPanic, Fatal zapcore levels
		return sentry.LevelFatal
	}
}

// filteredStacktrace captures the current stack without frames from this
// module or the logger.
func filteredStacktrace() *sentry.Stacktrace {
	stack := sentry.NewStacktrace()
	frames := make([]sentry.Frame, 0, len(stack.Frames))
	for _, frame := range stack.Frames {
		ignore := false
		for _, pattern := range stacktraceModulesToIgnore {
			if pattern.MatchString(frame.Module) {
				ignore = true
				break
			}
		}
		if !ignore {
			frames = append(frames, frame)
		}
	}
	return &sentry.Stacktrace{Frames: frames}
}
