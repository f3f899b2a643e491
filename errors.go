// Copyright 2026 The stagepipe Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stagepipe

import (
	"errors"
	"fmt"
)

// ConfigError reports a problem with a Pipeline's configuration, raised
// synchronously from New (an empty source list, a worker count below 1 or
// above the configured ceiling, a stage built with the wrong constructor)
// or from Start or Run (called on a pipeline whose sink configuration
// calls for the other one). Nothing is started when ConfigError is
// returned.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "stagepipe: config: " + e.Msg
}

// StageError wraps an error returned by a user-supplied stage function,
// tagged with the stage kind, its position in the pipeline (-1 for
// sources), and the index of the worker that observed the failure.
type StageError struct {
	Kind        stageKind
	StageIndex  int
	WorkerIndex int
	Err         error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stagepipe: stage %s[%d] worker %d: %v", e.Kind, e.StageIndex, e.WorkerIndex, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a signal the coordinator could not make sense of:
// an out-of-range stage index or an unrecognized signal kind. Expected to
// be rare given stagepipe's own worker wrappers are the only signal
// producers, but surfaced as a typed error through Err rather than only a
// log line, so a coordinator or worker-wiring bug is observable by a
// caller instead of silently dropped.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string {
	return "stagepipe: protocol: " + e.Msg
}

// IsConfigError reports whether err is (or wraps) a *ConfigError.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// IsStageError reports whether err is (or wraps) a *StageError.
func IsStageError(err error) bool {
	var e *StageError
	return errors.As(err, &e)
}

// IsProtocolError reports whether err is (or wraps) a *ProtocolError.
func IsProtocolError(err error) bool {
	var e *ProtocolError
	return errors.As(err, &e)
}
