package providers

import (
	"errors"
	"fmt"
)

// ErrEndOfEpoch is returned by Next when the current pass through the
// dataset is exhausted. It is a control signal, not a failure: the provider
// has already reset itself (reshuffling if enabled) and the following call
// returns the first batch of a new epoch. Callers must check for it with
// errors.Is before treating a Next error as fatal.
var ErrEndOfEpoch = errors.New("providers: end of epoch")

// ConfigError reports an invalid constructor parameter. It is returned at
// construction time and is never recoverable; the provider is not usable.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("providers: invalid %s: %s", e.Param, e.Reason)
}

// LabelRangeError reports a class label outside [0, NumClasses) seen while
// one-hot encoding a batch. Corrupt labels fail loudly rather than being
// clamped or dropped, so training runs stay reproducible.
type LabelRangeError struct {
	Label      int
	NumClasses int
}

func (e *LabelRangeError) Error() string {
	return fmt.Sprintf("providers: label %d out of range [0, %d)", e.Label, e.NumClasses)
}
