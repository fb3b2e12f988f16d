package candidate

import (
	"runtime"

	"github.com/hwseclab/regscan/pkg/errors"
	"github.com/hwseclab/regscan/pkg/gatelib"
)

const (
	// DefaultMaxLogicDepth is the number of combinational gates a
	// data-dependency path may pass through between two flip-flops of
	// one candidate. Deep logic cones between registers are typical for
	// round functions, but unbounded traversal would happily connect
	// unrelated registers across the whole design.
	DefaultMaxLogicDepth = 3
)

// Config controls the candidate search policy.
//
// The zero value is usable: defaults are applied by [Finder.Find].
type Config struct {
	// MaxLogicDepth bounds the combinational chain length between a
	// flip-flop's data output and another flip-flop's data input for the
	// two to count as connected. 0 means DefaultMaxLogicDepth; a negative
	// value is rejected.
	MaxLogicDepth int

	// SharedControls lists control pin classes (beyond the clock, which
	// is always required) whose nets must be shared by every gate of a
	// candidate. Typical values: gatelib.PinEnable, gatelib.PinReset.
	SharedControls []gatelib.PinClass

	// Parallelism caps the number of clock groups evaluated concurrently.
	// 0 means GOMAXPROCS.
	Parallelism int
}

// withDefaults returns a copy of the config with defaults applied.
func (c Config) withDefaults() Config {
	if c.MaxLogicDepth == 0 {
		c.MaxLogicDepth = DefaultMaxLogicDepth
	}
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.GOMAXPROCS(0)
	}
	return c
}

// validate rejects configurations the search cannot honor.
func (c Config) validate() error {
	if c.MaxLogicDepth < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "MaxLogicDepth must not be negative")
	}
	for _, class := range c.SharedControls {
		switch class {
		case gatelib.PinEnable, gatelib.PinReset:
		case gatelib.PinClock:
			return errors.New(errors.ErrCodeInvalidConfig, "the clock is always shared; do not list it in SharedControls")
		default:
			return errors.New(errors.ErrCodeInvalidConfig, "%s is not a control pin class", class)
		}
	}
	return nil
}
