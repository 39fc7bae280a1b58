package providers

import (
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// WindowedConfig holds the construction parameters for a windowed series
// provider.
type WindowedConfig struct {
	// WindowSize is the length of each non-overlapping window cut from the
	// series. The first WindowSize-1 entries of a window form the input
	// vector and the last entry is the scalar target. Must be at least 2.
	WindowSize int

	// Sentinel marks missing observations in the raw series (for example
	// -99.99). Sentinel entries are excluded when computing the
	// normalization statistics.
	Sentinel float32

	// DropSentinelWindows excludes windows containing sentinel entries from
	// the dataset. When false (the default), sentinel entries are excluded
	// from the normalization statistics but are themselves normalized along
	// with the rest of the series, so missing observations leak into the
	// windows as extreme z-scores. That mirrors the historical behavior
	// this provider reproduces; set this flag to get clean windows instead.
	DropSentinelWindows bool

	// BatchSize, MaxNumBatches, ShuffleOrder and RNG are forwarded to the
	// underlying batch provider. MaxNumBatches left at its zero value means
	// no cap, the same as -1.
	BatchSize     int
	MaxNumBatches int
	ShuffleOrder  bool
	RNG           *rand.Rand
}

// Windowed is a batch provider over a z-score normalized, windowed 1-D
// series. Windowing happens once at construction; all iteration is the
// embedded Provider's.
type Windowed struct {
	*Provider[float32]

	windowSize int
	mean       float64
	std        float64
}

// NewWindowed builds a windowed dataset from the raw series and returns a
// provider over it.
//
// Normalization statistics (mean and population standard deviation) are
// computed from a sentinel-filtered copy of the series, but the full series
// is normalized and windowed: window j covers entries
// [j*WindowSize, (j+1)*WindowSize) of the normalized series, with trailing
// entries short of a whole window dropped. Set DropSentinelWindows to
// exclude windows that contain sentinel observations.
func NewWindowed(series []float32, cfg WindowedConfig) (*Windowed, error) {
	if cfg.WindowSize <= 1 {
		return nil, &ConfigError{Param: "WindowSize", Reason: "must be at least 2"}
	}

	filtered := make([]float64, 0, len(series))
	for _, v := range series {
		if v != cfg.Sentinel {
			filtered = append(filtered, float64(v))
		}
	}
	if len(filtered) == 0 {
		return nil, &ConfigError{Param: "series", Reason: "no observations left after removing sentinel values"}
	}
	mean := stat.Mean(filtered, nil)
	std := stat.PopStdDev(filtered, nil)
	if std == 0 {
		return nil, &ConfigError{Param: "series", Reason: "zero variance, cannot normalize"}
	}

	numWindows := len(series) / cfg.WindowSize
	inputs := make([][]float32, 0, numWindows)
	targets := make([]float32, 0, numWindows)
	for j := 0; j < numWindows; j++ {
		raw := series[j*cfg.WindowSize : (j+1)*cfg.WindowSize]
		if cfg.DropSentinelWindows && containsSentinel(raw, cfg.Sentinel) {
			continue
		}
		window := make([]float32, cfg.WindowSize)
		for i, v := range raw {
			window[i] = float32((float64(v) - mean) / std)
		}
		inputs = append(inputs, window[:cfg.WindowSize-1])
		targets = append(targets, window[cfg.WindowSize-1])
	}

	maxNumBatches := cfg.MaxNumBatches
	if maxNumBatches == 0 {
		maxNumBatches = -1
	}
	p, err := New(inputs, targets, cfg.BatchSize, maxNumBatches, cfg.ShuffleOrder, cfg.RNG)
	if err != nil {
		return nil, err
	}
	return &Windowed{
		Provider:   p,
		windowSize: cfg.WindowSize,
		mean:       mean,
		std:        std,
	}, nil
}

// WindowSize returns the configured window length.
func (w *Windowed) WindowSize() int { return w.windowSize }

// Mean returns the mean of the sentinel-filtered series used for
// normalization.
func (w *Windowed) Mean() float64 { return w.mean }

// StdDev returns the population standard deviation of the sentinel-filtered
// series used for normalization.
func (w *Windowed) StdDev() float64 { return w.std }

// Denormalize maps a normalized value (input, target or model prediction)
// back to the raw series units.
func (w *Windowed) Denormalize(v float32) float32 {
	return float32(float64(v)*w.std + w.mean)
}

func containsSentinel(window []float32, sentinel float32) bool {
	for _, v := range window {
		if v == sentinel {
			return true
		}
	}
	return false
}
