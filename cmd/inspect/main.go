// Command inspect loads a 1-D numeric series, builds a windowed batch
// provider over it and iterates a few epochs, reporting per-epoch batch
// statistics and optionally rendering a plot of the normalized series with
// the window targets marked.
//
// Configuration is read from an optional YAML file (-config); any flag set
// explicitly on the command line overrides the file value.
package main

import (
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gopkg.in/yaml.v2"

	"github.com/ttxking/mlpractical/loader"
	"github.com/ttxking/mlpractical/providers"
)

// config mirrors the flag set so a YAML file can provide any subset of the
// options.
type config struct {
	Series              string  `yaml:"series"`
	SkipRows            int     `yaml:"skip_rows"`
	FromCol             int     `yaml:"from_col"`
	WindowSize          int     `yaml:"window_size"`
	Sentinel            float64 `yaml:"sentinel"`
	DropSentinelWindows bool    `yaml:"drop_sentinel_windows"`
	BatchSize           int     `yaml:"batch_size"`
	MaxNumBatches       int     `yaml:"max_num_batches"`
	Shuffle             bool    `yaml:"shuffle"`
	Epochs              int     `yaml:"epochs"`
	Seed                int64   `yaml:"seed"`
	CacheEntries        int     `yaml:"cache_entries"`
	Plot                string  `yaml:"plot"`
}

func defaultConfig() config {
	return config{
		SkipRows:      3,
		FromCol:       2,
		WindowSize:    5,
		Sentinel:      -99.99,
		BatchSize:     10,
		MaxNumBatches: -1,
		Shuffle:       true,
		Epochs:        3,
		Seed:          providers.DefaultSeed,
		CacheEntries:  16,
	}
}

func main() {
	cfg := defaultConfig()

	configPath := flag.String("config", "", "optional YAML config file; explicit flags override it")
	debug := flag.Bool("debug", false, "enable debug logging")
	series := flag.String("series", cfg.Series, "path to the series file (whitespace table, .gz supported)")
	skipRows := flag.Int("skip-rows", cfg.SkipRows, "header rows to skip in the series file")
	fromCol := flag.Int("from-col", cfg.FromCol, "first column of the series file to keep")
	windowSize := flag.Int("window", cfg.WindowSize, "window size (input length is window-1)")
	sentinel := flag.Float64("sentinel", cfg.Sentinel, "sentinel value marking missing observations")
	dropSentinel := flag.Bool("drop-sentinel-windows", cfg.DropSentinelWindows, "exclude windows containing sentinel observations")
	batchSize := flag.Int("batch", cfg.BatchSize, "rows per batch")
	maxBatches := flag.Int("max-batches", cfg.MaxNumBatches, "max batches per epoch, -1 for all")
	shuffle := flag.Bool("shuffle", cfg.Shuffle, "reshuffle windows before each epoch")
	epochs := flag.Int("epochs", cfg.Epochs, "number of epochs to iterate")
	seed := flag.Int64("seed", cfg.Seed, "RNG seed for shuffling")
	cacheEntries := flag.Int("cache-entries", cfg.CacheEntries, "series cache capacity")
	plotPath := flag.String("plot", cfg.Plot, "if set, write a PNG plot of the normalized series to this path")
	flag.Parse()

	if *configPath != "" {
		if err := loadConfigFile(*configPath, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	// Flags the user set explicitly win over the file.
	fromFlags := map[string]func(){
		"series":                func() { cfg.Series = *series },
		"skip-rows":             func() { cfg.SkipRows = *skipRows },
		"from-col":              func() { cfg.FromCol = *fromCol },
		"window":                func() { cfg.WindowSize = *windowSize },
		"sentinel":              func() { cfg.Sentinel = *sentinel },
		"drop-sentinel-windows": func() { cfg.DropSentinelWindows = *dropSentinel },
		"batch":                 func() { cfg.BatchSize = *batchSize },
		"max-batches":           func() { cfg.MaxNumBatches = *maxBatches },
		"shuffle":               func() { cfg.Shuffle = *shuffle },
		"epochs":                func() { cfg.Epochs = *epochs },
		"seed":                  func() { cfg.Seed = *seed },
		"cache-entries":         func() { cfg.CacheEntries = *cacheEntries },
		"plot":                  func() { cfg.Plot = *plotPath },
	}
	if *configPath == "" {
		for _, apply := range fromFlags {
			apply()
		}
	} else {
		flag.Visit(func(f *flag.Flag) {
			if apply, ok := fromFlags[f.Name]; ok {
				apply()
			}
		})
	}

	log, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("inspect failed", zap.Error(err))
	}
}

func loadConfigFile(path string, cfg *config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg config, log *zap.Logger) error {
	if cfg.Series == "" {
		return errors.New("no series file given (use -series or a config file)")
	}

	cache, err := loader.NewSeriesCache(cfg.CacheEntries, log)
	if err != nil {
		return err
	}
	series, err := cache.Get(cfg.Series, cfg.SkipRows, cfg.FromCol)
	if err != nil {
		return err
	}
	log.Info("series loaded",
		zap.String("path", cfg.Series),
		zap.Int("observations", len(series)))

	w, err := providers.NewWindowed(series, providers.WindowedConfig{
		WindowSize:          cfg.WindowSize,
		Sentinel:            float32(cfg.Sentinel),
		DropSentinelWindows: cfg.DropSentinelWindows,
		BatchSize:           cfg.BatchSize,
		MaxNumBatches:       cfg.MaxNumBatches,
		ShuffleOrder:        cfg.Shuffle,
		RNG:                 rand.New(rand.NewSource(cfg.Seed)),
	})
	if err != nil {
		return err
	}
	log.Info("windowed provider ready",
		zap.Int("windows", w.Len()),
		zap.Int("batches_per_epoch", w.NumBatches()),
		zap.Float64("mean", w.Mean()),
		zap.Float64("std", w.StdDev()))

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		var batches int
		var targetSum float64
		for {
			_, targets, err := w.Next()
			if errors.Is(err, providers.ErrEndOfEpoch) {
				break
			}
			if err != nil {
				return err
			}
			batches++
			for _, v := range targets {
				targetSum += float64(v)
			}
		}
		meanTarget := targetSum / float64(batches*w.BatchSize())
		log.Info("epoch complete",
			zap.Int("epoch", epoch),
			zap.Int("batches", batches),
			zap.Float64("mean_target", meanTarget),
			zap.Float64("mean_target_raw", float64(w.Denormalize(float32(meanTarget)))))
	}

	if cfg.Plot != "" {
		if err := plotSeries(cfg.Plot, series, w); err != nil {
			return err
		}
		log.Info("plot written", zap.String("path", cfg.Plot))
	}
	return nil
}

// plotSeries draws the z-score normalized series as a line with the window
// targets (every WindowSize-th normalized value) marked as points.
func plotSeries(path string, series []float32, w *providers.Windowed) error {
	p := plot.New()
	p.Title.Text = "normalized series"
	p.X.Label.Text = "index"
	p.Y.Label.Text = "z-score"

	line := make(plotter.XYs, 0, len(series))
	for i, v := range series {
		z := (float64(v) - w.Mean()) / w.StdDev()
		line = append(line, plotter.XY{X: float64(i), Y: z})
	}
	l, err := plotter.NewLine(line)
	if err != nil {
		return fmt.Errorf("failed to build series line: %w", err)
	}
	p.Add(l)
	p.Legend.Add("series", l)

	targets := make(plotter.XYs, 0, len(series)/w.WindowSize())
	for i := w.WindowSize() - 1; i < len(series); i += w.WindowSize() {
		z := (float64(series[i]) - w.Mean()) / w.StdDev()
		targets = append(targets, plotter.XY{X: float64(i), Y: z})
	}
	s, err := plotter.NewScatter(targets)
	if err != nil {
		return fmt.Errorf("failed to build target scatter: %w", err)
	}
	p.Add(s)
	p.Legend.Add("window targets", s)

	return p.Save(10*vg.Inch, 4*vg.Inch, path)
}
