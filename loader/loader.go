// Package loader reads raw dataset files into the in-memory arrays consumed
// by the providers package. It owns the file-format concerns the providers
// deliberately avoid: delimited text parsing, gzip decompression and
// multi-file globs. Files ending in .gz are decompressed transparently.
package loader

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ReadSeriesTable reads a whitespace-delimited numeric table and flattens it
// into a single 1-D series, row-major. The first skipRows lines are ignored
// (header or metadata rows), and only columns from fromCol onward are kept
// in each row. Rows may have differing widths; every kept value is appended
// in reading order.
func ReadSeriesTable(path string, skipRows, fromCol int) ([]float32, error) {
	if skipRows < 0 {
		return nil, fmt.Errorf("skipRows must be >= 0, got %d", skipRows)
	}
	if fromCol < 0 {
		return nil, fmt.Errorf("fromCol must be >= 0, got %d", fromCol)
	}

	r, err := openMaybeGzip(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var series []float32
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if line <= skipRows {
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) <= fromCol {
			continue
		}
		for col, field := range fields[fromCol:] {
			v, err := parseFloat32(field)
			if err != nil {
				return nil, fmt.Errorf("%s line %d column %d: %w", path, line, fromCol+col, err)
			}
			series = append(series, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("no numeric data in %s after skipping %d rows", path, skipRows)
	}
	return series, nil
}

// ReadLabeledCSV reads a headerless CSV file where column 0 holds an integer
// class label and the remaining columns hold the input features, one example
// per row. All rows must have the same width.
func ReadLabeledCSV(path string) (inputs [][]float32, labels []int, err error) {
	r, err := openMaybeGzip(path)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	width := -1
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s row %d: %w", path, row, err)
		}
		row++
		if len(record) < 2 {
			return nil, nil, fmt.Errorf("%s row %d: need a label and at least one feature, got %d columns", path, row, len(record))
		}
		if width == -1 {
			width = len(record)
		} else if len(record) != width {
			return nil, nil, fmt.Errorf("%s row %d: expected %d columns, got %d", path, row, width, len(record))
		}

		label, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, nil, fmt.Errorf("%s row %d: bad label: %w", path, row, err)
		}
		features := make([]float32, len(record)-1)
		for i, field := range record[1:] {
			v, err := parseFloat32(field)
			if err != nil {
				return nil, nil, fmt.Errorf("%s row %d column %d: %w", path, row, i+1, err)
			}
			features[i] = v
		}
		labels = append(labels, label)
		inputs = append(inputs, features)
	}
	if len(inputs) == 0 {
		return nil, nil, fmt.Errorf("no examples in %s", path)
	}
	return inputs, labels, nil
}

// ReadLabeledGlob loads every file matching the pattern with ReadLabeledCSV,
// reading files concurrently, and concatenates the examples in sorted path
// order so the combined dataset is deterministic. All files must agree on
// the feature width.
func ReadLabeledGlob(pattern string) (inputs [][]float32, labels []int, err error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("no files found matching pattern: %s", pattern)
	}
	sort.Strings(paths)

	perFileInputs := make([][][]float32, len(paths))
	perFileLabels := make([][]int, len(paths))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			in, lab, err := ReadLabeledCSV(path)
			if err != nil {
				return err
			}
			perFileInputs[i] = in
			perFileLabels[i] = lab
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	width := len(perFileInputs[0][0])
	for i, in := range perFileInputs {
		if len(in[0]) != width {
			return nil, nil, fmt.Errorf("%s: feature width %d does not match %s width %d",
				paths[i], len(in[0]), paths[0], width)
		}
		inputs = append(inputs, in...)
		labels = append(labels, perFileLabels[i]...)
	}
	return inputs, labels, nil
}

// openMaybeGzip opens path, wrapping the reader in a gzip decompressor when
// the file name ends in .gz.
func openMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
	}
	return &gzipReadCloser{zr: zr, f: f}, nil
}

type gzipReadCloser struct {
	zr *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.zr.Read(p) }

func (g *gzipReadCloser) Close() error {
	zerr := g.zr.Close()
	ferr := g.f.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}

func parseFloat32(s string) (float32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}
