package providers

import (
	"errors"
	"fmt"
	"io"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// BatchSource is the batch surface TensorDataset adapts to gomlx: vector
// inputs and vector targets per row, with ErrEndOfEpoch between passes.
// OneHotProvider and Provider[[]float32] satisfy it directly; use
// AsBatchSource for providers with scalar targets.
type BatchSource interface {
	Next() (inputs [][]float32, targets [][]float32, err error)
	Reset()
}

// AsBatchSource adapts a provider with scalar targets (such as the one
// embedded in Windowed) to BatchSource by lifting each target into a
// length-1 row.
func AsBatchSource(p *Provider[float32]) BatchSource {
	return scalarSource{p: p}
}

type scalarSource struct {
	p *Provider[float32]
}

func (s scalarSource) Next() ([][]float32, [][]float32, error) {
	inputs, scalars, err := s.p.Next()
	if err != nil {
		return nil, nil, err
	}
	targets := make([][]float32, len(scalars))
	for i, v := range scalars {
		targets[i] = []float32{v}
	}
	return inputs, targets, nil
}

func (s scalarSource) Reset() { s.p.Reset() }

// TensorDataset adapts a BatchSource to the gomlx train.Dataset protocol
// (Name / Yield / Restart). Yield returns io.EOF at the end of each epoch,
// which is how gomlx training loops detect epoch boundaries; the underlying
// provider has already reset itself by then, so the next Yield begins a
// fresh pass.
type TensorDataset struct {
	name string
	src  BatchSource
}

// NewTensorDataset wraps src for consumption by gomlx training loops.
func NewTensorDataset(name string, src BatchSource) *TensorDataset {
	return &TensorDataset{name: name, src: src}
}

// Name returns the dataset name shown by gomlx training loops.
func (d *TensorDataset) Name() string { return d.name }

// Yield returns the next batch as gomlx tensors, or io.EOF at the end of an
// epoch.
func (d *TensorDataset) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	in, lab, err := d.src.Next()
	if errors.Is(err, ErrEndOfEpoch) {
		return nil, nil, nil, io.EOF
	}
	if err != nil {
		return nil, nil, nil, err
	}
	flat, err := MakeBatchFlat(in, lab)
	if err != nil {
		return nil, nil, nil, err
	}
	inT, labT, err := flat.ToTensors()
	if err != nil {
		return nil, nil, nil, err
	}
	return nil, []*tensors.Tensor{inT}, []*tensors.Tensor{labT}, nil
}

// Restart rewinds the underlying provider to the start of an epoch.
func (d *TensorDataset) Restart() error {
	d.src.Reset()
	return nil
}

// BatchFlat stores one batch in flat contiguous float32 buffers along with
// shape metadata, ready for conversion into gomlx tensors (or any other
// tensor type).
type BatchFlat struct {
	Inputs    []float32
	Targets   []float32
	BatchSize int
	InputDim  int
	TargetDim int
}

// MakeBatchFlat flattens a batch into contiguous buffers, checking that all
// rows have consistent dimensions.
func MakeBatchFlat(inputs, targets [][]float32) (*BatchFlat, error) {
	if len(inputs) != len(targets) {
		return nil, fmt.Errorf("inputs and targets batch sizes don't match: %d != %d", len(inputs), len(targets))
	}
	if len(inputs) == 0 {
		return &BatchFlat{}, nil
	}

	batchSize := len(inputs)
	inputDim := len(inputs[0])
	targetDim := len(targets[0])

	flatInputs := make([]float32, batchSize*inputDim)
	flatTargets := make([]float32, batchSize*targetDim)
	for i := range batchSize {
		if len(inputs[i]) != inputDim {
			return nil, fmt.Errorf("inconsistent input dimensions at row %d: expected %d, got %d",
				i, inputDim, len(inputs[i]))
		}
		if len(targets[i]) != targetDim {
			return nil, fmt.Errorf("inconsistent target dimensions at row %d: expected %d, got %d",
				i, targetDim, len(targets[i]))
		}
		copy(flatInputs[i*inputDim:], inputs[i])
		copy(flatTargets[i*targetDim:], targets[i])
	}

	return &BatchFlat{
		Inputs:    flatInputs,
		Targets:   flatTargets,
		BatchSize: batchSize,
		InputDim:  inputDim,
		TargetDim: targetDim,
	}, nil
}

// ToTensors converts the flat batch to gomlx tensors. An empty batch cannot
// be shaped into tensors and returns an error.
func (b *BatchFlat) ToTensors() (*tensors.Tensor, *tensors.Tensor, error) {
	if b.BatchSize == 0 || b.InputDim == 0 || b.TargetDim == 0 {
		return nil, nil, fmt.Errorf("cannot convert empty batch to tensors: batch=%d inputDim=%d targetDim=%d",
			b.BatchSize, b.InputDim, b.TargetDim)
	}
	inputs := make([][]float32, b.BatchSize)
	targets := make([][]float32, b.BatchSize)
	for i := range b.BatchSize {
		inputs[i] = b.Inputs[i*b.InputDim : (i+1)*b.InputDim]
		targets[i] = b.Targets[i*b.TargetDim : (i+1)*b.TargetDim]
	}
	return tensors.FromAnyValue(inputs), tensors.FromAnyValue(targets), nil
}
