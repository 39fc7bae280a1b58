package providers

import (
	"fmt"
	"math/rand"
)

// DefaultSeed seeds the provider's RNG when the caller does not supply one.
// Every provider constructed without an explicit RNG produces the same batch
// order for the same data and parameters.
const DefaultSeed int64 = 123456

// Provider iterates over a paired (inputs, targets) dataset in fixed-size
// batches. The target element type T is generic so the same iterator serves
// integer class labels, scalar regression targets and vector targets.
//
// Shuffling never moves the underlying rows. The provider keeps a
// permutation over row indices and gathers each batch through it, so the
// pairing between inputs[i] and targets[i] is preserved by construction.
// A Provider owns its RNG exclusively; sharing one *rand.Rand between
// providers breaks reproducibility and is unsupported.
type Provider[T any] struct {
	inputs  [][]float32
	targets []T

	batchSize  int
	numBatches int
	curr       int

	shuffleOrder bool
	rng          *rand.Rand

	// order[i] is the dataset row served in iteration position i. Shuffles
	// compose onto it, which matches repeatedly permuting the arrays in
	// place.
	order []int
}

// New creates a batch provider over the paired inputs and targets.
//
// batchSize is the number of rows per batch and must be positive. Rows
// beyond the last whole batch are dropped from every epoch, although
// shuffling permutes the entire dataset so the dropped rows differ between
// epochs. maxNumBatches caps the number of batches per epoch; -1 means no
// cap. shuffleOrder enables a whole-dataset reshuffle before each epoch.
// rng may be nil, in which case a deterministic RNG seeded with DefaultSeed
// is used.
func New[T any](inputs [][]float32, targets []T, batchSize, maxNumBatches int, shuffleOrder bool, rng *rand.Rand) (*Provider[T], error) {
	if len(inputs) != len(targets) {
		return nil, &ConfigError{
			Param:  "targets",
			Reason: fmt.Sprintf("length %d does not match inputs length %d", len(targets), len(inputs)),
		}
	}
	if batchSize <= 0 {
		return nil, &ConfigError{Param: "batchSize", Reason: fmt.Sprintf("must be > 0, got %d", batchSize)}
	}
	if maxNumBatches == 0 || maxNumBatches < -1 {
		return nil, &ConfigError{Param: "maxNumBatches", Reason: fmt.Sprintf("must be -1 or > 0, got %d", maxNumBatches)}
	}

	// Whole number of times batchSize divides into the dataset; the
	// trailing remainder never forms a batch.
	possible := len(inputs) / batchSize
	numBatches := possible
	if maxNumBatches != -1 && maxNumBatches < possible {
		numBatches = maxNumBatches
	}
	if numBatches == 0 {
		return nil, &ConfigError{
			Param:  "batchSize",
			Reason: fmt.Sprintf("dataset with %d rows yields no complete batch of size %d", len(inputs), batchSize),
		}
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(DefaultSeed))
	}

	order := make([]int, len(inputs))
	for i := range order {
		order[i] = i
	}

	p := &Provider[T]{
		inputs:       inputs,
		targets:      targets,
		batchSize:    batchSize,
		numBatches:   numBatches,
		shuffleOrder: shuffleOrder,
		rng:          rng,
		order:        order,
	}
	p.Reset()
	return p, nil
}

// Len returns the number of rows in the underlying dataset, including rows
// in the trailing remainder that never appear in a batch.
func (p *Provider[T]) Len() int { return len(p.inputs) }

// BatchSize returns the number of rows per batch.
func (p *Provider[T]) BatchSize() int { return p.batchSize }

// NumBatches returns the number of batches served per epoch.
func (p *Provider[T]) NumBatches() int { return p.numBatches }

// Reset rewinds the provider to the start of an epoch, reshuffling the row
// order when shuffling is enabled. Next calls Reset automatically at the end
// of each epoch, so callers only need it to abandon a pass midway.
func (p *Provider[T]) Reset() {
	p.curr = 0
	if p.shuffleOrder {
		p.Shuffle()
	}
}

// Shuffle draws one permutation of the whole dataset from the provider's RNG
// and applies it to the current row order. The permutation covers all rows,
// not just the ones consumed this epoch, so the unused remainder varies from
// epoch to epoch.
func (p *Provider[T]) Shuffle() {
	perm := p.rng.Perm(len(p.order))
	next := make([]int, len(p.order))
	for i, j := range perm {
		next[i] = p.order[j]
	}
	p.order = next
}

// Next returns the next batch of the current epoch. When the epoch is
// exhausted it resets the provider and returns ErrEndOfEpoch; the call after
// that begins a fresh pass. The returned slices share row storage with the
// dataset and are only valid until the caller is done with the batch.
func (p *Provider[T]) Next() (inputs [][]float32, targets []T, err error) {
	if p.curr >= p.numBatches {
		p.Reset()
		return nil, nil, ErrEndOfEpoch
	}
	start := p.curr * p.batchSize
	end := start + p.batchSize

	inputs = make([][]float32, 0, p.batchSize)
	targets = make([]T, 0, p.batchSize)
	for _, row := range p.order[start:end] {
		inputs = append(inputs, p.inputs[row])
		targets = append(targets, p.targets[row])
	}
	p.curr++
	return inputs, targets, nil
}
