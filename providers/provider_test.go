package providers

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeDataset builds n paired rows where inputs[i][0] carries the row id and
// targets[i] is the same id, so pairing can be checked after any number of
// shuffles.
func makeDataset(n int) ([][]float32, []int) {
	inputs := make([][]float32, n)
	targets := make([]int, n)
	for i := range inputs {
		inputs[i] = []float32{float32(i), float32(i) * 10}
		targets[i] = i
	}
	return inputs, targets
}

func TestNewNumBatches(t *testing.T) {
	tests := []struct {
		name          string
		n             int
		batchSize     int
		maxNumBatches int
		want          int
	}{
		{"unbounded exact", 10, 2, -1, 5},
		{"unbounded remainder", 7, 2, -1, 3},
		{"capped below possible", 10, 2, 3, 3},
		{"cap above possible", 10, 2, 99, 5},
		{"single batch", 5, 5, -1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs, targets := makeDataset(tt.n)
			p, err := New(inputs, targets, tt.batchSize, tt.maxNumBatches, false, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.NumBatches())
			assert.Equal(t, tt.n, p.Len())
			assert.Equal(t, tt.batchSize, p.BatchSize())
		})
	}
}

func TestNewConfigErrors(t *testing.T) {
	inputs, targets := makeDataset(10)

	tests := []struct {
		name          string
		inputs        [][]float32
		targets       []int
		batchSize     int
		maxNumBatches int
	}{
		{"zero batch size", inputs, targets, 0, -1},
		{"negative batch size", inputs, targets, -3, -1},
		{"zero max batches", inputs, targets, 2, 0},
		{"max batches below -1", inputs, targets, 2, -2},
		{"length mismatch", inputs, targets[:9], 2, -1},
		{"no complete batch", inputs, targets, 11, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.inputs, tt.targets, tt.batchSize, tt.maxNumBatches, false, nil)
			require.Error(t, err)
			var cfgErr *ConfigError
			assert.True(t, errors.As(err, &cfgErr), "expected *ConfigError, got %T", err)
		})
	}
}

func TestNextUnshuffledCycle(t *testing.T) {
	inputs, targets := makeDataset(7)
	p, err := New(inputs, targets, 2, -1, false, nil)
	require.NoError(t, err)
	require.Equal(t, 3, p.NumBatches())

	// Two full epochs: the same three contiguous batches recur, row 6 never
	// appears, and the fourth call of each pass signals end of epoch.
	for epoch := 0; epoch < 2; epoch++ {
		for b := 0; b < 3; b++ {
			in, tg, err := p.Next()
			require.NoError(t, err, "epoch %d batch %d", epoch, b)
			require.Len(t, in, 2)
			require.Len(t, tg, 2)
			assert.Equal(t, []int{2 * b, 2*b + 1}, tg)
		}
		_, _, err := p.Next()
		require.ErrorIs(t, err, ErrEndOfEpoch)
	}
}

func TestNextPairingSurvivesShuffles(t *testing.T) {
	inputs, targets := makeDataset(50)
	p, err := New(inputs, targets, 5, -1, true, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	for epoch := 0; epoch < 4; epoch++ {
		for b := 0; b < p.NumBatches(); b++ {
			in, tg, err := p.Next()
			require.NoError(t, err)
			for i := range in {
				assert.Equal(t, float32(tg[i]), in[i][0],
					"epoch %d batch %d row %d: input id and target diverged", epoch, b, i)
			}
		}
		_, _, err := p.Next()
		require.ErrorIs(t, err, ErrEndOfEpoch)
	}
}

func TestNextEpochCoversDistinctRows(t *testing.T) {
	inputs, targets := makeDataset(23)
	p, err := New(inputs, targets, 4, -1, true, rand.New(rand.NewSource(99)))
	require.NoError(t, err)
	require.Equal(t, 5, p.NumBatches())

	seen := make(map[int]bool)
	for b := 0; b < p.NumBatches(); b++ {
		_, tg, err := p.Next()
		require.NoError(t, err)
		for _, id := range tg {
			assert.False(t, seen[id], "row %d served twice in one epoch", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, 20)
}

func TestShuffleDeterminism(t *testing.T) {
	inputsA, targetsA := makeDataset(40)
	inputsB, targetsB := makeDataset(40)

	a, err := New(inputsA, targetsA, 4, -1, true, rand.New(rand.NewSource(1234)))
	require.NoError(t, err)
	b, err := New(inputsB, targetsB, 4, -1, true, rand.New(rand.NewSource(1234)))
	require.NoError(t, err)

	for i := 0; i < 3*(a.NumBatches()+1); i++ {
		inA, tgA, errA := a.Next()
		inB, tgB, errB := b.Next()
		if errors.Is(errA, ErrEndOfEpoch) {
			require.ErrorIs(t, errB, ErrEndOfEpoch)
			continue
		}
		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.Equal(t, tgA, tgB, "call %d: batch targets diverged", i)
		assert.Equal(t, inA, inB, "call %d: batch inputs diverged", i)
	}
}

func TestDefaultSeedIsDeterministic(t *testing.T) {
	inputsA, targetsA := makeDataset(20)
	inputsB, targetsB := makeDataset(20)

	a, err := New(inputsA, targetsA, 5, -1, true, nil)
	require.NoError(t, err)
	b, err := New(inputsB, targetsB, 5, -1, true, nil)
	require.NoError(t, err)

	_, tgA, err := a.Next()
	require.NoError(t, err)
	_, tgB, err := b.Next()
	require.NoError(t, err)
	assert.Equal(t, tgA, tgB)
}

func TestResetRestartsEpoch(t *testing.T) {
	inputs, targets := makeDataset(8)
	p, err := New(inputs, targets, 2, -1, false, nil)
	require.NoError(t, err)

	_, first, err := p.Next()
	require.NoError(t, err)
	_, _, err = p.Next()
	require.NoError(t, err)

	p.Reset()
	_, again, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestShufflePermutesWholeDataset(t *testing.T) {
	// With maxNumBatches capping the epoch at one batch, the rows left out
	// of the epoch must still vary across shuffles.
	inputs, targets := makeDataset(30)
	p, err := New(inputs, targets, 3, 1, true, rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	require.Equal(t, 1, p.NumBatches())

	served := make(map[int]bool)
	for epoch := 0; epoch < 20; epoch++ {
		_, tg, err := p.Next()
		require.NoError(t, err)
		for _, id := range tg {
			served[id] = true
		}
		_, _, err = p.Next()
		require.ErrorIs(t, err, ErrEndOfEpoch)
	}
	// 20 epochs of 3 rows from a 30-row dataset: a permutation that only
	// touched the first batch would keep this set at 3.
	assert.Greater(t, len(served), 10, "shuffle does not appear to cover the whole dataset")
}
