package providers

// OneHotProvider wraps a Provider over integer class labels and serves each
// batch with the labels expanded to one-of-K encoded rows: a length-K vector
// of zeros with a single one at the label's index.
type OneHotProvider struct {
	p          *Provider[int]
	numClasses int
}

// NewOneHot wraps p so its integer targets are one-hot encoded over
// numClasses classes.
func NewOneHot(p *Provider[int], numClasses int) (*OneHotProvider, error) {
	if p == nil {
		return nil, &ConfigError{Param: "provider", Reason: "must not be nil"}
	}
	if numClasses <= 0 {
		return nil, &ConfigError{Param: "numClasses", Reason: "must be > 0"}
	}
	return &OneHotProvider{p: p, numClasses: numClasses}, nil
}

// NumClasses returns the width of the encoded target rows.
func (o *OneHotProvider) NumClasses() int { return o.numClasses }

// NumBatches returns the number of batches served per epoch.
func (o *OneHotProvider) NumBatches() int { return o.p.NumBatches() }

// BatchSize returns the number of rows per batch.
func (o *OneHotProvider) BatchSize() int { return o.p.BatchSize() }

// Reset rewinds the wrapped provider to the start of an epoch.
func (o *OneHotProvider) Reset() { o.p.Reset() }

// Next returns the next batch with targets one-hot encoded. End-of-epoch
// signaling passes through unchanged from the wrapped provider. A label
// outside [0, NumClasses) returns a *LabelRangeError and the batch is
// discarded.
func (o *OneHotProvider) Next() (inputs [][]float32, targets [][]float32, err error) {
	inputs, labels, err := o.p.Next()
	if err != nil {
		return nil, nil, err
	}
	targets, err = OneHot(labels, o.numClasses)
	if err != nil {
		return nil, nil, err
	}
	return inputs, targets, nil
}

// OneHot converts integer class labels to one-of-K encoded rows. Each row is
// a zero vector of length numClasses with a one at the label's index. A
// label outside [0, numClasses) returns a *LabelRangeError.
func OneHot(labels []int, numClasses int) ([][]float32, error) {
	encoded := make([][]float32, len(labels))
	for i, c := range labels {
		if c < 0 || c >= numClasses {
			return nil, &LabelRangeError{Label: c, NumClasses: numClasses}
		}
		row := make([]float32, numClasses)
		row[c] = 1
		encoded[i] = row
	}
	return encoded, nil
}
