// Package providers implements epoch-based batch iteration over in-memory
// labeled datasets for training numeric models.
//
// The central type is Provider, which owns a paired (inputs, targets)
// dataset and hands out fixed-size batches one at a time. An epoch is one
// full pass of NumBatches batches; when the pass is exhausted Next returns
// ErrEndOfEpoch, resets itself (reshuffling if enabled), and the following
// call starts a fresh epoch. Iteration is therefore an infinite, restartable
// sequence of batches with an explicit end-of-epoch marker between passes.
//
// Two dataset-specific constructions are built on top of Provider:
//
//   - OneHotProvider converts integer class labels to one-of-K encoded rows
//     per batch, for classification targets.
//   - NewWindowed builds a (inputs, target) dataset from a raw 1-D series by
//     normalizing it and splitting it into non-overlapping windows, for
//     time-series regression targets.
//
// Shuffling is index-based: the provider keeps a permutation over row
// indices and gathers batches through it, so the underlying arrays are never
// physically reordered and the i-th input always stays paired with the i-th
// target. Each provider exclusively owns its RNG; two providers built over
// the same data with identically seeded RNGs produce identical batch
// sequences across epochs.
//
// Batches can be handed to gomlx training loops through TensorDataset, which
// adapts a provider to the train.Dataset Yield protocol.
package providers
