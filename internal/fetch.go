package internal

import (
	"context"
	"errors"
	"sync"
)

// FetchState is a snapshot of a Fetch
type FetchState[T any] struct {
	Data    T
	Loading bool
	Error   string
}

// Fetch wraps asynchronous requests behind a uniform {data, loading, error} contract.
//
// Every Do call issues a new generation. A result is applied only while its
// generation is still the latest; older results are handed back to their caller
// together with ErrSuperseded and leave the state untouched.
type Fetch[T any] struct {
	mu       sync.Mutex
	data     T
	loading  bool
	errMsg   string
	gen      uint64
	fallback string
}

// NewFetch creates a Fetch seeded with initial data. fallback is the message
// stored when a failure carries none; empty means DefaultErrorMessage.
func NewFetch[T any](initial T, fallback string) *Fetch[T] {
	return &Fetch[T]{data: initial, fallback: fallback}
}

// Do runs op and records its outcome
func (f *Fetch[T]) Do(ctx context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	gen := f.Begin()
	data, err := op(ctx)
	return f.Finish(gen, data, err)
}

// Mutate runs a write. A superseded result still leaves the state untouched,
// but a write the server accepted is returned as a success.
func (f *Fetch[T]) Mutate(ctx context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	gen := f.Begin()
	data, err := op(ctx)
	data, ferr := f.Finish(gen, data, err)
	if errors.Is(ferr, ErrSuperseded) {
		if err != nil {
			var zero T
			return zero, err
		}
		return data, nil
	}
	return data, ferr
}

// Begin issues a new generation and marks the fetch as loading. Callers that
// must order generations against their own state call it under their lock.
func (f *Fetch[T]) Begin() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.loading = true
	f.errMsg = ""
	return f.gen
}

// Finish records the outcome of generation gen if it is still the latest
func (f *Fetch[T]) Finish(gen uint64, data T, err error) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.gen {
		if err != nil {
			var zero T
			return zero, errors.Join(ErrSuperseded, err)
		}
		return data, ErrSuperseded
	}

	f.loading = false
	if err != nil {
		f.errMsg = UserMessage(err, f.fallback)
		var zero T
		return zero, err
	}
	f.data = data
	return data, nil
}

// State returns the current snapshot
func (f *Fetch[T]) State() FetchState[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FetchState[T]{Data: f.data, Loading: f.loading, Error: f.errMsg}
}

// Data returns the last applied data
func (f *Fetch[T]) Data() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data
}

// Set replaces the data without a request
func (f *Fetch[T]) Set(data T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = data
}

// Invalidate discards any in-flight result, as when the consumer goes away
func (f *Fetch[T]) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.loading = false
}

// Generation returns the latest issued generation
func (f *Fetch[T]) Generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen
}
