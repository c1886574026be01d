// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Sorted returns the collected errors ordered by path.
func (e *ProcessingErrors) Sorted() []ProcessingError {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ProcessingError, len(e.Errors))
	copy(out, e.Errors)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})
	return out
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e *ProcessingErrors) Unwrap() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	errs := make([]error, len(e.Errors))
	for i, pe := range e.Errors {
		errs[i] = pe
	}
	return errs
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// Workers resolves a worker count. Values <= 0 select 2x NumCPU.
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU() * DefaultWorkerMultiplier
	}
	return n
}

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// ErrSkipped marks a file that was not processed because the context ended.
var ErrSkipped = errors.New("skipped")

// MapFilesWithResource processes files in parallel, giving each worker its
// own resource (e.g. a parser, which is not safe for concurrent use).
//
// Results are stored at the index of their input file, so output order is
// deterministic; failed files leave the zero value and are reported in the
// returned errors. Once ctx is done, remaining files are recorded as
// ErrSkipped wrapping the context error. Errors is nil when every file
// succeeded. If maxWorkers is <= 0, defaults to 2x NumCPU.
func MapFilesWithResource[T any, R any](
	ctx context.Context,
	files []string,
	maxWorkers int,
	newResource func() R,
	closeResource func(R),
	fn func(context.Context, R, string) (T, error),
	onProgress ProgressFunc,
) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	maxWorkers = Workers(maxWorkers)
	results := make([]T, len(files))
	errs := &ProcessingErrors{}

	// At most maxWorkers tasks run at once, so at most maxWorkers resources
	// are ever created and returning one to idle never blocks.
	idle := make(chan R, maxWorkers)

	p := pool.New().WithMaxGoroutines(maxWorkers)
	for i, path := range files {
		p.Go(func() {
			if onProgress != nil {
				defer onProgress()
			}
			if err := ctx.Err(); err != nil {
				errs.Add(path, fmt.Errorf("%w: %w", ErrSkipped, err))
				return
			}

			var res R
			select {
			case res = <-idle:
			default:
				res = newResource()
			}
			defer func() { idle <- res }()

			result, err := fn(ctx, res, path)
			if err != nil {
				errs.Add(path, err)
				return
			}
			results[i] = result
		})
	}
	p.Wait()

	close(idle)
	for res := range idle {
		if closeResource != nil {
			closeResource(res)
		}
	}

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}
