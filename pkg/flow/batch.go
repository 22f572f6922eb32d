package flow

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/dexlens/dexlens/pkg/model"
)

// BatchResult pairs one method with its analysis outcome, err holding
// any failure Analyse itself returned (a malformed code item, not a
// budget or cancellation, both of which Result.Incomplete reports
// instead).
type BatchResult struct {
	Method *model.Method
	Result *Result
	Err    error
}

// AnalyseBatch runs Analyse over every method concurrently, bounded to
// GOMAXPROCS workers the way pkg/xref's builder_parallel.go bounds its
// own per-class fan-out, but through errgroup.SetLimit rather than a
// semaphore.Weighted/WaitGroup pair, since nothing here needs the
// semaphore's separate acquire/release points. Each method gets its
// own worklist and register-file allocations, so no VM or heap is
// shared across workers; results come back index-keyed, in the same
// order as methods, regardless of completion order.
func AnalyseBatch(methods []*model.Method, opts Options) []BatchResult {
	results := make([]BatchResult, len(methods))
	if len(methods) == 0 {
		return results
	}

	limit := runtime.GOMAXPROCS(0)
	if limit < 1 {
		limit = 1
	}

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(limit)

	for i, method := range methods {
		i, method := i, method
		g.Go(func() error {
			res, err := Analyse(method, opts)
			results[i] = BatchResult{Method: method, Result: res, Err: err}
			return nil
		})
	}
	// Every worker's error is captured per-item in results rather than
	// surfaced here, so one method's parse failure never aborts
	// analysis of the rest of the batch.
	_ = g.Wait()

	return results
}
