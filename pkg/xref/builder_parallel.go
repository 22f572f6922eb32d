package xref

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/dexlens/dexlens/pkg/model"
)

// buildAdjacenciesParallel indexes every class concurrently, bounded by
// a weighted semaphore so construction never spawns more goroutines
// than there are usable cores, then returns the per-class results in
// input order for deterministic merging by the caller. Construction
// remains O(total instructions); only the wall-clock, not the output,
// benefits from the concurrency.
func buildAdjacenciesParallel(ctx *model.Context) ([]classAdjacency, error) {
	classes := make([]*model.Class, 0, len(ctx.Classes))
	for _, c := range ctx.Classes {
		classes = append(classes, c)
	}

	limit := int64(runtime.GOMAXPROCS(0))
	if limit < 1 {
		limit = 1
	}
	sem := semaphore.NewWeighted(limit)
	bg := context.Background()

	results := make([]classAdjacency, len(classes))
	errs := make([]error, len(classes))
	var wg sync.WaitGroup

	for i, class := range classes {
		if err := sem.Acquire(bg, 1); err != nil {
			// Background context never cancels; this only guards
			// against a future caller wiring in a real deadline.
			errs[i] = err
			continue
		}
		wg.Add(1)
		go func(i int, class *model.Class) {
			defer wg.Done()
			defer sem.Release(1)
			adj, err := indexClass(class)
			results[i] = adj
			errs[i] = err
		}(i, class)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
