package annotate

import (
	"context"
	"runtime"
	"sync"

	"github.com/inodb/vibe-codon/internal/genome"
)

// WorkItem is a parsed variant tagged with its position in the input.
type WorkItem struct {
	Seq     int
	Variant *genome.Variant
}

// WorkResult carries the effects of one WorkItem.
type WorkResult struct {
	Seq     int
	Variant *genome.Variant
	Effects []Effect
	Err     error
}

// ParallelAnnotate evaluates items on a pool of workers (runtime.NumCPU()
// when workers <= 0). Results come out in completion order; pair it with
// OrderedCollect to restore input order.
//
// Workers exit when items is closed or ctx is done, and the returned channel
// is closed once they all have. A consumer that stops reading must cancel ctx.
func (a *Annotator) ParallelAnnotate(ctx context.Context, items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.work(ctx, items, results)
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

func (a *Annotator) work(ctx context.Context, items <-chan WorkItem, results chan<- WorkResult) {
	for {
		var item WorkItem
		select {
		case <-ctx.Done():
			return
		case it, ok := <-items:
			if !ok {
				return
			}
			item = it
		}

		effects, err := a.Annotate(item.Variant)
		select {
		case results <- WorkResult{Seq: item.Seq, Variant: item.Variant, Effects: effects, Err: err}:
		case <-ctx.Done():
			return
		}
	}
}

// OrderedCollect hands results to fn in sequence-number order, holding
// early arrivals until the gap before them is filled.
//
// The first error from fn is returned at once without draining results, as
// is ctx.Err() if ctx ends first; the caller cancels ctx to release the
// workers.
func OrderedCollect(ctx context.Context, results <-chan WorkResult, fn func(WorkResult) error) error {
	held := make(map[int]WorkResult)
	next := 0

	for {
		var r WorkResult
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rr, ok := <-results:
			if !ok {
				// Workers also close results when cancelled.
				return ctx.Err()
			}
			r = rr
		}

		held[r.Seq] = r
		for {
			ready, ok := held[next]
			if !ok {
				break
			}
			delete(held, next)
			next++
			if err := fn(ready); err != nil {
				return err
			}
		}
	}
}
