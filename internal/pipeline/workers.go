package pipeline

import (
	"context"
	"sync"
)

// runConcurrent fans items out across up to maxWorkers goroutines, calling
// fn once per item. It observes ctx cancellation at the top of each item
// rather than mid-flight, per §5's cancellation contract: in-flight work
// finishes, nothing new starts. The first per-item error is remembered and
// returned once every worker has drained, but does not stop the others —
// one bad message must not abort an entire backlog (§4.1 "re-entrant
// stages" — the next run retries only what's left).
func runConcurrent(ctx context.Context, items []string, maxWorkers int, fn func(ctx context.Context, item string) error) (processed int, firstErr error) {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, maxWorkers)
	)

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		item := item
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}
			err := fn(ctx, item)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			processed++
		}()
	}
	wg.Wait()
	return processed, firstErr
}
