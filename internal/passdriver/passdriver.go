// Package passdriver runs the register allocator across every trace of a
// compilation unit concurrently. Allocation within one trace is strictly
// single-threaded (regalloc's own contract); parallelism only ever happens
// across traces, one goroutine per trace, bounded by a semaphore.
package passdriver

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/riftlang/riftc/internal/lir"
	"github.com/riftlang/riftc/internal/regalloc"
	"github.com/riftlang/riftc/internal/rterr"
)

// DefaultConcurrency bounds how many traces allocate at once when the
// caller doesn't override it; tiny compilation units don't benefit from
// more goroutines than there are traces, but this is the ceiling.
const DefaultConcurrency = 8

// TraceJob names one trace for the driver plus the collaborators its
// allocation needs. Run's cacheSlots map, when non-nil, is shared by every
// job in the run: each job allocates against a private copy, and the
// entries it adds are merged back under a mutex, letting stack-slot caching
// work across traces of the same function.
type TraceJob struct {
	Name   string
	Trace  *lir.Trace
	Target regalloc.TargetDescription
	Config regalloc.Config
	Frame  regalloc.FrameBuilder
	Moves  regalloc.MoveFactory
}

// TraceResult pairs a job's name with its outcome: either a *regalloc.Result
// on success, or a non-nil Err. A per-trace AllocatorBailout never aborts
// the other jobs in the run — isolation is exactly one trace wide.
type TraceResult struct {
	Name   string
	Result *regalloc.Result
	Err    error
}

// Run allocates every job concurrently, bounded by concurrency (DefaultConcurrency
// if <= 0), and returns one TraceResult per job in the same order they were
// given. A job whose error is an AllocatorBug aborts the whole run, since a
// bug recorded against one trace casts doubt on the allocator's internal
// state; an AllocatorBailout is recorded in that job's TraceResult and the
// run continues.
func Run(ctx context.Context, jobs []TraceJob, concurrency int, cacheSlots map[int]int) ([]TraceResult, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]TraceResult, len(jobs))
	semaphore := make(chan struct{}, concurrency)

	var cacheMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	for i, job := range jobs {
		i, job := i, job

		g.Go(func() error {
			select {
			case semaphore <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-semaphore }()

			localCache := snapshotCache(&cacheMu, cacheSlots)

			res, err := regalloc.Allocate(job.Trace, job.Target, job.Config, job.Frame, job.Moves, localCache)

			mergeCache(&cacheMu, cacheSlots, localCache)

			if err != nil {
				if rterr.IsBug(err) {
					return fmt.Errorf("trace %s: %w", job.Name, err)
				}

				results[i] = TraceResult{Name: job.Name, Err: err}

				return nil
			}

			results[i] = TraceResult{Name: job.Name, Result: res}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// snapshotCache takes a private copy of the shared slot cache so each
// trace's allocation run doesn't race with siblings reading or writing it
// mid-run; Run merges the copy back afterward.
func snapshotCache(mu *sync.Mutex, shared map[int]int) map[int]int {
	if shared == nil {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	out := make(map[int]int, len(shared))
	for k, v := range shared {
		out[k] = v
	}

	return out
}

func mergeCache(mu *sync.Mutex, shared, local map[int]int) {
	if shared == nil || local == nil {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	for k, v := range local {
		if _, ok := shared[k]; !ok {
			shared[k] = v
		}
	}
}
