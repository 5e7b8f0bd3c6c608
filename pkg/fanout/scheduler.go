package fanout

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

const (
	// MinParallelism and MaxParallelism bound the number of containers in flight.
	MinParallelism = 1
	MaxParallelism = 20
)

// JobRunner runs the operation on one target.
type JobRunner interface {
	Run(ctx context.Context, id string) Outcome
}

// Scheduler dispatches jobs over a target list with at most parallelism
// jobs in flight. Dispatched jobs always run to completion.
type Scheduler struct {
	runner      JobRunner
	parallelism int
}

// NewScheduler creates a new scheduler.
func NewScheduler(runner JobRunner, parallelism int) *Scheduler {
	if parallelism < MinParallelism {
		parallelism = MinParallelism
	}
	return &Scheduler{
		runner:      runner,
		parallelism: parallelism,
	}
}

// Parallelism returns the concurrency cap.
func (s *Scheduler) Parallelism() int {
	return s.parallelism
}

// RunAll runs every target and returns exactly one outcome per target.
// onOutcome, if not nil, is called from the calling goroutine as each job
// completes. Outcomes are in completion order when running in parallel.
func (s *Scheduler) RunAll(ctx context.Context, targets []string, onOutcome func(Outcome)) []Outcome {
	if onOutcome == nil {
		onOutcome = func(Outcome) {}
	}

	if s.parallelism <= 1 {
		return s.runSequential(ctx, targets, onOutcome)
	}
	return s.runParallel(ctx, targets, onOutcome)
}

func (s *Scheduler) runSequential(ctx context.Context, targets []string, onOutcome func(Outcome)) []Outcome {
	outcomes := make([]Outcome, 0, len(targets))
	for _, id := range targets {
		o := s.runner.Run(ctx, id)
		outcomes = append(outcomes, o)
		onOutcome(o)
	}
	return outcomes
}

func (s *Scheduler) runParallel(ctx context.Context, targets []string, onOutcome func(Outcome)) []Outcome {
	sem := semaphore.NewWeighted(int64(s.parallelism))
	// Buffered so no job blocks on delivery.
	results := make(chan Outcome, len(targets))

	go func() {
		for _, id := range targets {
			if err := sem.Acquire(ctx, 1); err != nil {
				results <- Outcome{
					TargetID: id,
					Result:   Failed,
					Detail:   fmt.Sprintf("not dispatched: %v", err),
					ExitCode: -1,
				}
				continue
			}
			go func(id string) {
				defer sem.Release(1)
				results <- s.runner.Run(ctx, id)
			}(id)
		}
	}()

	outcomes := make([]Outcome, 0, len(targets))
	for range targets {
		o := <-results
		outcomes = append(outcomes, o)
		onOutcome(o)
	}
	return outcomes
}
