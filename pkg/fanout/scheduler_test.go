package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRunner tracks how many jobs run at once.
type countingRunner struct {
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32

	mu  sync.Mutex
	ran []string
}

func (c *countingRunner) Run(_ context.Context, id string) Outcome {
	n := c.inFlight.Add(1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(c.delay)
	c.inFlight.Add(-1)

	c.mu.Lock()
	c.ran = append(c.ran, id)
	c.mu.Unlock()

	return Outcome{TargetID: id, Result: Success}
}

func targetIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", 100+i)
	}
	return ids
}

func TestNewScheduler_ClampsParallelism(t *testing.T) {
	assert.Equal(t, 1, NewScheduler(&countingRunner{}, 0).Parallelism())
	assert.Equal(t, 1, NewScheduler(&countingRunner{}, -3).Parallelism())
	assert.Equal(t, 4, NewScheduler(&countingRunner{}, 4).Parallelism())
}

func TestScheduler_SequentialKeepsOrder(t *testing.T) {
	runner := &countingRunner{}
	targets := targetIDs(5)

	var seen []string
	outcomes := NewScheduler(runner, 1).RunAll(context.Background(), targets, func(o Outcome) {
		seen = append(seen, o.TargetID)
	})

	require.Len(t, outcomes, 5)
	assert.Equal(t, targets, seen)
	assert.Equal(t, targets, runner.ran)
	assert.Equal(t, int32(1), runner.peak.Load())
}

func TestScheduler_ConcurrencyCap(t *testing.T) {
	tests := []struct {
		parallelism int
		targets     int
	}{
		{2, 7},
		{3, 5},
		{5, 3},
		{20, 40},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("p=%d t=%d", tt.parallelism, tt.targets), func(t *testing.T) {
			runner := &countingRunner{delay: 10 * time.Millisecond}

			outcomes := NewScheduler(runner, tt.parallelism).RunAll(context.Background(), targetIDs(tt.targets), nil)

			assert.Len(t, outcomes, tt.targets)
			assert.LessOrEqual(t, int(runner.peak.Load()), tt.parallelism)
			assert.GreaterOrEqual(t, runner.peak.Load(), int32(1))
		})
	}
}

func TestScheduler_EveryTargetAttributedOnce(t *testing.T) {
	targets := targetIDs(12)
	outcomes := NewScheduler(&countingRunner{delay: time.Millisecond}, 4).RunAll(context.Background(), targets, nil)

	seen := make(map[string]int)
	for _, o := range outcomes {
		seen[o.TargetID]++
	}
	assert.Len(t, seen, len(targets))
	for _, id := range targets {
		assert.Equal(t, 1, seen[id], id)
	}
}

func TestScheduler_CallbackPerOutcome(t *testing.T) {
	var calls int
	outcomes := NewScheduler(&countingRunner{}, 3).RunAll(context.Background(), targetIDs(6), func(Outcome) {
		calls++
	})
	assert.Equal(t, len(outcomes), calls)
}

func TestScheduler_EmptyTargets(t *testing.T) {
	for _, p := range []int{1, 4} {
		outcomes := NewScheduler(&countingRunner{}, p).RunAll(context.Background(), nil, nil)
		assert.Empty(t, outcomes)
		assert.Equal(t, ExitOK, Aggregate(outcomes).ExitCode())
	}
}

func TestScheduler_CanceledBeforeDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := NewScheduler(&countingRunner{}, 2).RunAll(ctx, targetIDs(4), nil)

	// Every target still yields exactly one outcome.
	assert.Len(t, outcomes, 4)
}

func TestScenario_ParallelAllSucceed(t *testing.T) {
	host := newFakeHost().running(targetIDs(5)...)
	runner := newTestRunner(host, Options{})

	outcomes := NewScheduler(runner, 3).RunAll(context.Background(), targetIDs(5), nil)
	tally := Aggregate(outcomes)

	assert.Equal(t, Tally{Success: 5}, tally)
	assert.Equal(t, ExitOK, tally.ExitCode())
}

func TestScenario_OneCopyFailure(t *testing.T) {
	host := newFakeHost().running("101", "102")
	runner := newTestRunner(host, Options{})

	for _, p := range []int{1, 2} {
		host.pushErrs["101"] = []error{errors.New("copy")}
		outcomes := NewScheduler(runner, p).RunAll(context.Background(), []string{"101", "102"}, nil)
		tally := Aggregate(outcomes)

		assert.Equal(t, Tally{Success: 1, Skipped: 0, Failed: 1}, tally)
		assert.Equal(t, ExitFailed, tally.ExitCode())

		failed := FilterByResult(outcomes, Failed)
		require.Len(t, failed, 1)
		assert.Equal(t, "101", failed[0].TargetID)
	}
}
