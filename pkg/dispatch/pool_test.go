package dispatch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func makeTasks(tokens ...string) []Task {
	tasks := make([]Task, len(tokens))
	for i, tok := range tokens {
		tasks[i] = Task{Seq: i + 1, Token: tok, Argv: []string{"downloader", "--batch", tok}}
	}
	return tasks
}

func TestDispatchRunsEveryTaskOnce(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	pool := &Pool{
		Workers: 2,
		Run: func(ctx context.Context, task Task) (int, error) {
			mu.Lock()
			seen[task.Token]++
			mu.Unlock()
			return 0, nil
		},
	}
	summary, err := pool.Dispatch(context.Background(), makeTasks("A", "B", "C"))
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if summary.Total != 3 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct tokens, got %d", len(seen))
	}
	for tok, n := range seen {
		if n != 1 {
			t.Errorf("token %s invoked %d times", tok, n)
		}
	}
}

func TestDispatchBoundsConcurrency(t *testing.T) {
	var current, peak atomic.Int64
	pool := &Pool{
		Workers: 2,
		Run: func(ctx context.Context, task Task) (int, error) {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			current.Add(-1)
			return 0, nil
		},
	}
	if _, err := pool.Dispatch(context.Background(), makeTasks("A", "B", "C", "D", "E")); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if p := peak.Load(); p > 2 {
		t.Fatalf("concurrency bound violated: peak %d > 2", p)
	}
}

func TestDispatchContinuesOnFailure(t *testing.T) {
	var calls atomic.Int64
	pool := &Pool{
		Workers: 1,
		Run: func(ctx context.Context, task Task) (int, error) {
			calls.Add(1)
			if task.Token == "B" {
				return 3, fmt.Errorf("exit status 3")
			}
			return 0, nil
		},
	}
	summary, err := pool.Dispatch(context.Background(), makeTasks("A", "B", "C"))
	if err != nil {
		t.Fatalf("default policy must not abort: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 invocations, got %d", calls.Load())
	}
	if summary.Failed != 1 || summary.ExitCode() != 1 {
		t.Fatalf("unexpected summary: %+v exit=%d", summary, summary.ExitCode())
	}
}

func TestDispatchHaltStopsQueuedTasks(t *testing.T) {
	var calls atomic.Int64
	pool := &Pool{
		Workers: 1,
		Halt:    true,
		Run: func(ctx context.Context, task Task) (int, error) {
			calls.Add(1)
			return 1, fmt.Errorf("exit status 1")
		},
	}
	_, err := pool.Dispatch(context.Background(), makeTasks("A", "B", "C"))
	if err == nil {
		t.Fatal("halt mode must surface the failure")
	}
	if calls.Load() != 1 {
		t.Fatalf("queued tasks ran after halt: %d invocations", calls.Load())
	}
}

func TestDispatchWritesJoblogRecordPerTask(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "joblog.txt")
	jl, err := NewJobLog(logPath)
	if err != nil {
		t.Fatal(err)
	}
	pool := &Pool{
		Workers: 2,
		Log:     jl,
		Run: func(ctx context.Context, task Task) (int, error) {
			if task.Token == "C" {
				return 2, fmt.Errorf("exit status 2")
			}
			return 0, nil
		},
	}
	summary, err := pool.Dispatch(context.Background(), makeTasks("A", "B", "C"))
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if err := jl.Close(); err != nil {
		t.Fatal(err)
	}
	if summary.Total != 3 {
		t.Fatalf("unexpected total: %d", summary.Total)
	}
	if jl.Records() != 3 {
		t.Fatalf("expected 3 joblog records, got %d", jl.Records())
	}
}

func TestDispatchRejectsZeroWorkers(t *testing.T) {
	pool := &Pool{Workers: 0, Run: func(ctx context.Context, task Task) (int, error) {
		t.Fatal("no task should run with zero workers")
		return 0, nil
	}}
	if _, err := pool.Dispatch(context.Background(), makeTasks("A")); err == nil {
		t.Fatal("expected setup error for zero workers")
	}
}

func TestSummaryExitCodeCap(t *testing.T) {
	if (Summary{Total: 300, Failed: 250}).ExitCode() != 101 {
		t.Fatal("exit code must cap at 101")
	}
	if (Summary{Total: 5}).ExitCode() != 0 {
		t.Fatal("clean run must exit 0")
	}
}
