package dispatch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// RunFunc executes one task and reports its exit code. A non-nil error
// means the invocation failed (nonzero exit or failure to start); the pool
// itself never interprets downloader output.
type RunFunc func(ctx context.Context, t Task) (exitCode int, err error)

// Pool runs tasks with a fixed number of concurrent workers. The worker
// count never changes during a run; tasks are fed through a channel and
// each worker owns one invocation at a time.
type Pool struct {
	Workers int
	Halt    bool // cancel outstanding work on first failure
	ETA     bool // periodic progress logging
	Log     *JobLog
	Run     RunFunc // nil means ExecTask
}

// Dispatch runs all tasks and returns the aggregate summary. Setup errors
// surface as a non-nil error; per-task failures only count into the
// summary unless Halt is set.
func (p *Pool) Dispatch(ctx context.Context, tasks []Task) (Summary, error) {
	if p.Workers <= 0 {
		return Summary{}, fmt.Errorf("worker count must be positive, got %d", p.Workers)
	}
	run := p.Run
	if run == nil {
		run = ExecTask
	}

	var completed, failed atomic.Int64
	started := time.Now()

	g, gctx := errgroup.WithContext(ctx)

	if p.ETA {
		etaCtx, stopETA := context.WithCancel(gctx)
		defer stopETA()
		go p.reportProgress(etaCtx, len(tasks), started, &completed)
	}

	queue := make(chan Task)
	g.Go(func() error {
		defer close(queue)
		for _, t := range tasks {
			select {
			case queue <- t:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < p.Workers; i++ {
		worker := i
		g.Go(func() error {
			for t := range queue {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				start := time.Now()
				code, err := run(gctx, t)
				elapsed := time.Since(start)
				signal := 0
				if code <= -128 {
					signal = -code - 128
					code = -1
				}
				if p.Log != nil {
					if lerr := p.Log.Record(t, start, elapsed, code, signal); lerr != nil {
						return lerr
					}
				}
				completed.Add(1)
				if err != nil {
					failed.Add(1)
					log.Warn().Int("seq", t.Seq).Str("token", t.Token).Int("worker", worker).
						Int("exit", code).Err(err).Msg("batch invocation failed")
					if p.Halt {
						return fmt.Errorf("batch %d ('%s') failed: %w", t.Seq, t.Token, err)
					}
					continue
				}
				log.Debug().Int("seq", t.Seq).Str("token", t.Token).Int("worker", worker).
					Dur("runtime", elapsed).Msg("batch invocation completed")
			}
			return nil
		})
	}

	err := g.Wait()
	summary := Summary{Total: int(completed.Load()), Failed: int(failed.Load())}
	log.Info().Int("total", summary.Total).Int("failed", summary.Failed).
		Dur("elapsed", time.Since(started)).Msg("dispatch finished")
	if err != nil {
		return summary, err
	}
	return summary, nil
}

func (p *Pool) reportProgress(ctx context.Context, total int, started time.Time, completed *atomic.Int64) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			done := completed.Load()
			ev := log.Info().Int64("completed", done).Int("total", total)
			if done > 0 {
				perTask := time.Since(started) / time.Duration(done)
				ev = ev.Dur("eta", perTask*time.Duration(int64(total)-done))
			}
			ev.Msg("dispatch progress")
		}
	}
}

// ExecTask runs a task's argv as a subprocess, inheriting stdout/stderr.
// Termination by signal is encoded as -(128+signal) so the job log can
// separate the exit and signal columns.
func ExecTask(ctx context.Context, t Task) (int, error) {
	cmd := exec.CommandContext(ctx, t.Argv[0], t.Argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				return -(128 + int(ws.Signal())), err
			}
			return ee.ExitCode(), err
		}
		return -1, fmt.Errorf("failed to start downloader: %w", err)
	}
	return 0, nil
}
