package dispatch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// joblogHeader matches GNU parallel's --joblog column layout so existing
// post-processing scripts keep working against our output.
const joblogHeader = "Seq\tHost\tStarttime\tJobRuntime\tSend\tReceive\tExitval\tSignal\tCommand\n"

// JobLog records one line per completed invocation. Workers write
// concurrently, so all writes go through a mutex.
type JobLog struct {
	mu      sync.Mutex
	f       *os.File
	host    string
	records int
}

// NewJobLog creates (or truncates) the job log at path, creating parent
// directories as needed, and writes the header.
func NewJobLog(path string) (*JobLog, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create joblog directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create joblog %s: %w", path, err)
	}
	if _, err := f.WriteString(joblogHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write joblog header: %w", err)
	}
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	log.Debug().Str("path", path).Msg("joblog opened")
	return &JobLog{f: f, host: host}, nil
}

// Record appends one completion record.
func (l *JobLog) Record(t Task, start time.Time, runtime time.Duration, exitCode, signal int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("%d\t%s\t%.3f\t%.3f\t0\t0\t%d\t%d\t%s\n",
		t.Seq, l.host, float64(start.UnixMilli())/1000.0, runtime.Seconds(),
		exitCode, signal, strings.Join(t.Argv, " "))
	if _, err := l.f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append joblog record: %w", err)
	}
	l.records++
	return nil
}

// Records reports how many completion records were written.
func (l *JobLog) Records() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records
}

// Close flushes and closes the underlying file.
func (l *JobLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}
