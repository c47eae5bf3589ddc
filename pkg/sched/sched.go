package sched

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// NodefileEnv is the PBS-provided path to the file listing one allocated
// CPU slot per line.
const NodefileEnv = "PBS_NODEFILE"

// Info describes what the scheduler environment looks like from inside (or
// outside) a job.
type Info struct {
	Scheduler string // "PBS" or "none"
	Nodefile  string
	InJob     bool
	Slots     int // 0 when no allocation could be read
}

// Detect probes the environment for a PBS allocation. It never fails; use
// Resolve when an actual worker count is required.
func Detect() Info {
	info := Info{Scheduler: "none"}
	if nf, ok := os.LookupEnv(NodefileEnv); ok {
		info.Scheduler = "PBS"
		info.Nodefile = nf
		info.InJob = true
		if n, err := SlotsFromNodefile(nf); err == nil {
			info.Slots = n
		}
	}
	return info
}

// SlotsFromNodefile counts non-empty lines in a scheduler nodefile. PBS
// writes one line per allocated CPU, so the line count is the slot count.
func SlotsFromNodefile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open nodefile: %w", err)
	}
	defer func() { _ = f.Close() }()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			n++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read nodefile %s: %w", path, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("nodefile %s lists no allocated slots", path)
	}
	return n, nil
}

// Resolve determines the worker count for a run. Precedence: explicit flag,
// then config value, then the scheduler nodefile (override path or
// $PBS_NODEFILE). Failing all three is a setup error: dispatch must not
// start without a bound.
func Resolve(flagJobs, configJobs int, nodefileOverride string) (int, error) {
	if flagJobs > 0 {
		return flagJobs, nil
	}
	if flagJobs < 0 {
		return 0, fmt.Errorf("jobs must be positive, got %d", flagJobs)
	}
	if configJobs > 0 {
		return configJobs, nil
	}
	nodefile := nodefileOverride
	if nodefile == "" {
		nodefile = os.Getenv(NodefileEnv)
	}
	if nodefile == "" {
		return 0, fmt.Errorf("cannot determine worker count: no --jobs, no config jobs, and %s is unset", NodefileEnv)
	}
	n, err := SlotsFromNodefile(nodefile)
	if err != nil {
		return 0, fmt.Errorf("cannot determine worker count: %w", err)
	}
	log.Debug().Str("nodefile", nodefile).Int("slots", n).Msg("worker count from nodefile")
	return n, nil
}
