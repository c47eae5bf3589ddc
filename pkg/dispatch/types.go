package dispatch

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the YAML dispatch configuration. Every field can be overridden
// by a flag; the file exists so a run is reproducible from one artifact
// instead of a shell history.
type Config struct {
	BatchList   string   `yaml:"batch_list"`
	DownloadDir string   `yaml:"download_dir"`
	ROI         string   `yaml:"roi"`
	Joblog      string   `yaml:"joblog"`
	Jobs        int      `yaml:"jobs"`
	Command     string   `yaml:"command"`
	Args        []string `yaml:"args"`
}

// DefaultCommand and DefaultArgs reproduce the canonical downloader
// invocation: one call per batch token with fixed ROI and output directory.
var (
	DefaultCommand = "python3"
	DefaultArgs    = []string{
		"s3_download.py",
		"--roi_wkt", "{{.ROI}}",
		"--download_dir", "{{.DownloadDir}}",
		"--batch", "{}",
	}
)

// LoadConfig reads and parses a dispatch config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dispatch config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse dispatch config YAML: %w", err)
	}
	return &cfg, nil
}

// Task is one unit of work: a single downloader invocation for one batch
// token.
type Task struct {
	Seq   int
	Token string
	Argv  []string
}

// Summary aggregates a finished run.
type Summary struct {
	Total  int
	Failed int
}

// ExitCode maps the failure count onto the process exit code the way GNU
// parallel does: 0 on success, otherwise the number of failed jobs capped
// at 101, so downstream epilogue scripts keep a stable contract.
func (s Summary) ExitCode() int {
	if s.Failed > 101 {
		return 101
	}
	return s.Failed
}

// ExitError carries a specific process exit code out through the command
// error path.
type ExitError struct {
	Code int
	Msg  string
}

func (e *ExitError) Error() string { return e.Msg }
