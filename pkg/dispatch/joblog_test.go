package dispatch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestJobLogFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "joblog.txt")
	jl, err := NewJobLog(path)
	if err != nil {
		t.Fatal(err)
	}
	task := Task{Seq: 1, Token: "2016", Argv: []string{"python3", "s3_download.py", "--batch", "2016"}}
	start := time.Unix(1700000000, 0)
	if err := jl.Record(task, start, 1500*time.Millisecond, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := jl.Record(Task{Seq: 2, Token: "2017", Argv: []string{"x"}}, start, time.Second, 3, 0); err != nil {
		t.Fatal(err)
	}
	if err := jl.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 records, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Seq\tHost\t") {
		t.Fatalf("missing header: %q", lines[0])
	}
	fields := strings.Split(lines[1], "\t")
	if len(fields) != 9 {
		t.Fatalf("expected 9 columns, got %d: %q", len(fields), lines[1])
	}
	if fields[0] != "1" || fields[6] != "0" {
		t.Fatalf("unexpected record: %q", lines[1])
	}
	if fields[8] != "python3 s3_download.py --batch 2016" {
		t.Fatalf("unexpected command column: %q", fields[8])
	}
	if f2 := strings.Split(lines[2], "\t"); f2[6] != "3" {
		t.Fatalf("exit code not recorded: %q", lines[2])
	}
}

func TestJobLogCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "joblog.txt")
	jl, err := NewJobLog(path)
	if err != nil {
		t.Fatalf("NewJobLog returned error: %v", err)
	}
	_ = jl.Close()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("joblog not created: %v", err)
	}
}
