package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunDefaultTable(t *testing.T) {
	var out bytes.Buffer
	if err := run(&out, "", "64KB"); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	got := out.String()
	for _, want := range []string{"PRIO", "edge", "console", "term", "idle", "threads: 5"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunBudgetExceeded(t *testing.T) {
	var out bytes.Buffer
	err := run(&out, "", "1KB")
	if err == nil || !strings.Contains(err.Error(), "budget") {
		t.Fatalf("run() error = %v, want budget error", err)
	}
}

func TestRunUnknownService(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nil.yaml")
	table := "threads:\n  - name: a\n    service: nope\n"
	if err := os.WriteFile(path, []byte(table), 0o644); err != nil {
		t.Fatal(err)
	}
	err := run(&bytes.Buffer{}, path, "")
	if err == nil || !strings.Contains(err.Error(), "unknown service") {
		t.Fatalf("run() error = %v, want unknown service", err)
	}
}
