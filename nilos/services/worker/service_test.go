package worker

import (
	"strings"
	"testing"

	"nilrt/kernel"
)

type lines []string

func (l *lines) WriteLineString(s string) { *l = append(*l, s) }

func TestWorkerResults(t *testing.T) {
	kick := kernel.NewSemaphore(0)
	var log lines
	svc := New(kick, &log, 4)
	sys, err := kernel.New(kernel.Config{Threads: []kernel.ThreadConfig{{Name: "worker", Entry: svc.Run}}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sys.Init()

	// Two kicks, one of them queued while the worker was busy.
	sys.ISR(func(s *kernel.System) {
		s.SemSignalLocked(kick)
		s.SemSignalLocked(kick)
	})
	if got := svc.Count(kernel.MsgOK); got != 2 {
		t.Fatalf("Count(ok) = %d, want 2", got)
	}

	for i := 0; i < 4; i++ {
		sys.Tick()
	}
	if got := svc.Count(kernel.MsgTimeout); got != 1 {
		t.Fatalf("Count(timeout) = %d, want 1", got)
	}

	sys.SemReset(kick, 0)
	if got := svc.Count(kernel.MsgReset); got != 1 {
		t.Fatalf("Count(reset) = %d, want 1", got)
	}
	if got := kick.Count(); got != -1 {
		t.Fatalf("kick Count() = %d, want -1 (worker waiting again)", got)
	}
	if !strings.Contains(svc.Status(), "2 ok 1 timeout 1 reset, last reset") {
		t.Fatalf("Status() = %q", svc.Status())
	}
	if len(log) != 3 || !strings.Contains(log[2], "warn") {
		t.Fatalf("log = %q", log)
	}
}
