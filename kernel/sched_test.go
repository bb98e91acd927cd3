package kernel

import (
	"strings"
	"testing"
)

// trace collects tokens emitted by threads. Only the running thread touches
// it, so no locking is needed.
type trace struct {
	b strings.Builder
}

func (tr *trace) emit(s string) { tr.b.WriteString(s) }
func (tr *trace) String() string { return tr.b.String() }

func newTestSystem(t *testing.T, threads ...ThreadConfig) *System {
	t.Helper()
	s, err := New(Config{Threads: threads})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNewRejectsBadConfig(t *testing.T) {
	entry := func(*System, any) {}
	tests := []struct {
		name    string
		threads []ThreadConfig
	}{
		{"empty", nil},
		{"nil entry", []ThreadConfig{{Name: "a"}}},
		{"negative stack", []ThreadConfig{{Name: "a", Entry: entry, StackSize: -1}}},
		{"duplicate name", []ThreadConfig{{Name: "a", Entry: entry}, {Name: "a", Entry: entry}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(Config{Threads: tt.threads}); err == nil {
				t.Fatal("New() error = nil, want error")
			}
		})
	}
}

func TestInitRunsHighestPriorityFirst(t *testing.T) {
	var tr trace
	var firstID = -1
	var seenByB []ThreadInfo

	s := newTestSystem(t,
		ThreadConfig{Name: "A", Entry: func(s *System, _ any) {
			firstID = s.Self().ID()
			tr.emit("A")
			s.Sleep(Infinite)
		}},
		ThreadConfig{Name: "B", Entry: func(s *System, _ any) {
			seenByB = s.Snapshot()
			tr.emit("B")
			s.Sleep(Infinite)
		}},
		ThreadConfig{Name: "C", Entry: func(s *System, _ any) {
			tr.emit("C")
			s.Sleep(Infinite)
		}},
	)
	s.Init()

	if firstID != 0 {
		t.Fatalf("first thread = %d, want 0", firstID)
	}
	if got := tr.String(); got != "ABC" {
		t.Fatalf("trace = %q, want %q", got, "ABC")
	}
	if seenByB[0].State != "sleeping" || !seenByB[1].Current || seenByB[1].State != "ready" {
		t.Fatalf("snapshot seen by B = %v", seenByB)
	}
	if got := s.Self(); got.ID() != s.NumThreads() || got.Name() != "idle" {
		t.Fatalf("Self() after Init = %d %q, want idle", got.ID(), got.Name())
	}
}

func TestInitTwiceHalts(t *testing.T) {
	s := newTestSystem(t, ThreadConfig{Name: "a", Entry: func(s *System, _ any) { s.Sleep(Infinite) }})
	s.Init()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("second Init() did not panic")
		}
		if !InPanicMode() {
			t.Fatal("InPanicMode() = false after halt")
		}
	}()
	s.Init()
}

func TestSimultaneousReadyRunsInPriorityOrder(t *testing.T) {
	var tr trace
	sems := make([]*Semaphore, 4)
	var threads []ThreadConfig
	for i, name := range []string{"A", "B", "C", "D"} {
		sems[i] = NewSemaphore(0)
		sem, name := sems[i], name
		threads = append(threads, ThreadConfig{Name: name, Entry: func(s *System, _ any) {
			s.SemWait(sem)
			tr.emit(name)
			s.SemWait(sem)
		}})
	}
	s := newTestSystem(t, threads...)
	s.Init()

	if got := tr.String(); got != "" {
		t.Fatalf("trace after Init = %q, want empty", got)
	}

	s.ISR(func(s *System) {
		for i := len(sems) - 1; i >= 0; i-- {
			s.SemSignalLocked(sems[i])
		}
	})

	if got := tr.String(); got != "ABCD" {
		t.Fatalf("trace = %q, want %q", got, "ABCD")
	}
}

func TestSameTickDeadlinesRunInPriorityOrder(t *testing.T) {
	var tr trace
	s := newTestSystem(t,
		ThreadConfig{Name: "hi", Entry: func(s *System, _ any) {
			s.Sleep(3)
			tr.emit("H")
			s.Sleep(Infinite)
		}},
		ThreadConfig{Name: "lo", Entry: func(s *System, _ any) {
			s.Sleep(3)
			tr.emit("L")
			s.Sleep(Infinite)
		}},
	)
	s.Init()

	s.Tick()
	s.Tick()
	if got := tr.String(); got != "" {
		t.Fatalf("trace after 2 ticks = %q, want empty", got)
	}
	s.Tick()
	if got := tr.String(); got != "HL" {
		t.Fatalf("trace after 3 ticks = %q, want %q", got, "HL")
	}
}

func TestInterruptPreemptsLowerPriorityThread(t *testing.T) {
	var tr trace
	hiSem := NewSemaphore(0)
	loSem := NewSemaphore(0)

	s := newTestSystem(t,
		ThreadConfig{Name: "hi", Entry: func(s *System, _ any) {
			for {
				s.SemWait(hiSem)
				tr.emit("H")
			}
		}},
		ThreadConfig{Name: "lo", Entry: func(s *System, _ any) {
			for {
				s.SemWait(loSem)
				tr.emit("L1")
				// An interrupt arriving here is serviced on Unlock and
				// switches to the higher priority thread first.
				s.Raise(func(s *System) { s.SemSignalLocked(hiSem) })
				s.Lock()
				s.Unlock()
				tr.emit("L2")
			}
		}},
	)
	s.Init()

	s.SemSignal(loSem)
	if got := tr.String(); got != "L1HL2" {
		t.Fatalf("trace = %q, want %q", got, "L1HL2")
	}
}

func TestReturningThreadHalts(t *testing.T) {
	var tr trace
	s := newTestSystem(t,
		ThreadConfig{Name: "once", Entry: func(s *System, _ any) {
			tr.emit("1")
		}},
		ThreadConfig{Name: "next", Entry: func(s *System, _ any) {
			tr.emit("2")
			s.Sleep(Infinite)
		}},
	)
	s.Init()

	if got := tr.String(); got != "12" {
		t.Fatalf("trace = %q, want %q", got, "12")
	}
	if got := s.Snapshot()[0].State; got != "halted" {
		t.Fatalf("state of returned thread = %q, want halted", got)
	}

	// Halted threads ignore timer ticks.
	for i := 0; i < 10; i++ {
		s.Tick()
	}
	if got := s.Snapshot()[0].State; got != "halted" {
		t.Fatalf("state after ticks = %q, want halted", got)
	}
}

func TestThreadArgument(t *testing.T) {
	var got any
	s := newTestSystem(t, ThreadConfig{Name: "a", Arg: 42, Entry: func(s *System, arg any) {
		got = arg
		s.Sleep(Infinite)
	}})
	s.Init()
	if got != 42 {
		t.Fatalf("arg = %v, want 42", got)
	}
}
