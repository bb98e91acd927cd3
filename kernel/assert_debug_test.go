//go:build nildebug

package kernel

import (
	"fmt"
	"strings"
	"testing"
)

func mustHalt(t *testing.T, want string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("no halt, want %q", want)
		}
		if got := fmt.Sprint(r); !strings.Contains(got, want) {
			t.Fatalf("halt = %q, want %q", got, want)
		}
		if !InPanicMode() {
			t.Fatal("InPanicMode() = false after halt")
		}
	}()
	fn()
}

func blockedSystem(t *testing.T) *System {
	s := newTestSystem(t, ThreadConfig{Name: "a", Entry: func(s *System, _ any) { s.Sleep(Infinite) }})
	s.Init()
	return s
}

func TestReadyLockedRejectsReadyThread(t *testing.T) {
	s := blockedSystem(t)
	mustHalt(t, "thread not blocked", func() {
		s.Lock()
		s.ReadyLocked(s.Self())
	})
}

func TestReadyLockedRejectsForeignThread(t *testing.T) {
	s := blockedSystem(t)
	other := blockedSystem(t)
	mustHalt(t, "not a table thread", func() {
		s.Lock()
		s.ReadyLocked(other.Thread(0))
	})
}

func TestBlockingInsideInterruptHalts(t *testing.T) {
	s := blockedSystem(t)
	mustHalt(t, "blocking inside an interrupt", func() {
		s.ISR(func(s *System) { s.SleepLocked(1) })
	})
}

func TestIdleCannotBlock(t *testing.T) {
	s := blockedSystem(t)
	mustHalt(t, "idle thread cannot block", func() {
		s.Sleep(1)
	})
}

func TestSemResetNegativeHalts(t *testing.T) {
	s := blockedSystem(t)
	mustHalt(t, "negative count", func() {
		s.SemReset(NewSemaphore(0), -1)
	})
}
