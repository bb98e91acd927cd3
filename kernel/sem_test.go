package kernel

import (
	"strconv"
	"testing"
)

func TestSemSignalReleasesHighestPriorityWaiter(t *testing.T) {
	var tr trace
	sem := NewSemaphore(0)

	var threads []ThreadConfig
	for i := 0; i < 3; i++ {
		id := strconv.Itoa(i)
		threads = append(threads, ThreadConfig{Name: "w" + id, Entry: func(s *System, _ any) {
			s.SemWait(sem)
			tr.emit(id)
			s.Sleep(Infinite)
		}})
	}
	s := newTestSystem(t, threads...)
	s.Init()

	if got := sem.Count(); got != -3 {
		t.Fatalf("Count() with 3 waiters = %d, want -3", got)
	}

	want := []string{"0", "01", "012"}
	for i, w := range want {
		s.ISR(func(s *System) { s.SemSignalLocked(sem) })
		if got := tr.String(); got != w {
			t.Fatalf("trace after signal %d = %q, want %q", i+1, got, w)
		}
		if got, want := sem.Count(), int32(i-2); got != want {
			t.Fatalf("Count() after signal %d = %d, want %d", i+1, got, want)
		}
	}

	// Signals beyond the number of waiters only raise the counter.
	s.SemSignal(sem)
	s.SemSignal(sem)
	if got := sem.Count(); got != 2 {
		t.Fatalf("Count() after extra signals = %d, want 2", got)
	}
}

func TestSemWaitDoesNotBlockWhenAvailable(t *testing.T) {
	sem := NewSemaphore(2)
	var msgs []Msg
	var counts []int32

	s := newTestSystem(t, ThreadConfig{Name: "a", Entry: func(s *System, _ any) {
		msgs = append(msgs, s.SemWaitTimeout(sem, Infinite))
		counts = append(counts, sem.Count())
		msgs = append(msgs, s.SemWaitTimeout(sem, Immediate))
		counts = append(counts, sem.Count())
		s.Sleep(Infinite)
	}})
	s.Init()

	if len(msgs) != 2 || msgs[0] != MsgOK || msgs[1] != MsgOK {
		t.Fatalf("msgs = %v, want [ok ok]", msgs)
	}
	if counts[0] != 1 || counts[1] != 0 {
		t.Fatalf("counts = %v, want [1 0]", counts)
	}
}

func TestSemWaitImmediateIsPoll(t *testing.T) {
	sem := NewSemaphore(0)
	var msg Msg = MsgOK
	var count int32 = 99

	s := newTestSystem(t, ThreadConfig{Name: "poll", Entry: func(s *System, _ any) {
		msg = s.SemWaitTimeout(sem, Immediate)
		count = sem.Count()
		s.Sleep(Infinite)
	}})
	s.Init()

	if msg != MsgTimeout {
		t.Fatalf("SemWaitTimeout(Immediate) = %v, want %v", msg, MsgTimeout)
	}
	if count != 0 {
		t.Fatalf("Count() after poll = %d, want 0", count)
	}
	if got := s.Snapshot()[0].State; got != "sleeping" {
		t.Fatalf("poller state = %q, want sleeping (never blocked on the semaphore)", got)
	}
}

func TestSemResetReleasesAllWaiters(t *testing.T) {
	sem := NewSemaphore(0)
	msgs := make([]Msg, 3)

	var threads []ThreadConfig
	for i := range msgs {
		i := i
		threads = append(threads, ThreadConfig{Name: "w" + strconv.Itoa(i), Entry: func(s *System, _ any) {
			msgs[i] = s.SemWait(sem)
			s.Sleep(Infinite)
		}})
	}
	s := newTestSystem(t, threads...)
	s.Init()

	s.ISR(func(s *System) { s.SemResetLocked(sem, 2) })

	for i, m := range msgs {
		if m != MsgReset {
			t.Fatalf("waiter %d msg = %v, want %v", i, m, MsgReset)
		}
	}
	if got := sem.Count(); got != 2 {
		t.Fatalf("Count() after reset = %d, want 2", got)
	}
	for _, ti := range s.Snapshot() {
		if ti.State == "semaphore" {
			t.Fatalf("thread %d still blocked on the semaphore", ti.ID)
		}
	}
}

func TestSemResetWithoutWaiters(t *testing.T) {
	sem := NewSemaphore(5)
	s := newTestSystem(t, ThreadConfig{Name: "a", Entry: func(s *System, _ any) { s.Sleep(Infinite) }})
	s.Init()

	s.SemReset(sem, 0)
	if got := sem.Count(); got != 0 {
		t.Fatalf("Count() = %d, want 0", got)
	}
}

func TestSemWaitTimeoutSignaledBeforeDeadline(t *testing.T) {
	sem := NewSemaphore(0)
	var msg Msg = -100
	var at Time

	s := newTestSystem(t, ThreadConfig{Name: "w", Entry: func(s *System, _ any) {
		msg = s.SemWaitTimeout(sem, 5)
		at = s.Now()
		s.Sleep(Infinite)
	}})
	s.Init()

	for i := 0; i < 4; i++ {
		s.Tick()
	}
	if msg != -100 {
		t.Fatalf("woken early with %v at tick %d", msg, at)
	}
	s.ISR(func(s *System) { s.SemSignalLocked(sem) })

	if msg != MsgOK || at != 4 {
		t.Fatalf("SemWaitTimeout() = %v at %d, want ok at 4", msg, at)
	}
	if got := sem.Count(); got != 0 {
		t.Fatalf("Count() = %d, want 0", got)
	}
}

func TestSemWaitTimeoutExpiresExactlyOnDeadline(t *testing.T) {
	sem := NewSemaphore(0)
	var msg Msg = -100
	var at Time

	s := newTestSystem(t, ThreadConfig{Name: "w", Entry: func(s *System, _ any) {
		msg = s.SemWaitTimeout(sem, 5)
		at = s.Now()
		s.Sleep(Infinite)
	}})
	s.Init()

	for i := 1; i <= 4; i++ {
		s.Tick()
		if msg != -100 {
			t.Fatalf("woken with %v at tick %d, want no wakeup before 5", msg, i)
		}
	}
	s.Tick()
	if msg != MsgTimeout || at != 5 {
		t.Fatalf("SemWaitTimeout() = %v at %d, want timeout at 5", msg, at)
	}
	// The timed out waiter gave its slot back.
	if got := sem.Count(); got != 0 {
		t.Fatalf("Count() after timeout = %d, want 0", got)
	}

	// A later signal finds no waiter and just raises the counter.
	s.SemSignal(sem)
	if got := sem.Count(); got != 1 {
		t.Fatalf("Count() after signal = %d, want 1", got)
	}
}

func TestSemWaitInfiniteIgnoresTicks(t *testing.T) {
	sem := NewSemaphore(0)
	woken := false
	s := newTestSystem(t, ThreadConfig{Name: "w", Entry: func(s *System, _ any) {
		s.SemWait(sem)
		woken = true
		s.Sleep(Infinite)
	}})
	s.Init()

	for i := 0; i < 100; i++ {
		s.Tick()
	}
	if woken {
		t.Fatal("infinite wait woken by the timer")
	}
	if ti := s.Snapshot()[0]; ti.Timeout || ti.State != "semaphore" {
		t.Fatalf("waiter = %+v, want blocked on semaphore without deadline", ti)
	}
}

func TestMsgString(t *testing.T) {
	tests := []struct {
		m    Msg
		want string
	}{
		{MsgOK, "ok"},
		{MsgTimeout, "timeout"},
		{MsgReset, "reset"},
		{7, "msg"},
		{-9, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Fatalf("Msg(%d).String() = %q, want %q", tt.m, got, tt.want)
		}
	}
}

func TestNegativeInitialCountPanics(t *testing.T) {
	for _, fn := range []func(){
		func() { NewSemaphore(-1) },
		func() { var sem Semaphore; sem.Init(-3) },
	} {
		func() {
			defer func() {
				if r := recover(); r == nil {
					t.Fatal("negative initial count accepted")
				}
			}()
			fn()
		}()
	}
	if got := NewSemaphore(2).Count(); got != 2 {
		t.Fatalf("NewSemaphore(2).Count() = %d, want 2", got)
	}
}
