package kernel

import (
	"fmt"
	"sync"

	"github.com/gammazero/deque"
)

// System is the kernel state: the thread table, the scheduler registers and
// the time base. There is exactly one per running system and every thread
// receives it as the first argument of its entry function.
type System struct {
	// mu is the kernel lock. It is held across Port.Switch and released by
	// whichever thread resumes.
	mu      sync.Mutex
	locked  bool
	inISR   bool
	started bool

	threads []Thread
	current int
	next    int
	systime Time

	tickHz uint32
	port   Port
	log    Logger

	irqMu    sync.Mutex
	irqs     deque.Deque[IRQ]
	irqWake  chan struct{}
	overruns uint32
}

// New builds the thread table from cfg. Nothing runs until Init.
func New(cfg Config) (*System, error) {
	if len(cfg.Threads) == 0 {
		return nil, fmt.Errorf("kernel: no threads configured")
	}
	seen := make(map[string]int, len(cfg.Threads))
	for i, tc := range cfg.Threads {
		if tc.Entry == nil {
			return nil, fmt.Errorf("kernel: thread %d (%s): nil entry", i, tc.Name)
		}
		if tc.StackSize < 0 {
			return nil, fmt.Errorf("kernel: thread %d (%s): negative stack size %d", i, tc.Name, tc.StackSize)
		}
		if tc.Name == "" {
			continue
		}
		if prev, ok := seen[tc.Name]; ok {
			return nil, fmt.Errorf("kernel: thread %d: name %q already used by thread %d", i, tc.Name, prev)
		}
		seen[tc.Name] = i
	}

	s := &System{
		threads: make([]Thread, len(cfg.Threads)+1),
		tickHz:  cfg.TickHz,
		port:    cfg.Port,
		log:     cfg.Logger,
		irqWake: make(chan struct{}, 1),
	}
	if s.tickHz == 0 {
		s.tickHz = DefaultTickHz
	}
	if s.port == nil {
		s.port = NewGoroutinePort()
	}
	for i := range s.threads {
		t := &s.threads[i]
		t.id = i
		if i < len(cfg.Threads) {
			t.cfg = cfg.Threads[i]
		} else {
			t.cfg = ThreadConfig{Name: "idle"}
		}
	}
	s.current = s.idle()
	s.next = s.idle()
	return s, nil
}

// Init prepares every configured thread and switches into the highest
// priority one. The caller becomes the idle thread; Init returns the first
// time the idle thread is scheduled. It must be called exactly once.
func (s *System) Init() {
	if s.started {
		s.halt("Init called twice")
	}
	s.started = true

	s.Lock()
	s.port.Init(len(s.threads))
	for i := 0; i < s.idle(); i++ {
		t := &s.threads[i]
		s.port.Setup(i, t.cfg.StackSize, func() { s.threadMain(t) })
	}
	s.logf("nil: init, %d threads, %d Hz", s.idle(), s.tickHz)

	s.current = 0
	s.next = 0
	s.port.Switch(0, s.idle())
	s.Unlock()
}

// Lock enters a kernel critical section from thread context.
func (s *System) Lock() {
	s.mu.Lock()
	s.locked = true
}

// Unlock services interrupts raised while the lock was held and leaves the
// critical section.
func (s *System) Unlock() {
	s.serviceLocked()
	s.locked = false
	s.mu.Unlock()
}

// LockFromISR enters the kernel critical section from an interrupt taken
// outside any thread, such as a device goroutine.
func (s *System) LockFromISR() {
	s.mu.Lock()
	s.locked = true
	s.inISR = true
}

// UnlockFromISR leaves an interrupt critical section. The caller is not a
// thread and cannot switch, so if a higher priority thread was readied the
// reschedule is raised as an interrupt and runs at the next kernel boundary.
func (s *System) UnlockFromISR() {
	pending := s.next != s.current
	s.inISR = false
	s.locked = false
	s.mu.Unlock()
	if pending {
		s.Raise(rescheduleIRQ)
	}
}

// rescheduleIRQ does nothing; the interrupt exit path reschedules.
func rescheduleIRQ(*System) {}

// Now returns the current system time.
func (s *System) Now() Time {
	return s.systime
}

// IsWithin reports whether the current time is in [start, end).
// start == end selects the whole time range.
func (s *System) IsWithin(start, end Time) bool {
	return Within(s.Now(), start, end)
}

// Within reports whether t is in the window [start, end), which may wrap.
// start == end selects the whole time range.
func Within(t, start, end Time) bool {
	if end > start {
		return t >= start && t < end
	}
	return t >= start || t < end
}

// TickHz returns the configured timer frequency.
func (s *System) TickHz() uint32 { return s.tickHz }

// MS2Ticks converts milliseconds to ticks, rounding up.
func (s *System) MS2Ticks(ms uint32) Ticks { return toTicks(uint64(ms), 1000, s.tickHz) }

// S2Ticks converts seconds to ticks.
func (s *System) S2Ticks(sec uint32) Ticks { return toTicks(uint64(sec), 1, s.tickHz) }

// US2Ticks converts microseconds to ticks, rounding up.
func (s *System) US2Ticks(us uint32) Ticks { return toTicks(uint64(us), 1_000_000, s.tickHz) }

func toTicks(v, perSecond uint64, hz uint32) Ticks {
	if v == 0 {
		return 0
	}
	n := (v*uint64(hz)-1)/perSecond + 1
	if n >= uint64(Infinite) {
		return Infinite - 1
	}
	return Ticks(n)
}

func (s *System) idle() int { return len(s.threads) - 1 }

func (s *System) logf(format string, args ...any) {
	if s.log == nil {
		return
	}
	s.log.WriteLineString(fmt.Sprintf(format, args...))
}
