package kernel

import "fmt"

// Thread is one slot of the static thread table. Its index is its identity
// and its priority: lower index, higher priority.
type Thread struct {
	id  int
	cfg ThreadConfig

	// waitobj is nil while the thread is ready.
	waitobj  waitObject
	timeout  bool
	deadline Time
	msg      Msg

	epmask EventMask // pending events
	ewmask EventMask // events waited for
}

// ID returns the table index.
func (t *Thread) ID() int { return t.id }

// Name returns the configured name.
func (t *Thread) Name() string { return t.cfg.Name }

// Thread returns the table slot id, or nil if out of range. The idle thread
// is the last slot.
func (s *System) Thread(id int) *Thread {
	if id < 0 || id >= len(s.threads) {
		return nil
	}
	return &s.threads[id]
}

// Self returns the running thread.
func (s *System) Self() *Thread {
	return &s.threads[s.current]
}

// NumThreads returns the number of configured threads, idle excluded.
func (s *System) NumThreads() int { return s.idle() }

// Sleep suspends the calling thread for n ticks. Immediate returns at once,
// Infinite never returns.
func (s *System) Sleep(n Ticks) {
	s.Lock()
	s.SleepLocked(n)
	s.Unlock()
}

// SleepLocked is Sleep with the kernel lock already held.
func (s *System) SleepLocked(n Ticks) {
	switch n {
	case Immediate:
		return
	case Infinite:
		s.goSleepLocked(wtSleeping, false, 0)
	default:
		s.goSleepLocked(wtSleeping, true, s.systime+Time(n))
	}
}

// SleepUntil suspends the calling thread until the system time equals t.
// If t is the current time it returns at once.
func (s *System) SleepUntil(t Time) {
	s.Lock()
	s.SleepUntilLocked(t)
	s.Unlock()
}

// SleepUntilLocked is SleepUntil with the kernel lock already held.
func (s *System) SleepUntilLocked(t Time) {
	if t == s.systime {
		return
	}
	s.goSleepLocked(wtSleeping, true, t)
}

// threadMain is the first code every thread runs. The switch into a new
// thread happens with the kernel lock held.
func (s *System) threadMain(t *Thread) {
	s.Unlock()

	defer func() {
		if r := recover(); r != nil {
			triggerPanic(PanicInfo{Thread: t.id, Name: t.cfg.Name, Value: r})
			panic(r)
		}
	}()
	t.cfg.Entry(s, t.cfg.Arg)

	s.Lock()
	s.logf("nil: halt: thread %d (%s) returned", t.id, t.cfg.Name)
	s.goSleepLocked(wtHalted, false, 0)
}

// ThreadInfo is a point-in-time view of one thread.
type ThreadInfo struct {
	ID       int
	Name     string
	State    string
	Current  bool
	Timeout  bool
	Deadline Time
	Events   EventMask
}

func (ti ThreadInfo) String() string {
	s := fmt.Sprintf("%2d %-10s %-10s", ti.ID, ti.Name, ti.State)
	if ti.Current {
		s += " *"
	}
	if ti.Timeout {
		s += fmt.Sprintf(" @%d", ti.Deadline)
	}
	return s
}

// Snapshot returns the state of every thread, idle included.
func (s *System) Snapshot() []ThreadInfo {
	s.Lock()
	defer s.Unlock()
	return s.SnapshotLocked()
}

// SnapshotLocked is Snapshot with the kernel lock already held.
func (s *System) SnapshotLocked() []ThreadInfo {
	out := make([]ThreadInfo, len(s.threads))
	for i := range s.threads {
		t := &s.threads[i]
		state := "ready"
		if t.waitobj != nil {
			state = t.waitobj.waitKind()
		}
		out[i] = ThreadInfo{
			ID:       t.id,
			Name:     t.cfg.Name,
			State:    state,
			Current:  i == s.current,
			Timeout:  t.timeout,
			Deadline: t.deadline,
			Events:   t.epmask,
		}
	}
	return out
}
