package kernel

import "fmt"

// Semaphore is a counting semaphore.
//
// A positive count is the number of waits that succeed without blocking. A
// count of -n means n threads are blocked on it; they are found by scanning
// the thread table, so there is no queue to keep.
type Semaphore struct {
	cnt int32
}

// NewSemaphore returns a semaphore with the given initial count, which must
// not be negative.
func NewSemaphore(n int32) *Semaphore {
	sem := &Semaphore{}
	sem.Init(n)
	return sem
}

// Init sets the initial count. It must not be called while threads wait on sem.
// A negative count would claim waiters that do not exist, so it panics.
func (sem *Semaphore) Init(n int32) {
	if n < 0 {
		panic(fmt.Sprintf("nil: negative semaphore count %d", n))
	}
	sem.cnt = n
}

// Count returns the counter. Read it under the kernel lock for a stable value.
func (sem *Semaphore) Count() int32 { return sem.cnt }

func (sem *Semaphore) waitKind() string { return "semaphore" }

// SemWait waits on sem without a deadline.
func (s *System) SemWait(sem *Semaphore) Msg {
	return s.SemWaitTimeout(sem, Infinite)
}

// SemWaitTimeout waits on sem for at most timeout ticks.
//
// It returns MsgOK if the semaphore was taken or signaled, MsgTimeout if the
// deadline passed (or timeout is Immediate and the semaphore is not
// available), and MsgReset if the semaphore was reset while waiting.
func (s *System) SemWaitTimeout(sem *Semaphore, timeout Ticks) Msg {
	s.Lock()
	msg := s.SemWaitTimeoutLocked(sem, timeout)
	s.Unlock()
	return msg
}

// SemWaitTimeoutLocked is SemWaitTimeout with the kernel lock already held.
func (s *System) SemWaitTimeoutLocked(sem *Semaphore, timeout Ticks) Msg {
	cnt := sem.cnt
	if cnt > 0 {
		sem.cnt = cnt - 1
		return MsgOK
	}
	if timeout == Immediate {
		return MsgTimeout
	}
	sem.cnt = cnt - 1
	if timeout == Infinite {
		return s.goSleepLocked(sem, false, 0)
	}
	return s.goSleepLocked(sem, true, s.systime+Time(timeout))
}

// SemSignal signals sem and reschedules.
func (s *System) SemSignal(sem *Semaphore) {
	s.Lock()
	s.SemSignalLocked(sem)
	s.RescheduleLocked()
	s.Unlock()
}

// SemSignalLocked signals sem, waking the highest priority waiter if any.
// It does not reschedule: thread callers must call RescheduleLocked before
// unlocking, interrupt handlers reschedule on exit.
func (s *System) SemSignalLocked(sem *Semaphore) {
	sem.cnt++
	if sem.cnt > 0 {
		return
	}
	for i := range s.threads {
		t := &s.threads[i]
		if t.waitobj == waitObject(sem) {
			t.msg = MsgOK
			s.ReadyLocked(t)
			return
		}
	}
	s.halt("SemSignalLocked: waiter not found")
}

// SemReset sets the count of sem to n, releases all waiters with MsgReset
// and reschedules.
func (s *System) SemReset(sem *Semaphore, n int32) {
	s.Lock()
	s.SemResetLocked(sem, n)
	s.RescheduleLocked()
	s.Unlock()
}

// SemResetLocked is SemReset without the reschedule. n must not be negative.
func (s *System) SemResetLocked(sem *Semaphore, n int32) {
	s.assert(n >= 0, "SemResetLocked: negative count")

	cnt := sem.cnt
	sem.cnt = n
	for i := 0; cnt < 0 && i < len(s.threads); i++ {
		t := &s.threads[i]
		if t.waitobj == waitObject(sem) {
			cnt++
			t.msg = MsgReset
			s.ReadyLocked(t)
		}
	}
}
