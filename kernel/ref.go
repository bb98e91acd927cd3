package kernel

// ThreadRef holds at most one suspended thread. Drivers use it to park a
// thread until an interrupt completes an operation and resumes it with a
// message.
type ThreadRef struct {
	t *Thread
}

func (r *ThreadRef) waitKind() string { return "suspended" }

// Waiting reports whether a thread is parked on r.
func (r *ThreadRef) Waiting() bool { return r.t != nil }

// SuspendTimeout parks the calling thread on r for at most timeout ticks and
// returns the message it was resumed with, or MsgTimeout.
func (s *System) SuspendTimeout(r *ThreadRef, timeout Ticks) Msg {
	s.Lock()
	msg := s.SuspendTimeoutLocked(r, timeout)
	s.Unlock()
	return msg
}

// SuspendTimeoutLocked is SuspendTimeout with the kernel lock already held.
func (s *System) SuspendTimeoutLocked(r *ThreadRef, timeout Ticks) Msg {
	s.assert(r.t == nil, "SuspendTimeoutLocked: reference in use")

	if timeout == Immediate {
		return MsgTimeout
	}
	r.t = &s.threads[s.current]
	if timeout == Infinite {
		return s.goSleepLocked(r, false, 0)
	}
	return s.goSleepLocked(r, true, s.systime+Time(timeout))
}

// Resume wakes the thread parked on r, if any, with msg and reschedules.
func (s *System) Resume(r *ThreadRef, msg Msg) {
	s.Lock()
	s.ResumeLocked(r, msg)
	s.RescheduleLocked()
	s.Unlock()
}

// ResumeLocked wakes the thread parked on r, if any, with msg. It does not
// reschedule.
func (s *System) ResumeLocked(r *ThreadRef, msg Msg) {
	t := r.t
	if t == nil {
		return
	}
	r.t = nil
	t.msg = msg
	s.ReadyLocked(t)
}
