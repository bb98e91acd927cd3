package kernel

// ReadyLocked makes a blocked thread ready. If t has a higher priority than
// the thread the scheduler is committed to, it becomes the next thread.
// The caller sets t's wakeup message first and reschedules afterwards.
func (s *System) ReadyLocked(t *Thread) *Thread {
	s.assert(t != nil && t.id >= 0 && t.id < len(s.threads) && &s.threads[t.id] == t, "ReadyLocked: not a table thread")
	s.assert(t.waitobj != nil, "ReadyLocked: thread not blocked")
	s.assert(s.next <= s.current, "ReadyLocked: next below current")

	t.timeout = false
	t.waitobj = nil
	if t.id < s.next {
		s.next = t.id
	}
	return t
}

// RescheduleLocked switches to the next thread if it differs from the
// current one.
func (s *System) RescheduleLocked() {
	otp := s.current
	ntp := s.next
	if ntp != otp {
		s.current = ntp
		s.port.Switch(ntp, otp)
	}
}

// goSleepLocked blocks the current thread on obj, with an optional absolute
// deadline, and runs the highest priority ready thread. It returns the
// message the thread was woken with.
func (s *System) goSleepLocked(obj waitObject, timeout bool, deadline Time) Msg {
	s.assert(!s.inISR, "goSleepLocked: blocking inside an interrupt")
	s.assert(s.current != s.idle(), "goSleepLocked: idle thread cannot block")

	otp := &s.threads[s.current]
	otp.timeout = timeout
	otp.deadline = deadline
	otp.waitobj = obj

	// The idle thread is always ready, so the scan terminates.
	for i := range s.threads {
		if s.threads[i].waitobj == nil {
			s.current = i
			s.next = i
			s.port.Switch(i, otp.id)
			return otp.msg
		}
	}
	panic("unreachable")
}
