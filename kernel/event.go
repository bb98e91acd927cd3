package kernel

// WaitAnyEvent waits for any event in mask and returns and clears the
// pending events that matched.
func (s *System) WaitAnyEvent(mask EventMask) EventMask {
	return s.WaitAnyEventTimeout(mask, Infinite)
}

// WaitAnyEventTimeout is WaitAnyEvent with a deadline. It returns 0 on
// timeout.
func (s *System) WaitAnyEventTimeout(mask EventMask, timeout Ticks) EventMask {
	s.Lock()
	defer s.Unlock()

	t := &s.threads[s.current]
	m := t.epmask & mask
	if m == 0 {
		if timeout == Immediate {
			return 0
		}
		t.ewmask = mask
		var msg Msg
		if timeout == Infinite {
			msg = s.goSleepLocked(wtEvents, false, 0)
		} else {
			msg = s.goSleepLocked(wtEvents, true, s.systime+Time(timeout))
		}
		t.ewmask = 0
		if msg < MsgOK {
			return 0
		}
		m = t.epmask & mask
	}
	t.epmask &^= m
	return m
}

// ClearEvents clears the pending events in mask for the calling thread and
// returns the ones that were pending.
func (s *System) ClearEvents(mask EventMask) EventMask {
	s.Lock()
	t := &s.threads[s.current]
	m := t.epmask & mask
	t.epmask &^= m
	s.Unlock()
	return m
}

// SignalEvents adds mask to the pending events of t and reschedules.
func (s *System) SignalEvents(t *Thread, mask EventMask) {
	s.Lock()
	s.SignalEventsLocked(t, mask)
	s.RescheduleLocked()
	s.Unlock()
}

// SignalEventsLocked adds mask to the pending events of t and readies it if
// it waits for any of them. It does not reschedule.
func (s *System) SignalEventsLocked(t *Thread, mask EventMask) {
	t.epmask |= mask
	if t.waitobj == waitObject(wtEvents) && t.epmask&t.ewmask != 0 {
		t.msg = MsgOK
		s.ReadyLocked(t)
	}
}
