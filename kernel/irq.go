package kernel

import "context"

// maxPendingIRQs bounds the queue of interrupts raised from other goroutines.
const maxPendingIRQs = 256

// TimerIRQ is the periodic timer interrupt handler.
func TimerIRQ(s *System) { s.TimerHandlerLocked() }

// TimerHandlerLocked advances the system time by one tick and wakes every
// thread whose deadline is the new time. It must run once per tick with the
// kernel lock held.
func (s *System) TimerHandlerLocked() {
	s.systime++
	now := s.systime
	for i := range s.threads {
		t := &s.threads[i]
		if !t.timeout || t.deadline != now {
			continue
		}
		s.assert(t.waitobj != nil, "TimerHandlerLocked: deadline on a ready thread")
		switch obj := t.waitobj.(type) {
		case *Semaphore:
			obj.cnt++
		case *ThreadRef:
			obj.t = nil
		}
		t.msg = MsgTimeout
		s.ReadyLocked(t)
	}
}

// Tick delivers one timer interrupt in the running context.
func (s *System) Tick() {
	s.ISR(TimerIRQ)
}

// ISR runs h as an interrupt taken by the running context: the lock is
// taken, h runs, and the kernel reschedules on exit. It returns when the
// interrupted context is scheduled again.
func (s *System) ISR(h IRQ) {
	s.Lock()
	s.runISRLocked(h)
	s.Unlock()
}

func (s *System) runISRLocked(h IRQ) {
	s.inISR = true
	h(s)
	s.inISR = false
	s.RescheduleLocked()
}

// Raise queues h to run as an interrupt. It may be called from any goroutine.
// Queued interrupts run the next time a thread leaves a critical section, or
// from the idle loop. Raise reports false if the queue is full.
func (s *System) Raise(h IRQ) bool {
	s.irqMu.Lock()
	if s.irqs.Len() >= maxPendingIRQs {
		s.overruns++
		first := s.overruns == 1
		s.irqMu.Unlock()
		if first {
			s.logf("nil: warn: interrupt queue full, dropping")
		}
		return false
	}
	s.irqs.PushBack(h)
	s.irqMu.Unlock()

	select {
	case s.irqWake <- struct{}{}:
	default:
	}
	return true
}

// IRQOverruns returns how many raised interrupts were dropped.
func (s *System) IRQOverruns() uint32 {
	s.irqMu.Lock()
	defer s.irqMu.Unlock()
	return s.overruns
}

func (s *System) popIRQ() (IRQ, bool) {
	s.irqMu.Lock()
	defer s.irqMu.Unlock()
	if s.irqs.Len() == 0 {
		return nil, false
	}
	return s.irqs.PopFront(), true
}

func (s *System) serviceLocked() {
	if s.inISR {
		return
	}
	for {
		h, ok := s.popIRQ()
		if !ok {
			return
		}
		s.runISRLocked(h)
	}
}

// Idle is the idle thread loop: it waits for raised interrupts and services
// them until ctx is done. It must be called by the context that called Init.
func (s *System) Idle(ctx context.Context) error {
	s.assert(s.current == s.idle(), "Idle: not the idle thread")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.irqWake:
		}
		s.Lock()
		s.Unlock()
	}
}
