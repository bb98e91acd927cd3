package edge

import (
	"fmt"

	"nilrt/hal"
	"nilrt/kernel"
)

// Events signalled to the edge thread.
const (
	EventRising kernel.EventMask = 1 << iota
	EventFalling
)

// Service counts edges of a GPIO input. The pin is sampled by PollLocked
// from the tick interrupt, which signals the thread through its event mask.
type Service struct {
	pin       hal.GPIOPin
	log       kernel.Logger
	report    int
	timeoutMS uint32

	// Interrupt side, guarded by the kernel lock.
	target *kernel.Thread
	primed bool
	level  bool

	rising, falling, timeouts int
}

// New creates an edge counter. Every report edges a summary line is
// logged; timeoutMS is how long the thread waits before noting a silent
// input.
func New(pin hal.GPIOPin, log kernel.Logger, report int, timeoutMS uint32) *Service {
	if timeoutMS == 0 {
		timeoutMS = 2000
	}
	return &Service{pin: pin, log: log, report: report, timeoutMS: timeoutMS}
}

// Counts returns the rising and falling edges and the timeouts observed.
func (s *Service) Counts() (rising, falling, timeouts int) {
	return s.rising, s.falling, s.timeouts
}

// Status is a one-line summary for the status screen.
func (s *Service) Status() string {
	name := "-"
	if s.pin != nil {
		name = s.pin.Name()
	}
	return fmt.Sprintf("edge %s: %d up %d down %d idle", name, s.rising, s.falling, s.timeouts)
}

// PollLocked samples the pin. It runs in interrupt context.
func (s *Service) PollLocked(sys *kernel.System) {
	if s.target == nil || s.pin == nil {
		return
	}
	level, err := s.pin.Read()
	if err != nil {
		return
	}
	if !s.primed {
		s.primed = true
		s.level = level
		return
	}
	if level == s.level {
		return
	}
	s.level = level
	if level {
		sys.SignalEventsLocked(s.target, EventRising)
	} else {
		sys.SignalEventsLocked(s.target, EventFalling)
	}
}

// Run is the thread entry.
func (s *Service) Run(sys *kernel.System, _ any) {
	if s.pin == nil {
		s.logf("edge: no input pin, parking")
		sys.Sleep(kernel.Infinite)
	}
	if err := s.pin.Configure(hal.GPIOModeInput, hal.GPIOPullNone); err != nil {
		s.logf("edge: %v", err)
		sys.Sleep(kernel.Infinite)
	}

	sys.Lock()
	s.target = sys.Self()
	sys.Unlock()

	timeout := sys.MS2Ticks(s.timeoutMS)
	for {
		ev := sys.WaitAnyEventTimeout(EventRising|EventFalling, timeout)
		if ev == 0 {
			s.timeouts++
			continue
		}
		if ev&EventRising != 0 {
			s.rising++
		}
		if ev&EventFalling != 0 {
			s.falling++
		}
		if s.report > 0 && (s.rising+s.falling)%s.report == 0 {
			s.logf("edge: %s: %d rising, %d falling", s.pin.Name(), s.rising, s.falling)
		}
	}
}

func (s *Service) logf(format string, args ...any) {
	if s.log == nil {
		return
	}
	s.log.WriteLineString(fmt.Sprintf(format, args...))
}
