package blink

import (
	"nilrt/hal"
	"nilrt/kernel"
)

// Service toggles the board LED with a fixed period.
type Service struct {
	led      hal.LED
	periodMS uint32

	on      bool
	toggles int
}

func New(led hal.LED, periodMS uint32) *Service {
	if periodMS == 0 {
		periodMS = 500
	}
	return &Service{led: led, periodMS: periodMS}
}

// Toggles returns how many times the LED changed state.
func (s *Service) Toggles() int { return s.toggles }

// Run is the thread entry. Wakeups are anchored to absolute deadlines so
// the period does not drift.
func (s *Service) Run(sys *kernel.System, _ any) {
	period := sys.MS2Ticks(s.periodMS)
	next := sys.Now()
	for {
		s.toggle()
		next += kernel.Time(period)
		sys.SleepUntil(next)
	}
}

func (s *Service) toggle() {
	s.on = !s.on
	s.toggles++
	if s.led == nil {
		return
	}
	if s.on {
		s.led.High()
	} else {
		s.led.Low()
	}
}
