package worker

import (
	"fmt"

	"nilrt/kernel"
)

// Service waits for work on a semaphore with a timeout and tallies how each
// wait ended.
type Service struct {
	kick      *kernel.Semaphore
	log       kernel.Logger
	timeoutMS uint32

	results map[kernel.Msg]int
	last    kernel.Msg
}

func New(kick *kernel.Semaphore, log kernel.Logger, timeoutMS uint32) *Service {
	if timeoutMS == 0 {
		timeoutMS = 3000
	}
	return &Service{
		kick:      kick,
		log:       log,
		timeoutMS: timeoutMS,
		results:   make(map[kernel.Msg]int),
	}
}

// Count returns how many waits ended with msg.
func (s *Service) Count(msg kernel.Msg) int { return s.results[msg] }

// Status is a one-line summary for the status screen.
func (s *Service) Status() string {
	return fmt.Sprintf("worker: %d ok %d timeout %d reset, last %s",
		s.results[kernel.MsgOK], s.results[kernel.MsgTimeout], s.results[kernel.MsgReset], s.last)
}

// Run is the thread entry.
func (s *Service) Run(sys *kernel.System, _ any) {
	timeout := sys.MS2Ticks(s.timeoutMS)
	for {
		msg := sys.SemWaitTimeout(s.kick, timeout)
		s.results[msg]++
		s.last = msg
		switch msg {
		case kernel.MsgOK:
			s.logf("worker: kicked at %d", sys.Now())
		case kernel.MsgReset:
			s.logf("worker: warn: semaphore reset at %d", sys.Now())
		}
	}
}

func (s *Service) logf(format string, args ...any) {
	if s.log == nil {
		return
	}
	s.log.WriteLineString(fmt.Sprintf(format, args...))
}
