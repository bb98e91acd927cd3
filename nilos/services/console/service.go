package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/gammazero/deque"
	"github.com/google/shlex"

	"nilrt/kernel"
)

const (
	prompt     = "nil> "
	maxLine    = 128
	maxPending = 256
)

// Service is a line console. Received bytes are queued by an interrupt
// handler and counted by a semaphore; the console thread consumes them one
// at a time.
type Service struct {
	out  io.Writer
	kick *kernel.Semaphore

	// rx and dropped are shared with interrupt handlers and guarded by the
	// kernel lock.
	rx      deque.Deque[byte]
	rxSem   kernel.Semaphore
	dropped int

	line []byte
	reg  *registry
	sys  *kernel.System
}

// New creates a console writing to out. kick is the semaphore driven by the
// kick and reset commands; it may be nil.
func New(out io.Writer, kick *kernel.Semaphore) *Service {
	s := &Service{out: out, kick: kick, reg: newRegistry()}
	if err := registerCommands(s.reg); err != nil {
		panic(err)
	}
	return s
}

// RxIRQ returns an interrupt handler that delivers p to the console.
func (s *Service) RxIRQ(p []byte) kernel.IRQ {
	data := append([]byte(nil), p...)
	return func(sys *kernel.System) { s.ReceiveLocked(sys, data) }
}

// ReceiveLocked queues received bytes. It runs in interrupt context.
func (s *Service) ReceiveLocked(sys *kernel.System, p []byte) {
	for _, b := range p {
		if s.rx.Len() >= maxPending {
			s.dropped++
			continue
		}
		s.rx.PushBack(b)
		sys.SemSignalLocked(&s.rxSem)
	}
}

// Dropped returns how many received bytes were lost to a full queue.
func (s *Service) Dropped() int { return s.dropped }

// Run is the thread entry.
func (s *Service) Run(sys *kernel.System, _ any) {
	s.sys = sys
	s.printf("nilrt console, type help\r\n%s", prompt)
	for {
		sys.SemWait(&s.rxSem)
		sys.Lock()
		b := s.rx.PopFront()
		sys.Unlock()
		s.input(b)
	}
}

func (s *Service) input(b byte) {
	switch b {
	case '\r', '\n':
		s.printf("\r\n")
		line := string(s.line)
		s.line = s.line[:0]
		s.exec(line)
		s.printf("%s", prompt)
	case 0x08, 0x7f:
		if len(s.line) > 0 {
			s.line = s.line[:len(s.line)-1]
			s.printf("\b \b")
		}
	case 0x15: // Ctrl-U
		s.line = s.line[:0]
		s.printf("\r\n%s", prompt)
	case 0x03: // Ctrl-C
		s.line = s.line[:0]
		s.printf("^C\r\n%s", prompt)
	default:
		if b < 0x20 || len(s.line) >= maxLine {
			return
		}
		s.line = append(s.line, b)
		if s.out != nil {
			s.out.Write([]byte{b})
		}
	}
}

func (s *Service) exec(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	args, err := shlex.Split(line)
	if err != nil {
		s.printf("error: %v\r\n", err)
		return
	}
	if len(args) == 0 {
		return
	}
	cmd, ok := s.reg.resolve(args[0])
	if !ok {
		s.printf("unknown command: %s\r\n", args[0])
		return
	}
	if err := cmd.Run(s.sys, s, args[1:]); err != nil {
		s.printf("%s: %v\r\n", cmd.Name, err)
	}
}

func (s *Service) printf(format string, args ...any) {
	if s.out == nil {
		return
	}
	fmt.Fprintf(s.out, format, args...)
}

// println writes one console line.
func (s *Service) println(str string) {
	s.printf("%s\r\n", str)
}
