package edge

import (
	"strings"
	"testing"

	"nilrt/hal"
	"nilrt/kernel"
)

type fakePin struct {
	level      bool
	configured bool
}

func (p *fakePin) Name() string       { return "FAKE" }
func (p *fakePin) Caps() hal.GPIOCaps { return hal.GPIOCapInput }
func (p *fakePin) Configure(hal.GPIOMode, hal.GPIOPull) error {
	p.configured = true
	return nil
}
func (p *fakePin) Read() (bool, error) { return p.level, nil }
func (p *fakePin) Write(bool) error    { return hal.ErrNotImplemented }

type lines []string

func (l *lines) WriteLineString(s string) { *l = append(*l, s) }

func tickWith(svc *Service) kernel.IRQ {
	return func(sys *kernel.System) {
		sys.TimerHandlerLocked()
		svc.PollLocked(sys)
	}
}

func TestEdgesSignalThread(t *testing.T) {
	pin := &fakePin{}
	var log lines
	svc := New(pin, &log, 2, 100)
	sys, err := kernel.New(kernel.Config{Threads: []kernel.ThreadConfig{{Name: "edge", Entry: svc.Run}}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sys.Init()
	if !pin.configured {
		t.Fatal("pin not configured")
	}

	tick := tickWith(svc)
	sys.ISR(tick) // primes the detector
	for _, level := range []bool{true, true, false, true, false, false} {
		pin.level = level
		sys.ISR(tick)
	}

	rising, falling, timeouts := svc.Counts()
	if rising != 2 || falling != 2 || timeouts != 0 {
		t.Fatalf("Counts() = %d, %d, %d, want 2, 2, 0", rising, falling, timeouts)
	}
	if len(log) != 2 || !strings.Contains(log[1], "2 rising, 2 falling") {
		t.Fatalf("log = %q", log)
	}
	if !strings.Contains(svc.Status(), "FAKE") {
		t.Fatalf("Status() = %q", svc.Status())
	}
}

func TestSilentInputTimesOut(t *testing.T) {
	svc := New(&fakePin{}, nil, 0, 5)
	sys, err := kernel.New(kernel.Config{Threads: []kernel.ThreadConfig{{Name: "edge", Entry: svc.Run}}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sys.Init()

	tick := tickWith(svc)
	for i := 0; i < 11; i++ {
		sys.ISR(tick)
	}
	if _, _, timeouts := svc.Counts(); timeouts != 2 {
		t.Fatalf("timeouts = %d, want 2", timeouts)
	}
}

func TestNoPinParks(t *testing.T) {
	var log lines
	svc := New(nil, &log, 0, 0)
	sys, err := kernel.New(kernel.Config{Threads: []kernel.ThreadConfig{{Name: "edge", Entry: svc.Run}}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sys.Init()
	sys.ISR(tickWith(svc))
	if len(log) != 1 || !strings.Contains(log[0], "no input pin") {
		t.Fatalf("log = %q", log)
	}
}
