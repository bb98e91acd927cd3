package app

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"nilrt/hal"
	"nilrt/kernel"
	"nilrt/nilos/config"
)

type fakeLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *fakeLogger) WriteLineString(s string) {
	l.mu.Lock()
	l.lines = append(l.lines, s)
	l.mu.Unlock()
}

func (l *fakeLogger) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

func (l *fakeLogger) contains(sub string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}

type fakeSerial struct {
	r *io.PipeReader

	mu  sync.Mutex
	out bytes.Buffer
}

func (s *fakeSerial) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *fakeSerial) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Write(p)
}

func (s *fakeSerial) output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.String()
}

type fakeTime chan uint64

func (t fakeTime) Ticks() <-chan uint64 { return t }

type nopLED struct{}

func (nopLED) High() {}
func (nopLED) Low()  {}

type fakeHAL struct {
	log    *fakeLogger
	serial *fakeSerial
	ticks  fakeTime
}

func (h *fakeHAL) Logger() hal.Logger   { return h.log }
func (h *fakeHAL) LED() hal.LED         { return nopLED{} }
func (h *fakeHAL) GPIO() hal.GPIO       { return nil }
func (h *fakeHAL) Display() hal.Display { return nil }
func (h *fakeHAL) Input() hal.Input     { return nil }
func (h *fakeHAL) Time() hal.Time       { return h.ticks }
func (h *fakeHAL) Serial() hal.Serial   { return h.serial }

const testTable = `
tick_hz: 100
threads:
  - name: console
  - name: worker
    args:
      timeout_ms: "60000"
  - name: blink
    args:
      period_ms: "10"
`

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestConsoleKicksWorker(t *testing.T) {
	cfg, err := config.Parse([]byte(testTable))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	pr, pw := io.Pipe()
	defer pw.Close()
	h := &fakeHAL{
		log:    &fakeLogger{},
		serial: &fakeSerial{r: pr},
		ticks:  make(fakeTime),
	}
	a, err := New(h, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	waitFor(t, "prompt", func() bool { return strings.Contains(h.serial.output(), "nil> ") })
	if _, err := pw.Write([]byte("kick\r")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	waitFor(t, "worker log", func() bool { return h.log.contains("worker: kicked") })

	// The tick source is unbuffered, so each send is taken by the running
	// tick pump.
	for i := uint64(0); i < 3; i++ {
		select {
		case h.ticks <- i:
		case <-time.After(5 * time.Second):
			t.Fatalf("tick %d not consumed", i)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if !h.log.contains("nilrt ") {
		t.Fatal("missing build banner")
	}
}

func TestNewRejectsBadTables(t *testing.T) {
	tests := []struct {
		name  string
		table string
		want  string
	}{
		{"unknown service", "threads:\n  - name: x\n", "unknown service"},
		{"two consoles", "threads:\n  - name: a\n    service: console\n  - name: b\n    service: console\n", "only one console"},
		{"bad arg", "threads:\n  - name: blink\n    args:\n      period_ms: fast\n", "period_ms"},
		{"missing pin", "threads:\n  - name: edge\n    args:\n      pin: NOPE\n", "NOPE"},
	}
	h := &fakeHAL{log: &fakeLogger{}, ticks: make(fakeTime)}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Parse([]byte(tt.table))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			_, err = New(h, cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("New() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestKeyBytes(t *testing.T) {
	tests := []struct {
		ev   hal.KeyEvent
		want string
	}{
		{hal.KeyEvent{Press: true, Rune: 'k'}, "k"},
		{hal.KeyEvent{Press: true, Rune: 'é'}, "é"},
		{hal.KeyEvent{Press: true, Code: hal.KeyEnter}, "\r"},
		{hal.KeyEvent{Press: true, Code: hal.KeyBackspace}, "\b"},
		{hal.KeyEvent{Press: true, Code: hal.KeyEscape}, "\x15"},
		{hal.KeyEvent{Press: true, Code: hal.KeyUp}, ""},
		{hal.KeyEvent{Press: false, Rune: 'k'}, ""},
	}
	for _, tt := range tests {
		if got := string(keyBytes(tt.ev)); got != tt.want {
			t.Fatalf("keyBytes(%+v) = %q, want %q", tt.ev, got, tt.want)
		}
	}
}

func TestServiceNames(t *testing.T) {
	got := strings.Join(ServiceNames(), ",")
	if got != "blink,console,edge,term,worker" {
		t.Fatalf("ServiceNames() = %q", got)
	}
}

func TestPanicLines(t *testing.T) {
	lines := panicLines(kernel.PanicInfo{Thread: 2, Name: "worker", Value: "boom", Stack: []byte("a\n\nb\n")})
	want := []string{"nil: panic", "thread: 2 (worker)", "panic: boom", "stack:", "a", "b"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("panicLines() = %q, want %q", lines, want)
	}
	if got := panicLines(kernel.PanicInfo{}); got[len(got)-1] != "stack: unavailable" {
		t.Fatalf("panicLines() without stack = %q", got)
	}
}

func TestTakeRunes(t *testing.T) {
	prefix, rest := takeRunes("héllo", 2)
	if prefix != "hé" || rest != "llo" {
		t.Fatalf("takeRunes() = %q, %q, want \"hé\", \"llo\"", prefix, rest)
	}
	if prefix, rest := takeRunes("ab", 0); prefix != "" || rest != "ab" {
		t.Fatalf("takeRunes(n=0) = %q, %q", prefix, rest)
	}
}
