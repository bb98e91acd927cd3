//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Options selects the host board configuration.
type Options struct {
	// TickHz is the rate of the Time tick stream. 0 means 1000.
	TickHz int
	// SerialPort, if set, opens a real serial port as the console.
	SerialPort string
	Baud       int
	// TTY puts the controlling terminal in raw mode for console input.
	TTY bool
}

type hostHAL struct {
	logger *hostLogger
	led    *hostLED
	gpio   GPIO
	fb     *hostFramebuffer
	kbd    *hostKeyboard
	t      *hostTime
	serial *hostSerial
}

func newHost(opts Options) (*hostHAL, error) {
	serial, err := openHostSerial(opts)
	if err != nil {
		return nil, err
	}

	logger := newHostLogger(os.Stdout, opts.TTY)
	led := &hostLED{logger: logger}
	pins := []GPIOPin{
		newLEDPin("LED", led),
		newSignalPin("SIG1HZ", 1*time.Second, 500*time.Millisecond),
		newSignalPin("SIG5HZ", 200*time.Millisecond, 100*time.Millisecond),
		newSignalPin("SIGPULSE", 1*time.Second, 50*time.Millisecond),
	}
	return &hostHAL{
		logger: logger,
		led:    led,
		gpio:   newPinBank(pins),
		fb:     newHostFramebuffer(320, 240),
		kbd:    newHostKeyboard(),
		t:      newHostTime(opts.TickHz),
		serial: serial,
	}, nil
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) LED() LED         { return h.led }
func (h *hostHAL) GPIO() GPIO       { return h.gpio }
func (h *hostHAL) Display() Display { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Input() Input     { return hostInput{kbd: h.kbd} }
func (h *hostHAL) Time() Time       { return h.t }
func (h *hostHAL) Serial() Serial   { return h.serial }

func (h *hostHAL) close() error { return h.serial.Close() }

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostInput struct {
	kbd *hostKeyboard
}

func (in hostInput) Keyboard() Keyboard { return in.kbd }

const (
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

// hostLogger writes log lines to the terminal, coloured by severity when
// the output is a terminal.
type hostLogger struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
	eol   string
}

func newHostLogger(f *os.File, raw bool) *hostLogger {
	l := &hostLogger{w: f, eol: "\n"}
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		l.w = colorable.NewColorable(f)
		l.color = true
	}
	if raw {
		l.eol = "\r\n"
	}
	return l
}

func lineColor(s string) string {
	switch {
	case strings.Contains(s, "panic"), strings.Contains(s, "halt"):
		return ansiRed
	case strings.Contains(s, "warn"):
		return ansiYellow
	}
	return ""
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c := lineColor(s); c != "" && l.color {
		fmt.Fprint(l.w, c, s, ansiReset, l.eol)
		return
	}
	fmt.Fprint(l.w, s, l.eol)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.WriteLineString(string(b))
}

type hostLED struct {
	mu     sync.Mutex
	on     bool
	logger *hostLogger
}

func (l *hostLED) High() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = true
	l.logger.WriteLineString("led: HIGH")
}

func (l *hostLED) Low() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = false
	l.logger.WriteLineString("led: LOW")
}
