//go:build tinygo && !baremetal

package hal

import (
	"fmt"
	"os"
	"runtime"
	"time"
)

type tinyGoHostHAL struct {
	logger *tinyGoHostLogger
	led    *tinyGoHostLED
	gpio   GPIO
	fb     *tinyGoHostFramebuffer
	kbd    *tinyGoHostKeyboard
	t      *tinyGoHostTime
}

// New returns a TinyGo-on-host HAL implementation ticking at tickHz.
//
// This is used by `tinygo run` targets like linux/wasm where there is no MCU pin mapping.
func New(tickHz int) HAL {
	l := &tinyGoHostLogger{}
	led := &tinyGoHostLED{logger: l}
	return &tinyGoHostHAL{
		logger: l,
		led:    led,
		gpio: newPinBank([]GPIOPin{
			newLEDPin("LED", led),
			newSignalPin("SIG1HZ", time.Second, 500*time.Millisecond),
		}),
		fb:  newTinyGoHostFramebuffer(320, 240),
		kbd: &tinyGoHostKeyboard{},
		t:   newTinyGoHostTime(tickHz),
	}
}

func (h *tinyGoHostHAL) Logger() Logger   { return h.logger }
func (h *tinyGoHostHAL) LED() LED         { return h.led }
func (h *tinyGoHostHAL) GPIO() GPIO       { return h.gpio }
func (h *tinyGoHostHAL) Display() Display { return tinyGoHostDisplay{fb: h.fb} }
func (h *tinyGoHostHAL) Input() Input     { return tinyGoHostInput{kbd: h.kbd} }
func (h *tinyGoHostHAL) Time() Time       { return h.t }
func (h *tinyGoHostHAL) Serial() Serial   { return stdioSerial{} }

type tinyGoHostDisplay struct {
	fb Framebuffer
}

func (d tinyGoHostDisplay) Framebuffer() Framebuffer { return d.fb }

type tinyGoHostInput struct {
	kbd Keyboard
}

func (in tinyGoHostInput) Keyboard() Keyboard { return in.kbd }

type tinyGoHostTime struct {
	ch  chan uint64
	seq uint64
}

func newTinyGoHostTime(hz int) *tinyGoHostTime {
	if hz <= 0 {
		hz = 1000
	}
	t := &tinyGoHostTime{ch: make(chan uint64, 16)}
	go func() {
		ticker := time.NewTicker(time.Second / time.Duration(hz))
		defer ticker.Stop()
		for range ticker.C {
			t.seq++
			select {
			case t.ch <- t.seq:
			default:
			}
		}
	}()
	return t
}

func (t *tinyGoHostTime) Ticks() <-chan uint64 { return t.ch }

type tinyGoHostLogger struct{}

func (l *tinyGoHostLogger) WriteLineString(s string) {
	println(s)
}

func (l *tinyGoHostLogger) WriteLineBytes(b []byte) {
	println(string(b))
}

type tinyGoHostLED struct {
	on     bool
	logger *tinyGoHostLogger
}

func (l *tinyGoHostLED) High() {
	l.on = true
	l.logger.WriteLineString(fmt.Sprintf("led: HIGH (tinygo/%s)", runtime.GOOS))
}

func (l *tinyGoHostLED) Low() {
	l.on = false
	l.logger.WriteLineString(fmt.Sprintf("led: LOW (tinygo/%s)", runtime.GOOS))
}

type tinyGoHostKeyboard struct{}

func (k *tinyGoHostKeyboard) Events() <-chan KeyEvent { return nil }

type stdioSerial struct{}

func (stdioSerial) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioSerial) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
