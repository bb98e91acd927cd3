//go:build !tinygo

package hal

import "time"

// hostTime converts wall-clock time elapsed between frames into board ticks.
type hostTime struct {
	ch   chan uint64
	seq  uint64
	tick time.Duration

	last time.Time
	acc  time.Duration
	now  func() time.Time
}

func newHostTime(hz int) *hostTime {
	if hz <= 0 {
		hz = 1000
	}
	return &hostTime{
		ch:   make(chan uint64, 1024),
		tick: time.Second / time.Duration(hz),
		now:  time.Now,
	}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

// step emits the ticks that elapsed since the previous step. The first
// step emits exactly one.
func (t *hostTime) step() {
	now := t.now()
	if t.last.IsZero() {
		t.last = now
		t.acc = 0
		t.stepN(1)
		return
	}

	t.acc += now.Sub(t.last)
	t.last = now

	ticks := uint64(t.acc / t.tick)
	if ticks == 0 {
		return
	}
	t.acc %= t.tick
	t.stepN(ticks)
}

func (t *hostTime) stepN(n uint64) {
	for i := uint64(0); i < n; i++ {
		t.seq++
		select {
		case t.ch <- t.seq:
		default:
		}
	}
}
