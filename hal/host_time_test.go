//go:build !tinygo

package hal

import (
	"testing"
	"time"
)

func TestHostTimeConvertsElapsedTime(t *testing.T) {
	now := time.Unix(0, 0)
	ht := newHostTime(100)
	ht.now = func() time.Time { return now }

	ht.step()
	now = now.Add(25 * time.Millisecond)
	ht.step()
	now = now.Add(5 * time.Millisecond)
	ht.step()

	if got := len(ht.Ticks()); got != 4 {
		t.Fatalf("ticks emitted = %d, want 4", got)
	}
	var last uint64
	for len(ht.ch) > 0 {
		last = <-ht.ch
	}
	if last != 4 {
		t.Fatalf("last tick = %d, want 4", last)
	}
}
