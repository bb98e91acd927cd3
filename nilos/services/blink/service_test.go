package blink

import (
	"testing"

	"nilrt/kernel"
)

type recLED struct {
	levels []bool
}

func (l *recLED) High() { l.levels = append(l.levels, true) }
func (l *recLED) Low()  { l.levels = append(l.levels, false) }

func TestBlinkTogglesEveryPeriod(t *testing.T) {
	led := &recLED{}
	svc := New(led, 10)
	sys, err := kernel.New(kernel.Config{
		TickHz:  1000,
		Threads: []kernel.ThreadConfig{{Name: "blink", Entry: svc.Run}},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sys.Init()

	if got := svc.Toggles(); got != 1 {
		t.Fatalf("Toggles() after Init = %d, want 1", got)
	}
	for i := 0; i < 35; i++ {
		sys.Tick()
	}
	if got := svc.Toggles(); got != 4 {
		t.Fatalf("Toggles() after 35 ticks = %d, want 4", got)
	}
	want := []bool{true, false, true, false}
	for i, l := range want {
		if led.levels[i] != l {
			t.Fatalf("levels = %v, want %v", led.levels, want)
		}
	}
}
