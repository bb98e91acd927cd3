package kernel

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// PanicInfo describes a fatal kernel condition: a failed assertion or a
// panicking thread.
type PanicInfo struct {
	Thread int
	Name   string
	Value  any
	Stack  []byte
}

var (
	panicActive atomic.Bool
	panicOnce   sync.Once

	panicHandler atomic.Value // func(PanicInfo)
)

// InPanicMode reports whether the kernel has halted.
func InPanicMode() bool {
	return panicActive.Load()
}

// SetPanicHandler installs a process-wide panic handler.
//
// The handler is invoked at most once (on the first panic). It must not
// panic. It may block forever; if it returns, the panic continues.
func SetPanicHandler(fn func(PanicInfo)) {
	panicHandler.Store(fn)
}

func triggerPanic(info PanicInfo) {
	panicOnce.Do(func() {
		panicActive.Store(true)
		info.Stack = captureStack()
		if v := panicHandler.Load(); v != nil {
			if fn, ok := v.(func(PanicInfo)); ok && fn != nil {
				fn(info)
			}
		}
	})
}

// halt stops the system on a contract violation.
func (s *System) halt(reason string) {
	t := &s.threads[s.current]
	s.logf("nil: halt: %s (thread %d %s)", reason, t.id, t.cfg.Name)
	triggerPanic(PanicInfo{Thread: t.id, Name: t.cfg.Name, Value: reason})
	panic(fmt.Sprintf("nil: %s", reason))
}
