// Package app assembles a nilrt system from a thread table and a board.
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"nilrt/hal"
	"nilrt/internal/buildinfo"
	"nilrt/kernel"
	"nilrt/nilos/config"
	"nilrt/nilos/services/blink"
	"nilrt/nilos/services/console"
	"nilrt/nilos/services/edge"
	"nilrt/nilos/services/term"
	"nilrt/nilos/services/worker"
)

// App is a configured system ready to run.
type App struct {
	h    hal.HAL
	sys  *kernel.System
	kick *kernel.Semaphore

	con    *console.Service
	edges  []*edge.Service
	term   *term.Service
	status []term.StatusFunc
}

// New builds the kernel for cfg on board h.
func New(h hal.HAL, cfg *config.Config) (*App, error) {
	a := &App{h: h, kick: kernel.NewSemaphore(0)}
	threads, err := cfg.Build(a.registry())
	if err != nil {
		return nil, err
	}
	if a.term != nil {
		for _, fn := range a.status {
			a.term.AddStatus(fn)
		}
	}

	a.sys, err = kernel.New(kernel.Config{
		Threads: threads,
		TickHz:  uint32(cfg.TickHz),
		Logger:  h.Logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	return a, nil
}

// Kernel returns the underlying kernel.
func (a *App) Kernel() *kernel.System { return a.sys }

func (a *App) registry() config.Registry {
	return config.Registry{
		"blink": func(args config.Args) (kernel.ThreadFunc, error) {
			ms, err := args.Int("period_ms", 500)
			if err != nil {
				return nil, err
			}
			svc := blink.New(a.h.LED(), uint32(ms))
			a.status = append(a.status, func() string { return fmt.Sprintf("blink: %d toggles", svc.Toggles()) })
			return svc.Run, nil
		},
		"console": func(config.Args) (kernel.ThreadFunc, error) {
			if a.con != nil {
				return nil, errors.New("only one console thread allowed")
			}
			a.con = console.New(a.h.Serial(), a.kick)
			return a.con.Run, nil
		},
		"worker": func(args config.Args) (kernel.ThreadFunc, error) {
			ms, err := args.Int("timeout_ms", 3000)
			if err != nil {
				return nil, err
			}
			svc := worker.New(a.kick, a.h.Logger(), uint32(ms))
			a.status = append(a.status, svc.Status)
			return svc.Run, nil
		},
		"edge": func(args config.Args) (kernel.ThreadFunc, error) {
			name := args.String("pin", "SIG5HZ")
			pin := hal.FindPin(a.h.GPIO(), name)
			if pin == nil {
				return nil, fmt.Errorf("no GPIO pin %q", name)
			}
			report, err := args.Int("report", 0)
			if err != nil {
				return nil, err
			}
			timeout, err := args.Int("timeout_ms", 2000)
			if err != nil {
				return nil, err
			}
			svc := edge.New(pin, a.h.Logger(), report, uint32(timeout))
			a.edges = append(a.edges, svc)
			a.status = append(a.status, svc.Status)
			return svc.Run, nil
		},
		"term": func(args config.Args) (kernel.ThreadFunc, error) {
			if a.term != nil {
				return nil, errors.New("only one term thread allowed")
			}
			ms, err := args.Int("refresh_ms", 1000)
			if err != nil {
				return nil, err
			}
			a.term = term.New(a.h.Display(), uint32(ms))
			return a.term.Run, nil
		},
	}
}

// tickIRQ is the timer interrupt: it advances the kernel clock and samples
// the edge inputs.
func (a *App) tickIRQ(sys *kernel.System) {
	sys.TimerHandlerLocked()
	for _, e := range a.edges {
		e.PollLocked(sys)
	}
}

// Run starts the kernel and services interrupts until ctx is done. The
// calling goroutine is not used as the idle thread.
func (a *App) Run(ctx context.Context) error {
	installPanicHandler(a.h)
	a.logf("nilrt %s", buildinfo.String())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.sys.Init()
		return a.sys.Idle(ctx)
	})
	g.Go(func() error { return a.pumpTicks(ctx) })
	if a.con != nil {
		g.Go(func() error { return a.pumpSerial(ctx) })
		g.Go(func() error { return a.pumpKeys(ctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) pumpTicks(ctx context.Context) error {
	t := a.h.Time()
	if t == nil {
		return errors.New("app: board has no tick source")
	}
	ticks := t.Ticks()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ticks:
			if !ok {
				return errors.New("app: tick source closed")
			}
			a.sys.Raise(a.tickIRQ)
		}
	}
}

// pumpSerial forwards console input. Reads cannot be cancelled, so the
// reader runs detached and exits on the first read error.
func (a *App) pumpSerial(ctx context.Context) error {
	s := a.h.Serial()
	if s == nil {
		return nil
	}
	rx := make(chan []byte, 16)
	go func() {
		defer close(rx)
		buf := make([]byte, 64)
		for {
			n, err := s.Read(buf)
			if n > 0 {
				select {
				case rx <- append([]byte(nil), buf[:n]...):
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-rx:
			if !ok {
				return nil
			}
			a.sys.Raise(a.con.RxIRQ(p))
		}
	}
}

func (a *App) pumpKeys(ctx context.Context) error {
	in := a.h.Input()
	if in == nil || in.Keyboard() == nil {
		return nil
	}
	events := in.Keyboard().Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if p := keyBytes(ev); len(p) > 0 {
				a.sys.Raise(a.con.RxIRQ(p))
			}
		}
	}
}

// keyBytes maps a key event to the bytes a terminal would send.
func keyBytes(ev hal.KeyEvent) []byte {
	if !ev.Press {
		return nil
	}
	if ev.Rune != 0 {
		return utf8.AppendRune(nil, ev.Rune)
	}
	switch ev.Code {
	case hal.KeyEnter:
		return []byte{'\r'}
	case hal.KeyBackspace:
		return []byte{0x08}
	case hal.KeyEscape:
		return []byte{0x15}
	}
	return nil
}

func (a *App) logf(format string, args ...any) {
	if l := a.h.Logger(); l != nil {
		l.WriteLineString(fmt.Sprintf(format, args...))
	}
}

// Start builds and runs the system in the background for the host
// runners. The returned step function reports a failed system; it is
// called once per frame.
func Start(ctx context.Context, h hal.HAL, cfg *config.Config) func() error {
	a, err := New(h, cfg)
	if err != nil {
		return func() error { return err }
	}
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	var final error
	finished := false
	return func() error {
		if !finished {
			select {
			case final = <-done:
				finished = true
			default:
			}
		}
		return final
	}
}

// ServiceNames returns the services a thread table may refer to.
func ServiceNames() []string {
	reg := (&App{}).registry()
	names := make([]string, 0, len(reg))
	for name := range reg {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
