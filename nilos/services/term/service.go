package term

import (
	"fmt"

	"nilrt/hal"
	"nilrt/internal/buildinfo"
	"nilrt/kernel"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

// StatusFunc returns one extra line for the status screen.
type StatusFunc func() string

// Service redraws a status terminal on the framebuffer every refresh
// period: system time, the thread table and any registered status lines.
type Service struct {
	disp      hal.Display
	refreshMS uint32
	status    []StatusFunc

	fb      hal.Framebuffer
	d       *fbDisplay
	t       *tinyterm.Terminal
	renders int
}

func New(disp hal.Display, refreshMS uint32) *Service {
	if refreshMS == 0 {
		refreshMS = 1000
	}
	return &Service{disp: disp, refreshMS: refreshMS}
}

// AddStatus registers an extra status line. It must be called before the
// thread starts.
func (s *Service) AddStatus(fn StatusFunc) {
	s.status = append(s.status, fn)
}

// Renders returns how many frames were drawn.
func (s *Service) Renders() int { return s.renders }

// Run is the thread entry. Without a usable framebuffer the thread parks
// forever.
func (s *Service) Run(sys *kernel.System, _ any) {
	if s.disp != nil {
		s.fb = s.disp.Framebuffer()
	}
	s.d = newFBDisplay(s.fb)
	if !s.d.usable() {
		sys.Sleep(kernel.Infinite)
	}

	period := kernel.Time(sys.MS2Ticks(s.refreshMS))
	next := sys.Now()
	for {
		s.render(sys)
		next += period
		sys.SleepUntil(next)
	}
}

func (s *Service) reset() {
	s.t = tinyterm.NewTerminal(s.d)
	s.t.Configure(&tinyterm.Config{
		Font:              &proggy.TinySZ8pt7b,
		FontHeight:        10,
		FontOffset:        7,
		UseSoftwareScroll: true,
	})
	s.fb.ClearRGB(0, 0, 32)
}

func (s *Service) render(sys *kernel.System) {
	s.reset()

	now := sys.Now()
	hz := sys.TickHz()
	fmt.Fprintf(s.t, "nilrt %s  t=%d (%ds)\r\n\r\n", buildinfo.Short(), now, uint32(now)/hz)
	for _, ti := range sys.Snapshot() {
		fmt.Fprintf(s.t, "%s\r\n", ti)
	}
	if len(s.status) > 0 {
		fmt.Fprint(s.t, "\r\n")
	}
	for _, fn := range s.status {
		fmt.Fprintf(s.t, "%s\r\n", fn())
	}
	s.t.Display()
	s.renders++
}
