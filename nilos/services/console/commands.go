package console

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"nilrt/internal/buildinfo"
	"nilrt/kernel"
)

type cmdFunc func(sys *kernel.System, s *Service, args []string) error

type command struct {
	Name  string
	Usage string
	Desc  string
	Run   cmdFunc
}

type registry struct {
	cmds map[string]command
}

func newRegistry() *registry {
	return &registry{cmds: make(map[string]command)}
}

func (r *registry) register(cmd command) error {
	cmd.Name = strings.TrimSpace(cmd.Name)
	if cmd.Name == "" {
		return fmt.Errorf("console registry: empty command name")
	}
	if cmd.Run == nil {
		return fmt.Errorf("console registry: %q has no handler", cmd.Name)
	}
	if _, ok := r.cmds[cmd.Name]; ok {
		return fmt.Errorf("console registry: duplicate command %q", cmd.Name)
	}
	r.cmds[cmd.Name] = cmd
	return nil
}

func (r *registry) resolve(name string) (command, bool) {
	cmd, ok := r.cmds[strings.ToLower(strings.TrimSpace(name))]
	return cmd, ok
}

func (r *registry) names() []string {
	out := make([]string, 0, len(r.cmds))
	for name := range r.cmds {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func registerCommands(r *registry) error {
	for _, cmd := range []command{
		{Name: "help", Usage: "help", Desc: "Show available commands.", Run: cmdHelp},
		{Name: "threads", Usage: "threads", Desc: "Show the thread table.", Run: cmdThreads},
		{Name: "uptime", Usage: "uptime", Desc: "Show system time and interrupt stats.", Run: cmdUptime},
		{Name: "version", Usage: "version", Desc: "Show build version.", Run: cmdVersion},
		{Name: "kick", Usage: "kick", Desc: "Signal the kick semaphore.", Run: cmdKick},
		{Name: "reset", Usage: "reset [n]", Desc: "Reset the kick semaphore to n, waking its waiters.", Run: cmdReset},
		{Name: "events", Usage: "events <thread> <mask>", Desc: "Signal events to a thread.", Run: cmdEvents},
		{Name: "within", Usage: "within <start> <end>", Desc: "Test whether now is in [start, end).", Run: cmdWithin},
	} {
		if err := r.register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func cmdHelp(_ *kernel.System, s *Service, _ []string) error {
	for _, name := range s.reg.names() {
		cmd := s.reg.cmds[name]
		s.printf("%-24s %s\r\n", cmd.Usage, cmd.Desc)
	}
	return nil
}

func cmdThreads(sys *kernel.System, s *Service, _ []string) error {
	s.println(" # name       state      deadline")
	for _, ti := range sys.Snapshot() {
		s.println(ti.String())
	}
	return nil
}

func cmdUptime(sys *kernel.System, s *Service, _ []string) error {
	now := sys.Now()
	hz := sys.TickHz()
	s.printf("up %d ticks (%d.%03ds at %d Hz), %d irq overruns, %d rx dropped\r\n",
		now, uint32(now)/hz, uint32(now)%hz*1000/hz, hz, sys.IRQOverruns(), s.Dropped())
	return nil
}

func cmdVersion(_ *kernel.System, s *Service, _ []string) error {
	s.printf("nilrt %s %s %s\r\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
	return nil
}

func cmdKick(sys *kernel.System, s *Service, _ []string) error {
	if s.kick == nil {
		return errors.New("no kick semaphore")
	}
	sys.SemSignal(s.kick)
	return nil
}

func cmdReset(sys *kernel.System, s *Service, args []string) error {
	if s.kick == nil {
		return errors.New("no kick semaphore")
	}
	if len(args) > 1 {
		return errors.New("usage: reset [n]")
	}
	var n int64
	if len(args) == 1 {
		v, err := strconv.ParseInt(args[0], 0, 32)
		if err != nil || v < 0 {
			return fmt.Errorf("invalid count %q", args[0])
		}
		n = v
	}
	sys.SemReset(s.kick, int32(n))
	return nil
}

func cmdEvents(sys *kernel.System, s *Service, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: events <thread> <mask>")
	}
	t := findThread(sys, args[0])
	if t == nil {
		return fmt.Errorf("no thread %q", args[0])
	}
	mask, err := strconv.ParseUint(args[1], 0, 32)
	if err != nil {
		return fmt.Errorf("invalid mask %q", args[1])
	}
	sys.SignalEvents(t, kernel.EventMask(mask))
	return nil
}

func cmdWithin(sys *kernel.System, s *Service, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: within <start> <end>")
	}
	var bounds [2]kernel.Time
	for i, a := range args {
		v, err := strconv.ParseUint(a, 0, 32)
		if err != nil {
			return fmt.Errorf("invalid time %q", a)
		}
		bounds[i] = kernel.Time(v)
	}
	s.printf("%d in [%d, %d): %v\r\n", sys.Now(), bounds[0], bounds[1], sys.IsWithin(bounds[0], bounds[1]))
	return nil
}

// findThread resolves a thread by name or numeric id.
func findThread(sys *kernel.System, name string) *kernel.Thread {
	for i := 0; i < sys.NumThreads(); i++ {
		if t := sys.Thread(i); t.Name() == name {
			return t
		}
	}
	if id, err := strconv.Atoi(name); err == nil && id >= 0 && id < sys.NumThreads() {
		return sys.Thread(id)
	}
	return nil
}
