package kernel

// Time is an absolute system time in ticks. It wraps at 2^32.
type Time uint32

// Ticks is a relative interval in ticks.
type Ticks uint32

const (
	// Immediate never blocks: the operation is a poll.
	Immediate Ticks = 0
	// Infinite blocks without a deadline.
	Infinite Ticks = ^Ticks(0)
)

// Msg is the wakeup message a blocked thread resumes with.
type Msg int32

const (
	MsgOK      Msg = 0
	MsgTimeout Msg = -1
	MsgReset   Msg = -2
)

func (m Msg) String() string {
	switch m {
	case MsgOK:
		return "ok"
	case MsgTimeout:
		return "timeout"
	case MsgReset:
		return "reset"
	default:
		if m > 0 {
			return "msg"
		}
		return "unknown"
	}
}

// EventMask is a set of event flags, one bit per event.
type EventMask uint32

// AllEvents matches every event flag.
const AllEvents = ^EventMask(0)

// ThreadFunc is a thread entry point. It runs on its own stack with the
// kernel lock released.
type ThreadFunc func(s *System, arg any)

// ThreadConfig describes one slot of the static thread table.
type ThreadConfig struct {
	Name string
	// StackSize is the working area reserved for the thread, in bytes.
	StackSize int
	Entry     ThreadFunc
	Arg       any
}

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
}

// Config is the static kernel configuration.
//
// Threads are listed in decreasing priority order. The calling context of
// Init becomes the idle thread and is not listed.
type Config struct {
	Threads []ThreadConfig
	// TickHz is the timer interrupt frequency. Zero means 1000.
	TickHz uint32
	// Port performs context switches. Nil selects the goroutine port.
	Port Port
	// Logger receives kernel messages. May be nil.
	Logger Logger
}

// DefaultTickHz is used when Config.TickHz is zero.
const DefaultTickHz = 1000

// IRQ is an interrupt handler. It runs with the kernel lock held and may only
// call Locked functions. The kernel reschedules when it returns.
type IRQ func(s *System)

// waitObject identifies what a blocked thread is waiting on.
type waitObject interface {
	waitKind() string
}

type waitState struct {
	kind string
}

func (w *waitState) waitKind() string { return w.kind }

var (
	wtSleeping = &waitState{kind: "sleeping"}
	wtEvents   = &waitState{kind: "events"}
	wtHalted   = &waitState{kind: "halted"}
)
