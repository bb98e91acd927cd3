package kernel

// Port is the architecture layer: it prepares initial thread contexts and
// switches between them. Threads are identified by table index; the last
// slot is the idle thread, which is the context that called Init.
//
// Switch is the only place a thread is suspended. It must not return in the
// "from" context until some later Switch names it as "to".
type Port interface {
	// Init is called once with the number of slots, idle included.
	Init(slots int)
	// Setup prepares slot id so that the first Switch into it runs start.
	Setup(id int, stackSize int, start func())
	// Switch resumes "to" and suspends "from".
	Switch(to, from int)
}

// GoroutinePort runs every thread on its own goroutine and hands a single
// baton between them, so exactly one thread executes at a time.
//
// The stack size is advisory: goroutine stacks grow on demand.
type GoroutinePort struct {
	batons []chan struct{}
}

// NewGoroutinePort returns an uninitialized goroutine port.
func NewGoroutinePort() *GoroutinePort {
	return &GoroutinePort{}
}

func (p *GoroutinePort) Init(slots int) {
	p.batons = make([]chan struct{}, slots)
	for i := range p.batons {
		p.batons[i] = make(chan struct{}, 1)
	}
}

func (p *GoroutinePort) Setup(id int, stackSize int, start func()) {
	_ = stackSize
	baton := p.batons[id]
	go func() {
		<-baton
		start()
	}()
}

func (p *GoroutinePort) Switch(to, from int) {
	p.batons[to] <- struct{}{}
	<-p.batons[from]
}
