//go:build nildebug

package kernel

func (s *System) assert(cond bool, where string) {
	if !cond {
		s.halt(where)
	}
}
