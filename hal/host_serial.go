//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"unicode/utf8"

	"github.com/mattn/go-tty"
	"go.bug.st/serial"
)

// hostSerial is the console stream: stdio, a raw terminal, or a serial port.
type hostSerial struct {
	mu sync.Mutex
	r  io.Reader
	w  io.Writer
	c  io.Closer
}

func openHostSerial(opts Options) (*hostSerial, error) {
	switch {
	case opts.SerialPort != "":
		baud := opts.Baud
		if baud <= 0 {
			baud = 115200
		}
		port, err := serial.Open(opts.SerialPort, &serial.Mode{BaudRate: baud})
		if err != nil {
			return nil, fmt.Errorf("hal: open serial %s: %w", opts.SerialPort, err)
		}
		return &hostSerial{r: port, w: port, c: port}, nil
	case opts.TTY:
		t, err := tty.Open()
		if err != nil {
			return nil, fmt.Errorf("hal: open tty: %w", err)
		}
		return &hostSerial{r: &ttyReader{t: t}, w: t.Output(), c: t}, nil
	}
	return &hostSerial{r: os.Stdin, w: os.Stdout}, nil
}

func (s *hostSerial) Read(p []byte) (int, error) {
	if s.r == nil {
		return 0, ErrNotImplemented
	}
	return s.r.Read(p)
}

func (s *hostSerial) Write(p []byte) (int, error) {
	if s.w == nil {
		return 0, ErrNotImplemented
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *hostSerial) Close() error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}

// ttyReader turns the rune stream of a raw terminal into bytes.
type ttyReader struct {
	t       *tty.TTY
	pending []byte
}

func (r *ttyReader) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		c, err := r.t.ReadRune()
		if err != nil {
			return 0, err
		}
		var buf [utf8.UTFMax]byte
		r.pending = append(r.pending, buf[:utf8.EncodeRune(buf[:], c)]...)
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}
