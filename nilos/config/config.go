// Package config loads the thread table of a system from YAML.
//
// Threads are listed in priority order, highest first. Each entry names a
// service from a Registry, a stack size written the human way ("2KB"), and
// free-form string arguments for the service.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/inhies/go-bytesize"
	"gopkg.in/yaml.v2"

	"nilrt/kernel"
)

// DefaultStack is used for threads that do not set a stack size.
const DefaultStack = 1 * bytesize.KB

//go:embed default.yaml
var defaultYAML []byte

// Config is a parsed system description.
type Config struct {
	TickHz  int          `yaml:"tick_hz"`
	Threads []ThreadSpec `yaml:"threads"`
}

// ThreadSpec describes one thread table entry.
type ThreadSpec struct {
	Name string `yaml:"name"`
	// Service defaults to Name.
	Service string `yaml:"service"`
	Stack   string `yaml:"stack"`
	Args    Args   `yaml:"args"`
}

// ServiceName returns the registry key of the thread.
func (t ThreadSpec) ServiceName() string {
	if t.Service != "" {
		return t.Service
	}
	return t.Name
}

// StackBytes parses the stack size of the thread.
func (t ThreadSpec) StackBytes() (int, error) {
	if strings.TrimSpace(t.Stack) == "" {
		return int(DefaultStack), nil
	}
	b, err := bytesize.Parse(t.Stack)
	if err != nil {
		return 0, fmt.Errorf("config: thread %q: stack %q: %w", t.Name, t.Stack, err)
	}
	if b < 0 {
		return 0, fmt.Errorf("config: thread %q: negative stack %q", t.Name, t.Stack)
	}
	return int(b), nil
}

// Args are the string arguments of a service.
type Args map[string]string

// String returns the argument key, or def if unset.
func (a Args) String(key, def string) string {
	if v, ok := a[key]; ok && v != "" {
		return v
	}
	return def
}

// Int returns the argument key as an integer, or def if unset.
func (a Args) Int(key string, def int) (int, error) {
	v, ok := a[key]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("arg %s: %w", key, err)
	}
	return n, nil
}

// Factory builds the entry function of a thread from its arguments.
type Factory func(args Args) (kernel.ThreadFunc, error)

// Registry maps service names to factories.
type Registry map[string]Factory

// Default returns the configuration embedded in the binary.
func Default() (*Config, error) {
	return Parse(defaultYAML)
}

// Load reads a configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(b)
}

// Parse decodes and checks a configuration. Unknown keys are errors.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(b, &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(nil); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the table. If reg is non-nil, every service must be
// registered.
func (c *Config) Validate(reg Registry) error {
	if c.TickHz < 0 {
		return fmt.Errorf("config: negative tick_hz %d", c.TickHz)
	}
	if int64(c.TickHz) > math.MaxUint32 {
		return fmt.Errorf("config: tick_hz %d out of range", c.TickHz)
	}
	if len(c.Threads) == 0 {
		return fmt.Errorf("config: no threads")
	}
	seen := make(map[string]bool, len(c.Threads))
	for i, t := range c.Threads {
		if t.Name == "" {
			return fmt.Errorf("config: thread %d: missing name", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("config: duplicate thread %q", t.Name)
		}
		seen[t.Name] = true
		if _, err := t.StackBytes(); err != nil {
			return err
		}
		if reg != nil {
			if _, ok := reg[t.ServiceName()]; !ok {
				return fmt.Errorf("config: thread %q: unknown service %q", t.Name, t.ServiceName())
			}
		}
	}
	return nil
}

// Build turns the table into kernel thread configurations, in priority
// order.
func (c *Config) Build(reg Registry) ([]kernel.ThreadConfig, error) {
	if err := c.Validate(reg); err != nil {
		return nil, err
	}
	out := make([]kernel.ThreadConfig, 0, len(c.Threads))
	for _, t := range c.Threads {
		entry, err := reg[t.ServiceName()](t.Args)
		if err != nil {
			return nil, fmt.Errorf("config: thread %q: %w", t.Name, err)
		}
		stack, _ := t.StackBytes()
		out = append(out, kernel.ThreadConfig{
			Name:      t.Name,
			StackSize: stack,
			Entry:     entry,
		})
	}
	return out, nil
}

// TotalStack returns the sum of all thread stacks in bytes.
func (c *Config) TotalStack() int {
	total := 0
	for _, t := range c.Threads {
		n, err := t.StackBytes()
		if err == nil {
			total += n
		}
	}
	return total
}

// FormatBytes renders a byte count the way stack sizes are written.
func FormatBytes(n int) string {
	return bytesize.New(float64(n)).String()
}
