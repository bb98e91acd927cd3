//go:build !tinygo

// Command nilcheck validates a thread table and prints the resulting
// priority order and stack budget.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/inhies/go-bytesize"

	"nilrt/app"
	"nilrt/kernel"
	"nilrt/nilos/config"
)

func main() {
	var (
		path   string
		budget string
	)
	flag.StringVar(&path, "config", "", "thread table (YAML); empty uses the built-in table")
	flag.StringVar(&budget, "ram", "", "fail if the total stack exceeds this size (e.g. 16KB)")
	flag.Parse()

	if flag.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "error: unexpected arguments")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(os.Stdout, path, budget); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(w io.Writer, path, budget string) error {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Default()
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return err
	}

	reg := make(config.Registry)
	for _, name := range app.ServiceNames() {
		reg[name] = func(config.Args) (kernel.ThreadFunc, error) { return nil, nil }
	}
	if err := cfg.Validate(reg); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRIO\tNAME\tSERVICE\tSTACK")
	for i, t := range cfg.Threads {
		stack, _ := t.StackBytes()
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i, t.Name, t.ServiceName(), config.FormatBytes(stack))
	}
	fmt.Fprintf(tw, "-\tidle\t-\t-\n")
	if err := tw.Flush(); err != nil {
		return err
	}

	total := cfg.TotalStack()
	hz := cfg.TickHz
	if hz == 0 {
		hz = kernel.DefaultTickHz
	}
	fmt.Fprintf(w, "threads: %d, tick: %d Hz, stacks: %s\n", len(cfg.Threads), hz, config.FormatBytes(total))

	if budget == "" {
		return nil
	}
	limit, err := bytesize.Parse(budget)
	if err != nil {
		return fmt.Errorf("-ram %q: %w", budget, err)
	}
	if float64(total) > float64(limit) {
		return fmt.Errorf("stacks need %s, budget is %s", config.FormatBytes(total), limit)
	}
	return nil
}
