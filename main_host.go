//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"nilrt/app"
	"nilrt/hal"
	"nilrt/nilos/config"
)

func main() {
	var (
		headless   bool
		hcfg       hal.HeadlessConfig
		opts       hal.Options
		configPath string
	)
	flag.BoolVar(&headless, "headless", false, "Run without a window.")
	flag.IntVar(&hcfg.Hz, "hz", 60, "Runner steps per second in headless mode.")
	flag.Uint64Var(&hcfg.Frames, "ticks", 0, "Stop after N runner steps in headless mode (0 = run forever).")
	flag.StringVar(&configPath, "config", "", "Thread table YAML (default: built-in).")
	flag.StringVar(&opts.SerialPort, "serial", "", "Use this serial port as the console.")
	flag.IntVar(&opts.Baud, "baud", 115200, "Baud rate for -serial.")
	flag.BoolVar(&opts.TTY, "tty", false, "Read console input from the terminal in raw mode.")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	opts.TickHz = cfg.TickHz

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	newApp := func(h hal.HAL) func() error { return app.Start(ctx, h, cfg) }

	if headless {
		err = hal.RunHeadless(ctx, opts, newApp, hcfg)
	} else {
		err = hal.RunWindow(opts, newApp)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}
