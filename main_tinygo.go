//go:build tinygo

package main

import (
	"context"

	"nilrt/app"
	"nilrt/hal"
	"nilrt/nilos/config"
)

func main() {
	cfg, err := config.Default()
	if err != nil {
		panic(err)
	}
	h := hal.New(cfg.TickHz)
	a, err := app.New(h, cfg)
	if err != nil {
		h.Logger().WriteLineString(err.Error())
		select {}
	}
	if err := a.Run(context.Background()); err != nil {
		h.Logger().WriteLineString(err.Error())
	}
	select {}
}
