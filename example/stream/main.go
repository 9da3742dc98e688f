// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Daniel Robertson.

//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/endail/hx711"
	"github.com/warthog618/gpiod"
)

// This example streams samples from an HX711 strapped for 80 samples
// per second, with its clock pin on GPIO 4 and data pin on GPIO 5,
// until interrupted.
func main() {
	c, err := gpiod.NewChip("gpiochip0")
	if err != nil {
		panic(err)
	}
	defer c.Close()

	h, err := hx711.New(c, 4, 5, hx711.WithGain(hx711.Gain128))
	if err != nil {
		panic(err)
	}
	defer h.Close()

	h.SetPower(hx711.PowerUp)
	defer h.SetPower(hx711.PowerDown)
	hx711.WaitSettle(hx711.Rate80)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	samples := make(chan int32)
	go func() {
		for {
			v, err := h.GetValue()
			if err != nil {
				close(samples)
				return
			}
			samples <- v
		}
	}()

	for {
		select {
		case v, ok := <-samples:
			if !ok {
				return
			}
			fmt.Println(v)
		case <-quit:
			return
		}
	}
}
