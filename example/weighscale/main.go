// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Daniel Robertson.

//go:build linux
// +build linux

package main

import (
	"fmt"
	"time"

	"github.com/endail/hx711"
	"github.com/warthog618/gpiod"
)

// This example reads an HX711 with its clock pin on GPIO 4 and data
// pin on GPIO 5, which are pins J8-7 and J8-29 on a Raspberry Pi.
func main() {
	c, err := gpiod.NewChip("gpiochip0")
	if err != nil {
		panic(err)
	}
	defer c.Close()

	h, err := hx711.New(c, 4, 5)
	if err != nil {
		panic(err)
	}
	defer h.Close()

	// power up
	h.SetPower(hx711.PowerUp)

	// set the gain and save it to the chip by powering down then back
	// up
	h.SetGain(hx711.Gain128)
	h.SetPower(hx711.PowerDown)
	hx711.WaitPowerDown()
	h.SetPower(hx711.PowerUp)

	// wait for readings to settle
	hx711.WaitSettle(hx711.Rate10)

	// wait (block) until a value is read
	v, err := h.GetValue()
	if err != nil {
		panic(err)
	}
	fmt.Printf("blocking value: %d\n", v)

	// or use a timeout
	if v, ok, _ := h.GetValueTimeout(250 * time.Millisecond); ok {
		fmt.Printf("timeout value: %d\n", v)
	}

	// or see if there's a value, but don't block if not
	if v, ok, _ := h.GetValueNoblock(); ok {
		fmt.Printf("noblock value: %d\n", v)
	}

	h.SetPower(hx711.PowerDown)
}
