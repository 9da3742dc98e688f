// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Daniel Robertson.

package hx711

import (
	"errors"
	"time"
)

// Pin represents a single requested GPIO line.
//
// It is the subset of gpiod.Line the driver requires, and is satisfied
// by it.
type Pin interface {
	Value() (int, error)
	SetValue(int) error
}

// Conn is the bit bashed two wire connection to the HX711.
//
// Sclk drives the chip's PD_SCK pin and Dout reads its DOUT pin.
// Only one goroutine may drive the connection at a time.
type Conn struct {
	// time between clock edges (i.e. half the pulse cycle time)
	Tclk time.Duration
	Sclk Pin
	Dout Pin
}

// errPulseOverrun indicates the high phase of a clock pulse was
// stretched beyond PowerDownHold, most likely by preemption, so the
// chip has treated it as a power down request and the cycle is void.
var errPulseOverrun = errors.New("clock pulse overran power down threshold")

// ClockIn clocks in a data bit from the HX711 on Dout.
//
// The bit is sampled after the rising edge of the clock.
// Starts and ends just after the falling edge of the clock.
func (c *Conn) ClockIn() (int, error) {
	start := time.Now()
	err := c.Sclk.SetValue(1)
	if err != nil {
		return 0, err
	}
	time.Sleep(c.Tclk)
	v, err := c.Dout.Value()
	if err != nil {
		return 0, err
	}
	err = c.Sclk.SetValue(0)
	if err != nil {
		return 0, err
	}
	if time.Since(start) > PowerDownHold {
		return 0, errPulseOverrun
	}
	time.Sleep(c.Tclk)
	return v, nil
}

// Pulse issues one clock pulse without sampling Dout.
//
// The pulses trailing the 24 data bits select the channel and gain for
// the conversion that follows.
func (c *Conn) Pulse() error {
	start := time.Now()
	err := c.Sclk.SetValue(1)
	if err != nil {
		return err
	}
	time.Sleep(c.Tclk)
	err = c.Sclk.SetValue(0)
	if err != nil {
		return err
	}
	if time.Since(start) > PowerDownHold {
		return errPulseOverrun
	}
	time.Sleep(c.Tclk)
	return nil
}

// ReadCycle clocks out one conversion, MSB first, and issues the
// trailing pulses that select gain g for the next conversion.
//
// The chip must have asserted data ready (Dout low), else ErrNotReady
// is returned and no pulses are issued.
func (c *Conn) ReadCycle(g Gain) (int32, error) {
	v, err := c.Dout.Value()
	if err != nil {
		return 0, err
	}
	if v != 0 {
		return 0, ErrNotReady
	}
	var raw uint32
	for i := 0; i < readBits; i++ {
		v, err = c.ClockIn()
		if err != nil {
			return 0, err
		}
		raw <<= 1
		if v != 0 {
			raw |= 1
		}
	}
	for i := readBits; i < g.PulseCount(); i++ {
		err = c.Pulse()
		if err != nil {
			return 0, err
		}
	}
	return DecodeSample(raw), nil
}
