// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Daniel Robertson.

//go:build linux
// +build linux

package hx711

import (
	"io"
	"sync"

	"github.com/warthog618/gpiod"
)

// New creates a HX711 connected to the clk and dout lines of the chip.
//
// clk is requested as an output, initially high, so the chip is held
// powered down, and dout as an input with falling edge events feeding
// the acquisition loop. Call SetPower, then WaitSettle, before
// reading. The requested lines are released by Close.
func New(c *gpiod.Chip, clk, dout int, options ...Option) (*HX711, error) {
	cl, err := c.RequestLine(clk, gpiod.AsOutput(1))
	if err != nil {
		return nil, err
	}
	var relay readyRelay
	dl, err := c.RequestLine(dout,
		gpiod.WithFallingEdge(func(gpiod.LineEvent) {
			relay.edge()
		}))
	if err != nil {
		cl.Close()
		return nil, err
	}
	h, err := NewFromPins(cl, dl, options...)
	if err != nil {
		dl.Close()
		cl.Close()
		return nil, err
	}
	h.lines = []io.Closer{dl, cl}
	relay.bind(h.Ready)
	return h, nil
}

// readyRelay passes edge notifications on to the driver, holding any
// that arrive while the driver is still being constructed.
type readyRelay struct {
	mu      sync.Mutex
	notify  func()
	pending bool
}

func (r *readyRelay) edge() {
	r.mu.Lock()
	notify := r.notify
	if notify == nil {
		r.pending = true
	}
	r.mu.Unlock()
	if notify != nil {
		notify()
	}
}

func (r *readyRelay) bind(notify func()) {
	r.mu.Lock()
	r.notify = notify
	pending := r.pending
	r.pending = false
	r.mu.Unlock()
	if pending {
		notify()
	}
}
