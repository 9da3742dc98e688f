// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Daniel Robertson.

package hx711

import "time"

// Option specifies a construction option for the HX711.
type Option func(*HX711)

// WithGain sets the initial channel and gain.
//
// The default is channel A with a gain of 128, which is also the state
// the chip resets to on power up.
func WithGain(g Gain) Option {
	return func(h *HX711) {
		h.gain = g
	}
}

// WithTclk sets the clock half cycle period.
//
// Note that this is the half-cycle period - the time the clock line is
// held at each level within a pulse. It must remain well below
// PowerDownHold or the chip will power down mid-cycle. The default is
// 1 microsecond.
func WithTclk(tclk time.Duration) Option {
	return func(h *HX711) {
		h.c.Tclk = tclk
	}
}

// WithNotReadyTimeout sets the bound on waiting for a data ready edge
// before the acquisition loop checks the line level directly.
func WithNotReadyTimeout(timeout time.Duration) Option {
	return func(h *HX711) {
		h.notReadyTimeout = timeout
	}
}
