// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Daniel Robertson.

// Package hx711 provides a device driver for the HX711 24-bit load
// cell ADC connected via two GPIO lines.
//
// The chip signals each completed conversion by driving its data line
// low. The driver clocks conversions out as they become ready and
// keeps only the most recent sample, which applications collect in
// blocking, bounded wait or non-blocking form.
//
// Example of use:
//
//	c, err := gpiod.NewChip("gpiochip0")
//	if err != nil {
//		panic(err)
//	}
//	h, err := hx711.New(c, 4, 5)
//	if err != nil {
//		panic(err)
//	}
//	defer h.Close()
//	h.SetPower(hx711.PowerUp)
//	hx711.WaitSettle(hx711.Rate10)
//	v, err := h.GetValue()
package hx711

import (
	"errors"
	"io"
	"sync"
	"time"
)

const (
	// half cycle clock period if not set by WithTclk.
	defaultTclk = time.Microsecond

	// bound on waiting for a data ready edge if not set by
	// WithNotReadyTimeout.
	defaultNotReadyTimeout = 500 * time.Millisecond
)

// HX711 reads samples from a connected HX711.
type HX711 struct {
	c *Conn

	// ready carries data ready notifications into the acquisition
	// loop. Capacity one - notifications are coalesced.
	ready chan struct{}

	notReadyTimeout time.Duration

	slot *slot

	// mu serialises the public API. The acquisition goroutine never
	// takes it, so it may be held while joining the goroutine.
	mu      sync.Mutex
	power   Power
	closed  bool
	running bool
	stop    chan struct{}
	drained chan struct{}

	// lines requested by New, released on Close.
	lines []io.Closer

	// gmu covers gain, which the acquisition loop reads each cycle.
	gmu  sync.Mutex
	gain Gain
}

var (
	// ErrClosed indicates the driver has been closed.
	ErrClosed = errors.New("closed")

	// ErrPoweredDown indicates a read was attempted while the chip is
	// powered down.
	ErrPoweredDown = errors.New("powered down")

	// ErrInvalidGain indicates an unsupported gain.
	ErrInvalidGain = errors.New("invalid gain")

	// ErrInvalidPower indicates an unsupported power state.
	ErrInvalidPower = errors.New("invalid power state")

	// ErrNotReady indicates the chip has not asserted data ready.
	ErrNotReady = errors.New("data not ready")
)

// NewFromPins creates a HX711 from raw pin handles.
//
// sclk must be configured as an output, driven high, and dout as an
// input. Data ready notification is the caller's responsibility: call
// Ready from the pin provider's falling edge handler for dout. The
// driver starts powered down. Most users want New instead.
func NewFromPins(sclk, dout Pin, options ...Option) (*HX711, error) {
	h := HX711{
		c:               &Conn{Sclk: sclk, Dout: dout},
		ready:           make(chan struct{}, 1),
		notReadyTimeout: defaultNotReadyTimeout,
		slot:            newSlot(),
		power:           PowerDown,
		gain:            Gain128,
	}
	for _, option := range options {
		option(&h)
	}
	if !h.gain.Valid() {
		return nil, ErrInvalidGain
	}
	if h.c.Tclk == 0 {
		h.c.Tclk = defaultTclk
	}
	return &h, nil
}

// Ready notifies the acquisition loop that the chip has asserted data
// ready (dout low).
//
// It never blocks and notifications are coalesced. Drivers constructed
// with New receive this automatically from line edge events; only
// custom pin providers need call it.
func (h *HX711) Ready() {
	select {
	case h.ready <- struct{}{}:
	default:
	}
}

// SetPower transitions the chip between power states.
//
// Powering up releases the clock line low and starts the acquisition
// loop, but samples are not trustworthy until a settle time has
// elapsed - see WaitSettle. Powering down stops the acquisition loop,
// waits for any in flight read cycle to finish, then drives the clock
// line high; the chip is down once the line has been held high for
// the power down hold time - see WaitPowerDown. Note that power down
// resets the chip to channel A with a gain of 128.
//
// A transition to the state already held is a no-op.
func (h *HX711) SetPower(p Power) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if p == h.power {
		return nil
	}
	switch p {
	case PowerUp:
		err := h.c.Sclk.SetValue(0)
		if err != nil {
			return err
		}
		h.power = PowerUp
		h.startReader()
		return nil
	case PowerDown:
		h.stopReader()
		h.power = PowerDown
		return h.c.Sclk.SetValue(1)
	default:
		return ErrInvalidPower
	}
}

// SetGain sets the channel and gain for subsequent conversions.
//
// The selection rides on the trailing clock pulses of a read cycle and
// configures the conversion that follows, so it takes effect with one
// cycle of latency: the next sample delivered still reflects the
// previous gain, and the one after that reflects g.
func (h *HX711) SetGain(g Gain) error {
	if !g.Valid() {
		return ErrInvalidGain
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.gmu.Lock()
	h.gain = g
	h.gmu.Unlock()
	return nil
}

// Gain returns the channel and gain selection most recently set.
func (h *HX711) Gain() Gain {
	h.gmu.Lock()
	defer h.gmu.Unlock()
	return h.gain
}

// GetValue blocks until the next sample is produced, then returns it.
func (h *HX711) GetValue() (int32, error) {
	if err := h.readable(); err != nil {
		return 0, err
	}
	v, _, err := h.slot.next(-1)
	return v, err
}

// GetValueTimeout blocks until the next sample is produced, for at
// most timeout, then returns it.
//
// ok is false if the timeout expired first - that is not an error.
func (h *HX711) GetValueTimeout(timeout time.Duration) (v int32, ok bool, err error) {
	if err = h.readable(); err != nil {
		return
	}
	if timeout < 0 {
		timeout = 0
	}
	return h.slot.next(timeout)
}

// GetValueNoblock returns the undelivered sample held by the driver,
// if any. It never waits on the acquisition loop.
//
// ok is false if no sample is available - that is not an error.
func (h *HX711) GetValueNoblock() (v int32, ok bool, err error) {
	if err = h.readable(); err != nil {
		return
	}
	v, ok = h.slot.tryGet()
	return
}

// Close stops the acquisition loop, waits for any in flight read cycle
// to finish, and releases any lines requested by New.
//
// Calls after the first are no-ops, so a deferred Close gives scoped
// use of the driver by any exit path. Close does not alter the power
// state of the chip.
func (h *HX711) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.stopReader()
	h.slot.close()
	for _, l := range h.lines {
		l.Close()
	}
	h.lines = nil
	return nil
}

func (h *HX711) readable() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if h.power != PowerUp {
		return ErrPoweredDown
	}
	return nil
}

// startReader assumes h.mu is held.
func (h *HX711) startReader() {
	if h.running {
		return
	}
	h.running = true
	h.stop = make(chan struct{})
	h.drained = make(chan struct{})
	go h.run(h.stop, h.drained)
}

// stopReader stops the acquisition goroutine and waits for any in
// flight read cycle to finish, so the clock line is never left
// mid-pulse. Assumes h.mu is held.
func (h *HX711) stopReader() {
	if !h.running {
		return
	}
	h.running = false
	close(h.stop)
	<-h.drained
}
