// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Daniel Robertson.

// Package sim provides an in-process software model of the HX711.
//
// This is intended for testing the hx711 driver, but can also be used
// to develop against the driver API without the hardware attached.
//
// The model follows the digital behaviour of the chip: conversions
// become ready at the configured period and drive the data line low,
// data bits are shifted out MSB first on clock pulses, the total pulse
// count of a read cycle selects the channel and gain for the following
// conversion, and holding the clock line high beyond the power down
// threshold powers the chip down and resets it to channel A gain 128.
package sim

import (
	"errors"
	"sync"
	"time"

	"github.com/endail/hx711"
)

const readBits = 24

// a read cycle is only treated as complete once the clock has been
// quiet this long, so a tick cannot land between trailing pulses and
// commit a short pulse count.
const quietTime = 500 * time.Microsecond

type state int

const (
	// powered down, or powered up with no conversion latched.
	stateIdle state = iota

	// conversion latched, data line low, no pulses seen yet.
	stateReady

	// clocking out the latched conversion.
	stateReading
)

// Chip models a single HX711.
type Chip struct {
	mu        sync.Mutex
	period    time.Duration
	threshold time.Duration

	// conversion results produced per committed gain.
	values map[hx711.Gain]int32
	// added to the gain's value after each conversion.
	step int32

	gain    hx711.Gain
	powered bool
	state   state
	raw     uint32
	pulses  int

	clk       int
	clkHighAt time.Time
	lastEdge  time.Time
	dout      int

	notify func()

	stop chan struct{}
	done chan struct{}
}

// Option specifies a construction option for the Chip.
type Option func(*Chip)

// WithPeriod sets the time between conversions.
//
// The default is 100ms, matching a chip strapped for 10 samples per
// second. Tests use far shorter periods.
func WithPeriod(period time.Duration) Option {
	return func(c *Chip) {
		c.period = period
	}
}

// WithPowerDownThreshold sets how long the clock line must be held
// high to power the chip down.
//
// The default matches the chip's 60µs. Tests raise it so a preempted
// clock pulse cannot power the model down.
func WithPowerDownThreshold(threshold time.Duration) Option {
	return func(c *Chip) {
		c.threshold = threshold
	}
}

// New creates a Chip and starts its conversion timer.
func New(options ...Option) *Chip {
	c := Chip{
		period:    100 * time.Millisecond,
		threshold: hx711.PowerDownHold,
		values:    map[hx711.Gain]int32{},
		gain:      hx711.Gain128,
		clk:       1,
		clkHighAt: time.Now(),
		dout:      1,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, option := range options {
		option(&c)
	}
	go c.convert()
	return &c
}

// Close stops the conversion timer. Idempotent.
func (c *Chip) Close() {
	c.mu.Lock()
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
	c.mu.Unlock()
	<-c.done
}

// Clock returns the pin connected to the chip's PD_SCK.
func (c *Chip) Clock() hx711.Pin {
	return &clockPin{c}
}

// Data returns the pin connected to the chip's DOUT.
func (c *Chip) Data() hx711.Pin {
	return &dataPin{c}
}

// OnReady sets the callback invoked each time a conversion becomes
// ready and the data line falls. It plays the role of a falling edge
// interrupt registration.
func (c *Chip) OnReady(notify func()) {
	c.mu.Lock()
	c.notify = notify
	c.mu.Unlock()
}

// SetSample sets the conversion result produced while gain g is
// committed.
func (c *Chip) SetSample(g hx711.Gain, v int32) {
	c.mu.Lock()
	c.values[g] = v
	c.mu.Unlock()
}

// SetStep makes conversion results ramp, adding step to the committed
// gain's value after each conversion, so successive samples are
// distinguishable.
func (c *Chip) SetStep(step int32) {
	c.mu.Lock()
	c.step = step
	c.mu.Unlock()
}

// Gain returns the committed channel and gain selection.
func (c *Chip) Gain() hx711.Gain {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gain
}

// Powered reports whether the model is powered up.
func (c *Chip) Powered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkPowerDown()
	return c.powered
}

func (c *Chip) convert() {
	defer close(c.done)
	t := time.NewTicker(c.period)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
		}
		if notify := c.tick(); notify != nil {
			notify()
		}
	}
}

// tick latches a conversion if one is due, returning the ready
// callback to invoke.
func (c *Chip) tick() func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkPowerDown()
	if !c.powered {
		return nil
	}
	midCycle := c.state == stateReading &&
		(c.pulses <= readBits || c.clk != 0 || time.Since(c.lastEdge) < quietTime)
	if c.state == stateReady || midCycle {
		// previous conversion not clocked out - it is lost.
		if c.state == stateReady {
			c.latch()
			return c.notify
		}
		return nil
	}
	if g, ok := pulsesToGain(c.pulses); ok {
		c.gain = g
	}
	c.latch()
	return c.notify
}

// latch makes the next conversion available. Assumes c.mu is held.
func (c *Chip) latch() {
	c.raw = hx711.EncodeSample(c.values[c.gain])
	c.values[c.gain] += c.step
	c.pulses = 0
	c.state = stateReady
	c.dout = 0
}

// checkPowerDown powers the model down if the clock line has been held
// high beyond the threshold. Assumes c.mu is held.
func (c *Chip) checkPowerDown() {
	if c.powered && c.clk != 0 && time.Since(c.clkHighAt) >= c.threshold {
		c.powerDown()
	}
}

// Assumes c.mu is held.
func (c *Chip) powerDown() {
	c.powered = false
	c.gain = hx711.Gain128
	c.state = stateIdle
	c.pulses = 0
	c.dout = 1
}

// Assumes c.mu is held.
func (c *Chip) powerUp() {
	c.powered = true
	c.gain = hx711.Gain128
	c.state = stateIdle
	c.pulses = 0
	c.dout = 1
}

// rising handles a rising clock edge. Assumes c.mu is held.
func (c *Chip) rising() {
	if !c.powered {
		return
	}
	switch c.state {
	case stateReady:
		c.state = stateReading
		fallthrough
	case stateReading:
		c.pulses++
		if c.pulses <= readBits {
			c.dout = int(c.raw>>(readBits-c.pulses)) & 1
		} else {
			c.dout = 1
		}
	}
}

// falling handles a falling clock edge. Assumes c.mu is held.
func (c *Chip) falling() {
	held := time.Since(c.clkHighAt)
	if !c.powered || held >= c.threshold {
		// returning the clock low powers the chip (back) up, reset to
		// its defaults. Any cycle in flight is void.
		c.powerUp()
	}
}

func pulsesToGain(pulses int) (hx711.Gain, bool) {
	switch pulses {
	case hx711.Gain128.PulseCount():
		return hx711.Gain128, true
	case hx711.Gain64.PulseCount():
		return hx711.Gain64, true
	case hx711.Gain32.PulseCount():
		return hx711.Gain32, true
	}
	return 0, false
}

var errNotOutput = errors.New("not an output")

type clockPin struct {
	c *Chip
}

func (p *clockPin) Value() (int, error) {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	return p.c.clk, nil
}

func (p *clockPin) SetValue(v int) error {
	c := p.c
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case v != 0 && c.clk == 0:
		c.clkHighAt = time.Now()
		c.lastEdge = c.clkHighAt
		c.clk = 1
		c.rising()
	case v == 0 && c.clk != 0:
		c.lastEdge = time.Now()
		c.clk = 0
		c.falling()
	}
	return nil
}

type dataPin struct {
	c *Chip
}

func (p *dataPin) Value() (int, error) {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	if !p.c.powered {
		return 1, nil
	}
	return p.c.dout, nil
}

func (p *dataPin) SetValue(int) error {
	return errNotOutput
}
