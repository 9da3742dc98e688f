// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Daniel Robertson.

package hx711

import "time"

// Gain selects the input channel and amplifier gain applied to a
// conversion.
//
// The gain is selected by the number of clock pulses in a read cycle -
// the 24 data bits plus 1 to 3 trailing pulses - and configures the
// conversion that follows the cycle, not the one being read out.
type Gain int

const (
	// Gain128 selects channel A with a gain of 128.
	Gain128 Gain = iota

	// Gain64 selects channel A with a gain of 64.
	Gain64

	// Gain32 selects channel B with a gain of 32.
	Gain32
)

// Rate indicates the sample rate the chip is strapped for.
//
// The rate is set by the chip's RATE pin, not over the two wire
// interface, so the driver cannot change it - but it determines how
// long readings take to settle after power up or a gain change.
type Rate int

const (
	// Rate10 indicates 10 samples per second.
	Rate10 Rate = iota

	// Rate80 indicates 80 samples per second.
	Rate80
)

// Power indicates the power state of the chip.
type Power int

const (
	// PowerDown indicates the chip is powered down.
	PowerDown Power = iota

	// PowerUp indicates the chip is powered up.
	PowerUp
)

const (
	// MinValue is the lowest sample the chip can produce.
	MinValue int32 = -0x800000

	// MaxValue is the highest sample the chip can produce.
	MaxValue int32 = 0x7fffff

	// PowerDownHold is the minimum time the clock line must be held
	// high for the chip to enter power down, and so also the longest a
	// clock pulse may remain high before the chip powers down
	// unexpectedly mid-cycle.
	PowerDownHold = 60 * time.Microsecond

	// number of data bits clocked out per read cycle.
	readBits = 24
)

var (
	clockPulses = [...]int{Gain128: 25, Gain64: 27, Gain32: 26}
	channels    = [...]string{Gain128: "A", Gain64: "A", Gain32: "B"}
	gainNames   = [...]string{Gain128: "gain-128", Gain64: "gain-64", Gain32: "gain-32"}

	settleTimes = [...]time.Duration{Rate10: 400 * time.Millisecond, Rate80: 50 * time.Millisecond}
	samplesPerS = [...]int{Rate10: 10, Rate80: 80}
	rateNames   = [...]string{Rate10: "rate-10", Rate80: "rate-80"}

	powerNames = [...]string{PowerDown: "power-down", PowerUp: "power-up"}
)

// Valid reports whether g is a gain the chip supports.
func (g Gain) Valid() bool {
	return g >= Gain128 && g <= Gain32
}

// PulseCount returns the total clock pulses in a read cycle selecting
// gain g.
func (g Gain) PulseCount() int {
	return clockPulses[g]
}

// Channel returns the input channel gain g selects, "A" or "B".
func (g Gain) Channel() string {
	return channels[g]
}

func (g Gain) String() string {
	if !g.Valid() {
		return "unknown"
	}
	return gainNames[g]
}

// Valid reports whether r is a rate the chip supports.
func (r Rate) Valid() bool {
	return r >= Rate10 && r <= Rate80
}

// SettleTime returns the minimum time after power up or a gain change
// before readings at rate r are trustworthy.
func (r Rate) SettleTime() time.Duration {
	return settleTimes[r]
}

// SamplesPerSecond returns the nominal sample rate.
func (r Rate) SamplesPerSecond() int {
	return samplesPerS[r]
}

// Period returns the nominal time between conversions at rate r.
func (r Rate) Period() time.Duration {
	return time.Second / time.Duration(samplesPerS[r])
}

func (r Rate) String() string {
	if !r.Valid() {
		return "unknown"
	}
	return rateNames[r]
}

func (p Power) String() string {
	if p < PowerDown || p > PowerUp {
		return "unknown"
	}
	return powerNames[p]
}

// WaitSettle sleeps for the settling time of the given sample rate.
//
// Call after powering up, or after a gain change has taken effect,
// before relying on read values.
func WaitSettle(r Rate) {
	time.Sleep(r.SettleTime())
}

// WaitPowerDown sleeps for the minimum time the clock line must be
// held high before the chip is powered down.
func WaitPowerDown() {
	time.Sleep(PowerDownHold)
}

// DecodeSample converts a raw 24-bit conversion to a signed sample.
func DecodeSample(raw uint32) int32 {
	raw &= 0xffffff
	if raw&0x800000 != 0 {
		return int32(raw) - 0x1000000
	}
	return int32(raw)
}

// EncodeSample converts a signed sample back to its 24-bit wire form.
func EncodeSample(v int32) uint32 {
	return uint32(v) & 0xffffff
}

// IsValueValid reports whether v lies within the 24-bit sample range.
func IsValueValid(v int32) bool {
	return v >= MinValue && v <= MaxValue
}

// IsMinSaturated reports whether v is at the bottom of the sample
// range, as produced by an input below -0.5 AVdd or a faulty sensor.
func IsMinSaturated(v int32) bool {
	return v == MinValue
}

// IsMaxSaturated reports whether v is at the top of the sample range,
// as produced by an input above 0.5 AVdd or a faulty sensor.
func IsMaxSaturated(v int32) bool {
	return v == MaxValue
}
