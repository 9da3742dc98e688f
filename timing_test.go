// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Daniel Robertson.

package hx711_test

import (
	"testing"
	"time"

	"github.com/endail/hx711"
	"github.com/stretchr/testify/assert"
)

func TestDecodeSample(t *testing.T) {
	patterns := []struct {
		name string
		raw  uint32
		v    int32
	}{
		{"zero", 0x000000, 0},
		{"one", 0x000001, 1},
		{"max", 0x7fffff, 8388607},
		{"min", 0x800000, -8388608},
		{"minus-one", 0xffffff, -1},
		{"minus-two", 0xfffffe, -2},
		{"high-bits-ignored", 0xff000001, 1},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			assert.Equal(t, p.v, hx711.DecodeSample(p.raw))
		}
		t.Run(p.name, tf)
	}
}

func TestSampleRoundTrip(t *testing.T) {
	// boundary patterns
	for _, raw := range []uint32{0x000000, 0x000001, 0x7ffffe, 0x7fffff, 0x800000, 0x800001, 0xfffffe, 0xffffff} {
		assert.Equal(t, raw, hx711.EncodeSample(hx711.DecodeSample(raw)))
	}
	// a sweep across the range
	for raw := uint32(0); raw <= 0xffffff; raw += 4099 {
		v := hx711.DecodeSample(raw)
		assert.Equal(t, raw, hx711.EncodeSample(v))
		assert.True(t, hx711.IsValueValid(v))
	}
}

func TestGain(t *testing.T) {
	assert.Equal(t, 25, hx711.Gain128.PulseCount())
	assert.Equal(t, 27, hx711.Gain64.PulseCount())
	assert.Equal(t, 26, hx711.Gain32.PulseCount())

	assert.Equal(t, "A", hx711.Gain128.Channel())
	assert.Equal(t, "A", hx711.Gain64.Channel())
	assert.Equal(t, "B", hx711.Gain32.Channel())

	assert.True(t, hx711.Gain128.Valid())
	assert.True(t, hx711.Gain64.Valid())
	assert.True(t, hx711.Gain32.Valid())
	assert.False(t, hx711.Gain(-1).Valid())
	assert.False(t, hx711.Gain(3).Valid())

	assert.Equal(t, "gain-128", hx711.Gain128.String())
	assert.Equal(t, "unknown", hx711.Gain(3).String())
}

func TestRate(t *testing.T) {
	assert.Equal(t, 400*time.Millisecond, hx711.Rate10.SettleTime())
	assert.Equal(t, 50*time.Millisecond, hx711.Rate80.SettleTime())

	assert.Equal(t, 10, hx711.Rate10.SamplesPerSecond())
	assert.Equal(t, 80, hx711.Rate80.SamplesPerSecond())

	assert.Equal(t, 100*time.Millisecond, hx711.Rate10.Period())
	assert.Equal(t, 12500*time.Microsecond, hx711.Rate80.Period())

	assert.True(t, hx711.Rate10.Valid())
	assert.True(t, hx711.Rate80.Valid())
	assert.False(t, hx711.Rate(2).Valid())

	assert.Equal(t, "rate-80", hx711.Rate80.String())
}

func TestPowerString(t *testing.T) {
	assert.Equal(t, "power-up", hx711.PowerUp.String())
	assert.Equal(t, "power-down", hx711.PowerDown.String())
	assert.Equal(t, "unknown", hx711.Power(2).String())
}

func TestSaturation(t *testing.T) {
	assert.True(t, hx711.IsMinSaturated(hx711.MinValue))
	assert.False(t, hx711.IsMinSaturated(hx711.MinValue+1))
	assert.True(t, hx711.IsMaxSaturated(hx711.MaxValue))
	assert.False(t, hx711.IsMaxSaturated(hx711.MaxValue-1))

	assert.True(t, hx711.IsValueValid(0))
	assert.True(t, hx711.IsValueValid(hx711.MinValue))
	assert.True(t, hx711.IsValueValid(hx711.MaxValue))
	assert.False(t, hx711.IsValueValid(hx711.MaxValue+1))
	assert.False(t, hx711.IsValueValid(hx711.MinValue-1))
}

func TestWaitPowerDown(t *testing.T) {
	start := time.Now()
	hx711.WaitPowerDown()
	assert.GreaterOrEqual(t, int64(time.Since(start)), int64(hx711.PowerDownHold))
}
