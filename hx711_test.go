// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Daniel Robertson.

package hx711_test

import (
	"sync"
	"testing"
	"time"

	"github.com/endail/hx711"
	"github.com/endail/hx711/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSimHX711 returns a driver wired to a simulated chip converting at
// the given period.
//
// The sim power down threshold is raised so a preempted clock pulse
// cannot power the model down mid test.
func newSimHX711(t *testing.T, period time.Duration, options ...hx711.Option) (*sim.Chip, *hx711.HX711) {
	t.Helper()
	c := sim.New(sim.WithPeriod(period),
		sim.WithPowerDownThreshold(time.Minute))
	h, err := hx711.NewFromPins(c.Clock(), c.Data(), options...)
	require.Nil(t, err)
	require.NotNil(t, h)
	c.OnReady(h.Ready)
	t.Cleanup(func() {
		h.Close()
		c.Close()
	})
	return c, h
}

func TestNewFromPins(t *testing.T) {
	c := sim.New()
	defer c.Close()

	// success
	h, err := hx711.NewFromPins(c.Clock(), c.Data())
	assert.Nil(t, err)
	require.NotNil(t, h)
	assert.Equal(t, hx711.Gain128, h.Gain())
	assert.Nil(t, h.Close())

	// option
	h, err = hx711.NewFromPins(c.Clock(), c.Data(), hx711.WithGain(hx711.Gain32))
	assert.Nil(t, err)
	require.NotNil(t, h)
	assert.Equal(t, hx711.Gain32, h.Gain())
	assert.Nil(t, h.Close())

	// bad option
	h, err = hx711.NewFromPins(c.Clock(), c.Data(), hx711.WithGain(hx711.Gain(42)))
	assert.Equal(t, hx711.ErrInvalidGain, err)
	assert.Nil(t, h)
}

func TestGetValue(t *testing.T) {
	c, h := newSimHX711(t, 2*time.Millisecond)
	c.SetSample(hx711.Gain128, 12345)

	// powered down
	_, err := h.GetValue()
	assert.Equal(t, hx711.ErrPoweredDown, err)

	require.Nil(t, h.SetPower(hx711.PowerUp))
	v, err := h.GetValue()
	assert.Nil(t, err)
	assert.Equal(t, int32(12345), v)

	// a negative sample survives the wire
	c.SetSample(hx711.Gain128, hx711.MinValue)
	h.GetValue()
	v, err = h.GetValue()
	assert.Nil(t, err)
	assert.Equal(t, hx711.MinValue, v)
}

func TestGetValueTimeout(t *testing.T) {
	c, h := newSimHX711(t, 200*time.Millisecond)
	c.SetSample(hx711.Gain128, 54321)
	require.Nil(t, h.SetPower(hx711.PowerUp))

	// drain the first sample so the next is a full period away
	_, ok, err := h.GetValueTimeout(time.Second)
	require.Nil(t, err)
	require.True(t, ok)

	// expires before the next sample
	start := time.Now()
	_, ok, err = h.GetValueTimeout(5 * time.Millisecond)
	assert.Nil(t, err)
	assert.False(t, ok)
	assert.Less(t, int64(time.Since(start)), int64(150*time.Millisecond))

	// returns the sample when one arrives in time
	v, ok, err := h.GetValueTimeout(time.Second)
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(54321), v)

	// negative timeout is treated as zero, not forever
	start = time.Now()
	_, _, err = h.GetValueTimeout(-time.Second)
	assert.Nil(t, err)
	assert.Less(t, int64(time.Since(start)), int64(150*time.Millisecond))
}

func TestGetValueNoblock(t *testing.T) {
	c, h := newSimHX711(t, 400*time.Millisecond)
	c.SetSample(hx711.Gain128, 999)
	require.Nil(t, h.SetPower(hx711.PowerUp))

	// consume the first sample
	_, ok, err := h.GetValueTimeout(2 * time.Second)
	require.Nil(t, err)
	require.True(t, ok)

	// nothing unread - and never waits on the producer
	start := time.Now()
	_, ok, err = h.GetValueNoblock()
	assert.Nil(t, err)
	assert.False(t, ok)
	assert.Less(t, int64(time.Since(start)), int64(50*time.Millisecond))

	// an unread sample is returned immediately
	time.Sleep(600 * time.Millisecond)
	v, ok, err := h.GetValueNoblock()
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(999), v)
}

func TestSetGainLatency(t *testing.T) {
	c, h := newSimHX711(t, 20*time.Millisecond)
	c.SetSample(hx711.Gain128, 111)
	c.SetSample(hx711.Gain64, 222)

	assert.Equal(t, hx711.ErrInvalidGain, h.SetGain(hx711.Gain(9)))

	require.Nil(t, h.SetPower(hx711.PowerUp))
	v, err := h.GetValue()
	require.Nil(t, err)
	assert.Equal(t, int32(111), v)

	// the change rides on the next cycle's trailing pulses, so the
	// next delivered sample still reflects the old gain and the one
	// after reflects the new.
	require.Nil(t, h.SetGain(hx711.Gain64))
	v, err = h.GetValue()
	require.Nil(t, err)
	assert.Equal(t, int32(111), v)
	v, err = h.GetValue()
	require.Nil(t, err)
	assert.Equal(t, int32(222), v)
	v, err = h.GetValue()
	require.Nil(t, err)
	assert.Equal(t, int32(222), v)
	assert.Equal(t, hx711.Gain64, c.Gain())
}

func TestSetPower(t *testing.T) {
	c, h := newSimHX711(t, 10*time.Millisecond)
	c.SetSample(hx711.Gain128, 555)

	assert.Equal(t, hx711.ErrInvalidPower, h.SetPower(hx711.Power(3)))

	require.Nil(t, h.SetPower(hx711.PowerUp))
	// idempotent
	require.Nil(t, h.SetPower(hx711.PowerUp))
	v, err := h.GetValue()
	assert.Nil(t, err)
	assert.Equal(t, int32(555), v)

	require.Nil(t, h.SetPower(hx711.PowerDown))
	require.Nil(t, h.SetPower(hx711.PowerDown))
	_, err = h.GetValue()
	assert.Equal(t, hx711.ErrPoweredDown, err)
	_, _, err = h.GetValueTimeout(time.Millisecond)
	assert.Equal(t, hx711.ErrPoweredDown, err)
	_, _, err = h.GetValueNoblock()
	assert.Equal(t, hx711.ErrPoweredDown, err)

	// power cycle in the documented order, then reads work again
	hx711.WaitPowerDown()
	require.Nil(t, h.SetPower(hx711.PowerUp))
	hx711.WaitSettle(hx711.Rate80)
	v, err = h.GetValue()
	assert.Nil(t, err)
	assert.Equal(t, int32(555), v)
}

func TestClose(t *testing.T) {
	c, h := newSimHX711(t, 5*time.Millisecond)
	c.SetSample(hx711.Gain128, 1)
	require.Nil(t, h.SetPower(hx711.PowerUp))
	_, err := h.GetValue()
	require.Nil(t, err)

	assert.Nil(t, h.Close())
	// no-op the second time
	assert.Nil(t, h.Close())

	_, err = h.GetValue()
	assert.Equal(t, hx711.ErrClosed, err)
	_, _, err = h.GetValueTimeout(time.Millisecond)
	assert.Equal(t, hx711.ErrClosed, err)
	_, _, err = h.GetValueNoblock()
	assert.Equal(t, hx711.ErrClosed, err)
	assert.Equal(t, hx711.ErrClosed, h.SetGain(hx711.Gain64))
	assert.Equal(t, hx711.ErrClosed, h.SetPower(hx711.PowerDown))
}

func TestCloseWakesBlockedReaders(t *testing.T) {
	// no conversion will complete within the test
	_, h := newSimHX711(t, time.Hour)
	require.Nil(t, h.SetPower(hx711.PowerUp))

	done := make(chan error)
	go func() {
		_, err := h.GetValue()
		done <- err
	}()
	time.Sleep(50 * time.Millisecond)
	assert.Nil(t, h.Close())
	select {
	case err := <-done:
		assert.Equal(t, hx711.ErrClosed, err)
	case <-time.After(time.Second):
		t.Fatal("GetValue still blocked after Close")
	}
}

func TestConcurrentConsumers(t *testing.T) {
	c, h := newSimHX711(t, 50*time.Millisecond)
	c.SetSample(hx711.Gain128, 100)
	// ramp so successive samples are distinguishable
	c.SetStep(1)
	require.Nil(t, h.SetPower(hx711.PowerUp))
	_, err := h.GetValue()
	require.Nil(t, err)

	// both consumers receive the same next produced sample, not two
	// different ones.
	var wg sync.WaitGroup
	vv := make([]int32, 2)
	ee := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vv[i], ee[i] = h.GetValue()
		}(i)
	}
	wg.Wait()
	assert.Nil(t, ee[0])
	assert.Nil(t, ee[1])
	assert.Equal(t, vv[0], vv[1])
}

func TestLevelPollRecovery(t *testing.T) {
	// no ready notifications wired at all - the acquisition loop must
	// fall back to checking the line level at the not-ready bound.
	c := sim.New(sim.WithPeriod(5*time.Millisecond),
		sim.WithPowerDownThreshold(time.Minute))
	defer c.Close()
	c.SetSample(hx711.Gain128, 777)
	h, err := hx711.NewFromPins(c.Clock(), c.Data(),
		hx711.WithNotReadyTimeout(2*time.Millisecond))
	require.Nil(t, err)
	defer h.Close()

	require.Nil(t, h.SetPower(hx711.PowerUp))
	v, ok, err := h.GetValueTimeout(time.Second)
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(777), v)
}

func TestWithTclk(t *testing.T) {
	c := sim.New(sim.WithPeriod(5*time.Millisecond),
		sim.WithPowerDownThreshold(time.Minute))
	defer c.Close()
	c.SetSample(hx711.Gain128, 4242)
	h, err := hx711.NewFromPins(c.Clock(), c.Data(),
		hx711.WithTclk(2*time.Microsecond))
	require.Nil(t, err)
	defer h.Close()
	c.OnReady(h.Ready)

	require.Nil(t, h.SetPower(hx711.PowerUp))
	v, err := h.GetValue()
	assert.Nil(t, err)
	assert.Equal(t, int32(4242), v)
}
