// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Daniel Robertson.

package hx711

import "time"

// run is the acquisition loop. While it is running it is the only
// goroutine driving the connection.
//
// Each falling edge on Dout marks a conversion ready to be clocked
// out. Edge notifications are coalesced, and one can be missed
// entirely while a cycle is in flight, so when none arrives within the
// not-ready bound the line level is checked directly.
//
// A cycle that fails is discarded and the loop resynchronises on the
// next data ready edge.
func (h *HX711) run(stop, drained chan struct{}) {
	defer close(drained)
	for {
		select {
		case <-stop:
			return
		case <-h.ready:
		case <-time.After(h.notReadyTimeout):
		}
		h.gmu.Lock()
		g := h.gain
		h.gmu.Unlock()
		v, err := h.c.ReadCycle(g)
		if err != nil {
			continue
		}
		h.slot.put(v)
	}
}
