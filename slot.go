// SPDX-License-Identifier: MIT
//
// Copyright © 2023 Daniel Robertson.

package hx711

import (
	"sync"
	"time"
)

// slot is the sample buffer shared between the acquisition goroutine
// and any number of readers.
//
// It holds at most one undelivered sample - never a queue. An unread
// sample is silently replaced by the next one produced.
type slot struct {
	mu  sync.Mutex
	val int32
	seq uint64
	// set when val has not been delivered to any reader.
	fresh bool
	// closed and replaced each time the sequence number advances, so a
	// single publish wakes all waiting readers.
	arrival chan struct{}
	// closed once, when the driver closes, waking readers with ErrClosed.
	done chan struct{}
}

func newSlot() *slot {
	return &slot{
		arrival: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// put publishes a sample, overwriting any unread predecessor, and
// wakes all waiting readers.
func (s *slot) put(v int32) {
	s.mu.Lock()
	s.val = v
	s.seq++
	s.fresh = true
	close(s.arrival)
	s.arrival = make(chan struct{})
	s.mu.Unlock()
}

// tryGet returns the held sample if it has not been delivered.
func (s *slot) tryGet() (int32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fresh {
		return 0, false
	}
	s.fresh = false
	return s.val, true
}

// next blocks until a sample is produced after the call, then returns
// it. A non-negative timeout bounds the wait; a negative timeout waits
// indefinitely. Returns ok false if the wait expired, or ErrClosed if
// the slot was closed.
func (s *slot) next(timeout time.Duration) (int32, bool, error) {
	s.mu.Lock()
	arrival := s.arrival
	s.mu.Unlock()
	var expired <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	select {
	case <-s.done:
		return 0, false, ErrClosed
	case <-expired:
		return 0, false, nil
	case <-arrival:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fresh = false
	return s.val, true, nil
}

// close wakes all waiting readers with ErrClosed. Idempotent.
func (s *slot) close() {
	s.mu.Lock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.mu.Unlock()
}
