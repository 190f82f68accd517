// Package channels holds send helpers for producers that must not block,
// such as audio callbacks running on a driver thread.
package channels

import (
	"errors"
	"time"
)

var (
	ErrChannelClosed  = errors.New("channel closed")
	ErrChannelTimeout = errors.New("send timeout")
)

// SendWithTimeout sends msg on ch, giving up after timeout. Sending on a
// closed channel returns ErrChannelClosed instead of panicking.
func SendWithTimeout[T any](ch chan<- T, msg T, timeout time.Duration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrChannelClosed
		}
	}()

	// fast path: no timer when there is room
	select {
	case ch <- msg:
		return nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- msg:
		return nil
	case <-timer.C:
		return ErrChannelTimeout
	}
}
