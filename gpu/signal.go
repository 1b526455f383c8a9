// SPDX-License-Identifier: EPL-2.0

package gpu

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

var errSignalAbandoned = errors.New("map signal abandoned")

// MapSignal carries the pass/fail result of one asynchronous map.
type MapSignal struct {
	once sync.Once
	done chan error
}

func NewMapSignal() *MapSignal {
	return &MapSignal{done: make(chan error, 1)}
}

// Complete records the result. Only the first call counts.
func (s *MapSignal) Complete(err error) {
	s.once.Do(func() {
		s.done <- err
		close(s.done)
	})
}

// Abandon fails the signal, as when a buffer is released mid-map.
func (s *MapSignal) Abandon() {
	s.Complete(errSignalAbandoned)
}

// Done is closed once a result is available.
func (s *MapSignal) Done() <-chan error { return s.done }

// Wait blocks until the signal fires, invoking drive between checks so the
// device can make progress. A nil drive only waits. Context expiry returns
// ctx.Err() and leaves the map pending.
func (s *MapSignal) Wait(ctx context.Context, drive func() bool) error {
	for {
		select {
		case err, ok := <-s.done:
			if !ok {
				// Someone else already consumed the result.
				return errSignalAbandoned
			}
			return err
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if drive == nil {
			select {
			case err, ok := <-s.done:
				if !ok {
					return errSignalAbandoned
				}
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if idle := drive(); idle {
			runtime.Gosched()
		}
	}
}

// MapRead starts a map-for-read on b and returns its signal.
func MapRead(b Buffer) *MapSignal {
	sig := NewMapSignal()
	b.MapReadAsync(sig.Complete)

	return sig
}
