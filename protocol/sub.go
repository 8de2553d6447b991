/*
 * MIT License
 *
 * Copyright (c) 2026 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package protocol

import (
	"bytes"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nabbar/spsock/buffer"
	"github.com/nabbar/spsock/errkind"
)

// DefaultFilteredQueueSize bounds a SUB engine's filtered queue when
// the socket does not configure one explicitly.
const DefaultFilteredQueueSize = 64

// SUB is the subscriber half of PUB/SUB. It holds a set of byte-prefix
// subscriptions; the empty prefix matches everything. Matching
// payloads are copied into a bounded filtered queue that Recv drains;
// the drop policy applies uniformly to that one queue, not per
// subscription, since every subscription shares the same downstream
// Recv.
type SUB struct {
	mu       sync.RWMutex
	prefixes [][]byte

	filtered   chan []byte
	dropOldest bool

	closed atomic.Bool
	done   chan struct{}
}

// NewSUB returns a SUB engine. queueSize of 0 selects
// DefaultFilteredQueueSize. dropOldest selects the sub-drop-oldest
// policy; false rejects the newly arriving message instead.
func NewSUB(queueSize int, dropOldest bool) *SUB {
	if queueSize <= 0 {
		queueSize = DefaultFilteredQueueSize
	}
	return &SUB{
		filtered:   make(chan []byte, queueSize),
		dropOldest: dropOldest,
		done:       make(chan struct{}),
	}
}

// Subscribe adds prefix to the subscription set. Duplicate prefixes
// are silent no-ops.
func (e *SUB) Subscribe(prefix []byte) {
	cp := append([]byte(nil), prefix...)

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.prefixes {
		if bytes.Equal(existing, cp) {
			return
		}
	}
	e.prefixes = append(e.prefixes, cp)
}

// Unsubscribe removes prefix from the subscription set, failing-with
// ErrNotFound if it was never registered.
func (e *SUB) Unsubscribe(prefix []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, existing := range e.prefixes {
		if bytes.Equal(existing, prefix) {
			e.prefixes = append(e.prefixes[:i], e.prefixes[i+1:]...)
			return nil
		}
	}
	return errkind.New(errkind.KindNotFound, "sub.Unsubscribe")
}

func (e *SUB) matches(payload []byte) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, p := range e.prefixes {
		if len(p) == 0 || bytes.HasPrefix(payload, p) {
			return true
		}
	}
	return false
}

// Dispatch tests the inbound payload against every subscribed prefix;
// non-matching messages are released immediately. A matching message
// that finds the filtered queue full is handled per the configured
// drop policy.
func (e *SUB) Dispatch(msg *buffer.Message) {
	defer msg.Release()
	if !e.matches(msg.Payload) {
		return
	}
	payload := append([]byte(nil), msg.Payload...)

	select {
	case e.filtered <- payload:
		return
	default:
	}

	if !e.dropOldest {
		return
	}
	select {
	case <-e.filtered:
	default:
	}
	select {
	case e.filtered <- payload:
	default:
	}
}

// Recv returns the next filtered payload.
func (e *SUB) Recv(deadline time.Time) ([]byte, error) {
	var timeout <-chan time.Time
	if !deadline.IsZero() {
		t := time.NewTimer(time.Until(deadline))
		defer t.Stop()
		timeout = t.C
	}

	select {
	case payload := <-e.filtered:
		return payload, nil
	case <-timeout:
		return nil, errkind.New(errkind.KindTimeout, "sub.Recv")
	case <-e.done:
		return nil, errkind.New(errkind.KindClosed, "sub.Recv")
	}
}

// Send fails-with ErrNotSupported: SUB is recv-only.
func (e *SUB) Send([]byte) error {
	return errkind.New(errkind.KindNotSupported, "sub.Send")
}

// Close releases waiters in Recv with ErrClosed.
func (e *SUB) Close() {
	if e.closed.CompareAndSwap(false, true) {
		close(e.done)
	}
}
