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
	"sync"
	"sync/atomic"
	"time"

	"github.com/nabbar/spsock/buffer"
	"github.com/nabbar/spsock/errkind"
)

// pollInterval is how often Send re-scans for a ready peer while
// blocked on a full fan-out.
const pollInterval = 5 * time.Millisecond

// PUSH is the distributing half of PUSH/PULL. Send round-robins over
// Connected peers, advancing its cursor only past a peer it actually
// enqueued to, so fairness survives some peers being temporarily full.
type PUSH struct {
	router *Router

	mu  sync.Mutex
	idx int

	closed atomic.Bool
	done   chan struct{}
}

// NewPUSH returns a PUSH engine.
func NewPUSH(router *Router) *PUSH {
	return &PUSH{router: router, done: make(chan struct{})}
}

// Send blocks until some Connected peer accepts payload, the deadline
// elapses (ErrTimeout), or the socket closes (ErrClosed). A zero
// deadline blocks indefinitely.
func (e *PUSH) Send(payload []byte, deadline time.Time) error {
	var timeout <-chan time.Time
	if !deadline.IsZero() {
		t := time.NewTimer(time.Until(deadline))
		defer t.Stop()
		timeout = t.C
	}

	for {
		if e.tryOnce(payload) {
			return nil
		}

		select {
		case <-timeout:
			return errkind.New(errkind.KindTimeout, "push.Send")
		case <-e.done:
			return errkind.New(errkind.KindClosed, "push.Send")
		case <-time.After(pollInterval):
		}
	}
}

func (e *PUSH) tryOnce(payload []byte) bool {
	peers := e.router.Connected()
	n := len(peers)
	if n == 0 {
		return false
	}

	e.mu.Lock()
	start := e.idx % n
	e.mu.Unlock()

	for i := 0; i < n; i++ {
		j := (start + i) % n
		p := peers[j]
		c, ok := e.router.ConnectionFor(p)
		if !ok {
			continue
		}

		msg := e.router.NewMessage(payload, p.Addr, p.ID)
		select {
		case c.Outbound <- msg:
			e.mu.Lock()
			e.idx = j + 1
			e.mu.Unlock()
			return true
		default:
			msg.Release()
		}
	}
	return false
}

// Recv fails-with ErrNotSupported: PUSH is send-only.
func (e *PUSH) Recv(time.Time) ([]byte, error) {
	return nil, errkind.New(errkind.KindNotSupported, "push.Recv")
}

// Dispatch discards inbound traffic; PUSH never reads.
func (e *PUSH) Dispatch(msg *buffer.Message) { msg.Release() }

// Close marks the engine closed, unblocking any Send loop.
func (e *PUSH) Close() {
	if e.closed.CompareAndSwap(false, true) {
		close(e.done)
	}
}
