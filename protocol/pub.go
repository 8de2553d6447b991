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
	"sync/atomic"
	"time"

	"github.com/nabbar/spsock/buffer"
	"github.com/nabbar/spsock/errkind"
)

// PUB is the stateless broadcaster half of PUB/SUB. Send clones the
// message once per currently-connected peer and enqueues non-
// blockingly; a peer whose outbound queue is full drops that one copy
// (the slow-subscriber rule) rather than slowing down the rest.
type PUB struct {
	router *Router
	closed atomic.Bool
	done   chan struct{}
}

// NewPUB returns a PUB engine.
func NewPUB(router *Router) *PUB {
	return &PUB{router: router, done: make(chan struct{})}
}

// Send broadcasts payload to every connected peer.
func (e *PUB) Send(payload []byte) error {
	if e.closed.Load() {
		return errkind.New(errkind.KindClosed, "pub.Send")
	}
	for _, p := range e.router.Connected() {
		c, ok := e.router.ConnectionFor(p)
		if !ok {
			continue
		}
		msg := e.router.NewMessage(payload, p.Addr, p.ID)
		select {
		case c.Outbound <- msg:
		default:
			msg.Release()
		}
	}
	return nil
}

// Recv fails-with ErrNotSupported: PUB is send-only.
func (e *PUB) Recv(time.Time) ([]byte, error) {
	return nil, errkind.New(errkind.KindNotSupported, "pub.Recv")
}

// Dispatch discards inbound traffic; PUB never reads.
func (e *PUB) Dispatch(msg *buffer.Message) { msg.Release() }

// Close marks the engine closed.
func (e *PUB) Close() { e.closed.CompareAndSwap(false, true) }
