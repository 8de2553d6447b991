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

// BUS is symmetric and stateless: Send clones the message to every
// connected peer except the sender itself, which is structural since
// the outbound path only ever targets peers, never loops back to the
// local socket.
type BUS struct {
	router *Router
	inbox  chan *buffer.Message
	closed atomic.Bool
	done   chan struct{}
}

// NewBUS returns a BUS engine. queueSize of 0 selects
// DefaultInboxSize.
func NewBUS(router *Router, queueSize int) *BUS {
	if queueSize <= 0 {
		queueSize = DefaultInboxSize
	}
	return &BUS{router: router, inbox: make(chan *buffer.Message, queueSize), done: make(chan struct{})}
}

// Send clones payload to every connected peer, best-effort: a peer
// whose outbound queue is full drops just that one copy.
func (e *BUS) Send(payload []byte) error {
	if e.closed.Load() {
		return errkind.New(errkind.KindClosed, "bus.Send")
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

// Dispatch enqueues one inbound message for Recv.
func (e *BUS) Dispatch(msg *buffer.Message) {
	select {
	case e.inbox <- msg:
	case <-e.done:
		msg.Release()
	}
}

// Recv returns the next message from any peer.
func (e *BUS) Recv(deadline time.Time) ([]byte, error) {
	var timeout <-chan time.Time
	if !deadline.IsZero() {
		t := time.NewTimer(time.Until(deadline))
		defer t.Stop()
		timeout = t.C
	}

	select {
	case msg := <-e.inbox:
		defer msg.Release()
		return append([]byte(nil), msg.Payload...), nil
	case <-timeout:
		return nil, errkind.New(errkind.KindTimeout, "bus.Recv")
	case <-e.done:
		return nil, errkind.New(errkind.KindClosed, "bus.Recv")
	}
}

// Close releases waiters in Recv with ErrClosed.
func (e *BUS) Close() {
	if e.closed.CompareAndSwap(false, true) {
		close(e.done)
	}
}
