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

// DefaultInboxSize bounds a PULL or BUS engine's internal inbound
// queue when the socket does not configure one explicitly.
const DefaultInboxSize = 64

// PULL is the collecting half of PUSH/PULL. Each inbound message is
// delivered to exactly one Recv call.
type PULL struct {
	inbox  chan *buffer.Message
	closed atomic.Bool
	done   chan struct{}
}

// NewPULL returns a PULL engine. queueSize of 0 selects
// DefaultInboxSize.
func NewPULL(queueSize int) *PULL {
	if queueSize <= 0 {
		queueSize = DefaultInboxSize
	}
	return &PULL{inbox: make(chan *buffer.Message, queueSize), done: make(chan struct{})}
}

// Dispatch enqueues one inbound message, blocking if the inbox is
// full so back-pressure propagates to the connection's receiver task.
func (e *PULL) Dispatch(msg *buffer.Message) {
	select {
	case e.inbox <- msg:
	case <-e.done:
		msg.Release()
	}
}

// Recv returns the next inbound message's payload.
func (e *PULL) Recv(deadline time.Time) ([]byte, error) {
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
		return nil, errkind.New(errkind.KindTimeout, "pull.Recv")
	case <-e.done:
		return nil, errkind.New(errkind.KindClosed, "pull.Recv")
	}
}

// Send fails-with ErrNotSupported: PULL is recv-only.
func (e *PULL) Send([]byte) error {
	return errkind.New(errkind.KindNotSupported, "pull.Send")
}

// Close releases waiters in Recv with ErrClosed.
func (e *PULL) Close() {
	if e.closed.CompareAndSwap(false, true) {
		close(e.done)
	}
}
