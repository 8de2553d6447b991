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

// PAIR is at-most-one-peer. Refusing a second connection attempt is
// the socket facade's job at the listener/accept-task level (no Peer
// or Connection entry is ever created for it); PAIR itself only tracks
// whether its one slot is currently occupied.
type PAIR struct {
	router *Router

	mu      sync.Mutex
	peerID  uint32
	hasPeer bool

	inbox  chan *buffer.Message
	closed atomic.Bool
	done   chan struct{}
}

// NewPAIR returns a PAIR engine. queueSize of 0 selects
// DefaultInboxSize.
func NewPAIR(router *Router, queueSize int) *PAIR {
	if queueSize <= 0 {
		queueSize = DefaultInboxSize
	}
	return &PAIR{router: router, inbox: make(chan *buffer.Message, queueSize), done: make(chan struct{})}
}

// Bind records id as the slot's sole occupant. The socket facade calls
// Bind once a connection is accepted or dialed.
func (e *PAIR) Bind(id uint32) {
	e.mu.Lock()
	e.peerID = id
	e.hasPeer = true
	e.mu.Unlock()
}

// Unbind empties the slot if id is its current occupant, allowing a
// new peer to connect.
func (e *PAIR) Unbind(id uint32) {
	e.mu.Lock()
	if e.hasPeer && e.peerID == id {
		e.hasPeer = false
	}
	e.mu.Unlock()
}

// HasPeer reports whether the slot is currently occupied.
func (e *PAIR) HasPeer() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasPeer
}

// Send fails-with ErrNotConnected if the slot is empty; otherwise it
// enqueues to the peer's outbound queue.
func (e *PAIR) Send(payload []byte) error {
	e.mu.Lock()
	if !e.hasPeer {
		e.mu.Unlock()
		return errkind.New(errkind.KindNotConnected, "pair.Send")
	}
	id := e.peerID
	e.mu.Unlock()

	p, ok := e.router.Peers.Get(id)
	if !ok {
		return errkind.New(errkind.KindNotConnected, "pair.Send")
	}
	c, ok := e.router.ConnectionFor(p)
	if !ok {
		return errkind.New(errkind.KindNotConnected, "pair.Send")
	}

	msg := e.router.NewMessage(payload, p.Addr, p.ID)
	select {
	case c.Outbound <- msg:
		return nil
	case <-e.done:
		msg.Release()
		return errkind.New(errkind.KindClosed, "pair.Send")
	}
}

// Dispatch enqueues one inbound message for Recv.
func (e *PAIR) Dispatch(msg *buffer.Message) {
	select {
	case e.inbox <- msg:
	case <-e.done:
		msg.Release()
	}
}

// Recv returns the next inbound payload, or fails-with ErrNotConnected
// immediately if the slot is empty and nothing is already queued.
func (e *PAIR) Recv(deadline time.Time) ([]byte, error) {
	select {
	case msg := <-e.inbox:
		defer msg.Release()
		return append([]byte(nil), msg.Payload...), nil
	default:
	}

	if !e.HasPeer() {
		return nil, errkind.New(errkind.KindNotConnected, "pair.Recv")
	}

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
		return nil, errkind.New(errkind.KindTimeout, "pair.Recv")
	case <-e.done:
		return nil, errkind.New(errkind.KindClosed, "pair.Recv")
	}
}

// Close releases waiters in Recv with ErrClosed.
func (e *PAIR) Close() {
	if e.closed.CompareAndSwap(false, true) {
		close(e.done)
	}
}
