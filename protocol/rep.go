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
	"github.com/nabbar/spsock/peer"
	"github.com/nabbar/spsock/wire"
)

type repState int

const (
	repIdle repState = iota
	repHaveRequest
)

// REP is the responder half of REQ/REP: Recv accepts the next request
// from any peer and Send answers it. A second Recv before Send
// replaces the pending request, which then goes unanswered.
type REP struct {
	router *Router

	mu               sync.Mutex
	state            repState
	pendingID        uint32
	pendingBacktrace []uint32
	pendingPeer      *peer.Peer

	reqCh  chan *buffer.Message
	closed atomic.Bool
	done   chan struct{}
}

// NewREP returns a REP engine.
func NewREP(router *Router) *REP {
	return &REP{
		router: router,
		reqCh:  make(chan *buffer.Message, 1),
		done:   make(chan struct{}),
	}
}

// Dispatch delivers one inbound request to Recv.
func (e *REP) Dispatch(msg *buffer.Message) {
	select {
	case e.reqCh <- msg:
	case <-e.done:
		msg.Release()
	}
}

// Recv returns the next request's payload, recording its backtrace,
// identifier, and source peer so a following Send can answer it.
func (e *REP) Recv(deadline time.Time) ([]byte, error) {
	var timeout <-chan time.Time
	if !deadline.IsZero() {
		t := time.NewTimer(time.Until(deadline))
		defer t.Stop()
		timeout = t.C
	}

	for {
		select {
		case msg := <-e.reqCh:
			backtrace, id, err := wire.DecodeHeader(msg.Header)
			if err != nil {
				// Foreign or truncated datagram, not a malformed request
				// from a well-behaved peer: drop it and keep waiting
				// rather than failing the caller for someone else's bad
				// traffic.
				msg.Release()
				continue
			}
			p, _ := e.router.Peers.Get(msg.PeerID)
			payload := append([]byte(nil), msg.Payload...)
			msg.Release()

			e.mu.Lock()
			e.state = repHaveRequest
			e.pendingID = id
			e.pendingBacktrace = backtrace
			e.pendingPeer = p
			e.mu.Unlock()
			return payload, nil
		case <-timeout:
			return nil, errkind.New(errkind.KindTimeout, "rep.Recv")
		case <-e.done:
			return nil, errkind.New(errkind.KindClosed, "rep.Recv")
		}
	}
}

// Send answers the stored request. Calling Send while Idle fails-with
// ErrInvalidState. If the stored peer has since disconnected, the
// response is silently dropped and the engine still returns to Idle.
func (e *REP) Send(payload []byte) error {
	e.mu.Lock()
	if e.state != repHaveRequest {
		e.mu.Unlock()
		return errkind.New(errkind.KindInvalidState, "rep.Send")
	}
	p := e.pendingPeer
	header := wire.EncodeHeader(e.pendingBacktrace, e.pendingID)
	e.state = repIdle
	e.mu.Unlock()

	if p == nil || p.State() != peer.Connected {
		return nil
	}
	c, ok := e.router.ConnectionFor(p)
	if !ok {
		return nil
	}

	msg := e.router.NewMessage(payload, p.Addr, p.ID)
	msg.Header = header

	select {
	case c.Outbound <- msg:
		return nil
	case <-e.done:
		msg.Release()
		return errkind.New(errkind.KindClosed, "rep.Send")
	}
}

// Close releases waiters in Recv with ErrClosed.
func (e *REP) Close() {
	if e.closed.CompareAndSwap(false, true) {
		close(e.done)
	}
}
