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
	"github.com/nabbar/spsock/conn"
	"github.com/nabbar/spsock/errkind"
	"github.com/nabbar/spsock/peer"
	"github.com/nabbar/spsock/wire"
)

type reqState int

const (
	reqIdle reqState = iota
	reqAwaiting
)

// REQ is the requester half of REQ/REP. State is per-socket, not
// per-peer: a second Send while awaiting a reply replaces the
// outstanding request, and any reply that later arrives for the old
// identifier is discarded by Dispatch.
type REQ struct {
	router *Router

	mu             sync.Mutex
	state          reqState
	nextID         uint32
	outstandingID  uint32
	pendingPeer    *peer.Peer
	pendingHeader  []byte
	pendingPayload []byte
	rrIdx          int

	resendInterval time.Duration
	replyCh        chan *buffer.Message

	closed atomic.Bool
	done   chan struct{}
}

// NewREQ returns a REQ engine. resendInterval of 0 disables automatic
// resend.
func NewREQ(router *Router, resendInterval time.Duration) *REQ {
	e := &REQ{
		router:         router,
		resendInterval: resendInterval,
		replyCh:        make(chan *buffer.Message, 1),
		done:           make(chan struct{}),
	}
	if resendInterval > 0 {
		go e.resendLoop()
	}
	return e
}

func (e *REQ) allocID() uint32 {
	id := e.nextID
	e.nextID = (e.nextID + 1) & 0x7fffffff
	return id
}

// Send allocates a new request identifier, picks the next Connected
// peer by round-robin, and enqueues the request. When the engine was
// built with a positive resendInterval — meaning a dial/reconnect is
// expected to eventually produce one — Send blocks until a peer
// becomes available or deadline elapses, fails-with ErrTimeout on
// elapse. With no resend configured (resendInterval == 0, a pure
// fail-fast REQ) it fails-with ErrNoPeer immediately instead, since no
// later connection attempt is coming.
func (e *REQ) Send(payload []byte, deadline time.Time) error {
	if e.closed.Load() {
		return errkind.New(errkind.KindClosed, "req.Send")
	}

	p, c, err := e.awaitPeer(deadline)
	if err != nil {
		return err
	}

	e.mu.Lock()
	id := wire.WithCorrelation(e.allocID())
	header := wire.EncodeHeader(nil, id)
	e.state = reqAwaiting
	e.outstandingID = id
	e.pendingPeer = p
	e.pendingHeader = header
	e.pendingPayload = append([]byte(nil), payload...)
	e.mu.Unlock()

	msg := e.router.NewMessage(payload, p.Addr, p.ID)
	msg.Header = header

	select {
	case c.Outbound <- msg:
		return nil
	case <-e.done:
		msg.Release()
		return errkind.New(errkind.KindClosed, "req.Send")
	}
}

// awaitPeer picks the next Connected peer by round-robin, blocking and
// re-scanning on pollInterval while none is available and resend is
// configured. deadline bounds the wait; a zero deadline waits
// indefinitely (until Close).
func (e *REQ) awaitPeer(deadline time.Time) (*peer.Peer, *conn.Connection, error) {
	var timeout <-chan time.Time
	if !deadline.IsZero() {
		t := time.NewTimer(time.Until(deadline))
		defer t.Stop()
		timeout = t.C
	}

	for {
		peers := e.router.Connected()
		if len(peers) > 0 {
			e.mu.Lock()
			idx := e.rrIdx % len(peers)
			e.rrIdx++
			p := peers[idx]
			e.mu.Unlock()

			if c, ok := e.router.ConnectionFor(p); ok {
				return p, c, nil
			}
		}

		if e.resendInterval <= 0 {
			return nil, nil, errkind.New(errkind.KindNoPeer, "req.Send")
		}

		select {
		case <-timeout:
			return nil, nil, errkind.New(errkind.KindTimeout, "req.Send")
		case <-e.done:
			return nil, nil, errkind.New(errkind.KindClosed, "req.Send")
		case <-time.After(pollInterval):
		}
	}
}

// Recv blocks for the reply matching the outstanding request, a
// deadline, or Close.
func (e *REQ) Recv(deadline time.Time) ([]byte, error) {
	var timeout <-chan time.Time
	if !deadline.IsZero() {
		t := time.NewTimer(time.Until(deadline))
		defer t.Stop()
		timeout = t.C
	}

	select {
	case msg := <-e.replyCh:
		defer msg.Release()
		return append([]byte(nil), msg.Payload...), nil
	case <-timeout:
		return nil, errkind.New(errkind.KindTimeout, "req.Recv")
	case <-e.done:
		return nil, errkind.New(errkind.KindClosed, "req.Recv")
	}
}

// Dispatch delivers one inbound message. Replies whose identifier does
// not match the outstanding request are stale and are discarded.
func (e *REQ) Dispatch(msg *buffer.Message) {
	_, id, err := wire.DecodeHeader(msg.Header)
	if err != nil {
		msg.Release()
		return
	}

	e.mu.Lock()
	match := e.state == reqAwaiting && id == e.outstandingID
	if match {
		e.state = reqIdle
	}
	e.mu.Unlock()

	if !match {
		msg.Release()
		return
	}

	select {
	case e.replyCh <- msg:
	case <-e.done:
		msg.Release()
	}
}

// resendLoop re-enqueues the outstanding request on resendInterval
// until a matching reply arrives or Close; a Recv whose deadline fires
// does not stop it.
// It never synthesizes a surface error from resend count alone.
func (e *REQ) resendLoop() {
	t := time.NewTicker(e.resendInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			e.mu.Lock()
			if e.state != reqAwaiting {
				e.mu.Unlock()
				continue
			}
			p := e.pendingPeer
			header := e.pendingHeader
			payload := e.pendingPayload
			e.mu.Unlock()

			c, ok := e.router.ConnectionFor(p)
			if !ok {
				continue
			}
			msg := e.router.NewMessage(payload, p.Addr, p.ID)
			msg.Header = header
			select {
			case c.Outbound <- msg:
			default:
				msg.Release()
			}
		case <-e.done:
			return
		}
	}
}

// Close releases waiters in Recv with ErrClosed and stops resend.
func (e *REQ) Close() {
	if e.closed.CompareAndSwap(false, true) {
		close(e.done)
	}
}
