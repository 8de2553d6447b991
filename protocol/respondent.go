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

type respState int

const (
	respIdle respState = iota
	respHaveSurvey
)

// RESPONDENT is grounded on mangos's xsurveyor.go stateless
// broadcast-reply path: only one survey may be pending at a time, so a
// new arrival while HaveSurvey overwrites the record and makes the
// prior survey unanswerable.
type RESPONDENT struct {
	router *Router

	mu               sync.Mutex
	state            respState
	pendingID        uint32
	pendingBacktrace []uint32
	pendingPeer      *peer.Peer

	surveyCh chan *buffer.Message
	closed   atomic.Bool
	done     chan struct{}
}

// NewRESPONDENT returns a RESPONDENT engine.
func NewRESPONDENT(router *Router) *RESPONDENT {
	return &RESPONDENT{
		router:   router,
		surveyCh: make(chan *buffer.Message, 1),
		done:     make(chan struct{}),
	}
}

// Dispatch replaces any unanswered survey with the newly arrived one.
func (e *RESPONDENT) Dispatch(msg *buffer.Message) {
	select {
	case stale := <-e.surveyCh:
		stale.Release()
	default:
	}

	select {
	case e.surveyCh <- msg:
	case <-e.done:
		msg.Release()
	}
}

// Recv returns the next survey's payload and records its identifier,
// backtrace, and source peer for a following Send.
func (e *RESPONDENT) Recv(deadline time.Time) ([]byte, error) {
	var timeout <-chan time.Time
	if !deadline.IsZero() {
		t := time.NewTimer(time.Until(deadline))
		defer t.Stop()
		timeout = t.C
	}

	for {
		select {
		case msg := <-e.surveyCh:
			backtrace, id, err := wire.DecodeHeader(msg.Header)
			if err != nil {
				// Foreign or truncated datagram: drop and keep waiting,
				// same as REP.Recv.
				msg.Release()
				continue
			}
			p, _ := e.router.Peers.Get(msg.PeerID)
			payload := append([]byte(nil), msg.Payload...)
			msg.Release()

			e.mu.Lock()
			e.state = respHaveSurvey
			e.pendingID = id
			e.pendingBacktrace = backtrace
			e.pendingPeer = p
			e.mu.Unlock()
			return payload, nil
		case <-timeout:
			return nil, errkind.New(errkind.KindTimeout, "respondent.Recv")
		case <-e.done:
			return nil, errkind.New(errkind.KindClosed, "respondent.Recv")
		}
	}
}

// Send answers the stored survey. Calling Send while Idle fails-with
// ErrInvalidState.
func (e *RESPONDENT) Send(payload []byte) error {
	e.mu.Lock()
	if e.state != respHaveSurvey {
		e.mu.Unlock()
		return errkind.New(errkind.KindInvalidState, "respondent.Send")
	}
	p := e.pendingPeer
	header := wire.EncodeHeader(e.pendingBacktrace, e.pendingID)
	e.state = respIdle
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
		return errkind.New(errkind.KindClosed, "respondent.Send")
	}
}

// Close releases waiters in Recv with ErrClosed.
func (e *RESPONDENT) Close() {
	if e.closed.CompareAndSwap(false, true) {
		close(e.done)
	}
}
