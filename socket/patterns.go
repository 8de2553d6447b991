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

package socket

import (
	"time"

	"github.com/nabbar/spsock/protocol"
)

func (s *Socket) router() *protocol.Router {
	return protocol.NewRouter(s.peers, s.conns, s.pool)
}

// NewREQ returns a Socket implementing the REQ half of REQ/REP.
func NewREQ(opts ...Option) *Socket {
	s := newSocket("req", opts)
	e := protocol.NewREQ(s.router(), s.cfg.reqResendTime)
	s.engine = e
	s.correlated = true
	s.sendFn = func(payload []byte, deadline time.Time) error { return e.Send(payload, deadline) }
	s.recvFn = e.Recv
	return s
}

// NewREP returns a Socket implementing the REP half of REQ/REP.
func NewREP(opts ...Option) *Socket {
	s := newSocket("rep", opts)
	e := protocol.NewREP(s.router())
	s.engine = e
	s.correlated = true
	s.sendFn = func(payload []byte, _ time.Time) error { return e.Send(payload) }
	s.recvFn = e.Recv
	return s
}

// NewPUB returns a Socket implementing PUB.
func NewPUB(opts ...Option) *Socket {
	s := newSocket("pub", opts)
	e := protocol.NewPUB(s.router())
	s.engine = e
	s.sendFn = func(payload []byte, _ time.Time) error { return e.Send(payload) }
	s.recvFn = e.Recv
	return s
}

// SubSocket is a Socket specialized for the SUB pattern, adding the
// Subscribe/Unsubscribe surface SPEC_FULL.md §6.4 calls out as
// pattern-specific.
type SubSocket struct {
	*Socket
	sub *protocol.SUB
}

// NewSUB returns a SubSocket. Its filtered-queue size and drop policy
// follow WithRecvQueueSize and WithSubDropOldest.
func NewSUB(opts ...Option) *SubSocket {
	s := newSocket("sub", opts)
	e := protocol.NewSUB(s.cfg.recvQueueSize, s.cfg.subDropOldest)
	s.engine = e
	s.sendFn = func(payload []byte, _ time.Time) error { return e.Send(payload) }
	s.recvFn = e.Recv
	return &SubSocket{Socket: s, sub: e}
}

// Subscribe registers prefix as a filter; an empty prefix matches
// every payload.
func (s *SubSocket) Subscribe(prefix []byte) { s.sub.Subscribe(prefix) }

// Unsubscribe removes prefix, failing-with ErrNotFound if it was not
// registered.
func (s *SubSocket) Unsubscribe(prefix []byte) error { return s.sub.Unsubscribe(prefix) }

// NewPUSH returns a Socket implementing the PUSH half of PUSH/PULL.
func NewPUSH(opts ...Option) *Socket {
	s := newSocket("push", opts)
	e := protocol.NewPUSH(s.router())
	s.engine = e
	s.sendFn = func(payload []byte, deadline time.Time) error { return e.Send(payload, deadline) }
	s.recvFn = e.Recv
	return s
}

// NewPULL returns a Socket implementing the PULL half of PUSH/PULL.
func NewPULL(opts ...Option) *Socket {
	s := newSocket("pull", opts)
	e := protocol.NewPULL(s.cfg.recvQueueSize)
	s.engine = e
	s.sendFn = func(payload []byte, _ time.Time) error { return e.Send(payload) }
	s.recvFn = e.Recv
	return s
}

// NewSURVEYOR returns a Socket implementing the SURVEYOR half of
// SURVEY. Send's deadline argument becomes the survey's response
// collection window (time.Until(deadline)); a zero deadline selects
// WithSurveyDeadline's configured default.
func NewSURVEYOR(opts ...Option) *Socket {
	s := newSocket("surveyor", opts)
	e := protocol.NewSURVEYOR(s.router())
	s.engine = e
	s.correlated = true
	s.sendFn = func(payload []byte, deadline time.Time) error {
		window := s.cfg.surveyDeadline
		if !deadline.IsZero() {
			if d := time.Until(deadline); d > 0 {
				window = d
			}
		}
		return e.Send(payload, window)
	}
	s.recvFn = func(_ time.Time) ([]byte, error) { return e.Recv() }
	return s
}

// NewRESPONDENT returns a Socket implementing the RESPONDENT half of
// SURVEY.
func NewRESPONDENT(opts ...Option) *Socket {
	s := newSocket("respondent", opts)
	e := protocol.NewRESPONDENT(s.router())
	s.engine = e
	s.correlated = true
	s.sendFn = func(payload []byte, _ time.Time) error { return e.Send(payload) }
	s.recvFn = e.Recv
	return s
}

// NewBUS returns a Socket implementing BUS.
func NewBUS(opts ...Option) *Socket {
	s := newSocket("bus", opts)
	e := protocol.NewBUS(s.router(), s.cfg.recvQueueSize)
	s.engine = e
	s.sendFn = func(payload []byte, _ time.Time) error { return e.Send(payload) }
	s.recvFn = e.Recv
	return s
}

// NewPAIR returns a Socket implementing PAIR. Exactly one peer may be
// connected at a time; the accept task refuses every further inbound
// connection with ErrBusy.
func NewPAIR(opts ...Option) *Socket {
	s := newSocket("pair", opts)
	e := protocol.NewPAIR(s.router(), s.cfg.recvQueueSize)
	s.engine = e
	s.pairEng = e
	s.sendFn = func(payload []byte, _ time.Time) error { return e.Send(payload) }
	s.recvFn = e.Recv
	return s
}

// HasPeer reports whether a PAIR socket's single slot is occupied. It
// always reports false for every other pattern.
func (s *Socket) HasPeer() bool {
	if s.pairEng == nil {
		return false
	}
	return s.pairEng.HasPeer()
}
