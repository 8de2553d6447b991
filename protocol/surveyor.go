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
	"github.com/nabbar/spsock/wire"
)

// DefaultSurveyResponseBuffer bounds a SURVEYOR's response collection
// channel.
const DefaultSurveyResponseBuffer = 16

type surveyState int

const (
	surveyIdle surveyState = iota
	surveying
)

// SURVEYOR is grounded on mangos's survey{timer, recvQ, active, id}
// struct: Send broadcasts a new survey and starts a collection window;
// Recv drains matching responses until that window elapses.
type SURVEYOR struct {
	router *Router

	mu         sync.Mutex
	state      surveyState
	nextID     uint32
	activeID   uint32
	deadlineAt time.Time

	respCh chan *buffer.Message
	closed atomic.Bool
	done   chan struct{}
}

// NewSURVEYOR returns a SURVEYOR engine.
func NewSURVEYOR(router *Router) *SURVEYOR {
	return &SURVEYOR{
		router: router,
		respCh: make(chan *buffer.Message, DefaultSurveyResponseBuffer),
		done:   make(chan struct{}),
	}
}

func (e *SURVEYOR) allocID() uint32 {
	id := e.nextID
	e.nextID = (e.nextID + 1) & 0x7fffffff
	return id
}

// Send broadcasts payload to every connected peer as a new survey,
// terminating any survey still in progress; responses for the
// terminated survey are discarded once they arrive.
func (e *SURVEYOR) Send(payload []byte, collectWindow time.Duration) error {
	if e.closed.Load() {
		return errkind.New(errkind.KindClosed, "surveyor.Send")
	}

	e.mu.Lock()
	for {
		select {
		case stale := <-e.respCh:
			stale.Release()
			continue
		default:
		}
		break
	}
	id := wire.WithCorrelation(e.allocID())
	e.activeID = id
	e.state = surveying
	e.deadlineAt = time.Now().Add(collectWindow)
	e.mu.Unlock()

	header := wire.EncodeHeader(nil, id)
	for _, p := range e.router.Connected() {
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
	}
	return nil
}

// Dispatch delivers one response if it matches the active survey and
// the collection window has not yet elapsed; otherwise it is dropped.
func (e *SURVEYOR) Dispatch(msg *buffer.Message) {
	_, id, err := wire.DecodeHeader(msg.Header)
	if err != nil {
		msg.Release()
		return
	}

	e.mu.Lock()
	match := e.state == surveying && id == e.activeID && time.Now().Before(e.deadlineAt)
	e.mu.Unlock()
	if !match {
		msg.Release()
		return
	}

	select {
	case e.respCh <- msg:
	case <-e.done:
		msg.Release()
	default:
		msg.Release()
	}
}

// Recv returns the next matching response, failing-with ErrTimeout
// once the active survey's collection window elapses and transitioning
// the engine back to Idle.
func (e *SURVEYOR) Recv() ([]byte, error) {
	e.mu.Lock()
	if e.state != surveying {
		e.mu.Unlock()
		return nil, errkind.New(errkind.KindTimeout, "surveyor.Recv")
	}
	remaining := time.Until(e.deadlineAt)
	e.mu.Unlock()

	if remaining <= 0 {
		e.mu.Lock()
		e.state = surveyIdle
		e.mu.Unlock()
		return nil, errkind.New(errkind.KindTimeout, "surveyor.Recv")
	}

	t := time.NewTimer(remaining)
	defer t.Stop()

	select {
	case msg := <-e.respCh:
		defer msg.Release()
		return append([]byte(nil), msg.Payload...), nil
	case <-t.C:
		e.mu.Lock()
		e.state = surveyIdle
		e.mu.Unlock()
		return nil, errkind.New(errkind.KindTimeout, "surveyor.Recv")
	case <-e.done:
		return nil, errkind.New(errkind.KindClosed, "surveyor.Recv")
	}
}

// Close releases waiters in Recv with ErrClosed.
func (e *SURVEYOR) Close() {
	if e.closed.CompareAndSwap(false, true) {
		close(e.done)
	}
}
