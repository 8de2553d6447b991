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

// Package conn binds one transport.Driver to one peer and runs its
// worker pair: a receiver task and a sender task that together own
// the connection's inbound and outbound queues, modeled directly on
// mangos's per-pipe sender/receiver goroutines (see
// protocol/surveyor/surveyor.go in the retrieval pack), generalized
// here to every pattern instead of one protocol.
package conn

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nabbar/spsock/buffer"
	"github.com/nabbar/spsock/errkind"
	"github.com/nabbar/spsock/internal/transport"
)

const (
	// DefaultQueueSize bounds the inbound and outbound channels; the
	// library's sole explicit flow-control knob per SPEC_FULL.md §4.5.
	DefaultQueueSize = 16
	// DefaultReadDeadline is the receiver task's poll interval so
	// shutdown is observed promptly.
	DefaultReadDeadline = 100 * time.Millisecond
	// DefaultDrainDeadline bounds the sender task's best-effort drain
	// of already-queued messages on shutdown.
	DefaultDrainDeadline = 1 * time.Second
)

// Connection binds one transport.Driver to one peer identifier and
// owns the bounded queues the worker pair drains and fills.
type Connection struct {
	ID     uint32
	PeerID uint32

	Inbound  chan *buffer.Message
	Outbound chan *buffer.Message

	driver transport.Driver
	pool   *buffer.Pool
	log    *logrus.Entry

	readDeadline  time.Duration
	drainDeadline time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closed   atomic.Bool
	errCount atomic.Uint64
}

// New builds a Connection around driver, with bounded queues sized
// inQSize/outQSize (0 selects DefaultQueueSize). It does not start the
// worker pair; call Start for that.
func New(id, peerID uint32, driver transport.Driver, pool *buffer.Pool, inQSize, outQSize int, log *logrus.Entry) *Connection {
	if inQSize <= 0 {
		inQSize = DefaultQueueSize
	}
	if outQSize <= 0 {
		outQSize = DefaultQueueSize
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		ID:            id,
		PeerID:        peerID,
		Inbound:       make(chan *buffer.Message, inQSize),
		Outbound:      make(chan *buffer.Message, outQSize),
		driver:        driver,
		pool:          pool,
		log:           log.WithField("conn_id", id).WithField("peer_id", peerID),
		readDeadline:  DefaultReadDeadline,
		drainDeadline: DefaultDrainDeadline,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start launches the receiver and sender tasks.
func (c *Connection) Start() {
	c.wg.Add(2)
	go c.receiver()
	go c.sender()
}

// Stop cancels the connection's shutdown signal, waits for both
// worker-pair tasks to terminate, then closes the transport. Stop is
// idempotent.
func (c *Connection) Stop() {
	if !c.closed.CompareAndSwap(false, true) {
		c.wg.Wait()
		return
	}
	c.cancel()
	c.wg.Wait()
	_ = c.driver.Close()
}

// Closed reports whether Stop has been called.
func (c *Connection) Closed() bool {
	return c.closed.Load()
}

// ErrorCount returns the number of permanent transport errors observed
// by either worker-pair task.
func (c *Connection) ErrorCount() uint64 {
	return c.errCount.Load()
}

// receiver is the worker pair's inbound half: it polls the driver with
// a short read deadline so Stop is observed promptly, and on success
// acquires a pool buffer, builds a Message, and enqueues it.
func (c *Connection) receiver() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_ = c.driver.SetReadDeadline(time.Now().Add(c.readDeadline))
		b, src, err := c.driver.Recv()
		if err != nil {
			switch {
			case errors.Is(err, errkind.ErrClosed):
				return
			case errors.Is(err, errkind.ErrTimeout):
				continue
			default:
				c.errCount.Add(1)
				c.log.WithError(err).Warn("receiver: transport error, continuing")
				continue
			}
		}

		buf := c.pool.Get(len(b))
		copy(buf, b)
		msg := buffer.NewMessage(c.pool, buf, src, c.PeerID)

		select {
		case c.Inbound <- msg:
		case <-c.ctx.Done():
			msg.Release()
			return
		}
	}
}

// sender is the worker pair's outbound half: it drains the outbound
// queue and writes each Message to the transport. On shutdown it
// drains whatever is already queued, bounded by drainDeadline.
func (c *Connection) sender() {
	defer c.wg.Done()

	for {
		select {
		case msg, ok := <-c.Outbound:
			if !ok {
				return
			}
			c.send(msg)
		case <-c.ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Connection) send(msg *buffer.Message) {
	defer msg.Release()
	if _, err := c.driver.Send(msg.Wire(), msg.Addr); err != nil {
		c.errCount.Add(1)
		c.log.WithError(err).Warn("sender: transport error, message dropped")
	}
}

// drain best-effort flushes messages already sitting in the outbound
// queue at shutdown time; it does not wait for messages not yet
// enqueued.
func (c *Connection) drain() {
	deadline := time.NewTimer(c.drainDeadline)
	defer deadline.Stop()

	for {
		select {
		case msg, ok := <-c.Outbound:
			if !ok {
				return
			}
			c.send(msg)
		case <-deadline.C:
			return
		default:
			return
		}
	}
}
