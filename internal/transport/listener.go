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

package transport

import (
	"net"
	"sync"
	"time"

	"github.com/nabbar/spsock/errkind"
)

// acceptQueueSize bounds how many not-yet-accepted peer drivers a
// Listener holds before further new-peer datagrams are dropped; this
// is independent of the per-connection inbound queue the worker pair
// owns once a Driver is accepted.
const acceptQueueSize = 64

// inboxSize bounds the per-peer datagram backlog a Listener holds for
// an accepted Driver before the demux loop starts dropping datagrams
// for that peer. The worker pair's own inbound queue (default 16, per
// SPEC_FULL.md §4.5) is the real flow-control point; this exists only
// to absorb the gap between "datagram arrived" and "receiver task woke
// up and drained it".
const inboxSize = 32

// Listener demultiplexes inbound datagrams on a shared net.PacketConn
// by source address, synthesizing one Driver per distinct peer
// address, mirroring the accept-task role a stream listener would
// play (datagram transports have no kernel-level per-connection
// accept, so the library performs its own).
type Listener struct {
	pc        net.PacketConn
	maxSize   int
	onCleanup func()

	mu      sync.Mutex
	closed  bool
	conns   map[string]*acceptedDriver
	acceptQ chan *acceptedDriver
}

// newListener starts the demux loop over pc. onCleanup, if non-nil,
// runs once after the underlying connection is closed (used by the
// Unix datagram driver to unlink its socket file).
func newListener(pc net.PacketConn, maxSize int, onCleanup func()) *Listener {
	l := &Listener{
		pc:        pc,
		maxSize:   maxSize,
		onCleanup: onCleanup,
		conns:     make(map[string]*acceptedDriver),
		acceptQ:   make(chan *acceptedDriver, acceptQueueSize),
	}
	go l.demux()
	return l
}

// demux is the single reader of the shared listening socket: it has
// to be, since datagram sockets don't let two goroutines each "own" a
// subset of inbound traffic by peer.
func (l *Listener) demux() {
	buf := make([]byte, l.maxSize)
	for {
		n, src, err := l.pc.ReadFrom(buf)
		if err != nil {
			l.mu.Lock()
			closed := l.closed
			l.mu.Unlock()
			if closed {
				return
			}
			if isTemporary(err) {
				continue
			}
			// Permanent, unclassified error: nothing to deliver to,
			// keep the accept loop alive so a later recovery (if any)
			// is still observed.
			continue
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])

		// Registration, the acceptQ send, and the closed check all run
		// under l.mu, the same lock Close takes before closing acceptQ:
		// that serializes the send against the close and rules out
		// sending on a channel that's already shut.
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			continue
		}
		d, ok := l.conns[src.String()]
		if !ok {
			d = &acceptedDriver{
				listener: l,
				remote:   src,
				inbox:    make(chan []byte, inboxSize),
			}
			l.conns[src.String()] = d

			select {
			case l.acceptQ <- d:
			default:
				// Accept queue full: drop the new peer, it will be
				// resynthesized on its next datagram.
				delete(l.conns, src.String())
				l.mu.Unlock()
				continue
			}
		}
		l.mu.Unlock()

		// d.mu guards d.inbox the same way: closeLocal marks closed and
		// closes inbox under the same lock, so this send can never race
		// a close.
		d.mu.Lock()
		if d.closed {
			d.mu.Unlock()
			continue
		}
		select {
		case d.inbox <- payload:
		default:
			// Peer's inbox is full: drop, matching the best-effort
			// semantics the worker pair above this layer already
			// applies to broadcast patterns.
		}
		d.mu.Unlock()
	}
}

// Accept blocks until a new peer address is observed, or the listener
// is closed.
func (l *Listener) Accept() (Driver, net.Addr, error) {
	d, ok := <-l.acceptQ
	if !ok {
		return nil, nil, errkind.New(errkind.KindClosed, "transport.Accept")
	}
	return d, d.remote, nil
}

// LocalAddr returns the listener's bound local address.
func (l *Listener) LocalAddr() net.Addr {
	return l.pc.LocalAddr()
}

// Close shuts the listener down: the demux loop observes the closed
// underlying connection and exits, every accepted Driver still live
// is closed, and onCleanup (socket-file unlink, for Unix datagram)
// runs last.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	conns := make([]*acceptedDriver, 0, len(l.conns))
	for _, d := range l.conns {
		conns = append(conns, d)
	}
	close(l.acceptQ)
	l.mu.Unlock()

	err := l.pc.Close()
	for _, d := range conns {
		d.closeLocal()
	}
	if l.onCleanup != nil {
		l.onCleanup()
	}
	return err
}

// forget removes d from the listener's demux table; called when an
// accepted Driver is closed so a later datagram from the same address
// starts a fresh Driver rather than writing into a dead inbox.
func (l *Listener) forget(d *acceptedDriver) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conns[d.remote.String()] == d {
		delete(l.conns, d.remote.String())
	}
}

// acceptedDriver is the Driver handle a Listener synthesizes for one
// peer address. Its Recv reads from the per-peer inbox the demux loop
// feeds; its Send writes directly to the shared socket.
type acceptedDriver struct {
	listener *Listener
	remote   net.Addr
	inbox    chan []byte

	mu       sync.Mutex
	closed   bool
	readDL   time.Time
	writeDL  time.Time
}

func (d *acceptedDriver) Send(b []byte, dst net.Addr) (int, error) {
	if d.isClosed() {
		return 0, errkind.New(errkind.KindClosed, "transport.Send")
	}
	if len(b) > d.listener.maxSize {
		return 0, errkind.New(errkind.KindMessageTooLarge, "transport.Send")
	}
	if dst == nil {
		dst = d.remote
	}
	if dl := d.writeDeadline(); !dl.IsZero() {
		_ = d.listener.pc.SetWriteDeadline(dl)
	}
	n, err := d.listener.pc.WriteTo(b, dst)
	return n, mapErr("transport.Send", err)
}

func (d *acceptedDriver) Recv() ([]byte, net.Addr, error) {
	var timer *time.Timer
	var timeoutC <-chan time.Time
	if dl := d.readDeadline(); !dl.IsZero() {
		timer = time.NewTimer(time.Until(dl))
		timeoutC = timer.C
		defer timer.Stop()
	}

	select {
	case b, ok := <-d.inbox:
		if !ok {
			return nil, nil, errkind.New(errkind.KindClosed, "transport.Recv")
		}
		return b, d.remote, nil
	case <-timeoutC:
		return nil, nil, errkind.New(errkind.KindTimeout, "transport.Recv")
	}
}

func (d *acceptedDriver) Close() error {
	d.closeLocal()
	d.listener.forget(d)
	return nil
}

// closeLocal marks d closed and unblocks any Recv in progress without
// touching the shared listener's bookkeeping; used both from Close
// and from the listener's own shutdown path.
func (d *acceptedDriver) closeLocal() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	close(d.inbox)
}

func (d *acceptedDriver) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *acceptedDriver) LocalAddr() net.Addr {
	return d.listener.pc.LocalAddr()
}

func (d *acceptedDriver) SetDeadline(t time.Time) error {
	d.mu.Lock()
	d.readDL, d.writeDL = t, t
	d.mu.Unlock()
	return nil
}

func (d *acceptedDriver) SetReadDeadline(t time.Time) error {
	d.mu.Lock()
	d.readDL = t
	d.mu.Unlock()
	return nil
}

func (d *acceptedDriver) SetWriteDeadline(t time.Time) error {
	d.mu.Lock()
	d.writeDL = t
	d.mu.Unlock()
	return nil
}

func (d *acceptedDriver) readDeadline() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readDL
}

func (d *acceptedDriver) writeDeadline() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeDL
}
