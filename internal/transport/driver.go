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

// Package transport defines the abstract datagram channel every
// protocol engine and worker pair is built on, plus its two concrete
// implementations: Unix datagram sockets for local IPC and UDP for
// inter-host traffic. Neither driver re-frames its payload; one Send
// is one datagram is one Recv.
package transport

import (
	"net"
	"time"
)

// Driver is one live datagram channel: either a dialed connection
// bound to a single remote, or a handle synthesized by a Listener's
// demultiplexer for one observed remote address.
type Driver interface {
	// Send writes b as one datagram to dst. For a dialed Driver, dst
	// is typically nil or the already-connected remote; for a
	// listener-synthesized Driver it is the peer address the
	// Listener demultiplexed this Driver for.
	Send(b []byte, dst net.Addr) (int, error)
	// Recv blocks for the next datagram, honoring any deadline set by
	// SetReadDeadline/SetDeadline.
	Recv() (b []byte, src net.Addr, err error)
	// Close releases the Driver. After Close, Send and Recv fail with
	// a KindClosed error.
	Close() error
	// LocalAddr returns the driver's local endpoint.
	LocalAddr() net.Addr
	SetDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Maximum message size each driver's transport accepts, per
// SPEC_FULL.md §6.3.
const (
	MaxSizeUnixgram = 65536
	MaxSizeUDP      = 65507
)
