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

// Package peer tracks the remote ends of a socket's connections: a
// Peer per live connection, and a Registry mapping peer identifiers
// and addresses to Peer entries.
package peer

import (
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// State is a Peer's connection lifecycle state.
type State int

const (
	Connecting State = iota
	Connected
	Disconnecting
	Disconnected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Peer represents one connected remote, tracked by the local socket.
// PatternState is an opaque slot for per-peer engine bookkeeping; the
// engines in package protocol keep all their state per socket (PUSH's
// round-robin cursor, SURVEYOR's active survey) and leave it unset.
type Peer struct {
	ID   uint32
	Addr net.Addr

	mu           sync.RWMutex
	state        State
	patternState any
	connectedAt  time.Time
	lastSeen     time.Time

	sent atomic.Uint64
	recv atomic.Uint64
}

func newPeer(id uint32, addr net.Addr) *Peer {
	now := time.Now()
	return &Peer{
		ID:          id,
		Addr:        addr,
		state:       Connecting,
		connectedAt: now,
		lastSeen:    now,
	}
}

// State returns the peer's current lifecycle state.
func (p *Peer) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// SetState transitions the peer to s.
func (p *Peer) SetState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// PatternState returns the protocol engine's opaque per-peer slot.
func (p *Peer) PatternState() any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.patternState
}

// SetPatternState replaces the protocol engine's opaque per-peer slot.
func (p *Peer) SetPatternState(v any) {
	p.mu.Lock()
	p.patternState = v
	p.mu.Unlock()
}

// ConnectedAt returns when the peer entry was created.
func (p *Peer) ConnectedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connectedAt
}

// LastSeen returns the last time Touch was called for this peer.
func (p *Peer) LastSeen() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSeen
}

// Touch records inbound activity for LastSeen.
func (p *Peer) Touch() {
	p.mu.Lock()
	p.lastSeen = time.Now()
	p.mu.Unlock()
}

// CountSent increments the peer's sent-message counter.
func (p *Peer) CountSent() { p.sent.Add(1) }

// CountRecv increments the peer's received-message counter.
func (p *Peer) CountRecv() { p.recv.Add(1) }

// Sent returns the peer's sent-message counter.
func (p *Peer) Sent() uint64 { return p.sent.Load() }

// Recv returns the peer's received-message counter.
func (p *Peer) Recv() uint64 { return p.recv.Load() }
