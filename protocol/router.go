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

// Package protocol implements the ten Scalability Protocols pattern
// engines (REQ, REP, PUB, SUB, PUSH, PULL, SURVEYOR, RESPONDENT, BUS,
// PAIR) as described in SPEC_FULL.md §4.6. Every engine is constructed
// around a Router, routes outbound messages to per-peer connection
// queues, and receives inbound messages through a Dispatch call the
// socket facade makes once per message on a per-connection forwarder
// goroutine — the same callback shape mangos uses to hand a received
// message from a pipe to its owning protocol
// (see other_examples/.../mangos/v3/protocol/surveyor/surveyor.go).
package protocol

import (
	"net"
	"sort"

	"github.com/nabbar/spsock/buffer"
	"github.com/nabbar/spsock/conn"
	"github.com/nabbar/spsock/peer"
)

// Router is the shared view into one socket's peer and connection
// registries that every protocol engine routes through. Peer and
// connection identifiers are the same value for a given remote: the
// socket facade allocates both together when a connection is
// established (§4.3, §4.4).
type Router struct {
	Peers *peer.Registry
	Conns *conn.Registry
	Pool  *buffer.Pool
}

// NewRouter returns a Router over the given registries and pool.
func NewRouter(peers *peer.Registry, conns *conn.Registry, pool *buffer.Pool) *Router {
	return &Router{Peers: peers, Conns: conns, Pool: pool}
}

// Connected returns a snapshot of every peer currently in the
// Connected state, ordered by ascending peer identifier.
func (r *Router) Connected() []*peer.Peer {
	all := r.Peers.All()
	out := make([]*peer.Peer, 0, len(all))
	for _, p := range all {
		if p.State() == peer.Connected {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ConnectionFor returns the live connection backing p, if any.
func (r *Router) ConnectionFor(p *peer.Peer) (*conn.Connection, bool) {
	if p == nil {
		return nil, false
	}
	return r.Conns.Get(p.ID)
}

// NewMessage acquires a pool buffer sized for payload, copies payload
// into it, and wraps it in a Message addressed to dst for peerID. The
// returned Message's Header is nil; callers that need a correlation
// header (REQ/REP, SURVEY) set it afterward.
func (r *Router) NewMessage(payload []byte, dst net.Addr, peerID uint32) *buffer.Message {
	buf := r.Pool.Get(len(payload))
	copy(buf, payload)
	return buffer.NewMessage(r.Pool, buf, dst, peerID)
}

// Engine is the behavior every protocol engine provides to the socket
// facade, independent of its pattern-specific Send/Recv signatures:
// Dispatch delivers one inbound message from a connection's forwarder,
// and Close releases any engine-owned resources and unblocks waiters.
type Engine interface {
	Dispatch(msg *buffer.Message)
	Close()
}
