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

package peer

import (
	"net"
	stdatomic "sync/atomic"

	libatm "github.com/nabbar/spsock/atomic"
)

// Registry maps peer identifiers to Peer entries, with a secondary
// address-to-identifier index. Identifier allocation is strictly
// increasing and never reuses an identifier still held by a live
// entry.
type Registry struct {
	nextID stdatomic.Uint32
	byID   libatm.MapTyped[uint32, *Peer]
	byAddr libatm.MapTyped[string, uint32]
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   libatm.NewMapTyped[uint32, *Peer](),
		byAddr: libatm.NewMapTyped[string, uint32](),
	}
}

// Add creates and registers a new Peer for addr, returning its
// strictly-increasing, non-zero identifier.
func (r *Registry) Add(addr net.Addr) (uint32, *Peer) {
	id := r.nextID.Add(1)
	p := newPeer(id, addr)
	r.byID.Store(id, p)
	r.byAddr.Store(addr.String(), id)
	return id, p
}

// Remove deletes the peer entry for id, reporting whether it existed.
func (r *Registry) Remove(id uint32) bool {
	p, ok := r.byID.LoadAndDelete(id)
	if !ok {
		return false
	}
	p.SetState(Disconnected)
	r.byAddr.Delete(p.Addr.String())
	return true
}

// Get returns the peer for id, if any.
func (r *Registry) Get(id uint32) (*Peer, bool) {
	return r.byID.Load(id)
}

// GetByAddr returns the peer registered for addr, if any.
func (r *Registry) GetByAddr(addr net.Addr) (*Peer, bool) {
	id, ok := r.byAddr.Load(addr.String())
	if !ok {
		return nil, false
	}
	return r.byID.Load(id)
}

// All returns a snapshot of every currently registered peer, safe to
// iterate without synchronizing against concurrent Add/Remove.
func (r *Registry) All() []*Peer {
	out := make([]*Peer, 0)
	r.byID.Range(func(_ uint32, p *Peer) bool {
		out = append(out, p)
		return true
	})
	return out
}

// Count returns the number of currently registered peers.
func (r *Registry) Count() int {
	n := 0
	r.byID.Range(func(uint32, *Peer) bool {
		n++
		return true
	})
	return n
}

// Range calls fn for each registered peer until fn returns false or
// every peer has been visited.
func (r *Registry) Range(fn func(*Peer) bool) {
	r.byID.Range(func(_ uint32, p *Peer) bool {
		return fn(p)
	})
}
