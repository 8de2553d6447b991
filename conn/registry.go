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

package conn

import (
	libatm "github.com/nabbar/spsock/atomic"
)

// Registry tracks every live Connection a socket owns, keyed by
// connection identifier.
type Registry struct {
	conns libatm.MapTyped[uint32, *Connection]
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: libatm.NewMapTyped[uint32, *Connection](),
	}
}

// Register adds c to the registry.
func (r *Registry) Register(c *Connection) {
	r.conns.Store(c.ID, c)
}

// Unregister removes and stops the connection with id, if present.
func (r *Registry) Unregister(id uint32) {
	c, ok := r.conns.LoadAndDelete(id)
	if !ok {
		return
	}
	c.Stop()
}

// Get returns the connection registered for id, if any.
func (r *Registry) Get(id uint32) (*Connection, bool) {
	return r.conns.Load(id)
}

// All returns a snapshot of every currently registered connection.
func (r *Registry) All() []*Connection {
	out := make([]*Connection, 0)
	r.conns.Range(func(_ uint32, c *Connection) bool {
		out = append(out, c)
		return true
	})
	return out
}

// Count returns the number of currently registered connections.
func (r *Registry) Count() int {
	n := 0
	r.conns.Range(func(uint32, *Connection) bool {
		n++
		return true
	})
	return n
}

// CloseAll stops every registered connection and empties the
// registry. It is the shutdown path a socket calls from its own
// Close.
func (r *Registry) CloseAll() {
	r.conns.Range(func(id uint32, c *Connection) bool {
		c.Stop()
		r.conns.Delete(id)
		return true
	})
}
