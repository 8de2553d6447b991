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

package buffer

import (
	"net"
	"sync/atomic"
)

// Message wraps one complete datagram: its payload, an optional
// protocol header, the peer/address it came from or is going to, and
// a reference to the pool that owns its underlying buffer. A Message
// has exactly one owner at any time; Release returns its buffer to
// the pool and invalidates the Message for further use.
type Message struct {
	buf     []byte
	Payload []byte
	Header  []byte
	Addr    net.Addr
	PeerID  uint32

	pool     *Pool
	released atomic.Bool
}

// NewMessage builds a Message over buf (as returned by pool.Get),
// owned by pool. The whole of buf is exposed as Payload; callers that
// need to carve off header bytes do so by reslicing Payload/Header
// themselves before handing the Message onward.
func NewMessage(pool *Pool, buf []byte, addr net.Addr, peerID uint32) *Message {
	return &Message{
		buf:     buf,
		Payload: buf,
		Addr:    addr,
		PeerID:  peerID,
		pool:    pool,
	}
}

// Release returns the Message's buffer to its owning pool. It is a
// programming error to call Release twice or to use a Message after
// Release; both are caught here rather than silently corrupting the
// pool's free list.
func (m *Message) Release() {
	if m == nil || m.pool == nil {
		return
	}
	if !m.released.CompareAndSwap(false, true) {
		panic("buffer: Message released twice")
	}
	m.pool.Put(m.buf)
	m.buf = nil
	m.Payload = nil
	m.Header = nil
}

// Wire returns the bytes that should move over the transport for this
// Message: the header, if any, followed by the payload. The protocol
// engines are the only callers that ever set Header; patterns with no
// header (PUB/SUB, PUSH/PULL, BUS, PAIR) leave it nil and Wire returns
// Payload unchanged.
func (m *Message) Wire() []byte {
	if len(m.Header) == 0 {
		return m.Payload
	}
	w := make([]byte, 0, len(m.Header)+len(m.Payload))
	w = append(w, m.Header...)
	w = append(w, m.Payload...)
	return w
}

// Clone returns an independently owned copy of m: a new buffer from
// the same pool, with Payload and Header copied (not shared). The
// clone must be released independently of m.
func (m *Message) Clone() *Message {
	buf := m.pool.Get(len(m.Payload))
	n := copy(buf, m.Payload)

	c := &Message{
		buf:     buf,
		Payload: buf[:n],
		Addr:    m.Addr,
		PeerID:  m.PeerID,
		pool:    m.pool,
	}
	if m.Header != nil {
		c.Header = make([]byte, len(m.Header))
		copy(c.Header, m.Header)
	}
	return c
}
