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

package buffer_test

import (
	"github.com/nabbar/spsock/buffer"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Pool", func() {
	It("serves a buffer of exactly the requested size", func() {
		p := buffer.NewPool(1024)
		b := p.Get(100)
		Expect(b).To(HaveLen(100))
	})

	It("counts a Get/Put round trip", func() {
		p := buffer.NewPool(1024)
		b := p.Get(64)
		p.Put(b)

		st := p.Stats()
		Expect(st.Gets).To(Equal(uint64(1)))
		Expect(st.Puts).To(Equal(uint64(1)))
	})

	It("treats Put(nil) as a no-op", func() {
		p := buffer.NewPool(1024)
		p.Put(nil)
		Expect(p.Stats().Puts).To(Equal(uint64(0)))
	})

	It("marks oversized requests and does not pool them", func() {
		p := buffer.NewPool(16)
		b := p.Get(32)
		Expect(b).To(HaveLen(32))
		Expect(p.Stats().Oversize).To(Equal(uint64(1)))

		p.Put(b)
		// An oversized buffer's capacity never matches maxSize, so Put
		// discards it; a follow-up Get must still report a pool miss.
		before := p.Stats().Misses
		_ = p.Get(8)
		Expect(p.Stats().Misses).To(Equal(before + 1))
	})

	It("records a pool miss on first use and a hit afterwards", func() {
		p := buffer.NewPool(64)
		b := p.Get(64)
		Expect(p.Stats().Misses).To(Equal(uint64(1)))
		p.Put(b)

		_ = p.Get(64)
		Expect(p.Stats().Misses).To(Equal(uint64(1)))
	})
})

var _ = Describe("Message", func() {
	It("releases its buffer back to the pool exactly once", func() {
		p := buffer.NewPool(64)
		m := buffer.NewMessage(p, p.Get(4), nil, 7)
		copy(m.Payload, []byte("ping"))

		m.Release()
		Expect(func() { m.Release() }).To(Panic())
	})

	It("clones independently of the original", func() {
		p := buffer.NewPool(64)
		m := buffer.NewMessage(p, p.Get(4), nil, 1)
		copy(m.Payload, []byte("ping"))

		c := m.Clone()
		copy(c.Payload, []byte("pong"))

		Expect(string(m.Payload)).To(Equal("ping"))
		Expect(string(c.Payload)).To(Equal("pong"))

		m.Release()
		c.Release()
	})
})
