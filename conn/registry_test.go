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

package conn_test

import (
	"github.com/nabbar/spsock/buffer"
	"github.com/nabbar/spsock/conn"
	"github.com/nabbar/spsock/internal/transport"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Registry", func() {
	var (
		pool *buffer.Pool
		ln   *transport.Listener
	)

	BeforeEach(func() {
		pool = buffer.NewPool(buffer.DefaultMaxSize)

		var err error
		ln, err = transport.ListenUDP("127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = ln.Close()
	})

	It("registers, counts, and unregisters connections", func() {
		drv, err := transport.DialUDP(ln.LocalAddr().String())
		Expect(err).NotTo(HaveOccurred())

		c := conn.New(7, 7, drv, pool, 0, 0, nil)
		r := conn.NewRegistry()

		r.Register(c)
		Expect(r.Count()).To(Equal(1))

		got, ok := r.Get(7)
		Expect(ok).To(BeTrue())
		Expect(got).To(BeIdenticalTo(c))

		r.Unregister(7)
		Expect(r.Count()).To(Equal(0))
		Expect(c.Closed()).To(BeTrue())

		_, ok = r.Get(7)
		Expect(ok).To(BeFalse())
	})

	It("CloseAll stops every registered connection", func() {
		drv1, err := transport.DialUDP(ln.LocalAddr().String())
		Expect(err).NotTo(HaveOccurred())
		drv2, err := transport.DialUDP(ln.LocalAddr().String())
		Expect(err).NotTo(HaveOccurred())

		c1 := conn.New(1, 1, drv1, pool, 0, 0, nil)
		c2 := conn.New(2, 2, drv2, pool, 0, 0, nil)

		r := conn.NewRegistry()
		r.Register(c1)
		r.Register(c2)

		r.CloseAll()
		Expect(c1.Closed()).To(BeTrue())
		Expect(c2.Closed()).To(BeTrue())
		Expect(r.Count()).To(Equal(0))
	})
})
