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

package protocol_test

import (
	"time"

	"github.com/nabbar/spsock/buffer"
	"github.com/nabbar/spsock/errkind"
	"github.com/nabbar/spsock/protocol"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PUSH/PULL", func() {
	It("delivers each send to exactly one of several peers in round-robin order", func() {
		router, peers, _ := newHarness(3)
		push := protocol.NewPUSH(router)
		defer push.Close()

		var seen []int
		for i := 0; i < 3; i++ {
			Expect(push.Send([]byte("job"), time.Time{})).To(Succeed())
		}

		for idx, p := range peers {
			c, _ := router.ConnectionFor(p)
			select {
			case msg := <-c.Outbound:
				seen = append(seen, idx)
				msg.Release()
			default:
			}
		}
		Expect(seen).To(HaveLen(3))
	})

	It("fails Send with ErrTimeout when no peer is connected before the deadline", func() {
		router, _, _ := newHarness(0)
		push := protocol.NewPUSH(router)
		defer push.Close()

		err := push.Send([]byte("job"), time.Now().Add(20*time.Millisecond))
		Expect(errkind.Is(err, errkind.KindTimeout)).To(BeTrue())
	})

	It("PULL delivers inbound messages to Recv in arrival order", func() {
		pool := buffer.NewPool(0)
		pull := protocol.NewPULL(0)
		defer pull.Close()

		pull.Dispatch(buffer.NewMessage(pool, []byte("one"), nil, 1))
		pull.Dispatch(buffer.NewMessage(pool, []byte("two"), nil, 1))

		first, err := pull.Recv(time.Now().Add(time.Second))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(first)).To(Equal("one"))

		second, err := pull.Recv(time.Now().Add(time.Second))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(second)).To(Equal("two"))
	})

	It("fails PUSH.Recv and PULL.Send with ErrNotSupported", func() {
		push := protocol.NewPUSH(nil)
		defer push.Close()
		_, err := push.Recv(time.Time{})
		Expect(errkind.Is(err, errkind.KindNotSupported)).To(BeTrue())

		pull := protocol.NewPULL(0)
		defer pull.Close()
		err = pull.Send([]byte("x"))
		Expect(errkind.Is(err, errkind.KindNotSupported)).To(BeTrue())
	})
})
