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

var _ = Describe("PAIR", func() {
	It("fails Send with ErrNotConnected while the slot is empty", func() {
		router, _, _ := newHarness(1)
		pair := protocol.NewPAIR(router, 0)
		defer pair.Close()

		err := pair.Send([]byte("hi"))
		Expect(errkind.Is(err, errkind.KindNotConnected)).To(BeTrue())
	})

	It("fails Recv with ErrNotConnected when the slot is empty and nothing is queued", func() {
		router, _, _ := newHarness(1)
		pair := protocol.NewPAIR(router, 0)
		defer pair.Close()

		_, err := pair.Recv(time.Now().Add(time.Second))
		Expect(errkind.Is(err, errkind.KindNotConnected)).To(BeTrue())
	})

	It("round-trips once bound to a peer", func() {
		router, peers, _ := newHarness(1)
		p := peers[0]
		c, _ := router.ConnectionFor(p)

		pair := protocol.NewPAIR(router, 0)
		defer pair.Close()

		Expect(pair.HasPeer()).To(BeFalse())
		pair.Bind(p.ID)
		Expect(pair.HasPeer()).To(BeTrue())

		Expect(pair.Send([]byte("ping"))).To(Succeed())

		var sent *buffer.Message
		Eventually(c.Outbound, time.Second).Should(Receive(&sent))
		Expect(string(sent.Payload)).To(Equal("ping"))
		sent.Release()

		pair.Dispatch(buffer.NewMessage(router.Pool, []byte("pong"), p.Addr, p.ID))
		payload, err := pair.Recv(time.Now().Add(time.Second))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(payload)).To(Equal("pong"))
	})

	It("empties the slot on Unbind, returning Send to ErrNotConnected", func() {
		router, peers, _ := newHarness(1)
		p := peers[0]

		pair := protocol.NewPAIR(router, 0)
		defer pair.Close()

		pair.Bind(p.ID)
		Expect(pair.HasPeer()).To(BeTrue())

		pair.Unbind(p.ID)
		Expect(pair.HasPeer()).To(BeFalse())

		err := pair.Send([]byte("ping"))
		Expect(errkind.Is(err, errkind.KindNotConnected)).To(BeTrue())
	})
})
