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

var _ = Describe("PUB", func() {
	It("clones a message to every connected peer", func() {
		router, peers, _ := newHarness(3)
		pub := protocol.NewPUB(router)
		defer pub.Close()

		Expect(pub.Send([]byte("tick"))).To(Succeed())

		for _, p := range peers {
			c, _ := router.ConnectionFor(p)
			var msg *buffer.Message
			Eventually(c.Outbound, time.Second).Should(Receive(&msg))
			Expect(string(msg.Payload)).To(Equal("tick"))
			msg.Release()
		}
	})

	It("fails Recv with ErrNotSupported", func() {
		pub := protocol.NewPUB(nil)
		_, err := pub.Recv(time.Time{})
		Expect(errkind.Is(err, errkind.KindNotSupported)).To(BeTrue())
	})
})

var _ = Describe("SUB", func() {
	It("forwards only payloads matching a registered prefix", func() {
		pool := buffer.NewPool(0)
		sub := protocol.NewSUB(0, true)
		defer sub.Close()

		sub.Subscribe([]byte("news."))

		match := buffer.NewMessage(pool, []byte("news.weather"), nil, 1)
		noMatch := buffer.NewMessage(pool, []byte("sports.score"), nil, 1)

		sub.Dispatch(match)
		sub.Dispatch(noMatch)

		payload, err := sub.Recv(time.Now().Add(time.Second))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(payload)).To(Equal("news.weather"))

		_, err = sub.Recv(time.Now().Add(20 * time.Millisecond))
		Expect(errkind.Is(err, errkind.KindTimeout)).To(BeTrue())
	})

	It("treats the empty prefix as matching everything", func() {
		pool := buffer.NewPool(0)
		sub := protocol.NewSUB(0, true)
		defer sub.Close()

		sub.Subscribe(nil)
		sub.Dispatch(buffer.NewMessage(pool, []byte("anything"), nil, 1))

		payload, err := sub.Recv(time.Now().Add(time.Second))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(payload)).To(Equal("anything"))
	})

	It("fails Unsubscribe with ErrNotFound for an unregistered prefix", func() {
		sub := protocol.NewSUB(0, true)
		defer sub.Close()

		err := sub.Unsubscribe([]byte("missing."))
		Expect(errkind.Is(err, errkind.KindNotFound)).To(BeTrue())
	})

	It("silently ignores a duplicate Subscribe", func() {
		sub := protocol.NewSUB(0, true)
		defer sub.Close()

		sub.Subscribe([]byte("a."))
		sub.Subscribe([]byte("a."))
		Expect(sub.Unsubscribe([]byte("a."))).To(Succeed())
		Expect(sub.Unsubscribe([]byte("a."))).NotTo(Succeed())
	})

	It("evicts the oldest filtered entry under the drop-oldest policy", func() {
		pool := buffer.NewPool(0)
		sub := protocol.NewSUB(1, true)
		defer sub.Close()
		sub.Subscribe(nil)

		sub.Dispatch(buffer.NewMessage(pool, []byte("one"), nil, 1))
		sub.Dispatch(buffer.NewMessage(pool, []byte("two"), nil, 1))

		payload, err := sub.Recv(time.Now().Add(time.Second))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(payload)).To(Equal("two"))
	})

	It("rejects the new entry when the drop-oldest policy is disabled", func() {
		pool := buffer.NewPool(0)
		sub := protocol.NewSUB(1, false)
		defer sub.Close()
		sub.Subscribe(nil)

		sub.Dispatch(buffer.NewMessage(pool, []byte("one"), nil, 1))
		sub.Dispatch(buffer.NewMessage(pool, []byte("two"), nil, 1))

		payload, err := sub.Recv(time.Now().Add(time.Second))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(payload)).To(Equal("one"))
	})

	It("fails Send with ErrNotSupported", func() {
		sub := protocol.NewSUB(0, true)
		defer sub.Close()
		err := sub.Send([]byte("x"))
		Expect(errkind.Is(err, errkind.KindNotSupported)).To(BeTrue())
	})
})
