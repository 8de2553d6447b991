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
	"github.com/nabbar/spsock/conn"
	"github.com/nabbar/spsock/errkind"
	"github.com/nabbar/spsock/internal/transport"
	"github.com/nabbar/spsock/peer"
	"github.com/nabbar/spsock/protocol"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("REQ/REP", func() {
	It("round-trips a request through to a matching reply", func() {
		router, peers, _ := newHarness(1)
		p := peers[0]
		c, ok := router.ConnectionFor(p)
		Expect(ok).To(BeTrue())

		req := protocol.NewREQ(router, 0)
		rep := protocol.NewREP(router)
		defer req.Close()
		defer rep.Close()

		sendErr := make(chan error, 1)
		go func() { sendErr <- req.Send([]byte("ping"), time.Time{}) }()

		var out *buffer.Message
		Eventually(c.Outbound, time.Second).Should(Receive(&out))
		Expect(<-sendErr).NotTo(HaveOccurred())

		rep.Dispatch(out)

		payload, err := rep.Recv(time.Time{})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(payload)).To(Equal("ping"))

		Expect(rep.Send([]byte("pong"))).To(Succeed())

		var reply *buffer.Message
		Eventually(c.Outbound, time.Second).Should(Receive(&reply))

		req.Dispatch(reply)

		got, err := req.Recv(time.Time{})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(got)).To(Equal("pong"))
	})

	It("fails REQ.Send with ErrNoPeer when nothing is connected", func() {
		router, _, _ := newHarness(0)
		req := protocol.NewREQ(router, 0)
		defer req.Close()

		err := req.Send([]byte("ping"), time.Time{})
		Expect(errkind.Is(err, errkind.KindNoPeer)).To(BeTrue())
	})

	It("discards a reply carrying a stale identifier", func() {
		router, peers, pool := newHarness(1)
		p := peers[0]
		c, _ := router.ConnectionFor(p)

		req := protocol.NewREQ(router, 0)
		defer req.Close()

		go req.Send([]byte("first"), time.Time{})
		var first *buffer.Message
		Eventually(c.Outbound, time.Second).Should(Receive(&first))

		go req.Send([]byte("second"), time.Time{})
		var second *buffer.Message
		Eventually(c.Outbound, time.Second).Should(Receive(&second))

		stale := buffer.NewMessage(pool, append([]byte(nil), first.Payload...), nil, p.ID)
		stale.Header = append([]byte(nil), first.Header...)
		req.Dispatch(stale)

		fresh := buffer.NewMessage(pool, append([]byte(nil), second.Payload...), nil, p.ID)
		fresh.Header = append([]byte(nil), second.Header...)
		req.Dispatch(fresh)

		got, err := req.Recv(time.Now().Add(time.Second))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(got)).To(Equal("second"))

		first.Release()
		second.Release()
	})

	It("fails REP.Send with ErrInvalidState when called from Idle", func() {
		router, _, _ := newHarness(1)
		rep := protocol.NewREP(router)
		defer rep.Close()

		err := rep.Send([]byte("pong"))
		Expect(errkind.Is(err, errkind.KindInvalidState)).To(BeTrue())
	})

	It("releases REQ/REP waiters with ErrClosed on Close", func() {
		router, _, _ := newHarness(1)
		req := protocol.NewREQ(router, 0)
		rep := protocol.NewREP(router)

		req.Close()
		rep.Close()

		_, err := req.Recv(time.Time{})
		Expect(errkind.Is(err, errkind.KindClosed)).To(BeTrue())

		_, err = rep.Recv(time.Time{})
		Expect(errkind.Is(err, errkind.KindClosed)).To(BeTrue())
	})

	It("blocks Send until a peer appears when resend is configured", func() {
		router, _, pool := newHarness(0)
		req := protocol.NewREQ(router, 20*time.Millisecond)
		defer req.Close()

		sendErr := make(chan error, 1)
		go func() { sendErr <- req.Send([]byte("ping"), time.Now().Add(time.Second)) }()

		Consistently(sendErr, 50*time.Millisecond).ShouldNot(Receive())

		drv, err := transport.DialUDP("127.0.0.1:39100")
		Expect(err).NotTo(HaveOccurred())
		id, p := router.Peers.Add(drv.LocalAddr())
		p.SetState(peer.Connected)
		c := conn.New(id, id, drv, pool, 0, 0, nil)
		router.Conns.Register(c)

		Eventually(sendErr, time.Second).Should(Receive(BeNil()))
		Eventually(c.Outbound, time.Second).Should(Receive())
	})

	It("resends the outstanding request on an interval until answered", func() {
		router, peers, _ := newHarness(1)
		p := peers[0]
		c, _ := router.ConnectionFor(p)

		req := protocol.NewREQ(router, 20*time.Millisecond)
		defer req.Close()

		go req.Send([]byte("ping"), time.Time{})

		var first *buffer.Message
		Eventually(c.Outbound, time.Second).Should(Receive(&first))
		var resend *buffer.Message
		Eventually(c.Outbound, time.Second).Should(Receive(&resend))

		Expect(resend.Header).To(Equal(first.Header))
		first.Release()
		resend.Release()
	})
})

var _ = Describe("peer lookup", func() {
	It("exposes the Connected filter used by every engine", func() {
		router, peers, _ := newHarness(2)
		peers[1].SetState(peer.Disconnected)

		connected := router.Connected()
		Expect(connected).To(HaveLen(1))
		Expect(connected[0].ID).To(Equal(peers[0].ID))
	})
})
