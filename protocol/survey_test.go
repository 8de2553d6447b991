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

var _ = Describe("SURVEYOR/RESPONDENT", func() {
	It("collects a matching response within the survey window", func() {
		router, peers, _ := newHarness(1)
		p := peers[0]
		c, _ := router.ConnectionFor(p)

		surveyor := protocol.NewSURVEYOR(router)
		respondent := protocol.NewRESPONDENT(router)
		defer surveyor.Close()
		defer respondent.Close()

		Expect(surveyor.Send([]byte("ping"), time.Second)).To(Succeed())

		var survey *buffer.Message
		Eventually(c.Outbound, time.Second).Should(Receive(&survey))
		respondent.Dispatch(survey)

		payload, err := respondent.Recv(time.Now().Add(time.Second))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(payload)).To(Equal("ping"))

		Expect(respondent.Send([]byte("pong"))).To(Succeed())

		var reply *buffer.Message
		Eventually(c.Outbound, time.Second).Should(Receive(&reply))
		surveyor.Dispatch(reply)

		got, err := surveyor.Recv()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(got)).To(Equal("pong"))
	})

	It("fails Recv with ErrTimeout once the collection window elapses", func() {
		router, _, _ := newHarness(1)
		surveyor := protocol.NewSURVEYOR(router)
		defer surveyor.Close()

		Expect(surveyor.Send([]byte("ping"), 20*time.Millisecond)).To(Succeed())
		_, err := surveyor.Recv()
		Expect(errkind.Is(err, errkind.KindTimeout)).To(BeTrue())
	})

	It("fails RESPONDENT.Send with ErrInvalidState from Idle", func() {
		router, _, _ := newHarness(1)
		respondent := protocol.NewRESPONDENT(router)
		defer respondent.Close()

		err := respondent.Send([]byte("pong"))
		Expect(errkind.Is(err, errkind.KindInvalidState)).To(BeTrue())
	})

	It("a second Send terminates the first survey; its late response is discarded", func() {
		router, peers, _ := newHarness(1)
		p := peers[0]
		c, _ := router.ConnectionFor(p)

		surveyor := protocol.NewSURVEYOR(router)
		defer surveyor.Close()

		Expect(surveyor.Send([]byte("first"), time.Second)).To(Succeed())
		var first *buffer.Message
		Eventually(c.Outbound, time.Second).Should(Receive(&first))

		Expect(surveyor.Send([]byte("second"), time.Second)).To(Succeed())
		var second *buffer.Message
		Eventually(c.Outbound, time.Second).Should(Receive(&second))

		stale := buffer.NewMessage(surveyorPool(router), append([]byte(nil), first.Payload...), nil, p.ID)
		stale.Header = append([]byte(nil), first.Header...)
		surveyor.Dispatch(stale)

		fresh := buffer.NewMessage(surveyorPool(router), append([]byte(nil), second.Payload...), nil, p.ID)
		fresh.Header = append([]byte(nil), second.Header...)
		surveyor.Dispatch(fresh)

		got, err := surveyor.Recv()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(got)).To(Equal("second"))

		first.Release()
		second.Release()
	})
})

func surveyorPool(router *protocol.Router) *buffer.Pool {
	return router.Pool
}
