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

package socket_test

import (
	"fmt"
	"time"

	"github.com/nabbar/spsock/errkind"
	"github.com/nabbar/spsock/socket"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SURVEY collection window", func() {
	It("collects only the responses that answer within the window and times out on the rest", func() {
		addr := tempUnixAddr("survey")

		surveyor := socket.NewSURVEYOR()
		defer surveyor.Close()
		Expect(surveyor.Listen(addr)).To(Succeed())

		delays := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 200 * time.Millisecond}
		respondents := make([]*socket.Socket, len(delays))
		for i, delay := range delays {
			r := socket.NewRESPONDENT()
			defer r.Close()
			Expect(r.DialAndWait(addr, time.Now().Add(2*time.Second))).To(Succeed())
			respondents[i] = r

			go func(r *socket.Socket, delay time.Duration, tag int) {
				defer GinkgoRecover()
				payload, err := r.RecvWithDeadline(time.Now().Add(2 * time.Second))
				if err != nil {
					return
				}
				_ = payload
				time.Sleep(delay)
				_ = r.Send([]byte(fmt.Sprintf("reply-%d", tag)))
			}(r, delay, i)
		}

		Eventually(func() int { return surveyor.Stats().Peers }).Should(Equal(3))

		deadline := time.Now().Add(50 * time.Millisecond)
		Expect(surveyor.SendWithDeadline([]byte("ping"), deadline)).To(Succeed())

		got := map[string]bool{}
		for {
			reply, err := surveyor.Recv()
			if err != nil {
				Expect(errkind.Is(err, errkind.KindTimeout)).To(BeTrue())
				break
			}
			got[string(reply)] = true
		}

		Expect(got).To(HaveLen(2))
		Expect(got["reply-0"]).To(BeTrue())
		Expect(got["reply-1"]).To(BeTrue())
		Expect(got["reply-2"]).To(BeFalse())
	})
})
