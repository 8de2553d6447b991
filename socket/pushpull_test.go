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

	"github.com/nabbar/spsock/socket"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PUSH/PULL round-robin", func() {
	It("spreads sends evenly across every connected PULL peer", func() {
		addr := tempUnixAddr("pushpull")

		push := socket.NewPUSH()
		defer push.Close()
		Expect(push.Listen(addr)).To(Succeed())

		pullers := make([]*socket.Socket, 3)
		for i := range pullers {
			p := socket.NewPULL()
			defer p.Close()
			Expect(p.DialAndWait(addr, time.Now().Add(2*time.Second))).To(Succeed())
			pullers[i] = p
		}

		Eventually(func() int { return push.Stats().Peers }).Should(Equal(3))

		for i := 0; i < 9; i++ {
			msg := fmt.Sprintf("t-%d", i)
			Expect(push.SendWithDeadline([]byte(msg), time.Now().Add(2*time.Second))).To(Succeed())
		}

		received := map[string]int{}
		perPeer := make([]int, len(pullers))
		for i, p := range pullers {
			for {
				payload, err := p.RecvWithDeadline(time.Now().Add(200 * time.Millisecond))
				if err != nil {
					break
				}
				received[string(payload)]++
				perPeer[i]++
			}
		}

		Expect(received).To(HaveLen(9))
		for _, count := range received {
			Expect(count).To(Equal(1))
		}
		for _, count := range perPeer {
			Expect(count).To(Equal(3))
		}
	})
})
