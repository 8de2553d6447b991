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

package errkind_test

import (
	"errors"
	"fmt"

	"github.com/nabbar/spsock/errkind"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("errkind", func() {
	Describe("New", func() {
		It("matches the sentinel for its Kind via errors.Is", func() {
			err := errkind.New(errkind.KindInvalidState, "rep.Send")
			Expect(errors.Is(err, errkind.ErrInvalidState)).To(BeTrue())
			Expect(errors.Is(err, errkind.ErrClosed)).To(BeFalse())
		})
	})

	Describe("Wrap", func() {
		It("keeps the cause reachable via errors.Unwrap", func() {
			cause := fmt.Errorf("econnrefused")
			err := errkind.Wrap(errkind.KindConnRefused, "socket.Dial", "unix:///tmp/t.sock", cause)
			Expect(errors.Is(err, errkind.ErrConnRefused)).To(BeTrue())
			Expect(errors.Unwrap(err)).To(Equal(cause))
			Expect(err.Error()).To(ContainSubstring("socket.Dial"))
			Expect(err.Error()).To(ContainSubstring("unix:///tmp/t.sock"))
		})

		It("matches through multiple layers of fmt.Errorf wrapping", func() {
			err := errkind.Wrap(errkind.KindTimeout, "req.Recv", "", nil)
			wrapped := fmt.Errorf("outer: %w", err)
			Expect(errors.Is(wrapped, errkind.ErrTimeout)).To(BeTrue())
		})
	})

	Describe("Is", func() {
		It("reports true for a matching Kind reached through Unwrap chains", func() {
			err := fmt.Errorf("ctx: %w", errkind.Wrap(errkind.KindBusy, "pair.accept", "", nil))
			Expect(errkind.Is(err, errkind.KindBusy)).To(BeTrue())
			Expect(errkind.Is(err, errkind.KindNotFound)).To(BeFalse())
		})
	})

	Describe("Kind.String", func() {
		It("renders every taxonomy Kind to a non-empty, distinct label", func() {
			kinds := []errkind.Kind{
				errkind.KindClosed, errkind.KindTimeout, errkind.KindInvalidState,
				errkind.KindNoPeer, errkind.KindNotConnected, errkind.KindNotSupported,
				errkind.KindBusy, errkind.KindNotFound, errkind.KindMessageTooLarge,
				errkind.KindAddrInUse, errkind.KindConnRefused, errkind.KindInvalidAddress,
				errkind.KindAlreadyListening,
			}
			seen := map[string]bool{}
			for _, k := range kinds {
				s := k.String()
				Expect(s).NotTo(BeEmpty())
				Expect(seen[s]).To(BeFalse(), "duplicate label %q", s)
				seen[s] = true
			}
		})
	})
})
