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

package transport

import (
	"errors"
	"net"
	"syscall"

	"github.com/nabbar/spsock/errkind"
)

// mapErr classifies a raw net/syscall error into the taxonomy §7
// expects from a transport driver. Errors this function does not
// recognize are returned unchanged; the Listener's demux loop applies
// its own temporary-vs-permanent classification (isTemporary) to the
// raw read errors it sees.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, net.ErrClosed) {
		return errkind.Wrap(errkind.KindClosed, op, "", err)
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return errkind.Wrap(errkind.KindTimeout, op, "", err)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return errkind.Wrap(errkind.KindConnRefused, op, "", err)
	}
	if errors.Is(err, syscall.EADDRINUSE) {
		return errkind.Wrap(errkind.KindAddrInUse, op, "", err)
	}
	return err
}

// isTemporary reports whether err is a transient condition
// (EAGAIN/EINTR) that the Listener's demux loop retries immediately
// rather than treating as a permanent failure.
func isTemporary(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EINTR)
}
