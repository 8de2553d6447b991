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

package socket

import (
	"net"
	"strings"

	"github.com/nabbar/spsock/errkind"
)

// addrInfo is the parsed form of one of the two address schemes
// §6.2 recognizes. The textual form itself is never retained beyond
// this parse.
type addrInfo struct {
	network string // "unixgram" or "udp"
	address string
}

const (
	schemeUnix = "unix://"
	schemeIP   = "ip://"
)

// parseAddress recognizes unix://<path> and ip://<host>:<port>
// (IPv6 hosts bracketed). Any other scheme fails-with
// ErrInvalidAddress.
func parseAddress(raw string) (addrInfo, error) {
	switch {
	case strings.HasPrefix(raw, schemeUnix):
		path := strings.TrimPrefix(raw, schemeUnix)
		if path == "" {
			return addrInfo{}, errkind.Wrap(errkind.KindInvalidAddress, "socket.parseAddress", raw, nil)
		}
		return addrInfo{network: "unixgram", address: path}, nil
	case strings.HasPrefix(raw, schemeIP):
		hostport := strings.TrimPrefix(raw, schemeIP)
		if hostport == "" {
			return addrInfo{}, errkind.Wrap(errkind.KindInvalidAddress, "socket.parseAddress", raw, nil)
		}
		return addrInfo{network: "udp", address: hostport}, nil
	default:
		return addrInfo{}, errkind.Wrap(errkind.KindInvalidAddress, "socket.parseAddress", raw, nil)
	}
}

// resolveRemote returns a net.Addr for info without opening any
// socket, used to register a dial-side peer under the address it was
// dialed with (the kernel-level net.Conn a dialDriver wraps does
// expose RemoteAddr, but transport.Driver does not, so the facade
// resolves it independently for peer bookkeeping).
func resolveRemote(info addrInfo) (net.Addr, error) {
	switch info.network {
	case "unixgram":
		a, err := net.ResolveUnixAddr("unixgram", info.address)
		if err != nil {
			return nil, errkind.Wrap(errkind.KindInvalidAddress, "socket.resolveRemote", info.address, err)
		}
		return a, nil
	case "udp":
		a, err := net.ResolveUDPAddr("udp", info.address)
		if err != nil {
			return nil, errkind.Wrap(errkind.KindInvalidAddress, "socket.resolveRemote", info.address, err)
		}
		return a, nil
	default:
		return nil, errkind.New(errkind.KindInvalidAddress, "socket.resolveRemote")
	}
}
