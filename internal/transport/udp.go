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
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/nabbar/spsock/errkind"
)

// reuseAddrControl sets SO_REUSEADDR on the listening socket before
// bind, matching SPEC_FULL.md §4.1's "SO_REUSEADDR by default" for the
// UDP driver. net.ListenConfig has no built-in option for this; the
// raw syscall is reached through the connection's Control hook.
func reuseAddrControl(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// DialUDP connects a UDP socket to addr (host:port, IPv6 hosts
// bracketed), returning a Driver bound to that single remote.
func DialUDP(addr string) (Driver, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errkind.Wrap(errkind.KindInvalidAddress, "transport.Dial", addr, err)
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, mapErr("transport.Dial", err)
	}
	return newDialDriver(conn, MaxSizeUDP), nil
}

// ListenUDP binds addr and returns a Listener that demultiplexes
// inbound datagrams by source address.
func ListenUDP(addr string) (*Listener, error) {
	lc := net.ListenConfig{Control: reuseAddrControl}
	pc, err := lc.ListenPacket(context.Background(), "udp", addr)
	if err != nil {
		return nil, mapErr("transport.Listen", err)
	}
	return newListener(pc, MaxSizeUDP, nil), nil
}
