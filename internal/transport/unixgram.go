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
	"fmt"
	"net"
	"os"
	"strings"
	"sync/atomic"

	"github.com/nabbar/spsock/errkind"
	"github.com/nabbar/spsock/file/perm"
)

// dialSeq numbers this process's DialUnixgram calls so each gets a
// distinct autobind address; the Linux abstract namespace ('@' prefix,
// per IsAbstract) needs no filesystem cleanup.
var dialSeq atomic.Uint64

// autobindAddr returns a local address unique to this process and
// call, required because an unbound Unix datagram socket reaches its
// peer as unnamed: the server could never demultiplex two such clients
// apart, nor address a reply back to either of them.
func autobindAddr() *net.UnixAddr {
	n := dialSeq.Add(1)
	return &net.UnixAddr{Net: "unixgram", Name: fmt.Sprintf("@spsock-dial-%d-%d", os.Getpid(), n)}
}

// IsAbstract reports whether path selects the Linux abstract
// namespace (a leading '@'), for which no socket file is created and
// no cleanup on Close is required.
func IsAbstract(path string) bool {
	return strings.HasPrefix(path, "@")
}

// UnixgramConfig carries the socket-file permission and ownership
// options applied by ListenUnixgram once it has bound the file; it is
// a no-op for abstract-namespace addresses.
type UnixgramConfig struct {
	PermFile  perm.Perm
	GroupPerm perm.GroupPerm
}

// DialUnixgram connects a Unix datagram socket to path, returning a
// Driver bound to that single remote.
func DialUnixgram(path string) (Driver, error) {
	raddr, err := net.ResolveUnixAddr("unixgram", path)
	if err != nil {
		return nil, errkind.Wrap(errkind.KindInvalidAddress, "transport.Dial", path, err)
	}

	conn, err := net.DialUnix("unixgram", autobindAddr(), raddr)
	if err != nil {
		return nil, mapErr("transport.Dial", err)
	}
	return newDialDriver(conn, MaxSizeUnixgram), nil
}

// ListenUnixgram binds path and returns a Listener that demultiplexes
// inbound datagrams by source address. Non-abstract paths have their
// socket file's permission and group ownership set per cfg, and that
// file is removed when the returned Listener is closed.
func ListenUnixgram(path string, cfg UnixgramConfig) (*Listener, error) {
	laddr, err := net.ResolveUnixAddr("unixgram", path)
	if err != nil {
		return nil, errkind.Wrap(errkind.KindInvalidAddress, "transport.Listen", path, err)
	}

	pc, err := net.ListenUnixgram("unixgram", laddr)
	if err != nil {
		return nil, mapErr("transport.Listen", err)
	}

	abstract := IsAbstract(path)
	if !abstract {
		if cfg.PermFile != 0 {
			_ = os.Chmod(path, os.FileMode(cfg.PermFile))
		}
		if cfg.GroupPerm != perm.GroupPermUnset {
			_ = os.Chown(path, -1, int(cfg.GroupPerm))
		}
	}

	cleanup := func() {}
	if !abstract {
		cleanup = func() { _ = os.Remove(path) }
	}
	return newListener(pc, MaxSizeUnixgram, cleanup), nil
}
