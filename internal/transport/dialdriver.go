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
	"net"
	"time"

	"github.com/nabbar/spsock/errkind"
)

// dialDriver wraps a connected net.Conn (as returned by DialUnixgram
// or DialUDP): the kernel already filters inbound datagrams to the
// one remote address dialed, so no demultiplexing is needed.
type dialDriver struct {
	conn    net.Conn
	maxSize int
}

func newDialDriver(conn net.Conn, maxSize int) *dialDriver {
	return &dialDriver{conn: conn, maxSize: maxSize}
}

func (d *dialDriver) Send(b []byte, _ net.Addr) (int, error) {
	if len(b) > d.maxSize {
		return 0, errkind.New(errkind.KindMessageTooLarge, "transport.Send")
	}
	n, err := d.conn.Write(b)
	return n, mapErr("transport.Send", err)
}

func (d *dialDriver) Recv() ([]byte, net.Addr, error) {
	buf := make([]byte, d.maxSize)
	n, err := d.conn.Read(buf)
	if err != nil {
		return nil, nil, mapErr("transport.Recv", err)
	}
	return buf[:n], d.conn.RemoteAddr(), nil
}

func (d *dialDriver) Close() error {
	return mapErr("transport.Close", d.conn.Close())
}

func (d *dialDriver) LocalAddr() net.Addr {
	return d.conn.LocalAddr()
}

func (d *dialDriver) SetDeadline(t time.Time) error {
	return d.conn.SetDeadline(t)
}

func (d *dialDriver) SetReadDeadline(t time.Time) error {
	return d.conn.SetReadDeadline(t)
}

func (d *dialDriver) SetWriteDeadline(t time.Time) error {
	return d.conn.SetWriteDeadline(t)
}
