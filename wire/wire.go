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

// Package wire encodes and decodes the small header the correlated
// patterns (REQ/REP, SURVEYOR/RESPONDENT) prepend to their payload: a
// backtrace of zero or more big-endian peer-id words followed by a
// 32-bit correlation id with the high bit set. PUB/SUB, PUSH/PULL,
// BUS, and PAIR carry no header at all.
package wire

import (
	"encoding/binary"
	"fmt"
)

// correlationFlag is bit 31, set on every outstanding request or
// survey identifier and cleared on none of them; it exists so a
// receiver can tell a correlation word from a plain backtrace word at
// a glance, matching mangos's wire layout for REQ/REP and SURVEY.
const correlationFlag uint32 = 0x8000_0000

// wordSize is the width, in bytes, of one backtrace or correlation
// word.
const wordSize = 4

// WithCorrelation sets the correlation flag on id, forcing it into the
// high-bit-set half of the 32-bit space reserved for request and
// survey identifiers.
func WithCorrelation(id uint32) uint32 {
	return id | correlationFlag
}

// HasCorrelation reports whether id carries the correlation flag.
func HasCorrelation(id uint32) bool {
	return id&correlationFlag != 0
}

// ClearCorrelation strips the correlation flag, returning the 31-bit
// identifier space value.
func ClearCorrelation(id uint32) uint32 {
	return id &^ correlationFlag
}

// EncodeHeader lays out backtrace words (in order, each a peer
// identifier contributed by an intermediary) followed by the
// correlation id, each as a big-endian uint32. The returned slice is
// always len(backtrace)*4 + 4 bytes.
func EncodeHeader(backtrace []uint32, id uint32) []byte {
	h := make([]byte, (len(backtrace)+1)*wordSize)
	off := 0
	for _, w := range backtrace {
		binary.BigEndian.PutUint32(h[off:], w)
		off += wordSize
	}
	binary.BigEndian.PutUint32(h[off:], id)
	return h
}

// HeaderSize is the width, in bytes, of a correlation header carrying
// no backtrace words — what every message this library originates
// carries, since no intermediary/proxy hop here ever grows one.
const HeaderSize = wordSize

// SplitInbound carves the leading correlation word off an inbound
// datagram that a correlated pattern (REQ/REP, SURVEYOR/RESPONDENT)
// receives, undoing the prefix Message.Wire applied on the sending
// side. It reports ok=false if payload is too short to hold one.
func SplitInbound(payload []byte) (header, rest []byte, ok bool) {
	if len(payload) < HeaderSize {
		return nil, payload, false
	}
	return payload[:HeaderSize], payload[HeaderSize:], true
}

// DecodeHeader splits header into its backtrace words and trailing
// correlation id. header must be a positive multiple of 4 bytes; the
// last word is always taken as the correlation id regardless of
// whether its high bit happens to be set, since pure endpoints treat
// backtrace words as opaque and never inspect them.
func DecodeHeader(header []byte) (backtrace []uint32, id uint32, err error) {
	if len(header) == 0 || len(header)%wordSize != 0 {
		return nil, 0, fmt.Errorf("wire: header length %d is not a positive multiple of %d", len(header), wordSize)
	}

	words := len(header) / wordSize
	if words > 1 {
		backtrace = make([]uint32, words-1)
		for i := 0; i < words-1; i++ {
			backtrace[i] = binary.BigEndian.Uint32(header[i*wordSize:])
		}
	}
	id = binary.BigEndian.Uint32(header[(words-1)*wordSize:])
	return backtrace, id, nil
}
