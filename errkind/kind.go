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

// Package errkind defines the error taxonomy shared by every spsock
// component: a small closed set of Kind values, one sentinel error per
// Kind, and a wrapper that attaches operation-site context (operation
// name, address) without hiding the underlying Kind from errors.Is.
package errkind

// Kind identifies the category of an spsock error, independent of the
// operation or component that produced it.
type Kind int

const (
	// KindClosed is returned by any operation on a socket, connection,
	// or transport after Close, and by blocking calls unblocked by the
	// socket-wide cancellation signal.
	KindClosed Kind = iota + 1
	// KindTimeout is returned when a caller-specified or default
	// deadline elapses before an operation completes.
	KindTimeout
	// KindInvalidState is returned by REP.Send and RESPONDENT.Send
	// when called while the engine is Idle.
	KindInvalidState
	// KindNoPeer is returned by REQ.Send when no connected peer is
	// available and the socket is not configured to wait.
	KindNoPeer
	// KindNotConnected is returned by PAIR.Send/Recv when the single
	// peer slot is empty.
	KindNotConnected
	// KindNotSupported is returned for the unsupported direction of a
	// one-way pattern (e.g. PUB.Recv, PUSH.Recv).
	KindNotSupported
	// KindBusy is returned to a second inbound PAIR connection while
	// a peer is already connected.
	KindBusy
	// KindNotFound is returned by Unsubscribe for a prefix that is not
	// currently registered.
	KindNotFound
	// KindMessageTooLarge is returned when a payload exceeds the
	// transport's maximum message size.
	KindMessageTooLarge
	// KindAddrInUse is returned by Listen when the address is already
	// bound.
	KindAddrInUse
	// KindConnRefused marks a refused dial attempt. The dialer task
	// passes it to the RegisterFuncError callback and retries;
	// DialAndWait keeps waiting and reports KindTimeout at its deadline.
	KindConnRefused
	// KindInvalidAddress is returned by the address parser for an
	// unrecognized scheme or malformed address.
	KindInvalidAddress
	// KindAlreadyListening is returned by Listen when the socket
	// already owns a listener.
	KindAlreadyListening
)

// String renders the Kind using the taxonomy names from the error
// handling design table.
func (k Kind) String() string {
	switch k {
	case KindClosed:
		return "closed"
	case KindTimeout:
		return "timeout"
	case KindInvalidState:
		return "invalid-state"
	case KindNoPeer:
		return "no-peer"
	case KindNotConnected:
		return "not-connected"
	case KindNotSupported:
		return "not-supported"
	case KindBusy:
		return "busy"
	case KindNotFound:
		return "not-found"
	case KindMessageTooLarge:
		return "message-too-large"
	case KindAddrInUse:
		return "addr-in-use"
	case KindConnRefused:
		return "conn-refused"
	case KindInvalidAddress:
		return "invalid-address"
	case KindAlreadyListening:
		return "already-listening"
	default:
		return "unknown"
	}
}

// sentinel is the concrete type behind every exported Err* value. It
// carries no operation context; New/Wrap attach that around it.
type sentinel struct {
	kind Kind
}

func (e *sentinel) Error() string { return e.kind.String() }

func (e *sentinel) Kind() Kind { return e.kind }

// Exported sentinels, one per Kind, matching §7 of SPEC_FULL.md.
var (
	ErrClosed           error = &sentinel{kind: KindClosed}
	ErrTimeout          error = &sentinel{kind: KindTimeout}
	ErrInvalidState     error = &sentinel{kind: KindInvalidState}
	ErrNoPeer           error = &sentinel{kind: KindNoPeer}
	ErrNotConnected     error = &sentinel{kind: KindNotConnected}
	ErrNotSupported     error = &sentinel{kind: KindNotSupported}
	ErrBusy             error = &sentinel{kind: KindBusy}
	ErrNotFound         error = &sentinel{kind: KindNotFound}
	ErrMessageTooLarge  error = &sentinel{kind: KindMessageTooLarge}
	ErrAddrInUse        error = &sentinel{kind: KindAddrInUse}
	ErrConnRefused      error = &sentinel{kind: KindConnRefused}
	ErrInvalidAddress   error = &sentinel{kind: KindInvalidAddress}
	ErrAlreadyListening error = &sentinel{kind: KindAlreadyListening}
)

// sentinelOf returns the package sentinel for k, used by New/Wrap so
// every wrapped error still compares equal via errors.Is to the
// matching exported Err* value.
func sentinelOf(k Kind) error {
	switch k {
	case KindClosed:
		return ErrClosed
	case KindTimeout:
		return ErrTimeout
	case KindInvalidState:
		return ErrInvalidState
	case KindNoPeer:
		return ErrNoPeer
	case KindNotConnected:
		return ErrNotConnected
	case KindNotSupported:
		return ErrNotSupported
	case KindBusy:
		return ErrBusy
	case KindNotFound:
		return ErrNotFound
	case KindMessageTooLarge:
		return ErrMessageTooLarge
	case KindAddrInUse:
		return ErrAddrInUse
	case KindConnRefused:
		return ErrConnRefused
	case KindInvalidAddress:
		return ErrInvalidAddress
	case KindAlreadyListening:
		return ErrAlreadyListening
	default:
		return &sentinel{kind: k}
	}
}
