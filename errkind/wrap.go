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

package errkind

import "fmt"

// opError carries operation-site context around a Kind without
// collapsing it: errors.Is still matches against the Kind's sentinel,
// and errors.As still reaches a wrapped cause.
type opError struct {
	kind  Kind
	op    string
	addr  string
	cause error
}

func (e *opError) Error() string {
	switch {
	case e.addr != "" && e.cause != nil:
		return fmt.Sprintf("spsock: %s %s: %s: %v", e.op, e.addr, e.kind, e.cause)
	case e.addr != "":
		return fmt.Sprintf("spsock: %s %s: %s", e.op, e.addr, e.kind)
	case e.cause != nil:
		return fmt.Sprintf("spsock: %s: %s: %v", e.op, e.kind, e.cause)
	default:
		return fmt.Sprintf("spsock: %s: %s", e.op, e.kind)
	}
}

// Unwrap exposes the wrapped cause, if any, to errors.As/errors.Unwrap.
func (e *opError) Unwrap() error {
	return e.cause
}

// Is reports whether target is the sentinel for this error's Kind, so
// errors.Is(err, errkind.ErrClosed) matches regardless of how many
// times the error was wrapped.
func (e *opError) Is(target error) bool {
	return sentinelOf(e.kind) == target
}

// Kind returns the taxonomy Kind this error belongs to.
func (e *opError) Kind() Kind {
	return e.kind
}

// New builds an operation-site error of the given Kind with no
// wrapped cause and no address, e.g. New(KindInvalidState, "rep.Send").
func New(k Kind, op string) error {
	return &opError{kind: k, op: op}
}

// Wrap builds an operation-site error of the given Kind, attaching the
// address the operation targeted and the underlying cause, if any.
// addr may be empty for operations with no address (e.g. Send/Recv).
func Wrap(k Kind, op, addr string, cause error) error {
	return &opError{kind: k, op: op, addr: addr, cause: cause}
}

// Is reports whether err is, or wraps, an error of kind k. It is a
// thin convenience over errors.Is(err, sentinelOf(k)) for callers that
// already have a Kind value in hand rather than one of the Err*
// sentinels.
func Is(err error, k Kind) bool {
	type kinder interface{ Kind() Kind }
	for err != nil {
		if ke, ok := err.(kinder); ok && ke.Kind() == k {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
