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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/nabbar/spsock/file/perm"
)

const (
	DefaultSendTimeout     = 30 * time.Second
	DefaultRecvTimeout     = 30 * time.Second
	DefaultDialTimeout     = 10 * time.Second
	DefaultReconnectMin    = 100 * time.Millisecond
	DefaultReconnectMax    = 10 * time.Second
	DefaultMaxMessageSize  = 65536
	DefaultAsyncSendBuffer = 64
	DefaultAsyncRecvBuffer = 64
	DefaultSurveyDeadline  = 1 * time.Second
)

// config carries every option recognized by SPEC_FULL.md §4.7's
// option table. Zero value is never used directly; defaultConfig
// supplies the package defaults, and Option values are applied on top.
type config struct {
	sendTimeout time.Duration
	recvTimeout time.Duration
	dialTimeout time.Duration

	sendQueueSize int
	recvQueueSize int

	reconnectMin time.Duration
	reconnectMax time.Duration

	maxMessageSize int

	asyncSendBuffer int
	asyncRecvBuffer int

	reqResendTime  time.Duration
	surveyDeadline time.Duration
	subDropOldest  bool

	log       *logrus.Logger
	metrics   *prometheus.Registry
	permFile  perm.Perm
	groupPerm perm.GroupPerm
}

func defaultConfig() *config {
	return &config{
		sendTimeout:     DefaultSendTimeout,
		recvTimeout:     DefaultRecvTimeout,
		dialTimeout:     DefaultDialTimeout,
		reconnectMin:    DefaultReconnectMin,
		reconnectMax:    DefaultReconnectMax,
		maxMessageSize:  DefaultMaxMessageSize,
		asyncSendBuffer: DefaultAsyncSendBuffer,
		asyncRecvBuffer: DefaultAsyncRecvBuffer,
		surveyDeadline:  DefaultSurveyDeadline,
		subDropOldest:   true,
		groupPerm:       perm.GroupPermUnset,
	}
}

// Option configures a Socket at construction time, following
// Atsika-aznet/options.go's functional-options idiom: one With*
// constructor per recognized option, applied in order over
// defaultConfig.
type Option func(*config)

func applyOptions(opts []Option) *config {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// WithSendTimeout sets the default deadline Send uses when no
// explicit deadline is passed to SendWithDeadline.
func WithSendTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.sendTimeout = d
		}
	}
}

// WithRecvTimeout sets the default deadline Recv uses when no
// explicit deadline is passed to RecvWithDeadline.
func WithRecvTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.recvTimeout = d
		}
	}
}

// WithDialTimeout records a per-attempt dial deadline in the
// configuration. The dialer task does not apply it: each attempt is a
// single datagram-socket dial with no deadline of its own.
func WithDialTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

// WithSendQueueSize bounds every connection's outbound queue. Zero
// selects conn.DefaultQueueSize.
func WithSendQueueSize(n int) Option {
	return func(c *config) { c.sendQueueSize = n }
}

// WithRecvQueueSize bounds every connection's inbound queue. Zero
// selects conn.DefaultQueueSize.
func WithRecvQueueSize(n int) Option {
	return func(c *config) { c.recvQueueSize = n }
}

// WithReconnect sets the exponential backoff window a dialer task
// retries within.
func WithReconnect(min, max time.Duration) Option {
	return func(c *config) {
		if min > 0 {
			c.reconnectMin = min
		}
		if max > 0 {
			c.reconnectMax = max
		}
	}
}

// WithMaxMessageSize caps the payload Send will accept; the driver
// enforces its own transport-specific ceiling independently on Recv.
func WithMaxMessageSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxMessageSize = n
		}
	}
}

// WithAsyncSendBuffer and WithAsyncRecvBuffer bound the facade-level
// channels used if an async surface is layered on top of Send/Recv.
func WithAsyncSendBuffer(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.asyncSendBuffer = n
		}
	}
}

func WithAsyncRecvBuffer(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.asyncRecvBuffer = n
		}
	}
}

// WithReqResendTime enables REQ's automatic resend of an outstanding
// request every d until a reply arrives or the socket closes. Zero
// disables automatic resend (the default).
func WithReqResendTime(d time.Duration) Option {
	return func(c *config) { c.reqResendTime = d }
}

// WithSurveyDeadline sets SURVEYOR's default response collection
// window.
func WithSurveyDeadline(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.surveyDeadline = d
		}
	}
}

// WithSubDropOldest selects SUB's filtered-queue back-pressure policy:
// true evicts the oldest buffered payload to make room, false rejects
// the newest arrival. Defaults to true.
func WithSubDropOldest(dropOldest bool) Option {
	return func(c *config) { c.subDropOldest = dropOldest }
}

// WithLogger injects the *logrus.Logger the socket derives its
// per-instance *logrus.Entry from. The library never configures its
// output, level, or formatter; that remains the embedding
// application's job.
func WithLogger(l *logrus.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetricsRegistry registers the socket's buffer pool and
// connection-count collectors against reg. Nothing is registered if
// this option is never supplied.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(c *config) { c.metrics = reg }
}

// WithUnixFilePerm sets the permission and group ownership applied to
// a Unix datagram socket file once Listen binds it. No-op for
// abstract-namespace addresses and for the UDP transport.
func WithUnixFilePerm(p perm.Perm, g perm.GroupPerm) Option {
	return func(c *config) {
		c.permFile = p
		c.groupPerm = g
	}
}
