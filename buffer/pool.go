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

// Package buffer implements the reusable payload-buffer pool and the
// Message type every transport driver, worker pair, and protocol
// engine passes around. A buffer acquired from a Pool belongs to
// exactly one owner until it is released back; Message wraps that
// ownership discipline around one datagram's payload and header.
package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultMaxSize is the default buffer ceiling: large enough for the
// Unix datagram driver's 64 KiB maximum.
const DefaultMaxSize = 65536

// Stats is a point-in-time snapshot of a Pool's monotonic counters.
type Stats struct {
	Gets     uint64
	Puts     uint64
	Misses   uint64
	Oversize uint64
}

// Pool is a size-bounded, goroutine-safe buffer pool. Buffers larger
// than MaxSize are never pooled: Put discards them and Get allocates
// a fresh, unpooled buffer for them instead.
type Pool struct {
	maxSize int
	pool    sync.Pool

	gets     atomic.Uint64
	puts     atomic.Uint64
	misses   atomic.Uint64
	oversize atomic.Uint64

	collectors []prometheus.Collector
}

// NewPool returns a Pool whose pooled buffers are at least maxSize
// bytes. A maxSize of 0 selects DefaultMaxSize.
func NewPool(maxSize int) *Pool {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	p := &Pool{maxSize: maxSize}
	p.pool.New = func() any {
		p.misses.Add(1)
		b := make([]byte, p.maxSize)
		return &b
	}
	return p
}

// MaxSize returns the configured pooling ceiling.
func (p *Pool) MaxSize() int {
	return p.maxSize
}

// Get returns a buffer of at least size bytes, sliced to exactly size.
// Buffers within the pool's ceiling are served from the pool (or
// freshly allocated on a pool miss); buffers larger than the ceiling
// are always freshly allocated and never returned to the pool by Put.
func (p *Pool) Get(size int) []byte {
	p.gets.Add(1)

	if size > p.maxSize {
		p.oversize.Add(1)
		return make([]byte, size)
	}

	bp := p.pool.Get().(*[]byte)
	b := *bp
	if cap(b) < size {
		b = make([]byte, p.maxSize)
	}
	return b[:size]
}

// Put returns buf to the pool for reuse. Put(nil) is a no-op. Buffers
// whose capacity exceeds the pool's ceiling are discarded rather than
// retained, since the pool's New always allocates exactly maxSize.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	p.puts.Add(1)

	if cap(buf) != p.maxSize {
		return
	}
	b := buf[:cap(buf)]
	p.pool.Put(&b)
}

// Stats returns a snapshot of the pool's monotonic counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Gets:     p.gets.Load(),
		Puts:     p.puts.Load(),
		Misses:   p.misses.Load(),
		Oversize: p.oversize.Load(),
	}
}

// RegisterCollectors registers the pool's Gets/Puts/Misses/Oversize
// counters as Prometheus collectors against reg, labeled with name
// (typically the owning socket's id). It is a no-op if reg is nil,
// matching SPEC_FULL.md's "register nothing if none is supplied" rule.
func (p *Pool) RegisterCollectors(reg *prometheus.Registry, name string) {
	if reg == nil {
		return
	}

	labels := prometheus.Labels{"socket": name}
	gets := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name:        "spsock_buffer_pool_gets_total",
		Help:        "Total calls to buffer pool Get.",
		ConstLabels: labels,
	}, func() float64 { return float64(p.gets.Load()) })
	puts := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name:        "spsock_buffer_pool_puts_total",
		Help:        "Total calls to buffer pool Put.",
		ConstLabels: labels,
	}, func() float64 { return float64(p.puts.Load()) })
	misses := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name:        "spsock_buffer_pool_misses_total",
		Help:        "Total buffer pool allocations on a Get miss.",
		ConstLabels: labels,
	}, func() float64 { return float64(p.misses.Load()) })
	oversized := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name:        "spsock_buffer_pool_oversized_total",
		Help:        "Total Get calls for a size exceeding the pool ceiling.",
		ConstLabels: labels,
	}, func() float64 { return float64(p.oversize.Load()) })

	p.collectors = []prometheus.Collector{gets, puts, misses, oversized}
	for _, c := range p.collectors {
		_ = reg.Register(c)
	}
}

// UnregisterCollectors removes any collectors registered by a prior
// RegisterCollectors call. It is a no-op if none were registered.
func (p *Pool) UnregisterCollectors(reg *prometheus.Registry) {
	if reg == nil {
		return
	}
	for _, c := range p.collectors {
		reg.Unregister(c)
	}
	p.collectors = nil
}
