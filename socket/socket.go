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

// Package socket is the application-facing facade: one constructor per
// pattern (NewREQ, NewREP, NewPUB, ...) builds a Socket wiring a fresh
// protocol.Engine to the peer/connection registries and task group
// every pattern shares. The facade owns the cyclic graph between
// socket, registries, and tasks per SPEC_FULL.md §9: the socket is the
// single owner, the registries are held by reference only, and an
// errgroup.Group is the unit every accept/dial/forward task is
// awaited through.
package socket

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nabbar/spsock/buffer"
	"github.com/nabbar/spsock/conn"
	"github.com/nabbar/spsock/errkind"
	"github.com/nabbar/spsock/internal/transport"
	"github.com/nabbar/spsock/peer"
	"github.com/nabbar/spsock/protocol"
	"github.com/nabbar/spsock/wire"
)

// Stats is a point-in-time snapshot of a Socket's resource counters,
// generalizing the teacher's IsRunning/IsGone/OpenConnections status
// trio into one struct.
type Stats struct {
	Pool        buffer.Stats
	Connections int
	Peers       int
}

// Socket is the application surface for one pattern instance. It is
// safe for concurrent use by multiple goroutines except where a
// method's doc says otherwise.
type Socket struct {
	id      uuid.UUID
	pattern string
	cfg     *config
	log     *logrus.Entry

	peers *peer.Registry
	conns *conn.Registry
	pool  *buffer.Pool

	engine     protocol.Engine
	sendFn     func(payload []byte, deadline time.Time) error
	recvFn     func(deadline time.Time) ([]byte, error)
	pairEng    *protocol.PAIR
	correlated bool

	connGauge prometheus.Gauge

	ctx    context.Context
	cancel context.CancelFunc
	tasks  *errgroup.Group

	mu          sync.Mutex
	listener    *transport.Listener
	dialCancels []context.CancelFunc

	closed atomic.Bool

	onInfo  func(local, remote net.Addr, state peer.State)
	onError func(errs ...error)
}

func newSocket(pattern string, opts []Option) *Socket {
	cfg := applyOptions(opts)

	log := cfg.log
	if log == nil {
		log = logrus.StandardLogger()
	}

	id := uuid.New()
	s := &Socket{
		id:      id,
		pattern: pattern,
		cfg:     cfg,
		peers:   peer.NewRegistry(),
		conns:   conn.NewRegistry(),
		pool:    buffer.NewPool(cfg.maxMessageSize),
	}
	s.log = log.WithFields(logrus.Fields{
		"component": "spsock",
		"pattern":   pattern,
		"socket":    id.String(),
	})
	s.ctx, s.cancel = context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(s.ctx)
	s.tasks = group
	s.ctx = ctx

	if cfg.metrics != nil {
		s.pool.RegisterCollectors(cfg.metrics, id.String())
		s.connGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "spsock_connections",
			Help:        "Live connections for this socket.",
			ConstLabels: prometheus.Labels{"socket": id.String(), "pattern": pattern},
		})
		_ = cfg.metrics.Register(s.connGauge)
	}

	return s
}

// ID returns the socket's generated identifier.
func (s *Socket) ID() string { return s.id.String() }

// Pattern returns the pattern name this Socket was constructed for.
func (s *Socket) Pattern() string { return s.pattern }

// RegisterFuncInfo installs a callback invoked each time a connection
// is registered, with state peer.Connected, mirroring the teacher's
// per-datagram info callback. DisconnectPeer does not invoke it.
func (s *Socket) RegisterFuncInfo(fn func(local, remote net.Addr, state peer.State)) {
	s.mu.Lock()
	s.onInfo = fn
	s.mu.Unlock()
}

// RegisterFuncError installs a callback invoked with the error of every
// failed dial attempt and of every refused PAIR connection, mirroring
// the teacher's variadic server error callback. Transport errors inside
// a connection's worker pair are logged and counted, not passed to it.
func (s *Socket) RegisterFuncError(fn func(errs ...error)) {
	s.mu.Lock()
	s.onError = fn
	s.mu.Unlock()
}

func (s *Socket) notifyInfo(local, remote net.Addr, state peer.State) {
	s.mu.Lock()
	fn := s.onInfo
	s.mu.Unlock()
	if fn != nil {
		fn(local, remote, state)
	}
}

func (s *Socket) notifyError(err error) {
	s.mu.Lock()
	fn := s.onError
	s.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

// Stats returns a snapshot of the socket's buffer pool, connection,
// and peer counters.
func (s *Socket) Stats() Stats {
	return Stats{
		Pool:        s.pool.Stats(),
		Connections: s.conns.Count(),
		Peers:       s.peers.Count(),
	}
}

// Listen parses address (§6.2), binds one listener on the configured
// driver, and adds an accept task to the socket's task group.
// Fails-with ErrAlreadyListening if a listener already exists.
func (s *Socket) Listen(address string) error {
	if s.closed.Load() {
		return errkind.New(errkind.KindClosed, "socket.Listen")
	}

	s.mu.Lock()
	if s.listener != nil {
		s.mu.Unlock()
		return errkind.New(errkind.KindAlreadyListening, "socket.Listen")
	}
	s.mu.Unlock()

	info, err := parseAddress(address)
	if err != nil {
		return err
	}

	var ln *transport.Listener
	switch info.network {
	case "unixgram":
		ln, err = transport.ListenUnixgram(info.address, transport.UnixgramConfig{
			PermFile:  s.cfg.permFile,
			GroupPerm: s.cfg.groupPerm,
		})
	default:
		ln, err = transport.ListenUDP(info.address)
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.tasks.Go(func() error {
		s.acceptLoop(ln)
		return nil
	})

	s.log.WithField("addr", address).Info("listen: started")
	return nil
}

// acceptLoop is the accept task: one per active listener. For PAIR,
// every connection beyond the first is refused at this level (no Peer
// or Connection entry is ever created for it) rather than inside the
// engine.
func (s *Socket) acceptLoop(ln *transport.Listener) {
	for {
		drv, addr, err := ln.Accept()
		if err != nil {
			return
		}

		if s.pairEng != nil && s.pairEng.HasPeer() {
			s.log.WithField("addr", addr).Warn("pair: refusing second connection")
			_ = drv.Close()
			s.notifyError(errkind.Wrap(errkind.KindBusy, "socket.Accept", addr.String(), nil))
			continue
		}

		s.registerConnection(drv, addr)
	}
}

// Dial adds a dialer task that attempts to connect to address,
// retrying on an exponential backoff between the configured
// reconnect window until it succeeds or the socket closes. It does
// not block.
func (s *Socket) Dial(address string) error {
	return s.startDial(address, nil)
}

// DialAndWait blocks until the dialer task started for address
// reaches its first outcome (a registered connection, or the socket
// closing) or deadline elapses.
func (s *Socket) DialAndWait(address string, deadline time.Time) error {
	first := make(chan error, 1)
	if err := s.startDial(address, first); err != nil {
		return err
	}

	var timeoutC <-chan time.Time
	if !deadline.IsZero() {
		t := time.NewTimer(time.Until(deadline))
		defer t.Stop()
		timeoutC = t.C
	}

	select {
	case err := <-first:
		return err
	case <-timeoutC:
		return errkind.New(errkind.KindTimeout, "socket.DialAndWait")
	case <-s.ctx.Done():
		return errkind.New(errkind.KindClosed, "socket.DialAndWait")
	}
}

// PeerIDs returns the identifiers of every currently registered peer,
// the handle DisconnectPeer needs since datagram transports give the
// application no other way to learn one.
func (s *Socket) PeerIDs() []uint32 {
	all := s.peers.All()
	ids := make([]uint32, 0, len(all))
	for _, p := range all {
		ids = append(ids, p.ID)
	}
	return ids
}

// DisconnectPeer tears down the connection and registry entries for
// id, unbinding it from PAIR's slot where applicable. Datagram
// transports carry no close signal a peer can observe passively, so
// disconnect is always an explicit, application- or
// liveness-policy-driven call rather than something the receiver task
// detects on its own.
func (s *Socket) DisconnectPeer(id uint32) {
	s.conns.Unregister(id)
	s.peers.Remove(id)
	if s.pairEng != nil {
		s.pairEng.Unbind(id)
	}
	if s.connGauge != nil {
		s.connGauge.Dec()
	}
}

func (s *Socket) startDial(address string, first chan<- error) error {
	if s.closed.Load() {
		return errkind.New(errkind.KindClosed, "socket.Dial")
	}

	info, err := parseAddress(address)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.mu.Lock()
	s.dialCancels = append(s.dialCancels, cancel)
	s.mu.Unlock()

	s.tasks.Go(func() error {
		s.dialLoop(ctx, info, first)
		return nil
	})
	return nil
}

func (s *Socket) dialLoop(ctx context.Context, info addrInfo, first chan<- error) {
	backoff := s.cfg.reconnectMin
	reported := false
	report := func(err error) {
		if first != nil && !reported {
			reported = true
			first <- err
		}
	}

	for {
		select {
		case <-ctx.Done():
			report(errkind.New(errkind.KindClosed, "socket.Dial"))
			return
		default:
		}

		drv, err := dialDriver(info)
		if err == nil {
			remote, rerr := resolveRemote(info)
			if rerr != nil {
				remote = drv.LocalAddr()
			}
			s.registerConnection(drv, remote)
			report(nil)
			return
		}

		s.log.WithError(err).Warn("dial: attempt failed, backing off")
		s.notifyError(err)

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			report(errkind.New(errkind.KindClosed, "socket.Dial"))
			return
		}

		backoff *= 2
		if backoff > s.cfg.reconnectMax {
			backoff = s.cfg.reconnectMax
		}
	}
}

func dialDriver(info addrInfo) (transport.Driver, error) {
	if info.network == "unixgram" {
		return transport.DialUnixgram(info.address)
	}
	return transport.DialUDP(info.address)
}

// registerConnection allocates a peer/connection pair sharing one
// identifier, starts its worker pair, binds it into PAIR's single
// slot where applicable, and starts its inbound forwarder task.
func (s *Socket) registerConnection(drv transport.Driver, addr net.Addr) {
	id, p := s.peers.Add(addr)
	p.SetState(peer.Connected)

	c := conn.New(id, id, drv, s.pool, s.cfg.recvQueueSize, s.cfg.sendQueueSize, s.log)
	s.conns.Register(c)
	c.Start()

	if s.pairEng != nil {
		s.pairEng.Bind(id)
	}
	if s.connGauge != nil {
		s.connGauge.Inc()
	}

	s.tasks.Go(func() error {
		s.forward(c)
		return nil
	})

	s.notifyInfo(drv.LocalAddr(), addr, peer.Connected)
	s.log.WithField("peer_id", id).WithField("addr", addr).Debug("peer connected")
}

// forward is the per-connection task that drains a Connection's
// Inbound queue and dispatches each message to the owning engine,
// modeled on mangos's per-pipe receiver-calls-protocol-Process()
// callback shape, generalized here to every pattern via the
// Engine.Dispatch method. The receiver hands up a raw datagram with
// its whole body in Payload; for the correlated patterns (REQ/REP,
// SURVEYOR/RESPONDENT) this splits the leading correlation word back
// out into Header before Dispatch, undoing the prefix Message.Wire
// applied on the sending side. A datagram too short to hold a header
// is foreign or truncated traffic and is dropped rather than
// dispatched.
func (s *Socket) forward(c *conn.Connection) {
	for {
		select {
		case msg, ok := <-c.Inbound:
			if !ok {
				return
			}
			if s.correlated {
				header, rest, ok := wire.SplitInbound(msg.Payload)
				if !ok {
					s.log.WithField("peer_id", msg.PeerID).Warn("forward: datagram too short for a header, dropped")
					msg.Release()
					continue
				}
				msg.Header = header
				msg.Payload = rest
			}
			s.engine.Dispatch(msg)
		case <-s.ctx.Done():
			return
		}
	}
}

// Send delegates to the protocol engine using the socket's configured
// send timeout.
func (s *Socket) Send(payload []byte) error {
	return s.SendWithDeadline(payload, time.Now().Add(s.cfg.sendTimeout))
}

// SendWithDeadline delegates to the protocol engine with an explicit
// deadline, after a fast closed-check.
func (s *Socket) SendWithDeadline(payload []byte, deadline time.Time) error {
	if s.closed.Load() {
		return errkind.New(errkind.KindClosed, "socket.Send")
	}
	if len(payload) > s.cfg.maxMessageSize {
		return errkind.New(errkind.KindMessageTooLarge, "socket.Send")
	}
	return s.sendFn(payload, deadline)
}

// Recv delegates to the protocol engine using the socket's configured
// receive timeout.
func (s *Socket) Recv() ([]byte, error) {
	return s.RecvWithDeadline(time.Now().Add(s.cfg.recvTimeout))
}

// RecvWithDeadline delegates to the protocol engine with an explicit
// deadline, after a fast closed-check.
func (s *Socket) RecvWithDeadline(deadline time.Time) ([]byte, error) {
	if s.closed.Load() {
		return nil, errkind.New(errkind.KindClosed, "socket.Recv")
	}
	return s.recvFn(deadline)
}

// Close is idempotent: on its first call it fires the socket-wide
// cancellation signal, closes the listener and every connection
// (stopping their worker pairs), closes the protocol engine (releasing
// blocked callers with ErrClosed), and awaits every tracked task.
func (s *Socket) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.log.Info("close: starting")
	s.cancel()

	s.mu.Lock()
	ln := s.listener
	cancels := s.dialCancels
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	for _, cancel := range cancels {
		cancel()
	}

	s.conns.CloseAll()
	s.engine.Close()

	_ = s.tasks.Wait()

	if s.cfg.metrics != nil {
		s.pool.UnregisterCollectors(s.cfg.metrics)
		if s.connGauge != nil {
			s.cfg.metrics.Unregister(s.connGauge)
		}
	}

	s.log.Info("close: complete")
	return nil
}
