// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"encoding/binary"
	"io"
	"sync"
)

// minPacketLength is RFC 4253 §6.1's floor on channel max-packet-size.
const minPacketLength = 9

// initialWindowSize is the local window this side advertises when
// opening or confirming a channel: RFC 4254 §5.2's window field is a
// uint32 byte count, and 2^31-1 is the largest value every peer in the
// wild is known to accept without treating it as (or clamping it to)
// something smaller.
const initialWindowSize = 2147483647

// initialMaxPacket is the max-packet-size this side advertises, and
// also the unconditional ceiling channel.Write clamps outbound data to
// (the §9 Open Question resolution: clamp once here rather than split
// writes per-destination known max).
const initialMaxPacket = 65536

// sessionSemaphoreCap bounds the number of concurrent "session"
// channels a single connection will have open at once, matching the
// conservative default OpenSSH multiplexing clients use to avoid
// overwhelming a single server process with parallel subsystems.
const sessionSemaphoreCap = 10

// Channel is the multiplexed-connection abstraction a caller uses once
// a channel is open: an io.ReadWriteCloser plus the extended-data
// (stderr) stream and the request/reply sub-protocol of RFC 4254 §5.4.
type Channel interface {
	io.Reader
	io.Writer
	io.Closer

	// CloseWrite signals EOF to the remote side without closing the
	// channel for reading; RFC 4254 §5.3.
	CloseWrite() error

	// SendRequest sends a channel request and, if wantReply, waits for
	// the peer's success/failure reply.
	SendRequest(name string, wantReply bool, payload []byte) (bool, error)

	// Stderr returns the channel's extended-data (stderr) stream.
	Stderr() io.Reader

	// Requests is closed, along with the channel's incoming-request
	// queue, once the channel closes — ranging over it delivers every
	// channel-specific request the peer sends (RFC 4254 §5.4), in the
	// order received.
	Requests() <-chan *ChannelRequest
}

// ChannelRequest is a single incoming channel-specific request; the
// caller must call Reply exactly once if WantReply is true.
type ChannelRequest struct {
	Type      string
	WantReply bool
	Payload   []byte

	ch *clientChan
}

// Reply answers a channel request. Calling it when WantReply was false
// is a no-op, matching the protocol: RFC 4254 §5.4 forbids replying to
// a request that didn't ask for one.
func (r *ChannelRequest) Reply(ok bool, payload []byte) error {
	if !r.WantReply {
		return nil
	}
	if ok {
		return r.ch.transport.writePacket(marshal(msgChannelSuccess, channelRequestSuccessMsg{PeersId: r.ch.remoteId}))
	}
	return r.ch.transport.writePacket(marshal(msgChannelFailure, channelRequestFailureMsg{PeersId: r.ch.remoteId}))
}

// pipe is a small unbounded byte queue used for a channel's stdout and
// stderr streams: writes from mainLoop never block on a slow reader,
// reads block until data or EOF arrives.
type pipe struct {
	cond   *sync.Cond
	buf    []byte
	eofSet bool
	closed bool
}

func newPipe() *pipe { return &pipe{cond: newCond()} }

func (p *pipe) write(b []byte) {
	p.cond.L.Lock()
	p.buf = append(p.buf, b...)
	p.cond.Broadcast()
	p.cond.L.Unlock()
}

func (p *pipe) eof() {
	p.cond.L.Lock()
	p.eofSet = true
	p.cond.Broadcast()
	p.cond.L.Unlock()
}

func (p *pipe) closePipe() {
	p.cond.L.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.cond.L.Unlock()
}

func (p *pipe) Read(b []byte) (int, error) {
	p.cond.L.Lock()
	defer p.cond.L.Unlock()
	for len(p.buf) == 0 && !p.eofSet && !p.closed {
		p.cond.Wait()
	}
	if len(p.buf) == 0 {
		if p.closed {
			return 0, &ChannelClosedError{}
		}
		return 0, io.EOF
	}
	n := copy(b, p.buf)
	p.buf = p.buf[n:]
	return n, nil
}

// clientChan is the concrete implementation of Channel, and also the
// routing target mainLoop dispatches channel-numbered messages to by
// localId.
type clientChan struct {
	transport *transport

	localId, remoteId uint32
	maxPacket         uint32 // the peer's advertised max-packet-size; outbound writes also self-clamp to initialMaxPacket

	localWin  *window // remaining budget we've granted the peer to send us, consumed by inbound CHANNEL_DATA
	remoteWin *window

	stdout *pipe
	stderr *pipe

	msg      chan interface{} // open-confirm/open-failure and request-success/failure replies, FIFO per RFC 4254 §5.4
	requests chan *ChannelRequest

	closeOnce sync.Once
	closed    chan struct{}

	sentEOF   bool
	sentClose bool
	mu        sync.Mutex

	localWinMu       sync.Mutex
	localWinConsumed uint32 // bytes read since the last WINDOW_ADJUST we sent
}

func newClientChan(t *transport, localId uint32) *clientChan {
	c := &clientChan{
		transport: t,
		localId:   localId,
		localWin:  newWindow(),
		remoteWin: newWindow(),
		stdout:    newPipe(),
		stderr:    newPipe(),
		msg:       make(chan interface{}, 1),
		requests:  make(chan *ChannelRequest, 16),
		closed:    make(chan struct{}),
	}
	c.localWin.add(initialWindowSize)
	return c
}

func (c *clientChan) Read(data []byte) (int, error) {
	n, err := c.stdout.Read(data)
	if n > 0 {
		c.localWinAdjustSent(uint32(n))
	}
	return n, err
}

// localWinAdjustSent accumulates bytes consumed from stdout as this side
// reads, and grants the peer a single batched WINDOW_ADJUST once at
// least half the window has been drained, rather than one message per
// Read call. localWin tracks the budget we've actually told the peer
// about, so a send here must match a corresponding localWin.add.
func (c *clientChan) localWinAdjustSent(n uint32) bool {
	if n == 0 {
		return true
	}
	c.localWinMu.Lock()
	c.localWinConsumed += n
	if c.localWinConsumed < initialWindowSize/2 {
		c.localWinMu.Unlock()
		return true
	}
	adjust := c.localWinConsumed
	c.localWinConsumed = 0
	c.localWinMu.Unlock()

	c.localWin.add(adjust)
	msg := channelWindowAdjustMsg{PeersId: c.remoteId, AdditionalBytes: adjust}
	return c.transport.writePacket(marshal(msgChannelWindowAdjust, msg)) == nil
}

func (c *clientChan) Stderr() io.Reader { return c.stderr }

func (c *clientChan) Requests() <-chan *ChannelRequest { return c.requests }

// Write sends data to the channel, splitting it into packets no larger
// than the lesser of the peer's advertised max-packet-size and
// initialMaxPacket, and blocking on remoteWin for flow control.
func (c *clientChan) Write(data []byte) (n int, err error) {
	limit := c.maxPacket
	if limit == 0 || limit > initialMaxPacket {
		limit = initialMaxPacket
	}
	for len(data) > 0 {
		reserved, ok := c.remoteWin.reserve(uint32(len(data)))
		if !ok {
			return n, &ChannelClosedError{}
		}
		chunk := data
		if uint32(len(chunk)) > reserved {
			chunk = chunk[:reserved]
		}
		if uint32(len(chunk)) > limit {
			chunk = chunk[:limit]
			// return the part of the reservation we won't use this round
			c.remoteWin.add(reserved - limit)
		}
		packet := marshal(msgChannelData, channelDataMsg{
			PeersId: c.remoteId,
			Length:  uint32(len(chunk)),
			Rest:    chunk,
		})
		if err := c.transport.writePacket(packet); err != nil {
			return n, err
		}
		n += len(chunk)
		data = data[len(chunk):]
	}
	return n, nil
}

// CloseWrite sends channel EOF, RFC 4254 §5.3. It must be sent before
// CLOSE, never after: a peer receiving CLOSE first may tear the
// channel down without ever seeing a trailing EOF.
func (c *clientChan) CloseWrite() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sentEOF {
		return nil
	}
	c.sentEOF = true
	return c.transport.writePacket(marshal(msgChannelEOF, channelEOFMsg{PeersId: c.remoteId}))
}

// Close sends EOF (if not already sent) followed by CLOSE, then waits
// for the peer's own CLOSE to arrive before returning, so callers never
// observe the channel as closed before the peer has acknowledged it.
func (c *clientChan) Close() error {
	c.mu.Lock()
	if c.sentClose {
		c.mu.Unlock()
		<-c.closed
		return nil
	}
	if !c.sentEOF {
		c.sentEOF = true
		c.transport.writePacket(marshal(msgChannelEOF, channelEOFMsg{PeersId: c.remoteId}))
	}
	c.sentClose = true
	err := c.transport.writePacket(marshal(msgChannelClose, channelCloseMsg{PeersId: c.remoteId}))
	c.mu.Unlock()
	<-c.closed
	return err
}

// handleClose marks this channel as torn down once the peer's own
// CLOSE arrives (or the transport died): wakes any blocked Read/Write,
// and closes closed/requests so Close() callers and Requests() rangers
// unblock.
func (c *clientChan) handleClose() {
	c.closeOnce.Do(func() {
		c.stdout.closePipe()
		c.stderr.closePipe()
		c.localWin.close()
		c.remoteWin.close()
		close(c.requests)
		close(c.closed)
	})
}

func (c *clientChan) SendRequest(name string, wantReply bool, payload []byte) (bool, error) {
	packet := marshal(msgChannelRequest, channelRequestMsg{
		PeersId:             c.remoteId,
		Request:             name,
		WantReply:           wantReply,
		RequestSpecificData: payload,
	})
	if err := c.transport.writePacket(packet); err != nil {
		return false, err
	}
	if !wantReply {
		return true, nil
	}
	msg, ok := <-c.msg
	if !ok {
		return false, &ChannelClosedError{}
	}
	switch msg.(type) {
	case *channelRequestSuccessMsg:
		return true, nil
	case *channelRequestFailureMsg:
		return false, nil
	}
	return false, &ProtocolError{"unexpected reply to channel request"}
}

// chanList is a thread-safe, id-indexed registry of open channels,
// reusing freed slots the way a file-descriptor table does.
type chanList struct {
	sync.Mutex
	chans []*clientChan
}

func (l *chanList) newChan(t *transport) *clientChan {
	l.Lock()
	defer l.Unlock()
	for i := range l.chans {
		if l.chans[i] == nil {
			ch := newClientChan(t, uint32(i))
			l.chans[i] = ch
			return ch
		}
	}
	i := len(l.chans)
	ch := newClientChan(t, uint32(i))
	l.chans = append(l.chans, ch)
	return ch
}

func (l *chanList) getChan(id uint32) (*clientChan, bool) {
	l.Lock()
	defer l.Unlock()
	if id >= uint32(len(l.chans)) || l.chans[id] == nil {
		return nil, false
	}
	return l.chans[id], true
}

func (l *chanList) remove(id uint32) {
	l.Lock()
	defer l.Unlock()
	if id < uint32(len(l.chans)) {
		l.chans[id] = nil
	}
}

func (l *chanList) closeAll() {
	l.Lock()
	chans := append([]*clientChan(nil), l.chans...)
	l.Unlock()
	for _, ch := range chans {
		if ch == nil {
			continue
		}
		ch.handleClose()
	}
}

// dispatchChannelData routes a raw CHANNEL_DATA or CHANNEL_EXTENDED_DATA
// payload (message type byte already stripped) to the right channel's
// stdout/stderr pipe. Kept free of the reflection marshaller since the
// data payload, often megabytes, would otherwise be copied twice.
func (l *chanList) dispatchChannelData(extended bool, packet []byte) bool {
	if extended {
		if len(packet) < 12 {
			return false
		}
		remoteId := binary.BigEndian.Uint32(packet[0:4])
		dataType := binary.BigEndian.Uint32(packet[4:8])
		length := binary.BigEndian.Uint32(packet[8:12])
		data := packet[12:]
		if length != uint32(len(data)) {
			return false
		}
		ch, ok := l.getChan(remoteId)
		if !ok {
			return false
		}
		if !ch.localWin.consume(length) {
			ch.transport.disconnect(DisconnectProtocolError, "peer sent more extended data than its granted channel window allows")
			return false
		}
		if dataType == 1 {
			ch.stderr.write(data)
		}
		return true
	}
	if len(packet) < 8 {
		return false
	}
	remoteId := binary.BigEndian.Uint32(packet[0:4])
	length := binary.BigEndian.Uint32(packet[4:8])
	data := packet[8:]
	if length != uint32(len(data)) {
		return false
	}
	ch, ok := l.getChan(remoteId)
	if !ok {
		return false
	}
	if !ch.localWin.consume(length) {
		ch.transport.disconnect(DisconnectProtocolError, "peer sent more data than its granted channel window allows")
		return false
	}
	ch.stdout.write(data)
	return true
}

// sessionSemaphore throttles concurrent "session" channel opens; other
// channel types are unaffected.
type sessionSemaphore chan struct{}

func newSessionSemaphore() sessionSemaphore {
	return make(sessionSemaphore, sessionSemaphoreCap)
}

func (s sessionSemaphore) acquire() { s <- struct{}{} }
func (s sessionSemaphore) release() { <-s }
