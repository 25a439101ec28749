// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"bytes"
	"net"
	"testing"
	"time"
)

func TestClientChanWriteClampsAndSplitsPackets(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	tr := newTransport(c1, nil, nil)
	peer := newTransport(c2, nil, nil)

	ch := newClientChan(tr, 0)
	ch.remoteId = 7
	ch.maxPacket = initialMaxPacket * 2 // larger than our own outbound clamp
	ch.remoteWin.add(1 << 24)           // plenty of window, never blocks

	data := bytes.Repeat([]byte{'x'}, initialMaxPacket+100)

	done := make(chan error, 1)
	go func() {
		_, err := ch.Write(data)
		done <- err
	}()

	var packets [][]byte
	total := 0
	for total < len(data) {
		raw, err := peer.readPacket()
		if err != nil {
			t.Fatalf("readPacket: %v", err)
		}
		msg, err := decode(raw)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		cd, ok := msg.(*channelDataMsg)
		if !ok {
			t.Fatalf("expected *channelDataMsg, got %T", msg)
		}
		if cd.PeersId != 7 {
			t.Fatalf("expected PeersId 7, got %d", cd.PeersId)
		}
		if len(cd.Rest) > initialMaxPacket {
			t.Fatalf("packet of %d bytes exceeds initialMaxPacket clamp of %d", len(cd.Rest), initialMaxPacket)
		}
		packets = append(packets, cd.Rest)
		total += len(cd.Rest)
	}
	if err := <-done; err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(packets) < 2 {
		t.Fatalf("expected data larger than initialMaxPacket to split across multiple packets, got %d", len(packets))
	}

	var reassembled []byte
	for _, p := range packets {
		reassembled = append(reassembled, p...)
	}
	if !bytes.Equal(reassembled, data) {
		t.Fatal("reassembled packet payloads did not match the original data")
	}
}

func TestClientChanWriteBlocksOnExhaustedWindow(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	tr := newTransport(c1, nil, nil)

	ch := newClientChan(tr, 0)
	ch.remoteId = 1
	ch.maxPacket = initialMaxPacket
	// No window added: Write must block until the peer grants some.

	done := make(chan error, 1)
	go func() {
		_, err := ch.Write([]byte("abc"))
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("Write returned before any remote window was available")
	case <-time.After(20 * time.Millisecond):
	}

	ch.remoteWin.close()
	if err := <-done; err == nil {
		t.Fatal("expected Write to fail once the window closed out from under it")
	}
}

func TestCloseWriteIsIdempotentAndPrecedesClose(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	tr := newTransport(c1, nil, nil)
	peer := newTransport(c2, nil, nil)

	ch := newClientChan(tr, 0)
	ch.remoteId = 3

	errs := make(chan error, 3)
	go func() {
		errs <- ch.CloseWrite()
		errs <- ch.CloseWrite() // must be a no-op, not a second EOF on the wire
		errs <- ch.Close()
	}()

	raw, err := peer.readPacket()
	if err != nil {
		t.Fatalf("readPacket (EOF): %v", err)
	}
	msg, err := decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := msg.(*channelEOFMsg); !ok {
		t.Fatalf("expected channelEOFMsg first, got %T", msg)
	}

	raw, err = peer.readPacket()
	if err != nil {
		t.Fatalf("readPacket (CLOSE): %v", err)
	}
	msg, err = decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	closeMsg, ok := msg.(*channelCloseMsg)
	if !ok {
		t.Fatalf("expected channelCloseMsg second, got %T", msg)
	}
	if closeMsg.PeersId != 3 {
		t.Fatalf("expected PeersId 3, got %d", closeMsg.PeersId)
	}

	// Close() is now blocked on <-ch.closed, waiting for the peer's own
	// CLOSE to arrive; simulate that arriving.
	ch.handleClose()

	if err := <-errs; err != nil {
		t.Fatalf("first CloseWrite: %v", err)
	}
	if err := <-errs; err != nil {
		t.Fatalf("second CloseWrite: %v", err)
	}
	if err := <-errs; err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestHandleCloseUnblocksReadersAndIsIdempotent(t *testing.T) {
	ch := newClientChan(nil, 0)

	readDone := make(chan error, 1)
	go func() {
		_, err := ch.Read(make([]byte, 16))
		readDone <- err
	}()

	select {
	case <-readDone:
		t.Fatal("Read returned before the channel was torn down")
	case <-time.After(20 * time.Millisecond):
	}

	ch.handleClose()
	ch.handleClose() // must not panic (sync.Once) or double-close channels

	if err := <-readDone; err == nil {
		t.Fatal("expected Read to report an error once the channel closed")
	}
	if _, ok := <-ch.requests; ok {
		t.Fatal("expected the requests channel to be closed")
	}
	select {
	case <-ch.closed:
	default:
		t.Fatal("expected the closed channel to be closed")
	}
}

func TestSendRequestWaitsForMatchingReply(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	tr := newTransport(c1, nil, nil)
	peer := newTransport(c2, nil, nil)

	ch := newClientChan(tr, 0)
	ch.remoteId = 5

	type outcome struct {
		ok  bool
		err error
	}
	result := make(chan outcome, 1)
	go func() {
		ok, err := ch.SendRequest("exit-status", true, []byte{0, 0, 0, 7})
		result <- outcome{ok, err}
	}()

	raw, err := peer.readPacket()
	if err != nil {
		t.Fatalf("readPacket: %v", err)
	}
	msg, err := decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	req, ok := msg.(*channelRequestMsg)
	if !ok {
		t.Fatalf("expected *channelRequestMsg, got %T", msg)
	}
	if req.Request != "exit-status" || !req.WantReply {
		t.Fatalf("unexpected request: %+v", req)
	}

	// mainLoop's job in the real client: route the reply back to the
	// channel's FIFO reply queue.
	ch.msg <- &channelRequestSuccessMsg{PeersId: 0}

	got := <-result
	if got.err != nil {
		t.Fatalf("SendRequest: %v", got.err)
	}
	if !got.ok {
		t.Fatal("expected SendRequest to report success")
	}
}

func TestSendRequestReportsFailureReply(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	tr := newTransport(c1, nil, nil)
	peer := newTransport(c2, nil, nil)

	ch := newClientChan(tr, 0)
	ch.remoteId = 5

	type outcome struct {
		ok  bool
		err error
	}
	result := make(chan outcome, 1)
	go func() {
		ok, err := ch.SendRequest("pty-req", true, nil)
		result <- outcome{ok, err}
	}()

	if _, err := peer.readPacket(); err != nil {
		t.Fatalf("readPacket: %v", err)
	}
	ch.msg <- &channelRequestFailureMsg{PeersId: 0}

	got := <-result
	if got.err != nil {
		t.Fatalf("SendRequest: %v", got.err)
	}
	if got.ok {
		t.Fatal("expected SendRequest to report failure")
	}
}

func TestSendRequestWithoutReplyDoesNotWait(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	tr := newTransport(c1, nil, nil)
	peer := newTransport(c2, nil, nil)

	ch := newClientChan(tr, 0)
	ch.remoteId = 5

	// net.Pipe is unbuffered, so the write only completes once the peer
	// reads it; SendRequest runs on its own goroutine for that reason,
	// and nothing ever feeds ch.msg, so it returns without a reply.
	type result struct {
		ok  bool
		err error
	}
	results := make(chan result, 1)
	go func() {
		ok, err := ch.SendRequest("keepalive@openssh.com", false, nil)
		results <- result{ok, err}
	}()

	raw, err := peer.readPacket()
	if err != nil {
		t.Fatalf("readPacket: %v", err)
	}
	got := <-results
	if got.err != nil {
		t.Fatalf("SendRequest: %v", got.err)
	}
	if !got.ok {
		t.Fatal("expected a no-reply request to report ok=true immediately")
	}
	msg, err := decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	req, ok := msg.(*channelRequestMsg)
	if !ok || req.WantReply {
		t.Fatalf("expected a WantReply=false request on the wire, got %+v", msg)
	}
}

func TestChannelRequestReplySendsSuccessOrFailure(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()
	tr := newTransport(c1, nil, nil)
	peer := newTransport(c2, nil, nil)

	ch := newClientChan(tr, 0)
	ch.remoteId = 9
	req := &ChannelRequest{Type: "exit-status", WantReply: true, ch: ch}

	errs := make(chan error, 1)
	go func() { errs <- req.Reply(true, nil) }()

	raw, err := peer.readPacket()
	if err != nil {
		t.Fatalf("readPacket: %v", err)
	}
	msg, err := decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	success, ok := msg.(*channelRequestSuccessMsg)
	if !ok {
		t.Fatalf("expected *channelRequestSuccessMsg, got %T", msg)
	}
	if success.PeersId != 9 {
		t.Fatalf("expected PeersId 9, got %d", success.PeersId)
	}
	if err := <-errs; err != nil {
		t.Fatalf("Reply: %v", err)
	}
}

func TestDispatchChannelDataRoutesStdoutAndStderr(t *testing.T) {
	var l chanList
	ch := l.newChan(nil)
	data := []byte("payload")

	packet := appendU32(nil, ch.localId)
	packet = appendU32(packet, uint32(len(data)))
	packet = append(packet, data...)
	if ok := l.dispatchChannelData(false, packet); !ok {
		t.Fatal("expected stdout dispatch to succeed")
	}
	got := make([]byte, len(data))
	n, err := ch.stdout.Read(got)
	if err != nil || n != len(data) || !bytes.Equal(got[:n], data) {
		t.Fatalf("stdout mismatch: got %q (n=%d, err=%v)", got[:n], n, err)
	}

	ext := appendU32(nil, ch.localId)
	ext = appendU32(ext, 1) // SSH_EXTENDED_DATA_STDERR
	ext = appendU32(ext, uint32(len(data)))
	ext = append(ext, data...)
	if ok := l.dispatchChannelData(true, ext); !ok {
		t.Fatal("expected stderr dispatch to succeed")
	}
	got2 := make([]byte, len(data))
	n2, err := ch.stderr.Read(got2)
	if err != nil || n2 != len(data) || !bytes.Equal(got2[:n2], data) {
		t.Fatalf("stderr mismatch: got %q (n=%d, err=%v)", got2[:n2], n2, err)
	}
}

func TestDispatchChannelDataRejectsLengthMismatch(t *testing.T) {
	var l chanList
	ch := l.newChan(nil)

	packet := appendU32(nil, ch.localId)
	packet = appendU32(packet, 99) // claims 99 bytes, supplies none
	if ok := l.dispatchChannelData(false, packet); ok {
		t.Fatal("expected dispatch to reject a declared-length/actual-length mismatch")
	}
}

func TestDispatchChannelDataRejectsUnknownChannel(t *testing.T) {
	var l chanList
	data := []byte("x")
	packet := appendU32(nil, 77) // no channel 77 registered
	packet = appendU32(packet, uint32(len(data)))
	packet = append(packet, data...)
	if ok := l.dispatchChannelData(false, packet); ok {
		t.Fatal("expected dispatch to reject an unknown channel id")
	}
}

func TestChanListReusesFreedSlots(t *testing.T) {
	var l chanList
	a := l.newChan(nil)
	b := l.newChan(nil)
	if a.localId == b.localId {
		t.Fatal("expected distinct channel ids")
	}
	l.remove(a.localId)
	c := l.newChan(nil)
	if c.localId != a.localId {
		t.Fatalf("expected the freed slot %d to be reused, got %d", a.localId, c.localId)
	}
	if _, ok := l.getChan(a.localId); !ok {
		t.Fatal("expected the reused slot to be findable")
	}
}

func TestSessionSemaphoreBlocksAtCapacity(t *testing.T) {
	sem := newSessionSemaphore()
	for i := 0; i < sessionSemaphoreCap; i++ {
		sem.acquire()
	}

	acquired := make(chan struct{})
	go func() {
		sem.acquire()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("acquire should have blocked once the semaphore was at capacity")
	case <-time.After(20 * time.Millisecond):
	}

	sem.release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("acquire should have unblocked after a release")
	}
}
