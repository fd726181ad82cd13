package broadcast

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(bufSize int) *Client {
	return &Client{send: make(chan []byte, bufSize)}
}

func recvWithTimeout(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestBroadcasterPublishFansOutToRegisteredClients(t *testing.T) {
	b := New()
	go b.Run()

	c := newTestClient(4)
	b.register <- c

	b.Publish(map[string]string{"status": "open"})

	msg := recvWithTimeout(t, c.send)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(msg, &decoded))
	require.Equal(t, "open", decoded["status"])
}

func TestBroadcasterNewClientReceivesCurrentSnapshotOnRegister(t *testing.T) {
	b := New()
	go b.Run()

	b.Publish(map[string]string{"status": "closed"})
	time.Sleep(20 * time.Millisecond)

	c := newTestClient(4)
	b.register <- c

	msg := recvWithTimeout(t, c.send)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(msg, &decoded))
	require.Equal(t, "closed", decoded["status"])
}

func TestBroadcasterDropsClientOnFullBuffer(t *testing.T) {
	b := New()
	go b.Run()

	c := newTestClient(1)
	b.register <- c

	// Fill the client's single-slot buffer without draining it, then
	// publish again: the second publish must not block the hub, and the
	// slow client is dropped and its send channel closed.
	b.Publish(map[string]string{"n": "1"})
	time.Sleep(20 * time.Millisecond)
	b.Publish(map[string]string{"n": "2"})
	time.Sleep(20 * time.Millisecond)

	b.mu.RLock()
	_, stillRegistered := b.clients[c]
	b.mu.RUnlock()
	require.False(t, stillRegistered)

	// Draining the buffered first message then reading again must observe
	// the channel closed (drop semantics), not block forever.
	<-c.send
	_, ok := <-c.send
	require.False(t, ok)
}

func TestBroadcasterUnregisterClosesSendChannel(t *testing.T) {
	b := New()
	go b.Run()

	c := newTestClient(2)
	b.register <- c
	b.unregister <- c

	time.Sleep(20 * time.Millisecond)
	_, ok := <-c.send
	require.False(t, ok)
}
