package websocket

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func TestBroadcastToReachesSubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice := NewClient(hub, nil, "alice")
	bob := NewClient(hub, nil, "bob")
	hub.Register <- alice
	hub.Register <- bob

	hub.BroadcastTo("alice", []byte("delta"))

	assert.Equal(t, []byte("delta"), receive(t, alice))
	select {
	case msg := <-bob.Send:
		t.Fatalf("bob received someone else's message: %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastToUnknownUsernameIsDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice := NewClient(hub, nil, "alice")
	hub.Register <- alice

	hub.BroadcastTo("nobody", []byte("delta"))
	hub.BroadcastTo("alice", []byte("after"))

	assert.Equal(t, []byte("after"), receive(t, alice))
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice := NewClient(hub, nil, "alice")
	hub.Register <- alice
	hub.Unregister <- alice

	select {
	case _, open := <-alice.Send:
		assert.False(t, open, "send channel must be closed on unregister")
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}

	// Subsequent targeted messages must not panic or block.
	hub.BroadcastTo("alice", []byte("late"))

	bob := NewClient(hub, nil, "bob")
	hub.Register <- bob
	hub.BroadcastTo("bob", []byte("delta"))
	assert.Equal(t, []byte("delta"), receive(t, bob))
}

// Registrations arrive from handler goroutines while a running
// generation streams deltas from the service goroutine. Both paths
// must serialize through the hub loop.
func TestConcurrentRegisterAndBroadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	first := NewClient(hub, nil, "alice")
	hub.Register <- first

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			hub.Register <- NewClient(hub, nil, fmt.Sprintf("user-%d", i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			hub.BroadcastTo("alice", []byte("delta"))
		}
	}()
	wg.Wait()

	require.Equal(t, []byte("delta"), receive(t, first))
}
