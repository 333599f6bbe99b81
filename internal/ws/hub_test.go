package ws

import (
	"sync"
	"testing"
	"time"
)

func fakeClient(h *Hub, buffer int) *Client {
	return &Client{hub: h, send: make(chan []byte, buffer)}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()
	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.clients == nil {
		t.Error("NewHub() clients map is nil")
	}
	if hub.Online() != 0 {
		t.Errorf("Online() for new hub = %d, want 0", hub.Online())
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := fakeClient(hub, 256)
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	if hub.Online() != 1 {
		t.Errorf("Online() after register = %d, want 1", hub.Online())
	}

	hub.Unregister(client)
	time.Sleep(10 * time.Millisecond)

	if hub.Online() != 0 {
		t.Errorf("Online() after unregister = %d, want 0", hub.Online())
	}
	if client.Push([]byte("late")) {
		t.Error("Push() after unregister should fail")
	}
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	clients := make([]*Client, 3)
	for i := range clients {
		clients[i] = fakeClient(hub, 256)
		hub.Register(clients[i])
	}
	time.Sleep(20 * time.Millisecond)

	testMsg := []byte(`{"event":"userStatusChanged","data":{"userId":"alice","isOnline":true}}`)
	hub.Broadcast(testMsg)

	var wg sync.WaitGroup
	received := make([]bool, 3)
	for i, c := range clients {
		wg.Add(1)
		go func(idx int, client *Client) {
			defer wg.Done()
			select {
			case msg := <-client.send:
				if string(msg) == string(testMsg) {
					received[idx] = true
				}
			case <-time.After(100 * time.Millisecond):
			}
		}(i, c)
	}
	wg.Wait()

	for i, r := range received {
		if !r {
			t.Errorf("Client %d did not receive broadcast message", i)
		}
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	slow := fakeClient(hub, 1)
	fast := fakeClient(hub, 16)
	hub.Register(slow)
	hub.Register(fast)
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast([]byte("one"))
	hub.Broadcast([]byte("two"))
	time.Sleep(20 * time.Millisecond)

	if hub.Online() != 1 {
		t.Errorf("Online() after overflow = %d, want 1", hub.Online())
	}
	if len(fast.send) != 2 {
		t.Errorf("fast client got %d frames, want 2", len(fast.send))
	}
	if slow.Push([]byte("three")) {
		t.Error("Push() to dropped client should fail")
	}
}

func TestClient_PushNonBlocking(t *testing.T) {
	client := fakeClient(nil, 1)

	if !client.Push([]byte("test message")) {
		t.Fatal("Push() into empty buffer failed")
	}
	if client.Push([]byte("overflow")) {
		t.Error("Push() into full buffer should return false instead of blocking")
	}

	msg := <-client.send
	if string(msg) != "test message" {
		t.Errorf("Received message = %s, want test message", msg)
	}

	client.closeSend()
	client.closeSend()
	if client.Push([]byte("closed")) {
		t.Error("Push() after close should return false")
	}
}

func TestHub_ConcurrentRegister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	var wg sync.WaitGroup
	numClients := 10
	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Register(fakeClient(hub, 256))
		}()
	}
	wg.Wait()
	time.Sleep(50 * time.Millisecond)

	if hub.Online() != numClients {
		t.Errorf("Online() after concurrent register = %d, want %d", hub.Online(), numClients)
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	client := fakeClient(hub, 4)
	hub.Register(client)
	hub.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after Stop()")
	}
	if _, ok := <-client.send; ok {
		t.Error("client send channel should be closed after Stop()")
	}
	// Stop 之后的广播与注册不能阻塞
	hub.Broadcast([]byte("x"))
	hub.Register(fakeClient(hub, 1))
}
