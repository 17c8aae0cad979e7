package ws

import (
	"sync"
	"testing"
	"time"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()
	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.stations == nil {
		t.Error("NewHub() stations map is nil")
	}
}

func TestHub_Online_UnknownStation(t *testing.T) {
	hub := NewHub()
	if online := hub.Online("65f1c0ffee65f1c0ffee65f1"); online != 0 {
		t.Errorf("Online() for unknown station = %d, want 0", online)
	}
}

func TestStationHub_RegisterUnregister(t *testing.T) {
	sh := NewStationHub("65f1c0ffee65f1c0ffee65f1")
	go sh.run()

	client := &Client{
		station:  sh,
		userID:   "u1",
		fullname: "Test User",
		send:     make(chan []byte, 256),
	}

	sh.register <- client
	time.Sleep(10 * time.Millisecond)
	if sh.Online() != 1 {
		t.Errorf("Online() after register = %d, want 1", sh.Online())
	}

	sh.unregister <- client
	time.Sleep(10 * time.Millisecond)
	if sh.Online() != 0 {
		t.Errorf("Online() after unregister = %d, want 0", sh.Online())
	}
}

func TestStationHub_Broadcast(t *testing.T) {
	sh := NewStationHub("65f1c0ffee65f1c0ffee65f1")
	go sh.run()

	clients := make([]*Client, 3)
	for i := 0; i < 3; i++ {
		clients[i] = &Client{
			station:  sh,
			userID:   "u" + string(rune('1'+i)),
			fullname: "user",
			send:     make(chan []byte, 256),
		}
		sh.register <- clients[i]
	}
	time.Sleep(20 * time.Millisecond)

	// 注册阶段会广播 join 事件，先清空每个客户端的队列
	for _, c := range clients {
		for len(c.send) > 0 {
			<-c.send
		}
	}

	testMsg := []byte(`{"type":"msg","msg":{"txt":"hello"}}`)
	sh.broadcast <- testMsg

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
			t.Errorf("client %d did not receive broadcast message", i)
		}
	}
}

func TestHub_MultipleStations(t *testing.T) {
	hub := NewHub()

	sh1 := hub.GetStation("65f1c0ffee65f1c0ffee65f1")
	sh2 := hub.GetStation("65f1c0ffee65f1c0ffee65f2")
	if sh1 == sh2 {
		t.Fatal("GetStation() returned the same hub for different stations")
	}
	if again := hub.GetStation("65f1c0ffee65f1c0ffee65f1"); again != sh1 {
		t.Error("GetStation() did not reuse the existing hub")
	}

	sh1.register <- &Client{station: sh1, userID: "u1", send: make(chan []byte, 256)}
	sh2.register <- &Client{station: sh2, userID: "u2", send: make(chan []byte, 256)}
	time.Sleep(20 * time.Millisecond)

	if hub.Online("65f1c0ffee65f1c0ffee65f1") != 1 {
		t.Errorf("Online(sh1) = %d, want 1", hub.Online("65f1c0ffee65f1c0ffee65f1"))
	}
	if hub.Online("65f1c0ffee65f1c0ffee65f2") != 1 {
		t.Errorf("Online(sh2) = %d, want 1", hub.Online("65f1c0ffee65f1c0ffee65f2"))
	}
}

func TestStationHub_Concurrent(t *testing.T) {
	sh := NewStationHub("65f1c0ffee65f1c0ffee65f1")
	go sh.run()

	var wg sync.WaitGroup
	numClients := 10
	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sh.register <- &Client{station: sh, userID: "u", send: make(chan []byte, 256)}
		}()
	}
	wg.Wait()
	time.Sleep(50 * time.Millisecond)

	if sh.Online() != numClients {
		t.Errorf("Online() after concurrent register = %d, want %d", sh.Online(), numClients)
	}
}
