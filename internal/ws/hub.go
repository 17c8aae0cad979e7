package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/dorhakim100/ZenefyBackend/internal/metrics"
)

// Hub 管理 station 级别的子 Hub，按 station 的 hex id 索引，懒创建、并发安全。
type Hub struct {
	mu       sync.RWMutex
	stations map[string]*StationHub
}

func NewHub() *Hub { return &Hub{stations: make(map[string]*StationHub)} }

// GetStation 若对应 station 的 Hub 未初始化则懒加载一个。
func (h *Hub) GetStation(stationID string) *StationHub {
	h.mu.RLock()
	sh := h.stations[stationID]
	h.mu.RUnlock()
	if sh != nil {
		return sh
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	sh = h.stations[stationID]
	if sh != nil {
		return sh
	}
	sh = NewStationHub(stationID)
	h.stations[stationID] = sh
	go sh.run()
	return sh
}

func (h *Hub) Online(stationID string) int {
	h.mu.RLock()
	sh := h.stations[stationID]
	h.mu.RUnlock()
	if sh == nil {
		return 0
	}
	return sh.Online()
}

type StationHub struct {
	stationID  string
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	online     int32
}

func NewStationHub(stationID string) *StationHub {
	return &StationHub{
		stationID:  stationID,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
	}
}

func (sh *StationHub) run() {
	for {
		select {
		case c := <-sh.register:
			sh.clients[c] = true
			atomic.StoreInt32(&sh.online, int32(len(sh.clients)))
			metrics.WsConnections.Inc()
			sh.emit(map[string]interface{}{"type": "join", "stationId": sh.stationID, "userId": c.userID, "fullname": c.fullname, "online": int(atomic.LoadInt32(&sh.online))})
		case c := <-sh.unregister:
			if _, ok := sh.clients[c]; ok {
				delete(sh.clients, c)
				close(c.send)
				atomic.StoreInt32(&sh.online, int32(len(sh.clients)))
				metrics.WsConnections.Dec()
				sh.emit(map[string]interface{}{"type": "leave", "stationId": sh.stationID, "userId": c.userID, "fullname": c.fullname, "online": int(atomic.LoadInt32(&sh.online))})
			}
		case msg := <-sh.broadcast:
			for c := range sh.clients {
				select {
				case c.send <- msg:
				default:
					close(c.send)
					delete(sh.clients, c)
					metrics.WsConnections.Dec()
				}
			}
		}
	}
}

func (sh *StationHub) emit(evt map[string]interface{}) {
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	for c := range sh.clients {
		select {
		case c.send <- b:
		default:
			close(c.send)
			delete(sh.clients, c)
		}
	}
}

// Online 返回 station 当前在线客户端数量，供 REST 接口复用。
func (sh *StationHub) Online() int { return int(atomic.LoadInt32(&sh.online)) }
