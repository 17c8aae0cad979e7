package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dorhakim100/ZenefyBackend/internal/auth"
	"github.com/dorhakim100/ZenefyBackend/internal/config"
	"github.com/dorhakim100/ZenefyBackend/internal/metrics"
	"github.com/dorhakim100/ZenefyBackend/internal/models"
	"github.com/dorhakim100/ZenefyBackend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Client struct {
	station  *StationHub
	conn     *websocket.Conn
	send     chan []byte
	stations *service.StationService
	user     *models.User
	userID   string
	fullname string
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type InboundMessage struct {
	Type     string `json:"type"`
	Txt      string `json:"txt"`
	IsTyping bool   `json:"is_typing"`
}

type OutboundMessage struct {
	Type      string            `json:"type"`
	StationID string            `json:"stationId"`
	Msg       models.StationMsg `json:"msg"`
}

// Serve 升级 websocket 连接并把客户端挂到对应 station 的 Hub 上。
// 鉴权支持 Authorization 头或 token query 参数（浏览器 WS 不能带自定义头）。
func Serve(h *Hub, stations *service.StationService, users *service.UserService, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		stationID := c.Query("station_id")
		if _, err := stations.GetByID(c.Request.Context(), stationID); err != nil {
			if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrInvalidID) {
				c.JSON(http.StatusNotFound, gin.H{"error": "station not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join station"})
			return
		}

		authz := c.GetHeader("Authorization")
		token := c.Query("token")
		if token == "" && len(authz) > 7 && (authz[:7] == "Bearer " || authz[:7] == "bearer ") {
			token = authz[7:]
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := auth.ParseAccessToken(token, cfg.JWTSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		sh := h.GetStation(stationID)
		client := &Client{
			station:  sh,
			conn:     conn,
			send:     make(chan []byte, 256),
			stations: stations,
			user:     user,
			userID:   user.ID.Hex(),
			fullname: user.Fullname,
		}
		sh.register <- client

		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.station.unregister <- c
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(1 << 20) // 1MB
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var in InboundMessage
		if err := json.Unmarshal(data, &in); err != nil || in.Txt == "" && in.Type != "typing" {
			continue
		}
		// typing 信号只广播不落库
		if in.Type == "typing" {
			evt := map[string]interface{}{"type": "typing", "stationId": c.station.stationID, "userId": c.userID, "fullname": c.fullname, "is_typing": in.IsTyping}
			if b, err := json.Marshal(evt); err == nil {
				c.station.broadcast <- b
			}
			continue
		}
		ctx, cancel := contextWithTimeout()
		msg, err := c.stations.AddMsg(ctx, c.station.stationID, &models.StationMsg{Txt: in.Txt, By: c.user.Ref()})
		cancel()
		if err != nil {
			continue
		}
		out := OutboundMessage{Type: "msg", StationID: c.station.stationID, Msg: *msg}
		b, _ := json.Marshal(out)
		metrics.StationMsgsTotal.Inc()
		c.station.broadcast <- b
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			_ = w.Close()
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
