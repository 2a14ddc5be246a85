package service

import (
	"encoding/json"
	"net/http"
	"time"

	"visa_interview_backend/pkg/logger"
	"visa_interview_backend/pkg/monitoring"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192 // 整段转写文本，比普通聊天消息长
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage 上下行消息统一信封
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type transcriptPayload struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
}

type bodySamplePayload struct {
	Score float64 `json:"score"`
}

// TranscriptHub 把单个会话的 WebSocket 连接桥接到面试引擎：
// 上行转写与体态采样帧进引擎，引擎出站事件推回客户端
type TranscriptHub struct {
	Interviews *InterviewService
}

func NewTranscriptHub(interviews *InterviewService) *TranscriptHub {
	return &TranscriptHub{Interviews: interviews}
}

type sessionClient struct {
	conn      *websocket.Conn
	send      chan []byte
	hub       *TranscriptHub
	userID    uint
	sessionID string
	limiter   *rate.Limiter
}

// ServeWS 升级连接并绑定到会话，断开只取消订阅、不放弃会话，
// 计时器照常运行，允许客户端重连
func (h *TranscriptHub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, userID uint) error {
	if _, err := h.Interviews.GetSession(sessionID, userID); err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &sessionClient{
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		hub:       h,
		userID:    userID,
		sessionID: sessionID,
		limiter:   rate.NewLimiter(rate.Limit(30), 50),
	}

	// 引擎回调在持锁状态下触发，这里绝不能阻塞：缓冲满直接丢帧
	unsubscribe := h.Interviews.Subscribe(sessionID, func(ev EngineEvent) {
		data, err := json.Marshal(WSMessage{Type: ev.Type, Data: ev.Payload})
		if err != nil {
			return
		}
		select {
		case client.send <- data:
			monitoring.WSMessageCounter.WithLabelValues(ev.Type, "out").Inc()
		default:
			logger.Log.Warn("WebSocket send buffer full, dropping event",
				zap.String("sessionId", sessionID), zap.String("event", ev.Type))
		}
	})

	go client.writePump()
	go client.readPump(unsubscribe)
	return nil
}

func (c *sessionClient) readPump(unsubscribe func()) {
	// send 通道不关闭：取消订阅后仍可能有在途回调写入，
	// writePump 靠连接关闭后的写错误退出
	defer func() {
		unsubscribe()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.String("sessionId", c.sessionID))
			}
			break
		}

		// 限流 (每秒 30 帧，突发 50)
		if !c.limiter.Allow() {
			continue
		}

		var wsMsg WSMessage
		if err := json.Unmarshal(message, &wsMsg); err != nil {
			continue
		}

		monitoring.WSMessageCounter.WithLabelValues(wsMsg.Type, "in").Inc()

		raw, err := json.Marshal(wsMsg.Data)
		if err != nil {
			continue
		}

		switch wsMsg.Type {
		case "TRANSCRIPT_UPDATE":
			var p transcriptPayload
			if err := json.Unmarshal(raw, &p); err != nil {
				continue
			}
			if err := c.hub.Interviews.HandleTranscript(c.sessionID, c.userID, p.Text, p.Confidence); err != nil {
				logger.Log.Debug("Transcript frame rejected",
					zap.String("sessionId", c.sessionID), zap.Error(err))
			}
		case "BODY_SAMPLE":
			var p bodySamplePayload
			if err := json.Unmarshal(raw, &p); err != nil {
				continue
			}
			if err := c.hub.Interviews.HandleBodySample(c.sessionID, c.userID, p.Score); err != nil {
				logger.Log.Debug("Body sample rejected",
					zap.String("sessionId", c.sessionID), zap.Error(err))
			}
		}
	}
}

func (c *sessionClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if n := len(c.send); n > 0 {
				for i := 0; i < n; i++ {
					w.Write(<-c.send)
				}
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
