package services

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"edu-chat/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSService 每个客户端标签页一条长连接；读写各一个泵，互不阻塞
type WSService struct {
	rooms        RoomRegistry
	receipts     *ReadCoordinator
	pingInterval time.Duration
	pongTimeout  time.Duration
}

func NewWSService(rooms RoomRegistry, receipts *ReadCoordinator, pingInterval, pongTimeout time.Duration) *WSService {
	if pingInterval <= 0 {
		pingInterval = 10 * time.Second
	}
	if pongTimeout <= 0 {
		pongTimeout = 15 * time.Second
	}
	return &WSService{
		rooms:        rooms,
		receipts:     receipts,
		pingInterval: pingInterval,
		pongTimeout:  pongTimeout,
	}
}

// session 一条连接的运行时状态
type session struct {
	conn     *websocket.Conn
	client   *Client
	mu       sync.Mutex
	lastPong time.Time
	done     chan struct{}
}

// Handle 升级连接并注册到房间。
// 升级时的凭证已经决定了身份，连上即入房。
func (s *WSService) Handle(ctx *gin.Context, participant models.Participant) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	sess := &session{
		conn:     conn,
		client:   s.rooms.Join(participant.ID),
		lastPong: time.Now(),
		done:     make(chan struct{}),
	}

	go s.writePump(sess)
	go s.heartbeat(sess)
	go s.readPump(sess, participant)
}

func (s *WSService) readPump(sess *session, participant models.Participant) {
	defer func() {
		s.rooms.Leave(sess.client)
		close(sess.done)
		sess.conn.Close()
	}()

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}

		if string(data) == "pong" {
			sess.mu.Lock()
			sess.lastPong = time.Now()
			sess.mu.Unlock()
			continue
		}

		event, err := models.DecodeClientEvent(data)
		if err != nil {
			// 不认识的载荷直接丢弃，单条坏消息不影响连接
			log.Printf("⚠️ Ignoring malformed frame from %s: %v", participant.ID, err)
			continue
		}

		switch e := event.(type) {
		case models.JoinRoomEvent:
			// 入房在升级时已完成；显式 join-room 只为协议兼容，校验一致性
			if e.ParticipantID != participant.ID {
				log.Printf("⚠️ join-room participant mismatch: connection is %s, event says %s", participant.ID, e.ParticipantID)
			}
		case models.MarkReadEvent:
			if e.ReceiverID != participant.ID {
				log.Printf("⚠️ Ignoring mark-read for another participant from %s", participant.ID)
				continue
			}
			if err := s.receipts.MarkRead(e.ReceiverID, e.SenderID); err != nil {
				// 错误是请求级的，连接继续活着
				log.Printf("⚠️ mark-read failed for %s: %v", participant.ID, err)
			}
		}
	}
}

func (s *WSService) writePump(sess *session) {
	for {
		select {
		case <-sess.done:
			return
		case data := <-sess.client.Send:
			if err := sess.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("⚠️ Write failed on connection %s: %v", sess.client.ConnectionID, err)
				sess.conn.Close()
				return
			}
		}
	}
}

func (s *WSService) heartbeat(sess *session) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sess.done:
			return
		case <-ticker.C:
			sess.mu.Lock()
			silent := time.Since(sess.lastPong) > s.pongTimeout
			sess.mu.Unlock()

			if silent {
				log.Printf("⚠️ Connection %s timed out, closing", sess.client.ConnectionID)
				sess.conn.Close()
				return
			}

			// 心跳也走发送通道，和业务帧共用一个写入口
			select {
			case sess.client.Send <- []byte("ping"):
			default:
			}
		}
	}
}
