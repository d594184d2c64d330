package services

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Client 代表某个参与者的一条活跃连接。
// Send 由写泵消费，保证单连接内 FIFO；跨连接不保证顺序。
type Client struct {
	ParticipantID string
	ConnectionID  string
	Send          chan []byte
}

// RoomRegistry 参与者 -> 活跃连接 的注册表。
// 注入接口而不是进程级全局表，之后可以换成分布式 pub/sub 而不动派发逻辑。
type RoomRegistry interface {
	Join(participantID string) *Client
	Leave(client *Client)
	Publish(participantID string, event interface{})
}

// Hub RoomRegistry 的进程内实现；按 participantID 分组存多条连接
type Hub struct {
	mu         sync.Mutex
	clients    map[string][]*Client
	sendBuffer int
}

func NewHub(sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 32
	}
	return &Hub{
		clients:    make(map[string][]*Client),
		sendBuffer: sendBuffer,
	}
}

// Join 注册一条新连接
func (h *Hub) Join(participantID string) *Client {
	client := &Client{
		ParticipantID: participantID,
		ConnectionID:  uuid.New().String(),
		Send:          make(chan []byte, h.sendBuffer),
	}

	h.mu.Lock()
	h.clients[participantID] = append(h.clients[participantID], client)
	h.mu.Unlock()

	log.Printf("🟢 Participant %s connected (connection %s)", participantID, client.ConnectionID)
	return client
}

// Leave 注销连接。Send 通道不在这里关闭，写泵通过会话信号退出，
// 避免心跳等并发写入已关闭通道。
func (h *Hub) Leave(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.ParticipantID]
	for i, c := range clients {
		if c == client {
			h.clients[client.ParticipantID] = append(clients[:i], clients[i+1:]...)
			log.Printf("🔴 Participant %s disconnected (connection %s)", client.ParticipantID, client.ConnectionID)
			break
		}
	}
	if len(h.clients[client.ParticipantID]) == 0 {
		delete(h.clients, client.ParticipantID)
	}
}

// Publish 向某参与者的全部活跃连接推送事件。
// 没有连接时静默返回：离线投递只靠落库消息，不做事件缓冲。
// 慢连接直接丢帧（投递缺口由下一次拉取自愈），不能阻塞别的连接。
func (h *Hub) Publish(participantID string, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️ Failed to marshal event for %s: %v", participantID, err)
		return
	}

	h.mu.Lock()
	clients := make([]*Client, len(h.clients[participantID]))
	copy(clients, h.clients[participantID])
	h.mu.Unlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			log.Printf("⚠️ Dropping event for slow connection %s (participant %s)", client.ConnectionID, participantID)
		}
	}
}

// ConnectionCount 当前某参与者的连接数
func (h *Hub) ConnectionCount(participantID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[participantID])
}
