package client

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"edu-chat/models"
)

// EventHandler 接收解析后的服务端事件
type EventHandler interface {
	HandleEvent(event interface{})
}

// Wire 与服务端的长连接；解码带类型标签的事件并交给处理器。
// 不认识的载荷直接丢弃，不会传给上层。
type Wire struct {
	conn    *websocket.Conn
	handler EventHandler

	writeMu sync.Mutex
}

// Dial 建立连接；凭证放在 token 查询参数里（浏览器 ws 带不了请求头）
func Dial(ctx context.Context, serverURL, credential string, handler EventHandler) (*Wire, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	query := u.Query()
	query.Set("token", credential)
	u.RawQuery = query.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	return &Wire{conn: conn, handler: handler}, nil
}

// Listen 读取循环；连接断开时返回。
// 错过的推送不在这里重试（重试会造成重复消息风暴），
// 缺口由下一次历史拉取或会话列表刷新自愈。
func (w *Wire) Listen() error {
	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			return err
		}

		if string(data) == "ping" {
			w.writeMu.Lock()
			err := w.conn.WriteMessage(websocket.TextMessage, []byte("pong"))
			w.writeMu.Unlock()
			if err != nil {
				return err
			}
			continue
		}

		event, err := models.DecodeServerEvent(data)
		if err != nil {
			log.Printf("⚠️ Dropping unrecognized server frame: %v", err)
			continue
		}
		w.handler.HandleEvent(event)
	}
}

// JoinRoom 发送显式的 join-room 声明（协议兼容，服务端按凭证早已入房）
func (w *Wire) JoinRoom(participantID string) error {
	return w.writeJSON(models.JoinRoomEvent{Type: models.EventJoinRoom, ParticipantID: participantID})
}

// MarkRead 通过通道上报已读：sender 是对方，receiver 是自己
func (w *Wire) MarkRead(senderID, receiverID string) error {
	return w.writeJSON(models.MarkReadEvent{Type: models.EventMarkRead, SenderID: senderID, ReceiverID: receiverID})
}

func (w *Wire) writeJSON(event interface{}) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.conn.WriteJSON(event)
}

func (w *Wire) Close() error {
	return w.conn.Close()
}
