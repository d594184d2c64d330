package models

import (
	"encoding/json"
	"fmt"

	chaterr "edu-chat/errors"
)

// 事件类型标签；通道两端都只认识这些形状，未识别的载荷直接拒绝
const (
	// 服务端 -> 客户端
	EventNewMessage      = "new-message"
	EventReadReceipt     = "read-receipt"
	EventChatListChanged = "chat-list-changed"

	// 客户端 -> 服务端
	EventJoinRoom = "join-room"
	EventMarkRead = "mark-read"
)

// NewMessageEvent 新消息推送
type NewMessageEvent struct {
	Type    string  `json:"type"`
	Message Message `json:"message"`
}

// ReadReceiptEvent 已读回执，推送给被阅读一方（原发送者）
type ReadReceiptEvent struct {
	Type         string `json:"type"`
	ReaderID     string `json:"reader_id"`
	OtherPartyID string `json:"other_party_id"`
}

// ChatListChangedEvent 会话列表刷新提示，客户端收到后重新拉取
type ChatListChangedEvent struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participant_id"`
}

// JoinRoomEvent 客户端连接后声明身份
type JoinRoomEvent struct {
	Type          string `json:"type"`
	ParticipantID string `json:"participant_id"`
}

// MarkReadEvent 客户端标记已读：sender 是对方，receiver 是阅读者自己
type MarkReadEvent struct {
	Type       string `json:"type"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
}

func NewMessagePayload(msg Message) NewMessageEvent {
	return NewMessageEvent{Type: EventNewMessage, Message: msg}
}

func ReadReceiptPayload(readerID, otherPartyID string) ReadReceiptEvent {
	return ReadReceiptEvent{Type: EventReadReceipt, ReaderID: readerID, OtherPartyID: otherPartyID}
}

func ChatListChangedPayload(participantID string) ChatListChangedEvent {
	return ChatListChangedEvent{Type: EventChatListChanged, ParticipantID: participantID}
}

// envelope 只用来窥探 type 字段
type envelope struct {
	Type string `json:"type"`
}

// DecodeServerEvent 解析服务端推送；形状不完整或类型未知一律报错
func DecodeServerEvent(data []byte) (interface{}, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", chaterr.ErrUnknownEventType, err)
	}
	switch env.Type {
	case EventNewMessage:
		var evt NewMessageEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, fmt.Errorf("%w: %v", chaterr.ErrUnknownEventType, err)
		}
		if evt.Message.MessageID == "" || evt.Message.SenderID == "" {
			return nil, fmt.Errorf("%w: new-message missing required fields", chaterr.ErrUnknownEventType)
		}
		return evt, nil
	case EventReadReceipt:
		var evt ReadReceiptEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, fmt.Errorf("%w: %v", chaterr.ErrUnknownEventType, err)
		}
		if evt.ReaderID == "" || evt.OtherPartyID == "" {
			return nil, fmt.Errorf("%w: read-receipt missing required fields", chaterr.ErrUnknownEventType)
		}
		return evt, nil
	case EventChatListChanged:
		var evt ChatListChangedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, fmt.Errorf("%w: %v", chaterr.ErrUnknownEventType, err)
		}
		if evt.ParticipantID == "" {
			return nil, fmt.Errorf("%w: chat-list-changed missing participant_id", chaterr.ErrUnknownEventType)
		}
		return evt, nil
	default:
		return nil, fmt.Errorf("%w: %q", chaterr.ErrUnknownEventType, env.Type)
	}
}

// DecodeClientEvent 解析客户端上行事件
func DecodeClientEvent(data []byte) (interface{}, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", chaterr.ErrUnknownEventType, err)
	}
	switch env.Type {
	case EventJoinRoom:
		var evt JoinRoomEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, fmt.Errorf("%w: %v", chaterr.ErrUnknownEventType, err)
		}
		if evt.ParticipantID == "" {
			return nil, fmt.Errorf("%w: join-room missing participant_id", chaterr.ErrUnknownEventType)
		}
		return evt, nil
	case EventMarkRead:
		var evt MarkReadEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, fmt.Errorf("%w: %v", chaterr.ErrUnknownEventType, err)
		}
		if evt.SenderID == "" || evt.ReceiverID == "" {
			return nil, fmt.Errorf("%w: mark-read missing required fields", chaterr.ErrUnknownEventType)
		}
		return evt, nil
	default:
		return nil, fmt.Errorf("%w: %q", chaterr.ErrUnknownEventType, env.Type)
	}
}
