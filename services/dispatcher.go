package services

import (
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	chaterr "edu-chat/errors"
	"edu-chat/models"
	"edu-chat/store"
)

// Dispatcher 消息派发：先落库，再向双方房间广播
type Dispatcher struct {
	store     store.MessageStore
	rooms     RoomRegistry
	scheduler *Scheduler
}

func NewDispatcher(messageStore store.MessageStore, rooms RoomRegistry, scheduler *Scheduler) *Dispatcher {
	return &Dispatcher{
		store:     messageStore,
		rooms:     rooms,
		scheduler: scheduler,
	}
}

// Send 发送一条私聊消息。
// 顺序不可调换：任何写入前先校验；落库成功之前绝不推送，
// 崩溃最多丢一次实时推送（由下次拉取自愈），不会丢已发送的消息。
func (d *Dispatcher) Send(sender models.Participant, receiverID, content string) (models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return models.Message{}, chaterr.ErrEmptyContent
	}
	if receiverID == "" {
		return models.Message{}, chaterr.ErrMissingReceiver
	}
	if sender.ID == receiverID {
		return models.Message{}, chaterr.ErrSelfConversation
	}

	message := models.Message{
		MessageID:      uuid.New().String(),
		ConversationID: models.ConversationIDFor(sender.ID, receiverID),
		SenderID:       sender.ID,
		SenderKind:     sender.Kind,
		ReceiverID:     receiverID,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}

	if err := d.store.Append(message); err != nil {
		log.Printf("⚠️ Failed to persist message from %s to %s: %v", sender.ID, receiverID, err)
		return models.Message{}, err
	}

	// 推送是尽力而为：接收方拿到实时更新，发送方的其他标签页同步
	event := models.NewMessagePayload(message)
	d.rooms.Publish(receiverID, event)
	d.rooms.Publish(sender.ID, event)

	d.scheduler.Touch(sender.ID)
	d.scheduler.Touch(receiverID)

	return message, nil
}
