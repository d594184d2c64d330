package services

import (
	"log"
	"time"

	"edu-chat/models"
	"edu-chat/store"
)

// ReadCoordinator 已读回执：批量置已读并通知原发送者
type ReadCoordinator struct {
	store     store.MessageStore
	rooms     RoomRegistry
	scheduler *Scheduler
}

func NewReadCoordinator(messageStore store.MessageStore, rooms RoomRegistry, scheduler *Scheduler) *ReadCoordinator {
	return &ReadCoordinator{
		store:     messageStore,
		rooms:     rooms,
		scheduler: scheduler,
	}
}

// MarkRead 把 otherParty 发给 reader 的未读消息全部置为已读。
// 单条条件批量更新，同一会话开多个标签页也不会重复计数。
// 没有未读是正常情况，不推送也不报错（幂等）。
func (c *ReadCoordinator) MarkRead(readerID, otherPartyID string) error {
	affected, err := c.store.MarkConversationRead(readerID, otherPartyID, time.Now().UTC())
	if err != nil {
		log.Printf("⚠️ Failed to mark messages read for %s (from %s): %v", readerID, otherPartyID, err)
		return err
	}
	if affected == 0 {
		return nil
	}

	// 已读状态已落库，推送失败不回滚；未读数会在下次聚合时自愈
	c.rooms.Publish(otherPartyID, models.ReadReceiptPayload(readerID, otherPartyID))
	c.scheduler.Touch(readerID)

	return nil
}
