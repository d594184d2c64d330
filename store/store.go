package store

import (
	"time"

	"edu-chat/models"
)

// MessageStore 消息的持久化边界。注入接口而不是全局 DB，
// 方便换成其他后端，也让调度逻辑可以脱离 MySQL 测试。
type MessageStore interface {
	// Append 落库一条新消息；失败时不允许任何后续推送
	Append(msg models.Message) error

	// History 返回两个参与者之间的全部消息，按 CreatedAt 升序
	History(participantA, participantB string) ([]models.Message, error)

	// Touching 返回某参与者发出或收到的全部消息
	Touching(participantID string) ([]models.Message, error)

	// MarkConversationRead 单条条件批量更新：
	// sender=other 且 receiver=reader 且未读的消息全部置为已读，返回影响行数。
	// 必须原子执行，避免多个标签页同时打开会话时重复计数。
	MarkConversationRead(readerID, otherPartyID string, at time.Time) (int64, error)
}
