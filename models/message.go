package models

import (
	"fmt"
	"sort"
	"time"
)

// Message 私聊消息，只追加、不删除；ReadAt 是唯一允许的后续变更
type Message struct {
	MessageID      string     `json:"message_id" gorm:"primaryKey;type:varchar(36)"` // 消息 ID
	ConversationID string     `json:"conversation_id" gorm:"type:varchar(80);index"` // 会话 ID（有序参与者对）
	SenderID       string     `json:"sender_id" gorm:"type:varchar(36);index"`       // 发送者 ID
	SenderKind     string     `json:"sender_kind" gorm:"type:varchar(10)"`           // applicant / agent
	ReceiverID     string     `json:"receiver_id" gorm:"type:varchar(36);index"`     // 接收者 ID
	Content        string     `json:"content"`                                       // 消息内容
	CreatedAt      time.Time  `json:"created_at"`                                    // 服务端时间，排序唯一依据
	ReadAt         *time.Time `json:"read_at" gorm:"default:NULL"`                   // 未读时为 NULL
}

// ConversationIDFor 生成私聊会话ID；两个用户ID排序后拼接，保证双方看到同一会话
func ConversationIDFor(participantA, participantB string) string {
	ids := []string{participantA, participantB}
	sort.Strings(ids)
	return fmt.Sprintf("%s_%s", ids[0], ids[1])
}

// Touches 判断消息是否与某个参与者相关
func (m Message) Touches(participantID string) bool {
	return m.SenderID == participantID || m.ReceiverID == participantID
}

// OtherParty 返回会话中的另一方
func (m Message) OtherParty(participantID string) string {
	if m.SenderID == participantID {
		return m.ReceiverID
	}
	return m.SenderID
}

// IsRead 是否已读
func (m Message) IsRead() bool {
	return m.ReadAt != nil
}
