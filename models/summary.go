package models

import "time"

// ConversationSummary 会话摘要，按需从消息重新计算，永不落库
type ConversationSummary struct {
	OtherParticipantID string    `json:"other_participant_id"`
	LastMessage        Message   `json:"last_message"`
	LastMessageAt      time.Time `json:"last_message_at"`
	UnreadCount        int       `json:"unread_count"`
}
