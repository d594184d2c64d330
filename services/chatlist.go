package services

import (
	"sort"

	"github.com/samber/lo"

	"edu-chat/models"
	"edu-chat/store"
)

// ChatList 会话列表聚合器。
// 摘要永远从消息重新计算，消息是唯一事实来源，不存在双写不一致。
type ChatList struct {
	store store.MessageStore
}

func NewChatList(messageStore store.MessageStore) *ChatList {
	return &ChatList{store: messageStore}
}

// Conversations 返回某参与者的会话摘要，按最新活动降序。
// 脏数据跳过而不是整个调用失败；没有消息返回空列表。
func (a *ChatList) Conversations(participantID string) ([]models.ConversationSummary, error) {
	messages, err := a.store.Touching(participantID)
	if err != nil {
		return nil, err
	}

	valid := lo.Filter(messages, func(m models.Message, _ int) bool {
		return m.MessageID != "" &&
			m.SenderID != "" &&
			m.ReceiverID != "" &&
			m.SenderID != m.ReceiverID &&
			!m.CreatedAt.IsZero() &&
			m.Touches(participantID)
	})

	groups := lo.GroupBy(valid, func(m models.Message) string {
		return m.OtherParty(participantID)
	})

	// 对方ID按首次出现顺序去重，排序并列时保持这个顺序
	otherIDs := lo.Uniq(lo.Map(valid, func(m models.Message, _ int) string {
		return m.OtherParty(participantID)
	}))

	summaries := make([]models.ConversationSummary, 0, len(otherIDs))
	for _, otherID := range otherIDs {
		group := groups[otherID]
		last := lo.MaxBy(group, func(a, b models.Message) bool {
			return a.CreatedAt.After(b.CreatedAt)
		})
		unread := lo.CountBy(group, func(m models.Message) bool {
			return m.SenderID == otherID && m.ReceiverID == participantID && !m.IsRead()
		})
		summaries = append(summaries, models.ConversationSummary{
			OtherParticipantID: otherID,
			LastMessage:        last,
			LastMessageAt:      last.CreatedAt,
			UnreadCount:        unread,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessageAt.After(summaries[j].LastMessageAt)
	})
	return summaries, nil
}
