package store

import (
	"sort"
	"sync"
	"time"

	"edu-chat/models"
)

// Memory 内存消息存储，测试与无 DSN 的本地开发使用
type Memory struct {
	mu       sync.Mutex
	messages []models.Message

	// 注入的故障，模拟存储不可用
	appendErr error
}

func NewMemory() *Memory {
	return &Memory{}
}

// FailAppendWith 让后续 Append 返回指定错误
func (s *Memory) FailAppendWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}

func (s *Memory) Append(msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *Memory) History(participantA, participantB string) ([]models.Message, error) {
	conversationID := models.ConversationIDFor(participantA, participantB)

	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			result = append(result, m)
		}
	}
	// 时间相同保持插入顺序
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Memory) Touching(participantID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Message
	for _, m := range s.messages {
		if m.Touches(participantID) {
			result = append(result, m)
		}
	}
	return result, nil
}

func (s *Memory) MarkConversationRead(readerID, otherPartyID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var affected int64
	for i := range s.messages {
		m := &s.messages[i]
		if m.SenderID == otherPartyID && m.ReceiverID == readerID && m.ReadAt == nil {
			readAt := at
			m.ReadAt = &readAt
			affected++
		}
	}
	return affected, nil
}
