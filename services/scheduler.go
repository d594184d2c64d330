package services

import (
	"sync"
	"time"

	"edu-chat/models"
)

// Scheduler 会话列表刷新的合并调度器。
// 每个参与者只有一个待触发的定时器，新的触发只是重置它，
// 消息风暴被合并成窗口结束后的一次 chat-list-changed 提示。
type Scheduler struct {
	mu      sync.Mutex
	window  time.Duration
	rooms   RoomRegistry
	timers  map[string]*time.Timer
	stopped bool
}

func NewScheduler(window time.Duration, rooms RoomRegistry) *Scheduler {
	if window <= 0 {
		window = 300 * time.Millisecond
	}
	return &Scheduler{
		window: window,
		rooms:  rooms,
		timers: make(map[string]*time.Timer),
	}
}

// Touch 记录一次触及该参与者的事件（发送/接收/已读），重置其定时器
func (s *Scheduler) Touch(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if timer, ok := s.timers[participantID]; ok {
		timer.Reset(s.window)
		return
	}
	s.timers[participantID] = time.AfterFunc(s.window, func() {
		s.fire(participantID)
	})
}

func (s *Scheduler) fire(participantID string) {
	s.mu.Lock()
	delete(s.timers, participantID)
	stopped := s.stopped
	s.mu.Unlock()

	if stopped {
		return
	}
	// 只是刷新提示，客户端收到后自己重新拉取
	s.rooms.Publish(participantID, models.ChatListChangedPayload(participantID))
}

// Stop 停掉所有挂起的定时器
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}
