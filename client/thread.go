package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	chaterr "edu-chat/errors"
	"edu-chat/models"
)

// ThreadState 打开的会话的状态机：Idle -> Loading -> Ready
type ThreadState int

const (
	StateIdle ThreadState = iota
	StateLoading
	StateReady
)

func (s ThreadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// API 客户端依赖的服务端接口
type API interface {
	// History 拉取与某参与者的全部消息
	History(ctx context.Context, otherID string) ([]models.Message, error)
	// Send 发送消息，返回服务端确认的记录
	Send(ctx context.Context, receiverID, content string) (models.Message, error)
}

// Entry 线程里的一条消息；乐观发送的条目带临时ID，等服务端确认后替换
type Entry struct {
	models.Message
	Pending bool   `json:"pending"`
	TempID  string `json:"temp_id,omitempty"`
}

// Options 线程可调参数
type Options struct {
	// SendTimeout 发送的客户端超时；沉默必须转化为显式失败
	SendTimeout time.Duration
	// ScrollThreshold 距底部超过该距离时锁定滚动
	ScrollThreshold int
	// ScrollToBottom 渲染层提供的唯一滚动动作
	ScrollToBottom func()
	// Notifier 其他会话来消息时的通知出口
	Notifier *Notifier
	// Refresher 会话列表刷新的合并出口
	Refresher *RefreshDebouncer
}

// Thread 一个打开的会话的本地状态。
// 消息顺序以服务端 CreatedAt 为准，客户端唯一的重排就是追加新到达的消息。
type Thread struct {
	selfID         string
	otherID        string
	conversationID string
	api            API
	opts           Options

	mu            sync.Mutex
	state         ThreadState
	entries       []Entry
	seen          map[string]struct{} // 已在列表里的服务端消息ID
	pendingSends  int
	scrollLocked  bool
	scrollPending bool
	closed        bool
}

func NewThread(selfID, otherID string, api API, opts Options) *Thread {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	if opts.ScrollThreshold <= 0 {
		opts.ScrollThreshold = 120
	}
	return &Thread{
		selfID:         selfID,
		otherID:        otherID,
		conversationID: models.ConversationIDFor(selfID, otherID),
		api:            api,
		opts:           opts,
		state:          StateIdle,
		seen:           make(map[string]struct{}),
	}
}

// Open 拉取完整历史并进入 Ready；强制滚动到底部恰好一次，
// 由渲染层的 ContentRendered 回调驱动，不做定时重试。
func (t *Thread) Open(ctx context.Context) error {
	t.mu.Lock()
	if t.state != StateIdle {
		t.mu.Unlock()
		return fmt.Errorf("thread already opened (state %s)", t.state)
	}
	t.state = StateLoading
	t.mu.Unlock()

	messages, err := t.api.History(ctx, t.otherID)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.state = StateIdle
		return err
	}

	t.entries = make([]Entry, 0, len(messages))
	for _, m := range messages {
		t.entries = append(t.entries, Entry{Message: m})
		t.seen[m.MessageID] = struct{}{}
	}
	t.state = StateReady
	t.scrollPending = true
	return nil
}

// Send 乐观发送：先本地追加，再发请求。
// 成功按临时ID对账（并发到达的消息会动列表位置，位置不可靠）；
// 失败移除本地条目并返回可重试的错误。关闭会话不会取消在途发送。
func (t *Thread) Send(ctx context.Context, content string) (models.Message, error) {
	t.mu.Lock()
	if t.state != StateReady {
		t.mu.Unlock()
		return models.Message{}, fmt.Errorf("thread not ready")
	}

	tempID := uuid.New().String()
	t.entries = append(t.entries, Entry{
		Message: models.Message{
			ConversationID: t.conversationID,
			SenderID:       t.selfID,
			ReceiverID:     t.otherID,
			Content:        content,
			CreatedAt:      time.Now(),
		},
		Pending: true,
		TempID:  tempID,
	})
	t.pendingSends++
	t.mu.Unlock()

	sendCtx, cancel := context.WithTimeout(ctx, t.opts.SendTimeout)
	defer cancel()

	confirmed, err := t.api.Send(sendCtx, t.otherID, content)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", chaterr.ErrSendTimeout, err)
		}
		t.dropPending(tempID)
		return models.Message{}, err
	}

	t.reconcile(tempID, confirmed)
	return confirmed, nil
}

// reconcile 用服务端记录替换临时条目；若该消息已经从推送先到了，去掉重复
func (t *Thread) reconcile(tempID string, confirmed models.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pendingSends--
	for i := range t.entries {
		if t.entries[i].TempID == tempID {
			if _, dup := t.seen[confirmed.MessageID]; dup {
				t.entries = append(t.entries[:i], t.entries[i+1:]...)
			} else {
				t.entries[i] = Entry{Message: confirmed}
				t.seen[confirmed.MessageID] = struct{}{}
			}
			return
		}
	}
	// 临时条目已不在（会话状态被重建等），直接补服务端记录
	if _, dup := t.seen[confirmed.MessageID]; !dup {
		t.entries = append(t.entries, Entry{Message: confirmed})
		t.seen[confirmed.MessageID] = struct{}{}
	}
}

func (t *Thread) dropPending(tempID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pendingSends--
	for i := range t.entries {
		if t.entries[i].TempID == tempID {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

// HandleEvent 处理服务端推送。
// 关闭后的线程不再应用任何入站更新（但在途发送照常对账）。
func (t *Thread) HandleEvent(event interface{}) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	switch e := event.(type) {
	case models.NewMessageEvent:
		t.handleNewMessage(e.Message)
	case models.ReadReceiptEvent:
		t.handleReadReceipt(e)
	case models.ChatListChangedEvent:
		if t.opts.Refresher != nil {
			t.opts.Refresher.Trigger()
		}
	}
}

func (t *Thread) handleNewMessage(msg models.Message) {
	if msg.ConversationID != t.conversationID {
		// 别的会话的消息不动当前线程：弹自动消失的通知，合并刷新会话列表
		if t.opts.Notifier != nil {
			t.opts.Notifier.Push(msg.SenderID, msg.Content)
		}
		if t.opts.Refresher != nil {
			t.opts.Refresher.Trigger()
		}
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.seen[msg.MessageID]; dup {
		return
	}
	t.entries = append(t.entries, Entry{Message: msg})
	t.seen[msg.MessageID] = struct{}{}

	// 用户滚到上面去了就不打扰，只追加不滚动
	if !t.scrollLocked {
		t.scrollPending = true
	}
}

func (t *Thread) handleReadReceipt(e models.ReadReceiptEvent) {
	// 对方读了我发的消息
	if e.ReaderID != t.otherID || e.OtherPartyID != t.selfID {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for i := range t.entries {
		entry := &t.entries[i]
		// 按消息记录本身匹配，绝不按列表下标
		if !entry.Pending && entry.SenderID == t.selfID && entry.ReadAt == nil {
			readAt := now
			entry.ReadAt = &readAt
		}
	}
}

// SetScrollOffset 渲染层上报距底部的距离；超过阈值锁定，回到底部解锁
func (t *Thread) SetScrollOffset(distanceFromBottom int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if distanceFromBottom > t.opts.ScrollThreshold {
		t.scrollLocked = true
	} else if distanceFromBottom == 0 {
		t.scrollLocked = false
	}
}

// ContentRendered 渲染层完成一次渲染后的确定性回调；
// 有待执行的滚动就执行一次，没有就什么也不做
func (t *Thread) ContentRendered() {
	t.mu.Lock()
	pending := t.scrollPending
	t.scrollPending = false
	scroll := t.opts.ScrollToBottom
	t.mu.Unlock()

	if pending && scroll != nil {
		scroll()
	}
}

// Close 停止应用入站更新；不取消在途发送，它仍会落库并对账
func (t *Thread) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

// Snapshot 当前线程状态的快照，渲染层和测试都用它
type Snapshot struct {
	State         ThreadState
	Sending       bool
	Entries       []Entry
	ScrollLocked  bool
	ScrollPending bool
}

func (t *Thread) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := make([]Entry, len(t.entries))
	copy(entries, t.entries)
	return Snapshot{
		State:         t.state,
		Sending:       t.pendingSends > 0,
		Entries:       entries,
		ScrollLocked:  t.scrollLocked,
		ScrollPending: t.scrollPending,
	}
}
