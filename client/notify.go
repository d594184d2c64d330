package client

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notice 一条自动消失的通知
type Notice struct {
	ID    string
	Title string
	Body  string
	At    time.Time
}

// Notifier 管理通知的生命周期；每条通知到期自动消失
type Notifier struct {
	mu       sync.Mutex
	ttl      time.Duration
	active   []Notice
	timers   map[string]*time.Timer
	onChange func([]Notice)
	stopped  bool
}

func NewNotifier(ttl time.Duration, onChange func([]Notice)) *Notifier {
	if ttl <= 0 {
		ttl = 4 * time.Second
	}
	return &Notifier{
		ttl:      ttl,
		timers:   make(map[string]*time.Timer),
		onChange: onChange,
	}
}

// Push 弹出一条通知并安排它的消失
func (n *Notifier) Push(title, body string) Notice {
	notice := Notice{
		ID:    uuid.New().String(),
		Title: title,
		Body:  body,
		At:    time.Now(),
	}

	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return notice
	}
	n.active = append(n.active, notice)
	n.timers[notice.ID] = time.AfterFunc(n.ttl, func() {
		n.Dismiss(notice.ID)
	})
	callback := n.onChange
	snapshot := n.snapshotLocked()
	n.mu.Unlock()

	if callback != nil {
		callback(snapshot)
	}
	return notice
}

// Dismiss 手动或到期移除通知；重复移除是无害的
func (n *Notifier) Dismiss(id string) {
	n.mu.Lock()
	if timer, ok := n.timers[id]; ok {
		timer.Stop()
		delete(n.timers, id)
	}
	for i, notice := range n.active {
		if notice.ID == id {
			n.active = append(n.active[:i], n.active[i+1:]...)
			break
		}
	}
	callback := n.onChange
	snapshot := n.snapshotLocked()
	n.mu.Unlock()

	if callback != nil {
		callback(snapshot)
	}
}

// Active 当前在屏的通知
func (n *Notifier) Active() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snapshotLocked()
}

// Stop 停掉全部定时器
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopped = true
	for id, timer := range n.timers {
		timer.Stop()
		delete(n.timers, id)
	}
}

func (n *Notifier) snapshotLocked() []Notice {
	snapshot := make([]Notice, len(n.active))
	copy(snapshot, n.active)
	return snapshot
}

// RefreshDebouncer 会话列表刷新的客户端合并器。
// 单个定时器重置而不是叠加，和服务端的调度器同一套节奏。
type RefreshDebouncer struct {
	mu      sync.Mutex
	window  time.Duration
	timer   *time.Timer
	refresh func()
	stopped bool
}

func NewRefreshDebouncer(window time.Duration, refresh func()) *RefreshDebouncer {
	if window <= 0 {
		window = 300 * time.Millisecond
	}
	return &RefreshDebouncer{
		window:  window,
		refresh: refresh,
	}
}

// Trigger 请求一次刷新；窗口内的重复请求只是重置定时器
func (d *RefreshDebouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Reset(d.window)
		return
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		d.timer = nil
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped && d.refresh != nil {
			d.refresh()
		}
	})
}

// Stop 停掉挂起的刷新
func (d *RefreshDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
