package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	chaterr "edu-chat/errors"
	"edu-chat/models"
)

// fakeAPI 可编程的服务端替身
type fakeAPI struct {
	mu         sync.Mutex
	history    []models.Message
	historyErr error
	sendFn     func(ctx context.Context, receiverID, content string) (models.Message, error)
}

func (f *fakeAPI) History(ctx context.Context, otherID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	result := make([]models.Message, len(f.history))
	copy(result, f.history)
	return result, nil
}

func (f *fakeAPI) Send(ctx context.Context, receiverID, content string) (models.Message, error) {
	f.mu.Lock()
	fn := f.sendFn
	f.mu.Unlock()
	return fn(ctx, receiverID, content)
}

func serverMessage(sender, receiver, content string) models.Message {
	return models.Message{
		MessageID:      uuid.New().String(),
		ConversationID: models.ConversationIDFor(sender, receiver),
		SenderID:       sender,
		SenderKind:     models.KindAgent,
		ReceiverID:     receiver,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
}

func confirmedEcho(sender string) func(ctx context.Context, receiverID, content string) (models.Message, error) {
	return func(ctx context.Context, receiverID, content string) (models.Message, error) {
		return serverMessage(sender, receiverID, content), nil
	}
}

func Test_Open_Transitions_Idle_Loading_Ready_And_Scrolls_Once(t *testing.T) {
	req := require.New(t)
	api := &fakeAPI{history: []models.Message{
		serverMessage("agent-1", "me", "welcome"),
		serverMessage("me", "agent-1", "thanks"),
	}}

	scrolls := 0
	thread := NewThread("me", "agent-1", api, Options{ScrollToBottom: func() { scrolls++ }})
	req.Equal(StateIdle, thread.Snapshot().State)

	req.NoError(thread.Open(context.Background()))

	snapshot := thread.Snapshot()
	req.Equal(StateReady, snapshot.State)
	req.Len(snapshot.Entries, 2)
	req.True(snapshot.ScrollPending)

	// 渲染完成回调驱动唯一一次强制滚动，没有定时重试
	thread.ContentRendered()
	req.Equal(1, scrolls)
	thread.ContentRendered()
	req.Equal(1, scrolls)
}

func Test_Open_Failure_Falls_Back_To_Idle(t *testing.T) {
	req := require.New(t)
	api := &fakeAPI{historyErr: errors.New("network down")}
	thread := NewThread("me", "agent-1", api, Options{})

	req.Error(thread.Open(context.Background()))
	req.Equal(StateIdle, thread.Snapshot().State)

	// 可以重新打开
	api.mu.Lock()
	api.historyErr = nil
	api.mu.Unlock()
	req.NoError(thread.Open(context.Background()))
	req.Equal(StateReady, thread.Snapshot().State)
}

func Test_Optimistic_Send_Shows_Pending_Then_Reconciles_By_Temp_ID(t *testing.T) {
	req := require.New(t)
	release := make(chan models.Message)
	api := &fakeAPI{
		sendFn: func(ctx context.Context, receiverID, content string) (models.Message, error) {
			return <-release, nil
		},
	}
	thread := NewThread("me", "agent-1", api, Options{})
	req.NoError(thread.Open(context.Background()))

	done := make(chan error, 1)
	go func() {
		_, err := thread.Send(context.Background(), "hello")
		done <- err
	}()

	// 请求在途：本地已出现待确认条目，Sending 覆盖层亮起
	req.Eventually(func() bool {
		s := thread.Snapshot()
		return s.Sending && len(s.Entries) == 1 && s.Entries[0].Pending
	}, time.Second, 5*time.Millisecond)
	tempID := thread.Snapshot().Entries[0].TempID
	req.NotEmpty(tempID)

	confirmed := serverMessage("me", "agent-1", "hello")
	release <- confirmed
	req.NoError(<-done)

	snapshot := thread.Snapshot()
	req.False(snapshot.Sending)
	req.Len(snapshot.Entries, 1)
	req.False(snapshot.Entries[0].Pending)
	req.Equal(confirmed.MessageID, snapshot.Entries[0].MessageID)
	req.Empty(snapshot.Entries[0].TempID)
}

func Test_Reconcile_Survives_Concurrent_Inbound_Of_Same_Message(t *testing.T) {
	req := require.New(t)
	confirmed := serverMessage("me", "agent-1", "hello")
	var thread *Thread
	api := &fakeAPI{
		sendFn: func(ctx context.Context, receiverID, content string) (models.Message, error) {
			// 推送先于响应到达（发送方自己的房间也会收到 new-message）
			thread.HandleEvent(models.NewMessagePayload(confirmed))
			return confirmed, nil
		},
	}
	thread = NewThread("me", "agent-1", api, Options{})
	req.NoError(thread.Open(context.Background()))

	_, err := thread.Send(context.Background(), "hello")
	req.NoError(err)

	// 按临时ID对账而不是按位置，不会出现重复条目
	snapshot := thread.Snapshot()
	req.Len(snapshot.Entries, 1)
	req.Equal(confirmed.MessageID, snapshot.Entries[0].MessageID)
	req.False(snapshot.Entries[0].Pending)
}

func Test_Failed_Send_Resolves_To_Explicit_Failure_Never_Phantom_Sent(t *testing.T) {
	req := require.New(t)
	api := &fakeAPI{
		sendFn: func(ctx context.Context, receiverID, content string) (models.Message, error) {
			return models.Message{}, chaterr.ErrStorageUnavailable
		},
	}
	thread := NewThread("me", "agent-1", api, Options{})
	req.NoError(thread.Open(context.Background()))

	_, err := thread.Send(context.Background(), "doomed")
	req.ErrorIs(err, chaterr.ErrStorageUnavailable)

	// 乐观条目被撤下，界面不会留下幽灵“已发送”
	snapshot := thread.Snapshot()
	req.Empty(snapshot.Entries)
	req.False(snapshot.Sending)
}

func Test_Silent_Server_Becomes_Timeout_Failure(t *testing.T) {
	req := require.New(t)
	api := &fakeAPI{
		sendFn: func(ctx context.Context, receiverID, content string) (models.Message, error) {
			<-ctx.Done()
			return models.Message{}, ctx.Err()
		},
	}
	thread := NewThread("me", "agent-1", api, Options{SendTimeout: 30 * time.Millisecond})
	req.NoError(thread.Open(context.Background()))

	_, err := thread.Send(context.Background(), "anyone home?")
	req.ErrorIs(err, chaterr.ErrSendTimeout)
	req.Empty(thread.Snapshot().Entries)
}

func Test_ScrollLocked_Appends_Without_AutoScroll(t *testing.T) {
	req := require.New(t)
	api := &fakeAPI{}
	thread := NewThread("me", "agent-1", api, Options{ScrollThreshold: 100})
	req.NoError(thread.Open(context.Background()))
	thread.ContentRendered() // 消化打开时的强制滚动

	// 用户滚上去了
	thread.SetScrollOffset(500)
	req.True(thread.Snapshot().ScrollLocked)

	thread.HandleEvent(models.NewMessagePayload(serverMessage("agent-1", "me", "while scrolled up")))

	snapshot := thread.Snapshot()
	req.Len(snapshot.Entries, 1)
	req.False(snapshot.ScrollPending, "auto-scroll must be suppressed while locked")

	// 手动回到底部解锁，后续消息恢复自动滚动
	thread.SetScrollOffset(0)
	thread.HandleEvent(models.NewMessagePayload(serverMessage("agent-1", "me", "back at bottom")))
	req.True(thread.Snapshot().ScrollPending)
}

func Test_Foreign_Thread_Message_Notifies_Without_Touching_Open_Thread(t *testing.T) {
	req := require.New(t)
	api := &fakeAPI{}
	notifier := NewNotifier(time.Minute, nil)
	defer notifier.Stop()

	refreshed := make(chan struct{}, 1)
	refresher := NewRefreshDebouncer(10*time.Millisecond, func() { refreshed <- struct{}{} })
	defer refresher.Stop()

	thread := NewThread("me", "agent-1", api, Options{Notifier: notifier, Refresher: refresher})
	req.NoError(thread.Open(context.Background()))

	thread.HandleEvent(models.NewMessagePayload(serverMessage("agent-2", "me", "different thread")))

	// 打开的线程纹丝不动
	req.Empty(thread.Snapshot().Entries)
	// 通知弹出，会话列表刷新被安排
	req.Len(notifier.Active(), 1)
	select {
	case <-refreshed:
	case <-time.After(time.Second):
		t.Fatal("debounced refresh never fired")
	}
}

func Test_Read_Receipt_Flips_Own_Messages_By_Record_Not_Index(t *testing.T) {
	req := require.New(t)
	mine := serverMessage("me", "agent-1", "sent by me")
	theirs := serverMessage("agent-1", "me", "sent by them")
	api := &fakeAPI{history: []models.Message{mine, theirs}}
	thread := NewThread("me", "agent-1", api, Options{})
	req.NoError(thread.Open(context.Background()))

	thread.HandleEvent(models.ReadReceiptPayload("agent-1", "me"))

	for _, entry := range thread.Snapshot().Entries {
		switch entry.MessageID {
		case mine.MessageID:
			req.NotNil(entry.ReadAt, "own message should be marked read")
		case theirs.MessageID:
			req.Nil(entry.ReadAt, "their message is not covered by their receipt")
		}
	}

	// 别人的回执与本线程无关
	before := thread.Snapshot()
	thread.HandleEvent(models.ReadReceiptPayload("agent-2", "me"))
	req.Equal(before.Entries, thread.Snapshot().Entries)
}

func Test_Closed_Thread_Ignores_Inbound_Updates(t *testing.T) {
	req := require.New(t)
	api := &fakeAPI{}
	thread := NewThread("me", "agent-1", api, Options{})
	req.NoError(thread.Open(context.Background()))

	thread.Close()
	thread.HandleEvent(models.NewMessagePayload(serverMessage("agent-1", "me", "too late")))
	req.Empty(thread.Snapshot().Entries)
}

func Test_Close_Does_Not_Cancel_In_Flight_Send(t *testing.T) {
	req := require.New(t)
	release := make(chan models.Message)
	api := &fakeAPI{
		sendFn: func(ctx context.Context, receiverID, content string) (models.Message, error) {
			return <-release, nil
		},
	}
	thread := NewThread("me", "agent-1", api, Options{})
	req.NoError(thread.Open(context.Background()))

	done := make(chan error, 1)
	go func() {
		_, err := thread.Send(context.Background(), "still going")
		done <- err
	}()
	req.Eventually(func() bool { return thread.Snapshot().Sending }, time.Second, 5*time.Millisecond)

	// 关闭视图不取消在途发送，它仍要解析出结果
	thread.Close()
	release <- serverMessage("me", "agent-1", "still going")
	req.NoError(<-done)
	req.False(thread.Snapshot().Sending)
}
