package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"edu-chat/identity"
	"edu-chat/middlewares"
	"edu-chat/models"
	"edu-chat/services"
	"edu-chat/store"
)

// collector 把解码后的事件收进通道
type collector struct {
	events chan interface{}
}

func (c *collector) HandleEvent(event interface{}) {
	c.events <- event
}

type wsFixture struct {
	url     string
	hub     *services.Hub
	memory  *store.Memory
	receipt *services.ReadCoordinator
}

func newWSFixture(t *testing.T, pingInterval, pongTimeout time.Duration) wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	memory := store.NewMemory()
	hub := services.NewHub(8)
	scheduler := services.NewScheduler(time.Minute, hub)
	t.Cleanup(scheduler.Stop)
	receipts := services.NewReadCoordinator(memory, hub, scheduler)
	wsService := services.NewWSService(hub, receipts, pingInterval, pongTimeout)

	resolver := identity.NewStaticResolver(map[string]models.Participant{
		"tok-b": {ID: "B", Kind: models.KindAgent, DisplayName: "Agent B"},
	})

	engine := gin.New()
	engine.GET("/ws", middlewares.IdentityMiddleware(resolver), func(c *gin.Context) {
		participant, _ := middlewares.CurrentParticipant(c)
		wsService.Handle(c, participant)
	})
	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	return wsFixture{
		url:     "ws" + strings.TrimPrefix(server.URL, "http") + "/ws",
		hub:     hub,
		memory:  memory,
		receipt: receipts,
	}
}

func Test_Wire_Delivers_Published_Events_To_Handler(t *testing.T) {
	req := require.New(t)
	fixture := newWSFixture(t, time.Minute, 2*time.Minute)
	sink := &collector{events: make(chan interface{}, 8)}

	wire, err := Dial(context.Background(), fixture.url, "tok-b", sink)
	req.NoError(err)
	defer wire.Close()
	go func() { _ = wire.Listen() }()

	req.Eventually(func() bool {
		return fixture.hub.ConnectionCount("B") == 1
	}, time.Second, 10*time.Millisecond)

	pushed := serverMessage("A", "B", "over the wire")
	fixture.hub.Publish("B", models.NewMessagePayload(pushed))

	select {
	case event := <-sink.events:
		received, ok := event.(models.NewMessageEvent)
		req.True(ok)
		req.Equal(pushed.MessageID, received.Message.MessageID)
	case <-time.After(time.Second):
		t.Fatal("published event never reached the handler")
	}
}

func Test_Wire_MarkRead_Reaches_The_Store(t *testing.T) {
	req := require.New(t)
	fixture := newWSFixture(t, time.Minute, 2*time.Minute)
	req.NoError(fixture.memory.Append(serverMessage("A", "B", "unread")))

	sink := &collector{events: make(chan interface{}, 8)}
	wire, err := Dial(context.Background(), fixture.url, "tok-b", sink)
	req.NoError(err)
	defer wire.Close()
	go func() { _ = wire.Listen() }()

	req.Eventually(func() bool {
		return fixture.hub.ConnectionCount("B") == 1
	}, time.Second, 10*time.Millisecond)

	// B 通过通道上报已读：对方是 A，自己是 B
	req.NoError(wire.MarkRead("A", "B"))

	req.Eventually(func() bool {
		messages, err := fixture.memory.History("A", "B")
		return err == nil && len(messages) == 1 && messages[0].ReadAt != nil
	}, time.Second, 10*time.Millisecond)
}

func Test_Wire_Answers_Heartbeat_And_Connection_Survives(t *testing.T) {
	req := require.New(t)
	fixture := newWSFixture(t, 20*time.Millisecond, 100*time.Millisecond)
	sink := &collector{events: make(chan interface{}, 8)}

	wire, err := Dial(context.Background(), fixture.url, "tok-b", sink)
	req.NoError(err)
	defer wire.Close()
	go func() { _ = wire.Listen() }()

	req.Eventually(func() bool {
		return fixture.hub.ConnectionCount("B") == 1
	}, time.Second, 10*time.Millisecond)

	// 超过好几个 pong 超时窗口后连接仍然活着，说明 ping/pong 往返正常
	time.Sleep(400 * time.Millisecond)
	req.Equal(1, fixture.hub.ConnectionCount("B"))
}
