package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"edu-chat/models"
)

// nextEvent 从连接的发送通道里取下一帧并解码
func nextEvent(t *testing.T, c *Client) interface{} {
	t.Helper()
	select {
	case data := <-c.Send:
		event, err := models.DecodeServerEvent(data)
		require.NoError(t, err)
		return event
	case <-time.After(time.Second):
		t.Fatal("no event delivered within 1s")
		return nil
	}
}

// noEvent 断言短窗口内没有任何帧
func noEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected frame delivered: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func applicant(id string) models.Participant {
	return models.Participant{ID: id, Kind: models.KindApplicant, DisplayName: id}
}

func agent(id string) models.Participant {
	return models.Participant{ID: id, Kind: models.KindAgent, DisplayName: id}
}
