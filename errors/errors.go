package errors

import "fmt"

var (
	// 校验类错误：在任何写入之前拒绝
	ErrEmptyContent     = fmt.Errorf("message content is empty")
	ErrSelfConversation = fmt.Errorf("sender and receiver are the same participant")
	ErrMissingReceiver  = fmt.Errorf("receiver participant is required")

	// 存储不可用：消息未落库，禁止任何推送
	ErrStorageUnavailable = fmt.Errorf("message store unavailable")

	// 身份凭证无法解析，仅该请求失败
	ErrUnresolvedIdentity = fmt.Errorf("credential could not be resolved")

	// 客户端发送超时：沉默必须转化为显式失败
	ErrSendTimeout = fmt.Errorf("send timed out waiting for server confirmation")

	// 未识别的事件载荷
	ErrUnknownEventType = fmt.Errorf("unknown event type")
)
