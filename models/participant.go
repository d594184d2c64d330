package models

// 参与者类型：留学申请人 / 服务顾问
const (
	KindApplicant = "applicant"
	KindAgent     = "agent"
)

// Participant 聊天参与者，身份由外部身份系统解析，本子系统只引用不维护
type Participant struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"` // "applicant" or "agent"
	DisplayName string `json:"display_name"`
}
