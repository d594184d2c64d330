package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"edu-chat/identity"
	"edu-chat/models"
)

// ParticipantKey gin 上下文中存放已解析参与者的键
const ParticipantKey = "participant"

// IdentityMiddleware 在边界处解析凭证；解析失败只影响当前请求。
// 浏览器的 WebSocket 无法带自定义请求头，所以也接受 token 查询参数。
func IdentityMiddleware(resolver identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := ""
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			credential = strings.TrimPrefix(auth, "Bearer ")
		}
		if credential == "" {
			credential = c.Query("token")
		}
		if credential == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing credential"})
			return
		}

		participant, err := resolver.Resolve(credential)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credential"})
			return
		}

		c.Set(ParticipantKey, participant)
		c.Next()
	}
}

// CurrentParticipant 取出当前请求的参与者
func CurrentParticipant(c *gin.Context) (models.Participant, bool) {
	value, exists := c.Get(ParticipantKey)
	if !exists {
		return models.Participant{}, false
	}
	participant, ok := value.(models.Participant)
	return participant, ok
}
