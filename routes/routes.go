package routes

import (
	"edu-chat/controllers"
	"edu-chat/identity"
	"edu-chat/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Controllers 路由依赖的全部控制器
type Controllers struct {
	Conversations *controllers.ConversationsController
	Messages      *controllers.MessageController
	WS            *controllers.WSController
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(resolver identity.Resolver, ctl Controllers) *gin.Engine {
	r := gin.Default()

	// 配置跨域中间件
	corsConfig := cors.Config{
		AllowOrigins:     []string{"*"},                                       // 允许的域名，可以是前端地址
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}, // 允许的 HTTP 方法
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"}, // 允许的请求头
		AllowCredentials: true,                                                // 是否允许发送 cookies
	}
	r.Use(cors.New(corsConfig))

	auth := middlewares.IdentityMiddleware(resolver)

	// WebSocket 升级前同样要解析身份
	r.GET("/ws", auth, ctl.WS.Handle)

	protected := r.Group("/api")
	protected.Use(auth)
	{
		protected.GET("/conversations", ctl.Conversations.GetConversations)
		protected.GET("/history/:participant_id", ctl.Messages.GetHistory)
		protected.POST("/messages", ctl.Messages.SendMessage)
	}

	return r
}
