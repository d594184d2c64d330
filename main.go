package main

import (
	"log"

	"edu-chat/config"
	"edu-chat/controllers"
	"edu-chat/identity"
	"edu-chat/models"
	"edu-chat/routes"
	"edu-chat/services"
	"edu-chat/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 初始化存储；没配 DSN 时用内存实现跑本地
	var messageStore store.MessageStore
	if cfg.MySQLDSN != "" {
		config.InitDB(cfg.MySQLDSN)
		models.Migrate(config.DB)
		messageStore = store.NewGorm(config.DB)
	} else {
		log.Println("MYSQL_DSN not set, using in-memory message store")
		messageStore = store.NewMemory()
	}

	hub := services.NewHub(cfg.SendBuffer)
	scheduler := services.NewScheduler(cfg.ChatListDebounce, hub)
	defer scheduler.Stop()

	dispatcher := services.NewDispatcher(messageStore, hub, scheduler)
	receipts := services.NewReadCoordinator(messageStore, hub, scheduler)
	chatList := services.NewChatList(messageStore)
	wsService := services.NewWSService(hub, receipts, cfg.PingInterval, cfg.PongTimeout)

	resolver := identity.NewJWTResolver(cfg.JWTSecret)

	// 注册路由
	r := routes.RegisterRoutes(resolver, routes.Controllers{
		Conversations: controllers.NewConversationsController(chatList),
		Messages:      controllers.NewMessageController(messageStore, dispatcher, receipts),
		WS:            controllers.NewWSController(wsService),
	})

	// 启动服务
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
