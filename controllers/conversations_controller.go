package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"edu-chat/middlewares"
	"edu-chat/services"
	"edu-chat/utils"
)

// ConversationsController 会话列表接口
type ConversationsController struct {
	chatList *services.ChatList
}

func NewConversationsController(chatList *services.ChatList) *ConversationsController {
	return &ConversationsController{chatList: chatList}
}

// GetConversations 获取当前参与者的会话摘要，按最新活动降序
func (cc *ConversationsController) GetConversations(c *gin.Context) {
	participant, ok := middlewares.CurrentParticipant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Participant not resolved"})
		return
	}

	summaries, err := cc.chatList.Conversations(participant.ID)
	if err != nil {
		log.Println("Error aggregating conversations:", err)
		utils.RespondError(c, http.StatusInternalServerError, "Failed to fetch conversations")
		return
	}

	utils.RespondSuccess(c, summaries, nil)
}
