package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	chaterr "edu-chat/errors"
	"edu-chat/middlewares"
	"edu-chat/models"
	"edu-chat/services"
	"edu-chat/store"
	"edu-chat/utils"
)

// MessageController 消息历史与发送接口
type MessageController struct {
	store      store.MessageStore
	dispatcher *services.Dispatcher
	receipts   *services.ReadCoordinator
}

func NewMessageController(messageStore store.MessageStore, dispatcher *services.Dispatcher, receipts *services.ReadCoordinator) *MessageController {
	return &MessageController{
		store:      messageStore,
		dispatcher: dispatcher,
		receipts:   receipts,
	}
}

// GetHistory 拉取与某参与者的全部消息，按服务端时间升序。
// 拉取会把该会话标为已读（沿用线上行为，后台轮询也会触发——见 DESIGN.md）。
func (mc *MessageController) GetHistory(c *gin.Context) {
	participant, ok := middlewares.CurrentParticipant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Participant not resolved"})
		return
	}

	otherID := c.Param("participant_id")
	if otherID == "" || otherID == participant.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid participant id"})
		return
	}

	messages, err := mc.store.History(participant.ID, otherID)
	if err != nil {
		log.Println("Error fetching history:", err)
		utils.RespondError(c, http.StatusServiceUnavailable, "Failed to fetch messages")
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	// 响应里保留拉取时刻的已读状态，再做标记
	if err := mc.receipts.MarkRead(participant.ID, otherID); err != nil {
		// 拉取本身已经成功，标记失败下次自愈
		log.Println("Failed to mark fetched range read:", err)
	}

	utils.RespondSuccess(c, messages, nil)
}

// SendMessage 发送消息
func (mc *MessageController) SendMessage(c *gin.Context) {
	participant, ok := middlewares.CurrentParticipant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Participant not resolved"})
		return
	}

	var input struct {
		ReceiverID string `json:"receiver_id" binding:"required"`
		Content    string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := mc.dispatcher.Send(participant, input.ReceiverID, input.Content)
	switch {
	case err == nil:
		utils.RespondSuccess(c, message, nil)
	case errors.Is(err, chaterr.ErrEmptyContent),
		errors.Is(err, chaterr.ErrSelfConversation),
		errors.Is(err, chaterr.ErrMissingReceiver):
		utils.RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, chaterr.ErrStorageUnavailable):
		utils.RespondError(c, http.StatusServiceUnavailable, "Failed to send message")
	default:
		log.Println("Error sending message:", err)
		utils.RespondError(c, http.StatusInternalServerError, "Failed to send message")
	}
}
