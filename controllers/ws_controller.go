package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"edu-chat/middlewares"
	"edu-chat/services"
)

// WSController WebSocket 入口
type WSController struct {
	ws *services.WSService
}

func NewWSController(ws *services.WSService) *WSController {
	return &WSController{ws: ws}
}

func (wc *WSController) Handle(ctx *gin.Context) {
	participant, ok := middlewares.CurrentParticipant(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Participant not resolved"})
		return
	}
	wc.ws.Handle(ctx, participant)
}
