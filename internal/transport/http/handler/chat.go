package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lexichat/internal/app"
	"lexichat/internal/transport/http/middleware"
	"lexichat/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatSessionService
}

type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

func NewChatHandler(chatService *app.ChatSessionService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// SendMessage handles POST /chat and POST /chat/:chatId. Without a chat id
// a new chat is created as part of the same request.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "invalid token payload")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.chatService.SendMessage(c.Request.Context(), userID, c.Param("chatId"), req.Message)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateChat handles POST /chat/new.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "invalid token payload")
		return
	}

	chat, err := h.chatService.CreateChat(c.Request.Context(), userID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "New chat created",
		"chat":    chat,
	})
}

// ListChats handles GET /chat.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "invalid token payload")
		return
	}

	chats, err := h.chatService.ListChats(c.Request.Context(), userID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// GetChat handles GET /chat/:chatId.
func (h *ChatHandler) GetChat(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "invalid token payload")
		return
	}

	detail, err := h.chatService.GetChat(c.Request.Context(), userID, c.Param("chatId"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// DeleteAllChats handles DELETE /chat.
func (h *ChatHandler) DeleteAllChats(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "invalid token payload")
		return
	}

	if err := h.chatService.DeleteAllChats(c.Request.Context(), userID); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All chats deleted"})
}

// DeleteChat handles DELETE /chat/:chatId.
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "invalid token payload")
		return
	}

	chatID := c.Param("chatId")
	if err := h.chatService.DeleteChat(c.Request.Context(), userID, chatID); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Chat deleted",
		"chatId":  chatID,
	})
}

// DeleteMessage handles DELETE /chat/:chatId/:messageId.
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "invalid token payload")
		return
	}

	messageID := c.Param("messageId")
	if err := h.chatService.DeleteMessage(c.Request.Context(), userID, c.Param("chatId"), messageID); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Message deleted",
		"messageId": messageID,
	})
}

func (h *ChatHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrUserNotResolved):
		response.Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrChatNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrMessageEmpty), errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, err.Error())
	}
}

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	return userID, ok
}
