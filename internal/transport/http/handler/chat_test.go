package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexichat/internal/ai"
	"lexichat/internal/app"
	"lexichat/internal/model"
	"lexichat/internal/pkg/jwtutil"
	"lexichat/internal/transport/http/middleware"
)

const (
	testSecret = "test-secret"
	testUserID = uint(3)
)

type memUserStore struct{}

func (memUserStore) GetByID(id uint) (*model.User, error) {
	if id != testUserID {
		return nil, nil
	}
	return &model.User{ID: testUserID, Username: "dana"}, nil
}

type memChatStore struct {
	chats []model.ChatSession
}

func (s *memChatStore) Create(chat *model.ChatSession) error {
	s.chats = append(s.chats, *chat)
	return nil
}

func (s *memChatStore) ListByUserID(userID uint) ([]model.ChatSession, error) {
	var out []model.ChatSession
	for _, chat := range s.chats {
		if chat.UserID == userID {
			out = append(out, chat)
		}
	}
	return out, nil
}

func (s *memChatStore) GetByIDAndUserID(chatID string, userID uint) (*model.ChatSession, error) {
	for i := range s.chats {
		if s.chats[i].ID == chatID && s.chats[i].UserID == userID {
			chat := s.chats[i]
			return &chat, nil
		}
	}
	return nil, nil
}

func (s *memChatStore) UpdateTitle(chatID, title string) error {
	for i := range s.chats {
		if s.chats[i].ID == chatID {
			s.chats[i].Title = title
		}
	}
	return nil
}

func (s *memChatStore) DeleteByIDAndUserID(chatID string, userID uint) error {
	kept := s.chats[:0]
	for _, chat := range s.chats {
		if !(chat.ID == chatID && chat.UserID == userID) {
			kept = append(kept, chat)
		}
	}
	s.chats = kept
	return nil
}

func (s *memChatStore) DeleteAllByUserID(userID uint) error {
	kept := s.chats[:0]
	for _, chat := range s.chats {
		if chat.UserID != userID {
			kept = append(kept, chat)
		}
	}
	s.chats = kept
	return nil
}

type memMessageStore struct {
	messages []model.Message
}

func (s *memMessageStore) CreateBatch(messages []model.Message) error {
	s.messages = append(s.messages, messages...)
	return nil
}

func (s *memMessageStore) ListByChatID(chatID string) ([]model.Message, error) {
	out := []model.Message{}
	for _, msg := range s.messages {
		if msg.ChatID == chatID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (s *memMessageStore) LastContent(chatID string) (string, error) {
	last := ""
	for _, msg := range s.messages {
		if msg.ChatID == chatID {
			last = msg.Content
		}
	}
	return last, nil
}

func (s *memMessageStore) NextSeq(chatID string) (int, error) {
	max := 0
	for _, msg := range s.messages {
		if msg.ChatID == chatID && msg.Seq > max {
			max = msg.Seq
		}
	}
	return max + 1, nil
}

func (s *memMessageStore) DeleteByID(chatID, messageID string) error {
	kept := s.messages[:0]
	for _, msg := range s.messages {
		if !(msg.ChatID == chatID && msg.ID == messageID) {
			kept = append(kept, msg)
		}
	}
	s.messages = kept
	return nil
}

type stubProvider struct{}

func (stubProvider) GenerateReply(ctx context.Context, history []ai.ChatMessage, query string) (string, error) {
	return "stub reply", nil
}

func (stubProvider) GenerateTitle(ctx context.Context, query, reply string) (string, error) {
	return "Stub Title", nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *memChatStore, *memMessageStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	chats := &memChatStore{}
	messages := &memMessageStore{}
	svc := app.NewChatSessionService(memUserStore{}, chats, messages, stubProvider{}, nil, nil)
	chatHandler := NewChatHandler(svc)

	router := gin.New()
	chatGroup := router.Group("/api/v1/chat")
	chatGroup.Use(middleware.AuthJWT(testSecret))
	chatGroup.POST("", chatHandler.SendMessage)
	chatGroup.POST("/new", chatHandler.CreateChat)
	chatGroup.POST("/:chatId", chatHandler.SendMessage)
	chatGroup.GET("", chatHandler.ListChats)
	chatGroup.GET("/:chatId", chatHandler.GetChat)
	chatGroup.DELETE("", chatHandler.DeleteAllChats)
	chatGroup.DELETE("/:chatId", chatHandler.DeleteChat)
	chatGroup.DELETE("/:chatId/:messageId", chatHandler.DeleteMessage)

	return router, chats, messages
}

func doRequest(t *testing.T, router *gin.Engine, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		token, err := jwtutil.GenerateToken(testSecret, time.Minute, testUserID, "dana")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestChatRoutesRequireAuth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/chat", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, decodeBody(t, rec), "message")
}

func TestCreateChatReturnsCreatedSession(t *testing.T) {
	router, chats, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/chat/new", "", true)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "New chat created", body["message"])
	chat, ok := body["chat"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, model.SentinelTitle, chat["title"])
	assert.Len(t, chats.chats, 1)
}

func TestSendMessageWithoutChatIDCreatesChat(t *testing.T) {
	router, chats, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/chat", `{"message":"hello"}`, true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Len(t, chats.chats, 1)
	assert.Equal(t, chats.chats[0].ID, body["chatId"])

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "hello", first["content"])
}

func TestSendMessageUnknownChatIs404(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/chat/ghost", `{"message":"hello"}`, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetChatRoundTrip(t *testing.T) {
	router, _, _ := newTestRouter(t)

	created := decodeBody(t, doRequest(t, router, http.MethodPost, "/api/v1/chat/new", "", true))
	chatID := created["chat"].(map[string]any)["id"].(string)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/chat/"+chatID, "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, chatID, body["chatId"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok, "messages must be a list, not null")
	assert.Empty(t, messages)
}

func TestListChatsShape(t *testing.T) {
	router, _, _ := newTestRouter(t)

	doRequest(t, router, http.MethodPost, "/api/v1/chat", `{"message":"hi"}`, true)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/chat", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	chats, ok := body["chats"].([]any)
	require.True(t, ok)
	require.Len(t, chats, 1)

	summary := chats[0].(map[string]any)
	assert.Contains(t, summary, "id")
	assert.Contains(t, summary, "title")
	assert.Equal(t, "stub reply", summary["lastMessage"])
}

func TestDeleteEndpoints(t *testing.T) {
	router, chats, messages := newTestRouter(t)

	sent := decodeBody(t, doRequest(t, router, http.MethodPost, "/api/v1/chat", `{"message":"hi"}`, true))
	chatID := sent["chatId"].(string)
	firstMessageID := sent["messages"].([]any)[0].(map[string]any)["id"].(string)

	t.Run("delete message", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodDelete, "/api/v1/chat/"+chatID+"/"+firstMessageID, "", true)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Message deleted", body["message"])
		assert.Equal(t, firstMessageID, body["messageId"])
		assert.Len(t, messages.messages, 1)
	})

	t.Run("delete message in unknown chat", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodDelete, "/api/v1/chat/ghost/"+firstMessageID, "", true)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete chat", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodDelete, "/api/v1/chat/"+chatID, "", true)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Chat deleted", body["message"])
		assert.Equal(t, chatID, body["chatId"])
		assert.Empty(t, chats.chats)
	})

	t.Run("delete all chats", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodDelete, "/api/v1/chat", "", true)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "All chats deleted", decodeBody(t, rec)["message"])
	})
}
