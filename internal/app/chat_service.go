package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"lexichat/internal/ai"
	"lexichat/internal/model"
	"lexichat/internal/pkg/logger"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUserNotResolved = errors.New("user not registered or token malfunctioned")
	ErrChatNotFound    = errors.New("chat not found")
	ErrMessageEmpty    = errors.New("message content is empty")
)

// degradedReplyContent stands in for the assistant reply when the
// completion provider fails. The conversation still advances; the result
// carries a Degraded flag so the transport layer can surface it.
const degradedReplyContent = "The assistant could not generate a reply. Please try again shortly."

type UserStore interface {
	GetByID(id uint) (*model.User, error)
}

type ChatStore interface {
	Create(chat *model.ChatSession) error
	ListByUserID(userID uint) ([]model.ChatSession, error)
	GetByIDAndUserID(chatID string, userID uint) (*model.ChatSession, error)
	UpdateTitle(chatID, title string) error
	DeleteByIDAndUserID(chatID string, userID uint) error
	DeleteAllByUserID(userID uint) error
}

type MessageStore interface {
	CreateBatch(messages []model.Message) error
	ListByChatID(chatID string) ([]model.Message, error)
	LastContent(chatID string) (string, error)
	NextSeq(chatID string) (int, error)
	DeleteByID(chatID, messageID string) error
}

type CompletionProvider interface {
	GenerateReply(ctx context.Context, history []ai.ChatMessage, query string) (string, error)
	GenerateTitle(ctx context.Context, query, reply string) (string, error)
}

type HistoryCache interface {
	GetHistory(ctx context.Context, chatID string) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, chatID string, messages []model.Message) error
	DeleteHistory(ctx context.Context, chatID string) error
	MarkDirty(ctx context.Context, chatID string) error
	IsDirty(ctx context.Context, chatID string) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event model.ChatEvent) error
}

// ChatSessionService owns the chat CRUD and message exchange flow. It is
// stateless; every call resolves the user, mutates through the stores and
// leaves the persistence layer as the single source of truth.
type ChatSessionService struct {
	userStore    UserStore
	chatStore    ChatStore
	messageStore MessageStore
	provider     CompletionProvider
	historyCache HistoryCache
	publisher    EventPublisher
}

type ChatSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	LastMessage string `json:"lastMessage"`
}

type SendMessageResult struct {
	ChatID   string          `json:"chatId"`
	Messages []model.Message `json:"messages"`
	Degraded bool            `json:"degraded,omitempty"`
}

type ChatDetail struct {
	ChatID   string          `json:"chatId"`
	Messages []model.Message `json:"messages"`
}

func NewChatSessionService(
	userStore UserStore,
	chatStore ChatStore,
	messageStore MessageStore,
	provider CompletionProvider,
	historyCache HistoryCache,
	publisher EventPublisher,
) *ChatSessionService {
	return &ChatSessionService{
		userStore:    userStore,
		chatStore:    chatStore,
		messageStore: messageStore,
		provider:     provider,
		historyCache: historyCache,
		publisher:    publisher,
	}
}

// CreateChat appends a fresh session with the placeholder title and no
// messages to the user's chat list.
func (s *ChatSessionService) CreateChat(ctx context.Context, userID uint) (*model.ChatSession, error) {
	if _, err := s.resolveUser(userID); err != nil {
		return nil, err
	}

	chat := newChatSession(userID)
	if err := s.chatStore.Create(chat); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, model.ChatEvent{
		Type:       model.EventChatCreated,
		UserID:     userID,
		ChatID:     chat.ID,
		OccurredAt: time.Now(),
	})
	return chat, nil
}

// SendMessage appends a user/assistant message pair to the chat, creating
// the chat first when no id is given. A provider failure never fails the
// request: the assistant turn is written with placeholder content and the
// result is flagged degraded.
func (s *ChatSessionService) SendMessage(ctx context.Context, userID uint, chatID, text string) (*SendMessageResult, error) {
	if _, err := s.resolveUser(userID); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMessageEmpty
	}

	var chat *model.ChatSession
	if chatID != "" {
		existing, err := s.chatStore.GetByIDAndUserID(chatID, userID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ErrChatNotFound
		}
		chat = existing
	}

	created := false
	if chat == nil {
		chat = newChatSession(userID)
		created = true
	}

	var history []model.Message
	if !created {
		var err error
		history, err = s.messageStore.ListByChatID(chat.ID)
		if err != nil {
			return nil, err
		}
	}

	reply, replyErr := s.provider.GenerateReply(ctx, toPromptHistory(history), text)
	degraded := replyErr != nil
	if degraded {
		logger.Warnw("reply generation failed, degrading", "chat_id", chat.ID, "error", replyErr)
		reply = degradedReplyContent
	}

	if created {
		if err := s.chatStore.Create(chat); err != nil {
			return nil, err
		}
	}

	seq := 1
	if !created {
		var err error
		seq, err = s.messageStore.NextSeq(chat.ID)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	pair := []model.Message{
		{ID: uuid.NewString(), ChatID: chat.ID, Seq: seq, Role: model.RoleUser, Content: text, CreatedAt: now},
		{ID: uuid.NewString(), ChatID: chat.ID, Seq: seq + 1, Role: model.RoleAssistant, Content: reply, CreatedAt: now},
	}
	if err := s.messageStore.CreateBatch(pair); err != nil {
		return nil, err
	}

	if !degraded && chat.HasSentinelTitle() {
		if title, err := s.provider.GenerateTitle(ctx, text, reply); err != nil {
			logger.Warnw("title generation failed, keeping placeholder", "chat_id", chat.ID, "error", err)
		} else if err := s.chatStore.UpdateTitle(chat.ID, title); err != nil {
			logger.Warnw("title update failed", "chat_id", chat.ID, "error", err)
		} else {
			chat.Title = title
		}
	}

	s.invalidateHistory(ctx, chat.ID)
	if created {
		s.publishEvent(ctx, model.ChatEvent{
			Type:       model.EventChatCreated,
			UserID:     userID,
			ChatID:     chat.ID,
			OccurredAt: now,
		})
	}
	s.publishEvent(ctx, model.ChatEvent{
		Type:       model.EventMessageSent,
		UserID:     userID,
		ChatID:     chat.ID,
		MessageID:  pair[0].ID,
		OccurredAt: now,
	})

	return &SendMessageResult{
		ChatID:   chat.ID,
		Messages: append(history, pair...),
		Degraded: degraded,
	}, nil
}

// ListChats returns every chat the user owns in creation order, each with
// the content of its final message ("" for an empty chat).
func (s *ChatSessionService) ListChats(ctx context.Context, userID uint) ([]ChatSummary, error) {
	if _, err := s.resolveUser(userID); err != nil {
		return nil, err
	}

	chats, err := s.chatStore.ListByUserID(userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ChatSummary, 0, len(chats))
	for _, chat := range chats {
		last, err := s.messageStore.LastContent(chat.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, ChatSummary{
			ID:          chat.ID,
			Title:       chat.Title,
			LastMessage: last,
		})
	}
	return summaries, nil
}

// GetChat returns the chat's full message list, reading through the
// history cache when it is clean.
func (s *ChatSessionService) GetChat(ctx context.Context, userID uint, chatID string) (*ChatDetail, error) {
	if _, err := s.resolveUser(userID); err != nil {
		return nil, err
	}

	chat, err := s.chatStore.GetByIDAndUserID(chatID, userID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}

	if s.historyCache != nil {
		if dirty, err := s.historyCache.IsDirty(ctx, chatID); err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, chatID); cacheErr == nil && hit {
				return &ChatDetail{ChatID: chatID, Messages: cached}, nil
			}
		}
	}

	messages, err := s.messageStore.ListByChatID(chatID)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, chatID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, chatID, messages)
		}
	}
	return &ChatDetail{ChatID: chatID, Messages: messages}, nil
}

// DeleteAllChats clears the user's entire chat list. Clearing an empty
// list succeeds.
func (s *ChatSessionService) DeleteAllChats(ctx context.Context, userID uint) error {
	if _, err := s.resolveUser(userID); err != nil {
		return err
	}

	chats, err := s.chatStore.ListByUserID(userID)
	if err != nil {
		return err
	}
	if err := s.chatStore.DeleteAllByUserID(userID); err != nil {
		return err
	}

	for _, chat := range chats {
		s.invalidateHistory(ctx, chat.ID)
	}
	s.publishEvent(ctx, model.ChatEvent{
		Type:       model.EventChatsCleared,
		UserID:     userID,
		OccurredAt: time.Now(),
	})
	return nil
}

// DeleteChat removes the chat if present. A missing id is not an error;
// delete is idempotent by id match.
func (s *ChatSessionService) DeleteChat(ctx context.Context, userID uint, chatID string) error {
	if _, err := s.resolveUser(userID); err != nil {
		return err
	}

	if err := s.chatStore.DeleteByIDAndUserID(chatID, userID); err != nil {
		return err
	}

	s.invalidateHistory(ctx, chatID)
	s.publishEvent(ctx, model.ChatEvent{
		Type:       model.EventChatDeleted,
		UserID:     userID,
		ChatID:     chatID,
		OccurredAt: time.Now(),
	})
	return nil
}

// DeleteMessage removes one message from an existing chat. The chat must
// exist; the message id itself is matched idempotently.
func (s *ChatSessionService) DeleteMessage(ctx context.Context, userID uint, chatID, messageID string) error {
	if _, err := s.resolveUser(userID); err != nil {
		return err
	}

	chat, err := s.chatStore.GetByIDAndUserID(chatID, userID)
	if err != nil {
		return err
	}
	if chat == nil {
		return ErrChatNotFound
	}

	if err := s.messageStore.DeleteByID(chatID, messageID); err != nil {
		return err
	}

	s.invalidateHistory(ctx, chatID)
	s.publishEvent(ctx, model.ChatEvent{
		Type:       model.EventMessageDeleted,
		UserID:     userID,
		ChatID:     chatID,
		MessageID:  messageID,
		OccurredAt: time.Now(),
	})
	return nil
}

func (s *ChatSessionService) resolveUser(userID uint) (*model.User, error) {
	if userID == 0 {
		return nil, ErrUserNotResolved
	}
	user, err := s.userStore.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotResolved
	}
	return user, nil
}

func (s *ChatSessionService) invalidateHistory(ctx context.Context, chatID string) {
	if s.historyCache == nil {
		return
	}
	_ = s.historyCache.MarkDirty(ctx, chatID)
	_ = s.historyCache.DeleteHistory(ctx, chatID)
}

// publishEvent is fire-and-forget: the audit stream must never fail a
// request.
func (s *ChatSessionService) publishEvent(ctx context.Context, event model.ChatEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warnw("publish chat event failed", "type", event.Type, "chat_id", event.ChatID, "error", err)
	}
}

func newChatSession(userID uint) *model.ChatSession {
	return &model.ChatSession{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  model.SentinelTitle,
	}
}

func toPromptHistory(messages []model.Message) []ai.ChatMessage {
	history := make([]ai.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		role := msg.Role
		if role == "" {
			role = model.RoleUser
		}
		history = append(history, ai.ChatMessage{Role: role, Content: msg.Content})
	}
	return history
}
