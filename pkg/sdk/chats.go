package programdex

import (
	"context"
	"fmt"
	"time"
)

// ChatService runs retrieval-backed conversations.
type ChatService struct {
	svc chatUseCase
	obs *observer
}

// Create starts an empty chat. An empty userID is stored as "anonymous".
func (s *ChatService) Create(ctx context.Context, userID string) (_ Chat, err error) {
	start := time.Now()
	defer func() { s.obs.observe("chats.create", start, err) }()

	sess, err := s.svc.Create(ctx, userID)
	if err != nil {
		return Chat{}, fmt.Errorf("create chat: %w", err)
	}
	return chatFromDomain(&sess), nil
}

// Send appends message to a chat and returns the assistant's reply turn.
func (s *ChatService) Send(ctx context.Context, chatID, message string) (_ Message, err error) {
	start := time.Now()
	defer func() { s.obs.observe("chats.send", start, err) }()

	turn, err := s.svc.Send(ctx, chatID, message)
	if err != nil {
		return Message{}, fmt.Errorf("send message: %w", err)
	}
	return messageFromDomain(&turn), nil
}

// Ask answers a single question without storing a chat.
func (s *ChatService) Ask(ctx context.Context, message string) (_ Reply, err error) {
	start := time.Now()
	defer func() { s.obs.observe("chats.ask", start, err) }()

	r, err := s.svc.QuickAsk(ctx, message)
	if err != nil {
		return Reply{}, fmt.Errorf("ask: %w", err)
	}
	return Reply{Text: r.Text, Results: searchResultsFromDomain(r.Results)}, nil
}

// Get returns a chat with its full history.
func (s *ChatService) Get(ctx context.Context, chatID string) (_ Chat, err error) {
	start := time.Now()
	defer func() { s.obs.observe("chats.get", start, err) }()

	sess, err := s.svc.Get(ctx, chatID)
	if err != nil {
		return Chat{}, fmt.Errorf("get chat: %w", err)
	}
	return chatFromDomain(&sess), nil
}

// List returns the chats owned by userID.
func (s *ChatService) List(ctx context.Context, userID string) (_ []Chat, err error) {
	start := time.Now()
	defer func() { s.obs.observe("chats.list", start, err) }()

	sessions, err := s.svc.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	out := make([]Chat, len(sessions))
	for i := range sessions {
		out[i] = chatFromDomain(&sessions[i])
	}
	return out, nil
}

// Delete removes a chat.
func (s *ChatService) Delete(ctx context.Context, chatID string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("chats.delete", start, err) }()

	if err = s.svc.Delete(ctx, chatID); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	return nil
}
