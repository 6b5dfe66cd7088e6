package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	domchat "github.com/techrealm/programdex/internal/domain/chat"
	"github.com/techrealm/programdex/internal/domain/search/result"
)

type createChatRequest struct {
	UserID string `json:"user_id"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type turnResponse struct {
	Role      string              `json:"role"`
	Content   string              `json:"content"`
	Programs  []map[string]string `json:"programs,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

type chatResponse struct {
	ChatID    string         `json:"chat_id"`
	UserID    string         `json:"user_id"`
	Messages  []turnResponse `json:"messages"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type chatListResponse struct {
	Chats []chatResponse `json:"chats"`
	Total int            `json:"total"`
}

type replyResponse struct {
	Response string              `json:"response"`
	Programs []map[string]string `json:"programs"`
}

// CreateChat handles POST /api/chat-instance.
func (s *Server) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req createChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := s.chats.Create(r.Context(), req.UserID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chatToJSON(&sess))
}

// SendMessage handles POST /api/chat/{id}.
func (s *Server) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	turn, err := s.chats.Send(r.Context(), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, replyResponse{
		Response: turn.Content,
		Programs: programsToJSON(turn.Programs),
	})
}

// QuickAsk handles POST /api/chat/quick-ask.
func (s *Server) QuickAsk(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := s.chats.QuickAsk(r.Context(), req.Message)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, replyResponse{
		Response: reply.Text,
		Programs: programsToJSON(result.Programs(reply.Results)),
	})
}

// GetChat handles GET /api/chat/{id}.
func (s *Server) GetChat(w http.ResponseWriter, r *http.Request) {
	sess, err := s.chats.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatToJSON(&sess))
}

// ListChats handles GET /api/chats.
func (s *Server) ListChats(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.chats.List(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]chatResponse, len(sessions))
	for i := range sessions {
		items[i] = chatToJSON(&sessions[i])
	}
	writeJSON(w, http.StatusOK, chatListResponse{Chats: items, Total: len(items)})
}

// DeleteChat handles DELETE /api/chat/{id}.
func (s *Server) DeleteChat(w http.ResponseWriter, r *http.Request) {
	if err := s.chats.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func chatToJSON(sess *domchat.Session) chatResponse {
	turns := sess.Turns()
	msgs := make([]turnResponse, len(turns))
	for i, t := range turns {
		msgs[i] = turnResponse{
			Role:      string(t.Role),
			Content:   t.Content,
			Timestamp: t.Timestamp,
		}
		if len(t.Programs) > 0 {
			msgs[i].Programs = programsToJSON(t.Programs)
		}
	}
	return chatResponse{
		ChatID:    sess.ID(),
		UserID:    sess.UserID(),
		Messages:  msgs,
		CreatedAt: sess.CreatedAt(),
		UpdatedAt: sess.UpdatedAt(),
	}
}
