package chat

import (
	"time"

	domchat "github.com/techrealm/programdex/internal/domain/chat"
	domprog "github.com/techrealm/programdex/internal/domain/program"
)

type turnDTO struct {
	Role      string              `json:"role"`
	Content   string              `json:"content"`
	Programs  []map[string]string `json:"programs,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

type sessionDTO struct {
	ID        string    `json:"chat_id"`
	UserID    string    `json:"user_id"`
	Turns     []turnDTO `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toDTO(s *domchat.Session) sessionDTO {
	turns := make([]turnDTO, len(s.Turns()))
	for i, t := range s.Turns() {
		var progs []map[string]string
		for j := range t.Programs {
			progs = append(progs, t.Programs[j].Fields())
		}
		turns[i] = turnDTO{
			Role:      string(t.Role),
			Content:   t.Content,
			Programs:  progs,
			Timestamp: t.Timestamp,
		}
	}
	return sessionDTO{
		ID:        s.ID(),
		UserID:    s.UserID(),
		Turns:     turns,
		CreatedAt: s.CreatedAt(),
		UpdatedAt: s.UpdatedAt(),
	}
}

func fromDTO(d *sessionDTO) domchat.Session {
	turns := make([]domchat.Turn, len(d.Turns))
	for i, t := range d.Turns {
		var progs []domprog.Program
		for _, m := range t.Programs {
			progs = append(progs, domprog.FromFields(m))
		}
		turns[i] = domchat.Turn{
			Role:      domchat.Role(t.Role),
			Content:   t.Content,
			Programs:  progs,
			Timestamp: t.Timestamp,
		}
	}
	return domchat.Reconstruct(d.ID, d.UserID, turns, d.CreatedAt, d.UpdatedAt)
}
