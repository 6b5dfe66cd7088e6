package chi

import (
	"net/http"
	"time"
)

type applyRequest struct {
	ProgramID   string `json:"program_id"`
	ProgramName string `json:"program_name"`
	UserEmail   string `json:"user_email"`
}

type applicationResponse struct {
	ID          string    `json:"id"`
	ProgramID   string    `json:"program_id"`
	ProgramName string    `json:"program_name"`
	UserEmail   string    `json:"user_email"`
	AppliedAt   time.Time `json:"applied_at"`
}

type applicationListResponse struct {
	Applications []applicationResponse `json:"applications"`
	Total        int                   `json:"total"`
}

// Apply handles POST /api/applied-to-program.
func (s *Server) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := s.applications.Apply(r.Context(), req.ProgramID, req.ProgramName, req.UserEmail)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, applicationResponse{
		ID:          a.ID,
		ProgramID:   a.ProgramID,
		ProgramName: a.ProgramName,
		UserEmail:   a.UserEmail,
		AppliedAt:   a.AppliedAt,
	})
}

// ListApplications handles GET /api/applications.
func (s *Server) ListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.applications.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]applicationResponse, len(apps))
	for i, a := range apps {
		items[i] = applicationResponse{
			ID:          a.ID,
			ProgramID:   a.ProgramID,
			ProgramName: a.ProgramName,
			UserEmail:   a.UserEmail,
			AppliedAt:   a.AppliedAt,
		}
	}
	writeJSON(w, http.StatusOK, applicationListResponse{Applications: items, Total: len(items)})
}
