package chi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/techrealm/programdex/internal/domain"
	domemail "github.com/techrealm/programdex/internal/domain/email"
	emailuc "github.com/techrealm/programdex/internal/usecase/email"
)

type sendEmailRequest struct {
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Content   string `json:"content"`
	ProgramID string `json:"program_id"`
}

type sendApplicationEmailRequest struct {
	To          string `json:"to"`
	ProgramName string `json:"program_name"`
	University  string `json:"university"`
	ProgramID   string `json:"program_id"`
}

type testEmailRequest struct {
	To string `json:"to"`
}

type emailResponse struct {
	ID        string    `json:"email_id"`
	ProgramID string    `json:"program_id"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"`
	MessageID string    `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
}

type sendEmailResponse struct {
	Code    ErrorCode     `json:"code,omitempty"`
	Message string        `json:"message"`
	Email   emailResponse `json:"email"`
	Mock    bool          `json:"mock"`
}

type testEmailResponse struct {
	Message   string `json:"message"`
	MessageID string `json:"message_id"`
	Mock      bool   `json:"mock"`
}

type emailListResponse struct {
	Emails []emailResponse `json:"emails"`
	Total  int             `json:"total"`
}

type emailStatsResponse struct {
	TotalEmails  int            `json:"total_emails"`
	ByStatus     map[string]int `json:"by_status"`
	ByProgram    map[string]int `json:"by_program"`
	EmailsByDate map[string]int `json:"emails_by_date"`
}

// SendEmail handles POST /api/emails/send.
func (s *Server) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req sendEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := s.emails.Send(r.Context(), req.To, req.Subject, req.Content, req.ProgramID)
	s.writeDelivery(w, d, err)
}

// SendApplicationEmail handles POST /api/emails/send-application.
func (s *Server) SendApplicationEmail(w http.ResponseWriter, r *http.Request) {
	var req sendApplicationEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := s.emails.SendApplication(r.Context(), req.To, req.ProgramName, req.University, req.ProgramID)
	s.writeDelivery(w, d, err)
}

// A failed delivery that was logged still returns its record.
func (s *Server) writeDelivery(w http.ResponseWriter, d emailuc.Delivery, err error) {
	if err != nil {
		if errors.Is(err, domain.ErrDeliveryFailed) && d.Record.ID != "" {
			s.logger.Warn("domain error", zap.Error(err))
			writeJSON(w, http.StatusBadGateway, sendEmailResponse{
				Code:    CodeEmailFailed,
				Message: "Failed to send email",
				Email:   toEmailResponse(&d.Record),
				Mock:    d.Mock,
			})
			return
		}
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sendEmailResponse{
		Message: "Email sent successfully",
		Email:   toEmailResponse(&d.Record),
		Mock:    d.Mock,
	})
}

// SendTestEmail handles POST /api/emails/test.
func (s *Server) SendTestEmail(w http.ResponseWriter, r *http.Request) {
	var req testEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	receipt, err := s.emails.SendTest(r.Context(), req.To)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, testEmailResponse{
		Message:   "Test email sent",
		MessageID: receipt.MessageID,
		Mock:      receipt.Mock,
	})
}

// ListEmails handles GET /api/emails?program_id=.
func (s *Server) ListEmails(w http.ResponseWriter, r *http.Request) {
	records, err := s.emails.List(r.Context(), domemail.Filter{ProgramID: r.URL.Query().Get("program_id")})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	out := make([]emailResponse, len(records))
	for i := range records {
		out[i] = toEmailResponse(&records[i])
	}
	writeJSON(w, http.StatusOK, emailListResponse{Emails: out, Total: len(out)})
}

// GetEmail handles GET /api/emails/{id}.
func (s *Server) GetEmail(w http.ResponseWriter, r *http.Request) {
	rec, err := s.emails.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmailResponse(&rec))
}

// EmailStats handles GET /api/emails/stats.
func (s *Server) EmailStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.emails.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emailStatsResponse{
		TotalEmails:  st.Total,
		ByStatus:     nonNilCounts(st.ByStatus),
		ByProgram:    nonNilCounts(st.ByProgram),
		EmailsByDate: nonNilCounts(st.ByDate),
	})
}

func toEmailResponse(rec *domemail.Record) emailResponse {
	return emailResponse{
		ID:        rec.ID,
		ProgramID: rec.ProgramID,
		To:        rec.To,
		Subject:   rec.Subject,
		Status:    string(rec.Status),
		MessageID: rec.MessageID,
		Timestamp: rec.Timestamp,
	}
}
