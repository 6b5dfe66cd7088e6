package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/techrealm/programdex/internal/domain"
	healthuc "github.com/techrealm/programdex/internal/usecase/health"
	"github.com/techrealm/programdex/internal/version"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

// Error codes returned in error responses.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeUnauthorized     ErrorCode = "unauthorized"
	CodeNotFound         ErrorCode = "not_found"
	CodeProgramNotFound  ErrorCode = "program_not_found"
	CodeChatNotFound     ErrorCode = "chat_not_found"
	CodeEmailNotFound    ErrorCode = "email_not_found"
	CodeProgramExists    ErrorCode = "program_already_exists"
	CodePayloadTooLarge  ErrorCode = "payload_too_large"
	CodeRateLimited      ErrorCode = "rate_limited"
	CodeResponderError   ErrorCode = "responder_error"
	CodeScrapeFailed     ErrorCode = "scrape_failed"
	CodeEmailFailed      ErrorCode = "email_failed"
	CodeNotImplemented   ErrorCode = "not_implemented"
	CodeInternalError    ErrorCode = "internal_error"
)

// MaxUploadBytes bounds request bodies, including CSV uploads.
const MaxUploadBytes = 16 << 20

type errorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the programdex HTTP API.
type Server struct {
	programs      ProgramService
	chats         ChatService
	applications  ApplicationService
	analytics     AnalyticsService
	emails        EmailService
	retriever     Retriever
	health        HealthChecker
	chatLimiter   *rate.Limiter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	programs ProgramService,
	chats ChatService,
	applications ApplicationService,
	analytics AnalyticsService,
	emails EmailService,
	retriever Retriever,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		programs:     programs,
		chats:        chats,
		applications: applications,
		analytics:    analytics,
		emails:       emails,
		retriever:    retriever,
		health:       health,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrProgramNotFound, http.StatusNotFound, CodeProgramNotFound),
		sentinelHandler(domain.ErrChatNotFound, http.StatusNotFound, CodeChatNotFound),
		sentinelHandler(domain.ErrEmailNotFound, http.StatusNotFound, CodeEmailNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrProgramExists, http.StatusConflict, CodeProgramExists),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrResponderError, http.StatusBadGateway, CodeResponderError),
		sentinelHandler(domain.ErrScrapeFailed, http.StatusBadGateway, CodeScrapeFailed),
		sentinelHandler(domain.ErrDeliveryFailed, http.StatusBadGateway, CodeEmailFailed),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, CodeNotImplemented),
	}
	return s
}

// WithChatRateLimit limits chat message endpoints to rps requests per second
// across all clients. A non-positive rps disables the limit.
func (s *Server) WithChatRateLimit(rps float64, burst int) *Server {
	if rps <= 0 {
		s.chatLimiter = nil
		return s
	}
	if burst < 1 {
		burst = 1
	}
	s.chatLimiter = rate.NewLimiter(rate.Limit(rps), burst)
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Root)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/programs", s.ListPrograms)
		r.Post("/programs", s.CreateProgram)
		r.Get("/programs/search", s.SearchPrograms)
		r.Post("/programs/import", s.ImportPrograms)
		r.Get("/programs/{id}", s.GetProgram)
		r.Patch("/programs/{id}", s.UpdateProgram)
		r.Delete("/programs/{id}", s.DeleteProgram)
		r.Post("/programs/{id}/enrich", s.EnrichProgram)
		r.Get("/export-programs", s.ExportPrograms)
		r.Post("/auto-scrape", s.AutoScrape)

		r.Post("/applied-to-program", s.Apply)
		r.Get("/applications", s.ListApplications)

		r.Post("/chat-instance", s.CreateChat)
		r.Get("/chats", s.ListChats)
		r.With(rateLimit(s.chatLimiter)).Post("/chat/quick-ask", s.QuickAsk)
		r.With(rateLimit(s.chatLimiter)).Post("/chat/{id}", s.SendMessage)
		r.Get("/chat/{id}", s.GetChat)
		r.Delete("/chat/{id}", s.DeleteChat)

		r.Post("/rag/retrain", s.Retrain)
		r.Post("/rag/search", s.RAGSearch)

		r.Post("/log-event", s.LogEvent)
		r.Get("/get-data", s.ListEvents)
		r.Get("/analytics/summary", s.AnalyticsSummary)
		r.Get("/analytics/project/{id}", s.ProjectAnalytics)
		r.Get("/analytics/user/{id}", s.UserAnalytics)
		r.Get("/analytics/export", s.ExportAnalytics)
		r.Delete("/analytics/clear", s.ClearAnalytics)

		r.Post("/emails/send", s.SendEmail)
		r.Post("/emails/send-application", s.SendApplicationEmail)
		r.Post("/emails/test", s.SendTestEmail)
		r.Get("/emails", s.ListEmails)
		r.Get("/emails/stats", s.EmailStats)
		r.Get("/emails/{id}", s.GetEmail)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":  version.Product,
		"version":  version.Version,
		"status":   "running",
		"programs": s.retriever.Stats().Programs,
	})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Corpus statsResponse     `json:"corpus"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
		Corpus: toStatsResponse(report.Corpus),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	dec := json.NewDecoder(body)
	dec.UseNumber()
	err := dec.Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
			fmt.Sprintf("request body exceeds %d bytes", MaxUploadBytes))
		return false
	}
	writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
	return false
}

// safeDomainMessage returns a client-safe message. Validation errors carry
// their own text; everything else is reduced to its sentinel.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidArgument) {
		return validationMessage(err)
	}
	sentinels := []error{
		domain.ErrProgramNotFound,
		domain.ErrChatNotFound,
		domain.ErrEmailNotFound,
		domain.ErrNotFound,
		domain.ErrProgramExists,
		domain.ErrRateLimited,
		domain.ErrResponderError,
		domain.ErrScrapeFailed,
		domain.ErrDeliveryFailed,
		domain.ErrNotImplemented,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func validationMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Field + " " + ve.Reason
	}
	return err.Error()
}

func validationHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrInvalidArgument) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeValidationFailed, msg)
	return true
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

type statsResponse struct {
	Programs       int        `json:"programs"`
	VocabularySize int        `json:"vocabulary_size"`
	FittedAt       *time.Time `json:"fitted_at,omitempty"`
}
