package chi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	domanalytics "github.com/techrealm/programdex/internal/domain/analytics"
	"github.com/techrealm/programdex/internal/transport/csvio"
)

type logEventRequest struct {
	ProjectID string `json:"project_id"`
	EventType string `json:"event_type"`
	UserID    string `json:"user_id"`
}

type eventResponse struct {
	ID        string    `json:"event_id"`
	ProjectID string    `json:"project_id"`
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

type logEventResponse struct {
	Message string        `json:"message"`
	Event   eventResponse `json:"event"`
}

type eventListResponse struct {
	Events []eventResponse `json:"events"`
	Total  int             `json:"total"`
}

type projectCountResponse struct {
	ProjectID  string `json:"project_id"`
	EventCount int    `json:"event_count"`
}

type summaryResponse struct {
	TotalEvents  int                    `json:"total_events"`
	ByEventType  map[string]int         `json:"by_event_type"`
	ByProject    map[string]int         `json:"by_project"`
	TopProjects  []projectCountResponse `json:"top_projects"`
	EventsByDate map[string]int         `json:"events_by_date"`
}

type projectActivityResponse struct {
	ProjectID      string          `json:"project_id"`
	TotalEvents    int             `json:"total_events"`
	EventBreakdown map[string]int  `json:"event_breakdown"`
	Events         []eventResponse `json:"events"`
}

type userActivityResponse struct {
	UserID         string          `json:"user_id"`
	TotalEvents    int             `json:"total_events"`
	ProjectsViewed int             `json:"projects_viewed"`
	EventBreakdown map[string]int  `json:"event_breakdown"`
	Events         []eventResponse `json:"events"`
}

type clearResponse struct {
	Message string `json:"message"`
	Cleared int    `json:"cleared"`
}

// LogEvent handles POST /api/log-event.
func (s *Server) LogEvent(w http.ResponseWriter, r *http.Request) {
	var req logEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	e, err := s.analytics.Log(r.Context(), req.ProjectID, req.EventType, req.UserID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, logEventResponse{Message: "Event logged successfully", Event: toEventResponse(&e)})
}

// ListEvents handles GET /api/get-data?event_type=&user_id=&project_id=.
func (s *Server) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := s.analytics.Events(r.Context(), domanalytics.Filter{
		ProjectID: q.Get("project_id"),
		EventType: q.Get("event_type"),
		UserID:    q.Get("user_id"),
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eventListResponse{Events: toEventResponses(events), Total: len(events)})
}

// AnalyticsSummary handles GET /api/analytics/summary.
func (s *Server) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.analytics.Summary(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	top := make([]projectCountResponse, len(sum.TopProjects))
	for i, p := range sum.TopProjects {
		top[i] = projectCountResponse{ProjectID: p.ProjectID, EventCount: p.Events}
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		TotalEvents:  sum.Total,
		ByEventType:  nonNilCounts(sum.ByEventType),
		ByProject:    nonNilCounts(sum.ByProject),
		TopProjects:  top,
		EventsByDate: nonNilCounts(sum.ByDate),
	})
}

// ProjectAnalytics handles GET /api/analytics/project/{id}.
func (s *Server) ProjectAnalytics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := s.analytics.Project(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projectActivityResponse{
		ProjectID:      id,
		TotalEvents:    a.Total,
		EventBreakdown: nonNilCounts(a.Breakdown),
		Events:         toEventResponses(a.Events),
	})
}

// UserAnalytics handles GET /api/analytics/user/{id}.
func (s *Server) UserAnalytics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := s.analytics.User(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userActivityResponse{
		UserID:         id,
		TotalEvents:    a.Total,
		ProjectsViewed: a.Projects,
		EventBreakdown: nonNilCounts(a.Breakdown),
		Events:         toEventResponses(a.Events),
	})
}

// ExportAnalytics handles GET /api/analytics/export.
func (s *Server) ExportAnalytics(w http.ResponseWriter, r *http.Request) {
	events, err := s.analytics.Events(r.Context(), domanalytics.Filter{})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := csvio.WriteEvents(&buf, events); err != nil {
		s.handleDomainError(w, fmt.Errorf("encode csv: %w", err))
		return
	}

	name := "analytics_export_" + time.Now().UTC().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// ClearAnalytics handles DELETE /api/analytics/clear.
func (s *Server) ClearAnalytics(w http.ResponseWriter, r *http.Request) {
	n, err := s.analytics.Clear(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{Message: "Analytics data cleared", Cleared: n})
}

func toEventResponse(e *domanalytics.Event) eventResponse {
	return eventResponse{
		ID:        e.ID,
		ProjectID: e.ProjectID,
		EventType: e.EventType,
		UserID:    e.UserID,
		Timestamp: e.Timestamp,
	}
}

func toEventResponses(events []domanalytics.Event) []eventResponse {
	out := make([]eventResponse, len(events))
	for i := range events {
		out[i] = toEventResponse(&events[i])
	}
	return out
}

// nonNilCounts keeps empty breakdowns encoded as {} rather than null.
func nonNilCounts(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}
