package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/techrealm/programdex/internal/domain"
	domprog "github.com/techrealm/programdex/internal/domain/program"
	"github.com/techrealm/programdex/internal/logger"
	"github.com/techrealm/programdex/internal/transport/csvio"
)

// maxMultipartMemory is the share of an upload kept in memory before spilling to disk.
const maxMultipartMemory = 8 << 20

type programPageResponse struct {
	Programs   []map[string]string `json:"programs"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	PerPage    int                 `json:"per_page"`
	TotalPages int                 `json:"total_pages"`
}

type programResponse struct {
	Program map[string]string `json:"program"`
}

type programListResponse struct {
	Programs []map[string]string `json:"programs"`
	Total    int                 `json:"total"`
}

type importResponse struct {
	Imported int `json:"imported"`
	Total    int `json:"total"`
}

// ListPrograms handles GET /api/programs.
func (s *Server) ListPrograms(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	perPage, err := queryInt(r, "per_page")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	p, err := s.programs.List(r.Context(), page, perPage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, programPageResponse{
		Programs:   programsToJSON(p.Programs),
		Total:      p.Total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: p.TotalPages,
	})
}

// CreateProgram handles POST /api/programs.
func (s *Server) CreateProgram(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}

	p, err := s.programs.Create(r.Context(), fields)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, programResponse{Program: p.Fields()})
}

// GetProgram handles GET /api/programs/{id}.
func (s *Server) GetProgram(w http.ResponseWriter, r *http.Request) {
	p, err := s.programs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, programResponse{Program: p.Fields()})
}

// UpdateProgram handles PATCH /api/programs/{id}.
func (s *Server) UpdateProgram(w http.ResponseWriter, r *http.Request) {
	changes, ok := decodeFields(w, r)
	if !ok {
		return
	}

	p, err := s.programs.Update(r.Context(), chi.URLParam(r, "id"), changes)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, programResponse{Program: p.Fields()})
}

// DeleteProgram handles DELETE /api/programs/{id}.
func (s *Server) DeleteProgram(w http.ResponseWriter, r *http.Request) {
	if err := s.programs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchPrograms handles GET /api/programs/search.
func (s *Server) SearchPrograms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	programs, err := s.programs.Search(r.Context(), q.Get("q"), q.Get("field"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, programListResponse{
		Programs: programsToJSON(programs),
		Total:    len(programs),
	})
}

// ImportPrograms handles POST /api/programs/import with a multipart "file" part.
func (s *Server) ImportPrograms(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "failed to parse upload form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "file must be a .csv")
		return
	}

	programs, err := csvio.ReadPrograms(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid CSV: "+err.Error())
		return
	}

	res, err := s.programs.Import(r.Context(), programs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	logger.FromContext(r.Context()).Info("Programs imported",
		zap.String("file", header.Filename),
		zap.Int("rows", len(programs)),
		zap.Int("imported", res.Imported),
		zap.Int("total", res.Total),
	)
	writeJSON(w, http.StatusOK, importResponse{Imported: res.Imported, Total: res.Total})
}

// ExportPrograms handles GET /api/export-programs.
func (s *Server) ExportPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.programs.Export(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := csvio.WritePrograms(&buf, programs); err != nil {
		s.handleDomainError(w, fmt.Errorf("encode csv: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="programs.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// EnrichProgram handles POST /api/programs/{id}/enrich.
func (s *Server) EnrichProgram(w http.ResponseWriter, r *http.Request) {
	p, err := s.programs.Enrich(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, programResponse{Program: p.Fields()})
}

func programsToJSON(programs []domprog.Program) []map[string]string {
	out := make([]map[string]string, len(programs))
	for i := range programs {
		out[i] = programs[i].Fields()
	}
	return out
}

// decodeFields reads a flat JSON object of column values. Numbers and booleans
// are kept in their literal form, null becomes empty.
func decodeFields(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	var raw map[string]any
	if !decodeJSON(w, r, &raw) {
		return nil, false
	}
	fields, err := stringFields(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return nil, false
	}
	return fields, true
}

func stringFields(raw map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			return nil, domain.NewValidationError(k, "must be a scalar value")
		}
	}
	return out, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

type autoScrapeRequest struct {
	MaxPrograms int `json:"max_programs"`
}

type autoScrapeResponse struct {
	Message         string `json:"message"`
	ProgramsScraped int    `json:"programs_scraped"`
	TotalPrograms   int    `json:"total_programs"`
}

// AutoScrape handles POST /api/auto-scrape.
func (s *Server) AutoScrape(w http.ResponseWriter, r *http.Request) {
	var req autoScrapeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.programs.AutoScrape(r.Context(), req.MaxPrograms)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, autoScrapeResponse{
		Message:         fmt.Sprintf("Successfully scraped %d programs", res.Imported),
		ProgramsScraped: res.Imported,
		TotalPrograms:   res.Total,
	})
}
