package chi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/techrealm/programdex/internal/domain/search/result"
	"github.com/techrealm/programdex/internal/logger"
	"github.com/techrealm/programdex/internal/usecase/retrieval"
)

type ragSearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type scoredProgram struct {
	Program map[string]string `json:"program"`
	Score   float64           `json:"score"`
}

type ragSearchResponse struct {
	Query   string          `json:"query"`
	Results []scoredProgram `json:"results"`
	Total   int             `json:"total"`
}

// Retrain handles POST /api/rag/retrain.
func (s *Server) Retrain(w http.ResponseWriter, r *http.Request) {
	stats, err := s.programs.Retrain(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	logger.FromContext(r.Context()).Info("Retrieval model retrained",
		zap.Int("programs", stats.Programs),
		zap.Int("vocabulary", stats.Vocabulary),
	)
	writeJSON(w, http.StatusOK, toStatsResponse(stats))
}

// RAGSearch handles POST /api/rag/search.
func (s *Server) RAGSearch(w http.ResponseWriter, r *http.Request) {
	var req ragSearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "query is required")
		return
	}

	results, err := s.retriever.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]scoredProgram, len(results))
	for i := range results {
		items[i] = scoredResultToJSON(&results[i])
	}
	writeJSON(w, http.StatusOK, ragSearchResponse{Query: req.Query, Results: items, Total: len(items)})
}

func scoredResultToJSON(r *result.Result) scoredProgram {
	p := r.Program()
	return scoredProgram{Program: p.Fields(), Score: r.Score()}
}

func toStatsResponse(st retrieval.Stats) statsResponse {
	out := statsResponse{Programs: st.Programs, VocabularySize: st.Vocabulary}
	if !st.FittedAt.IsZero() {
		t := st.FittedAt
		out.FittedAt = &t
	}
	return out
}
