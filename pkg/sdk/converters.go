package programdex

import (
	domchat "github.com/techrealm/programdex/internal/domain/chat"
	domprog "github.com/techrealm/programdex/internal/domain/program"
	"github.com/techrealm/programdex/internal/domain/search/result"
	programuc "github.com/techrealm/programdex/internal/usecase/program"
	"github.com/techrealm/programdex/internal/usecase/retrieval"
)

func programFromDomain(p *domprog.Program) Program {
	return Program{
		ID:                  p.ID,
		Name:                p.Name,
		University:          p.University,
		DegreeType:          p.DegreeType,
		Duration:            p.Duration,
		TuitionFee:          p.TuitionFee,
		ApplicationFee:      p.ApplicationFee,
		StartDate:           p.StartDate,
		Deadline:            p.Deadline,
		Country:             p.Country,
		Requirements:        p.Requirements,
		EnglishTestRequired: p.EnglishTestRequired,
		Description:         p.Description,
		URL:                 p.URL,
		Intake:              p.Intake,
		ScrapedAt:           p.ScrapedAt,
	}
}

func programToDomain(p *Program) domprog.Program {
	return domprog.Program{
		ID:                  p.ID,
		Name:                p.Name,
		University:          p.University,
		DegreeType:          p.DegreeType,
		Duration:            p.Duration,
		TuitionFee:          p.TuitionFee,
		ApplicationFee:      p.ApplicationFee,
		StartDate:           p.StartDate,
		Deadline:            p.Deadline,
		Country:             p.Country,
		Requirements:        p.Requirements,
		EnglishTestRequired: p.EnglishTestRequired,
		Description:         p.Description,
		URL:                 p.URL,
		Intake:              p.Intake,
		ScrapedAt:           p.ScrapedAt,
	}
}

func programsFromDomain(in []domprog.Program) []Program {
	out := make([]Program, len(in))
	for i := range in {
		out[i] = programFromDomain(&in[i])
	}
	return out
}

func pageFromDomain(p programuc.Page) Page {
	return Page{
		Programs:   programsFromDomain(p.Programs),
		Total:      p.Total,
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: p.TotalPages,
	}
}

func searchResultsFromDomain(in []result.Result) []SearchResult {
	out := make([]SearchResult, len(in))
	for i := range in {
		p := in[i].Program()
		out[i] = SearchResult{Program: programFromDomain(&p), Score: in[i].Score()}
	}
	return out
}

func statsFromDomain(s retrieval.Stats) Stats {
	return Stats{Programs: s.Programs, Vocabulary: s.Vocabulary, FittedAt: s.FittedAt}
}

func messageFromDomain(t *domchat.Turn) Message {
	return Message{
		Role:      Role(t.Role),
		Content:   t.Content,
		Programs:  programsFromDomain(t.Programs),
		Timestamp: t.Timestamp,
	}
}

func chatFromDomain(s *domchat.Session) Chat {
	turns := s.Turns()
	msgs := make([]Message, len(turns))
	for i := range turns {
		msgs[i] = messageFromDomain(&turns[i])
	}
	return Chat{
		ID:        s.ID(),
		UserID:    s.UserID(),
		Messages:  msgs,
		CreatedAt: s.CreatedAt(),
		UpdatedAt: s.UpdatedAt(),
	}
}
