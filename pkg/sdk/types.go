package programdex

import (
	"context"
	"time"
)

// Program is one catalog entry. Missing attributes are empty strings.
type Program struct {
	ID                  string
	Name                string
	University          string
	DegreeType          string
	Duration            string
	TuitionFee          string
	ApplicationFee      string
	StartDate           string
	Deadline            string
	Country             string
	Requirements        string
	EnglishTestRequired string
	Description         string
	URL                 string
	Intake              string
	ScrapedAt           string
}

// ProgramPatch names the columns to overwrite, keyed by CSV column name
// (e.g. "tuition_fee"). The id cannot be changed.
type ProgramPatch map[string]string

// Page is one slice of the catalog.
type Page struct {
	Programs   []Program
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Imported int
	Total    int
}

// SearchResult is a single retrieval hit.
type SearchResult struct {
	Program Program
	Score   float64
}

// Stats describes the fitted retrieval model.
type Stats struct {
	Programs   int
	Vocabulary int
	FittedAt   time.Time // zero before the first fit
}

// Role identifies the author of a chat message.
type Role string

// Chat roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat.
type Message struct {
	Role      Role
	Content   string
	Programs  []Program // programs the reply was built from, assistant turns only
	Timestamp time.Time
}

// Chat is a stored conversation.
type Chat struct {
	ID        string
	UserID    string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reply is the answer to a one-off question.
type Reply struct {
	Text    string
	Results []SearchResult
}

// Responder turns retrieved programs into reply text.
// Errors and empty replies fall back to the built-in summary.
type Responder interface {
	Respond(ctx context.Context, query string, results []SearchResult) (string, error)
}
