package result

import "github.com/techrealm/programdex/internal/domain/program"

// Result is a single retrieval hit.
type Result struct {
	program program.Program
	score   float64
}

// New creates a search result.
func New(p program.Program, score float64) Result {
	return Result{program: p, score: score}
}

// Program returns the matched program.
func (r *Result) Program() program.Program { return r.program }

// ID returns the program identifier.
func (r *Result) ID() string { return r.program.ID }

// Score returns the cosine similarity.
func (r *Result) Score() float64 { return r.score }

// Programs extracts the programs from results, preserving order.
func Programs(results []Result) []program.Program {
	out := make([]program.Program, len(results))
	for i := range results {
		out[i] = results[i].program
	}
	return out
}
