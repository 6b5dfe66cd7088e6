package request

import "fmt"

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultTopK    = 5
	MaxTopK        = 100
)

// Request is a validated retrieval query.
type Request struct {
	query string
	topK  int
}

// New validates and normalizes search parameters.
// An empty query is legal and matches nothing. A non-positive topK becomes
// DefaultTopK and anything above MaxTopK is clamped down.
func New(query string, topK int) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	return Request{query: query, topK: NormalizeTopK(topK)}, nil
}

// NormalizeTopK applies the topK clamping rules.
func NormalizeTopK(topK int) int {
	if topK <= 0 {
		return DefaultTopK
	}
	if topK > MaxTopK {
		return MaxTopK
	}
	return topK
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// TopK returns the maximum number of results.
func (r *Request) TopK() int { return r.topK }
