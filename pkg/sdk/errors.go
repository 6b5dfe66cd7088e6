package programdex

import "github.com/techrealm/programdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrProgramNotFound = domain.ErrProgramNotFound
	ErrChatNotFound    = domain.ErrChatNotFound
	ErrProgramExists   = domain.ErrProgramExists
	ErrInvalidArgument = domain.ErrInvalidArgument
	ErrResponderError  = domain.ErrResponderError
)
