package fallback

import (
	"errors"
	"fmt"
)

var (
	// ErrDeadline is reported when the global deadline stops the search
	// before any attempt failed on its own.
	ErrDeadline = errors.New("global deadline reached before any model attempt")

	ErrNoGenerationModels = errors.New("no generation-capable models listed")
	ErrNoCandidates       = errors.New("no model candidates configured")
)

// ExhaustedError means every attempt failed or the deadline cut the
// search short. Only the most recent underlying error is kept.
type ExhaustedError struct {
	Last     error
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all model attempts failed: %v", e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

func IsExhausted(err error) bool {
	var target *ExhaustedError
	return errors.As(err, &target)
}
