package router

import "context"

// Stub is the deterministic offline generator. Every call fails with
// ErrUnavailable so callers take their rule-based or templated path.
type Stub struct{}

// Generate always returns ErrUnavailable
func (Stub) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", ErrUnavailable
}
