// file: internal/metadata/source.go
// version: 2.0.0
// guid: a1b2c3d4-e5f6-7a8b-9c0d-e1f2a3b4c5d6

package metadata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jdfalk/spit/internal/models"
)

// Provider is a pluggable metadata source.
//
// Fetch returns an empty slice and a nil error when nothing was found. It
// fails only for transport or protocol problems. A Provider is not required
// to be safe for concurrent calls to itself.
type Provider interface {
	Name() string
	Categories() []models.Category
	Fetch(ctx context.Context, q models.Query) ([]models.RawItem, error)
}

// ErrMissingCredentials is returned by providers that need an API key which
// was not configured.
var ErrMissingCredentials = errors.New("missing credentials")

// ProviderError wraps a provider's transport or protocol failure.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func providerError(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

// unsupported is returned when a provider is asked for a category it does
// not serve. The registry prevents this in normal operation.
func unsupported(provider string, c models.Category) error {
	return &ProviderError{Provider: provider, Op: "fetch", Err: fmt.Errorf("category %s not supported", c)}
}
