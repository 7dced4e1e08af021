package intent

import (
	"context"
	"fmt"

	"github.com/xiaot623/gogo/exchange/internal/domain"
)

// UnavailableTranslator stands in for a translator backend that is declared
// in configuration but not built into this binary.
type UnavailableTranslator struct {
	Provider string
}

// NewUnavailableTranslator creates a translator that always reports the
// provider as not implemented.
func NewUnavailableTranslator(provider string) *UnavailableTranslator {
	return &UnavailableTranslator{Provider: provider}
}

// Translate always fails with domain.ErrNotImplemented.
func (t *UnavailableTranslator) Translate(ctx context.Context, query string, rc *domain.RequesterContext) (*domain.IntentFilter, error) {
	return nil, fmt.Errorf("%w: intent provider %q is not available, use %q", domain.ErrNotImplemented, t.Provider, ProviderRules)
}
