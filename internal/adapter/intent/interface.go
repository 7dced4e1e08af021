// Package intent translates free-text discovery queries into structured filters.
package intent

import (
	"context"

	"github.com/xiaot623/gogo/exchange/internal/domain"
)

// Translator maps a free-text query plus optional requester context to an
// IntentFilter. Implementations that are declared but unavailable return an
// error wrapping domain.ErrNotImplemented.
type Translator interface {
	Translate(ctx context.Context, query string, rc *domain.RequesterContext) (*domain.IntentFilter, error)
}

// Ensure implementations satisfy Translator.
var (
	_ Translator = (*RuleTranslator)(nil)
	_ Translator = (*UnavailableTranslator)(nil)
)
