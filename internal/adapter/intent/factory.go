package intent

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	// ProviderRules selects the deterministic rule-based translator.
	ProviderRules = "rules"
	// ProviderMock is accepted as an alias of ProviderRules.
	ProviderMock = "mock"
	// ProviderOpenAI is a declared language-model backend that is not built in.
	ProviderOpenAI = "openai"
)

// NewTranslator returns the translator for the configured provider. It is
// called once at startup.
func NewTranslator(provider string, logger *zap.Logger) (Translator, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderRules, ProviderMock:
		return NewRuleTranslator(), nil
	case ProviderOpenAI:
		logger.Warn("intent provider is declared but unavailable; intent search will return not implemented",
			zap.String("provider", ProviderOpenAI))
		return NewUnavailableTranslator(ProviderOpenAI), nil
	default:
		return nil, fmt.Errorf("unknown intent provider %q", provider)
	}
}
