package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

const (
	DecisionAllow = "allow"
	DecisionBlock = "block"
)

// RegistrationInput is the document the registration policy is evaluated against.
type RegistrationInput struct {
	RegistrationMode string `json:"registration_mode"`
	CodeProvided     bool   `json:"code_provided"`
	CodeValid        bool   `json:"code_valid"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.registration_policy.decision"),
		rego.Module("registration_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks whether a registration may proceed.
// Returns: decision (allow, block), reason (optional), error
func (e *Engine) Evaluate(ctx context.Context, input RegistrationInput) (string, string, error) {
	doc := map[string]interface{}{
		"registration_mode": input.RegistrationMode,
		"code_provided":     input.CodeProvided,
		"code_valid":        input.CodeValid,
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(doc))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	// The policy defines a default; an empty result means it was replaced by one that does not.
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionBlock, "no decision", nil
	}

	switch val := results[0].Expressions[0].Value.(type) {
	case string:
		return val, "", nil
	case map[string]interface{}:
		decision, _ := val["decision"].(string)
		reason, _ := val["reason"].(string)
		if decision == "" {
			return DecisionBlock, "missing decision", nil
		}
		return decision, reason, nil
	}
	return DecisionBlock, "unexpected return type", nil
}

// DefaultPolicy is the default policy content.
const DefaultPolicy = `
package registration_policy

default decision = {"decision": "allow", "reason": "open registration"}

decision = {"decision": "block", "reason": "registration code required"} {
	input.registration_mode == "code_required"
	not input.code_provided
}

decision = {"decision": "block", "reason": "invalid registration code"} {
	input.registration_mode == "code_required"
	input.code_provided
	not input.code_valid
}

decision = {"decision": "allow", "reason": "registration code accepted"} {
	input.registration_mode == "code_required"
	input.code_provided
	input.code_valid
}
`
