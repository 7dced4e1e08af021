package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xiaot623/gogo/exchange/internal/auth"
	"github.com/xiaot623/gogo/exchange/internal/discovery"
	"github.com/xiaot623/gogo/exchange/internal/domain"
	"github.com/xiaot623/gogo/exchange/policy"
)

// RegisterAgent admits a new agent. An agent registering again with the
// public URL of a non-revoked agent refreshes that record instead.
func (s *Service) RegisterAgent(ctx context.Context, req domain.RegisterAgentRequest) (*domain.RegisterAgentResponse, error) {
	resp, outcome, err := s.registerAgent(ctx, req)
	if err != nil {
		outcome = outcomeOf(err)
		if errors.Is(err, domain.ErrUnauthorized) {
			outcome = "blocked"
		}
	}
	s.metrics.RecordRegistration(outcome)
	return resp, err
}

func (s *Service) registerAgent(ctx context.Context, req domain.RegisterAgentRequest) (*domain.RegisterAgentResponse, string, error) {
	if err := s.admit(ctx, req.RegistrationCode); err != nil {
		return nil, "", err
	}
	if err := validateRegistration(&req); err != nil {
		return nil, "", err
	}

	now := s.now().UTC()
	if req.PublicURL != "" {
		existing, err := s.store.FindActiveAgentByPublicURL(ctx, req.PublicURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to look up agent: %w", err)
		}
		if existing != nil {
			if err := s.store.RefreshAgent(ctx, existing.AgentID, req.DisplayName, req.AgentType, now); err != nil {
				return nil, "", fmt.Errorf("failed to refresh agent: %w", err)
			}
			s.logger.Info("agent re-registered", zap.String("agent_id", existing.AgentID))
			return &domain.RegisterAgentResponse{
				AlreadyRegistered: true,
				AgentID:           existing.AgentID,
				AcknowledgedAt:    discovery.FormatTime(now),
			}, "refreshed", nil
		}
	}

	md := req.Metadata
	if md == nil {
		md = &domain.AgentMetadata{}
	}
	agent := &domain.Agent{
		AgentID:      uuid.NewString(),
		DisplayName:  req.DisplayName,
		AgentType:    req.AgentType,
		PublicURL:    req.PublicURL,
		Status:       domain.AgentStatusActive,
		CreatedAt:    now,
		LastSeenAt:   &now,
		Capabilities: req.Capabilities,
		Metadata:     md,
	}
	if err := s.store.CreateAgent(ctx, agent); err != nil {
		return nil, "", fmt.Errorf("failed to register agent: %w", err)
	}

	token, _, err := s.tokens.Issue(agent.AgentID, auth.RoleAgent)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("agent registered",
		zap.String("agent_id", agent.AgentID),
		zap.Int("capabilities", len(agent.Capabilities)))
	return &domain.RegisterAgentResponse{
		AgentID:     agent.AgentID,
		IssuedAt:    discovery.FormatTime(now),
		AccessToken: token,
	}, "created", nil
}

// admit applies the registration policy to the current registration mode.
func (s *Service) admit(ctx context.Context, code string) error {
	cfg, err := s.store.GetRegistrationConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to get registration config: %w", err)
	}

	input := policy.RegistrationInput{
		RegistrationMode: string(cfg.Mode),
		CodeProvided:     code != "",
	}
	if input.CodeProvided && cfg.CodeHash != "" {
		input.CodeValid = bcrypt.CompareHashAndPassword([]byte(cfg.CodeHash), []byte(code)) == nil
	}

	decision, reason, err := s.policyEngine.Evaluate(ctx, input)
	if err != nil {
		return err
	}
	if decision != policy.DecisionAllow {
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, reason)
	}
	return nil
}

// ClaimHandle assigns a unique handle to an agent.
func (s *Service) ClaimHandle(ctx context.Context, agentID, rawHandle string) (*domain.ClaimHandleResponse, error) {
	handle, err := normalizeHandle(rawHandle)
	if err != nil {
		return nil, err
	}

	agent, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	if agent == nil {
		return nil, fmt.Errorf("agent %s: %w", agentID, domain.ErrNotFound)
	}

	owner, err := s.store.GetAgentByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	if owner != nil && owner.AgentID != agentID {
		return nil, fmt.Errorf("handle %s already taken: %w", handle, domain.ErrConflict)
	}

	if err := s.store.ClaimHandle(ctx, agentID, handle); err != nil {
		return nil, fmt.Errorf("failed to claim handle: %w", err)
	}
	return &domain.ClaimHandleResponse{AgentID: agentID, Handle: handle}, nil
}

// Heartbeat records that an agent is alive and optionally updates its public URL.
func (s *Service) Heartbeat(ctx context.Context, agentID string, req domain.HeartbeatRequest) error {
	if req.PublicURL != "" {
		if err := validatePublicURL("publicUrl", req.PublicURL); err != nil {
			return err
		}
	}
	if err := s.store.UpdateHeartbeat(ctx, agentID, req.PublicURL, s.now().UTC()); err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}
	return nil
}

// GetAgent returns the public summary of an agent.
func (s *Service) GetAgent(ctx context.Context, agentID string) (*domain.AgentSummary, error) {
	agent, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	if agent == nil {
		return nil, fmt.Errorf("agent %s: %w", agentID, domain.ErrNotFound)
	}
	summary := discovery.Summarize(agent)
	return &summary, nil
}

// GetAgentByHandle returns the public summary of the agent holding handle.
// A leading "@" is accepted.
func (s *Service) GetAgentByHandle(ctx context.Context, rawHandle string) (*domain.AgentSummary, error) {
	handle, err := normalizeHandle(rawHandle)
	if err != nil {
		return nil, err
	}
	agent, err := s.store.GetAgentByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	if agent == nil {
		return nil, fmt.Errorf("handle @%s: %w", handle, domain.ErrNotFound)
	}
	summary := discovery.Summarize(agent)
	return &summary, nil
}
