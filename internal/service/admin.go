package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xiaot623/gogo/exchange/internal/auth"
	"github.com/xiaot623/gogo/exchange/internal/discovery"
	"github.com/xiaot623/gogo/exchange/internal/domain"
)

const adminSubject = "admin"

// AdminLogin checks the operator password and issues an admin token.
func (s *Service) AdminLogin(ctx context.Context, password string) (*domain.TokenResponse, error) {
	if err := bcrypt.CompareHashAndPassword(s.adminPasswordHash, []byte(password)); err != nil {
		s.logger.Warn("admin login rejected")
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	token, _, err := s.tokens.Issue(adminSubject, auth.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return &domain.TokenResponse{AccessToken: token}, nil
}

// ListAgents lists every agent, newest first.
func (s *Service) ListAgents(ctx context.Context) ([]domain.AgentListItem, error) {
	agents, err := s.store.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	items := make([]domain.AgentListItem, len(agents))
	for i := range agents {
		a := &agents[i]
		item := domain.AgentListItem{
			ID:                a.AgentID,
			DisplayName:       a.DisplayName,
			Handle:            discovery.FormatHandle(a.Handle),
			AgentType:         a.AgentType,
			CapabilitiesCount: len(a.Capabilities),
			Tags:              a.Tags(),
			CreatedAt:         discovery.FormatTime(a.CreatedAt),
			Status:            a.Status,
		}
		if item.Tags == nil {
			item.Tags = []string{}
		}
		if a.LastSeenAt != nil {
			ts := discovery.FormatTime(*a.LastSeenAt)
			item.LastSeenAt = &ts
		}
		items[i] = item
	}
	return items, nil
}

// SetAgentStatus changes an agent's lifecycle status.
func (s *Service) SetAgentStatus(ctx context.Context, agentID string, status domain.AgentStatus) error {
	if !status.Valid() {
		return domain.NewValidationError("status", "must be one of active, pending, revoked")
	}
	if err := s.store.UpdateAgentStatus(ctx, agentID, status); err != nil {
		return fmt.Errorf("failed to update agent status: %w", err)
	}
	s.logger.Info("agent status changed", zap.String("agent_id", agentID), zap.String("status", string(status)))
	return nil
}

// DeleteAgent removes an agent with its capabilities and metadata.
func (s *Service) DeleteAgent(ctx context.Context, agentID string) error {
	if err := s.store.DeleteAgent(ctx, agentID); err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	s.logger.Info("agent deleted", zap.String("agent_id", agentID))
	return nil
}

// GetRegistrationConfig describes the current registration mode.
func (s *Service) GetRegistrationConfig(ctx context.Context) (*domain.RegistrationConfigResponse, error) {
	cfg, err := s.store.GetRegistrationConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get registration config: %w", err)
	}
	return registrationConfigResponse(cfg), nil
}

// SetRegistrationConfig changes the registration mode. code_required needs a
// code, which is stored hashed. Switching to open clears the code.
func (s *Service) SetRegistrationConfig(ctx context.Context, req domain.RegistrationConfigRequest) (*domain.RegistrationConfigResponse, error) {
	if !req.RegistrationMode.Valid() {
		return nil, domain.NewValidationError("registrationMode", "must be one of open, code_required")
	}

	cfg := &domain.RegistrationConfig{Mode: req.RegistrationMode, UpdatedAt: s.now().UTC()}
	if req.RegistrationMode == domain.RegistrationModeCodeRequired {
		if len(req.RegistrationCode) < minRegistrationCode || len(req.RegistrationCode) > maxHashedCode {
			return nil, domain.NewValidationError("registrationCode",
				"must be between %d and %d characters when registration mode is code_required", minRegistrationCode, maxHashedCode)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.RegistrationCode), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash registration code: %w", err)
		}
		cfg.CodeHash = string(hash)
	}

	if err := s.store.SaveRegistrationConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to save registration config: %w", err)
	}
	s.logger.Info("registration mode changed", zap.String("mode", string(cfg.Mode)))
	return registrationConfigResponse(cfg), nil
}

func registrationConfigResponse(cfg *domain.RegistrationConfig) *domain.RegistrationConfigResponse {
	resp := &domain.RegistrationConfigResponse{
		RegistrationMode: cfg.Mode,
		CodeConfigured:   cfg.CodeHash != "",
	}
	if !cfg.UpdatedAt.IsZero() {
		resp.UpdatedAt = discovery.FormatTime(cfg.UpdatedAt)
	}
	return resp
}
