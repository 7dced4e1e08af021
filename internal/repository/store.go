// Package store defines the agent record storage interface and its SQLite implementation.
package store

import (
	"context"
	"time"

	"github.com/xiaot623/gogo/exchange/internal/domain"
)

// Store defines the interface for agent record persistence.
//
// Lookups return (nil, nil) when nothing matches. Updates addressed to an
// unknown agent return domain.ErrNotFound.
type Store interface {
	// Discovery reads. The capability hint is advisory; callers re-check it.
	ListActiveCandidates(ctx context.Context, capabilityHint string, limit int) ([]domain.Agent, error)

	// Agent operations
	ListAgents(ctx context.Context) ([]domain.Agent, error)
	GetAgent(ctx context.Context, agentID string) (*domain.Agent, error)
	GetAgentByHandle(ctx context.Context, handle string) (*domain.Agent, error)
	FindActiveAgentByPublicURL(ctx context.Context, publicURL string) (*domain.Agent, error)
	CreateAgent(ctx context.Context, agent *domain.Agent) error
	RefreshAgent(ctx context.Context, agentID, displayName string, agentType domain.AgentType, seenAt time.Time) error
	UpdateHeartbeat(ctx context.Context, agentID, publicURL string, seenAt time.Time) error
	ClaimHandle(ctx context.Context, agentID, handle string) error
	UpdateAgentStatus(ctx context.Context, agentID string, status domain.AgentStatus) error
	DeleteAgent(ctx context.Context, agentID string) error

	// Registration settings
	GetRegistrationConfig(ctx context.Context) (*domain.RegistrationConfig, error)
	SaveRegistrationConfig(ctx context.Context, cfg *domain.RegistrationConfig) error

	// Lifecycle
	Close() error
}
