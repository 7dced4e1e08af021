package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/gogo/exchange/internal/domain"
	"github.com/xiaot623/gogo/exchange/internal/repository"
)

func NewTestSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// SeedAgent stores an active agent with the given capabilities and metadata
// and returns it.
func SeedAgent(t *testing.T, s store.Store, name string, md *domain.AgentMetadata, capabilities ...string) *domain.Agent {
	t.Helper()

	agent := &domain.Agent{
		AgentID:     uuid.NewString(),
		DisplayName: name,
		AgentType:   domain.AgentTypeEntity,
		Status:      domain.AgentStatusActive,
		CreatedAt:   time.Now().UTC(),
		Metadata:    md,
	}
	for _, c := range capabilities {
		agent.Capabilities = append(agent.Capabilities, domain.Capability{Name: c, Actions: []string{}})
	}
	if err := s.CreateAgent(context.Background(), agent); err != nil {
		t.Fatalf("failed to seed agent %s: %v", name, err)
	}
	return agent
}
