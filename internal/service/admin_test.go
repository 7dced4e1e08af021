package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/exchange/internal/auth"
	"github.com/xiaot623/gogo/exchange/internal/domain"
)

func TestAdminLogin(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	resp, err := svc.AdminLogin(ctx, "s3cret")
	require.NoError(t, err)

	claims, err := svc.tokens.Verify(resp.AccessToken, auth.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)

	_, err = svc.AdminLogin(ctx, "wrong")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestListAgentsNewestFirst(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	first, err := svc.RegisterAgent(ctx, registerRequest("First Agent", ""))
	require.NoError(t, err)
	second, err := svc.RegisterAgent(ctx, registerRequest("Second Agent", ""))
	require.NoError(t, err)
	_, err = svc.ClaimHandle(ctx, second.AgentID, "second")
	require.NoError(t, err)

	items, err := svc.ListAgents(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.AgentID, items[0].ID)
	assert.Equal(t, first.AgentID, items[1].ID)
	require.NotNil(t, items[0].Handle)
	assert.Equal(t, "@second", *items[0].Handle)
	assert.Nil(t, items[1].Handle)
	assert.Equal(t, 1, items[0].CapabilitiesCount)
	assert.Equal(t, []string{"vegan"}, items[0].Tags)
	assert.NotNil(t, items[0].LastSeenAt)
}

func TestSetAgentStatusHidesFromDiscovery(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	a, err := svc.RegisterAgent(ctx, registerRequest("Luigi's", ""))
	require.NoError(t, err)
	require.NoError(t, svc.SetAgentStatus(ctx, a.AgentID, domain.AgentStatusRevoked))

	resp, err := svc.SearchStructured(ctx, domain.StructuredSearchRequest{})
	require.NoError(t, err)
	assert.Zero(t, resp.Count)

	err = svc.SetAgentStatus(ctx, a.AgentID, "archived")
	assert.True(t, domain.IsValidation(err))
	err = svc.SetAgentStatus(ctx, "missing", domain.AgentStatusActive)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDeleteAgent(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	a, err := svc.RegisterAgent(ctx, registerRequest("Luigi's", ""))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteAgent(ctx, a.AgentID))

	_, err = svc.GetAgent(ctx, a.AgentID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(svc.DeleteAgent(ctx, a.AgentID), domain.ErrNotFound))
}

func TestRegistrationConfig(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	cfg, err := svc.GetRegistrationConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationModeOpen, cfg.RegistrationMode)
	assert.False(t, cfg.CodeConfigured)

	_, err = svc.SetRegistrationConfig(ctx, domain.RegistrationConfigRequest{RegistrationMode: domain.RegistrationModeCodeRequired})
	assert.True(t, domain.IsValidation(err))

	_, err = svc.SetRegistrationConfig(ctx, domain.RegistrationConfigRequest{RegistrationMode: "closed"})
	assert.True(t, domain.IsValidation(err))

	cfg, err = svc.SetRegistrationConfig(ctx, domain.RegistrationConfigRequest{
		RegistrationMode: domain.RegistrationModeCodeRequired,
		RegistrationCode: "letmein",
	})
	require.NoError(t, err)
	assert.True(t, cfg.CodeConfigured)
	assert.NotEmpty(t, cfg.UpdatedAt)

	cfg, err = svc.SetRegistrationConfig(ctx, domain.RegistrationConfigRequest{RegistrationMode: domain.RegistrationModeOpen})
	require.NoError(t, err)
	assert.False(t, cfg.CodeConfigured)

	got, err := svc.GetRegistrationConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationModeOpen, got.RegistrationMode)
	assert.False(t, got.CodeConfigured)
}
