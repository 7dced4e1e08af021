// Package domain defines the core domain models for the agent exchange.
package domain

// AgentType represents the kind of a registered agent.
type AgentType string

const (
	AgentTypePersonal AgentType = "personal"
	AgentTypeEntity   AgentType = "entity"
)

// Valid reports whether t is a known agent type.
func (t AgentType) Valid() bool {
	return t == AgentTypePersonal || t == AgentTypeEntity
}

// AgentStatus represents the lifecycle status of an agent.
type AgentStatus string

const (
	AgentStatusActive  AgentStatus = "active"
	AgentStatusPending AgentStatus = "pending"
	AgentStatusRevoked AgentStatus = "revoked"
)

// Valid reports whether s is a known agent status.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentStatusActive, AgentStatusPending, AgentStatusRevoked:
		return true
	}
	return false
}

// RegistrationMode controls whether new agents need a registration code.
type RegistrationMode string

const (
	RegistrationModeOpen         RegistrationMode = "open"
	RegistrationModeCodeRequired RegistrationMode = "code_required"
)

// Valid reports whether m is a known registration mode.
func (m RegistrationMode) Valid() bool {
	return m == RegistrationModeOpen || m == RegistrationModeCodeRequired
}
