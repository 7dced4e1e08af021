package domain

import (
	"encoding/json"
	"time"
)

// Capability is a named action-set an agent declares it can perform.
type Capability struct {
	Name    string   `json:"name"`
	Version string   `json:"version,omitempty"`
	Actions []string `json:"actions"`
}

// Geo is the location an agent serves from.
type Geo struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	RadiusKm *float64 `json:"radiusKm,omitempty"`
}

// Business holds business-specific metadata.
type Business struct {
	Cuisines    []string `json:"cuisines"`
	ServiceArea string   `json:"serviceArea,omitempty"`
}

// AgentMetadata is the descriptive metadata owned by an agent.
type AgentMetadata struct {
	Tags       []string        `json:"tags"`
	Categories []string        `json:"categories"`
	Locales    []string        `json:"locales"`
	Geo        *Geo            `json:"geo,omitempty"`
	Business   *Business       `json:"business,omitempty"`
	Extra      json.RawMessage `json:"extra,omitempty"`
}

// Agent represents a registered agent together with its capabilities and metadata.
type Agent struct {
	AgentID      string         `json:"exchangeAgentId"`
	DisplayName  string         `json:"displayName"`
	AgentType    AgentType      `json:"agentType"`
	Handle       string         `json:"handle,omitempty"`
	PublicURL    string         `json:"publicUrl,omitempty"`
	Status       AgentStatus    `json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
	LastSeenAt   *time.Time     `json:"lastSeenAt,omitempty"`
	Capabilities []Capability   `json:"capabilities"`
	Metadata     *AgentMetadata `json:"metadata,omitempty"`
}

// HasCapability reports whether the agent declares a capability with exactly this name.
func (a *Agent) HasCapability(name string) bool {
	for _, c := range a.Capabilities {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Tags returns the agent's tags, or nil when it has no metadata.
func (a *Agent) Tags() []string {
	if a.Metadata == nil {
		return nil
	}
	return a.Metadata.Tags
}

// Categories returns the agent's categories, or nil when it has no metadata.
func (a *Agent) Categories() []string {
	if a.Metadata == nil {
		return nil
	}
	return a.Metadata.Categories
}

// Cuisines returns the agent's business cuisines, or nil when none are declared.
func (a *Agent) Cuisines() []string {
	if a.Metadata == nil || a.Metadata.Business == nil {
		return nil
	}
	return a.Metadata.Business.Cuisines
}

// Location returns the agent's geo metadata, or nil when it has none.
func (a *Agent) Location() *Geo {
	if a.Metadata == nil {
		return nil
	}
	return a.Metadata.Geo
}

// RegistrationConfig is the exchange-wide registration setting.
type RegistrationConfig struct {
	Mode      RegistrationMode
	CodeHash  string
	UpdatedAt time.Time
}
