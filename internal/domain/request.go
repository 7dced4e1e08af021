package domain

import "encoding/json"

// StructuredSearchRequest is the raw structured discovery request.
type StructuredSearchRequest struct {
	Capability string     `json:"capability,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Categories []string   `json:"categories,omitempty"`
	Cuisine    string     `json:"cuisine,omitempty"`
	Geo        *GeoFilter `json:"geo,omitempty"`
	Limit      *int       `json:"limit,omitempty"`
}

// StructuredSearchResponse is the result of a structured search.
type StructuredSearchResponse struct {
	Filters StructuredFilter `json:"filters"`
	Count   int              `json:"count"`
	Items   []AgentSummary   `json:"items"`
}

// IntentSearchRequest is the raw free-text discovery request.
type IntentSearchRequest struct {
	Query            string            `json:"query"`
	RequesterContext *RequesterContext `json:"requesterContext,omitempty"`
}

// IntentMatch is an agent summary annotated with why it matched.
type IntentMatch struct {
	AgentSummary
	Explanation string `json:"explanation"`
}

// IntentSearchResponse is the result of an intent search.
type IntentSearchResponse struct {
	OriginalQuery      string        `json:"originalQuery"`
	InterpretedFilters IntentFilter  `json:"interpretedFilters"`
	Count              int           `json:"count"`
	Items              []IntentMatch `json:"items"`
}

// CapabilitySummary is the serialized form of a capability.
type CapabilitySummary struct {
	Name    string   `json:"name"`
	Version *string  `json:"version"`
	Actions []string `json:"actions"`
}

// BusinessSummary is the serialized form of business metadata.
type BusinessSummary struct {
	Cuisines    []string `json:"cuisines"`
	ServiceArea *string  `json:"serviceArea"`
}

// MetadataSummary is the serialized form of agent metadata. List fields are
// never null.
type MetadataSummary struct {
	Tags       []string        `json:"tags"`
	Categories []string        `json:"categories"`
	Locales    []string        `json:"locales"`
	Geo        *Geo            `json:"geo"`
	Business   BusinessSummary `json:"business"`
	Extra      json.RawMessage `json:"extra"`
}

// AgentSummary is the public serialized form of an agent.
type AgentSummary struct {
	AgentID      string              `json:"exchangeAgentId"`
	DisplayName  string              `json:"displayName"`
	Handle       *string             `json:"handle"`
	AgentType    AgentType           `json:"agentType"`
	PublicURL    *string             `json:"publicUrl"`
	Status       AgentStatus         `json:"status"`
	CreatedAt    string              `json:"createdAt"`
	LastSeenAt   *string             `json:"lastSeenAt"`
	Capabilities []CapabilitySummary `json:"capabilities"`
	Metadata     MetadataSummary     `json:"metadata"`
}

// RegisterAgentRequest is the request to register an agent.
type RegisterAgentRequest struct {
	RegistrationCode string         `json:"registrationCode,omitempty"`
	DisplayName      string         `json:"displayName"`
	AgentType        AgentType      `json:"agentType"`
	PublicURL        string         `json:"publicUrl,omitempty"`
	Capabilities     []Capability   `json:"capabilities"`
	Metadata         *AgentMetadata `json:"metadata"`
}

// RegisterAgentResponse is returned after a registration. A re-registration
// by public URL sets AlreadyRegistered and carries no token.
type RegisterAgentResponse struct {
	AlreadyRegistered bool   `json:"alreadyRegistered,omitempty"`
	AgentID           string `json:"exchangeAgentId"`
	IssuedAt          string `json:"issuedAt,omitempty"`
	AcknowledgedAt    string `json:"acknowledgedAt,omitempty"`
	AccessToken       string `json:"accessToken,omitempty"`
}

// ClaimHandleRequest is the request to claim a handle.
type ClaimHandleRequest struct {
	Handle string `json:"handle"`
}

// ClaimHandleResponse is returned after a handle is claimed.
type ClaimHandleResponse struct {
	AgentID string `json:"exchangeAgentId"`
	Handle  string `json:"handle"`
}

// HeartbeatRequest is sent periodically by a registered agent.
type HeartbeatRequest struct {
	PublicURL string `json:"publicUrl,omitempty"`
}

// AgentListItem is the admin listing form of an agent.
type AgentListItem struct {
	ID                string      `json:"id"`
	DisplayName       string      `json:"displayName"`
	Handle            *string     `json:"handle"`
	AgentType         AgentType   `json:"agentType"`
	CapabilitiesCount int         `json:"capabilitiesCount"`
	Tags              []string    `json:"tags"`
	CreatedAt         string      `json:"createdAt"`
	LastSeenAt        *string     `json:"lastSeenAt"`
	Status            AgentStatus `json:"status"`
}

// SetAgentStatusRequest changes an agent's lifecycle status.
type SetAgentStatusRequest struct {
	Status AgentStatus `json:"status"`
}

// RegistrationConfigRequest updates the registration mode.
type RegistrationConfigRequest struct {
	RegistrationMode RegistrationMode `json:"registrationMode"`
	RegistrationCode string           `json:"registrationCode,omitempty"`
}

// RegistrationConfigResponse describes the current registration mode.
type RegistrationConfigResponse struct {
	RegistrationMode RegistrationMode `json:"registrationMode"`
	CodeConfigured   bool             `json:"codeConfigured"`
	UpdatedAt        string           `json:"updatedAt"`
}

// AdminLoginRequest is the admin login body.
type AdminLoginRequest struct {
	Password string `json:"password"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}
