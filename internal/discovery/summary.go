package discovery

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xiaot623/gogo/exchange/internal/domain"
)

const explanationPrefix = "Matched active assistant profile"

var emptyObject = json.RawMessage(`{}`)

// Summarize converts an agent into its public serialized form.
func Summarize(agent *domain.Agent) domain.AgentSummary {
	s := domain.AgentSummary{
		AgentID:      agent.AgentID,
		DisplayName:  agent.DisplayName,
		Handle:       FormatHandle(agent.Handle),
		AgentType:    agent.AgentType,
		PublicURL:    optional(agent.PublicURL),
		Status:       agent.Status,
		CreatedAt:    FormatTime(agent.CreatedAt),
		Capabilities: make([]domain.CapabilitySummary, 0, len(agent.Capabilities)),
		Metadata: domain.MetadataSummary{
			Tags:       []string{},
			Categories: []string{},
			Locales:    []string{},
			Business:   domain.BusinessSummary{Cuisines: []string{}},
			Extra:      emptyObject,
		},
	}
	if agent.LastSeenAt != nil {
		ts := FormatTime(*agent.LastSeenAt)
		s.LastSeenAt = &ts
	}
	for _, c := range agent.Capabilities {
		s.Capabilities = append(s.Capabilities, domain.CapabilitySummary{
			Name:    c.Name,
			Version: optional(c.Version),
			Actions: nonNil(c.Actions),
		})
	}

	md := agent.Metadata
	if md == nil {
		return s
	}
	s.Metadata.Tags = nonNil(md.Tags)
	s.Metadata.Categories = nonNil(md.Categories)
	s.Metadata.Locales = nonNil(md.Locales)
	if md.Geo != nil {
		g := *md.Geo
		s.Metadata.Geo = &g
	}
	if md.Business != nil {
		s.Metadata.Business.Cuisines = nonNil(md.Business.Cuisines)
		s.Metadata.Business.ServiceArea = optional(md.Business.ServiceArea)
	}
	if len(md.Extra) > 0 && string(md.Extra) != "null" {
		s.Metadata.Extra = md.Extra
	}
	return s
}

// Explain builds the one-line explanation attached to intent search results.
func Explain(f domain.IntentFilter) string {
	parts := []string{explanationPrefix}
	if f.Capability != "" {
		parts = append(parts, "capability="+f.Capability)
	}
	if f.Cuisine != "" {
		parts = append(parts, "cuisine="+f.Cuisine)
	}
	if f.Geo != nil {
		parts = append(parts, fmt.Sprintf("geo within %vkm", f.Geo.RadiusKm))
	}
	if f.DesiredDayOfWeek != "" {
		parts = append(parts, "day="+f.DesiredDayOfWeek)
	}
	if f.DesiredTimeLocal != "" {
		parts = append(parts, "time="+f.DesiredTimeLocal)
	}
	return strings.Join(parts, "; ")
}

// FormatHandle renders a stored handle with its leading "@", or nil.
func FormatHandle(handle string) *string {
	if handle == "" {
		return nil
	}
	h := "@" + handle
	return &h
}

// FormatTime renders t as an ISO-8601 UTC timestamp with millisecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
