// Package discovery implements candidate scoring, filtering and ranking for
// agent discovery.
package discovery

import (
	"sort"
	"strings"

	"github.com/xiaot623/gogo/exchange/internal/domain"
	"github.com/xiaot623/gogo/exchange/internal/geo"
)

const (
	baseScore       = 1
	capabilityBonus = 10
	cuisineBonus    = 5
)

// Match is a candidate that survived filtering, with its relevance score.
type Match struct {
	Agent domain.Agent
	Score int
}

// criteria is a filter with its comparison sets lowercased once.
type criteria struct {
	capability string
	cuisine    string
	tags       []string
	categories []string
	geo        *domain.GeoFilter
}

func compile(f domain.StructuredFilter) criteria {
	return criteria{
		capability: f.Capability,
		cuisine:    strings.ToLower(f.Cuisine),
		tags:       lowerAll(f.Tags),
		categories: lowerAll(f.Categories),
		geo:        f.Geo,
	}
}

// Evaluate scores candidates against f, drops the ones that violate a hard
// constraint and returns the rest ranked by descending score. Ties keep the
// order of candidates. The result holds at most EffectiveLimit(f.Limit) items.
//
// Candidates are expected to be active already; the capability constraint is
// checked again here so a store that ignores the capability hint still yields
// correct results.
func Evaluate(candidates []domain.Agent, f domain.StructuredFilter) []Match {
	c := compile(f)
	matches := make([]Match, 0, len(candidates))
	for i := range candidates {
		agent := &candidates[i]
		if agent.Status != domain.AgentStatusActive {
			continue
		}
		score := c.score(agent)
		if score <= 0 {
			continue
		}
		if !c.admits(agent) {
			continue
		}
		matches = append(matches, Match{Agent: *agent, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit := EffectiveLimit(f.Limit); len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Score returns the relevance of agent for f without applying exclusions.
func Score(agent *domain.Agent, f domain.StructuredFilter) int {
	return compile(f).score(agent)
}

// Admits reports whether agent satisfies every hard constraint of f.
func Admits(agent *domain.Agent, f domain.StructuredFilter) bool {
	return compile(f).admits(agent)
}

func (c criteria) score(agent *domain.Agent) int {
	score := baseScore
	if c.capability != "" && agent.HasCapability(c.capability) {
		score += capabilityBonus
	}
	if c.cuisine != "" && newSet(agent.Cuisines()).has(c.cuisine) {
		score += cuisineBonus
	}
	if len(c.tags) > 0 {
		score += newSet(agent.Tags()).count(c.tags)
	}
	if len(c.categories) > 0 {
		score += newSet(agent.Categories()).count(c.categories)
	}
	return score
}

func (c criteria) admits(agent *domain.Agent) bool {
	if c.capability != "" && !agent.HasCapability(c.capability) {
		return false
	}
	if len(c.tags) > 0 && newSet(agent.Tags()).count(c.tags) != len(c.tags) {
		return false
	}
	if len(c.categories) > 0 && newSet(agent.Categories()).count(c.categories) == 0 {
		return false
	}
	if c.cuisine != "" && !newSet(agent.Cuisines()).has(c.cuisine) {
		return false
	}
	// An agent without a location gives no geo signal and is never excluded.
	if c.geo != nil {
		if loc := agent.Location(); loc != nil {
			if geo.DistanceKm(c.geo.Lat, c.geo.Lng, loc.Lat, loc.Lng) > c.geo.RadiusKm {
				return false
			}
		}
	}
	return true
}

// foldSet is a case-insensitive string set.
type foldSet map[string]struct{}

func newSet(values []string) foldSet {
	s := make(foldSet, len(values))
	for _, v := range values {
		s[strings.ToLower(v)] = struct{}{}
	}
	return s
}

func (s foldSet) has(lowered string) bool {
	_, ok := s[lowered]
	return ok
}

// count returns how many of the lowered wanted values are in s.
func (s foldSet) count(lowered []string) int {
	n := 0
	for _, v := range lowered {
		if s.has(v) {
			n++
		}
	}
	return n
}

func lowerAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
