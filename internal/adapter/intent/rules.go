package intent

import (
	"context"
	"regexp"
	"strings"

	"github.com/xiaot623/gogo/exchange/internal/domain"
)

const (
	// ReservationCapability is the capability implied by booking language.
	ReservationCapability = "reservation.make"
	// NearbyRadiusKm is the radius used for "near me" queries.
	NearbyRadiusKm = 10
)

// Cuisines is the vocabulary recognised by RuleTranslator, in match priority order.
var Cuisines = []string{"italian", "mexican", "chinese", "japanese", "thai", "indian", "french", "greek", "american"}

var (
	dayPattern  = regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	timePattern = regexp.MustCompile(`\b(\d{1,2}(?::\d{2})?\s?(am|pm)?)\b`)
)

// RuleTranslator is the deterministic keyword-based translator.
type RuleTranslator struct{}

// NewRuleTranslator creates a rule-based translator.
func NewRuleTranslator() *RuleTranslator {
	return &RuleTranslator{}
}

// Translate never fails. A query with no recognised keywords yields a filter
// with only the default limit set.
func (t *RuleTranslator) Translate(ctx context.Context, query string, rc *domain.RequesterContext) (*domain.IntentFilter, error) {
	normalized := strings.ToLower(query)
	f := &domain.IntentFilter{
		StructuredFilter: domain.StructuredFilter{Limit: domain.DefaultLimit},
	}

	if strings.Contains(normalized, "book") || strings.Contains(normalized, "reservation") {
		f.Capability = ReservationCapability
	}

	for _, c := range Cuisines {
		if strings.Contains(normalized, c) {
			f.Cuisine = c
			break
		}
	}

	nearby := strings.Contains(normalized, "near me") || strings.Contains(normalized, "local")
	if nearby && rc != nil && rc.Geo != nil {
		f.Geo = &domain.GeoFilter{
			Lat:      rc.Geo.Lat,
			Lng:      rc.Geo.Lng,
			RadiusKm: NearbyRadiusKm,
		}
	}

	if m := dayPattern.FindStringSubmatch(normalized); m != nil {
		f.DesiredDayOfWeek = m[1]
	}

	if m := timePattern.FindStringSubmatch(normalized); m != nil {
		f.DesiredTimeLocal = strings.TrimSpace(m[1])
	}

	return f, nil
}
