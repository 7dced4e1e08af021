package discovery

import (
	"math"

	"github.com/xiaot623/gogo/exchange/internal/domain"
)

const (
	minRadiusKm = 0.1
	maxRadiusKm = 1000

	maxDayOfWeekLen = 20
	maxTimeLocalLen = 80
)

// EffectiveLimit clamps a requested result cap into [1, MaxLimit]. Zero means
// the default.
func EffectiveLimit(limit int) int {
	if limit == 0 {
		return domain.DefaultLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > domain.MaxLimit {
		return domain.MaxLimit
	}
	return limit
}

// NormalizeStructured validates a raw structured request and returns the
// filter the evaluator runs with. The limit is clamped, never rejected.
func NormalizeStructured(req domain.StructuredSearchRequest) (domain.StructuredFilter, error) {
	f := domain.StructuredFilter{
		Capability: req.Capability,
		Tags:       req.Tags,
		Categories: req.Categories,
		Cuisine:    req.Cuisine,
		Limit:      domain.DefaultLimit,
	}
	if req.Limit != nil {
		f.Limit = clamp(*req.Limit)
	}
	if req.Geo != nil {
		if err := validateGeoFilter(req.Geo); err != nil {
			return domain.StructuredFilter{}, err
		}
		g := *req.Geo
		f.Geo = &g
	}
	return f, nil
}

// ValidateIntentFilter checks a translator's output before it is used. The
// limit is normalized in place.
func ValidateIntentFilter(f *domain.IntentFilter) error {
	if f.Geo != nil {
		if err := validateGeoFilter(f.Geo); err != nil {
			return err
		}
	}
	if len(f.DesiredDayOfWeek) > maxDayOfWeekLen {
		return domain.NewValidationError("desiredDayOfWeek", "must be at most %d characters", maxDayOfWeekLen)
	}
	if len(f.DesiredTimeLocal) > maxTimeLocalLen {
		return domain.NewValidationError("desiredTimeLocal", "must be at most %d characters", maxTimeLocalLen)
	}
	f.Limit = EffectiveLimit(f.Limit)
	return nil
}

// ValidateRequesterContext checks the optional caller position.
func ValidateRequesterContext(rc *domain.RequesterContext) error {
	if rc == nil || rc.Geo == nil {
		return nil
	}
	return validateLatLng("requesterContext.geo", rc.Geo.Lat, rc.Geo.Lng)
}

func validateGeoFilter(g *domain.GeoFilter) error {
	if err := validateLatLng("geo", g.Lat, g.Lng); err != nil {
		return err
	}
	if math.IsNaN(g.RadiusKm) || g.RadiusKm < minRadiusKm || g.RadiusKm > maxRadiusKm {
		return domain.NewValidationError("geo.radiusKm", "must be between %v and %v", minRadiusKm, maxRadiusKm)
	}
	return nil
}

func validateLatLng(field string, lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return domain.NewValidationError(field+".lat", "must be between -90 and 90")
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return domain.NewValidationError(field+".lng", "must be between -180 and 180")
	}
	return nil
}

func clamp(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > domain.MaxLimit {
		return domain.MaxLimit
	}
	return limit
}
