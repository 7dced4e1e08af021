package service

import (
	"bytes"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xiaot623/gogo/exchange/internal/domain"
)

const (
	minDisplayName      = 2
	maxDisplayName      = 120
	maxRegistrationCode = 255
	maxCapabilities     = 200
	maxCapabilityName   = 100
	maxVersion          = 40
	maxActions          = 100
	maxAction           = 120
	maxLabels           = 50
	maxLabel            = 64
	minLocale           = 2
	maxLocale           = 35
	maxCuisines         = 30
	maxServiceArea      = 160
	minRegistrationCode = 3

	// bcrypt only accepts inputs up to 72 bytes.
	maxHashedCode = 72
)

var handlePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

func validateRegistration(req *domain.RegisterAgentRequest) error {
	if n := utf8.RuneCountInString(req.DisplayName); n < minDisplayName || n > maxDisplayName {
		return domain.NewValidationError("displayName", "must be between %d and %d characters", minDisplayName, maxDisplayName)
	}
	if len(req.RegistrationCode) > maxRegistrationCode {
		return domain.NewValidationError("registrationCode", "must be at most %d characters", maxRegistrationCode)
	}
	if !req.AgentType.Valid() {
		return domain.NewValidationError("agentType", "must be one of personal, entity")
	}
	if req.PublicURL != "" {
		if err := validatePublicURL("publicUrl", req.PublicURL); err != nil {
			return err
		}
	}
	if len(req.Capabilities) == 0 || len(req.Capabilities) > maxCapabilities {
		return domain.NewValidationError("capabilities", "must contain between 1 and %d entries", maxCapabilities)
	}
	for i, c := range req.Capabilities {
		field := fmt.Sprintf("capabilities[%d]", i)
		if n := utf8.RuneCountInString(c.Name); n < 1 || n > maxCapabilityName {
			return domain.NewValidationError(field+".name", "must be between 1 and %d characters", maxCapabilityName)
		}
		if utf8.RuneCountInString(c.Version) > maxVersion {
			return domain.NewValidationError(field+".version", "must be at most %d characters", maxVersion)
		}
		if err := validateStrings(field+".actions", c.Actions, maxActions, 1, maxAction); err != nil {
			return err
		}
	}
	if req.Metadata != nil {
		return validateMetadata(req.Metadata)
	}
	return nil
}

func validateMetadata(md *domain.AgentMetadata) error {
	if err := validateStrings("metadata.tags", md.Tags, maxLabels, 1, maxLabel); err != nil {
		return err
	}
	if err := validateStrings("metadata.categories", md.Categories, maxLabels, 1, maxLabel); err != nil {
		return err
	}
	if err := validateStrings("metadata.locales", md.Locales, maxLabels, minLocale, maxLocale); err != nil {
		return err
	}
	if g := md.Geo; g != nil {
		if math.IsNaN(g.Lat) || g.Lat < -90 || g.Lat > 90 {
			return domain.NewValidationError("metadata.geo.lat", "must be between -90 and 90")
		}
		if math.IsNaN(g.Lng) || g.Lng < -180 || g.Lng > 180 {
			return domain.NewValidationError("metadata.geo.lng", "must be between -180 and 180")
		}
		if g.RadiusKm != nil && (math.IsNaN(*g.RadiusKm) || *g.RadiusKm <= 0) {
			return domain.NewValidationError("metadata.geo.radiusKm", "must be positive")
		}
	}
	if b := md.Business; b != nil {
		if err := validateStrings("metadata.business.cuisines", b.Cuisines, maxCuisines, 1, maxLabel); err != nil {
			return err
		}
		if utf8.RuneCountInString(b.ServiceArea) > maxServiceArea {
			return domain.NewValidationError("metadata.business.serviceArea", "must be at most %d characters", maxServiceArea)
		}
	}
	extra := bytes.TrimSpace(md.Extra)
	if len(extra) > 0 && !bytes.Equal(extra, []byte("null")) && extra[0] != '{' {
		return domain.NewValidationError("metadata.extra", "must be a JSON object")
	}
	return nil
}

func validateStrings(field string, values []string, maxItems, minLen, maxLen int) error {
	if len(values) > maxItems {
		return domain.NewValidationError(field, "must contain at most %d entries", maxItems)
	}
	for _, v := range values {
		if n := utf8.RuneCountInString(v); n < minLen || n > maxLen {
			return domain.NewValidationError(field, "entries must be between %d and %d characters", minLen, maxLen)
		}
	}
	return nil
}

func validatePublicURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.NewValidationError(field, "must be an absolute http or https URL")
	}
	return nil
}

// normalizeHandle lowercases a handle, strips a leading "@" and checks its shape.
func normalizeHandle(raw string) (string, error) {
	handle := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "@"))
	if !handlePattern.MatchString(handle) {
		return "", domain.NewValidationError("handle", "must match %s", handlePattern.String())
	}
	return handle, nil
}
