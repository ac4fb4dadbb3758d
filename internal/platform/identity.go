package platform

import (
	"feedwatch/internal/identity"
)

// IDStrategy extracts stable identifiers for items belonging to one
// platform. The precedence inside a platform is: link URL-shape pattern,
// then guid tail, then hashed guid, then hashed link. Items not belonging
// to the platform are passed through to the next strategy.
type IDStrategy struct {
	rule *Rule
}

// NewIDStrategies builds one identity strategy per configured platform,
// in rule order.
func NewIDStrategies(rules *Rules) []identity.Strategy {
	out := make([]identity.Strategy, 0, len(rules.Platforms))
	for _, rule := range rules.Platforms {
		out = append(out, &IDStrategy{rule: rule})
	}
	return out
}

// AssignID implements identity.Strategy.
func (s *IDStrategy) AssignID(e identity.RawEntry) (string, bool) {
	if !s.applies(e) {
		return "", false
	}

	for _, re := range s.rule.idPatterns {
		if m := re.FindStringSubmatch(e.Link); len(m) > 1 {
			return s.rule.IDPrefix + ":" + m[1], true
		}
	}

	if e.GUID != "" {
		if s.rule.guidTail != nil {
			if m := s.rule.guidTail.FindStringSubmatch(e.GUID); len(m) > 1 {
				return s.rule.IDPrefix + ":" + m[1], true
			}
		}
		return s.rule.IDPrefix + ":" + identity.ShortHash(e.GUID), true
	}

	if e.Link != "" {
		return s.rule.IDPrefix + ":" + identity.ShortHash(e.Link), true
	}
	return "", false
}

// applies reports whether the entry belongs to this platform: its link is
// hosted on a platform domain, or its guid mentions one.
func (s *IDStrategy) applies(e identity.RawEntry) bool {
	if host := hostOf(e.Link); host != "" && s.rule.OwnsHost(host) {
		return true
	}
	if host := hostOf(e.GUID); host != "" && s.rule.OwnsHost(host) {
		return true
	}
	return false
}
