package roster

// IsEligible decides whether a member may hold a role on a date. Checks run
// in order and stop at the first failure: required permission, unavailability
// (intervals and legacy month impediments), same-day exclusivity against the
// day's existing assignments, then the caller-supplied exclusion set (used
// when two paired roles on one date must not share a member). Pure; safe to
// call from both the generator and the substitution resolver.
func (c *Catalog) IsEligible(m Member, date string, role Role, dayAssignments map[string]string, excluded map[string]bool) bool {
	if role.RequiredPermission != "" && !m.HasPermission(role.RequiredPermission) {
		return false
	}
	if m.UnavailableOn(date) {
		return false
	}
	if c.conflictingRole(m.ID, role, dayAssignments) != "" {
		return false
	}
	if excluded[m.ID] {
		return false
	}
	return true
}

// conflictingRole returns the id of a role the member already holds on the
// date that excludes holding this one, or "" when there is no conflict.
// Secondary-category roles tolerate each other but nothing else does.
func (c *Catalog) conflictingRole(memberID string, role Role, dayAssignments map[string]string) string {
	for heldID, holder := range dayAssignments {
		if holder != memberID || heldID == role.ID {
			continue
		}
		held, ok := c.byID[heldID]
		if ok && held.category() == CategorySecondary && role.category() == CategorySecondary {
			continue
		}
		return heldID
	}
	return ""
}

// exclusionReasons reports every applicable reason the member cannot hold
// the role on the date. Unlike IsEligible it does not short-circuit: the
// diagnostic output lists all causes so the caller can render them.
func (c *Catalog) exclusionReasons(m Member, date string, role Role, dayAssignments map[string]string) []Reason {
	var reasons []Reason
	if role.RequiredPermission != "" && !m.HasPermission(role.RequiredPermission) {
		reasons = append(reasons, Reason{Code: ReasonMissingPermission})
	}
	if m.UnavailableOn(date) {
		reasons = append(reasons, Reason{Code: ReasonUnavailable})
	}
	// Walk conflicts in catalog order so diagnostics are stable.
	for _, held := range c.Roles {
		if dayAssignments[held.ID] != m.ID || held.ID == role.ID {
			continue
		}
		if held.category() == CategorySecondary && role.category() == CategorySecondary {
			continue
		}
		reasons = append(reasons, Reason{Code: ReasonConflict, RoleID: held.ID})
	}
	return reasons
}
