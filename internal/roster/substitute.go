package roster

import (
	"context"
	"sort"
	"time"
)

// resolveSlot turns the generic role key from a stored schedule column into
// the concrete role for the date, validating the date on the way in.
func (e *Engine) resolveSlot(date, roleKey, tableGroup string) (string, Role, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", Role{}, ErrInvalidDate
	}
	concrete := e.catalog.ResolveRole(roleKey, t, tableGroup)
	role, ok := e.catalog.Role(concrete)
	if !ok {
		return "", Role{}, ErrUnknownRole
	}
	return concrete, role, nil
}

// FindAutomaticSubstitute replays a single generation decision for one slot
// of an existing grid: the current holder is excluded from the pool and the
// same-day exclusivity check runs against the grid's occupants rather than
// a fresh map. Returns ErrNoSubstitute when nobody qualifies.
func (e *Engine) FindAutomaticSubstitute(ctx context.Context, date, roleKey, tableGroup, currentHolderID string, members []Member, grid *Grid) (string, error) {
	concrete, role, err := e.resolveSlot(date, roleKey, tableGroup)
	if err != nil {
		return "", err
	}

	day := daySansSlot(grid, date, concrete)
	excluded := map[string]bool{currentHolderID: true}
	eligible := eligibleIDs(e.catalog, members, date, role, day, excluded)
	if len(eligible) == 0 {
		return "", ErrNoSubstitute
	}

	history := historySnapshot(members)
	overlayGrid(history, grid)
	chosen, _ := e.pick(ctx, role, date, eligible, history)
	return chosen, nil
}

// ListSubstitutes returns the full eligible candidate set for the slot,
// sorted by display name with the current holder excluded. When the set is
// empty it also returns a diagnostic per remaining member listing every
// reason that member was ruled out, so the caller can show why nobody
// qualifies.
func (e *Engine) ListSubstitutes(ctx context.Context, date, roleKey, tableGroup, currentHolderID string, members []Member, grid *Grid) ([]Member, []Diagnostic, error) {
	concrete, role, err := e.resolveSlot(date, roleKey, tableGroup)
	if err != nil {
		return nil, nil, err
	}

	day := daySansSlot(grid, date, concrete)
	var candidates []Member
	for _, m := range members {
		if m.ID == currentHolderID {
			continue
		}
		if e.catalog.IsEligible(m, date, role, day, nil) {
			candidates = append(candidates, m)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Name != candidates[j].Name {
			return candidates[i].Name < candidates[j].Name
		}
		return candidates[i].ID < candidates[j].ID
	})
	if len(candidates) > 0 {
		return candidates, nil, nil
	}

	var diags []Diagnostic
	for _, m := range members {
		if m.ID == currentHolderID {
			continue
		}
		diags = append(diags, Diagnostic{
			MemberID: m.ID,
			Reasons:  e.catalog.exclusionReasons(m, date, role, day),
		})
	}
	return nil, diags, nil
}

// daySansSlot copies the grid's assignments for the date with the slot
// under substitution removed, so the outgoing holder's own entry does not
// block replacements while every other occupant still does.
func daySansSlot(grid *Grid, date, roleID string) map[string]string {
	src := grid.Assignments(date)
	day := make(map[string]string, len(src))
	for id, holder := range src {
		if id == roleID || holder == Unassigned {
			continue
		}
		day[id] = holder
	}
	return day
}

// overlayGrid folds a grid's existing assignments over a history snapshot
// so the recommender ranks with the month's decisions visible.
func overlayGrid(history map[string]map[string]string, grid *Grid) {
	if grid == nil {
		return
	}
	for date, day := range grid.Days {
		for roleID, holder := range day {
			if holder == Unassigned {
				continue
			}
			if history[holder] == nil {
				history[holder] = make(map[string]string)
			}
			history[holder][date] = roleID
		}
	}
}
