package roster

import (
	"context"
	"time"

	"rosterly.org/internal/recommend"
)

// Engine drives monthly generation and substitution over a fixed catalog.
// Every call works on its own history snapshot seeded from the supplied
// members; the durable directory is never touched. A nil recommender means
// every decision takes the deterministic first-eligible path.
type Engine struct {
	catalog *Catalog
	rec     recommend.Recommender
}

// NewEngine validates the catalog and wires the advisory recommender.
func NewEngine(catalog *Catalog, rec recommend.Recommender) (*Engine, error) {
	if catalog == nil || len(catalog.Roles) == 0 {
		return nil, ErrEmptyCatalog
	}
	return &Engine{catalog: catalog, rec: rec}, nil
}

// Catalog exposes the engine's role catalog for resolution and listing.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// GenerateMonth builds the month's assignment grid. Dates are processed
// strictly in order and roles in catalog order; each accepted decision is
// folded into the working history so later decisions see it. The sequence
// must stay single-threaded: reordering or overlapping decisions changes
// which candidates the eligibility and ranking steps observe.
func (e *Engine) GenerateMonth(ctx context.Context, year int, month time.Month, members []Member) (*Grid, error) {
	if month < time.January || month > time.December {
		return nil, ErrInvalidMonth
	}
	dates := e.catalog.MeetingDates(year, month)
	if len(dates) == 0 {
		return nil, ErrNoMeetingDates
	}

	history := historySnapshot(members)
	grid := &Grid{
		Year:         year,
		Month:        month,
		Dates:        dates,
		Days:         make(map[string]map[string]string, len(dates)),
		HistoryDelta: make(map[string]map[string]string),
	}

	for _, date := range dates {
		day := make(map[string]string)
		grid.Days[date] = day

		t, err := time.Parse(DateLayout, date)
		if err != nil {
			return nil, ErrInvalidDate
		}
		mt, _ := e.catalog.MeetingTypeFor(t)

		for _, role := range e.catalog.RolesFor(mt) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			eligible := eligibleIDs(e.catalog, members, date, role, day, nil)
			if len(eligible) == 0 {
				day[role.ID] = Unassigned
				grid.UnassignedSlots++
				continue
			}

			chosen, fellBack := e.pick(ctx, role, date, eligible, history)
			if fellBack {
				grid.Fallbacks++
			}

			day[role.ID] = chosen
			if history[chosen] == nil {
				history[chosen] = make(map[string]string)
			}
			history[chosen][date] = role.ID
			if grid.HistoryDelta[chosen] == nil {
				grid.HistoryDelta[chosen] = make(map[string]string)
			}
			grid.HistoryDelta[chosen][date] = role.ID
		}
	}
	return grid, nil
}

// pick asks the recommender for a candidate and validates the answer
// against the eligible set. Any error, empty id, or out-of-set id falls
// back to the first eligible candidate, which keeps runs deterministic
// under recommender failure.
func (e *Engine) pick(ctx context.Context, role Role, date string, eligible []string, history map[string]map[string]string) (string, bool) {
	if e.rec == nil {
		return eligible[0], true
	}
	suggestion, err := e.rec.Suggest(ctx, recommend.Request{
		RoleID:       role.ID,
		RoleName:     role.Name,
		Date:         date,
		CandidateIDs: eligible,
		History:      history,
	})
	if err != nil || suggestion.MemberID == "" {
		return eligible[0], true
	}
	for _, id := range eligible {
		if id == suggestion.MemberID {
			return id, false
		}
	}
	return eligible[0], true
}

// eligibleIDs filters members in their given order, which fixes the
// fallback choice.
func eligibleIDs(c *Catalog, members []Member, date string, role Role, day map[string]string, excluded map[string]bool) []string {
	var out []string
	for _, m := range members {
		if c.IsEligible(m, date, role, day, excluded) {
			out = append(out, m.ID)
		}
	}
	return out
}

// historySnapshot deep-copies member histories into a working map the run
// may mutate freely.
func historySnapshot(members []Member) map[string]map[string]string {
	history := make(map[string]map[string]string, len(members))
	for _, m := range members {
		entry := make(map[string]string, len(m.History))
		for date, roleID := range m.History {
			entry[date] = roleID
		}
		history[m.ID] = entry
	}
	return history
}
