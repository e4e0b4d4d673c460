package httpapi

import (
	"errors"
	"net/http"
	"time"

	"rosterly.org/internal/audit"
	"rosterly.org/internal/auth"
	"rosterly.org/internal/obs"
	"rosterly.org/internal/roster"
	"rosterly.org/internal/stream"
)

type generateRequest struct {
	Year    int  `json:"year"`
	Month   int  `json:"month"`
	Persist bool `json:"persist,omitempty"`
}

type generateResponse struct {
	Status    string       `json:"status"`
	Schedule  *roster.Grid `json:"schedule,omitempty"`
	Persisted bool         `json:"persisted"`
	AsOf      string       `json:"as_of"`
}

func (a *API) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	if !a.requirePermission(w, r, auth.PermRosterGenerate) {
		return
	}
	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Year < 1 || req.Month < 1 || req.Month > 12 {
		writeError(w, r, http.StatusBadRequest, "year and month are required")
		return
	}

	ctx := r.Context()
	members, err := a.directory.ListMembers(ctx)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "directory unavailable")
		return
	}

	grid, err := a.engine.GenerateMonth(ctx, req.Year, time.Month(req.Month), members)
	if err != nil {
		if errors.Is(err, roster.ErrNoMeetingDates) {
			writeJSON(w, http.StatusOK, generateResponse{
				Status: "no_meeting_dates",
				AsOf:   time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
		handleRosterError(w, r, err)
		return
	}

	persisted := false
	if req.Persist {
		if err := a.directory.ApplyHistoryDelta(ctx, grid.HistoryDelta); err != nil {
			handleRosterError(w, r, err)
			return
		}
		persisted = true
	}

	obs.ObserveGeneration(grid.UnassignedSlots, grid.Fallbacks)
	a.publishGrid(grid)
	_ = audit.LogEvent(ctx, "roster.generate", map[string]any{
		"year":             req.Year,
		"month":            req.Month,
		"unassigned_slots": grid.UnassignedSlots,
		"fallbacks":        grid.Fallbacks,
		"persisted":        persisted,
	})

	writeJSON(w, http.StatusOK, generateResponse{
		Status:    "generated",
		Schedule:  grid,
		Persisted: persisted,
		AsOf:      time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) publishGrid(grid *roster.Grid) {
	if a.stream == nil {
		return
	}
	now := time.Now().UTC()
	for _, date := range grid.Dates {
		for roleID, memberID := range grid.Days[date] {
			if memberID == roster.Unassigned {
				continue
			}
			name := ""
			if role, ok := a.engine.Catalog().Role(roleID); ok {
				name = role.Name
			}
			a.stream.Publish(stream.AssignmentEvent{
				Kind:      stream.KindAssigned,
				Date:      date,
				RoleID:    roleID,
				RoleName:  name,
				MemberID:  memberID,
				Timestamp: now,
			})
		}
	}
}

type substituteRequest struct {
	Date            string                       `json:"date"`
	RoleKey         string                       `json:"role_key"`
	Group           string                       `json:"group,omitempty"`
	CurrentHolderID string                       `json:"current_holder_id"`
	Days            map[string]map[string]string `json:"days,omitempty"`
}

func (req *substituteRequest) validate(w http.ResponseWriter, r *http.Request) bool {
	if req.Date == "" || req.RoleKey == "" {
		writeError(w, r, http.StatusBadRequest, "date and role_key are required")
		return false
	}
	return true
}

func (req *substituteRequest) grid() *roster.Grid {
	days := req.Days
	if days == nil {
		days = map[string]map[string]string{}
	}
	return &roster.Grid{Days: days}
}

func (a *API) handleAutomaticSubstitute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	if !a.requirePermission(w, r, auth.PermRosterSubstitute) {
		return
	}
	var req substituteRequest
	if !decodeJSON(w, r, &req) || !req.validate(w, r) {
		return
	}

	ctx := r.Context()
	members, err := a.directory.ListMembers(ctx)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "directory unavailable")
		return
	}

	substituteID, err := a.engine.FindAutomaticSubstitute(ctx, req.Date, req.RoleKey, req.Group, req.CurrentHolderID, members, req.grid())
	if err != nil {
		if errors.Is(err, roster.ErrNoSubstitute) {
			obs.ObserveSubstitution("automatic", "none")
		}
		handleRosterError(w, r, err)
		return
	}
	obs.ObserveSubstitution("automatic", "found")

	roleID := req.RoleKey
	roleName := ""
	if parsed, perr := time.Parse(roster.DateLayout, req.Date); perr == nil {
		roleID = a.engine.Catalog().ResolveRole(req.RoleKey, parsed, req.Group)
	}
	if role, ok := a.engine.Catalog().Role(roleID); ok {
		roleName = role.Name
	}
	if a.stream != nil {
		a.stream.Publish(stream.AssignmentEvent{
			Kind:      stream.KindSubstituted,
			Date:      req.Date,
			RoleID:    roleID,
			RoleName:  roleName,
			MemberID:  substituteID,
			Timestamp: time.Now().UTC(),
		})
	}
	_ = audit.LogEvent(ctx, "roster.substitute", map[string]any{
		"date":          req.Date,
		"role_id":       roleID,
		"replaced":      req.CurrentHolderID,
		"substitute_id": substituteID,
	})

	writeJSON(w, http.StatusOK, map[string]string{
		"role_id":       roleID,
		"substitute_id": substituteID,
	})
}

type memberSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type candidatesResponse struct {
	Candidates  []memberSummary     `json:"candidates"`
	Diagnostics []roster.Diagnostic `json:"diagnostics,omitempty"`
}

func (a *API) handleSubstituteCandidates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	if !a.requirePermission(w, r, auth.PermRosterSubstitute) {
		return
	}
	var req substituteRequest
	if !decodeJSON(w, r, &req) || !req.validate(w, r) {
		return
	}

	ctx := r.Context()
	members, err := a.directory.ListMembers(ctx)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "directory unavailable")
		return
	}

	candidates, diags, err := a.engine.ListSubstitutes(ctx, req.Date, req.RoleKey, req.Group, req.CurrentHolderID, members, req.grid())
	if err != nil {
		handleRosterError(w, r, err)
		return
	}

	resp := candidatesResponse{Candidates: make([]memberSummary, 0, len(candidates)), Diagnostics: diags}
	for _, m := range candidates {
		resp.Candidates = append(resp.Candidates, memberSummary{ID: m.ID, Name: m.Name})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleListRoles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	catalog := a.engine.Catalog()
	roles := catalog.Roles
	if mt := roster.MeetingType(r.URL.Query().Get("meeting")); mt != "" {
		switch mt {
		case roster.MeetingMidweek, roster.MeetingPublic:
			roles = catalog.RolesFor(mt)
		default:
			writeError(w, r, http.StatusBadRequest, "unknown meeting type")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (a *API) handleResolveRole(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	q := r.URL.Query()
	key := q.Get("key")
	if key == "" {
		writeError(w, r, http.StatusBadRequest, "key is required")
		return
	}
	date, err := time.Parse(roster.DateLayout, q.Get("date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	resolved := a.engine.Catalog().ResolveRole(key, date, q.Get("group"))
	writeJSON(w, http.StatusOK, map[string]string{
		"key":     key,
		"role_id": resolved,
	})
}
