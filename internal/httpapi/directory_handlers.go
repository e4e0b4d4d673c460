package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"rosterly.org/internal/auth"
	"rosterly.org/internal/directory"
)

func (a *API) handleListMembers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	if !a.requirePermission(w, r, auth.PermDirectoryRead) {
		return
	}
	members, err := a.directory.ListMembers(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "directory unavailable")
		return
	}
	summaries := make([]memberSummary, 0, len(members))
	for _, m := range members {
		summaries = append(summaries, memberSummary{ID: m.ID, Name: m.Name})
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": summaries})
}

func (a *API) handleGetMember(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	if !a.requirePermission(w, r, auth.PermDirectoryRead) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/members/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "member not found")
		return
	}
	member, err := a.directory.GetMember(r.Context(), id)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "member not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "directory unavailable")
		return
	}
	writeJSON(w, http.StatusOK, member)
}
