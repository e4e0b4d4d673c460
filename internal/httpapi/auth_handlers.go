package httpapi

import (
	"net/http"
	"time"

	"rosterly.org/internal/audit"
)

type tokenRequest struct {
	User  string   `json:"user"`
	Roles []string `json:"roles"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// handleIssueToken mints short-lived development tokens. It is disabled
// unless dev tokens are explicitly enabled at startup.
func (a *API) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	if a.auth == nil || !a.auth.SupportsTokens() {
		writeError(w, r, http.StatusServiceUnavailable, "token signing is not configured")
		return
	}
	if !a.auth.AllowsDevTokens() {
		writeError(w, r, http.StatusForbidden, "dev token issuance is disabled")
		return
	}
	var req tokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.User == "" || len(req.Roles) == 0 {
		writeError(w, r, http.StatusBadRequest, "user and roles are required")
		return
	}
	token, expiresAt, err := a.auth.IssueToken(req.User, req.Roles)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token issuance failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.token.issued", map[string]any{
		"user":  req.User,
		"roles": req.Roles,
	})
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}
