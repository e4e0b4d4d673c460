package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rosterly.org/internal/roster"
)

func postJSON(t *testing.T, api *API, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	return rec
}

func TestGenerateRoster(t *testing.T) {
	api := newTestAPI(t)
	rec := postJSON(t, api, "/v1/rosters/generate", `{"year":2026,"month":8}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp generateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "generated" {
		t.Fatalf("status = %q, want generated", resp.Status)
	}
	if resp.Schedule == nil {
		t.Fatal("schedule missing")
	}
	// August 2026 has four Thursdays and five Sundays.
	if got := len(resp.Schedule.Dates); got != 9 {
		t.Fatalf("dates = %d, want 9", got)
	}
	if resp.Persisted {
		t.Fatal("persisted should be false without the persist flag")
	}
	// Only Alice holds the chairman permission.
	if got := resp.Schedule.Days["2026-08-06"]["chairman-thu"]; got != "m1" {
		t.Fatalf("chairman on 2026-08-06 = %q, want m1", got)
	}
}

func TestGeneratePersistsHistory(t *testing.T) {
	api := newTestAPI(t)
	rec := postJSON(t, api, "/v1/rosters/generate", `{"year":2026,"month":8,"persist":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp generateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Persisted {
		t.Fatal("persisted = false, want true")
	}
	m, err := api.directory.GetMember(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if len(m.History) == 0 {
		t.Fatal("history delta was not applied to the directory")
	}
}

func TestGenerateRejectsBadMonth(t *testing.T) {
	api := newTestAPI(t)
	rec := postJSON(t, api, "/v1/rosters/generate", `{"year":2026,"month":13}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGenerateRejectsMalformedBody(t *testing.T) {
	api := newTestAPI(t)
	rec := postJSON(t, api, "/v1/rosters/generate", `{"year":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAutomaticSubstituteExcludesHolder(t *testing.T) {
	api := newTestAPI(t)
	body := `{
		"date": "2026-08-06",
		"role_key": "usher-outside",
		"group": "ushers",
		"current_holder_id": "m2",
		"days": {"2026-08-06": {"usher-outside-thu": "m2"}}
	}`
	rec := postJSON(t, api, "/v1/substitutions/automatic", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["role_id"] != "usher-outside-thu" {
		t.Fatalf("role_id = %q, want usher-outside-thu", resp["role_id"])
	}
	if got := resp["substitute_id"]; got == "m2" || got == "" {
		t.Fatalf("substitute_id = %q, want a member other than the holder", got)
	}
}

func TestAutomaticSubstituteNoneEligible(t *testing.T) {
	api := newTestAPI(t)
	// Only Alice may chair; with her as holder nobody else qualifies.
	body := `{
		"date": "2026-08-06",
		"role_key": "chairman-thu",
		"current_holder_id": "m1",
		"days": {"2026-08-06": {"chairman-thu": "m1"}}
	}`
	rec := postJSON(t, api, "/v1/substitutions/automatic", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409, body = %s", rec.Code, rec.Body.String())
	}
}

func TestAutomaticSubstituteUnknownRole(t *testing.T) {
	api := newTestAPI(t)
	body := `{"date":"2026-08-06","role_key":"no-such-role","current_holder_id":"m1"}`
	rec := postJSON(t, api, "/v1/substitutions/automatic", body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAutomaticSubstituteBadDate(t *testing.T) {
	api := newTestAPI(t)
	body := `{"date":"06.08.2026","role_key":"mic-1","current_holder_id":"m1"}`
	rec := postJSON(t, api, "/v1/substitutions/automatic", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSubstituteCandidatesSortedByName(t *testing.T) {
	api := newTestAPI(t)
	body := `{
		"date": "2026-08-06",
		"role_key": "mic-1",
		"current_holder_id": "m3",
		"days": {"2026-08-06": {"mic-1": "m3"}}
	}`
	rec := postJSON(t, api, "/v1/substitutions/candidates", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp candidatesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(resp.Candidates))
	}
	if resp.Candidates[0].Name != "Alice" || resp.Candidates[1].Name != "Bob" {
		t.Fatalf("candidate order = %v", resp.Candidates)
	}
	if len(resp.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", resp.Diagnostics)
	}
}

func TestSubstituteCandidatesDiagnostics(t *testing.T) {
	api := newTestAPI(t)
	// Nobody besides the holder has the chairman permission, so the
	// response explains each rejection instead of listing candidates.
	body := `{
		"date": "2026-08-06",
		"role_key": "chairman-thu",
		"current_holder_id": "m1",
		"days": {"2026-08-06": {"chairman-thu": "m1"}}
	}`
	rec := postJSON(t, api, "/v1/substitutions/candidates", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp candidatesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Candidates) != 0 {
		t.Fatalf("candidates = %v, want none", resp.Candidates)
	}
	if len(resp.Diagnostics) != 2 {
		t.Fatalf("diagnostics = %d, want 2", len(resp.Diagnostics))
	}
	for _, diag := range resp.Diagnostics {
		if len(diag.Reasons) == 0 {
			t.Fatalf("diagnostic for %s has no reasons", diag.MemberID)
		}
		if diag.Reasons[0].Code != roster.ReasonMissingPermission {
			t.Fatalf("reason = %q, want %q", diag.Reasons[0].Code, roster.ReasonMissingPermission)
		}
	}
}

func TestListRoles(t *testing.T) {
	api := newTestAPI(t)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/roles", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Roles []roster.Role `json:"roles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Roles) != 4 {
		t.Fatalf("roles = %d, want 4", len(resp.Roles))
	}
}

func TestListRolesFilteredByMeeting(t *testing.T) {
	api := newTestAPI(t)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/roles?meeting=public", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Roles []roster.Role `json:"roles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, role := range resp.Roles {
		if !role.AppliesTo(roster.MeetingPublic) {
			t.Fatalf("role %s does not apply to public meetings", role.ID)
		}
	}
}

func TestResolveRoleEndpoint(t *testing.T) {
	api := newTestAPI(t)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/v1/roles/resolve?key=usher-outside&date=2026-08-09&group=ushers", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["role_id"] != "usher-outside-sun" {
		t.Fatalf("role_id = %q, want usher-outside-sun", resp["role_id"])
	}
}

func TestResolveRoleRejectsBadDate(t *testing.T) {
	api := newTestAPI(t)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/v1/roles/resolve?key=mic-1&date=not-a-date", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
