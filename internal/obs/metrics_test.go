package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                            "/",
		"/metrics":                    "/metrics",
		"/v1/members/abc":             "/v1/members/:id",
		"/v1/members/abc/extra":       "/v1/members/abc/extra",
		"/v1/rosters/generate":        "/v1/rosters/generate",
		"/v1/roles/resolve?key=x":     "/v1/roles/resolve",
		"/v1/substitutions/automatic": "/v1/substitutions/automatic",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
