package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"rosterly.org/internal/auth"
	"rosterly.org/internal/directory"
	"rosterly.org/internal/obs"
	"rosterly.org/internal/roster"
	"rosterly.org/internal/stream"
)

// ReadyProbe reports whether downstream dependencies accept traffic.
type ReadyProbe func() bool

// Options carries the wiring for the HTTP surface.
type Options struct {
	Ready     ReadyProbe
	Version   string
	Engine    *roster.Engine
	Directory directory.Service
	Stream    *stream.Stream
	Auth      *auth.Service
}

// API exposes scheduling operations over HTTP.
type API struct {
	mux       *http.ServeMux
	ready     ReadyProbe
	version   string
	engine    *roster.Engine
	directory directory.Service
	stream    *stream.Stream
	auth      *auth.Service
}

func New(opts Options) *API {
	a := &API{
		mux:       http.NewServeMux(),
		ready:     opts.Ready,
		version:   opts.Version,
		engine:    opts.Engine,
		directory: opts.Directory,
		stream:    opts.Stream,
		auth:      opts.Auth,
	}
	a.routes()
	return a
}

func (a *API) routes() {
	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.HandleFunc("/readyz", a.handleReadyz)
	a.mux.HandleFunc("/v1/info", a.handleInfo)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/members", a.handleListMembers)
	a.mux.HandleFunc("/v1/members/", a.handleGetMember)
	a.mux.HandleFunc("/v1/roles", a.handleListRoles)
	a.mux.HandleFunc("/v1/roles/resolve", a.handleResolveRole)
	a.mux.HandleFunc("/v1/rosters/generate", a.handleGenerate)
	a.mux.HandleFunc("/v1/rosters/stream", a.handleStream)
	a.mux.HandleFunc("/v1/substitutions/automatic", a.handleAutomaticSubstitute)
	a.mux.HandleFunc("/v1/substitutions/candidates", a.handleSubstituteCandidates)
	a.mux.HandleFunc("/v1/auth/token", a.handleIssueToken)
}

// Handler wraps the mux with the shared middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 50, 25)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	ready := a.ready == nil || a.ready()
	obs.SetReady(ready)
	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "rosterly-api",
		"version": a.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	body := map[string]string{"error": msg}
	if id := RequestIDFromContext(r.Context()); id != "" {
		body["request_id"] = id
	}
	writeJSON(w, status, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodGet+", "+http.MethodPost)
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

// handleRosterError maps engine sentinels to HTTP statuses.
func handleRosterError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, roster.ErrInvalidMonth),
		errors.Is(err, roster.ErrInvalidDate):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, roster.ErrUnknownRole),
		errors.Is(err, directory.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, roster.ErrNoSubstitute):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
