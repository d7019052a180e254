package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"stationhq.org/internal/audit"
	"stationhq.org/internal/auth"
	"stationhq.org/internal/ids"
	"stationhq.org/internal/login"
	"stationhq.org/internal/obs"
	"stationhq.org/internal/origin"
	"stationhq.org/internal/session"
)

// ReadyProbe pings the backing database when one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the login orchestrator.
type API struct {
	mux        *http.ServeMux
	login      *login.Service
	readyProbe ReadyProbe
	version    string

	// fallbackOrigin keys guard state for requests without a usable
	// client address. Process-local on purpose.
	fallbackOrigin string
}

func New(svc *login.Service, rp ReadyProbe, version string) *API {
	a := &API{
		mux:            http.NewServeMux(),
		login:          svc,
		readyProbe:     rp,
		version:        version,
		fallbackOrigin: origin.Fallback(),
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	a.mux.HandleFunc("/v1/auth/login", a.Login)
	a.mux.HandleFunc("/v1/auth/logout", a.Logout)
	a.mux.HandleFunc("/v1/auth/session", a.Session)

	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 10, 5)
	h = SecurityHeaders(h)
	h = CORS(h)
	h = Logging(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "stationhq-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "stationhq-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Class    string `json:"class,omitempty"`
}

type loginResponse struct {
	Success      bool           `json:"success"`
	Message      string         `json:"message,omitempty"`
	AttemptsLeft *int           `json:"attempts_left,omitempty"`
	RetryAfterMS int64          `json:"retry_after_ms,omitempty"`
	Redirect     string         `json:"redirect,omitempty"`
	Token        string         `json:"token,omitempty"`
	ExpiresAt    *time.Time     `json:"expires_at,omitempty"`
	User         *principalView `json:"user,omitempty"`
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := audit.WithRequestID(r.Context(), ids.New())
	key := a.originKey(r)

	var result login.Result
	if req.Class != "" {
		class := auth.AccountClass(req.Class)
		if !class.Valid() {
			respondError(w, http.StatusBadRequest, "unknown account class")
			return
		}
		result = a.login.LoginAs(ctx, key, req.Username, req.Password, class)
	} else {
		result = a.login.Login(ctx, key, req.Username, req.Password)
	}

	writeLoginResult(w, result)
}

func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if _, ok := auth.PrincipalFromContext(r.Context()); !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err := a.login.Logout(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *API) Session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":     viewPrincipal(principal),
		"redirect": login.RouteFor(principal),
	})
}

func (a *API) originKey(r *http.Request) string {
	if key := origin.KeyFromRequest(r); key != "" {
		return key
	}
	return a.fallbackOrigin
}

func writeLoginResult(w http.ResponseWriter, result login.Result) {
	resp := loginResponse{
		Success:  result.Success,
		Message:  result.Message,
		Redirect: result.Redirect,
	}

	switch {
	case result.Success:
		rec := result.Session
		token, err := auth.GenerateToken(*result.Principal, session.TTL)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "token issuance failed")
			return
		}
		resp.Token = token
		resp.ExpiresAt = &rec.ExpiresAt
		view := viewPrincipal(*result.Principal)
		resp.User = &view
		writeJSON(w, http.StatusOK, resp)
	case result.SystemError:
		writeJSON(w, http.StatusServiceUnavailable, resp)
	case result.RetryAfter > 0:
		resp.RetryAfterMS = result.RetryAfter.Milliseconds()
		writeJSON(w, http.StatusLocked, resp)
	default:
		left := result.AttemptsLeft
		resp.AttemptsLeft = &left
		writeJSON(w, http.StatusUnauthorized, resp)
	}
}

// principalView is the wire shape of an authenticated user.
type principalView struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name,omitempty"`
	Class       string   `json:"class"`
	Role        string   `json:"role"`
	IsAdmin     bool     `json:"is_admin"`
	Permissions []string `json:"permissions"`
}

func viewPrincipal(p auth.Principal) principalView {
	perms := make([]string, 0, len(p.Permissions))
	for k := range p.Permissions {
		perms = append(perms, k)
	}
	sort.Strings(perms)
	return principalView{
		ID:          p.ID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		Class:       string(p.Class),
		Role:        p.Role,
		IsAdmin:     p.IsAdmin,
		Permissions: perms,
	}
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}
