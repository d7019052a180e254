package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stationhq.org/internal/auth"
	"stationhq.org/internal/guard"
	"stationhq.org/internal/login"
	"stationhq.org/internal/session"
)

// apiStore is a minimal in-memory credential backend for handler tests.
type apiStore struct {
	admins map[string]*auth.AdminAccount
	outage bool
}

func (s *apiStore) Admins(context.Context) auth.AdminStore { return apiAdmins{s} }
func (s *apiStore) Personnel(context.Context) auth.PersonnelStore {
	return apiNoPersonnel{outage: &s.outage}
}
func (s *apiStore) Recruitment(context.Context) auth.RecruitmentStore {
	return apiNoRecruitment{outage: &s.outage}
}

type apiAdmins struct{ s *apiStore }

func (a apiAdmins) FindByUsername(_ context.Context, u string) (*auth.AdminAccount, error) {
	if a.s.outage {
		return nil, errors.New("connection refused")
	}
	if acct, ok := a.s.admins[u]; ok {
		return acct, nil
	}
	return nil, auth.ErrNotFound
}

func (a apiAdmins) TouchLastLogin(context.Context, string, time.Time) error { return nil }

type apiNoPersonnel struct{ outage *bool }

func (e apiNoPersonnel) FindByUsername(context.Context, string) (*auth.PersonnelAccount, error) {
	if *e.outage {
		return nil, errors.New("connection refused")
	}
	return nil, auth.ErrNotFound
}

func (e apiNoPersonnel) TouchLastLogin(context.Context, string, time.Time) error { return nil }

type apiNoRecruitment struct{ outage *bool }

func (e apiNoRecruitment) FindByUsername(context.Context, string) (*auth.RecruitmentAccount, error) {
	if *e.outage {
		return nil, errors.New("connection refused")
	}
	return nil, auth.ErrNotFound
}

func (e apiNoRecruitment) TouchLastLogin(context.Context, string, time.Time) error { return nil }

func newTestAPI(t *testing.T) (*API, *apiStore) {
	t.Helper()
	t.Setenv("STATIONHQ_AUTH_SECRET", "handler-test-secret")
	auth.ResetSecretForTests()
	t.Cleanup(auth.ResetSecretForTests)

	store := &apiStore{admins: map[string]*auth.AdminAccount{
		"root": {ID: "a1", Username: "root", Password: "pw", Role: auth.RoleAdmin, IsActive: true},
	}}
	svc := login.NewService(
		auth.NewVerifier(store),
		guard.NewKeeper(guard.NewMemory()),
		session.NewManager(session.NewMemory()),
	)
	return New(svc, ReadyProbe{}, "test"), store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "203.0.113.50:4000"
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndInfo(t *testing.T) {
	api, _ := newTestAPI(t)
	h := api.Handler()

	rr := doJSON(t, h, http.MethodGet, "/healthz", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz status %d", rr.Code)
	}
	var health map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode healthz: %v", err)
	}
	if health["service"] != "stationhq-api" || health["version"] != "test" {
		t.Fatalf("unexpected healthz body: %v", health)
	}

	rr = doJSON(t, h, http.MethodGet, "/v1/info", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("info status %d", rr.Code)
	}
}

func TestReadyWithoutDB(t *testing.T) {
	api, _ := newTestAPI(t)
	rr := doJSON(t, api.Handler(), http.MethodGet, "/readyz", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz status %d: %s", rr.Code, rr.Body.String())
	}
}

func TestLoginSuccessIssuesToken(t *testing.T) {
	api, _ := newTestAPI(t)
	rr := doJSON(t, api.Handler(), http.MethodPost, "/v1/auth/login",
		map[string]string{"username": "root", "password": "pw"}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Success   bool       `json:"success"`
		Token     string     `json:"token"`
		Redirect  string     `json:"redirect"`
		ExpiresAt *time.Time `json:"expires_at"`
		User      *struct {
			ID          string   `json:"id"`
			Class       string   `json:"class"`
			Permissions []string `json:"permissions"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Token == "" || resp.ExpiresAt == nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Redirect != "/admin" {
		t.Fatalf("unexpected redirect %q", resp.Redirect)
	}
	if resp.User == nil || resp.User.ID != "a1" || resp.User.Class != "admin" {
		t.Fatalf("unexpected user: %+v", resp.User)
	}
	if len(resp.User.Permissions) == 0 {
		t.Fatalf("expected permissions in the view")
	}

	claims, err := auth.ParseAndValidate(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.Subject != "a1" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
}

func TestLoginFailureReturnsAttemptsLeft(t *testing.T) {
	api, _ := newTestAPI(t)
	h := api.Handler()

	rr := doJSON(t, h, http.MethodPost, "/v1/auth/login",
		map[string]string{"username": "root", "password": "wrong"}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Success      bool   `json:"success"`
		Message      string `json:"message"`
		AttemptsLeft *int   `json:"attempts_left"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || resp.AttemptsLeft == nil || *resp.AttemptsLeft != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestLoginLockoutReturnsLockedStatus(t *testing.T) {
	api, _ := newTestAPI(t)
	h := api.Handler()

	body := map[string]string{"username": "root", "password": "wrong"}
	var rr *httptest.ResponseRecorder
	for i := 0; i < guard.MaxAttempts; i++ {
		rr = doJSON(t, h, http.MethodPost, "/v1/auth/login", body, nil)
	}
	if rr.Code != http.StatusLocked {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		RetryAfterMS int64 `json:"retry_after_ms"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RetryAfterMS != guard.TempLockDuration.Milliseconds() {
		t.Fatalf("unexpected retry_after_ms %d", resp.RetryAfterMS)
	}
}

func TestLoginSystemErrorReturns503(t *testing.T) {
	api, store := newTestAPI(t)
	store.outage = true
	rr := doJSON(t, api.Handler(), http.MethodPost, "/v1/auth/login",
		map[string]string{"username": "root", "password": "pw"}, nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
}

func TestLoginRejectsBadInput(t *testing.T) {
	api, _ := newTestAPI(t)
	h := api.Handler()

	rr := doJSON(t, h, http.MethodGet, "/v1/auth/login", nil, nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewBufferString("{"))
	req.RemoteAddr = "203.0.113.50:4000"
	rr2 := httptest.NewRecorder()
	h.ServeHTTP(rr2, req)
	if rr2.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status %d", rr2.Code)
	}

	rr = doJSON(t, h, http.MethodPost, "/v1/auth/login",
		map[string]string{"username": "root", "password": "pw", "class": "superuser"}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown class status %d", rr.Code)
	}
}

func TestSessionAndLogoutFlow(t *testing.T) {
	api, _ := newTestAPI(t)
	h := api.Handler()

	rr := doJSON(t, h, http.MethodPost, "/v1/auth/login",
		map[string]string{"username": "root", "password": "pw", "class": "admin"}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", rr.Code, rr.Body.String())
	}
	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	authz := map[string]string{"Authorization": "Bearer " + loginResp.Token}

	rr = doJSON(t, h, http.MethodGet, "/v1/auth/session", nil, authz)
	if rr.Code != http.StatusOK {
		t.Fatalf("session status %d: %s", rr.Code, rr.Body.String())
	}
	var sessResp struct {
		Redirect string `json:"redirect"`
		User     struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &sessResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sessResp.User.Username != "root" || sessResp.Redirect != "/admin" {
		t.Fatalf("unexpected session body: %+v", sessResp)
	}

	rr = doJSON(t, h, http.MethodPost, "/v1/auth/logout", nil, authz)
	if rr.Code != http.StatusOK {
		t.Fatalf("logout status %d: %s", rr.Code, rr.Body.String())
	}

	// The token outlives the session record but no longer authenticates.
	rr = doJSON(t, h, http.MethodGet, "/v1/auth/session", nil, authz)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("post-logout session status %d", rr.Code)
	}
}

func TestUnknownRouteRequiresAuth(t *testing.T) {
	api, _ := newTestAPI(t)
	// Everything outside the public allowlist sits behind authentication,
	// including paths with no handler.
	rr := doJSON(t, api.Handler(), http.MethodGet, "/nope", nil, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status %d", rr.Code)
	}
}
