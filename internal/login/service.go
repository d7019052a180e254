// Package login sequences admission control, credential verification, and
// session issuance for one login attempt.
package login

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stationhq.org/internal/audit"
	"stationhq.org/internal/auth"
	"stationhq.org/internal/guard"
	"stationhq.org/internal/obs"
	"stationhq.org/internal/session"
)

// User-facing messages. Credential failure modes collapse into one generic
// message on purpose: which mode occurred is never disclosed.
const (
	msgMissingFields = "Please enter both username and password."
	msgSystemError   = "System error. Please try again."
	msgTempLocked    = "Too many attempts. Account locked for 30 seconds."
	msgBruteForced   = "Multiple lockouts detected. Login blocked for 10 minute(s)."
)

// Result is the outcome of a login attempt. Every path resolves to a
// Message suitable for a dismissible notice; nothing is fatal.
type Result struct {
	Success      bool
	Principal    *auth.Principal
	Session      *session.Record
	Message      string
	AttemptsLeft int
	Verdict      guard.Verdict
	RetryAfter   time.Duration
	Redirect     string
	SystemError  bool
}

// Service is the login orchestrator.
type Service struct {
	verifier *auth.Verifier
	guard    *guard.Keeper
	sessions *session.Manager
	now      func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService wires the orchestrator.
func NewService(verifier *auth.Verifier, keeper *guard.Keeper, sessions *session.Manager, opts ...Option) *Service {
	s := &Service{
		verifier: verifier,
		guard:    keeper,
		sessions: sessions,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login attempts every account class in the fixed priority order, stopping
// at the first one that accepts the credentials.
func (s *Service) Login(ctx context.Context, originKey, username, password string) Result {
	return s.run(ctx, originKey, username, password, auth.LoginPriority[:])
}

// LoginAs attempts a single requested class. The effective class may still
// differ after reclassification.
func (s *Service) LoginAs(ctx context.Context, originKey, username, password string, class auth.AccountClass) Result {
	if !class.Valid() {
		return Result{Message: msgSystemError, SystemError: true}
	}
	return s.run(ctx, originKey, username, password, []auth.AccountClass{class})
}

// ActiveSession resolves the currently active session, if any.
func (s *Service) ActiveSession(ctx context.Context) (*session.Record, error) {
	return s.sessions.ResolveActive(ctx)
}

// Logout discards all session slots. Guard state is untouched.
func (s *Service) Logout(ctx context.Context) error {
	_ = audit.LogEvent(ctx, "auth.logout", nil)
	return s.sessions.Clear(ctx)
}

func (s *Service) run(ctx context.Context, originKey, username, password string, classes []auth.AccountClass) Result {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return Result{Message: msgMissingFields, AttemptsLeft: guard.MaxAttempts}
	}

	now := s.now().UTC()
	state := s.guard.Load(ctx, originKey)
	if expired, changed := guard.Expire(state, now); changed {
		state = expired
		s.guard.Save(ctx, state)
	}

	if d := guard.CheckAdmission(state, now); !d.Allowed() {
		obs.ObserveLogin("blocked")
		_ = audit.LogEvent(ctx, "auth.login.blocked", map[string]any{
			"origin":       originKey,
			"verdict":      int(d.Verdict),
			"remaining_ms": d.Remaining.Milliseconds(),
		})
		return blockedResult(d)
	}

	principal, sawCredentialFailure, verifyErr := s.tryClasses(ctx, username, password, classes)
	if principal != nil {
		return s.succeed(ctx, originKey, state, *principal, now)
	}

	if !sawCredentialFailure && verifyErr != nil {
		// Every class failed on the backing store, not on the credentials.
		// Surfaced as a retry prompt without touching the failure counter.
		obs.ObserveLogin("system_error")
		_ = audit.LogEvent(ctx, "auth.login.error", map[string]any{
			"origin": originKey,
			"error":  verifyErr.Error(),
		})
		return Result{Message: msgSystemError, SystemError: true}
	}

	return s.fail(ctx, originKey, state, now)
}

func (s *Service) tryClasses(ctx context.Context, username, password string, classes []auth.AccountClass) (*auth.Principal, bool, error) {
	var (
		sawCredentialFailure bool
		lastErr              error
	)
	for _, class := range classes {
		p, err := s.verifier.Verify(ctx, class, username, password)
		if err == nil {
			return &p, sawCredentialFailure, nil
		}
		if auth.IsCredentialFailure(err) {
			sawCredentialFailure = true
			continue
		}
		lastErr = err
	}
	return nil, sawCredentialFailure, lastErr
}

func (s *Service) succeed(ctx context.Context, originKey string, state guard.State, principal auth.Principal, now time.Time) Result {
	rec := s.sessions.Issue(principal)
	if err := s.sessions.Activate(ctx, rec); err != nil {
		obs.ObserveLogin("system_error")
		_ = audit.LogEvent(ctx, "auth.login.error", map[string]any{
			"origin": originKey,
			"error":  err.Error(),
		})
		return Result{Message: msgSystemError, SystemError: true}
	}

	state = guard.RecordSuccess(state)
	state.LastAttempt = now
	s.guard.Save(ctx, state)

	obs.ObserveLogin("success")
	_ = audit.LogEvent(ctx, "auth.login.success", map[string]any{
		"origin":  originKey,
		"user_id": principal.ID,
		"class":   string(principal.Class),
		"role":    principal.Role,
	})

	return Result{
		Success:   true,
		Principal: &principal,
		Session:   &rec,
		Redirect:  RouteFor(principal),
	}
}

func (s *Service) fail(ctx context.Context, originKey string, state guard.State, now time.Time) Result {
	// Attempts remaining is computed from the pre-failure counter.
	attemptsLeft := guard.MaxAttempts - (state.FailedAttempts + 1)
	if attemptsLeft < 0 {
		attemptsLeft = 0
	}

	state, event := guard.RecordFailure(state, now)
	s.guard.Save(ctx, state)

	obs.ObserveLogin("failure")
	_ = audit.LogEvent(ctx, "auth.login.failure", map[string]any{
		"origin":        originKey,
		"attempts_left": attemptsLeft,
		"escalation":    int(event),
	})

	res := Result{AttemptsLeft: attemptsLeft}
	switch event {
	case guard.EventBruteForce:
		obs.ObserveBruteForceBlock()
		res.Message = msgBruteForced
		res.Verdict = guard.BlockedBruteForce
		res.RetryAfter = guard.BruteForceDuration
	case guard.EventTempLock:
		obs.ObserveTempLockout()
		res.Message = msgTempLocked
		res.Verdict = guard.BlockedTemp
		res.RetryAfter = guard.TempLockDuration
	default:
		res.Message = fmt.Sprintf("Invalid username or password. Attempts left: %d", attemptsLeft)
	}
	return res
}

func blockedResult(d guard.Decision) Result {
	res := Result{
		Verdict:    d.Verdict,
		RetryAfter: d.Remaining,
	}
	switch d.Verdict {
	case guard.BlockedBruteForce:
		res.Message = fmt.Sprintf("Login is blocked. Please wait %s before trying again.", FormatRemaining(d.Remaining))
	default:
		seconds := int64(d.Remaining.Seconds())
		if d.Remaining > time.Duration(seconds)*time.Second {
			seconds++
		}
		res.Message = fmt.Sprintf("Too many failed attempts. Please wait %d seconds before retrying.", seconds)
	}
	return res
}

// FormatRemaining renders a remaining duration as mm:ss, rounding up to the
// next whole second. Display only; the stored timestamp stays the source of
// truth.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Seconds())
	if d > time.Duration(total)*time.Second {
		total++
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// RouteFor returns the dashboard path for the principal's effective class
// and role. Consumed by the outer routing layer.
func RouteFor(p auth.Principal) string {
	switch p.Class {
	case auth.ClassRecruitment, auth.ClassRecruitmentPersonnel:
		return "/recruitment-dashboard"
	case auth.ClassAdmin:
		switch p.Role {
		case auth.RoleInspector:
			return "/InspectorDashboard"
		case auth.RoleEmployee:
			return "/employee"
		default:
			return "/admin"
		}
	case auth.ClassPersonnel:
		if p.IsAdmin {
			return "/admin"
		}
		return "/employee"
	default:
		return "/"
	}
}
