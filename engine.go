package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/krishshahi/homeaze-auth/identity"
	"github.com/krishshahi/homeaze-auth/lockout"
	"github.com/krishshahi/homeaze-auth/mfa"
	"github.com/krishshahi/homeaze-auth/oauth"
	"github.com/krishshahi/homeaze-auth/password"
	"github.com/krishshahi/homeaze-auth/redistore"
	"github.com/krishshahi/homeaze-auth/session"
	"github.com/krishshahi/homeaze-auth/token"
)

// Engine defines a public type used by auth APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config    Config
	store     identity.Store
	sessions  *session.Manager
	lockout   lockout.Policy
	policy    password.Policy
	mfa       *mfa.Engine
	hasher    password.Hasher
	tokens    *token.Manager
	notify    *notifyDispatcher
	metrics   *Metrics
	providers map[string]oauth.Provider
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.notify != nil {
		e.notify.Close()
	}
}

// NotificationsDropped describes the notificationsdropped operation and its observable behavior.
//
// NotificationsDropped may return an error when input validation, dependency calls, or security checks fail.
// NotificationsDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) NotificationsDropped() uint64 {
	if e == nil || e.notify == nil {
		return 0
	}
	return e.notify.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emit(ctx context.Context, kind NotificationKind, ident *identity.Identity, sessionID string, metadata map[string]string) {
	if e == nil || e.notify == nil {
		return
	}

	n := Notification{
		Timestamp: time.Now(),
		Kind:      kind,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Metadata:  metadata,
	}
	if ident != nil {
		n.IdentityID = ident.ID
		n.Email = ident.Email
	}
	e.notify.Emit(ctx, n)
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	if e == nil || e.hasher == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	now := time.Now()
	email = strings.ToLower(strings.TrimSpace(email))

	ident, err := e.store.LoadByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			e.metricInc(MetricLoginFailure)
			return nil, ErrInvalidCredentials
		}
		return nil, mapStoreError(err)
	}

	// Lockout gate runs before any hashing work.
	if e.lockout.Locked(ident.Lockout, now) {
		e.metricInc(MetricLoginLocked)
		return nil, lockedError(e.lockout.Remaining(ident.Lockout, now))
	}

	ok, verr := e.hasher.Verify(pass, ident.CredentialHash)
	if verr != nil || !ok {
		return nil, e.recordAuthFailure(ctx, ident.ID, ErrInvalidCredentials, MetricLoginFailure)
	}

	if statusErr := statusToError(ident.Status); statusErr != nil {
		e.metricInc(MetricLoginFailure)
		return nil, statusErr
	}

	// Transparent work-factor upgrade when the stored hash predates the
	// current argon2 parameters.
	rehash := ""
	if upgrade, rerr := e.hasher.NeedsRehash(ident.CredentialHash); rerr == nil && upgrade {
		if h, herr := e.hasher.Hash(pass); herr == nil {
			rehash = h
		}
	}

	return e.establishSession(ctx, ident.ID, now, rehash)
}

// establishSession mints a session for a verified principal, folds it
// into the bounded per-identity list, runs the suspicious activity
// heuristic, and hands back either a token pair or an MFA challenge.
func (e *Engine) establishSession(ctx context.Context, identityID string, now time.Time, rehash string) (*LoginResult, error) {
	device := deviceFromContext(ctx)

	sess, err := e.sessions.New(device, now)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, err
	}

	var report session.ActivityReport
	var evicted bool

	updated, err := e.updateIdentity(ctx, identityID, func(doc *identity.Identity) error {
		report = session.Analyze(doc.Sessions, device, now)
		before := len(doc.Sessions)
		doc.Lockout = e.lockout.RecordSuccess(doc.Lockout)
		doc.Sessions = e.sessions.InsertBounded(doc.Sessions, sess)
		evicted = len(doc.Sessions) == before
		doc.LastLoginAt = &now
		if rehash != "" {
			doc.CredentialHash = rehash
		}
		return nil
	})
	if err != nil {
		e.metricInc(MetricLoginFailure)
		return nil, mapStoreError(err)
	}

	e.metricInc(MetricSessionCreated)
	if evicted {
		e.metricInc(MetricSessionEvicted)
	}
	if report.IsSuspicious {
		e.metricInc(MetricSuspiciousActivity)
		e.emit(ctx, NotifySuspiciousActivity, updated, sess.ID, map[string]string{
			"risk_level": report.RiskLevel,
			"reasons":    strings.Join(report.Reasons, ","),
		})
	}

	result := &LoginResult{
		IdentityID: updated.ID,
		SessionID:  sess.ID,
		Activity:   report,
	}

	if updated.MFA.Enabled {
		pending, err := e.tokens.IssuePendingMFA(updated.ID, sess.ID)
		if err != nil {
			return nil, err
		}
		result.Status = LoginMFARequired
		result.PendingToken = pending
		e.metricInc(MetricMFAChallengeIssued)
		return result, nil
	}

	pair, err := e.issueTokenPair(updated.ID, sess.ID, updated.Role)
	if err != nil {
		return nil, err
	}
	result.Status = LoginAuthenticated
	result.AccessToken = pair.AccessToken
	result.RefreshToken = pair.RefreshToken

	e.metricInc(MetricLoginSuccess)
	e.emit(ctx, NotifyNewLogin, updated, sess.ID, nil)

	return result, nil
}

// recordAuthFailure advances the lockout counter for a failed credential
// or MFA proof and reports the caller-facing error. When the failure
// trips a lock the account-locked alert fires and ErrAccountLocked is
// returned instead of reject.
func (e *Engine) recordAuthFailure(ctx context.Context, identityID string, reject error, failMetric MetricID) error {
	var lockedNow bool
	var until time.Time

	updated, err := e.updateIdentity(ctx, identityID, func(doc *identity.Identity) error {
		next, locked := e.lockout.RecordFailure(doc.Lockout, time.Now())
		doc.Lockout = next
		lockedNow = locked
		if next.LockedUntil != nil {
			until = *next.LockedUntil
		}
		return nil
	})
	if err != nil {
		return mapStoreError(err)
	}

	if lockedNow {
		e.metricInc(MetricLockoutTriggered)
		e.emit(ctx, NotifyAccountLocked, updated, "", map[string]string{
			"locked_until": until.Format(time.RFC3339),
		})
		return lockedError(time.Until(until))
	}

	e.metricInc(failMetric)
	return rejectedError(reject, e.lockout.RemainingAttempts(updated.Lockout))
}

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.ParseKind(refreshToken, token.KindRefresh)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, mapTokenError(err)
	}

	now := time.Now()

	ident, err := e.store.Load(ctx, claims.IdentityID())
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, mapStoreError(err)
	}

	if statusErr := statusToError(ident.Status); statusErr != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, statusErr
	}

	if !session.Validate(ident.Sessions, claims.SessionID, now) {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrSessionInvalid
	}

	updated, err := e.updateIdentity(ctx, ident.ID, func(doc *identity.Identity) error {
		return session.Touch(doc.Sessions, claims.SessionID, now)
	})
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
			return nil, ErrSessionInvalid
		}
		return nil, mapStoreError(err)
	}

	pair, err := e.issueTokenPair(updated.ID, claims.SessionID, updated.Role)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	return pair, nil
}

// AuthenticateRequest describes the authenticaterequest operation and its observable behavior.
//
// AuthenticateRequest may return an error when input validation, dependency calls, or security checks fail.
// AuthenticateRequest does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuthenticateRequest(ctx context.Context, accessToken string) (*AuthResult, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}

	claims, err := e.tokens.Parse(accessToken)
	if err != nil {
		return nil, mapTokenError(err)
	}
	switch claims.Kind {
	case token.KindAccess:
	case token.KindPendingMFA:
		// Pending tokens authorize MFA verification only, never requests.
		return nil, ErrMFARequired
	default:
		return nil, ErrTokenInvalid
	}

	now := time.Now()

	ident, err := e.store.Load(ctx, claims.IdentityID())
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, mapStoreError(err)
	}

	if statusErr := statusToError(ident.Status); statusErr != nil {
		return nil, statusErr
	}

	if !session.Validate(ident.Sessions, claims.SessionID, now) {
		return nil, ErrSessionInvalid
	}

	// Activity bump is best-effort; a lost race must not fail the request.
	if _, err := e.updateIdentity(ctx, ident.ID, func(doc *identity.Identity) error {
		return session.Touch(doc.Sessions, claims.SessionID, now)
	}); err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
			return nil, ErrSessionInvalid
		}
	}

	return &AuthResult{
		IdentityID: ident.ID,
		SessionID:  claims.SessionID,
		Role:       ident.Role,
	}, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Logout(ctx context.Context, identityID, sessionID string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	updated, err := e.updateIdentity(ctx, identityID, func(doc *identity.Identity) error {
		next, err := session.Revoke(doc.Sessions, sessionID)
		if err != nil {
			return err
		}
		doc.Sessions = next
		return nil
	})
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return ErrSessionInvalid
		}
		return mapStoreError(err)
	}

	e.metricInc(MetricSessionRevoked)
	e.emit(ctx, NotifySessionRevoked, updated, sessionID, nil)
	return nil
}

// LogoutByAccessToken describes the logoutbyaccesstoken operation and its observable behavior.
//
// LogoutByAccessToken may return an error when input validation, dependency calls, or security checks fail.
// LogoutByAccessToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) LogoutByAccessToken(ctx context.Context, accessToken string) error {
	if e == nil || e.tokens == nil {
		return ErrEngineNotReady
	}

	claims, err := e.tokens.ParseKind(accessToken, token.KindAccess)
	if err != nil {
		return mapTokenError(err)
	}
	return e.Logout(ctx, claims.IdentityID(), claims.SessionID)
}

// ListSessions describes the listsessions operation and its observable behavior.
//
// ListSessions may return an error when input validation, dependency calls, or security checks fail.
// ListSessions does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ListSessions(ctx context.Context, identityID, currentSessionID string) ([]SessionView, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	ident, err := e.store.Load(ctx, identityID)
	if err != nil {
		return nil, mapStoreError(err)
	}

	now := time.Now()
	active := session.Active(ident.Sessions, now)

	views := make([]SessionView, 0, len(active))
	for _, s := range active {
		views = append(views, SessionView{
			SessionID:      s.ID,
			Device:         s.Device,
			CreatedAt:      s.CreatedAt,
			LastActivityAt: s.LastActivityAt,
			ExpiresAt:      s.ExpiresAt,
			Current:        s.ID == currentSessionID,
		})
	}
	return views, nil
}

// RevokeSession describes the revokesession operation and its observable behavior.
//
// RevokeSession may return an error when input validation, dependency calls, or security checks fail.
// RevokeSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RevokeSession(ctx context.Context, identityID, sessionID string) error {
	return e.Logout(ctx, identityID, sessionID)
}

// RevokeAllOtherSessions describes the revokeallothersessions operation and its observable behavior.
//
// RevokeAllOtherSessions may return an error when input validation, dependency calls, or security checks fail.
// RevokeAllOtherSessions does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RevokeAllOtherSessions(ctx context.Context, identityID, keepSessionID string) (int, error) {
	if e == nil || e.store == nil {
		return 0, ErrEngineNotReady
	}

	var revoked int
	updated, err := e.updateIdentity(ctx, identityID, func(doc *identity.Identity) error {
		before := len(doc.Sessions)
		doc.Sessions = session.RevokeAllExcept(doc.Sessions, keepSessionID)
		revoked = before - len(doc.Sessions)
		return nil
	})
	if err != nil {
		return 0, mapStoreError(err)
	}

	if revoked > 0 {
		e.metricInc(MetricSessionRevoked)
		e.emit(ctx, NotifySessionRevoked, updated, keepSessionID, map[string]string{
			"scope": "all_others",
		})
	}
	return revoked, nil
}

// RevokeAllSessions describes the revokeallsessions operation and its observable behavior.
//
// RevokeAllSessions may return an error when input validation, dependency calls, or security checks fail.
// RevokeAllSessions does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RevokeAllSessions(ctx context.Context, identityID string) (int, error) {
	if e == nil || e.store == nil {
		return 0, ErrEngineNotReady
	}

	var revoked int
	updated, err := e.updateIdentity(ctx, identityID, func(doc *identity.Identity) error {
		revoked = len(doc.Sessions)
		doc.Sessions = nil
		return nil
	})
	if err != nil {
		return 0, mapStoreError(err)
	}

	if revoked > 0 {
		e.metricInc(MetricSessionRevoked)
		e.emit(ctx, NotifySessionRevoked, updated, "", map[string]string{
			"scope": "all",
		})
	}
	return revoked, nil
}

// Register describes the register operation and its observable behavior.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Register(ctx context.Context, input RegisterInput) (*identity.Identity, error) {
	if e == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidCredentials
	}

	if check := e.policy.Validate(input.Password); !check.Valid {
		return nil, fmt.Errorf("%w: %s", ErrPasswordPolicy, strings.Join(check.Violations, "; "))
	}

	hash, err := e.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = "customer"
	}

	now := time.Now()
	ident := &identity.Identity{
		ID:             uuid.NewString(),
		Email:          email,
		CredentialHash: hash,
		Role:           role,
		Status:         identity.StatusActive,
		CreatedAt:      now,
	}

	if err := e.store.Create(ctx, ident); err != nil {
		if errors.Is(err, identity.ErrExists) {
			e.metricInc(MetricRegisterDuplicate)
			return nil, ErrIdentityExists
		}
		return nil, mapStoreError(err)
	}

	e.metricInc(MetricRegisterSuccess)
	return ident, nil
}

// ChangePassword describes the changepassword operation and its observable behavior.
//
// ChangePassword may return an error when input validation, dependency calls, or security checks fail.
// ChangePassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ChangePassword(ctx context.Context, identityID, oldPassword, newPassword string) error {
	if e == nil || e.hasher == nil {
		return ErrEngineNotReady
	}

	ident, err := e.store.Load(ctx, identityID)
	if err != nil {
		return mapStoreError(err)
	}

	ok, verr := e.hasher.Verify(oldPassword, ident.CredentialHash)
	if verr != nil || !ok {
		e.metricInc(MetricPasswordChangeInvalidOld)
		return ErrInvalidCredentials
	}

	if check := e.policy.Validate(newPassword); !check.Valid {
		return fmt.Errorf("%w: %s", ErrPasswordPolicy, strings.Join(check.Violations, "; "))
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	updated, err := e.updateIdentity(ctx, identityID, func(doc *identity.Identity) error {
		doc.CredentialHash = hash
		// Existing grants are revoked so stolen sessions die with the
		// old password.
		doc.Sessions = nil
		return nil
	})
	if err != nil {
		return mapStoreError(err)
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emit(ctx, NotifyPasswordChanged, updated, "", nil)
	return nil
}

func (e *Engine) issueTokenPair(identityID, sessionID, role string) (*TokenPair, error) {
	access, err := e.tokens.IssueAccess(identityID, sessionID, role)
	if err != nil {
		return nil, err
	}
	refresh, err := e.tokens.IssueRefresh(identityID, sessionID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// updateIdentity applies mutate under optimistic concurrency: the
// document is reloaded and the mutation re-run on every version
// conflict until the CAS save lands or the retry budget runs out.
func (e *Engine) updateIdentity(ctx context.Context, id string, mutate func(*identity.Identity) error) (*identity.Identity, error) {
	backoff := retry.WithMaxRetries(e.config.Retry.MaxAttempts, retry.NewExponential(e.config.Retry.BaseDelay))

	var out *identity.Identity
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		doc, err := e.store.Load(ctx, id)
		if err != nil {
			return err
		}
		if err := mutate(doc); err != nil {
			return err
		}
		if err := e.store.Save(ctx, doc); err != nil {
			if errors.Is(err, identity.ErrConflict) {
				e.metricInc(MetricConflictRetry)
				return retry.RetryableError(err)
			}
			return err
		}
		out = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// rejectedError carries the attempts left before the next lock so
// callers can warn the user without a second store read.
func rejectedError(reject error, remaining int) error {
	if remaining <= 0 {
		return reject
	}
	return fmt.Errorf("%w: %d attempts remaining", reject, remaining)
}

// lockedError carries the remaining lock window in the message so
// callers can report a retry hint without a second store read.
func lockedError(remaining time.Duration) error {
	if remaining <= 0 {
		return ErrAccountLocked
	}
	return fmt.Errorf("%w: retry after %s", ErrAccountLocked, remaining.Round(time.Second))
}

func statusToError(status identity.Status) error {
	switch status {
	case identity.StatusActive:
		return nil
	case identity.StatusInactive:
		return ErrAccountInactive
	case identity.StatusSuspended:
		return ErrAccountSuspended
	default:
		return ErrAccountInactive
	}
}

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, identity.ErrNotFound):
		return ErrIdentityNotFound
	case errors.Is(err, identity.ErrExists):
		return ErrIdentityExists
	case errors.Is(err, identity.ErrConflict):
		return ErrConcurrencyConflict
	case errors.Is(err, redistore.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	default:
		return err
	}
}

func mapTokenError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, token.ErrExpired):
		return ErrTokenExpired
	default:
		return ErrTokenInvalid
	}
}
