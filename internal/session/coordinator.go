package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/storage"
	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultRefreshTimeout = 10 * time.Second
	subscriberBuffer      = 8

	expiredMessage = "Your session has expired. Please log in again."
)

type Options struct {
	// RefreshTimeout bounds the refresh call, which runs detached from the
	// caller that triggered it.
	RefreshTimeout time.Duration
	Logger         *slog.Logger
	Now            func() time.Time
}

type refreshResult struct {
	access string
	err    error
}

type Coordinator struct {
	scope          Scope
	keys           scopeKeys
	store          storage.Store
	refresher      Refresher
	logger         *slog.Logger
	refreshTimeout time.Duration
	now            func() time.Time

	mu      sync.Mutex
	state   State
	tokens  models.Tokens
	user    *models.User
	epoch   uint64
	waiters []chan refreshResult

	subMu   sync.Mutex
	subs    map[uint64]chan Event
	nextSub uint64
	last    Event

	sibling *Coordinator
}

func NewCoordinator(scope Scope, store storage.Store, refresher Refresher, opts Options) *Coordinator {

	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = defaultRefreshTimeout
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Coordinator{
		scope:          scope,
		keys:           keysFor(scope),
		store:          store,
		refresher:      refresher,
		logger:         opts.Logger.With(slog.String("scope", string(scope))),
		refreshTimeout: opts.RefreshTimeout,
		now:            opts.Now,
		subs:           make(map[uint64]chan Event),
	}
}

// Link ties two coordinators sharing one store. Their keys are purged as a
// unit, so ending one session signs the other out too. Call before use.
func Link(a, b *Coordinator) {
	a.sibling = b
	b.sibling = a
}

func (c *Coordinator) Scope() Scope {
	return c.scope
}

// Load restores the session persisted by a previous run.
func (c *Coordinator) Load(ctx context.Context) error {

	var access, refresh string

	found, err := c.store.Get(ctx, c.keys.access, &access)
	if err != nil {
		return errors.StorageError("Failed to load session").WithError(err)
	}

	if !found || access == "" {
		return nil
	}

	if c.scope == ScopeAdmin {
		var isAdmin bool
		if _, err := c.store.Get(ctx, storage.IsAdminKey, &isAdmin); err != nil {
			return errors.StorageError("Failed to load session").WithError(err)
		}
		if !isAdmin {
			return nil
		}
	}

	if _, err := c.store.Get(ctx, c.keys.refresh, &refresh); err != nil {
		return errors.StorageError("Failed to load session").WithError(err)
	}

	var user *models.User
	if c.scope == ScopeCustomer {
		var u models.User
		found, err := c.store.Get(ctx, storage.UserKey, &u)
		if err != nil {
			return errors.StorageError("Failed to load session").WithError(err)
		}
		if found {
			user = &u
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Unauthenticated {
		c.state = Authenticated
		c.tokens = models.Tokens{Access: access, Refresh: refresh}
		c.user = user
		c.epoch++
	}

	c.logger.Info("Session restored from storage")

	return nil
}

// Establish installs the tokens of a successful login or registration.
func (c *Coordinator) Establish(ctx context.Context, tokens models.Tokens, user *models.User) error {

	if tokens.Access == "" {
		return errors.ThirdPartyError("Login response carried no access token")
	}

	c.mu.Lock()
	c.state = Authenticated
	c.tokens = tokens
	if c.scope == ScopeCustomer {
		c.user = user
	}
	c.epoch++
	waiters := c.takeWaitersLocked()
	c.mu.Unlock()

	release(waiters, tokens.Access, nil)

	if err := c.store.Set(ctx, c.keys.access, tokens.Access); err != nil {
		return errors.StorageError("Failed to persist session").WithError(err)
	}

	if err := c.store.Set(ctx, c.keys.refresh, tokens.Refresh); err != nil {
		return errors.StorageError("Failed to persist session").WithError(err)
	}

	switch {
	case c.scope == ScopeAdmin:
		if err := c.store.Set(ctx, storage.IsAdminKey, true); err != nil {
			return errors.StorageError("Failed to persist session").WithError(err)
		}
	case user != nil:
		if err := c.store.Set(ctx, storage.UserKey, user); err != nil {
			return errors.StorageError("Failed to persist session").WithError(err)
		}
	}

	c.logger.Info("Session established")

	return nil
}

// SetUser replaces the profile snapshot of a signed-in customer session.
func (c *Coordinator) SetUser(ctx context.Context, user *models.User) error {

	if c.scope != ScopeCustomer || user == nil {
		return nil
	}

	c.mu.Lock()
	if c.state == Unauthenticated {
		c.mu.Unlock()
		return errors.SessionExpiredError("Not signed in")
	}
	c.user = user
	c.mu.Unlock()

	if err := c.store.Set(ctx, storage.UserKey, user); err != nil {
		return errors.StorageError("Failed to persist session").WithError(err)
	}

	return nil
}

// AccessToken returns the current access token, empty when signed out.
func (c *Coordinator) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Unauthenticated {
		return ""
	}

	return c.tokens.Access
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

func (c *Coordinator) User() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.user
}

func (c *Coordinator) Status() Status {

	c.mu.Lock()
	state, access, user := c.state, c.tokens.Access, c.user
	c.mu.Unlock()

	st := Status{
		Scope:         c.scope,
		State:         state.String(),
		Authenticated: state != Unauthenticated,
		User:          user,
	}

	if access == "" {
		return st
	}

	claims := &models.AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		c.logger.Debug("Access token is not a decodable JWT", slog.String("error", err.Error()))
		return st
	}

	st.Subject = claims.UserID.String()
	if st.Subject == "" {
		st.Subject = claims.Subject
	}

	if claims.ExpiresAt != nil {
		expiresAt := claims.ExpiresAt.Time
		st.ExpiresAt = &expiresAt
		st.Expired = !c.now().Before(expiresAt)
	}

	return st
}

// Refresh returns an access token to retry a request that failed with an
// expired token. stale is the token that request carried.
//
// The first caller starts the refresh; callers arriving while it is in
// flight wait for its outcome. A caller whose stale token was already
// replaced gets the current token without a new refresh.
func (c *Coordinator) Refresh(ctx context.Context, stale string) (string, error) {

	c.mu.Lock()

	switch c.state {
	case Unauthenticated:
		c.mu.Unlock()
		return "", errors.SessionExpiredError(expiredMessage)

	case Refreshing:
		ch := c.enqueueLocked()
		c.mu.Unlock()

		metrics.TokenRefreshQueued(string(c.scope))
		c.logger.Debug("Request queued behind in-flight token refresh")

		return wait(ctx, ch)
	}

	if stale != c.tokens.Access {
		current := c.tokens.Access
		c.mu.Unlock()
		return current, nil
	}

	if c.tokens.Refresh == "" {
		waiters := c.resetLocked()
		c.mu.Unlock()

		c.logger.Warn("No refresh token available, ending session")
		metrics.TokenRefresh(string(c.scope), metrics.ResultFailure)

		cause := errors.SessionExpiredError(expiredMessage)
		c.finish(ctx, waiters, EventSessionExpired, expiredMessage, cause)

		return "", cause
	}

	c.state = Refreshing
	refresh := c.tokens.Refresh
	epoch := c.epoch
	ch := c.enqueueLocked()
	c.mu.Unlock()

	go c.runRefresh(context.WithoutCancel(ctx), refresh, epoch)

	return wait(ctx, ch)
}

func (c *Coordinator) runRefresh(ctx context.Context, refresh string, epoch uint64) {

	refreshCtx, cancel := context.WithTimeout(ctx, c.refreshTimeout)
	defer cancel()

	c.logger.Info("Refreshing access token")

	resp, err := c.refresher.RefreshToken(refreshCtx, refresh)
	if err == nil && (resp == nil || resp.Access == "") {
		err = errors.ThirdPartyError("Refresh response carried no access token")
	}

	c.mu.Lock()

	// the session ended or was replaced while the refresh was in flight
	if c.epoch != epoch {
		waiters := c.takeWaitersLocked()
		state, access := c.state, c.tokens.Access
		c.mu.Unlock()

		if state == Unauthenticated {
			release(waiters, "", errors.SessionExpiredError(expiredMessage))
		} else {
			release(waiters, access, nil)
		}

		return
	}

	if err != nil {
		waiters := c.resetLocked()
		c.mu.Unlock()

		c.logger.Warn("Token refresh failed, ending session", slog.String("error", err.Error()))
		metrics.TokenRefresh(string(c.scope), metrics.ResultFailure)

		c.finish(ctx, waiters, EventSessionExpired, expiredMessage, errors.SessionExpiredError(expiredMessage).WithError(err))

		return
	}

	c.tokens.Access = resp.Access
	if resp.Refresh != "" {
		c.tokens.Refresh = resp.Refresh
	}
	c.state = Authenticated
	tokens := c.tokens
	waiters := c.takeWaitersLocked()
	c.mu.Unlock()

	metrics.TokenRefresh(string(c.scope), metrics.ResultSuccess)
	c.logger.Info("Access token refreshed", slog.Int("waiters", len(waiters)))

	persistCtx, cancelPersist := c.detached(ctx)
	defer cancelPersist()

	if err := c.store.Set(persistCtx, c.keys.access, tokens.Access); err != nil {
		c.logger.Error("Failed to persist refreshed access token", slog.String("error", err.Error()))
	}

	if err := c.store.Set(persistCtx, c.keys.refresh, tokens.Refresh); err != nil {
		c.logger.Error("Failed to persist refreshed refresh token", slog.String("error", err.Error()))
	}

	release(waiters, tokens.Access, nil)
}

// Invalidate ends the session after an authorization failure that a refresh
// cannot fix.
func (c *Coordinator) Invalidate(ctx context.Context, reason string) {

	c.mu.Lock()

	if c.state == Unauthenticated {
		c.mu.Unlock()
		return
	}

	waiters := c.resetLocked()
	c.mu.Unlock()

	c.logger.Warn("Session invalidated", slog.String("reason", reason))

	c.finish(ctx, waiters, EventSessionExpired, expiredMessage, errors.SessionExpiredError(expiredMessage))
}

// Logout purges the session keys and notifies subscribers.
func (c *Coordinator) Logout(ctx context.Context) error {

	c.mu.Lock()
	waiters := c.resetLocked()
	c.mu.Unlock()

	c.logger.Info("Logging out")

	if err := c.finish(ctx, waiters, EventLoggedOut, "You have been logged out.", errors.SessionExpiredError(expiredMessage)); err != nil {
		return errors.StorageError("Failed to clear session").WithError(err)
	}

	return nil
}

// Subscribe registers for session events. Events are dropped for a
// subscriber whose buffer is full. cancel must be called to unsubscribe.
func (c *Coordinator) Subscribe() (<-chan Event, func()) {

	ch := make(chan Event, subscriberBuffer)

	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subMu.Unlock()

	var once sync.Once

	cancel := func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			close(ch)
			c.subMu.Unlock()
		})
	}

	return ch, cancel
}

// LastEvent returns the most recent event of this scope. ok is false
// until the first event.
func (c *Coordinator) LastEvent() (evt Event, ok bool) {

	c.subMu.Lock()
	defer c.subMu.Unlock()

	return c.last, c.last.Seq > 0
}

func (c *Coordinator) broadcast(evt Event) {

	metrics.SessionEvent(string(c.scope), string(evt.Type))

	c.subMu.Lock()
	defer c.subMu.Unlock()

	evt.Seq = c.last.Seq + 1
	c.last = evt

	for id, ch := range c.subs {
		select {
		case ch <- evt:
		default:
			c.logger.Warn("Dropping session event for slow subscriber", slog.Uint64("subscriber", id), slog.String("type", string(evt.Type)))
		}
	}
}

// finish purges the session keys, fails the waiters with cause, signs the
// linked session out and notifies subscribers. The purge always runs.
func (c *Coordinator) finish(ctx context.Context, waiters []chan refreshResult, typ EventType, message string, cause error) error {

	cleanupCtx, cancel := c.detached(ctx)
	defer cancel()

	err := c.store.Delete(cleanupCtx, storage.SessionKeys...)
	if err != nil {
		c.logger.Error("Failed to purge session keys", slog.String("error", err.Error()))
	}

	release(waiters, "", cause)

	if c.sibling != nil {
		c.sibling.reset(typ, message, cause)
	}

	c.broadcast(Event{Type: typ, Scope: c.scope, Message: message, At: c.now()})

	return err
}

// reset clears in-memory state after the linked session purged storage.
func (c *Coordinator) reset(typ EventType, message string, cause error) {

	c.mu.Lock()
	wasActive := c.state != Unauthenticated
	waiters := c.resetLocked()
	c.mu.Unlock()

	release(waiters, "", cause)

	if wasActive {
		c.broadcast(Event{Type: typ, Scope: c.scope, Message: message, At: c.now()})
	}
}

func (c *Coordinator) resetLocked() []chan refreshResult {
	c.state = Unauthenticated
	c.tokens = models.Tokens{}
	c.user = nil
	c.epoch++

	return c.takeWaitersLocked()
}

func (c *Coordinator) enqueueLocked() chan refreshResult {
	ch := make(chan refreshResult, 1)
	c.waiters = append(c.waiters, ch)

	return ch
}

func (c *Coordinator) takeWaitersLocked() []chan refreshResult {
	waiters := c.waiters
	c.waiters = nil

	return waiters
}

func (c *Coordinator) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
}

func release(waiters []chan refreshResult, access string, err error) {
	for _, ch := range waiters {
		ch <- refreshResult{access: access, err: err}
	}
}

func wait(ctx context.Context, ch <-chan refreshResult) (string, error) {
	select {
	case res := <-ch:
		return res.access, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
