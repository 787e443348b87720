package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v4"
	log "github.com/sirupsen/logrus"

	"workboard/domain"
)

// ErrInvalidCredential is returned when establish is handed an identity
// missing required fields.
var ErrInvalidCredential = errors.New("invalid credential")

// expirySkew mirrors the clock slack the board service grants when it
// checks token expiry, so the client fails closed slightly before the
// server would.
const expirySkew = time.Minute

type activeSession struct {
	accessToken  string
	refreshToken string
	identity     domain.Identity
}

// Manager owns the active session: loading persisted material, replacing
// it wholesale on login, clearing it on logout or expiry. There is at most
// one active session per process.
type Manager struct {
	store  CredentialStore
	logger *log.Logger
	jwks   *keyfunc.JWKS
	parser *jwt.Parser
	now    func() time.Time

	mu     sync.Mutex
	active *activeSession
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for purge/clear diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithJWKS enables RS256 signature verification against the given key set.
// Without it tokens are decoded unverified; the server re-validates every
// request, the client only needs the expiry claim.
func WithJWKS(jwks *keyfunc.JWKS) Option {
	return func(m *Manager) { m.jwks = jwks }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager over the given credential store.
func NewManager(store CredentialStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: log.StandardLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.jwks != nil {
		m.parser = jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}), jwt.WithoutClaimsValidation())
	} else {
		m.parser = jwt.NewParser(jwt.WithoutClaimsValidation())
	}
	return m
}

// Load restores a persisted session. Absent material, an unparseable or
// expired token, or a malformed identity all resolve to "no session": the
// persisted material is purged and no error is returned.
func (m *Manager) Load(ctx context.Context) error {
	creds, err := m.store.Read(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoCredentials) {
			return err
		}
		// The triple may be partially present (token gone, refresh or
		// identity left behind); clear the stragglers too.
		m.purge(ctx, "no access token")
		return nil
	}

	var id domain.Identity
	if err := sonic.Unmarshal(creds.IdentityJSON, &id); err != nil {
		m.purge(ctx, "malformed persisted identity")
		return nil
	}
	if err := id.Validate(); err != nil {
		m.purge(ctx, "incomplete persisted identity")
		return nil
	}
	if !m.tokenValid(creds.AccessToken) {
		m.purge(ctx, "expired access token")
		return nil
	}

	m.setActive(&activeSession{
		accessToken:  creds.AccessToken,
		refreshToken: creds.RefreshToken,
		identity:     id,
	})
	return nil
}

// Establish replaces the active session and persists it.
func (m *Manager) Establish(ctx context.Context, accessToken, refreshToken string, id domain.Identity) error {
	if accessToken == "" {
		return ErrInvalidCredential
	}
	if err := id.Validate(); err != nil {
		return ErrInvalidCredential
	}

	identityJSON, err := sonic.Marshal(id)
	if err != nil {
		return err
	}
	if err := m.store.Write(ctx, Credentials{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		IdentityJSON: identityJSON,
	}); err != nil {
		return err
	}

	m.setActive(&activeSession{
		accessToken:  accessToken,
		refreshToken: refreshToken,
		identity:     id,
	})
	return nil
}

// Current returns the active identity. No I/O.
func (m *Manager) Current() (domain.Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return domain.Identity{}, false
	}
	return m.active.identity, true
}

// AccessToken returns the bearer token for outgoing requests, only while
// the session is valid.
func (m *Manager) AccessToken() (string, bool) {
	m.mu.Lock()
	active := m.active
	m.mu.Unlock()
	if active == nil || !m.tokenValid(active.accessToken) {
		return "", false
	}
	return active.accessToken, true
}

// IsValid re-derives expiry from the stored token on every call. A session
// established hours ago can go stale mid-flight; callers check this at the
// point of use, not once at startup.
func (m *Manager) IsValid() bool {
	m.mu.Lock()
	active := m.active
	m.mu.Unlock()
	return active != nil && m.tokenValid(active.accessToken)
}

// Invalidate clears the active session and all persisted material.
// Idempotent.
func (m *Manager) Invalidate(ctx context.Context) error {
	m.setActive(nil)
	return m.store.Clear(ctx)
}

func (m *Manager) setActive(s *activeSession) {
	m.mu.Lock()
	m.active = s
	m.mu.Unlock()
}

func (m *Manager) purge(ctx context.Context, reason string) {
	m.setActive(nil)
	if err := m.store.Clear(ctx); err != nil {
		m.logger.WithError(err).Warn("session: purge failed")
		return
	}
	m.logger.WithField("reason", reason).Debug("session: purged persisted material")
}

// tokenValid parses the access token and checks its exp claim against the
// clock. Parse failures are treated exactly like expiry.
func (m *Manager) tokenValid(raw string) bool {
	if raw == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if m.jwks != nil {
		if _, err := m.parser.ParseWithClaims(raw, claims, m.jwks.Keyfunc); err != nil {
			return false
		}
	} else {
		if _, _, err := m.parser.ParseUnverified(raw, claims); err != nil {
			return false
		}
	}
	return claims.VerifyExpiresAt(m.now().Add(expirySkew).Unix(), true)
}
