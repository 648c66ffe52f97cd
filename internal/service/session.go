package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pump_control/internal/logger"
	"pump_control/internal/models"
	"pump_control/internal/repository"
)

const (
	DefaultSafetyMargin = 60 * time.Minute
	loginTimeout        = 20 * time.Second
	flightKey           = "session"
)

// Authenticator opens a remote session.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (models.Credential, error)
}

// SessionManager hands out a usable Sensaphone session. Readers take the
// cached credential under a read lock; refreshes are single-flight so
// concurrent cycles trigger at most one login.
type SessionManager struct {
	store   repository.CredentialRepo
	auth    Authenticator
	secrets SecretProvider
	margin  time.Duration
	metrics Recorder
	log     *logger.Logger
	now     func() time.Time

	mu     sync.RWMutex
	cached *models.Credential
	group  singleflight.Group
}

func NewSessionManager(store repository.CredentialRepo, auth Authenticator, secrets SecretProvider, margin time.Duration, rec Recorder, log *logger.Logger) *SessionManager {
	if margin <= 0 {
		margin = DefaultSafetyMargin
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SessionManager{
		store:   store,
		auth:    auth,
		secrets: secrets,
		margin:  margin,
		metrics: rec,
		log:     log,
		now:     time.Now,
	}
}

// EnsureSession returns a credential that stays valid for at least the safety
// margin, logging in only when neither the cache nor the store has one.
func (m *SessionManager) EnsureSession(ctx context.Context) (models.Credential, error) {
	if c, ok := m.cachedValid(""); ok {
		return c, nil
	}
	return m.flight(ctx, "")
}

// Renew replaces a credential the remote service rejected. If another caller
// already replaced it, that credential is returned without a new login.
func (m *SessionManager) Renew(ctx context.Context, stale models.Credential) (models.Credential, error) {
	if c, ok := m.cachedValid(stale.Token); ok {
		return c, nil
	}
	m.forget(stale.Token)

	c, err := m.flight(ctx, stale.Token)
	if err == nil && c.Token == stale.Token {
		// joined a flight started before the rejection; go again
		m.forget(stale.Token)
		c, err = m.flight(ctx, stale.Token)
	}
	return c, err
}

// flight runs refresh once for all concurrent callers. A caller whose ctx ends
// stops waiting; the login itself carries on for the others.
func (m *SessionManager) flight(ctx context.Context, stale string) (models.Credential, error) {
	ch := m.group.DoChan(flightKey, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loginTimeout)
		defer cancel()
		return m.refresh(fctx, stale)
	})
	select {
	case <-ctx.Done():
		return models.Credential{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return models.Credential{}, r.Err
		}
		return r.Val.(models.Credential), nil
	}
}

func (m *SessionManager) refresh(ctx context.Context, stale string) (models.Credential, error) {
	if c, ok := m.cachedValid(stale); ok {
		return c, nil
	}

	stored, err := m.store.Get(ctx)
	switch {
	case err != nil:
		m.log.Warnw("session_store_read_failed", "err", err)
	case stored != nil && stored.Token != stale && stored.Valid(m.now(), m.margin):
		m.setCache(*stored)
		m.log.Debugw("session_loaded", "expires_at", stored.ExpiresAt)
		return *stored, nil
	}

	user, pass, err := m.secrets.Credentials(ctx)
	if err != nil {
		m.metrics.ObserveLogin(false)
		m.log.Errorw("session_login_failed", "reason", "credentials unavailable", "err", err)
		return models.Credential{}, fmt.Errorf("%w: %v", models.ErrAuth, err)
	}

	cred, err := m.auth.Login(ctx, user, pass)
	if err != nil {
		m.metrics.ObserveLogin(false)
		m.log.Errorw("session_login_failed", "username", user, "err", err)
		if errors.Is(err, models.ErrAuth) || errors.Is(err, models.ErrTransport) {
			return models.Credential{}, err
		}
		return models.Credential{}, fmt.Errorf("%w: login: %v", models.ErrTransport, err)
	}
	m.metrics.ObserveLogin(true)

	if err := m.store.Put(ctx, cred); err != nil {
		m.log.Warnw("session_store_write_failed", "err", err)
	}
	m.setCache(cred)
	m.log.Infow("session_login", "account_id", cred.AccountID, "expires_at", cred.ExpiresAt)
	return cred, nil
}

// cachedValid returns the cached credential if it is usable and not the one
// being replaced.
func (m *SessionManager) cachedValid(stale string) (models.Credential, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cached == nil || m.cached.Token == stale || !m.cached.Valid(m.now(), m.margin) {
		return models.Credential{}, false
	}
	return *m.cached, true
}

func (m *SessionManager) setCache(c models.Credential) {
	m.mu.Lock()
	m.cached = &c
	m.mu.Unlock()
}

func (m *SessionManager) forget(token string) {
	m.mu.Lock()
	if m.cached != nil && m.cached.Token == token {
		m.cached = nil
	}
	m.mu.Unlock()
}
