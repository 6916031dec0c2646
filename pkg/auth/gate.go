package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/platinummonkey/crm/pkg/observability"
	"github.com/platinummonkey/crm/pkg/storage"
	"github.com/platinummonkey/crm/pkg/users"
	"github.com/sirupsen/logrus"
)

// SessionKey is the document key holding the persisted session
const SessionKey = "crmUser"

var (
	// ErrInvalidCredentials is returned when no account matches the email and credential
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotSignedIn is returned by operations that need an active session
	ErrNotSignedIn = errors.New("not signed in")
)

// Session is the persisted form of the signed-in identity. The credential is not kept.
type Session struct {
	UserID     string     `json:"id"`
	Email      string     `json:"email"`
	Role       users.Role `json:"role"`
	Name       string     `json:"name"`
	SignedInAt time.Time  `json:"signedInAt"`
}

func (s Session) account() users.UserAccount {
	return users.UserAccount{ID: s.UserID, Email: s.Email, Role: s.Role, Name: s.Name}
}

// Directory is the subset of the user directory the gate needs
type Directory interface {
	List() []users.UserAccount
	Get(id string) (users.UserAccount, error)
}

// Gate holds the single signed-in identity of one application context
type Gate struct {
	dir     Directory
	store   storage.Store
	metrics *observability.Metrics
	log     *logrus.Logger
	now     func() time.Time

	mu      sync.RWMutex
	current *Session
}

// NewGate creates a gate with no signed-in identity. metrics may be nil.
func NewGate(dir Directory, store storage.Store, metrics *observability.Metrics, log *logrus.Logger) *Gate {
	if log == nil {
		log = logrus.New()
	}
	return &Gate{
		dir:     dir,
		store:   store,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
}

// Login signs in the account whose email and credential both match exactly.
// Credentials are compared in plaintext; this gate is for demos only. On failure
// the current identity and the persisted session are left untouched.
func (g *Gate) Login(ctx context.Context, email, credential string) (users.UserAccount, error) {
	var found *users.UserAccount
	for _, a := range g.dir.List() {
		if a.Email == email && a.Credential == credential {
			account := a
			found = &account
			break
		}
	}
	if found == nil {
		g.metrics.RecordLogin("failure")
		g.log.WithField("email", email).Warn("Login failed")
		return users.UserAccount{}, ErrInvalidCredentials
	}

	session := Session{
		UserID:     found.ID,
		Email:      found.Email,
		Role:       found.Role,
		Name:       found.Name,
		SignedInAt: g.now().UTC(),
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if err := storage.Save(ctx, g.store, SessionKey, session); err != nil {
		g.metrics.RecordLogin("error")
		return users.UserAccount{}, fmt.Errorf("failed to persist session: %w", err)
	}
	g.current = &session

	g.metrics.RecordLogin("success")
	g.metrics.SetActiveSession(true)
	g.log.WithFields(logrus.Fields{"email": found.Email, "role": found.Role}).Info("User signed in")
	return session.account(), nil
}

// Logout clears the identity and the persisted session. It is safe to call
// with nobody signed in.
func (g *Gate) Logout(ctx context.Context) error {
	g.mu.Lock()
	previous := g.current
	g.current = nil
	g.mu.Unlock()

	g.metrics.SetActiveSession(false)

	if err := g.store.Delete(ctx, SessionKey); err != nil {
		return fmt.Errorf("failed to clear persisted session: %w", err)
	}
	if previous != nil {
		g.log.WithField("email", previous.Email).Info("User signed out")
	}
	return nil
}

// Current returns the signed-in account
func (g *Gate) Current() (users.UserAccount, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.current == nil {
		return users.UserAccount{}, false
	}
	return g.current.account(), true
}

// Session returns the signed-in session
func (g *Gate) Session() (Session, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.current == nil {
		return Session{}, false
	}
	return *g.current, true
}

// Restore reloads a persisted session, the equivalent of reopening the app. The
// session is refreshed from the directory; if its account is gone the session
// is dropped.
func (g *Gate) Restore(ctx context.Context) error {
	persisted, err := storage.Load[*Session](ctx, g.store, SessionKey, nil)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	if persisted == nil {
		return nil
	}

	g.mu.Lock()
	g.current = persisted
	g.mu.Unlock()

	return g.Refresh(ctx)
}

// Refresh re-reads the signed-in account from the directory so email, role and
// name changes take effect. A deleted account signs the session out.
func (g *Gate) Refresh(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current == nil {
		return nil
	}

	account, err := g.dir.Get(g.current.UserID)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		return fmt.Errorf("failed to refresh session: %w", err)
	}
	if err != nil {
		g.log.WithField("email", g.current.Email).Warn("Signed-in account no longer exists, ending session")
		g.current = nil
		g.metrics.SetActiveSession(false)
		if err := g.store.Delete(ctx, SessionKey); err != nil {
			return fmt.Errorf("failed to clear persisted session: %w", err)
		}
		return nil
	}

	if account.Email == g.current.Email && account.Role == g.current.Role && account.Name == g.current.Name {
		g.metrics.SetActiveSession(true)
		return nil
	}

	refreshed := *g.current
	refreshed.Email = account.Email
	refreshed.Role = account.Role
	refreshed.Name = account.Name
	if err := storage.Save(ctx, g.store, SessionKey, refreshed); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	g.current = &refreshed
	g.metrics.SetActiveSession(true)
	return nil
}
