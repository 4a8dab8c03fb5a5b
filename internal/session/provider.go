// Package session tracks the signed-in identity of one client and tells
// observers when it changes.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/srikaanthtb/bolt-forum/internal/backend"
	"github.com/srikaanthtb/bolt-forum/internal/models"
)

// Change is delivered to observers after every auth state change.
type Change struct {
	Event   models.AuthEvent
	Session *models.Session
}

type Observer func(Change)

type Provider struct {
	auth   backend.Auth
	store  backend.Store
	logger *slog.Logger

	unsubscribe func()

	mu        sync.Mutex
	session   *models.Session
	loading   bool
	nextID    int
	observers map[int]Observer
}

// NewProvider returns a provider that is loading until Load or Restore
// finishes, and that follows every change the auth subsystem reports.
func NewProvider(auth backend.Auth, store backend.Store, logger *slog.Logger) *Provider {
	p := &Provider{
		auth:      auth,
		store:     store,
		logger:    logger.With("component", "session.Provider"),
		loading:   true,
		observers: map[int]Observer{},
	}
	p.unsubscribe = auth.OnAuthStateChange(p.handle)
	return p
}

// Load adopts the auth subsystem's current session. On error the provider
// ends up signed out.
func (p *Provider) Load(ctx context.Context) {
	session, err := p.auth.Session(ctx)
	if err != nil {
		p.logger.Error("error getting session", "error", err)
		session = nil
	}
	p.settle(session)
}

// Restore adopts tokens kept by the client. On error the provider ends up
// signed out.
func (p *Provider) Restore(ctx context.Context, accessToken, refreshToken string) {
	session, err := p.auth.Restore(ctx, accessToken, refreshToken)
	if err != nil {
		p.logger.Error("error restoring session", "error", err)
		session = nil
	}
	p.settle(session)
}

func (p *Provider) settle(session *models.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = session
	p.loading = false
}

// User returns the signed-in user, or nil.
func (p *Provider) User() *models.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	user := p.session.User
	return &user
}

func (p *Provider) Session() *models.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	session := *p.session
	return &session
}

func (p *Provider) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Context returns ctx carrying the signed-in user's access token, so store
// writes run as that user.
func (p *Provider) Context(ctx context.Context) context.Context {
	session := p.Session()
	if session == nil {
		return ctx
	}
	return backend.WithAccessToken(ctx, session.AccessToken)
}

func (p *Provider) Subscribe(fn Observer) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.observers[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.observers, id)
	}
}

// SignUp creates the account and then its profile row. A failed profile
// write is logged; the account stays created.
func (p *Provider) SignUp(ctx context.Context, email, password, username string) (*models.Session, error) {
	session, err := p.auth.SignUp(ctx, email, password, username)
	if err != nil {
		return nil, models.AuthError("sign up", err)
	}

	user := session.User
	if user.Username == "" {
		user.Username = username
	}
	if user.Email == "" {
		user.Email = email
	}
	if err := p.store.UpsertUser(backend.WithAccessToken(ctx, session.AccessToken), user); err != nil {
		p.logger.Error("error creating user profile", "user_id", user.ID, "error", err)
	}
	return session, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	session, err := p.auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, models.AuthError("sign in", err)
	}
	return session, nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	if err := p.auth.SignOut(ctx); err != nil {
		return models.AuthError("sign out", err)
	}
	return nil
}

// Close stops following the auth subsystem. Observers get no more changes.
func (p *Provider) Close() {
	p.unsubscribe()
}

func (p *Provider) handle(event models.AuthEvent, session *models.Session) {
	p.mu.Lock()
	p.session = session
	p.loading = false

	observers := make([]Observer, 0, len(p.observers))
	for id := 0; id < p.nextID; id++ {
		if fn, ok := p.observers[id]; ok {
			observers = append(observers, fn)
		}
	}
	p.mu.Unlock()

	p.logger.Debug("auth state changed", "event", event)
	for _, fn := range observers {
		fn(Change{Event: event, Session: session})
	}
}
