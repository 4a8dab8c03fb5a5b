package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/srikaanthtb/bolt-forum/internal/backend"
	"github.com/srikaanthtb/bolt-forum/internal/models"
)

const sessionTTL = 24 * time.Hour

// Auth issues opaque session ids as access tokens. There is no refresh token:
// an expired session has to sign in again.
type Auth struct {
	db     *sql.DB
	logger *slog.Logger
	state  backend.AuthState
}

var _ backend.Auth = (*Auth)(nil)

func (a *Auth) SignUp(ctx context.Context, email, password, username string) (*models.Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user, err := createAuthUser(ctx, a.db, email, username, string(hash))
	if err != nil {
		return nil, err
	}
	return a.startSession(ctx, *user)
}

func (a *Auth) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	user, err := getAuthUserByEmail(ctx, a.db, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, models.ErrInvalidCredentials
	}
	return a.startSession(ctx, user.User)
}

func (a *Auth) startSession(ctx context.Context, user models.User) (*models.Session, error) {
	sess, err := createSession(ctx, a.db, user.ID, time.Now().Add(sessionTTL))
	if err != nil {
		return nil, err
	}
	session := &models.Session{AccessToken: sess.ID, ExpiresAt: sess.ExpiresAt, User: user}
	a.state.Set(models.SignedIn, session)
	return session, nil
}

func (a *Auth) SignOut(ctx context.Context) error {
	current := a.state.Current()
	if current == nil {
		return nil
	}
	if err := revokeSession(ctx, a.db, current.AccessToken); err != nil {
		return err
	}
	a.state.Set(models.SignedOut, nil)
	return nil
}

func (a *Auth) Session(ctx context.Context) (*models.Session, error) {
	current := a.state.Current()
	if current == nil {
		return nil, nil
	}
	session, err := a.lookup(ctx, current.AccessToken)
	if err != nil {
		return nil, err
	}
	if session == nil {
		a.state.Set(models.SignedOut, nil)
	}
	return session, nil
}

func (a *Auth) Restore(ctx context.Context, accessToken, _ string) (*models.Session, error) {
	session, err := a.lookup(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if session == nil {
		a.state.Set(models.SignedOut, nil)
		return nil, nil
	}
	a.state.Set(models.InitialSession, session)
	return session, nil
}

// lookup returns nil for unknown, revoked and expired sessions.
func (a *Auth) lookup(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, nil
	}
	sess, err := getSession(ctx, a.db, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sess.RevokedAt != nil || !sess.ExpiresAt.After(time.Now()) {
		a.logger.Debug("session no longer valid", "user_id", sess.UserID)
		return nil, nil
	}
	user, err := getAuthUserByID(ctx, a.db, sess.UserID)
	if err != nil {
		return nil, err
	}
	return &models.Session{AccessToken: sess.ID, ExpiresAt: sess.ExpiresAt, User: *user}, nil
}

func (a *Auth) OnAuthStateChange(fn backend.AuthListener) func() {
	return a.state.Subscribe(fn)
}
