package supabase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/srikaanthtb/bolt-forum/internal/backend"
	"github.com/srikaanthtb/bolt-forum/internal/models"
)

const (
	signUpPath = "/auth/v1/signup"
	tokenPath  = "/auth/v1/token"
	logoutPath = "/auth/v1/logout"
	userPath   = "/auth/v1/user"

	// refreshMargin is how long before expiry a session gets refreshed.
	refreshMargin = 30 * time.Second
)

type authUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
	UserMetadata struct {
		Username string `json:"username"`
	} `json:"user_metadata"`
}

func (u authUser) toUser() models.User {
	return models.User{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.UserMetadata.Username,
		CreatedAt: u.CreatedAt,
	}
}

type tokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	User         *authUser `json:"user"`
}

// signUpResponse is a token response when the project auto-confirms e-mail
// addresses, and a bare user object otherwise.
type signUpResponse struct {
	tokenResponse
	authUser
}

type Auth struct {
	client *Client
	logger *slog.Logger
	state  backend.AuthState
}

var _ backend.Auth = (*Auth)(nil)

func (a *Auth) SignUp(ctx context.Context, email, password, username string) (*models.Session, error) {
	type signUpRequest struct {
		Email    string         `json:"email"`
		Password string         `json:"password"`
		Data     map[string]any `json:"data"`
	}

	var out signUpResponse
	res, err := a.client.r(ctx).
		SetBody(signUpRequest{Email: email, Password: password, Data: map[string]any{"username": username}}).
		SetResult(&out).
		Post(signUpPath)
	if err := check("sign up", res, err); err != nil {
		return nil, err
	}

	if out.AccessToken == "" {
		// Confirmation pending: the user exists but has no session yet.
		a.logger.Info("sign up awaiting e-mail confirmation", "email", email)
		return &models.Session{User: out.authUser.toUser()}, nil
	}

	session := toSession(&out.tokenResponse)
	a.state.Set(models.SignedIn, session)
	return session, nil
}

func (a *Auth) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	type passwordGrant struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var out tokenResponse
	res, err := a.client.r(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(passwordGrant{Email: email, Password: password}).
		SetResult(&out).
		Post(tokenPath)
	if err := check("sign in", res, err); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest && apiErr.sentinel == nil {
			apiErr.sentinel = models.ErrInvalidCredentials
		}
		return nil, err
	}

	session := toSession(&out)
	a.state.Set(models.SignedIn, session)
	return session, nil
}

func (a *Auth) SignOut(ctx context.Context) error {
	current := a.state.Current()
	if current == nil {
		return nil
	}

	ctx = backend.WithAccessToken(ctx, current.AccessToken)
	res, err := a.client.r(ctx).Post(logoutPath)
	if err := check("sign out", res, err); err != nil && !isRejected(err) {
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
	if current.ExpiresAt.IsZero() || time.Until(current.ExpiresAt) > refreshMargin {
		return current, nil
	}
	return a.refresh(ctx, current.RefreshToken)
}

func (a *Auth) Restore(ctx context.Context, accessToken, refreshToken string) (*models.Session, error) {
	if accessToken == "" && refreshToken == "" {
		return nil, nil
	}

	expiresAt, err := tokenExpiry(accessToken)
	if err != nil || time.Until(expiresAt) <= refreshMargin {
		if refreshToken == "" {
			a.state.Set(models.SignedOut, nil)
			return nil, nil
		}
		return a.refresh(ctx, refreshToken)
	}

	user, err := a.user(ctx, accessToken)
	if err != nil {
		if !isRejected(err) {
			return nil, err
		}
		if refreshToken == "" {
			a.state.Set(models.SignedOut, nil)
			return nil, nil
		}
		return a.refresh(ctx, refreshToken)
	}

	session := &models.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		User:         user,
	}
	a.state.Set(models.InitialSession, session)
	return session, nil
}

func (a *Auth) OnAuthStateChange(fn backend.AuthListener) func() {
	return a.state.Subscribe(fn)
}

// refresh exchanges a refresh token. A rejected token signs the client out.
func (a *Auth) refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	type refreshGrant struct {
		RefreshToken string `json:"refresh_token"`
	}

	if refreshToken == "" {
		a.state.Set(models.SignedOut, nil)
		return nil, nil
	}

	var out tokenResponse
	res, err := a.client.r(ctx).
		SetQueryParam("grant_type", "refresh_token").
		SetBody(refreshGrant{RefreshToken: refreshToken}).
		SetResult(&out).
		Post(tokenPath)
	if err := check("refresh session", res, err); err != nil {
		if isRejected(err) {
			a.logger.Debug("refresh token rejected", "error", err)
			a.state.Set(models.SignedOut, nil)
			return nil, nil
		}
		return nil, err
	}

	session := toSession(&out)
	a.state.Set(models.TokenRefreshed, session)
	return session, nil
}

func (a *Auth) user(ctx context.Context, accessToken string) (models.User, error) {
	var out authUser
	res, err := a.client.r(backend.WithAccessToken(ctx, accessToken)).
		SetResult(&out).
		Get(userPath)
	if err := check("get auth user", res, err); err != nil {
		return models.User{}, err
	}
	return out.toUser(), nil
}

func toSession(tr *tokenResponse) *models.Session {
	session := &models.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
	}
	switch {
	case tr.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(tr.ExpiresAt, 0)
	case tr.ExpiresIn > 0:
		session.ExpiresAt = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	default:
		session.ExpiresAt, _ = tokenExpiry(tr.AccessToken)
	}
	if tr.User != nil {
		session.User = tr.User.toUser()
	}
	return session
}

// tokenExpiry reads the exp claim. The signature is the auth server's
// business; the token is only used to decide when to refresh.
func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

// isRejected reports a 4xx from the auth server, as opposed to an outage.
func isRejected(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}
