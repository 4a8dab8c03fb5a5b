package backendmock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/srikaanthtb/bolt-forum/internal/backend"
	"github.com/srikaanthtb/bolt-forum/internal/models"
)

// Auth mocks every call except OnAuthStateChange, which subscribes to State.
// Tests emit auth events with State.Set.
type Auth struct {
	mock.Mock

	State backend.AuthState
}

var _ backend.Auth = (*Auth)(nil)

func (m *Auth) SignUp(ctx context.Context, email, password, username string) (*models.Session, error) {
	args := m.Called(ctx, email, password, username)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}

func (m *Auth) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	args := m.Called(ctx, email, password)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}

func (m *Auth) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *Auth) Session(ctx context.Context) (*models.Session, error) {
	args := m.Called(ctx)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}

func (m *Auth) Restore(ctx context.Context, accessToken, refreshToken string) (*models.Session, error) {
	args := m.Called(ctx, accessToken, refreshToken)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}

func (m *Auth) OnAuthStateChange(fn backend.AuthListener) func() {
	return m.State.Subscribe(fn)
}
