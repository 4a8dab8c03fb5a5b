// Package backend describes the remote data service the forum runs on: a
// relational store for users, posts and likes, plus an auth subsystem.
package backend

import (
	"context"

	"github.com/srikaanthtb/bolt-forum/internal/models"
)

// PostFilter narrows ListPosts. The zero value matches every post.
type PostFilter struct {
	UserID string
}

type Store interface {
	// ListPosts returns matching posts ordered by created_at, newest first.
	ListPosts(ctx context.Context, filter PostFilter) ([]models.Post, error)
	// GetUsersByIDs returns the users that exist among ids, in no particular order.
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	// GetUserByID returns models.ErrNotFound when there is no such user.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// UpsertUser inserts the user or overwrites username and email.
	UpsertUser(ctx context.Context, user models.User) error
	InsertPost(ctx context.Context, userID, content string) (*models.Post, error)
	// InsertLike returns models.ErrDuplicate when the pair already exists.
	InsertLike(ctx context.Context, like models.Like) error
	DeleteLike(ctx context.Context, like models.Like) error
	CountLikes(ctx context.Context, postID string) (int, error)
	// LikedPostIDs returns the subset of postIDs liked by userID.
	LikedPostIDs(ctx context.Context, userID string, postIDs []string) ([]string, error)
}

// PostPublisher is implemented by stores that can ensure the author's user row
// and insert the post in one atomic operation.
type PostPublisher interface {
	PublishPost(ctx context.Context, author models.User, content string) (*models.Post, error)
}

type AuthListener func(event models.AuthEvent, session *models.Session)

// Auth is the auth subsystem as seen by one client. It holds that client's
// current session and notifies listeners whenever it changes.
type Auth interface {
	SignUp(ctx context.Context, email, password, username string) (*models.Session, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context) error
	// Session returns the current session, refreshing it when needed, or nil
	// when signed out.
	Session(ctx context.Context) (*models.Session, error)
	// Restore adopts tokens issued earlier, for example kept in a cookie.
	Restore(ctx context.Context, accessToken, refreshToken string) (*models.Session, error)
	OnAuthStateChange(fn AuthListener) (unsubscribe func())
}

type Service interface {
	Store
	NewAuth() Auth
	Close() error
}
