// Package backendmock provides testify mocks of the backend interfaces.
package backendmock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/srikaanthtb/bolt-forum/internal/backend"
	"github.com/srikaanthtb/bolt-forum/internal/models"
)

type Store struct {
	mock.Mock
}

var _ backend.Store = (*Store)(nil)

func (m *Store) ListPosts(ctx context.Context, filter backend.PostFilter) ([]models.Post, error) {
	args := m.Called(ctx, filter)
	posts, _ := args.Get(0).([]models.Post)
	return posts, args.Error(1)
}

func (m *Store) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	args := m.Called(ctx, ids)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *Store) UpsertUser(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *Store) InsertPost(ctx context.Context, userID, content string) (*models.Post, error) {
	args := m.Called(ctx, userID, content)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func (m *Store) InsertLike(ctx context.Context, like models.Like) error {
	args := m.Called(ctx, like)
	return args.Error(0)
}

func (m *Store) DeleteLike(ctx context.Context, like models.Like) error {
	args := m.Called(ctx, like)
	return args.Error(0)
}

func (m *Store) CountLikes(ctx context.Context, postID string) (int, error) {
	args := m.Called(ctx, postID)
	return args.Int(0), args.Error(1)
}

func (m *Store) LikedPostIDs(ctx context.Context, userID string, postIDs []string) ([]string, error) {
	args := m.Called(ctx, userID, postIDs)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

// PublishingStore is a Store that also publishes posts atomically.
type PublishingStore struct {
	Store
}

var _ backend.PostPublisher = (*PublishingStore)(nil)

func (m *PublishingStore) PublishPost(ctx context.Context, author models.User, content string) (*models.Post, error) {
	args := m.Called(ctx, author, content)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}
