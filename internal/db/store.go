package db

import (
	"context"
	"fmt"

	"github.com/srikaanthtb/bolt-forum/internal/backend"
	"github.com/srikaanthtb/bolt-forum/internal/models"
)

func (s *Store) ListPosts(ctx context.Context, filter backend.PostFilter) ([]models.Post, error) {
	return listPosts(ctx, s.DB, filter.UserID)
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	return getUsersByIDs(ctx, s.DB, ids)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return getUserByID(ctx, s.DB, id)
}

func (s *Store) UpsertUser(ctx context.Context, user models.User) error {
	return upsertUser(ctx, s.DB, user)
}

func (s *Store) InsertPost(ctx context.Context, userID, content string) (*models.Post, error) {
	return insertPost(ctx, s.DB, userID, content)
}

func (s *Store) InsertLike(ctx context.Context, like models.Like) error {
	return insertLike(ctx, s.DB, like)
}

func (s *Store) DeleteLike(ctx context.Context, like models.Like) error {
	return deleteLike(ctx, s.DB, like)
}

func (s *Store) CountLikes(ctx context.Context, postID string) (int, error) {
	return countLikes(ctx, s.DB, postID)
}

func (s *Store) LikedPostIDs(ctx context.Context, userID string, postIDs []string) ([]string, error) {
	return likedPostIDs(ctx, s.DB, userID, postIDs)
}

// PublishPost upserts the author and inserts the post in one transaction, so
// a failed insert never leaves the author row half-written.
func (s *Store) PublishPost(ctx context.Context, author models.User, content string) (*models.Post, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	if err := upsertUser(ctx, tx, author); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("upsert author: %w", err)
	}
	post, err := insertPost(ctx, tx, author.ID, content)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return post, tx.Commit()
}
