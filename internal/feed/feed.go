// Package feed loads posts joined with their authors and keeps a screen's
// like counters and post list in step with user actions.
package feed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/lo"

	"github.com/srikaanthtb/bolt-forum/internal/backend"
	"github.com/srikaanthtb/bolt-forum/internal/metrics"
	"github.com/srikaanthtb/bolt-forum/internal/models"
)

// Scope selects the posts a feed shows. The zero value is the global feed.
type Scope struct {
	UserID string
}

func All() Scope {
	return Scope{}
}

func ByUser(id string) Scope {
	return Scope{UserID: id}
}

func (s Scope) String() string {
	if s.UserID == "" {
		return "all"
	}
	return "user"
}

type Synchronizer struct {
	store  backend.Store
	logger *slog.Logger
}

func NewSynchronizer(store backend.Store, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		store:  store,
		logger: logger.With("component", "feed.Synchronizer"),
	}
}

// Load returns the posts in scope, newest first, each with its author
// attached. When the posts cannot be read it returns an empty slice and a
// fetch error. When only the authors cannot be read the posts are still
// returned, without authors, and the error is only logged.
func (s *Synchronizer) Load(ctx context.Context, scope Scope) ([]models.Post, error) {
	posts, err := s.store.ListPosts(ctx, backend.PostFilter{UserID: scope.UserID})
	if err != nil {
		s.logger.Error("error fetching posts", "scope", scope, "error", err)
		metrics.FeedLoads.WithLabelValues(scope.String(), "error").Inc()
		return []models.Post{}, models.FetchError("list posts", err)
	}
	if len(posts) == 0 {
		metrics.FeedLoads.WithLabelValues(scope.String(), "ok").Inc()
		return []models.Post{}, nil
	}

	users, err := s.authors(ctx, scope, posts)
	if err != nil {
		s.logger.Error("error fetching users", "scope", scope, "error", err)
		metrics.FeedLoads.WithLabelValues(scope.String(), "partial").Inc()
	} else {
		metrics.FeedLoads.WithLabelValues(scope.String(), "ok").Inc()
	}

	joined := make([]models.Post, len(posts))
	for i, post := range posts {
		post.User = nil
		if user, ok := users[post.UserID]; ok {
			post.User = &user
		}
		joined[i] = post
	}
	return joined, nil
}

// authors fetches the users behind posts keyed by id. A profile scope needs
// exactly one user; the global scope needs one batched lookup.
func (s *Synchronizer) authors(ctx context.Context, scope Scope, posts []models.Post) (map[string]models.User, error) {
	if scope.UserID != "" {
		user, err := s.store.GetUserByID(ctx, scope.UserID)
		if errors.Is(err, models.ErrNotFound) {
			return map[string]models.User{}, nil
		}
		if err != nil {
			return map[string]models.User{}, err
		}
		return map[string]models.User{user.ID: *user}, nil
	}

	ids := lo.Uniq(lo.Map(posts, func(post models.Post, _ int) string {
		return post.UserID
	}))
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return map[string]models.User{}, err
	}
	return lo.KeyBy(users, func(user models.User) string {
		return user.ID
	}), nil
}

// LikedSet returns the ids among posts that viewer has liked. Without a
// viewer, or when the lookup fails, nothing is liked.
func (s *Synchronizer) LikedSet(ctx context.Context, viewer *models.User, posts []models.Post) map[string]bool {
	if viewer == nil || len(posts) == 0 {
		return map[string]bool{}
	}

	ids := lo.Map(posts, func(post models.Post, _ int) string {
		return post.ID
	})
	liked, err := s.store.LikedPostIDs(ctx, viewer.ID, ids)
	if err != nil {
		s.logger.Error("error fetching likes", "user_id", viewer.ID, "error", err)
		return map[string]bool{}
	}
	return lo.Associate(liked, func(id string) (string, bool) {
		return id, true
	})
}
