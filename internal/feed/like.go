package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/srikaanthtb/bolt-forum/internal/backend"
	"github.com/srikaanthtb/bolt-forum/internal/metrics"
	"github.com/srikaanthtb/bolt-forum/internal/models"
)

type LikeState struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// LikeToggle is the local like state of one rendered post. The state only
// changes after the store accepted the write; the counter is then re-read
// from the store, falling back to a ±1 estimate when that read fails.
type LikeToggle struct {
	store    backend.Store
	logger   *slog.Logger
	onUpdate func(models.Post)

	mu       sync.Mutex
	post     models.Post
	state    LikeState
	inFlight bool
}

func NewLikeToggle(store backend.Store, post models.Post, liked bool, onUpdate func(models.Post), logger *slog.Logger) *LikeToggle {
	return &LikeToggle{
		store:    store,
		logger:   logger.With("component", "feed.LikeToggle", "post_id", post.ID),
		onUpdate: onUpdate,
		post:     post,
		state:    LikeState{Liked: liked, Count: post.LikesCount},
	}
}

func (t *LikeToggle) State() LikeState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Toggle likes or unlikes the post as user. Without a user it does nothing.
// A failed write returns a write error and leaves the state as it was.
func (t *LikeToggle) Toggle(ctx context.Context, user *models.User) (LikeState, error) {
	t.mu.Lock()
	if user == nil {
		defer t.mu.Unlock()
		return t.state, nil
	}
	if t.inFlight {
		defer t.mu.Unlock()
		return t.state, models.ErrInFlight
	}
	t.inFlight = true
	before := t.state
	t.mu.Unlock()

	next, err := t.write(ctx, user, before)

	t.mu.Lock()
	t.inFlight = false
	if err != nil {
		state := t.state
		t.mu.Unlock()
		return state, err
	}
	t.state = next
	t.post.LikesCount = next.Count
	post := t.post
	t.mu.Unlock()

	if t.onUpdate != nil {
		t.onUpdate(post)
	}
	return next, nil
}

func (t *LikeToggle) write(ctx context.Context, user *models.User, before LikeState) (LikeState, error) {
	like := models.Like{UserID: user.ID, PostID: t.post.ID}
	next := before

	if before.Liked {
		if err := t.store.DeleteLike(ctx, like); err != nil {
			t.logger.Error("error unliking post", "user_id", user.ID, "error", err)
			metrics.LikeToggles.WithLabelValues("unlike", "error").Inc()
			return before, models.WriteError("unlike post", err)
		}
		metrics.LikeToggles.WithLabelValues("unlike", "ok").Inc()
		next.Liked = false
		next.Count = max(before.Count-1, 0)
	} else {
		err := t.store.InsertLike(ctx, like)
		switch {
		case errors.Is(err, models.ErrDuplicate):
			// Liked elsewhere already; the count below tells the truth.
			t.logger.Debug("post already liked", "user_id", user.ID)
		case err != nil:
			t.logger.Error("error liking post", "user_id", user.ID, "error", err)
			metrics.LikeToggles.WithLabelValues("like", "error").Inc()
			return before, models.WriteError("like post", err)
		default:
			next.Count = before.Count + 1
		}
		metrics.LikeToggles.WithLabelValues("like", "ok").Inc()
		next.Liked = true
	}

	count, err := t.store.CountLikes(ctx, t.post.ID)
	if err != nil {
		t.logger.Warn("error reconciling like count, keeping estimate", "error", err)
		return next, nil
	}
	next.Count = count
	return next, nil
}
