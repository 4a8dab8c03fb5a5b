package feed

import (
	"context"
	"sync"

	"github.com/srikaanthtb/bolt-forum/internal/models"
)

// Item is a post as a screen shows it.
type Item struct {
	Post  models.Post
	Liked bool
}

// View is the post list behind one screen. Results of a refresh that was
// overtaken by a newer one, or that finished after Close, are dropped.
type View struct {
	sync   *Synchronizer
	scope  Scope
	viewer *models.User

	mu         sync.Mutex
	items      []Item
	toggles    map[string]*LikeToggle
	loading    bool
	err        error
	generation uint64
	closed     bool
}

func (s *Synchronizer) NewView(scope Scope, viewer *models.User) *View {
	return &View{
		sync:    s,
		scope:   scope,
		viewer:  viewer,
		toggles: map[string]*LikeToggle{},
	}
}

// Refresh reloads the list from the store. It returns the fetch error of
// this refresh even when its result was dropped as stale.
func (v *View) Refresh(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.generation++
	generation := v.generation
	v.loading = true
	v.mu.Unlock()

	posts, err := v.sync.Load(ctx, v.scope)
	liked := v.sync.LikedSet(ctx, v.viewer, posts)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || generation != v.generation {
		return err
	}

	v.loading = false
	v.err = err
	v.items = make([]Item, len(posts))
	v.toggles = make(map[string]*LikeToggle, len(posts))
	for i, post := range posts {
		v.items[i] = Item{Post: post, Liked: liked[post.ID]}
		v.toggles[post.ID] = NewLikeToggle(v.sync.store, post, liked[post.ID], v.Update, v.sync.logger)
	}
	return err
}

func (v *View) Items() []Item {
	v.mu.Lock()
	defer v.mu.Unlock()

	items := make([]Item, len(v.items))
	for i, item := range v.items {
		if toggle, ok := v.toggles[item.Post.ID]; ok {
			item.Liked = toggle.State().Liked
		}
		items[i] = item
	}
	return items
}

func (v *View) Posts() []models.Post {
	items := v.Items()
	posts := make([]models.Post, len(items))
	for i, item := range items {
		posts[i] = item.Post
	}
	return posts
}

func (v *View) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// Err is the fetch error of the last applied refresh.
func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Update replaces the post with the same id, keeping its author when the
// update carries none.
func (v *View) Update(post models.Post) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}

	for i, item := range v.items {
		if item.Post.ID != post.ID {
			continue
		}
		if post.User == nil {
			post.User = item.Post.User
		}
		v.items[i].Post = post
	}
}

// Toggle returns the like toggle of a listed post, or nil.
func (v *View) Toggle(postID string) *LikeToggle {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.toggles[postID]
}

// Composer returns a compose box that refreshes this view after posting.
func (v *View) Composer() *Composer {
	return NewComposer(v.sync.store, v.Refresh, v.sync.logger)
}

func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
}
