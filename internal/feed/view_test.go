package feed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/srikaanthtb/bolt-forum/internal/backend"
	"github.com/srikaanthtb/bolt-forum/internal/backend/backendmock"
	"github.com/srikaanthtb/bolt-forum/internal/feed"
	"github.com/srikaanthtb/bolt-forum/internal/models"
)

func TestView_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("loads posts with liked state", func(t *testing.T) {
		t.Parallel()

		store := &backendmock.Store{}
		store.On("ListPosts", mock.Anything, backend.PostFilter{}).Return(testPosts(), nil)
		store.On("GetUsersByIDs", mock.Anything, []string{"a", "b"}).Return([]models.User{alice, bob}, nil)
		store.On("LikedPostIDs", mock.Anything, "a", []string{"1", "2", "3"}).Return([]string{"3"}, nil)

		view := feed.NewSynchronizer(store, logger).NewView(feed.All(), &alice)
		require.NoError(t, view.Refresh(context.Background()))
		require.False(t, view.Loading())
		require.NoError(t, view.Err())

		items := view.Items()
		require.Len(t, items, 3)
		require.False(t, items[0].Liked)
		require.True(t, items[2].Liked)
		require.Equal(t, "bob", items[1].Post.AuthorName())
		require.NotNil(t, view.Toggle("1"))
		require.Nil(t, view.Toggle("missing"))
	})

	t.Run("keeps the fetch error", func(t *testing.T) {
		t.Parallel()

		store := &backendmock.Store{}
		store.On("ListPosts", mock.Anything, backend.PostFilter{}).Return(nil, errBackend)

		view := feed.NewSynchronizer(store, logger).NewView(feed.All(), nil)
		err := view.Refresh(context.Background())
		require.True(t, models.IsKind(err, models.KindFetch))
		require.Equal(t, err, view.Err())
		require.Empty(t, view.Items())
	})

	t.Run("result after close is dropped", func(t *testing.T) {
		t.Parallel()

		var view *feed.View
		store := &backendmock.Store{}
		store.On("ListPosts", mock.Anything, backend.PostFilter{}).
			Run(func(mock.Arguments) { view.Close() }).
			Return(testPosts(), nil)
		store.On("GetUsersByIDs", mock.Anything, mock.Anything).Return([]models.User{alice}, nil)

		view = feed.NewSynchronizer(store, logger).NewView(feed.All(), nil)
		require.NoError(t, view.Refresh(context.Background()))
		require.Empty(t, view.Items())
	})

	t.Run("stale result is dropped", func(t *testing.T) {
		t.Parallel()

		var view *feed.View
		store := &backendmock.Store{}
		// The first load starts a newer refresh before it returns.
		store.On("ListPosts", mock.Anything, backend.PostFilter{}).
			Run(func(mock.Arguments) { require.NoError(t, view.Refresh(context.Background())) }).
			Return(testPosts(), nil).Once()
		store.On("ListPosts", mock.Anything, backend.PostFilter{}).
			Return([]models.Post{{ID: "9", UserID: "b"}}, nil).Once()
		store.On("GetUsersByIDs", mock.Anything, mock.Anything).Return([]models.User{bob}, nil)

		view = feed.NewSynchronizer(store, logger).NewView(feed.All(), nil)
		require.NoError(t, view.Refresh(context.Background()))

		posts := view.Posts()
		require.Len(t, posts, 1)
		require.Equal(t, "9", posts[0].ID)
	})
}

func TestView_Toggle(t *testing.T) {
	t.Parallel()

	store := &backendmock.Store{}
	store.On("ListPosts", mock.Anything, backend.PostFilter{}).Return(testPosts(), nil)
	store.On("GetUsersByIDs", mock.Anything, mock.Anything).Return([]models.User{alice, bob}, nil)
	store.On("LikedPostIDs", mock.Anything, "b", mock.Anything).Return([]string{}, nil)
	store.On("InsertLike", mock.Anything, models.Like{UserID: "b", PostID: "1"}).Return(nil)
	store.On("CountLikes", mock.Anything, "1").Return(3, nil)

	view := feed.NewSynchronizer(store, logger).NewView(feed.All(), &bob)
	require.NoError(t, view.Refresh(context.Background()))

	state, err := view.Toggle("1").Toggle(context.Background(), &bob)
	require.NoError(t, err)
	require.Equal(t, feed.LikeState{Liked: true, Count: 3}, state)

	items := view.Items()
	require.True(t, items[0].Liked)
	require.Equal(t, 3, items[0].Post.LikesCount)
	require.Equal(t, "alice", items[0].Post.AuthorName())
}

func TestView_Composer(t *testing.T) {
	t.Parallel()

	store := &backendmock.Store{}
	store.On("ListPosts", mock.Anything, backend.PostFilter{}).Return([]models.Post{}, nil).Once()
	store.On("ListPosts", mock.Anything, backend.PostFilter{}).Return([]models.Post{{ID: "1", UserID: "a", Content: "hi"}}, nil).Once()
	store.On("GetUsersByIDs", mock.Anything, []string{"a"}).Return([]models.User{alice}, nil)
	store.On("LikedPostIDs", mock.Anything, "a", []string{"1"}).Return([]string{}, nil)
	store.On("UpsertUser", mock.Anything, alice).Return(nil)
	store.On("InsertPost", mock.Anything, "a", "hi").Return(&models.Post{ID: "1", UserID: "a", Content: "hi"}, nil)

	view := feed.NewSynchronizer(store, logger).NewView(feed.All(), &alice)
	require.NoError(t, view.Refresh(context.Background()))
	require.Empty(t, view.Items())

	composer := view.Composer()
	composer.SetContent("hi")
	_, err := composer.Submit(context.Background(), &alice)
	require.NoError(t, err)

	posts := view.Posts()
	require.Len(t, posts, 1)
	require.Equal(t, "alice", posts[0].AuthorName())
}
