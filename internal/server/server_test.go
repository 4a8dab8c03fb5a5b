package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/srikaanthtb/bolt-forum/internal/backend"
	"github.com/srikaanthtb/bolt-forum/internal/db"
	"github.com/srikaanthtb/bolt-forum/internal/models"
)

func newTestServer(t *testing.T) (*Server, *db.Store) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	store, err := db.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv, err := New(store, logger, Options{})
	require.NoError(t, err)
	return srv, store
}

func postForm(t *testing.T, srv *Server, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func get(t *testing.T, srv *Server, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func cookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func signUp(t *testing.T, srv *Server, email, username string) []*http.Cookie {
	t.Helper()

	form := url.Values{"email": {email}, "username": {username}, "password": {"secret"}}
	w := postForm(t, srv, "/signup", form, nil)
	require.Equal(t, http.StatusSeeOther, w.Code)

	access := cookie(w, accessCookie)
	require.NotNil(t, access)
	require.NotEmpty(t, access.Value)
	return []*http.Cookie{access}
}

func TestSignUpSignInSignOut(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	signUp(t, srv, "a@b.com", "alice")

	w := postForm(t, srv, "/signin", url.Values{"email": {"a@b.com"}, "password": {"wrong"}}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Invalid email or password.")
	require.Nil(t, cookie(w, accessCookie))

	w = postForm(t, srv, "/signin", url.Values{"email": {"a@b.com"}, "password": {"secret"}}, nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	access := cookie(w, accessCookie)
	require.NotNil(t, access)

	w = get(t, srv, "/profile", []*http.Cookie{access})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "alice")

	w = postForm(t, srv, "/signout", url.Values{}, []*http.Cookie{access})
	require.Equal(t, http.StatusSeeOther, w.Code)
	cleared := cookie(w, accessCookie)
	require.NotNil(t, cleared)
	require.Negative(t, cleared.MaxAge)

	w = get(t, srv, "/profile", []*http.Cookie{access})
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/signin", w.Header().Get("Location"))
}

func TestSignUpCreatesProfile(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer(t)
	cookies := signUp(t, srv, "a@b.com", "alice")

	auth := store.NewAuth()
	session, err := auth.Restore(context.Background(), cookies[0].Value, "")
	require.NoError(t, err)

	user, err := store.GetUserByID(context.Background(), session.User.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
}

func TestSignUpValidation(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	w := postForm(t, srv, "/signup", url.Values{"email": {"not-an-email"}, "username": {"alice"}, "password": {"secret"}}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), "not-an-email")

	signUp(t, srv, "a@b.com", "alice")
	w = postForm(t, srv, "/signup", url.Values{"email": {"a@b.com"}, "username": {"alice2"}, "password": {"secret"}}, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "An account with this email already exists.")
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	w := postForm(t, srv, "/posts", url.Values{"content": {"hello"}}, nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/signin", w.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodPost, "/posts/1/like", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreatePostAndLike(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer(t)
	cookies := signUp(t, srv, "a@b.com", "alice")

	w := postForm(t, srv, "/posts", url.Values{"content": {"  hello world  "}, "redirect": {"/profile"}}, cookies)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/profile", w.Header().Get("Location"))

	posts, err := store.ListPosts(context.Background(), backend.PostFilter{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "hello world", posts[0].Content)
	postID := posts[0].ID

	w = get(t, srv, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "hello world")
	require.Contains(t, w.Body.String(), "alice")

	like := func(liked bool, count int) likeResponse {
		form := url.Values{"liked": {boolString(liked)}, "likes_count": {strconv.Itoa(count)}}
		req := httptest.NewRequest(http.MethodPost, "/posts/"+postID+"/like", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var res likeResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
		return res
	}

	res := like(false, 0)
	require.True(t, res.Liked)
	require.Equal(t, 1, res.Count)

	res = like(true, 1)
	require.False(t, res.Liked)
	require.Equal(t, 0, res.Count)

	w = postForm(t, srv, "/posts/"+postID+"/like", url.Values{"liked": {"false"}, "likes_count": {"0"}}, cookies)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/#post-"+postID, w.Header().Get("Location"))

	count, err := store.CountLikes(context.Background(), postID)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestCreatePostErrors(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer(t)
	cookies := signUp(t, srv, "a@b.com", "alice")

	w := postForm(t, srv, "/posts", url.Values{"content": {"   "}}, cookies)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), "Write something before posting.")

	posts, err := store.ListPosts(context.Background(), backend.PostFilter{})
	require.NoError(t, err)
	require.Empty(t, posts)
}

func TestLikeUnknownPost(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	cookies := signUp(t, srv, "a@b.com", "alice")

	form := url.Values{"liked": {"false"}, "likes_count": {"0"}}
	req := httptest.NewRequest(http.MethodPost, "/posts/missing/like", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.AddCookie(cookies[0])
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)

	var res likeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	require.False(t, res.Liked)
	require.Equal(t, "Could not save your changes. Please try again.", res.Error)
}

func TestLikeFormStartsFromStoredState(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer(t)
	cookies := signUp(t, srv, "a@b.com", "alice")

	w := postForm(t, srv, "/posts", url.Values{"content": {"hello"}}, cookies)
	require.Equal(t, http.StatusSeeOther, w.Code)
	posts, err := store.ListPosts(context.Background(), backend.PostFilter{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	postID := posts[0].ID

	// The form claims a liked post with 5 likes; the store has none.
	w = postForm(t, srv, "/posts/"+postID+"/like", url.Values{"liked": {"true"}, "likes_count": {"5"}}, cookies)
	require.Equal(t, http.StatusSeeOther, w.Code)
	count, err := store.CountLikes(context.Background(), postID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	w = postForm(t, srv, "/posts/"+postID+"/like", url.Values{"liked": {"false"}, "likes_count": {"0"}}, cookies)
	require.Equal(t, http.StatusSeeOther, w.Code)
	count, err = store.CountLikes(context.Background(), postID)
	require.NoError(t, err)
	require.Zero(t, count)

	w = postForm(t, srv, "/posts/missing/like", url.Values{}, cookies)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "That post is no longer available.")
	require.Contains(t, w.Body.String(), "hello")
}

func TestCreatePostCountsCharacters(t *testing.T) {
	t.Parallel()

	srv, store := newTestServer(t)
	cookies := signUp(t, srv, "a@b.com", "alice")

	w := get(t, srv, "/", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "maxlength")
	require.Contains(t, w.Body.String(), "280 characters left")

	w = postForm(t, srv, "/posts", url.Values{"content": {strings.Repeat("😀", models.MaxContentLength+1)}}, cookies)
	require.Equal(t, http.StatusSeeOther, w.Code)

	posts, err := store.ListPosts(context.Background(), backend.PostFilter{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, strings.Repeat("😀", models.MaxContentLength), posts[0].Content)
}

func TestWithDeadline(t *testing.T) {
	t.Parallel()

	handler := func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Deadline(); ok {
			<-r.Context().Done()
			w.Write([]byte("late page")) //nolint:errcheck
			return
		}
		w.Write([]byte("page")) //nolint:errcheck
	}

	srv := &Server{requestTimeout: time.Millisecond}
	w := httptest.NewRecorder()
	srv.withDeadline(http.HandlerFunc(handler)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "late page", w.Body.String())

	srv = &Server{}
	w = httptest.NewRecorder()
	srv.withDeadline(http.HandlerFunc(handler)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "page", w.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	w := get(t, srv, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", w.Body.String())

	get(t, srv, "/", nil)
	w = get(t, srv, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "forum_http_request_duration_seconds")
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	require.Equal(t, http.StatusUnprocessableEntity, statusFor(models.ValidationError("create post", models.ErrEmptyContent)))
	require.Equal(t, http.StatusConflict, statusFor(models.ErrInFlight))
	require.Equal(t, http.StatusUnauthorized, statusFor(models.AuthError("sign in", models.ErrInvalidCredentials)))
	require.Equal(t, http.StatusBadGateway, statusFor(models.WriteError("like post", context.DeadlineExceeded)))
	require.Equal(t, "Posts are limited to 280 characters.", userMessage(models.ValidationError("create post", models.ErrContentTooLong)))
	require.Equal(t, "3 minutes", plural(3, "minute"))
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
