package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/srikaanthtb/bolt-forum/internal/feed"
	"github.com/srikaanthtb/bolt-forum/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// page is the data every template renders from.
type page struct {
	User *models.User
	Path string

	Items      []feed.Item
	FetchError bool
	Content    string
	MaxLength  int

	Email    string
	Username string

	Error  string
	Notice string
}

type signUpForm struct {
	Username string `validate:"required,max=50"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

type likeResponse struct {
	feed.LikeState
	Error string `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderFeed(w, r, http.StatusOK, "/", page{})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, _ *models.User) {
	s.renderFeed(w, r, http.StatusOK, "/profile", page{})
}

// openView loads the feed behind path: the global feed at "/", the
// signed-in user's own posts at "/profile". The caller closes the view.
func (s *Server) openView(r *http.Request, path string) (*feed.View, string) {
	ctx := r.Context()
	provider := providerFrom(ctx)
	user := provider.User()

	scope, name := feed.All(), "index"
	if path == "/profile" && user != nil {
		scope, name = feed.ByUser(user.ID), "profile"
	}

	view := s.feed.NewView(scope, user)
	_ = view.Refresh(provider.Context(ctx))
	return view, name
}

func (s *Server) renderView(w http.ResponseWriter, r *http.Request, status int, path, name string, view *feed.View, data page) {
	data.User = providerFrom(r.Context()).User()
	data.Path = path
	data.Items = view.Items()
	data.FetchError = view.Err() != nil
	data.MaxLength = models.MaxContentLength
	s.render(w, r, status, name, data)
}

func (s *Server) renderFeed(w http.ResponseWriter, r *http.Request, status int, path string, data page) {
	view, name := s.openView(r, path)
	defer view.Close()
	s.renderView(w, r, status, path, name, view, data)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request, user *models.User) {
	ctx := r.Context()
	redirect := safeRedirect(r.FormValue("redirect"))

	composer := feed.NewComposer(s.service, nil, loggerFrom(ctx))
	composer.SetContent(r.FormValue("content"))

	if _, err := composer.Submit(providerFrom(ctx).Context(ctx), user); err != nil {
		s.renderFeed(w, r, statusFor(err), redirect, page{
			Content: composer.Content(),
			Error:   userMessage(err),
		})
		return
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// handleLike toggles a like. JSON clients hold the like state themselves and
// send it in the form; form posts start from the state the feed reads back.
func (s *Server) handleLike(w http.ResponseWriter, r *http.Request, user *models.User) {
	ctx := r.Context()
	postID := chi.URLParam(r, "id")

	if wantsJSON(r) {
		liked, _ := strconv.ParseBool(r.FormValue("liked"))
		count, _ := strconv.Atoi(r.FormValue("likes_count"))

		post := models.Post{ID: postID, LikesCount: max(count, 0)}
		toggle := feed.NewLikeToggle(s.service, post, liked, nil, loggerFrom(ctx))
		state, err := toggle.Toggle(providerFrom(ctx).Context(ctx), user)
		if err != nil {
			writeJSON(w, statusFor(err), likeResponse{LikeState: state, Error: userMessage(err)})
			return
		}
		writeJSON(w, http.StatusOK, likeResponse{LikeState: state})
		return
	}

	redirect := safeRedirect(r.FormValue("redirect"))
	view, name := s.openView(r, redirect)
	defer view.Close()

	if err := view.Err(); err != nil {
		s.renderView(w, r, statusFor(err), redirect, name, view, page{Error: userMessage(err)})
		return
	}
	toggle := view.Toggle(postID)
	if toggle == nil {
		s.renderView(w, r, http.StatusNotFound, redirect, name, view, page{Error: "That post is no longer available."})
		return
	}
	if _, err := toggle.Toggle(providerFrom(ctx).Context(ctx), user); err != nil {
		s.renderView(w, r, statusFor(err), redirect, name, view, page{Error: userMessage(err)})
		return
	}
	http.Redirect(w, r, redirect+"#post-"+postID, http.StatusSeeOther)
}

func (s *Server) handleSignInForm(w http.ResponseWriter, r *http.Request) {
	provider := providerFrom(r.Context())
	if provider.User() != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "signin", page{})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if _, err := providerFrom(ctx).SignIn(ctx, email, password); err != nil {
		loggerFrom(ctx).Info("sign in failed", "error", err)
		s.render(w, r, statusFor(err), "signin", page{Email: email, Error: userMessage(err)})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSignUpForm(w http.ResponseWriter, r *http.Request) {
	provider := providerFrom(r.Context())
	if provider.User() != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "signup", page{})
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form := signUpForm{
		Username: strings.TrimSpace(r.FormValue("username")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	data := page{Email: form.Email, Username: form.Username}

	if err := validate.Struct(form); err != nil {
		data.Error = "Enter a username and a valid email. Passwords need at least 6 characters."
		s.render(w, r, http.StatusUnprocessableEntity, "signup", data)
		return
	}

	session, err := providerFrom(ctx).SignUp(ctx, form.Email, form.Password, form.Username)
	if err != nil {
		loggerFrom(ctx).Info("sign up failed", "error", err)
		data.Error = userMessage(err)
		s.render(w, r, statusFor(err), "signup", data)
		return
	}
	if session.AccessToken == "" {
		s.render(w, r, http.StatusOK, "signin", page{
			Email:  form.Email,
			Notice: "Check your email to confirm your account, then sign in.",
		})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := providerFrom(ctx).SignOut(ctx); err != nil {
		loggerFrom(ctx).Error("sign out failed", "error", err)
		http.Error(w, userMessage(err), statusFor(err))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// statusFor maps an error to the status of the response reporting it.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, models.ErrInFlight), errors.Is(err, models.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, models.ErrNotSignedIn):
		return http.StatusUnauthorized
	case models.IsKind(err, models.KindValidation):
		return http.StatusUnprocessableEntity
	case models.IsKind(err, models.KindWrite), models.IsKind(err, models.KindFetch), models.IsKind(err, models.KindAuth):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrNotSignedIn):
		return "Sign in to continue."
	case errors.Is(err, models.ErrEmptyContent):
		return "Write something before posting."
	case errors.Is(err, models.ErrContentTooLong):
		return "Posts are limited to " + strconv.Itoa(models.MaxContentLength) + " characters."
	case errors.Is(err, models.ErrInFlight):
		return "Still working on your last request."
	case errors.Is(err, models.ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, models.ErrDuplicateEmail):
		return "An account with this email already exists."
	case models.IsKind(err, models.KindWrite):
		return "Could not save your changes. Please try again."
	case models.IsKind(err, models.KindAuth):
		return "The sign-in service is unavailable. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

func safeRedirect(path string) string {
	if path == "/profile" {
		return path
	}
	return "/"
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
