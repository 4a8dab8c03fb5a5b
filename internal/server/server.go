package server

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/srikaanthtb/bolt-forum/internal/backend"
	"github.com/srikaanthtb/bolt-forum/internal/feed"
	"github.com/srikaanthtb/bolt-forum/internal/metrics"
	"github.com/srikaanthtb/bolt-forum/web"
)

type Options struct {
	// RequestTimeout bounds the handling of one request. Zero means no bound.
	RequestTimeout time.Duration
	SecureCookies  bool
}

type Server struct {
	service backend.Service
	feed    *feed.Synchronizer
	logger  *slog.Logger

	tmpl map[string]*template.Template

	secureCookies  bool
	requestTimeout time.Duration
	router         http.Handler
}

var pages = []string{"index", "profile", "signin", "signup"}

func New(service backend.Service, logger *slog.Logger, opts Options) (*Server, error) {
	logger = logger.With("component", "server.Server")

	funcs := template.FuncMap{
		"ago":       ago,
		"remaining": remaining,
	}

	templates := map[string]*template.Template{}
	for _, page := range pages {
		t, err := template.New(page).Funcs(funcs).
			ParseFS(web.Templates, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, err
		}
		templates[page] = t
	}

	s := &Server{
		service:        service,
		feed:           feed.NewSynchronizer(service, logger),
		logger:         logger,
		tmpl:           templates,
		secureCookies:  opts.SecureCookies,
		requestTimeout: opts.RequestTimeout,
	}

	router, err := s.routes()
	if err != nil {
		return nil, err
	}
	s.router = router
	return s, nil
}

func (s *Server) routes() (http.Handler, error) {
	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		return nil, err
	}

	r := chi.NewMux()
	r.Use(s.withLogger, s.logRequests, s.recoverPanics)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok")) //nolint:errcheck
	})
	r.Handle("/metrics", metrics.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Group(func(r chi.Router) {
		r.Use(s.withDeadline, s.withSession)

		r.Get("/", s.handleIndex)
		r.Get("/profile", s.requireAuth(s.handleProfile))
		r.Get("/signin", s.handleSignInForm)
		r.Post("/signin", s.handleSignIn)
		r.Get("/signup", s.handleSignUpForm)
		r.Post("/signup", s.handleSignUp)
		r.Post("/signout", s.handleSignOut)
		r.Post("/posts", s.requireAuth(s.handleCreatePost))
		r.Post("/posts/{id}/like", s.requireAuth(s.handleLike))
	})

	return r, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error shutting down", "error", err)
		}
	}()

	s.logger.Info("listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	t, ok := s.tmpl[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		loggerFrom(r.Context()).Error("error rendering template", "template", name, "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w) //nolint:errcheck
}

// ago formats t relative to now, the way the feed shows post times.
func ago(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour") + " ago"
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day") + " ago"
	default:
		return t.Format("Jan 2, 2006")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}

func remaining(content string, limit int) int {
	return max(limit-utf8.RuneCountInString(content), 0)
}
