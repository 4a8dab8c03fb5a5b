package server

import (
	"context"
	"net/http"
	"time"

	"github.com/srikaanthtb/bolt-forum/internal/models"
	"github.com/srikaanthtb/bolt-forum/internal/session"
)

const (
	accessCookie  = "sb_access"
	refreshCookie = "sb_refresh"

	refreshCookieTTL = 30 * 24 * time.Hour
)

// withSession gives each request its own session provider, restored from the
// session cookies. The cookies follow every later change of the session.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		provider := session.NewProvider(s.service.NewAuth(), s.service, loggerFrom(ctx))
		defer provider.Close()
		provider.Subscribe(s.writeCookies(w))

		access, refresh := cookieValue(r, accessCookie), cookieValue(r, refreshCookie)
		if access == "" && refresh == "" {
			provider.Load(ctx)
		} else {
			provider.Restore(ctx, access, refresh)
		}

		ctx = context.WithValue(ctx, providerContextKey, provider)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func providerFrom(ctx context.Context) *session.Provider {
	return ctx.Value(providerContextKey).(*session.Provider)
}

func (s *Server) writeCookies(w http.ResponseWriter) session.Observer {
	return func(c session.Change) {
		switch c.Event {
		case models.SignedIn, models.TokenRefreshed:
			if c.Session == nil {
				return
			}
			s.setCookie(w, accessCookie, c.Session.AccessToken, c.Session.ExpiresAt)
			if c.Session.RefreshToken == "" {
				s.clearCookie(w, refreshCookie)
			} else {
				s.setCookie(w, refreshCookie, c.Session.RefreshToken, time.Now().Add(refreshCookieTTL))
			}
		case models.SignedOut:
			s.clearCookie(w, accessCookie)
			s.clearCookie(w, refreshCookie)
		}
	}
}

func (s *Server) setCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// requireAuth redirects signed-out visitors to the sign-in page, or answers
// 401 to JSON clients.
func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, *models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := providerFrom(r.Context()).User()
		if user == nil {
			if wantsJSON(r) {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: userMessage(models.ErrNotSignedIn)})
				return
			}
			http.Redirect(w, r, "/signin", http.StatusSeeOther)
			return
		}
		next(w, r, user)
	}
}
