package models

import "time"

const (
	// MaxContentLength is the longest post, counted in characters.
	MaxContentLength = 280

	UnknownUsername   = "Unknown user"
	AnonymousUsername = "Anonymous"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Post is a row of the posts table. User is filled in by the feed join and is
// never written back.
type Post struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	LikesCount int       `json:"likes_count"`

	User *User `json:"user,omitempty"`
}

// AuthorName returns the joined author's username or a placeholder.
func (p Post) AuthorName() string {
	if p.User == nil || p.User.Username == "" {
		return UnknownUsername
	}
	return p.User.Username
}

type Like struct {
	UserID string `json:"user_id"`
	PostID string `json:"post_id"`
}

type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type AuthEvent int

const (
	InitialSession AuthEvent = iota + 1
	SignedIn
	SignedOut
	TokenRefreshed
)

func (e AuthEvent) String() string {
	switch e {
	case InitialSession:
		return "INITIAL_SESSION"
	case SignedIn:
		return "SIGNED_IN"
	case SignedOut:
		return "SIGNED_OUT"
	case TokenRefreshed:
		return "TOKEN_REFRESHED"
	default:
		return "UNKNOWN"
	}
}
