package feed

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/srikaanthtb/bolt-forum/internal/backend"
	"github.com/srikaanthtb/bolt-forum/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type draft struct {
	Content string `validate:"required,max=280"`
}

// Composer is the compose box: the text being written and whether a
// submission is under way. The text survives every failed submission.
type Composer struct {
	store   backend.Store
	logger  *slog.Logger
	refresh func(context.Context) error

	mu         sync.Mutex
	content    string
	submitting bool
}

// NewComposer returns a composer that calls refresh after each published
// post. refresh may be nil.
func NewComposer(store backend.Store, refresh func(context.Context) error, logger *slog.Logger) *Composer {
	return &Composer{
		store:   store,
		logger:  logger.With("component", "feed.Composer"),
		refresh: refresh,
	}
}

// SetContent replaces the text, cutting it at MaxContentLength characters.
func (c *Composer) SetContent(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = truncate(content, models.MaxContentLength)
}

func (c *Composer) Content() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}

func (c *Composer) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Submit publishes the current text as user. Missing user and blank or
// over-long text fail validation without touching the store.
func (c *Composer) Submit(ctx context.Context, user *models.User) (*models.Post, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return nil, models.ErrInFlight
	}
	content := strings.TrimSpace(c.content)
	if err := validateSubmission(user, content); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.submitting = true
	c.mu.Unlock()

	post, err := c.publish(ctx, *user, content)

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.content = ""
	c.mu.Unlock()

	if c.refresh != nil {
		if err := c.refresh(ctx); err != nil {
			c.logger.Warn("error refreshing feed after post", "error", err)
		}
	}
	return post, nil
}

func (c *Composer) publish(ctx context.Context, user models.User, content string) (*models.Post, error) {
	author := models.User{ID: user.ID, Email: user.Email, Username: user.Username}
	if author.Username == "" {
		author.Username = models.AnonymousUsername
	}

	if publisher, ok := c.store.(backend.PostPublisher); ok {
		post, err := publisher.PublishPost(ctx, author, content)
		if err != nil {
			c.logger.Error("error publishing post", "user_id", user.ID, "error", err)
			return nil, models.WriteError("publish post", err)
		}
		return post, nil
	}

	if err := c.store.UpsertUser(ctx, author); err != nil {
		c.logger.Error("error ensuring user exists", "user_id", user.ID, "error", err)
		return nil, models.WriteError("upsert user", err)
	}
	post, err := c.store.InsertPost(ctx, user.ID, content)
	if err != nil {
		c.logger.Error("error inserting post", "user_id", user.ID, "error", err)
		return nil, models.WriteError("insert post", err)
	}
	return post, nil
}

func validateSubmission(user *models.User, content string) error {
	if user == nil {
		return models.ValidationError("create post", models.ErrNotSignedIn)
	}
	if err := validate.Struct(draft{Content: content}); err != nil {
		if content == "" {
			return models.ValidationError("create post", models.ErrEmptyContent)
		}
		return models.ValidationError("create post", models.ErrContentTooLong)
	}
	return nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
