package supabase

import (
	"context"

	"github.com/srikaanthtb/bolt-forum/internal/backend"
	"github.com/srikaanthtb/bolt-forum/internal/models"
)

const postColumns = "id,user_id,content,created_at,likes_count"

func (c *Client) ListPosts(ctx context.Context, filter backend.PostFilter) ([]models.Post, error) {
	posts := []models.Post{}

	req := c.r(ctx).
		SetQueryParam("select", postColumns).
		SetQueryParam("order", "created_at.desc").
		SetResult(&posts)
	if filter.UserID != "" {
		req.SetQueryParam("user_id", "eq."+filter.UserID)
	}

	res, err := req.Get(postsPath)
	if err := check("list posts", res, err); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) InsertPost(ctx context.Context, userID, content string) (*models.Post, error) {
	type newPost struct {
		UserID  string `json:"user_id"`
		Content string `json:"content"`
	}

	var created []models.Post
	res, err := c.r(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("select", postColumns).
		SetBody(newPost{UserID: userID, Content: content}).
		SetResult(&created).
		Post(postsPath)
	if err := check("insert post", res, err); err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, &Error{Op: "insert post", Status: res.StatusCode(), Message: "no row returned"}
	}
	return &created[0], nil
}
