package supabase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/srikaanthtb/bolt-forum/internal/models"
)

func (c *Client) InsertLike(ctx context.Context, like models.Like) error {
	res, err := c.r(ctx).
		SetHeader("Prefer", "return=minimal").
		SetBody(like).
		Post(likesPath)
	return check("insert like", res, err)
}

func (c *Client) DeleteLike(ctx context.Context, like models.Like) error {
	res, err := c.r(ctx).
		SetQueryParam("user_id", "eq."+like.UserID).
		SetQueryParam("post_id", "eq."+like.PostID).
		Delete(likesPath)
	return check("delete like", res, err)
}

// CountLikes asks PostgREST for an exact count and reads it from the
// Content-Range header ("*/42" or "0-9/42").
func (c *Client) CountLikes(ctx context.Context, postID string) (int, error) {
	res, err := c.r(ctx).
		SetHeader("Prefer", "count=exact").
		SetQueryParam("select", "post_id").
		SetQueryParam("post_id", "eq."+postID).
		Head(likesPath)
	if err := check("count likes", res, err); err != nil {
		return 0, err
	}

	contentRange := res.Header().Get("Content-Range")
	_, total, ok := strings.Cut(contentRange, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("count likes: unexpected Content-Range %q", contentRange)
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}

func (c *Client) LikedPostIDs(ctx context.Context, userID string, postIDs []string) ([]string, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}

	var likes []models.Like
	res, err := c.r(ctx).
		SetQueryParam("select", "user_id,post_id").
		SetQueryParam("user_id", "eq."+userID).
		SetQueryParam("post_id", inList(postIDs)).
		SetResult(&likes).
		Get(likesPath)
	if err := check("liked posts", res, err); err != nil {
		return nil, err
	}
	return lo.Map(likes, func(like models.Like, _ int) string {
		return like.PostID
	}), nil
}
