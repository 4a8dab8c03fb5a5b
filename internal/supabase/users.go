package supabase

import (
	"context"

	"github.com/srikaanthtb/bolt-forum/internal/models"
)

const userColumns = "id,email,username,created_at"

func (c *Client) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var users []models.User
	res, err := c.r(ctx).
		SetQueryParam("select", userColumns).
		SetQueryParam("id", inList(ids)).
		SetResult(&users).
		Get(usersPath)
	if err := check("get users", res, err); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var users []models.User
	res, err := c.r(ctx).
		SetQueryParam("select", userColumns).
		SetQueryParam("id", "eq."+id).
		SetQueryParam("limit", "1").
		SetResult(&users).
		Get(usersPath)
	if err := check("get user", res, err); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, models.ErrNotFound
	}
	return &users[0], nil
}

// UpsertUser relies on PostgREST merge-duplicates, which overwrites every
// column sent in the body when the id already exists.
func (c *Client) UpsertUser(ctx context.Context, user models.User) error {
	type userRow struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Username string `json:"username"`
	}

	res, err := c.r(ctx).
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetQueryParam("on_conflict", "id").
		SetBody(userRow{ID: user.ID, Email: user.Email, Username: user.Username}).
		Post(usersPath)
	return check("upsert user", res, err)
}
