package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/srikaanthtb/bolt-forum/internal/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type authUser struct {
	models.User
	PasswordHash string
}

type session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func now() time.Time {
	return time.Now().UTC()
}

func createAuthUser(ctx context.Context, q querier, email, username, passwordHash string) (*models.User, error) {
	u := models.User{ID: uuid.NewString(), Email: email, Username: username, CreatedAt: now()}
	_, err := q.ExecContext(ctx, `INSERT INTO auth_users (id, email, username, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Username, passwordHash, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicateEmail
		}
		return nil, err
	}
	return &u, nil
}

func getAuthUserByEmail(ctx context.Context, q querier, email string) (*authUser, error) {
	row := q.QueryRowContext(ctx, `SELECT id, email, username, password_hash, created_at FROM auth_users WHERE email = ?`, email)
	var u authUser
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func getAuthUserByID(ctx context.Context, q querier, id string) (*models.User, error) {
	row := q.QueryRowContext(ctx, `SELECT id, email, username, created_at FROM auth_users WHERE id = ?`, id)
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func createSession(ctx context.Context, q querier, userID string, expires time.Time) (*session, error) {
	s := session{ID: uuid.NewString(), UserID: userID, CreatedAt: now(), ExpiresAt: expires.UTC()}
	_, err := q.ExecContext(ctx, `INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.UserID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func getSession(ctx context.Context, q querier, id string) (*session, error) {
	row := q.QueryRowContext(ctx, `SELECT id, user_id, created_at, expires_at, revoked_at FROM sessions WHERE id = ?`, id)
	var s session
	var revoked sql.NullTime
	err := row.Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt, &revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if revoked.Valid {
		s.RevokedAt = &revoked.Time
	}
	return &s, nil
}

func revokeSession(ctx context.Context, q querier, id string) error {
	_, err := q.ExecContext(ctx, `UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`, now(), id)
	return err
}

func upsertUser(ctx context.Context, q querier, u models.User) error {
	_, err := q.ExecContext(ctx, `INSERT INTO users (id, email, username, created_at) VALUES (?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET email = excluded.email, username = excluded.username`,
		u.ID, u.Email, u.Username, now())
	if isUniqueViolation(err) {
		return models.ErrDuplicateEmail
	}
	return err
}

func getUserByID(ctx context.Context, q querier, id string) (*models.User, error) {
	row := q.QueryRowContext(ctx, `SELECT id, email, username, created_at FROM users WHERE id = ?`, id)
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func getUsersByIDs(ctx context.Context, q querier, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := q.QueryContext(ctx, `SELECT id, email, username, created_at FROM users WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func insertPost(ctx context.Context, q querier, userID, content string) (*models.Post, error) {
	p := models.Post{ID: uuid.NewString(), UserID: userID, Content: content, CreatedAt: now()}
	_, err := q.ExecContext(ctx, `INSERT INTO posts (id, user_id, content, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.UserID, p.Content, p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func listPosts(ctx context.Context, q querier, userID string) ([]models.Post, error) {
	query := `SELECT id, user_id, content, created_at, likes_count FROM posts`
	args := []any{}
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Content, &p.CreatedAt, &p.LikesCount); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func insertLike(ctx context.Context, q querier, like models.Like) error {
	_, err := q.ExecContext(ctx, `INSERT INTO likes (user_id, post_id, created_at) VALUES (?, ?, ?)`, like.UserID, like.PostID, now())
	if isUniqueViolation(err) {
		return models.ErrDuplicate
	}
	return err
}

func deleteLike(ctx context.Context, q querier, like models.Like) error {
	_, err := q.ExecContext(ctx, `DELETE FROM likes WHERE user_id = ? AND post_id = ?`, like.UserID, like.PostID)
	return err
}

func countLikes(ctx context.Context, q querier, postID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = ?`, postID).Scan(&n)
	return n, err
}

func likedPostIDs(ctx context.Context, q querier, userID string, postIDs []string) ([]string, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(postIDs)+1)
	args = append(args, userID)
	for _, id := range postIDs {
		args = append(args, id)
	}
	rows, err := q.QueryContext(ctx, `SELECT post_id FROM likes WHERE user_id = ? AND post_id IN (`+placeholders(len(postIDs))+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
