package backend

import "context"

type contextKey string

const accessTokenContextKey = contextKey("access-token")

// WithAccessToken makes store calls made with ctx act as the token's owner.
func WithAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, accessTokenContextKey, token)
}

func AccessToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenContextKey).(string)
	return token, ok && token != ""
}
