// Package actorctx carries the authenticated user through a request's context.
// The value lives exactly as long as the request.
package actorctx

import (
	"context"

	"github.com/geocoder89/authportal/internal/domain/user"
)

type ctxKey struct{}

func WithUser(ctx context.Context, u user.View) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFrom(ctx context.Context) (user.View, bool) {
	v, ok := ctx.Value(ctxKey{}).(user.View)

	return v, ok && v.ID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	u, ok := UserFrom(ctx)

	return u.ID, ok
}
