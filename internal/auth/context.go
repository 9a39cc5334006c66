package auth

import (
	"context"

	"github.com/fdg312/nomnom/internal/userctx"
)

func WithUser(ctx context.Context, userID int64, role string) context.Context {
	return userctx.WithUser(ctx, userID, role)
}

func GetUserID(ctx context.Context) (int64, bool) {
	return userctx.GetUserID(ctx)
}
