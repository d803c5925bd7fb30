package api

import (
	"context"
)

type keyType string

const (
	requestIDKey keyType = "requestID"
	adminKey     keyType = "admin"
)

func ctxWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func ctxGetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ctxWithAdmin marks the request as carrying a verified admin token
func ctxWithAdmin(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, adminKey, username)
}

func ctxGetAdmin(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(adminKey).(string)
	return username, ok && username != ""
}
