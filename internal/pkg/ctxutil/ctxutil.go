package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

// RequestData is what the auth middleware resolves for a request.
type RequestData struct {
	UserID uuid.UUID
	Email  string
}

type requestDataKey struct{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey{})
	rd, ok := val.(*RequestData)
	if !ok {
		return nil
	}
	return rd
}
