package context

import "context"

type CtxKey string

const (
	ContextAPI       CtxKey = "api"
	ContextService   CtxKey = "service"
	ContextRequestID CtxKey = "request_id"
)

func WithAPI(ctx context.Context, api string) context.Context {
	return context.WithValue(ctx, ContextAPI, api)
}

func GetAPI(ctx context.Context) string {
	return getString(ctx, ContextAPI)
}

func WithService(ctx context.Context, service string) context.Context {
	return context.WithValue(ctx, ContextService, service)
}

func GetService(ctx context.Context) string {
	return getString(ctx, ContextService)
}

// WithRequestID stores the inbound X-Request-ID, or a generated one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextRequestID, id)
}

func GetRequestID(ctx context.Context) string {
	return getString(ctx, ContextRequestID)
}

func getString(ctx context.Context, key CtxKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}
