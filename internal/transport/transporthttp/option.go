package transporthttp

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jeffreyyong/globalone-gateway/internal/logging"
)

const (
	authorizationHeaderKey = "Authorization"
	bearerPrefix           = "Bearer "
)

// MiddlewareFunc type
type MiddlewareFunc func(c *httpHandler) error

// WithAuth is a function configuration for authorization. privilegedTokens
// maps each accepted token to the name of the client holding it.
func WithAuth(privilegedTokens map[string]string) MiddlewareFunc {
	return func(h *httpHandler) error {
		h.middlewareFuncs = append(h.middlewareFuncs, NewAuthorizationMiddleware(privilegedTokens))
		return nil
	}
}

// HTTPAuthorizeRequest is the type to handles authorization of request
type HTTPAuthorizeRequest struct {
	next             http.Handler
	privilegedTokens map[string]string
}

// NewAuthorizationMiddleware initialises a http.Handler implementation of authorization given the privileged tokens.
func NewAuthorizationMiddleware(privilegedTokens map[string]string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return &HTTPAuthorizeRequest{
			next:             next,
			privilegedTokens: privilegedTokens,
		}
	}
}

// ServeHTTP does the authorization for the incoming request and tags the
// request logger with the calling client.
func (a HTTPAuthorizeRequest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	apiKey := strings.TrimPrefix(r.Header.Get(authorizationHeaderKey), bearerPrefix)
	if apiKey == "" {
		_ = WriteError(w, "Authorization missing", CodeUnauthorized)
		return
	}

	client, ok := a.privilegedTokens[apiKey]
	if !ok {
		_ = WriteError(w, "invalid token", CodeForbidden)
		return
	}

	ctx := logging.WithFields(r.Context(), zap.String("client", client))
	a.next.ServeHTTP(w, r.WithContext(ctx))
}
