package restclient

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PreHook observes the built request before transport dispatch.
// Hooks run in registration order. Returning an error aborts the request
// before any network I/O.
//
// Common use cases:
//   - Request logging
//   - Stamping correlation IDs
//   - Last-minute header injection (API keys, bearer tokens)
type PreHook func(req *http.Request) error

// Next performs the wrapped request (or delegates to the next nested
// around hook). An around hook must invoke it exactly once; not invoking
// it suppresses the request entirely.
type Next func() (*Response, error)

// AroundHook wraps the transport call. Hooks nest in registration order:
// the first registered hook becomes the outermost layer.
//
// Common use cases:
//   - Failure logging with re-raise
//   - Timing and metrics
//   - Fallback responses
type AroundHook func(req *http.Request, next Next) (*Response, error)

// PostHook observes the validated, encoding-corrected response together
// with the original request. Hooks run in registration order and are
// skipped when status validation fails.
type PostHook func(resp *Response, req *http.Request) error

// hookChain holds the three hook layers for a client.
type hookChain struct {
	pre    []PreHook
	around []AroundHook
	post   []PostHook
}

// runPre invokes all pre-request hooks in registration order.
func (h *hookChain) runPre(req *http.Request) error {
	for _, hook := range h.pre {
		if err := hook(req); err != nil {
			return err
		}
	}
	return nil
}

// wrap composes the around hooks over the inner call. Composition walks the
// registration list backwards so the first registered hook ends up outermost.
func (h *hookChain) wrap(req *http.Request, inner Next) Next {
	next := inner
	for i := len(h.around) - 1; i >= 0; i-- {
		hook := h.around[i]
		downstream := next
		next = func() (*Response, error) {
			return hook(req, downstream)
		}
	}
	return next
}

// runPost invokes all post-request hooks in registration order.
func (h *hookChain) runPost(resp *Response, req *http.Request) error {
	for _, hook := range h.post {
		if err := hook(resp, req); err != nil {
			return err
		}
	}
	return nil
}

// loggingPreHook logs "<METHOD> <URI>" at info level before dispatch.
// The URI is redacted: basic-auth credentials live in the userinfo, and
// they must never reach the log.
func loggingPreHook(logger *zerolog.Logger) PreHook {
	return func(req *http.Request) error {
		logger.Info().Msg(req.Method + " " + req.URL.Redacted())
		return nil
	}
}

// loggingAroundHook logs any error escaping the inner call, then
// re-returns it unchanged. The URI is redacted like in loggingPreHook.
func loggingAroundHook(logger *zerolog.Logger) AroundHook {
	return func(req *http.Request, next Next) (*Response, error) {
		resp, err := next()
		if err != nil {
			logger.Error().Msg(fmt.Sprintf("Failed to %s %s: %s (%T)",
				req.Method, req.URL.Redacted(), err.Error(), err))
			return nil, err
		}
		return resp, nil
	}
}

// RequestIDHook returns a pre-request hook that stamps a fresh UUID into
// the given header on every request, unless the header is already set.
//
// Example:
//
//	client, err := restclient.New("api.example.com",
//	    restclient.WithPreHook(restclient.RequestIDHook("X-Request-ID")),
//	)
func RequestIDHook(header string) PreHook {
	return func(req *http.Request) error {
		if req.Header.Get(header) == "" {
			req.Header.Set(header, uuid.New().String())
		}
		return nil
	}
}

// BearerTokenHook returns a pre-request hook that sets a Bearer token
// obtained from tokenFunc, for dynamic or refreshable tokens.
func BearerTokenHook(tokenFunc func() (string, error)) PreHook {
	return func(req *http.Request) error {
		token, err := tokenFunc()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
}
