package restclient

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// debugLogger is the package-level zerolog logger for debug output.
var debugLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// logRequest logs the outgoing request details using zerolog.
func logRequest(logger zerolog.Logger, req *http.Request, operation string) {
	event := logger.Debug().
		Str("operation", operation).
		Str("method", req.Method).
		Str("url", req.URL.String())

	for k, vs := range req.Header {
		if len(vs) > 0 {
			event = event.Str("header."+k, vs[0])
		}
	}

	event.Msg("request")
}

// logResponse logs the received response details using zerolog.
func logResponse(logger zerolog.Logger, resp *http.Response, operation string, duration time.Duration) {
	logger.Debug().
		Str("operation", operation).
		Int("status", resp.StatusCode).
		Str("content_type", resp.Header.Get("Content-Type")).
		Dur("duration", duration).
		Msg("response")
}
