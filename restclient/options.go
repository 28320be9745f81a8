package restclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// scope is the instrumentation scope name for OpenTelemetry.
	scope = "github.com/caldera-labs/restkit-go/restclient"
)

// Config holds the transport tuning attributes for a client.
// Use DefaultConfig() to get a properly initialized configuration,
// then modify specific fields as needed.
//
// Example:
//
//	cfg := restclient.DefaultConfig()
//	cfg.Timeout = 5 * time.Second
//	cfg.ResponseHeaderTimeout = 2 * time.Second
//
//	client, err := restclient.New("api.example.com",
//	    restclient.WithConfig(cfg),
//	)
type Config struct {
	// Timeout limits the entire request lifecycle, from dialing through
	// reading the response body. Zero means no overall deadline.
	//
	// Default: 15s
	Timeout time.Duration

	// DialTimeout is the maximum time to wait for the TCP connection
	// to be established (before the TLS handshake).
	//
	// Default: 5s
	DialTimeout time.Duration

	// TLSHandshakeTimeout is the maximum time to wait for a TLS handshake.
	//
	// Default: 10s
	TLSHandshakeTimeout time.Duration

	// ResponseHeaderTimeout is the time to wait for response headers after
	// the request is fully written. Zero disables it (the overall Timeout
	// still applies). This is the read timeout of the client.
	//
	// Default: 0 (disabled, uses overall Timeout)
	ResponseHeaderTimeout time.Duration

	// KeepAlive specifies the TCP keep-alive probe interval for the
	// persistent connection.
	//
	// Default: 30s
	KeepAlive time.Duration

	// IdleConnTimeout is how long the persistent connection may sit idle
	// before being closed.
	//
	// Default: 90s
	IdleConnTimeout time.Duration

	// DisableCompression disables the "Accept-Encoding: gzip" request
	// header. Left enabled by default so response bytes arrive exactly as
	// the server wrote them.
	//
	// Default: true (compression disabled)
	DisableCompression bool
}

// DefaultConfig returns the transport tuning used when WithConfig is not
// supplied.
func DefaultConfig() Config {
	return Config{
		Timeout:               15 * time.Second,
		DialTimeout:           5 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 0,
		KeepAlive:             30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		DisableCompression:    true,
	}
}

// internalConfig holds all client configuration gathered from options.
type internalConfig struct {
	httpConfig Config

	// === Endpoint ===

	// Port is the target port. Zero derives 443 when TLS is implied,
	// 80 otherwise.
	Port int

	// TLS selects the https scheme. A Port of 443 implies TLS as well.
	TLS bool

	// BasePath is prefixed to every request path.
	BasePath string

	// BaseQuery parameters are merged into every request. A request-level
	// parameter with the same key is a configuration error.
	BaseQuery map[string]string

	// BaseHeaders are merged into every request, compared case-insensitively.
	BaseHeaders http.Header

	// === Credentials ===

	Username string
	Password string
	hasAuth  bool

	// === Validation defaults ===

	// expectations overrides the built-in per-verb status expectations.
	expectations map[string]StatusExpectation

	// === Hooks ===

	preHooks    []PreHook
	aroundHooks []AroundHook
	postHooks   []PostHook

	// === Observability ===

	// Logger, when set, attaches the built-in logging hooks.
	Logger *zerolog.Logger

	// Debug enables request/response dumps on the package debug logger.
	Debug bool

	// ServiceName identifies this client on spans and metrics.
	ServiceName string

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider

	Tracer  trace.Tracer
	Meter   metric.Meter
	Metrics *otelMetrics

	// === Advanced ===

	// TLSConfig specifies the TLS configuration. Nil uses the default.
	TLSConfig *tls.Config
}

// newConfig creates an internal config with defaults and applies options.
func newConfig(opts ...Option) *internalConfig {
	cfg := &internalConfig{
		httpConfig:     DefaultConfig(),
		TracerProvider: otel.GetTracerProvider(),
		MeterProvider:  otel.GetMeterProvider(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	cfg.Tracer = cfg.TracerProvider.Tracer(scope)
	cfg.Meter = cfg.MeterProvider.Meter(scope)
	cfg.Metrics, _ = newOtelMetrics(cfg.Meter)

	return cfg
}

// scheme returns "https" when TLS is implied, else "http".
func (cfg *internalConfig) scheme() string {
	if cfg.TLS || cfg.Port == 443 {
		return "https"
	}
	return "http"
}

// port returns the effective port, deriving the scheme default when unset.
func (cfg *internalConfig) port() int {
	if cfg.Port != 0 {
		return cfg.Port
	}
	if cfg.scheme() == "https" {
		return 443
	}
	return 80
}

// buildTransport creates the http.Transport backing the persistent
// connection. MaxConnsPerHost is pinned to 1: the client keeps a single
// reusable connection for its lifetime, no pooling.
func (cfg *internalConfig) buildTransport() *http.Transport {
	hc := cfg.httpConfig

	dialer := &net.Dialer{
		Timeout:   hc.DialTimeout,
		KeepAlive: hc.KeepAlive,
	}

	return &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          1,
		MaxIdleConnsPerHost:   1,
		MaxConnsPerHost:       1,
		IdleConnTimeout:       hc.IdleConnTimeout,
		TLSHandshakeTimeout:   hc.TLSHandshakeTimeout,
		ResponseHeaderTimeout: hc.ResponseHeaderTimeout,
		DisableCompression:    hc.DisableCompression,
		TLSClientConfig:       cfg.TLSConfig,
	}
}

// Option configures the client.
type Option func(*internalConfig)

// WithConfig sets the transport tuning configuration.
// Use DefaultConfig() as a starting point and customize as needed.
func WithConfig(c Config) Option {
	return func(cfg *internalConfig) {
		cfg.httpConfig = c
	}
}

// WithTLS selects https. When no port is given, the port defaults to 443.
func WithTLS() Option {
	return func(cfg *internalConfig) {
		cfg.TLS = true
	}
}

// WithPort sets the target port. Port 443 implies TLS even without WithTLS.
func WithPort(port int) Option {
	return func(cfg *internalConfig) {
		cfg.Port = port
	}
}

// WithBasePath sets a path prefix applied to every request. The request
// path is appended to it with duplicate separators collapsed.
func WithBasePath(path string) Option {
	return func(cfg *internalConfig) {
		cfg.BasePath = path
	}
}

// WithBaseQuery sets query parameters sent with every request.
// A request-level parameter reusing one of these keys fails with a
// ConfigurationError; there is no silent override.
func WithBaseQuery(query map[string]string) Option {
	return func(cfg *internalConfig) {
		cfg.BaseQuery = query
	}
}

// WithBaseHeaders sets headers sent with every request. Keys are compared
// case-insensitively against request-level headers, and a collision fails
// with a ConfigurationError.
func WithBaseHeaders(headers map[string]string) Option {
	return func(cfg *internalConfig) {
		h := make(http.Header, len(headers))
		for k, v := range headers {
			h.Set(k, v)
		}
		cfg.BaseHeaders = h
	}
}

// WithBasicAuth authenticates every request with the given credentials.
// The password may be empty. Credentials are percent-encoded into the
// request URI's userinfo, from which the Authorization header is derived.
func WithBasicAuth(username, password string) Option {
	return func(cfg *internalConfig) {
		cfg.Username = username
		cfg.Password = password
		cfg.hasAuth = true
	}
}

// WithDefaultExpectation overrides the built-in status expectation for a
// verb. The expectation accepts the same shapes as
// RequestBuilder.ExpectStatus; an invalid shape surfaces from New.
func WithDefaultExpectation(verb string, expectation any) Option {
	return func(cfg *internalConfig) {
		if cfg.expectations == nil {
			cfg.expectations = make(map[string]StatusExpectation)
		}
		exp, err := normalizeExpectation(expectation)
		if err != nil {
			// Re-checked in New so construction fails loudly.
			cfg.expectations[verb] = invalidExpectation{err: err}
			return
		}
		cfg.expectations[verb] = exp
	}
}

// invalidExpectation carries a normalization error from an option to New.
type invalidExpectation struct {
	err error
}

func (e invalidExpectation) Matches(*Response) bool { return false }
func (e invalidExpectation) String() string         { return "invalid expectation" }

// WithLogger attaches the built-in logging hooks: a pre-request hook that
// logs "<METHOD> <URI>" and an around hook that logs any error escaping the
// transport call before re-returning it unchanged.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *internalConfig) {
		cfg.Logger = &logger
	}
}

// WithDebug enables request/response dumps on the package debug logger.
func WithDebug() Option {
	return func(cfg *internalConfig) {
		cfg.Debug = true
	}
}

// WithPreHook registers a pre-request hook. Hooks run in registration order
// with the built request, before transport dispatch.
func WithPreHook(hook PreHook) Option {
	return func(cfg *internalConfig) {
		cfg.preHooks = append(cfg.preHooks, hook)
	}
}

// WithAroundHook registers an around hook wrapping the transport call.
// The first registered hook becomes the outermost layer. Each hook must
// invoke its continuation exactly once to let the request proceed.
func WithAroundHook(hook AroundHook) Option {
	return func(cfg *internalConfig) {
		cfg.aroundHooks = append(cfg.aroundHooks, hook)
	}
}

// WithPostHook registers a post-request hook. Hooks run in registration
// order with the validated, encoding-corrected response. They are skipped
// when status validation fails.
func WithPostHook(hook PostHook) Option {
	return func(cfg *internalConfig) {
		cfg.postHooks = append(cfg.postHooks, hook)
	}
}

// WithServiceName sets an identifier for this client on spans and metrics.
func WithServiceName(name string) Option {
	return func(cfg *internalConfig) {
		cfg.ServiceName = name
	}
}

// WithTracerProvider sets a custom OpenTelemetry TracerProvider.
// If not called, the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *internalConfig) {
		cfg.TracerProvider = tp
	}
}

// WithMeterProvider sets a custom OpenTelemetry MeterProvider.
// If not called, the global provider is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *internalConfig) {
		cfg.MeterProvider = mp
	}
}

// WithTLSConfig sets a custom TLS configuration, for custom roots or
// client certificates.
func WithTLSConfig(tlsCfg *tls.Config) Option {
	return func(cfg *internalConfig) {
		cfg.TLSConfig = tlsCfg
	}
}
