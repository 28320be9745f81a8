package restclient

import (
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Version is the library version reported in the User-Agent marker header.
const Version = "1.0.0"

// userAgent is the identifying client/version marker added to every
// request that does not set its own User-Agent.
const userAgent = "restkit-go/" + Version

// Named transport attributes accepted by RequestBuilder.TransportAttr.
const (
	// AttrTimeout overrides the overall request timeout.
	AttrTimeout = "timeout"

	// AttrResponseHeaderTimeout overrides the read timeout for response
	// headers.
	AttrResponseHeaderTimeout = "response_header_timeout"

	// AttrTLSHandshakeTimeout overrides the TLS handshake timeout.
	AttrTLSHandshakeTimeout = "tls_handshake_timeout"
)

// Client is a typed REST API client helper over net/http: it merges
// client-level and request-level configuration into outgoing requests,
// validates response status codes against flexible expectations, and
// corrects response text encoding from the Content-Type charset.
//
// A Client holds one lazily-dialed persistent connection that is reused
// for its lifetime. It is built for single-threaded, synchronous use; for
// concurrent work create one Client per goroutine. Close() releases the
// connection when the client is discarded.
//
//	client, err := restclient.New("api.example.com",
//	    restclient.WithTLS(),
//	    restclient.WithBasePath("/v2"),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	resp, err := client.Request("ListUsers").
//	    Query("page", "1").
//	    Get(ctx, "/users")
type Client struct {
	// httpClient is the underlying HTTP client over the persistent
	// connection.
	httpClient *http.Client

	// transport is retained for per-request attribute overrides and for
	// Close().
	transport *http.Transport

	// config holds all client configuration.
	config *internalConfig

	// address is the target host.
	address string

	// hooks are the pre/around/post layers wrapping every request.
	hooks *hookChain
}

// New creates a Client for the given address. The address is required;
// everything else comes from options.
//
// Construction fails with a ConfigurationError for an empty address or an
// invalid per-verb default expectation. No connection is made until the
// first request.
func New(address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, newConfigError("address is required")
	}

	cfg := newConfig(opts...)

	for verb, exp := range cfg.expectations {
		if bad, ok := exp.(invalidExpectation); ok {
			return nil, newConfigError("invalid default expectation for %s: %s", verb, bad.err)
		}
	}

	hooks := &hookChain{
		pre:    cfg.preHooks,
		around: cfg.aroundHooks,
		post:   cfg.postHooks,
	}
	if cfg.Logger != nil {
		// Built-in logging hooks sit in front of caller hooks, so the
		// failure-logging layer is outermost.
		hooks.pre = append([]PreHook{loggingPreHook(cfg.Logger)}, hooks.pre...)
		hooks.around = append([]AroundHook{loggingAroundHook(cfg.Logger)}, hooks.around...)
	}

	transport := cfg.buildTransport()
	httpClient := &http.Client{
		Transport: newOtelTransport(transport, cfg),
		Timeout:   cfg.httpConfig.Timeout,
	}

	return &Client{
		httpClient: httpClient,
		transport:  transport,
		config:     cfg,
		address:    address,
		hooks:      hooks,
	}, nil
}

// Request creates a RequestBuilder for the given operation name.
//
// The operation name labels the request on spans and debug output.
//
//	resp, err := client.Request("CreateUser").
//	    Body(payload).
//	    Post(ctx, "/users")
func (c *Client) Request(operationName string) *RequestBuilder {
	return &RequestBuilder{
		client:        c,
		operationName: operationName,
		headers:       make(http.Header),
	}
}

// HTTP returns the underlying *http.Client for advanced use cases.
func (c *Client) HTTP() *http.Client {
	return c.httpClient
}

// Close releases the persistent connection. The client must not be used
// afterwards.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

// baseURL assembles the scheme://host:port root for this client.
// The port is omitted when it matches the scheme default.
func (c *Client) baseURL() *url.URL {
	u := &url.URL{
		Scheme: c.config.scheme(),
		Host:   c.address,
	}

	port := c.config.port()
	if (u.Scheme == "https" && port != 443) || (u.Scheme == "http" && port != 80) {
		u.Host = c.address + ":" + strconv.Itoa(port)
	}

	if c.config.hasAuth {
		u.User = url.UserPassword(c.config.Username, c.config.Password)
	}

	return u
}

// expectationFor resolves the default status expectation for a verb,
// honoring per-client overrides.
func (c *Client) expectationFor(verb string) StatusExpectation {
	if exp, ok := c.config.expectations[verb]; ok {
		return exp
	}
	return defaultExpectationFor(verb)
}

// applyTransportAttrs applies per-request transport attribute overrides
// and returns a restore function. The caller must defer the restore so
// original values come back even when the request fails.
func (c *Client) applyTransportAttrs(attrs map[string]time.Duration) (restore func(), err error) {
	if len(attrs) == 0 {
		return func() {}, nil
	}

	savedTimeout := c.httpClient.Timeout
	savedHeaderTimeout := c.transport.ResponseHeaderTimeout
	savedTLSTimeout := c.transport.TLSHandshakeTimeout

	for name, value := range attrs {
		switch name {
		case AttrTimeout:
			c.httpClient.Timeout = value
		case AttrResponseHeaderTimeout:
			c.transport.ResponseHeaderTimeout = value
		case AttrTLSHandshakeTimeout:
			c.transport.TLSHandshakeTimeout = value
		default:
			c.httpClient.Timeout = savedTimeout
			c.transport.ResponseHeaderTimeout = savedHeaderTimeout
			c.transport.TLSHandshakeTimeout = savedTLSTimeout
			return nil, newConfigError("unknown transport attribute %q", name)
		}
	}

	return func() {
		c.httpClient.Timeout = savedTimeout
		c.transport.ResponseHeaderTimeout = savedHeaderTimeout
		c.transport.TLSHandshakeTimeout = savedTLSTimeout
	}, nil
}
