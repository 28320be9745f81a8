package restclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// formatMediaTypes maps receive-format hints to the Accept media type they
// select. Unknown hints are a configuration error.
var formatMediaTypes = map[string]string{
	"json": "application/json",
	"xml":  "application/xml",
	"text": "text/plain",
}

// bodylessVerbs are verbs that semantically forbid a request body.
var bodylessVerbs = map[string]bool{
	http.MethodGet:   true,
	http.MethodHead:  true,
	http.MethodTrace: true,
}

// RequestBuilder accumulates per-request configuration and merges it with
// the client-level defaults when a verb method executes it.
//
// Create a RequestBuilder using Client.Request():
//
//	resp, err := client.Request("CreateUser").
//	    Body(payload).
//	    Post(ctx, "/users")
type RequestBuilder struct {
	client        *Client
	operationName string
	path          string
	query         map[string]string
	headers       http.Header

	body      []byte
	bodySet   bool
	stream    io.Reader
	streamSet bool

	expectation    any
	expectationSet bool

	receiveFormat  string
	transportAttrs map[string]time.Duration

	// Multipart upload fields
	fileUploads []FileUpload
	formFields  map[string]string
}

// Path sets the request path. It is appended to the client's base path
// with duplicate separators collapsed.
func (rb *RequestBuilder) Path(path string) *RequestBuilder {
	rb.path = path
	return rb
}

// Query adds a single query parameter. Reusing a client-level key fails
// with a ConfigurationError at execution time.
func (rb *RequestBuilder) Query(key, value string) *RequestBuilder {
	if rb.query == nil {
		rb.query = make(map[string]string)
	}
	rb.query[key] = value
	return rb
}

// Queries adds multiple query parameters.
func (rb *RequestBuilder) Queries(params map[string]string) *RequestBuilder {
	for k, v := range params {
		rb.Query(k, v)
	}
	return rb
}

// Header sets a single request header. Reusing a client-level key
// (case-insensitive) fails with a ConfigurationError at execution time.
func (rb *RequestBuilder) Header(key, value string) *RequestBuilder {
	rb.headers.Set(key, value)
	return rb
}

// Headers sets multiple request headers.
func (rb *RequestBuilder) Headers(headers map[string]string) *RequestBuilder {
	for k, v := range headers {
		rb.headers.Set(k, v)
	}
	return rb
}

// Body sets a fixed byte buffer as the request body. Mutually exclusive
// with BodyStream.
func (rb *RequestBuilder) Body(body []byte) *RequestBuilder {
	rb.body = body
	rb.bodySet = true
	return rb
}

// BodyJSON encodes v as JSON and sets it as the request body with an
// application/json content type.
func (rb *RequestBuilder) BodyJSON(v any) *RequestBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		rb.stream = &bodyEncodingError{err: err}
		rb.streamSet = true
		return rb
	}
	rb.body = data
	rb.bodySet = true
	rb.headers.Set("Content-Type", "application/json")
	return rb
}

// BodyStream sets a lazy byte source as the request body. The stream is
// read during transport dispatch, not before. Mutually exclusive with Body.
func (rb *RequestBuilder) BodyStream(stream io.Reader) *RequestBuilder {
	rb.stream = stream
	rb.streamSet = true
	return rb
}

// ExpectStatus sets the status expectation for this request. Accepted
// shapes: nil (disable validation), int, []int, StatusRange, StatusClass,
// or func(*Response) bool. Any other shape fails with a
// ConfigurationError at execution time.
func (rb *RequestBuilder) ExpectStatus(expectation any) *RequestBuilder {
	rb.expectation = expectation
	rb.expectationSet = true
	return rb
}

// ReceiveFormat sets the Accept header from a fixed format table:
// "json", "xml", or "text". An unknown hint fails with a
// ConfigurationError at execution time.
func (rb *RequestBuilder) ReceiveFormat(format string) *RequestBuilder {
	rb.receiveFormat = format
	return rb
}

// TransportAttr overrides a named transport attribute (AttrTimeout,
// AttrResponseHeaderTimeout, AttrTLSHandshakeTimeout) for the duration of
// this call only. The original value is restored after the request, even
// when it fails.
func (rb *RequestBuilder) TransportAttr(name string, value time.Duration) *RequestBuilder {
	if rb.transportAttrs == nil {
		rb.transportAttrs = make(map[string]time.Duration)
	}
	rb.transportAttrs[name] = value
	return rb
}

// Get executes a GET request.
func (rb *RequestBuilder) Get(ctx context.Context, path ...string) (*Response, error) {
	return rb.do(ctx, http.MethodGet, path)
}

// Head executes a HEAD request.
func (rb *RequestBuilder) Head(ctx context.Context, path ...string) (*Response, error) {
	return rb.do(ctx, http.MethodHead, path)
}

// Post executes a POST request.
func (rb *RequestBuilder) Post(ctx context.Context, path ...string) (*Response, error) {
	return rb.do(ctx, http.MethodPost, path)
}

// Put executes a PUT request.
func (rb *RequestBuilder) Put(ctx context.Context, path ...string) (*Response, error) {
	return rb.do(ctx, http.MethodPut, path)
}

// Delete executes a DELETE request.
func (rb *RequestBuilder) Delete(ctx context.Context, path ...string) (*Response, error) {
	return rb.do(ctx, http.MethodDelete, path)
}

// Options executes an OPTIONS request.
func (rb *RequestBuilder) Options(ctx context.Context, path ...string) (*Response, error) {
	return rb.do(ctx, http.MethodOptions, path)
}

// Trace executes a TRACE request.
func (rb *RequestBuilder) Trace(ctx context.Context, path ...string) (*Response, error) {
	return rb.do(ctx, http.MethodTrace, path)
}

// Patch executes a PATCH request.
func (rb *RequestBuilder) Patch(ctx context.Context, path ...string) (*Response, error) {
	return rb.do(ctx, http.MethodPatch, path)
}

// Do executes a request with an arbitrary verb token. The token may be any
// valid HTTP method token, not just the fixed set above.
//
// On Do and the verb methods, multiple path arguments are joined into one
// path, with duplicate separators collapsed:
//
//	client.Request("GetUser").Get(ctx, "/users", userID)
func (rb *RequestBuilder) Do(ctx context.Context, verb string, path ...string) (*Response, error) {
	return rb.do(ctx, verb, path)
}

func (rb *RequestBuilder) do(ctx context.Context, verb string, path []string) (*Response, error) {
	if len(path) > 0 {
		rb.path = strings.Join(path, "/")
	}
	return rb.execute(ctx, verb)
}

// execute merges client and request configuration, runs the hook pipeline
// around transport dispatch, and validates the response.
func (rb *RequestBuilder) execute(ctx context.Context, verb string) (*Response, error) {
	if err := validateVerb(verb); err != nil {
		return nil, err
	}

	expectation := rb.client.expectationFor(verb)
	if rb.expectationSet {
		exp, err := normalizeExpectation(rb.expectation)
		if err != nil {
			return nil, err
		}
		expectation = exp
	}

	reqBody, err := rb.buildBody(verb)
	if err != nil {
		return nil, err
	}

	targetURL, err := rb.buildURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, verb, targetURL, reqBody)
	if err != nil {
		return nil, err
	}

	if err := rb.applyHeaders(req); err != nil {
		return nil, err
	}

	restore, err := rb.client.applyTransportAttrs(rb.transportAttrs)
	if err != nil {
		return nil, err
	}
	defer restore()

	if rb.client.config.Debug {
		logRequest(debugLogger, req, rb.operationName)
	}

	if err := rb.client.hooks.runPre(req); err != nil {
		return nil, err
	}

	inner := func() (*Response, error) {
		start := time.Now()
		//nolint:bodyclose // body ownership moves to Response
		httpResp, err := rb.client.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if rb.client.config.Debug {
			logResponse(debugLogger, httpResp, rb.operationName, time.Since(start))
		}
		return &Response{Response: httpResp, request: req}, nil
	}

	resp, err := rb.client.hooks.wrap(req, inner)()
	if err != nil {
		return nil, err
	}
	if resp == nil {
		// An around hook suppressed the request.
		return nil, nil
	}

	// Validation happens before the post-hook pass; a mismatch skips the
	// post hooks entirely.
	if err := checkStatus(resp, expectation); err != nil {
		return resp, err
	}

	if err := rb.client.hooks.runPost(resp, req); err != nil {
		return resp, err
	}

	return resp, nil
}

// buildBody resolves the mutually exclusive body forms and enforces the
// body-less verb rule.
func (rb *RequestBuilder) buildBody(verb string) (io.Reader, error) {
	forms := 0
	if rb.bodySet {
		forms++
	}
	if rb.streamSet {
		forms++
	}
	if len(rb.fileUploads) > 0 {
		forms++
	}

	if forms > 1 {
		return nil, newConfigError("body, body stream, and file uploads are mutually exclusive")
	}
	if forms > 0 && bodylessVerbs[verb] {
		return nil, newConfigError("%s requests cannot carry a body", verb)
	}

	switch {
	case rb.bodySet:
		return bytes.NewReader(rb.body), nil
	case rb.streamSet:
		if er, ok := rb.stream.(*bodyEncodingError); ok {
			return nil, er.err
		}
		return rb.stream, nil
	case len(rb.fileUploads) > 0:
		body, contentType, err := rb.buildMultipart()
		if err != nil {
			return nil, err
		}
		rb.headers.Set("Content-Type", contentType)
		return body, nil
	default:
		return nil, nil
	}
}

// buildURL assembles the full request URL: merged path, merged and encoded
// query, credentials in the userinfo.
func (rb *RequestBuilder) buildURL() (string, error) {
	query, err := mergeQuery(rb.client.config.BaseQuery, rb.query)
	if err != nil {
		return "", err
	}

	u := rb.client.baseURL()
	u.Path = joinPath(rb.client.config.BasePath, rb.path)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// applyHeaders merges base and request headers, resolves the receive
// format, and adds the identifying marker header.
func (rb *RequestBuilder) applyHeaders(req *http.Request) error {
	merged, err := mergeHeaders(rb.client.config.BaseHeaders, rb.headers)
	if err != nil {
		return err
	}

	for k, vs := range merged {
		req.Header[k] = vs
	}

	if rb.receiveFormat != "" {
		mediaType, ok := formatMediaTypes[rb.receiveFormat]
		if !ok {
			return newConfigError("unknown receive format %q", rb.receiveFormat)
		}
		req.Header.Set("Accept", mediaType)
	}

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	return nil
}

// mergeQuery combines base and request query parameters. Any key present
// on both sides is a configuration error naming the overlapping keys.
func mergeQuery(base, call map[string]string) (url.Values, error) {
	values := make(url.Values, len(base)+len(call))
	for k, v := range base {
		values.Set(k, v)
	}

	var conflicts []string
	for k, v := range call {
		if _, ok := base[k]; ok {
			conflicts = append(conflicts, k)
			continue
		}
		values.Set(k, v)
	}

	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return nil, newConfigError("query keys defined at both client and request level: %s",
			strings.Join(conflicts, ", "))
	}
	return values, nil
}

// mergeHeaders combines base and request headers. Keys are compared
// case-insensitively; any key present on both sides is a configuration
// error naming the overlapping keys.
func mergeHeaders(base, call http.Header) (http.Header, error) {
	merged := make(http.Header, len(base)+len(call))
	for k, vs := range base {
		merged[k] = vs
	}

	var conflicts []string
	for k, vs := range call {
		if _, ok := merged[k]; ok {
			conflicts = append(conflicts, k)
			continue
		}
		merged[k] = vs
	}

	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return nil, newConfigError("headers defined at both client and request level: %s",
			strings.Join(conflicts, ", "))
	}
	return merged, nil
}

// joinPath concatenates the base path and request path, collapsing
// duplicate separators and preserving the leading one.
func joinPath(base, path string) string {
	joined := base + "/" + path

	var b strings.Builder
	b.Grow(len(joined))
	var prev byte
	for i := 0; i < len(joined); i++ {
		c := joined[i]
		if c == '/' && prev == '/' {
			continue
		}
		b.WriteByte(c)
		prev = c
	}

	out := b.String()
	if !strings.HasPrefix(out, "/") {
		out = "/" + out
	}
	return out
}

// validateVerb checks the verb is a non-empty HTTP method token.
// Any token is allowed, not just the well-known set.
func validateVerb(verb string) error {
	if verb == "" {
		return newConfigError("request verb must not be empty")
	}
	for i := 0; i < len(verb); i++ {
		if !isTokenChar(verb[i]) {
			return newConfigError("invalid request verb %q", verb)
		}
	}
	return nil
}

// isTokenChar reports whether c is a tchar per RFC 7230.
func isTokenChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0
}

// bodyEncodingError is an io.Reader that returns an error.
type bodyEncodingError struct {
	err error
}

func (e *bodyEncodingError) Read(_ []byte) (int, error) {
	return 0, e.err
}
