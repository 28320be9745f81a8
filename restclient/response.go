package restclient

import (
	"io"
	"mime"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
)

// Response wraps http.Response with cached body reading and charset-aware
// text access.
//
// The raw body bytes are never transcoded: Body() returns them exactly as
// they arrived on the wire. Text() and TextReader() decode them to UTF-8
// using the charset declared in the Content-Type header; when no charset is
// declared, both pass the raw bytes through unmodified rather than assuming
// UTF-8.
//
// Example:
//
//	resp, err := client.Request("GetPage").Get(ctx, "/page")
//	if err != nil {
//	    return err
//	}
//	text, err := resp.Text() // decoded per declared charset
type Response struct {
	// Response embeds the standard http.Response.
	// All http.Response fields and methods are accessible directly.
	*http.Response

	// request is the original HTTP request that produced this response.
	request *http.Request

	// body is the cached raw response body.
	// Populated on first call to Body(), Text(), or JSON().
	body []byte

	// bodyRead tracks whether the body has been read and cached.
	bodyRead bool
}

// Body returns the raw response body bytes, exactly as received.
//
// The body is read and cached on first access; subsequent calls return the
// cached value. Body and TextReader are mutually exclusive: whichever is
// called first consumes the wire stream.
func (r *Response) Body() ([]byte, error) {
	if r.bodyRead {
		return r.body, nil
	}

	defer r.Response.Body.Close()
	body, err := io.ReadAll(r.Response.Body)
	if err != nil {
		return nil, err
	}

	r.body = body
	r.bodyRead = true
	return r.body, nil
}

// Text returns the response body as text, decoded to UTF-8 using the
// charset declared in the Content-Type header. Without a declared charset
// the raw bytes are returned unchanged, not reinterpreted.
func (r *Response) Text() (string, error) {
	body, err := r.Body()
	if err != nil {
		return "", err
	}

	enc := r.bodyEncoding()
	if enc == nil {
		return string(body), nil
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// TextReader returns a streaming reader over the response body with the
// same charset correction as Text(): chunks are decoded to UTF-8 as they
// arrive when a charset is declared, and passed through untouched otherwise.
//
// The caller owns the stream and must Close() the response when done.
// TextReader must not be mixed with Body()/Text() on the same response.
func (r *Response) TextReader() io.Reader {
	return newTextReader(r.Response.Body, r.bodyEncoding())
}

// JSON decodes the body into v. The response must declare an
// application/json content type; anything else is rejected before any
// parsing happens.
func (r *Response) JSON(v any) error {
	if mediaType := r.ContentType(); mediaType != "application/json" {
		return newConfigError("cannot decode %q response as JSON", mediaType)
	}
	body, err := r.Body()
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// ContentType returns the response media type without parameters,
// e.g. "text/html".
func (r *Response) ContentType() string {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mediaType
}

// Charset returns the charset parameter declared in the Content-Type
// header, lowercased, or "" when absent.
func (r *Response) Charset() string {
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return strings.ToLower(params["charset"])
}

// IsSuccess returns true if the response status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the response status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// Close releases the underlying body stream. Safe to call after the body
// has already been consumed.
func (r *Response) Close() error {
	return r.Response.Body.Close()
}

// bodyEncoding resolves the declared charset to a decoder. Returns nil for
// a missing or unrecognized charset label, which leaves the body raw.
func (r *Response) bodyEncoding() encoding.Encoding {
	label := r.Charset()
	if label == "" {
		return nil
	}
	enc, _ := charset.Lookup(label)
	return enc
}
