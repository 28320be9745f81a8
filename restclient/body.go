package restclient

import (
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// newTextReader applies charset correction to a streaming body. With a nil
// encoding the stream is returned untouched, so undeclared charsets yield
// raw wire bytes on both the whole-body and streamed paths.
func newTextReader(body io.Reader, enc encoding.Encoding) io.Reader {
	if enc == nil {
		return body
	}
	return transform.NewReader(body, enc.NewDecoder())
}
