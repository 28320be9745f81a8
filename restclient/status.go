package restclient

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// StatusExpectation describes which HTTP status codes are acceptable for a
// request. A nil expectation disables validation entirely.
//
// Expectations are normally supplied through RequestBuilder.ExpectStatus,
// which accepts plain Go values (int, []int, StatusRange, StatusClass, or a
// func(*Response) bool predicate) and converts them to this interface.
type StatusExpectation interface {
	// Matches reports whether the response satisfies the expectation.
	Matches(resp *Response) bool

	fmt.Stringer
}

// StatusClass is a symbolic group of status codes mapping to a half-open
// numeric range.
type StatusClass string

// Symbolic status classes.
const (
	StatusInformational StatusClass = "informational" // [100,200)
	StatusSuccessful    StatusClass = "successful"    // [200,300)
	StatusRedirection   StatusClass = "redirection"   // [300,400)
	StatusClientError   StatusClass = "client_error"  // [400,500)
	StatusServerError   StatusClass = "server_error"  // [500,600)
)

// classRanges maps each symbolic class to its half-open [from,to) range.
var classRanges = map[StatusClass]StatusRange{
	StatusInformational: {From: 100, To: 200},
	StatusSuccessful:    {From: 200, To: 300},
	StatusRedirection:   {From: 300, To: 400},
	StatusClientError:   {From: 400, To: 500},
	StatusServerError:   {From: 500, To: 600},
}

// Matches implements StatusExpectation.
func (c StatusClass) Matches(resp *Response) bool {
	r, ok := classRanges[c]
	return ok && r.Matches(resp)
}

// String implements fmt.Stringer.
func (c StatusClass) String() string {
	return string(c)
}

// StatusRange is a half-open range of acceptable status codes: a code n
// matches when From <= n < To.
type StatusRange struct {
	From int
	To   int
}

// Matches implements StatusExpectation.
func (r StatusRange) Matches(resp *Response) bool {
	return resp.StatusCode >= r.From && resp.StatusCode < r.To
}

// String implements fmt.Stringer.
func (r StatusRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.From, r.To)
}

// statusCode is a single acceptable status code.
type statusCode int

func (c statusCode) Matches(resp *Response) bool {
	return resp.StatusCode == int(c)
}

func (c statusCode) String() string {
	return strconv.Itoa(int(c))
}

// statusCodes is a set of acceptable status codes.
type statusCodes []int

func (c statusCodes) Matches(resp *Response) bool {
	for _, code := range c {
		if resp.StatusCode == code {
			return true
		}
	}
	return false
}

func (c statusCodes) String() string {
	parts := make([]string, len(c))
	for i, code := range c {
		parts[i] = strconv.Itoa(code)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// responseMatcher adapts an opaque predicate over the whole response.
// It bypasses numeric comparison entirely.
type responseMatcher func(*Response) bool

func (m responseMatcher) Matches(resp *Response) bool {
	return m(resp)
}

func (m responseMatcher) String() string {
	return "matching the given response predicate"
}

// normalizeExpectation converts a caller-supplied expectation value into a
// StatusExpectation. Supported shapes: nil, int, []int, StatusRange,
// StatusClass, func(*Response) bool, or an existing StatusExpectation.
func normalizeExpectation(v any) (StatusExpectation, error) {
	switch exp := v.(type) {
	case nil:
		return nil, nil
	case int:
		return statusCode(exp), nil
	case []int:
		return statusCodes(exp), nil
	case StatusRange:
		if exp.From >= exp.To {
			return nil, newConfigError("invalid status range %s: lower bound must be below upper bound", exp)
		}
		return exp, nil
	case StatusClass:
		if _, ok := classRanges[exp]; !ok {
			known := make([]string, 0, len(classRanges))
			for c := range classRanges {
				known = append(known, string(c))
			}
			sort.Strings(known)
			return nil, newConfigError("unknown status class %q (known: %s)", exp, strings.Join(known, ", "))
		}
		return exp, nil
	case func(*Response) bool:
		return responseMatcher(exp), nil
	case StatusExpectation:
		return exp, nil
	default:
		return nil, newConfigError("unsupported status expectation type %T", v)
	}
}

// checkStatus validates the response against the expectation. A nil
// expectation always passes.
func checkStatus(resp *Response, exp StatusExpectation) error {
	if exp == nil {
		return nil
	}
	if exp.Matches(resp) {
		return nil
	}
	return &UnexpectedStatusCode{Expectation: exp, Response: resp}
}

// defaultExpectations holds the per-verb status expectations used when a
// request does not set one explicitly.
var defaultExpectations = map[string]StatusExpectation{
	http.MethodGet:     statusCode(200),
	http.MethodHead:    statusCode(200),
	http.MethodTrace:   statusCode(200),
	http.MethodPost:    statusCodes{200, 201, 202, 204, 205},
	http.MethodPut:     statusCodes{200, 201, 202, 204, 205},
	http.MethodPatch:   statusCodes{200, 201, 202, 204, 205},
	http.MethodDelete:  statusCodes{200, 202, 204},
	http.MethodOptions: statusCodes{200, 204},
}

// defaultExpectationFor returns the built-in expectation for a verb.
// Verbs without a dedicated entry accept any successful response.
func defaultExpectationFor(verb string) StatusExpectation {
	if exp, ok := defaultExpectations[verb]; ok {
		return exp
	}
	return StatusSuccessful
}
