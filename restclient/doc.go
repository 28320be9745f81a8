// Package restclient is a helper layer for building typed REST API clients
// over net/http.
//
// # Features
//
//   - Base and request-level configuration merged into one request:
//     path prefix, query, headers, basic auth — with fail-fast collisions
//   - Flexible status validation: exact code, code sets, half-open ranges,
//     symbolic classes, or opaque response predicates
//   - Charset-correct body text: decoded per the Content-Type charset,
//     raw bytes when none is declared
//   - Pre / around / post hook pipeline wrapping request execution
//   - Per-request transport attribute overrides with guaranteed restore
//   - OpenTelemetry spans and metrics, optional Prometheus hook
//
// # Quick Start
//
//	client, err := restclient.New("api.example.com",
//	    restclient.WithTLS(),
//	    restclient.WithBasePath("/v2"),
//	    restclient.WithBaseHeaders(map[string]string{"X-Api-Key": key}),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	// Simple GET; defaults expect a 200
//	resp, err := client.Request("GetUsers").Get(ctx, "/users")
//
//	// POST with body and a custom expectation
//	resp, err := client.Request("CreateUser").
//	    BodyJSON(user).
//	    ExpectStatus(201).
//	    Post(ctx, "/users")
//
// # Status Validation
//
// Every request is validated against a status expectation. Without an
// explicit one a per-verb default applies (GET expects 200, POST accepts
// 200/201/202/204/205, and so on). Mismatches surface as
// *UnexpectedStatusCode carrying the expectation and the full response:
//
//	resp, err := client.Request("GetUser").
//	    ExpectStatus(restclient.StatusSuccessful).
//	    Get(ctx, "/users/1")
//
//	var statusErr *restclient.UnexpectedStatusCode
//	if errors.As(err, &statusErr) {
//	    body, _ := statusErr.Response.Text()
//	    log.Printf("unexpected %d: %s", statusErr.Response.StatusCode, body)
//	}
//
// Passing nil disables validation for a single request.
//
// # Hooks
//
// Hooks wrap request execution in three layers. Pre hooks observe the built
// request, around hooks wrap the transport call (first registered is
// outermost) and must invoke their continuation to let the request proceed,
// post hooks observe the validated response:
//
//	client, err := restclient.New("api.example.com",
//	    restclient.WithPreHook(restclient.RequestIDHook("X-Request-ID")),
//	    restclient.WithAroundHook(func(req *http.Request, next restclient.Next) (*restclient.Response, error) {
//	        // time, observe, or suppress the call
//	        return next()
//	    }),
//	)
//
// Supplying a logger via WithLogger attaches built-in logging hooks.
//
// # Concurrency
//
// A Client keeps one persistent connection and is meant for synchronous,
// single-threaded use. Use one Client per goroutine; there is no internal
// locking.
package restclient
