package restclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooks_PreOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	var order []string
	client := testClient(t, server,
		WithPreHook(func(*http.Request) error {
			order = append(order, "first")
			return nil
		}),
		WithPreHook(func(*http.Request) error {
			order = append(order, "second")
			return nil
		}),
	)

	_, err := client.Request("test").Get(context.Background(), "/x")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestHooks_AroundNesting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	var events []string
	around := func(label string) AroundHook {
		return func(req *http.Request, next Next) (*Response, error) {
			events = append(events, label+"-before")
			resp, err := next()
			events = append(events, label+"-after")
			return resp, err
		}
	}

	client := testClient(t, server,
		WithAroundHook(around("A")),
		WithAroundHook(around("B")),
	)

	_, err := client.Request("test").Get(context.Background(), "/x")
	require.NoError(t, err)

	// First registered is outermost: A(B(actual request)).
	assert.Equal(t, []string{"A-before", "B-before", "B-after", "A-after"}, events)
}

func TestHooks_AroundSuppressesRequest(t *testing.T) {
	dispatched := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dispatched = true
	}))
	defer server.Close()

	client := testClient(t, server,
		WithAroundHook(func(req *http.Request, next Next) (*Response, error) {
			// Never invoking next suppresses the request entirely.
			return nil, nil
		}),
	)

	resp, err := client.Request("test").Get(context.Background(), "/x")
	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.False(t, dispatched)
}

func TestHooks_PostRunsAfterValidation(t *testing.T) {
	t.Run("given passing validation, then post hooks run in order", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer server.Close()

		var order []string
		client := testClient(t, server,
			WithPostHook(func(resp *Response, req *http.Request) error {
				order = append(order, "first")
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				return nil
			}),
			WithPostHook(func(*Response, *http.Request) error {
				order = append(order, "second")
				return nil
			}),
		)

		_, err := client.Request("test").Get(context.Background(), "/x")
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("given failing validation, then post hooks are skipped", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		called := false
		client := testClient(t, server,
			WithPostHook(func(*Response, *http.Request) error {
				called = true
				return nil
			}),
		)

		_, err := client.Request("test").Get(context.Background(), "/x")
		var statusErr *UnexpectedStatusCode
		require.ErrorAs(t, err, &statusErr)
		assert.False(t, called, "post hooks must not observe a response that failed validation")
	})
}

func TestHooks_BuiltInLogging(t *testing.T) {
	t.Run("given a logger, then requests are logged as METHOD URI", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer server.Close()

		var buf strings.Builder
		client := testClient(t, server, WithLogger(zerolog.New(&buf)))

		_, err := client.Request("test").Get(context.Background(), "/some_path")
		require.NoError(t, err)

		assert.Contains(t, buf.String(), "GET http://")
		assert.Contains(t, buf.String(), "/some_path")
	})

	t.Run("given a transport failure, then it is logged and re-returned unchanged", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		var buf strings.Builder
		client := testClient(t, server, WithLogger(zerolog.New(&buf)))
		server.Close()

		_, err := client.Request("test").Get(context.Background(), "/x")
		require.Error(t, err)

		assert.Contains(t, buf.String(), "Failed to GET")
		assert.Contains(t, buf.String(), "(*url.Error)")
	})

	t.Run("given basic auth, then the password never reaches the log", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer server.Close()

		var buf strings.Builder
		client := testClient(t, server,
			WithLogger(zerolog.New(&buf)),
			WithBasicAuth("user", "s3cret"),
		)

		_, err := client.Request("test").Get(context.Background(), "/x")
		require.NoError(t, err)

		assert.NotContains(t, buf.String(), "s3cret")
		assert.Contains(t, buf.String(), "user:xxxxx@")
	})

	t.Run("given basic auth and a transport failure, then the failure log is redacted too", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		var buf strings.Builder
		client := testClient(t, server,
			WithLogger(zerolog.New(&buf)),
			WithBasicAuth("user", "s3cret"),
		)
		server.Close()

		_, err := client.Request("test").Get(context.Background(), "/x")
		require.Error(t, err)

		assert.Contains(t, buf.String(), "Failed to GET")
		assert.NotContains(t, buf.String(), "s3cret")
	})
}

func TestRequestIDHook(t *testing.T) {
	var gotID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
	}))
	defer server.Close()

	client := testClient(t, server, WithPreHook(RequestIDHook("X-Request-ID")))

	_, err := client.Request("test").Get(context.Background(), "/x")
	require.NoError(t, err)

	_, err = uuid.Parse(gotID)
	assert.NoError(t, err, "header must carry a parseable UUID")
}

func TestMetricsHook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	registry := prometheus.NewRegistry()
	hook, err := MetricsHook(registry)
	require.NoError(t, err)

	client := testClient(t, server, WithAroundHook(hook))

	_, err = client.Request("test").Get(context.Background(), "/x")
	require.NoError(t, err)
	_, err = client.Request("test").Get(context.Background(), "/x")
	require.NoError(t, err)

	families, err := registry.Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() != "restclient_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(2), total)
}
