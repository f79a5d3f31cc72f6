package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"

	engine "github.com/hanpama/graphcore/internal/engine"
	reqid "github.com/hanpama/graphcore/internal/reqid"
	schema "github.com/hanpama/graphcore/internal/schema"
)

func newTestHandler(t *testing.T, hello schema.ResolveFunc, opts ...Option) *Handler {
	t.Helper()
	if hello == nil {
		hello = func(context.Context, any, map[string]any) (any, error) { return "world", nil }
	}
	reg := schema.NewRegistry()
	require.NoError(t, reg.RegisterObjectType(schema.NewObject("Query", "").
		AddField(schema.NewField("hello", "", schema.NamedType("String")).SetResolver(hello))))
	sch, err := schema.Build(reg, "Query", "")
	require.NoError(t, err)
	h, err := New(engine.New(sch), opts...)
	require.NoError(t, err)
	return h
}

func post(h http.Handler, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPostQuery(t *testing.T) {
	h := newTestHandler(t, nil)

	w := post(h, `{"query":"{ hello }"}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	require.Equal(t, `{"data":{"hello":"world"}}`+"\n", w.Body.String())
}

func TestGetQuery(t *testing.T) {
	h := newTestHandler(t, func(_ context.Context, _ any, args map[string]any) (any, error) {
		return "world", nil
	})

	req := httptest.NewRequest("GET", "/?query="+url.QueryEscape("query Q { hello }")+"&operationName=Q", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"data":{"hello":"world"}}`+"\n", w.Body.String())
}

func TestGraphQLErrorsAreStatusOK(t *testing.T) {
	h := newTestHandler(t, nil)

	w := post(h, `{"query":"{ nope }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"errors":[{"message":"Field 'nope' doesn't exist on type 'Query'","path":["nope"]}]}`+"\n", w.Body.String())

	w = post(h, `{"query":"{ hello "}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), `"data"`)
}

func TestBadRequests(t *testing.T) {
	h := newTestHandler(t, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", `{"query":`, `{"errors":[{"message":"invalid JSON"}]}`},
		{"missing query", `{}`, `{"errors":[{"message":"missing 'query'"}]}`},
		{"empty batch", `[]`, `{"errors":[{"message":"empty batch"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(h, tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Equal(t, tt.want+"\n", w.Body.String())
		})
	}

	req := httptest.NewRequest("PUT", "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestBatch(t *testing.T) {
	h := newTestHandler(t, nil)

	w := post(h, `[{"query":"{ hello }"},{"query":"{ a: hello }"}]`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `[{"data":{"hello":"world"}},{"data":{"a":"world"}}]`+"\n", w.Body.String())
}

func TestForwardedHeaders(t *testing.T) {
	var captured metadata.MD
	h := newTestHandler(t, func(ctx context.Context, _ any, _ map[string]any) (any, error) {
		captured, _ = metadata.FromOutgoingContext(ctx)
		return "world", nil
	}, WithMetadataHeaders("X-Test"))

	w := post(h, `{"query":"{ hello }"}`, "X-Test", "abc", "X-Other", "nope")

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	require.Equal(t, []string{"abc"}, captured.Get("x-test"))
	require.Empty(t, captured.Get("x-other"))
}

func TestForwardedHeadersDefaultEmpty(t *testing.T) {
	var captured metadata.MD
	h := newTestHandler(t, func(ctx context.Context, _ any, _ map[string]any) (any, error) {
		captured, _ = metadata.FromOutgoingContext(ctx)
		return "world", nil
	})

	w := post(h, `{"query":"{ hello }"}`, "X-Test", "abc")

	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, captured.Get("x-test"), "header should not be forwarded by default")
}

func TestCORSAndPreflight(t *testing.T) {
	h := newTestHandler(t, nil, WithCORS("*"))

	// simple request
	w := post(h, `{"query":"{ hello }"}`, "Origin", "http://example.com")
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	// preflight
	pre := httptest.NewRequest("OPTIONS", "/", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	require.Equal(t, http.StatusNoContent, pw.Code)
	require.Equal(t, "*", pw.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "X-Test", pw.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSSpecificOrigin(t *testing.T) {
	h := newTestHandler(t, nil, WithCORS("http://allowed.example"))

	w := post(h, `{"query":"{ hello }"}`, "Origin", "http://allowed.example")
	require.Equal(t, "http://allowed.example", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Origin", w.Header().Get("Vary"))

	w = post(h, `{"query":"{ hello }"}`, "Origin", "http://other.example")
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMaxBodyBytes(t *testing.T) {
	h := newTestHandler(t, nil, WithMaxBodyBytes(10))

	w := post(h, `{"query":"1234567890"}`)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestID(t *testing.T) {
	var capturedMD metadata.MD
	var capturedID string
	h := newTestHandler(t, func(ctx context.Context, _ any, _ map[string]any) (any, error) {
		capturedMD, _ = metadata.FromOutgoingContext(ctx)
		capturedID, _ = reqid.FromContext(ctx)
		return "world", nil
	})

	w := post(h, `{"query":"{ hello }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, capturedID, "missing request id in context")
	require.Equal(t, []string{capturedID}, capturedMD.Get("graphql-request-id"))
	require.Equal(t, capturedID, w.Header().Get(RequestIDHeader))

	const supplied = "0b5c7f4e-9a1d-4e3b-8c2f-6d7e8f9a0b1c"
	w = post(h, `{"query":"{ hello }"}`, RequestIDHeader, supplied)
	require.Equal(t, supplied, capturedID)
	require.Equal(t, supplied, w.Header().Get(RequestIDHeader))
}

func TestRateLimit(t *testing.T) {
	h := newTestHandler(t, nil, WithRateLimit(0.001, 2))

	require.Equal(t, http.StatusOK, post(h, `{"query":"{ hello }"}`).Code)
	require.Equal(t, http.StatusOK, post(h, `{"query":"{ hello }"}`).Code)

	w := post(h, `{"query":"{ hello }"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "1", w.Header().Get("Retry-After"))
	require.True(t, strings.Contains(w.Body.String(), `"rate limit exceeded"`))
}
