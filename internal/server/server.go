package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/metadata"

	engine "github.com/hanpama/graphcore/internal/engine"
	eventbus "github.com/hanpama/graphcore/internal/eventbus"
	events "github.com/hanpama/graphcore/internal/events"
	executor "github.com/hanpama/graphcore/internal/executor"
	reqid "github.com/hanpama/graphcore/internal/reqid"
)

// Handler is an http.Handler that serves a GraphQL endpoint.
// It parses requests, runs them through the engine and writes the results.
type Handler struct {
	engine  *engine.Engine
	opt     Options
	limiter *rate.Limiter
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// MetadataHeaders lists HTTP headers to forward into gRPC metadata.
	// Header names are case-insensitive. Default is none.
	MetadataHeaders []string

	// RateLimit caps accepted requests per second across all clients, with
	// RateBurst extra. 0 disables limiting.
	RateLimit rate.Limit
	RateBurst int

	// RootValue is passed to root field resolvers.
	RootValue any

	Logger *zap.Logger
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithMetadataHeaders(headers ...string) Option {
	return func(o *Options) { o.MetadataHeaders = headers }
}
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *Options) {
		o.RateLimit = rate.Limit(perSecond)
		o.RateBurst = burst
	}
}
func WithRootValue(v any) Option            { return func(o *Options) { o.RootValue = v } }
func WithLogger(logger *zap.Logger) Option { return func(o *Options) { o.Logger = logger } }

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// New creates a new GraphQL HTTP handler serving e.
func New(e *engine.Engine, opts ...Option) (*Handler, error) {
	op := Options{Timeout: 10 * time.Second, Logger: zap.NewNop()}
	for _, f := range opts {
		f(&op)
	}
	h := &Handler{engine: e, opt: op}
	if op.RateLimit > 0 {
		burst := op.RateBurst
		if burst < 1 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(op.RateLimit, burst)
	}
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, rid := reqid.WithID(ctx, r.Header.Get(RequestIDHeader))
	w.Header().Set(RequestIDHeader, rid)
	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		duration := time.Since(start)
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: duration})
		h.opt.Logger.Debug("http request",
			zap.String("request_id", rid),
			zap.String("method", r.Method),
			zap.Int("status", status),
			zap.Duration("duration", duration),
		)
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse("method not allowed"), h.opt.Pretty)
		return
	}

	if h.limiter != nil && !h.limiter.Allow() {
		status = http.StatusTooManyRequests
		eventbus.Publish(ctx, events.HTTPRateLimited{Request: r})
		w.Header().Set("Retry-After", "1")
		writeJSON(w, status, errorResponse("rate limit exceeded"), h.opt.Pretty)
		return
	}

	// Map configured headers into metadata
	md := metadata.MD{}
	if len(h.opt.MetadataHeaders) > 0 {
		allowed := make(map[string]struct{}, len(h.opt.MetadataHeaders))
		for _, hdr := range h.opt.MetadataHeaders {
			allowed[strings.ToLower(hdr)] = struct{}{}
		}
		for k, v := range r.Header {
			if _, ok := allowed[strings.ToLower(k)]; ok {
				md[strings.ToLower(k)] = v
			}
		}
	}
	md["graphql-request-id"] = []string{rid}
	ctx = metadata.NewOutgoingContext(ctx, md)

	req, batch, berr := parseRequest(r, h.opt.MaxBodyBytes)
	if berr != nil {
		status = http.StatusBadRequest
		if berr.Message == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, executor.ErrorResult(berr), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	if batch != nil {
		// Batched requests
		op := make([]*executor.ExecutionResult, len(batch))
		for i := range batch {
			op[i] = h.engine.Execute(ctx, batch[i], h.opt.RootValue)
		}
		writeJSON(w, status, op, h.opt.Pretty)
		return
	}

	res := h.engine.Execute(ctx, req, h.opt.RootValue)
	writeJSON(w, status, res, h.opt.Pretty)
}

// ------------------ Request parsing ------------------

func parseRequest(r *http.Request, maxBody int64) (engine.Request, []engine.Request, *gqlerror.Error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return engine.Request{}, nil, gqlerror.Errorf("missing 'query'")
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return engine.Request{}, nil, gqlerror.Errorf("invalid 'variables' JSON")
			}
		}
		op := r.URL.Query().Get("operationName")
		return engine.Request{Query: q, Variables: vars, OperationName: op}, nil, nil
	}

	// POST
	ct := r.Header.Get("Content-Type")
	if ct == "" || ct == "application/json" || strings.HasPrefix(ct, "application/json;") {
		reader := io.Reader(r.Body)
		if maxBody > 0 {
			reader = io.LimitReader(r.Body, maxBody+1)
		}
		body, err := io.ReadAll(reader)
		if err != nil {
			return engine.Request{}, nil, gqlerror.Errorf("failed to read body")
		}
		defer r.Body.Close()
		if maxBody > 0 && int64(len(body)) > maxBody {
			return engine.Request{}, nil, gqlerror.Errorf(errBodyTooLargeMessage)
		}

		// Try array (batch)
		var arr []engine.Request
		if len(body) > 0 && body[0] == '[' {
			if err := json.Unmarshal(body, &arr); err != nil {
				return engine.Request{}, nil, gqlerror.Errorf("invalid JSON")
			}
			if len(arr) == 0 {
				return engine.Request{}, nil, gqlerror.Errorf("empty batch")
			}
			return engine.Request{}, arr, nil
		}
		// Single
		var req engine.Request
		if err := json.Unmarshal(body, &req); err != nil {
			return engine.Request{}, nil, gqlerror.Errorf("invalid JSON")
		}
		if req.Query == "" {
			return engine.Request{}, nil, gqlerror.Errorf("missing 'query'")
		}
		if req.Variables == nil {
			req.Variables = map[string]any{}
		}
		return req, nil, nil
	}

	return engine.Request{}, nil, gqlerror.Errorf("unsupported Content-Type")
}

// ------------------ Response formatting ------------------

func errorResponse(message string) *executor.ExecutionResult {
	return executor.ErrorResult(&gqlerror.Error{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

const errBodyTooLargeMessage = "body too large"

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
