package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	blog "github.com/hanpama/graphcore/internal/blog"
	engine "github.com/hanpama/graphcore/internal/engine"
	eventbus "github.com/hanpama/graphcore/internal/eventbus"
	metrics "github.com/hanpama/graphcore/internal/metrics"
	otel "github.com/hanpama/graphcore/internal/otel"
	server "github.com/hanpama/graphcore/internal/server"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog schema over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			lis, err := net.Listen("tcp", a.conf.GetString("addr"))
			if err != nil {
				return err
			}
			return a.serve(ctx, lis)
		},
	}
	addServeFlags(cmd.Flags())
	return cmd
}

func addServeFlags(flags *flag.FlagSet) {
	flags.String("addr", ":8080", "Address to listen on")
	flags.Duration("timeout", engine.DefaultTimeout, "Per-operation timeout")
	flags.Bool("pretty", false, "Indent JSON responses")
	flags.Int64("max-body-bytes", 1<<20, "Largest accepted request body; 0 is unlimited")
	flags.StringSlice("cors", nil, "Allowed CORS origins; \"*\" allows any")
	flags.StringSlice("metadata-header", nil, "HTTP headers forwarded to resolvers as gRPC metadata")
	flags.Float64("rate-limit", 0, "Requests per second accepted across all clients; 0 disables limiting")
	flags.Int("rate-burst", 10, "Requests allowed above --rate-limit in a burst")
	flags.String("otel-endpoint", "", "OTLP/gRPC collector address; empty disables tracing")
	flags.String("otel-service", "graphcore", "Service name reported with traces")
	flags.Bool("metrics", true, "Expose Prometheus metrics on /metrics")
}

// serve runs the HTTP server on lis until ctx is done, then shuts it down
// gracefully.
func (a *app) serve(ctx context.Context, lis net.Listener) error {
	conf, logger := a.conf, a.logger

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing store", zap.Error(err))
		}
	}()

	s, err := blog.NewSchema(store)
	if err != nil {
		return err
	}

	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)

	shutdownTracing, err := otel.Setup(conf.GetString("otel-endpoint"), conf.GetString("otel-service"))
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("shutting down tracing", zap.Error(err))
		}
	}()

	mux := http.NewServeMux()
	if conf.GetBool("metrics") {
		m := metrics.New()
		defer m.Subscribe()()
		mux.Handle("/metrics", m.Handler())
	}

	e := engine.New(s, engine.WithLogger(logger), engine.WithTimeout(conf.GetDuration("timeout")))
	opts := []server.Option{
		server.WithLogger(logger),
		server.WithTimeout(conf.GetDuration("timeout")),
		server.WithMaxBodyBytes(conf.GetInt64("max-body-bytes")),
		server.WithCORS(stringSlice(conf, "cors")...),
		server.WithMetadataHeaders(stringSlice(conf, "metadata-header")...),
	}
	if conf.GetBool("pretty") {
		opts = append(opts, server.WithPretty())
	}
	if limit := conf.GetFloat64("rate-limit"); limit > 0 {
		opts = append(opts, server.WithRateLimit(limit, conf.GetInt("rate-burst")))
	}
	h, err := server.New(e, opts...)
	if err != nil {
		return err
	}
	mux.Handle("/graphql", h)

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", lis.Addr().String()))
		if err := srv.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
