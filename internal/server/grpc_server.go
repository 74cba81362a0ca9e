package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/oggyb/mawaddah/internal/app"
	"github.com/oggyb/mawaddah/internal/handlers"
	"github.com/oggyb/mawaddah/internal/logger"
	"github.com/oggyb/mawaddah/internal/service/auth"
)

// methods reachable without a bearer token
var publicMethodPrefixes = []string{
	"/grpc.health.v1.",
	"/grpc.reflection.",
}

// NewGRPCServer builds a gRPC server with auth and logging interceptors and
// registers all provided services plus health and reflection.
func NewGRPCServer(appCtx *app.AppContext, tokens handlers.TokenParser, registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			unaryLogger(appCtx.Logger),
			unaryAuth(tokens),
		),
	)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer
}

// RunGRPC serves on host:port until ctx is done, then stops gracefully.
func RunGRPC(ctx context.Context, host, port string, grpcServer *grpc.Server) error {
	addr := fmt.Sprintf("%s:%s", host, port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func unaryAuth(tokens handlers.TokenParser) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		for _, p := range publicMethodPrefixes {
			if strings.HasPrefix(info.FullMethod, p) {
				return next(ctx, req)
			}
		}

		md, _ := metadata.FromIncomingContext(ctx)
		var raw string
		if values := md.Get("authorization"); len(values) > 0 {
			raw = values[0]
		}
		token, ok := auth.BearerToken(raw)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing bearer token")
		}

		identity, err := tokens.ParseToken(token)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid access token")
		}
		return next(auth.WithIdentity(ctx, identity), req)
	}
}

func unaryLogger(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		reqLog := log.With("method", info.FullMethod)

		resp, err := next(logger.WithContext(ctx, reqLog), req)

		reqLog.Info("grpc_request",
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}
