package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName: имя, под которым сервис отмечается в health.
const ServiceName = "warehouse.v1.Warehouse"

// NewServer собирает gRPC сервер с health и reflection. Статус SERVING выставляется сразу,
// при остановке вызывающий переводит его в NOT_SERVING через health.Server.Shutdown.
func NewServer(log *zap.Logger) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			NewRecoveryUnaryServerInterceptor(log),
			NewLoggingUnaryServerInterceptor(log),
		),
	)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthSrv.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(srv, healthSrv)

	// Reflection for local debugging
	reflection.Register(srv)

	return srv, healthSrv
}

// NewLoggingUnaryServerInterceptor пишет метод, код и длительность каждого вызова.
// Health-пробы не логируются.
func NewLoggingUnaryServerInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	quiet := map[string]struct{}{
		grpc_health_v1.Health_Check_FullMethodName: {},
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if _, ok := quiet[info.FullMethod]; ok {
			return resp, err
		}

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("took", time.Since(start)),
		}
		if err != nil {
			log.Warn("grpc call failed", append(fields, zap.Error(err))...)
		} else {
			log.Debug("grpc call", fields...)
		}
		return resp, err
	}
}

// NewRecoveryUnaryServerInterceptor переводит панику обработчика в codes.Internal.
func NewRecoveryUnaryServerInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("grpc handler panic", zap.String("method", info.FullMethod), zap.Any("panic", r))
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
