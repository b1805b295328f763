package rpc

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/peer"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/redmonkez12/go-auth-service/internal/auth"
	"github.com/redmonkez12/go-auth-service/internal/logging"
	"github.com/redmonkez12/go-auth-service/internal/metrics"
	"github.com/redmonkez12/go-auth-service/internal/ratelimit"
	"github.com/redmonkez12/go-auth-service/internal/user"
)

// Server exposes auth.Service over gRPC
type Server struct {
	address string
	service *auth.Service
	limiter ratelimit.Limiter
	metrics metrics.Recorder
	logger  *logging.Logger

	grpcServer *grpc.Server
	health     *health.Server
}

func NewServer(address string, service *auth.Service, limiter ratelimit.Limiter, recorder metrics.Recorder, logger *logging.Logger) *Server {
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	s := &Server{
		address: address,
		service: service,
		limiter: limiter,
		metrics: recorder,
		logger:  logger.WithComponent("grpc"),
		health:  health.NewServer(),
	}

	s.grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoveryInterceptor, s.loggingInterceptor))
	s.grpcServer.RegisterService(&AuthServiceDesc, s)
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return s
}

// Run listens on the configured address and serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln and stops gracefully when ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stopped := make(chan struct{})
	defer close(stopped)

	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping gRPC server")
			s.health.Shutdown()
			s.grpcServer.GracefulStop()
		case <-stopped:
		}
	}()

	s.logger.Info("starting gRPC server", "addr", ln.Addr().String())

	if err := s.grpcServer.Serve(ln); err != nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

func (s *Server) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.checkRateLimit(ctx, auth.OpRegister); err != nil {
		return nil, err
	}

	session, err := s.service.Register(ctx, auth.RegisterRequest{
		Name:     stringField(in, "name"),
		Email:    stringField(in, "email"),
		Password: stringField(in, "password"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return sessionStruct(session)
}

func (s *Server) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.checkRateLimit(ctx, auth.OpLogin); err != nil {
		return nil, err
	}

	session, err := s.service.Login(ctx, auth.LoginRequest{
		Email:    stringField(in, "email"),
		Password: stringField(in, "password"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return sessionStruct(session)
}

func (s *Server) VerifyToken(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	session, err := s.service.VerifyToken(ctx, stringField(in, "token"))
	if err != nil {
		return nil, toStatus(err)
	}
	return sessionStruct(session)
}

// checkRateLimit checks and records one attempt for the calling peer.
// Limiter failures are logged and the call is let through.
func (s *Server) checkRateLimit(ctx context.Context, purpose string) error {
	ip := peerIP(ctx)
	logger := logging.GetLoggerFromContext(ctx)

	exceeded, err := s.limiter.CheckIPRateLimitWithPurpose(ctx, ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return nil
	}
	if exceeded {
		s.metrics.RecordRateLimited(purpose)
		return rateLimitedStatus()
	}

	if err := s.limiter.RecordIPRequestWithPurpose(ctx, ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}
	return nil
}

func stringField(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

func sessionStruct(session *auth.Session) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(map[string]any{
		"user":  profileMap(session.User),
		"token": session.Token,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return out, nil
}

func profileMap(p user.Profile) map[string]any {
	return map[string]any{
		"id":    p.ID,
		"name":  p.Name,
		"email": p.Email,
	}
}

// peerIP returns the caller's address without the port
func peerIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
