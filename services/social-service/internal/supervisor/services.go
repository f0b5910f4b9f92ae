package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/thejerf/suture/v4"
	"google.golang.org/grpc"
)

// HTTPServer est satisfait par *http.Server.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPService construit un serveur neuf à chaque Serve : un *http.Server
// fermé ne redémarre jamais, suture doit repartir d'une instance fraîche.
type HTTPService struct {
	newServer       func() HTTPServer
	shutdownTimeout time.Duration
}

func NewHTTPService(newServer func() HTTPServer, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{newServer: newServer, shutdownTimeout: shutdownTimeout}
}

func (s *HTTPService) Serve(ctx context.Context) error {
	server := s.newServer()
	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			// Fermé hors de l'arbre : relancer ne servirait à rien
			return fmt.Errorf("http server closed outside supervisor: %w", suture.ErrDoNotRestart)
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		// ctx est déjà annulé : contexte neuf pour le drain
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (s *HTTPService) String() string { return "http-server" }

// GRPCService sert health + reflection, et rien d'autre.
type GRPCService struct {
	server *grpc.Server
	addr   string
}

func NewGRPCService(server *grpc.Server, addr string) *GRPCService {
	return &GRPCService{server: server, addr: addr}
}

func (s *GRPCService) Serve(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", s.addr, err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.server.Serve(lis) }()
	slog.Info("📡 gRPC health listening", "addr", s.addr)

	select {
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server stopped outside supervisor: %w", suture.ErrDoNotRestart)
		}
		return fmt.Errorf("grpc server failed: %w", err)
	case <-ctx.Done():
		s.server.GracefulStop()
		return ctx.Err()
	}
}

func (s *GRPCService) String() string { return "grpc-server" }

// Subscriber ouvre les abonnements NATS du service.
type Subscriber interface {
	Subscribe(nc *nats.Conn) ([]*nats.Subscription, error)
}

// ConsumerService maintient les abonnements tant que ctx vit, puis les draine.
type ConsumerService struct {
	nc         *nats.Conn
	subscriber Subscriber
}

func NewConsumerService(nc *nats.Conn, subscriber Subscriber) *ConsumerService {
	return &ConsumerService{nc: nc, subscriber: subscriber}
}

func (s *ConsumerService) Serve(ctx context.Context) error {
	subs, err := s.subscriber.Subscribe(s.nc)
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	slog.Info("🎧 NATS consumers started", "subscriptions", len(subs))

	<-ctx.Done()
	for _, sub := range subs {
		if err := sub.Drain(); err != nil {
			slog.Warn("NATS drain failed", "subject", sub.Subject, "error", err)
		}
	}
	return ctx.Err()
}

func (s *ConsumerService) String() string { return "nats-consumer" }
