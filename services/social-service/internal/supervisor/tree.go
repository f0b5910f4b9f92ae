// Package supervisor fait tourner les serveurs et consommateurs du service
// sous un arbre suture : un composant qui plante est redémarré, pas le process.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

type TreeConfig struct {
	FailureThreshold float64       // Défaut 5
	FailureDecay     float64       // Secondes, défaut 30
	FailureBackoff   time.Duration // Défaut 15s
	ShutdownTimeout  time.Duration // Défaut 10s
}

// Tree : racine + une couche API (HTTP, gRPC) + une couche messaging (NATS).
type Tree struct {
	root      *suture.Supervisor
	api       *suture.Supervisor
	messaging *suture.Supervisor
}

func NewTree(logger *slog.Logger, cfg TreeConfig) *Tree {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.FailureDecay == 0 {
		cfg.FailureDecay = 30
	}
	if cfg.FailureBackoff == 0 {
		cfg.FailureBackoff = 15 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	// MustHook a un receveur pointeur
	hook := (&sutureslog.Handler{Logger: logger}).MustHook()

	spec := suture.Spec{
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}
	rootSpec := spec
	rootSpec.EventHook = hook

	t := &Tree{
		root:      suture.New("social-service", rootSpec),
		api:       suture.New("api-layer", spec),
		messaging: suture.New("messaging-layer", spec),
	}
	t.root.Add(t.api)
	t.root.Add(t.messaging)
	return t
}

func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

func (t *Tree) AddMessagingService(svc suture.Service) suture.ServiceToken {
	return t.messaging.Add(svc)
}

// Serve bloque jusqu'à l'annulation de ctx.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}
