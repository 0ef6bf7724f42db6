// Package stream reparte las ediciones del directo entre las plataformas
// conectadas.
package stream

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"zhatCmd/internal/domain"
	"zhatCmd/internal/infrastructure/logging"
)

var (
	ErrNoServices          = errors.New("no hay plataformas configuradas")
	ErrUnsupportedPlatform = errors.New("plataforma no soportada")
)

// PlatformError es el fallo de una plataforma concreta.
type PlatformError struct {
	Platform domain.Platform
	Err      error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s: %v", e.Platform, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }

type Resolver struct {
	logger *log.Logger

	mu       sync.RWMutex
	services map[domain.Platform]domain.StreamService
	status   map[domain.Platform]domain.StreamStatusService
}

func NewResolver(logger *log.Logger) *Resolver {
	return &Resolver{
		logger:   logging.Or(logger),
		services: make(map[domain.Platform]domain.StreamService),
		status:   make(map[domain.Platform]domain.StreamStatusService),
	}
}

// Set registra (o con nil, quita) el servicio de una plataforma.
func (r *Resolver) Set(p domain.Platform, svc domain.StreamService) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if svc == nil {
		delete(r.services, p)
		return
	}
	r.services[p] = svc
}

func (r *Resolver) SetStatus(p domain.Platform, svc domain.StreamStatusService) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if svc == nil {
		delete(r.status, p)
		return
	}
	r.status[p] = svc
}

func (r *Resolver) ForPlatform(p domain.Platform) domain.StreamService {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.services[p]
}

// Platforms devuelve las plataformas con servicio, ordenadas.
func (r *Resolver) Platforms() []domain.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	platforms := lo.Keys(r.services)
	slices.Sort(platforms)
	return platforms
}

// SetTitle cambia el título en only, o en todas si only está vacío.
// Devuelve las plataformas actualizadas y los fallos como *PlatformError.
func (r *Resolver) SetTitle(ctx context.Context, title string, only domain.Platform) ([]domain.Platform, error) {
	return r.apply(ctx, only, "title", func(svc domain.StreamService) error {
		return svc.SetTitle(ctx, title)
	})
}

func (r *Resolver) SetCategory(ctx context.Context, name string, only domain.Platform) ([]domain.Platform, error) {
	return r.apply(ctx, only, "category", func(svc domain.StreamService) error {
		return svc.SetCategory(ctx, name)
	})
}

func (r *Resolver) Search(ctx context.Context, p domain.Platform, query string) ([]domain.CategoryOption, error) {
	svc := r.ForPlatform(p)
	if svc == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, p)
	}
	return svc.SearchCategories(ctx, query)
}

func (r *Resolver) apply(ctx context.Context, only domain.Platform, op string, fn func(domain.StreamService) error) ([]domain.Platform, error) {
	targets := r.Platforms()
	if only != "" {
		if r.ForPlatform(only) == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, only)
		}
		targets = []domain.Platform{only}
	}
	if len(targets) == 0 {
		return nil, ErrNoServices
	}

	var updated []domain.Platform
	var errs []error
	for _, p := range targets {
		svc := r.ForPlatform(p)
		if svc == nil {
			continue
		}
		if err := fn(svc); err != nil {
			r.logger.Error("stream update failed", "op", op, "platform", p, "err", err)
			errs = append(errs, &PlatformError{Platform: p, Err: err})
			continue
		}
		updated = append(updated, p)
	}
	return updated, errors.Join(errs...)
}

// Snapshot consulta el estado de cada plataforma con servicio de estado.
func (r *Resolver) Snapshot(ctx context.Context) []domain.StreamStatus {
	r.mu.RLock()
	services := make(map[domain.Platform]domain.StreamStatusService, len(r.status))
	for platform, svc := range r.status {
		services[platform] = svc
	}
	r.mu.RUnlock()

	platforms := lo.Keys(services)
	slices.Sort(platforms)

	out := make([]domain.StreamStatus, 0, len(services))
	for _, platform := range platforms {
		status, err := services[platform].Status(ctx)
		if err != nil {
			r.logger.Warn("stream status failed", "platform", platform, "err", err)
			continue
		}
		status.Platform = platform
		out = append(out, status)
	}

	return out
}
