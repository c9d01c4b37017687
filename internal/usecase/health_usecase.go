package usecase

import (
	"context"
	"time"

	"career-catalog-backend/internal/domain"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

type HealthUsecase interface {
	Check(ctx context.Context) map[string]string
}

type healthUsecase struct {
	bootstrap domain.BootstrapUsecase
	checks    map[string]Pinger
}

func NewHealthUsecase(bootstrap domain.BootstrapUsecase, checks map[string]Pinger) HealthUsecase {
	return &healthUsecase{bootstrap: bootstrap, checks: checks}
}

// Check reports "bootstrapping" while a seed run is active so callers can
// hold traffic until the graph is complete.
func (u *healthUsecase) Check(ctx context.Context) map[string]string {
	result := map[string]string{"status": "ok"}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	for name, ping := range u.checks {
		if err := ping(ctx); err != nil {
			result[name] = "unavailable"
			result["status"] = "degraded"
			continue
		}
		result[name] = "ok"
	}

	if u.bootstrap != nil && u.bootstrap.Running() {
		result["status"] = "bootstrapping"
	}
	return result
}
