package health

import (
	"context"
	"sort"
	"time"

	corehealth "3tcapital/ms_comprobantes_sri/internal/core/health"
)

const checkTimeout = 2 * time.Second

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Check reports the state of one dependency.
type Check func(ctx context.Context) corehealth.Component

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	startedAt time.Time
	checks    map[string]Check
}

func NewService(meta Metadata) *Service {
	return &Service{
		meta:      meta,
		startedAt: time.Now().UTC(),
		checks:    make(map[string]Check),
	}
}

// Register adds a dependency check. It must be called before the service
// starts handling requests.
func (s *Service) Register(name string, check Check) {
	s.checks[name] = check
}

// Status returns the current availability snapshot. The service is DEGRADED
// when any dependency is not UP; it keeps answering extraction requests.
func (s *Service) Status(ctx context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      corehealth.StatusUp,
		StartedAt:   s.startedAt,
		Uptime:      uptime.Round(time.Second).String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}
	if len(s.checks) == 0 {
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status.Dependencies = make(map[string]corehealth.Component, len(names))
	for _, name := range names {
		component := s.checks[name](ctx)
		status.Dependencies[name] = component
		if component.Status != corehealth.StatusUp {
			status.Status = corehealth.StatusDegraded
		}
	}
	return status
}
