package sync

import (
	"context"
	"strings"
	"time"

	"log/slog"

	"github.com/TheGringo-ai/FixItFred/internal/domain"
	"github.com/TheGringo-ai/FixItFred/internal/feed"
	"github.com/TheGringo-ai/FixItFred/internal/service/registry"
)

const (
	defaultInterval  = 30 * time.Second
	reconcileTimeout = 15 * time.Second
)

// Source lists remote deployment descriptors.
type Source interface {
	RecentDeployments(ctx context.Context) ([]feed.RemoteDeployment, error)
}

// Service periodically merges the remote deployments feed into the local
// registry. The merge is strictly additive: existing records are never
// overwritten and remote absence never deletes anything.
type Service struct {
	registry *registry.Service
	source   Source
	logger   *slog.Logger
	interval time.Duration

	now func() time.Time
}

// New constructs a sync service. Returns nil when no source is configured,
// in which case the registry operates on local state only.
func New(reg *registry.Service, source Source, logger *slog.Logger, interval time.Duration) *Service {
	if reg == nil || source == nil {
		return nil
	}
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger != nil {
		logger = logger.With("component", "sync")
	}
	return &Service{
		registry: reg,
		source:   source,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// Run executes the reconciliation loop until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	if s == nil {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sync service started", "interval", s.interval)
	s.Reconcile(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sync service stopped")
			return
		case <-ticker.C:
			s.Reconcile(ctx)
		}
	}
}

// Reconcile runs one merge cycle. Fetch failures are informational; the
// cycle is skipped and retried on the next interval with no backoff.
func (s *Service) Reconcile(parent context.Context) {
	if s == nil {
		return
	}
	timeout := reconcileTimeout
	if s.interval > 0 && s.interval < timeout {
		timeout = s.interval
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	remotes, err := s.source.RecentDeployments(ctx)
	if err != nil {
		s.logger.Info("remote feed unavailable, skipping cycle", "error", err)
		return
	}

	added := 0
	for _, remote := range remotes {
		if strings.TrimSpace(remote.DeploymentID) == "" {
			continue
		}
		if s.registry.Merge(ctx, s.toRecord(remote)) {
			added++
		}
	}
	if added > 0 {
		s.logger.Info("reconciled remote deployments", "added", added, "seen", len(remotes))
	}
}

// toRecord synthesizes a local record from a remote descriptor.
func (s *Service) toRecord(remote feed.RemoteDeployment) domain.DeploymentRecord {
	industry := inferIndustry(remote.TemplateName)
	modules, ok := remote.ParseModules()
	if !ok {
		modules = []string{"operations", "memory"}
	}
	workers := remote.WorkerCount
	if workers < 0 {
		workers = 0
	}
	revenue := remote.Revenue
	if revenue < 0 {
		revenue = 0
	}
	url := strings.TrimSpace(remote.DeploymentURL)
	if url == "" {
		url = domain.DeploymentURLFor(remote.CompanyName)
	}
	return domain.DeploymentRecord{
		ID:            remote.DeploymentID,
		CompanyName:   remote.CompanyName,
		Industry:      industry,
		Icon:          domain.IconFor(industry),
		Status:        remote.Status,
		WorkerCount:   workers,
		Revenue:       revenue,
		Modules:       modules,
		CreatedDate:   s.createdDate(remote.CreatedAt),
		DeploymentURL: url,
	}
}

// inferIndustry maps a template name onto an industry by case-insensitive
// substring match, defaulting to enterprise.
func inferIndustry(templateName string) string {
	name := strings.ToLower(templateName)
	switch {
	case strings.Contains(name, domain.IndustryManufacturing):
		return domain.IndustryManufacturing
	case strings.Contains(name, domain.IndustryHealthcare):
		return domain.IndustryHealthcare
	case strings.Contains(name, domain.IndustryLogistics):
		return domain.IndustryLogistics
	default:
		return domain.IndustryEnterprise
	}
}

func (s *Service) createdDate(createdAt string) string {
	if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
		return ts.UTC().Format(time.DateOnly)
	}
	if ts, err := time.Parse(time.DateOnly, createdAt); err == nil {
		return ts.Format(time.DateOnly)
	}
	return s.now().UTC().Format(time.DateOnly)
}
