package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/TheGringo-ai/FixItFred/internal/domain"
	"github.com/TheGringo-ai/FixItFred/internal/events"
	"github.com/TheGringo-ai/FixItFred/internal/repository"
)

const (
	defaultWorkerCount = 100
	defaultRevenue     = 50000
)

// CreateInput encapsulates deployment record creation attributes. Pointer
// fields distinguish "unset" from an explicit zero.
type CreateInput struct {
	ID            string   `json:"id"`
	CompanyName   string   `json:"company_name"`
	Industry      string   `json:"industry"`
	Status        string   `json:"status"`
	WorkerCount   *int     `json:"worker_count"`
	Revenue       *float64 `json:"revenue"`
	Modules       []string `json:"modules"`
	DeploymentURL string   `json:"deployment_url"`
}

// UpdateInput holds the mergeable fields of a record. Identity fields (id,
// created date) and the derived icon are deliberately absent.
type UpdateInput struct {
	CompanyName   *string  `json:"company_name"`
	Industry      *string  `json:"industry"`
	Status        *string  `json:"status"`
	WorkerCount   *int     `json:"worker_count"`
	Revenue       *float64 `json:"revenue"`
	Modules       []string `json:"modules"`
	DeploymentURL *string  `json:"deployment_url"`
}

// Service maintains the authoritative local view of deployment records with
// a persisted mirror and change notifications. The collection is guarded by
// a mutex: timer flips, reconciler merges, and HTTP callers all mutate it.
type Service struct {
	mu      sync.Mutex
	records []domain.DeploymentRecord

	store  repository.RecordStore
	hub    *events.Hub
	logger *slog.Logger

	quickDeployDelay time.Duration
	now              func() time.Time
}

// New constructs the registry and loads the persisted collection. A missing
// or unreadable collection is replaced by the demo dataset and written back,
// so a corrupt store heals itself on the next start.
func New(ctx context.Context, store repository.RecordStore, hub *events.Hub, logger *slog.Logger, quickDeployDelay time.Duration) *Service {
	s := &Service{
		store:            store,
		hub:              hub,
		logger:           logger,
		quickDeployDelay: quickDeployDelay,
		now:              time.Now,
	}
	records, err := store.LoadRecords(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Warn("could not load persisted collection, reseeding", "error", err)
		}
		records = demoRecords(s.today())
		if err := store.SaveRecords(ctx, records); err != nil {
			logger.Warn("failed to persist seed collection", "error", err)
		}
		logger.Info("registry seeded with demo records", "count", len(records))
	}
	s.records = records
	if err := store.SaveStats(ctx, computeStats(records)); err != nil {
		logger.Warn("failed to persist stats snapshot", "error", err)
	}
	return s
}

func (s *Service) today() string {
	return s.now().UTC().Format(time.DateOnly)
}

// AddProject constructs a record from the input, filling every unset field
// with its documented default, and appends it to the collection. Duplicate
// company names are permitted.
func (s *Service) AddProject(ctx context.Context, input CreateInput) domain.DeploymentRecord {
	record := s.buildRecord(input)

	s.mu.Lock()
	s.records = append(s.records, record)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(events.EventAdded, record)
	s.logger.Info("project added", "id", record.ID, "company", record.CompanyName, "industry", record.Industry)
	return record.Clone()
}

func (s *Service) buildRecord(input CreateInput) domain.DeploymentRecord {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	}
	industry := strings.TrimSpace(input.Industry)
	if industry == "" {
		industry = domain.IndustryGeneral
	}
	status := input.Status
	if status == "" {
		status = domain.StatusActive
	}
	workers := defaultWorkerCount
	if input.WorkerCount != nil {
		workers = *input.WorkerCount
	}
	if workers < 0 {
		workers = 0
	}
	revenue := float64(defaultRevenue)
	if input.Revenue != nil {
		revenue = *input.Revenue
	}
	if revenue < 0 {
		revenue = 0
	}
	modules := input.Modules
	if len(modules) == 0 {
		modules = append([]string(nil), defaultModules...)
	}
	url := strings.TrimSpace(input.DeploymentURL)
	if url == "" {
		url = domain.DeploymentURLFor(input.CompanyName)
	}
	return domain.DeploymentRecord{
		ID:            id,
		CompanyName:   input.CompanyName,
		Industry:      industry,
		Icon:          domain.IconFor(industry),
		Status:        status,
		WorkerCount:   workers,
		Revenue:       revenue,
		Modules:       append([]string(nil), modules...),
		CreatedDate:   s.today(),
		DeploymentURL: url,
	}
}

// UpdateProject shallow-merges the provided fields into the record with the
// given id. Identity fields are never touched; the icon follows the industry.
// Returns repository.ErrNotFound for an unknown id.
func (s *Service) UpdateProject(ctx context.Context, id string, updates UpdateInput) (domain.DeploymentRecord, error) {
	s.mu.Lock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.DeploymentRecord{}, repository.ErrNotFound
	}
	record := &s.records[idx]
	if updates.CompanyName != nil {
		record.CompanyName = *updates.CompanyName
	}
	if updates.Industry != nil {
		record.Industry = *updates.Industry
		record.Icon = domain.IconFor(record.Industry)
	}
	if updates.Status != nil {
		record.Status = *updates.Status
	}
	if updates.WorkerCount != nil {
		record.WorkerCount = *updates.WorkerCount
		if record.WorkerCount < 0 {
			record.WorkerCount = 0
		}
	}
	if updates.Revenue != nil {
		record.Revenue = *updates.Revenue
		if record.Revenue < 0 {
			record.Revenue = 0
		}
	}
	if updates.Modules != nil {
		record.Modules = append([]string(nil), updates.Modules...)
	}
	if updates.DeploymentURL != nil {
		record.DeploymentURL = *updates.DeploymentURL
	}
	updated := record.Clone()
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(events.EventUpdated, updated)
	return updated, nil
}

// GetProject returns the record with the given id.
func (s *Service) GetProject(id string) (domain.DeploymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		return domain.DeploymentRecord{}, repository.ErrNotFound
	}
	return s.records[idx].Clone(), nil
}

// GetAllProjects returns a snapshot copy of the collection. Mutating the
// result does not affect registry state.
func (s *Service) GetAllProjects() []domain.DeploymentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DeploymentRecord, len(s.records))
	for i, rec := range s.records {
		out[i] = rec.Clone()
	}
	return out
}

// GetProjectsByIndustry filters the collection by exact industry match,
// preserving insertion order.
func (s *Service) GetProjectsByIndustry(industry string) []domain.DeploymentRecord {
	return s.filter(func(rec domain.DeploymentRecord) bool { return rec.Industry == industry })
}

// GetProjectsByStatus filters the collection by exact status match,
// preserving insertion order.
func (s *Service) GetProjectsByStatus(status string) []domain.DeploymentRecord {
	return s.filter(func(rec domain.DeploymentRecord) bool { return rec.Status == status })
}

func (s *Service) filter(keep func(domain.DeploymentRecord) bool) []domain.DeploymentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DeploymentRecord, 0)
	for _, rec := range s.records {
		if keep(rec) {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// GetStats computes aggregate statistics from the current collection. Pure
// read, no persistence side effect.
func (s *Service) GetStats() domain.AggregateStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return computeStats(s.records)
}

func computeStats(records []domain.DeploymentRecord) domain.AggregateStats {
	stats := domain.AggregateStats{TotalProjects: len(records)}
	for _, rec := range records {
		if rec.Status == domain.StatusActive {
			stats.ActiveProjects++
		}
		stats.TotalRevenue += rec.Revenue
		stats.TotalWorkers += rec.WorkerCount
	}
	if stats.TotalProjects > 0 {
		stats.AverageRevenue = stats.TotalRevenue / float64(stats.TotalProjects)
	}
	return stats
}

// CreateQuickDeployment creates a record from an industry template: modules
// and pricing come from the template table, status starts at "deploying",
// and a one-shot timer flips it to "active" after the configured delay. The
// timer is never cancelled; if the record is gone when it fires, the update
// is a harmless not-found.
func (s *Service) CreateQuickDeployment(ctx context.Context, templateID, companyName string, workerCount int) domain.DeploymentRecord {
	tpl := TemplateFor(templateID)
	if workerCount < 0 {
		workerCount = 0
	}
	revenue := tpl.BasePrice + tpl.WorkerPrice*float64(workerCount)
	status := domain.StatusDeploying
	record := s.AddProject(ctx, CreateInput{
		CompanyName: companyName,
		Industry:    templateID,
		Status:      status,
		WorkerCount: &workerCount,
		Revenue:     &revenue,
		Modules:     append([]string(nil), tpl.Modules...),
	})

	id := record.ID
	time.AfterFunc(s.quickDeployDelay, func() {
		active := domain.StatusActive
		if _, err := s.UpdateProject(context.Background(), id, UpdateInput{Status: &active}); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				s.logger.Warn("quick deployment activation failed", "id", id, "error", err)
			}
			return
		}
		s.logger.Info("quick deployment activated", "id", id)
	})
	return record
}

// Merge appends a record when its id is absent from the collection. Existing
// records are never overwritten. Reports whether the record was added.
func (s *Service) Merge(ctx context.Context, record domain.DeploymentRecord) bool {
	s.mu.Lock()
	if s.indexOfLocked(record.ID) >= 0 {
		s.mu.Unlock()
		return false
	}
	added := record.Clone()
	s.records = append(s.records, added)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.publish(events.EventAdded, added)
	return true
}

func (s *Service) indexOfLocked(id string) int {
	for i, rec := range s.records {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

// persistLocked re-serializes the full collection and the stats mirror.
// Storage failures degrade to local-only operation; they are logged, never
// surfaced.
func (s *Service) persistLocked(ctx context.Context) {
	if err := s.store.SaveRecords(ctx, s.records); err != nil {
		s.logger.Warn("failed to persist collection", "error", err)
	}
	stats := computeStats(s.records)
	if err := s.store.SaveStats(ctx, stats); err != nil {
		s.logger.Warn("failed to persist stats snapshot", "error", err)
	}
	s.publish(events.EventStatsUpdated, stats)
}

func (s *Service) publish(event string, data any) {
	if s.hub == nil {
		return
	}
	payload, err := events.Marshal(event, data)
	if err != nil {
		s.logger.Warn("failed to encode event", "event", event, "error", err)
		return
	}
	s.hub.Broadcast(event, payload)
}
