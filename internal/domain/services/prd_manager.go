// Package services implements business logic and use cases
// for the PRD manager.
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"prd-manager/internal/domain/entities"
)

const maxIDAttempts = 32

// PRDManager owns an ordered collection of PRDs and an id -> position
// index. Both are only ever changed together under mu.
type PRDManager struct {
	mu     sync.RWMutex
	prds   []*entities.PRD
	index  map[string]int
	logger *slog.Logger
	nextID func() string
}

// ManagerOption configures a PRDManager
type ManagerOption func(*PRDManager)

// PRDOption defines functional options applied to a freshly created PRD
type PRDOption func(*entities.PRD)

// WithIDGenerator replaces the default PRD id generator
func WithIDGenerator(gen func() string) ManagerOption {
	return func(m *PRDManager) {
		if gen != nil {
			m.nextID = gen
		}
	}
}

// WithPriority sets the priority of a new PRD
func WithPriority(priority entities.Priority) PRDOption {
	return func(p *entities.PRD) {
		if priority.IsValid() {
			p.SetPriority(priority)
		}
	}
}

// WithTags adds tags to a new PRD
func WithTags(tags ...string) PRDOption {
	return func(p *entities.PRD) {
		for _, tag := range tags {
			p.AddTag(tag)
		}
	}
}

// NewPRDManager creates an empty manager. A nil logger discards output.
func NewPRDManager(logger *slog.Logger, opts ...ManagerOption) *PRDManager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	m := &PRDManager{
		prds:   make([]*entities.PRD, 0),
		index:  make(map[string]int),
		logger: logger,
		nextID: entities.GenerateID,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreatePRD creates a PRD with default values, applies options and returns
// its id.
func (m *PRDManager) CreatePRD(title, description, author string, options ...PRDOption) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.uniqueID(func(id string) bool {
		_, taken := m.index[id]
		return taken
	})

	prd := entities.NewPRD(id, title, description, author)
	for _, option := range options {
		option(prd)
	}

	m.prds = append(m.prds, prd)
	m.index[id] = len(m.prds) - 1

	m.logger.Info("prd created",
		slog.String("prd_id", id),
		slog.String("title", title),
		slog.String("author", author),
		slog.String("priority", prd.Priority.String()))

	return id
}

// uniqueID draws ids until taken reports false. A generator that keeps
// colliding gets a numeric suffix instead of looping forever.
func (m *PRDManager) uniqueID(taken func(string) bool) string {
	var id string
	for range maxIDAttempts {
		id = m.nextID()
		if id != "" && !taken(id) {
			return id
		}
	}

	base := id
	if base == "" {
		base = entities.GenerateID()
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if !taken(candidate) {
			m.logger.Warn("prd id generator kept colliding, using suffixed id",
				slog.String("prd_id", candidate))
			return candidate
		}
	}
}

// GetPRD returns the stored record, not a copy
func (m *PRDManager) GetPRD(id string) (*entities.PRD, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pos, ok := m.index[id]
	if !ok {
		return nil, false
	}
	return m.prds[pos], true
}

// GetAllPRDs returns every PRD in insertion order
func (m *PRDManager) GetAllPRDs() []*entities.PRD {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.prds)
}

// Count returns the number of PRDs
func (m *PRDManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.prds)
}

// GetPRDsByStatus returns PRDs with the given status in insertion order
func (m *PRDManager) GetPRDsByStatus(status entities.Status) []*entities.PRD {
	return m.filter(func(p *entities.PRD) bool { return p.Status == status })
}

// GetPRDsByPriority returns PRDs with the given priority in insertion order
func (m *PRDManager) GetPRDsByPriority(priority entities.Priority) []*entities.PRD {
	return m.filter(func(p *entities.PRD) bool { return p.Priority == priority })
}

// GetPRDsByTag returns PRDs carrying the tag in insertion order
func (m *PRDManager) GetPRDsByTag(tag string) []*entities.PRD {
	return m.filter(func(p *entities.PRD) bool { return p.HasTag(tag) })
}

// SearchPRDs matches term case-insensitively against title, description
// and tags. An empty term matches every PRD.
func (m *PRDManager) SearchPRDs(term string) []*entities.PRD {
	needle := entities.FoldText(term)
	return m.filter(func(p *entities.PRD) bool {
		if strings.Contains(entities.FoldText(p.Title), needle) ||
			strings.Contains(entities.FoldText(p.Description), needle) {
			return true
		}
		for _, tag := range p.Tags {
			if strings.Contains(tag, needle) {
				return true
			}
		}
		return false
	})
}

// GetPRDsNeedingAttention returns PRDs matching the triage rule in
// insertion order
func (m *PRDManager) GetPRDsNeedingAttention() []*entities.PRD {
	return m.filter((*entities.PRD).NeedsAttention)
}

// RecentPRDs returns up to limit PRDs, most recently updated first. A
// non-positive limit returns all of them.
func (m *PRDManager) RecentPRDs(limit int) []*entities.PRD {
	prds := m.GetAllPRDs()
	slices.SortStableFunc(prds, func(a, b *entities.PRD) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})

	if limit > 0 && len(prds) > limit {
		prds = prds[:limit]
	}
	return prds
}

func (m *PRDManager) filter(match func(*entities.PRD) bool) []*entities.PRD {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*entities.PRD, 0)
	for _, prd := range m.prds {
		if match(prd) {
			result = append(result, prd)
		}
	}
	return result
}

// UpdatePRDStatus returns false without effect when id is unknown or
// status is not a known value
func (m *PRDManager) UpdatePRDStatus(id string, status entities.Status) bool {
	if !status.IsValid() {
		m.logger.Debug("invalid prd status", slog.String("prd_id", id), slog.Int("status", int(status)))
		return false
	}
	return m.mutate(id, "prd status updated", func(p *entities.PRD) {
		p.UpdateStatus(status)
	}, slog.String("status", status.String()))
}

// UpdatePRDCompletion returns false without effect when id is unknown
func (m *PRDManager) UpdatePRDCompletion(id string, percentage int) bool {
	return m.mutate(id, "prd completion updated", func(p *entities.PRD) {
		p.SetCompletionPercentage(percentage)
	}, slog.Int("completion", entities.ClampCompletion(percentage)))
}

// UpdatePRDPriority returns false without effect when id is unknown or
// priority is not a known value
func (m *PRDManager) UpdatePRDPriority(id string, priority entities.Priority) bool {
	if !priority.IsValid() {
		m.logger.Debug("invalid prd priority", slog.String("prd_id", id), slog.Int("priority", int(priority)))
		return false
	}
	return m.mutate(id, "prd priority updated", func(p *entities.PRD) {
		p.SetPriority(priority)
	}, slog.String("priority", priority.String()))
}

// AddPRDTag returns false without effect when id is unknown
func (m *PRDManager) AddPRDTag(id, tag string) bool {
	return m.mutate(id, "prd tag added", func(p *entities.PRD) {
		p.AddTag(tag)
	}, slog.String("tag", entities.NormalizeTag(tag)))
}

// UpdatePRDDetails returns false without effect when id is unknown
func (m *PRDManager) UpdatePRDDetails(id, title, description, author string) bool {
	return m.mutate(id, "prd details updated", func(p *entities.PRD) {
		p.UpdateDetails(title, description, author)
	})
}

func (m *PRDManager) mutate(id, event string, apply func(*entities.PRD), attrs ...slog.Attr) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.index[id]
	if !ok {
		m.logger.Debug("prd not found", slog.String("prd_id", id))
		return false
	}

	apply(m.prds[pos])

	args := []any{slog.String("prd_id", id)}
	for _, attr := range attrs {
		args = append(args, attr)
	}
	m.logger.Debug(event, args...)
	return true
}

// GenerateAnalytics computes every grouped count and the average
// completion in one pass
func (m *PRDManager) GenerateAnalytics() entities.Analytics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	analytics := entities.NewAnalytics()
	total := 0
	for _, prd := range m.prds {
		analytics.StatusCounts[prd.Status.DisplayName()]++
		analytics.PriorityCounts[prd.Priority.DisplayName()]++
		analytics.AuthorCounts[prd.Author]++
		for _, tag := range prd.Tags {
			analytics.TagCounts[tag]++
		}
		total += prd.CompletionPercentage
	}

	analytics.TotalPRDs = len(m.prds)
	if analytics.TotalPRDs > 0 {
		analytics.AverageCompletion = float64(total) / float64(analytics.TotalPRDs)
	}
	return analytics
}

// GetCompletionStats returns min, max and mean completion. All zero when
// the manager is empty.
func (m *PRDManager) GetCompletionStats() entities.CompletionStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.prds) == 0 {
		return entities.CompletionStats{}
	}

	stats := entities.CompletionStats{
		Min: m.prds[0].CompletionPercentage,
		Max: m.prds[0].CompletionPercentage,
	}
	total := 0
	for _, prd := range m.prds {
		stats.Min = min(stats.Min, prd.CompletionPercentage)
		stats.Max = max(stats.Max, prd.CompletionPercentage)
		total += prd.CompletionPercentage
	}
	stats.Average = float64(total) / float64(len(m.prds))
	return stats
}

// GetStatusProgressReport returns the average completion for every status,
// 0.0 for statuses without PRDs
func (m *PRDManager) GetStatusProgressReport() map[entities.Status]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sums := make(map[entities.Status]int)
	counts := make(map[entities.Status]int)
	for _, prd := range m.prds {
		sums[prd.Status] += prd.CompletionPercentage
		counts[prd.Status]++
	}

	report := make(map[entities.Status]float64, len(entities.AllStatuses()))
	for _, status := range entities.AllStatuses() {
		report[status] = 0.0
		if counts[status] > 0 {
			report[status] = float64(sums[status]) / float64(counts[status])
		}
	}
	return report
}

// ExportToJSON serializes every PRD as a 2-space indented JSON array
func (m *PRDManager) ExportToJSON() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := json.MarshalIndent(m.prds, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to export prds: %w", err)
	}
	return string(data), nil
}

// ImportFromJSON replaces the whole collection with the PRDs in text. On
// any error the existing collection is left untouched and an
// *entities.ImportError is returned.
func (m *PRDManager) ImportFromJSON(text string) error {
	prds, err := m.decodeImport(text)
	if err != nil {
		m.logger.Warn("prd import rejected", slog.Any("error", err))
		return err
	}

	index := make(map[string]int, len(prds))
	for pos, prd := range prds {
		index[prd.ID] = pos
	}

	m.mu.Lock()
	m.prds = prds
	m.index = index
	m.mu.Unlock()

	m.logger.Info("prds imported", slog.Int("count", len(prds)))
	return nil
}

func (m *PRDManager) decodeImport(text string) ([]*entities.PRD, error) {
	var records []json.RawMessage
	if err := json.Unmarshal([]byte(text), &records); err != nil {
		return nil, &entities.ImportError{Index: -1, Err: err}
	}
	if records == nil {
		return nil, &entities.ImportError{Index: -1, Err: entities.ErrNotArray}
	}

	prds := make([]*entities.PRD, 0, len(records))
	taken := make(map[string]bool, len(records))
	for i, raw := range records {
		var prd entities.PRD
		if err := json.Unmarshal(raw, &prd); err != nil {
			return nil, &entities.ImportError{Index: i, Field: jsonErrorField(err), Err: err}
		}
		if string(raw) == "null" {
			return nil, &entities.ImportError{Index: i, Err: entities.ErrMissingField}
		}

		if prd.ID != "" {
			if taken[prd.ID] {
				return nil, &entities.ImportError{Index: i, Field: "id", Err: entities.ErrDuplicateID}
			}
			taken[prd.ID] = true
		}
		prds = append(prds, &prd)
	}

	// Generated ids must not collide with explicit ids of later records.
	for i, prd := range prds {
		if prd.ID == "" {
			prd.ID = m.uniqueID(func(id string) bool { return taken[id] })
			taken[prd.ID] = true
		}

		normalizeImported(prd)
		if err := prd.Validate(); err != nil {
			return nil, &entities.ImportError{Index: i, Field: entities.ValidationField(err), Err: err}
		}
	}
	return prds, nil
}

// normalizeImported applies the same rules mutations enforce, so imported
// records satisfy the invariants of created ones.
func normalizeImported(prd *entities.PRD) {
	if !prd.Priority.IsValid() {
		prd.Priority = entities.PriorityMedium
	}
	prd.CompletionPercentage = entities.ClampCompletion(prd.CompletionPercentage)

	tags := make([]string, 0, len(prd.Tags))
	for _, tag := range prd.Tags {
		tag = entities.NormalizeTag(tag)
		if tag != "" && !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	prd.Tags = tags

	if prd.CreatedAt.IsZero() {
		prd.CreatedAt = time.Now().UTC()
	}
	if prd.UpdatedAt.IsZero() {
		prd.UpdatedAt = prd.CreatedAt
	}
}

func jsonErrorField(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return typeErr.Field
	}
	return ""
}
