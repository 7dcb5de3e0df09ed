// Package seed loads sample PRD sets described in YAML into a manager.
package seed

import (
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"prd-manager/internal/domain/entities"
	"prd-manager/internal/domain/services"
)

//go:embed samples.yaml
var defaultSamples []byte

// Sample describes one PRD to create. Empty status, priority and a nil
// completion keep the defaults of a new PRD.
type Sample struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Author      string   `yaml:"author"`
	Tags        []string `yaml:"tags"`
	Status      string   `yaml:"status,omitempty"`
	Priority    string   `yaml:"priority,omitempty"`
	Completion  *int     `yaml:"completion,omitempty"`
}

// Manager is the subset of the PRD manager a seed is applied through
type Manager interface {
	CreatePRD(title, description, author string, options ...services.PRDOption) string
	UpdatePRDStatus(id string, status entities.Status) bool
	UpdatePRDCompletion(id string, percentage int) bool
}

// Loader applies sample sets to a manager
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a seed loader
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

// DefaultSamples returns the built-in sample set
func DefaultSamples() ([]Sample, error) {
	return Parse(defaultSamples)
}

// Parse decodes a YAML list of samples and checks their enum values
func Parse(data []byte) ([]Sample, error) {
	var samples []Sample
	if err := yaml.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("failed to parse samples: %w", err)
	}

	for i, sample := range samples {
		if sample.Title == "" {
			return nil, fmt.Errorf("sample %d: title is required", i)
		}
		if _, _, err := sample.enums(); err != nil {
			return nil, fmt.Errorf("sample %d (%s): %w", i, sample.Title, err)
		}
	}
	return samples, nil
}

// Apply creates every sample through the manager and returns the new ids
// in order.
func (l *Loader) Apply(m Manager, samples []Sample) ([]string, error) {
	ids := make([]string, 0, len(samples))
	for i, sample := range samples {
		status, priority, err := sample.enums()
		if err != nil {
			return ids, fmt.Errorf("sample %d (%s): %w", i, sample.Title, err)
		}

		options := []services.PRDOption{services.WithTags(sample.Tags...)}
		if priority != nil {
			options = append(options, services.WithPriority(*priority))
		}

		id := m.CreatePRD(sample.Title, sample.Description, sample.Author, options...)
		if status != nil {
			m.UpdatePRDStatus(id, *status)
		}
		if sample.Completion != nil {
			m.UpdatePRDCompletion(id, *sample.Completion)
		}
		ids = append(ids, id)
	}

	l.logger.Info("sample prds loaded", slog.Int("count", len(ids)))
	return ids, nil
}

// ApplyDefault loads the built-in sample set
func (l *Loader) ApplyDefault(m Manager) ([]string, error) {
	samples, err := DefaultSamples()
	if err != nil {
		return nil, err
	}
	return l.Apply(m, samples)
}

func (s Sample) enums() (*entities.Status, *entities.Priority, error) {
	var status *entities.Status
	if s.Status != "" {
		parsed, err := entities.ParseStatus(s.Status)
		if err != nil {
			return nil, nil, err
		}
		status = &parsed
	}

	var priority *entities.Priority
	if s.Priority != "" {
		parsed, err := entities.ParsePriority(s.Priority)
		if err != nil {
			return nil, nil, err
		}
		priority = &parsed
	}
	return status, priority, nil
}
