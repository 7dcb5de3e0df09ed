package seed

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prd-manager/internal/domain/entities"
	"prd-manager/internal/domain/services"
)

func newTestLoader() *Loader {
	return NewLoader(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDefaultSamples(t *testing.T) {
	samples, err := DefaultSamples()
	require.NoError(t, err)
	require.Len(t, samples, 10)

	assert.Equal(t, "User Authentication System", samples[0].Title)
	assert.Equal(t, []string{"security", "authentication"}, samples[0].Tags)
	assert.Equal(t, "Offline Mode", samples[9].Title)
}

func TestLoader_ApplyDefault(t *testing.T) {
	manager := services.NewPRDManager(nil)

	ids, err := newTestLoader().ApplyDefault(manager)
	require.NoError(t, err)
	require.Len(t, ids, 10)
	assert.Equal(t, 10, manager.Count())

	apiLimit, ok := manager.GetPRD(ids[3])
	require.True(t, ok)
	assert.Equal(t, "API Rate Limiting", apiLimit.Title)
	assert.Equal(t, entities.StatusInDevelopment, apiLimit.Status)
	assert.Equal(t, entities.PriorityCritical, apiLimit.Priority)
	assert.Equal(t, 65, apiLimit.CompletionPercentage)

	notifications, _ := manager.GetPRD(ids[5])
	assert.Equal(t, entities.StatusImplemented, notifications.Status)
	assert.Equal(t, 100, notifications.CompletionPercentage)

	biometric, _ := manager.GetPRD(ids[8])
	assert.Equal(t, entities.PriorityHigh, biometric.Priority)
	assert.Equal(t, entities.StatusDraft, biometric.Status)

	analytics := manager.GenerateAnalytics()
	assert.Equal(t, 2, analytics.TagCounts["security"])
	assert.InDelta(t, 25.5, analytics.AverageCompletion, 1e-9)
	assert.Len(t, manager.GetPRDsNeedingAttention(), 0)
}

func TestParse(t *testing.T) {
	t.Run("custom set", func(t *testing.T) {
		samples, err := Parse([]byte(`
- title: Search
  author: Platform
  status: in_development
  priority: low
  completion: 20
`))
		require.NoError(t, err)
		require.Len(t, samples, 1)

		manager := services.NewPRDManager(nil)
		ids, err := newTestLoader().Apply(manager, samples)
		require.NoError(t, err)

		prd, ok := manager.GetPRD(ids[0])
		require.True(t, ok)
		assert.Equal(t, entities.StatusInDevelopment, prd.Status)
		assert.Equal(t, entities.PriorityLow, prd.Priority)
		assert.Equal(t, 20, prd.CompletionPercentage)
		assert.True(t, prd.NeedsAttention())
	})

	tests := []struct {
		name string
		data string
	}{
		{"not yaml list", "title: lonely"},
		{"missing title", "- author: nobody"},
		{"unknown status", "- title: x\n  status: shipped"},
		{"unknown priority", "- title: x\n  priority: urgent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
