package entities

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalytics_Rankings(t *testing.T) {
	a := NewAnalytics()
	a.TagCounts = map[string]int{"security": 2, "api": 2, "ui": 1, "mobile": 3}
	a.AuthorCounts = map[string]int{"Dev Team": 1, "UX Team": 4}

	assert.Equal(t, []CountEntry{
		{Key: "mobile", Count: 3},
		{Key: "api", Count: 2},
		{Key: "security", Count: 2},
		{Key: "ui", Count: 1},
	}, a.MostUsedTags(0))
	assert.Equal(t, []CountEntry{{Key: "mobile", Count: 3}, {Key: "api", Count: 2}}, a.MostUsedTags(2))
	assert.Equal(t, []CountEntry{{Key: "UX Team", Count: 4}, {Key: "Dev Team", Count: 1}}, a.TopContributors(5))
}

func TestAnalytics_EmptyRankings(t *testing.T) {
	a := NewAnalytics()
	assert.Empty(t, a.MostUsedTags(3))
	assert.Empty(t, a.TopContributors(0))
	assert.False(t, a.GeneratedAt.IsZero())
}

func TestImportError(t *testing.T) {
	cause := errors.New("boom")

	docErr := &ImportError{Index: -1, Err: cause}
	assert.ErrorIs(t, docErr, ErrMalformedImport)
	assert.ErrorIs(t, docErr, cause)
	assert.Equal(t, "malformed import payload: boom", docErr.Error())

	fieldErr := &ImportError{Index: 2, Field: "id", Err: ErrDuplicateID}
	assert.ErrorIs(t, fieldErr, ErrDuplicateID)
	assert.Contains(t, fieldErr.Error(), `record 2: field "id"`)

	recordErr := &ImportError{Index: 0, Err: cause}
	assert.Equal(t, "malformed import payload: record 0: boom", recordErr.Error())

	var target *ImportError
	assert.True(t, errors.As(error(fieldErr), &target))
	assert.Equal(t, 2, target.Index)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "table", cfg.CLI.OutputFormat)
	assert.Equal(t, PriorityMedium, cfg.Defaults.Priority)
	assert.NoError(t, validate.Struct(cfg))
}
