package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Metadata(t *testing.T) {
	tests := []struct {
		status Status
		name   string
		label  string
		icon   string
	}{
		{StatusDraft, "Draft", "Draft", "📝"},
		{StatusInReview, "InReview", "In Review", "👁️"},
		{StatusApproved, "Approved", "Approved", "✅"},
		{StatusInDevelopment, "InDevelopment", "In Development", "🔨"},
		{StatusTesting, "Testing", "Testing", "🧪"},
		{StatusImplemented, "Implemented", "Implemented", "⭐"},
		{StatusArchived, "Archived", "Archived", "📦"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Status(i), tt.status)
			assert.True(t, tt.status.IsValid())
			assert.Equal(t, tt.name, tt.status.String())
			assert.Equal(t, tt.label, tt.status.DisplayName())
			assert.Equal(t, tt.icon, tt.status.Icon())
		})
	}

	assert.Len(t, AllStatuses(), 7)
	assert.False(t, Status(7).IsValid())
	assert.Equal(t, "Status(7)", Status(7).String())
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    Status
		wantErr bool
	}{
		{"Draft", StatusDraft, false},
		{"in_review", StatusInReview, false},
		{"In Review", StatusInReview, false},
		{"in-development", StatusInDevelopment, false},
		{"TESTING", StatusTesting, false},
		{"5", StatusImplemented, false},
		{" archived ", StatusArchived, false},
		{"-1", StatusDraft, true},
		{"7", StatusDraft, true},
		{"", StatusDraft, true},
		{"shipped", StatusDraft, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriority_Metadata(t *testing.T) {
	assert.Equal(t, Priority(1), PriorityLow)
	assert.Equal(t, Priority(4), PriorityCritical)
	assert.Equal(t, "#28a745", PriorityLow.ColorCode())
	assert.Equal(t, "#ffc107", PriorityMedium.ColorCode())
	assert.Equal(t, "#fd7e14", PriorityHigh.ColorCode())
	assert.Equal(t, "#dc3545", PriorityCritical.ColorCode())
	assert.Equal(t, "High", PriorityHigh.DisplayName())
	assert.False(t, Priority(0).IsValid())
	assert.Len(t, AllPriorities(), 4)
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input   string
		want    Priority
		wantErr bool
	}{
		{"low", PriorityLow, false},
		{"Medium", PriorityMedium, false},
		{"HIGH", PriorityHigh, false},
		{"crit", PriorityCritical, false},
		{"4", PriorityCritical, false},
		{"0", PriorityMedium, true},
		{"urgent", PriorityMedium, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePriority(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnumJSON(t *testing.T) {
	type holder struct {
		Status   Status   `json:"status"`
		Priority Priority `json:"priority"`
	}

	data, err := json.Marshal(holder{Status: StatusInDevelopment, Priority: PriorityCritical})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"InDevelopment","priority":"Critical"}`, string(data))

	var fromNames holder
	require.NoError(t, json.Unmarshal(data, &fromNames))
	assert.Equal(t, StatusInDevelopment, fromNames.Status)
	assert.Equal(t, PriorityCritical, fromNames.Priority)

	var fromInts holder
	require.NoError(t, json.Unmarshal([]byte(`{"status":4,"priority":1}`), &fromInts))
	assert.Equal(t, StatusTesting, fromInts.Status)
	assert.Equal(t, PriorityLow, fromInts.Priority)

	var bad holder
	assert.Error(t, json.Unmarshal([]byte(`{"status":"Shipped"}`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`{"priority":12}`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`{"status":true}`), &bad))

	_, err = json.Marshal(holder{Status: Status(42), Priority: PriorityLow})
	assert.Error(t, err)
}

func TestStatusAsMapKey(t *testing.T) {
	data, err := json.Marshal(map[Status]float64{StatusTesting: 25})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Testing":25}`, string(data))
}
