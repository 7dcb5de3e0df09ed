// Package entities defines core data structures and business entities
// for the PRD manager.
package entities

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Status represents the workflow stage of a PRD. Values are ordered by
// workflow progression, not alphabetically.
type Status int

const (
	StatusDraft Status = iota
	StatusInReview
	StatusApproved
	StatusInDevelopment
	StatusTesting
	StatusImplemented
	StatusArchived
)

type statusInfo struct {
	name  string
	label string
	icon  string
}

var statusTable = map[Status]statusInfo{
	StatusDraft:         {name: "Draft", label: "Draft", icon: "📝"},
	StatusInReview:      {name: "InReview", label: "In Review", icon: "👁️"},
	StatusApproved:      {name: "Approved", label: "Approved", icon: "✅"},
	StatusInDevelopment: {name: "InDevelopment", label: "In Development", icon: "🔨"},
	StatusTesting:       {name: "Testing", label: "Testing", icon: "🧪"},
	StatusImplemented:   {name: "Implemented", label: "Implemented", icon: "⭐"},
	StatusArchived:      {name: "Archived", label: "Archived", icon: "📦"},
}

// AllStatuses returns every status in workflow order.
func AllStatuses() []Status {
	return []Status{
		StatusDraft,
		StatusInReview,
		StatusApproved,
		StatusInDevelopment,
		StatusTesting,
		StatusImplemented,
		StatusArchived,
	}
}

// IsValid checks if a status value is one of the known statuses
func (s Status) IsValid() bool {
	_, ok := statusTable[s]
	return ok
}

// String returns the canonical name of the status (e.g. "InReview").
func (s Status) String() string {
	if info, ok := statusTable[s]; ok {
		return info.name
	}
	return "Status(" + strconv.Itoa(int(s)) + ")"
}

// DisplayName returns the human-readable label (e.g. "In Review").
func (s Status) DisplayName() string {
	if info, ok := statusTable[s]; ok {
		return info.label
	}
	return s.String()
}

// Icon returns the glyph shown next to a PRD in this status.
func (s Status) Icon() string {
	if info, ok := statusTable[s]; ok {
		return info.icon
	}
	return "❔"
}

// ParseStatus converts a canonical name, display label, snake/kebab-case
// form or integer value into a Status. Matching is case-insensitive.
func ParseStatus(s string) (Status, error) {
	key := normalizeEnumKey(s)
	if key == "" {
		return StatusDraft, fmt.Errorf("invalid status: %q", s)
	}

	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		status := Status(n)
		if !status.IsValid() {
			return StatusDraft, fmt.Errorf("invalid status: %q", s)
		}
		return status, nil
	}

	for _, status := range AllStatuses() {
		if key == normalizeEnumKey(status.String()) {
			return status, nil
		}
	}

	return StatusDraft, fmt.Errorf("invalid status: %q (valid: draft, in_review, approved, in_development, testing, implemented, archived)", s)
}

// MarshalText encodes the status as its canonical name. It also makes
// Status usable as a JSON object key.
func (s Status) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid status: %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes any form accepted by ParseStatus.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// UnmarshalJSON accepts either the canonical name or the raw integer value.
func (s *Status) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		status := Status(n)
		if !status.IsValid() {
			return fmt.Errorf("invalid status: %d", n)
		}
		*s = status
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("status must be a string or integer: %w", err)
	}
	return s.UnmarshalText([]byte(text))
}

// normalizeEnumKey folds case and drops separators so "In Review",
// "in_review", "in-review" and "InReview" compare equal.
func normalizeEnumKey(s string) string {
	replacer := strings.NewReplacer(" ", "", "_", "", "-", "")
	return strings.ToLower(replacer.Replace(strings.TrimSpace(s)))
}
