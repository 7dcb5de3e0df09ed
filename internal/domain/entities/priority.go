package entities

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Priority indicates PRD urgency
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

type priorityInfo struct {
	name      string
	colorCode string
}

var priorityTable = map[Priority]priorityInfo{
	PriorityLow:      {name: "Low", colorCode: "#28a745"},
	PriorityMedium:   {name: "Medium", colorCode: "#ffc107"},
	PriorityHigh:     {name: "High", colorCode: "#fd7e14"},
	PriorityCritical: {name: "Critical", colorCode: "#dc3545"},
}

// AllPriorities returns every priority from lowest to highest.
func AllPriorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
}

// IsValid checks if a priority value is one of the known priorities
func (p Priority) IsValid() bool {
	_, ok := priorityTable[p]
	return ok
}

// String returns the canonical name of the priority.
func (p Priority) String() string {
	if info, ok := priorityTable[p]; ok {
		return info.name
	}
	return "Priority(" + strconv.Itoa(int(p)) + ")"
}

// DisplayName returns the human-readable label. Priority labels and
// canonical names coincide.
func (p Priority) DisplayName() string {
	return p.String()
}

// ColorCode returns the hex color token used when rendering the priority.
func (p Priority) ColorCode() string {
	if info, ok := priorityTable[p]; ok {
		return info.colorCode
	}
	return "#6c757d"
}

// ParsePriority converts a name or integer value into a Priority,
// case-insensitively.
func ParsePriority(s string) (Priority, error) {
	trimmed := strings.TrimSpace(s)
	if n, err := strconv.Atoi(trimmed); err == nil {
		priority := Priority(n)
		if !priority.IsValid() {
			return PriorityMedium, fmt.Errorf("invalid priority: %q", s)
		}
		return priority, nil
	}

	switch strings.ToLower(trimmed) {
	case "low":
		return PriorityLow, nil
	case "medium", "med":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "critical", "crit":
		return PriorityCritical, nil
	default:
		return PriorityMedium, fmt.Errorf("invalid priority: %q (valid: low, medium, high, critical)", s)
	}
}

// MarshalText encodes the priority as its canonical name.
func (p Priority) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("invalid priority: %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText decodes any form accepted by ParsePriority.
func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// UnmarshalJSON accepts either the canonical name or the raw integer value.
func (p *Priority) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		priority := Priority(n)
		if !priority.IsValid() {
			return fmt.Errorf("invalid priority: %d", n)
		}
		*p = priority
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("priority must be a string or integer: %w", err)
	}
	return p.UnmarshalText([]byte(text))
}
