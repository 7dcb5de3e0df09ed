package cli

import (
	"fmt"
	"strings"

	"prd-manager/internal/domain/entities"
)

// CLIError represents an enhanced error with recovery suggestions
type CLIError struct {
	Code     string
	Message  string
	Details  string
	Recovery []RecoveryOption
	Err      error
}

// RecoveryOption provides a recovery suggestion
type RecoveryOption struct {
	Command     string
	Description string
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("\n❌ Error: %s\n", e.Message))

	if e.Details != "" {
		sb.WriteString(fmt.Sprintf("   Details: %s\n", e.Details))
	}

	if len(e.Recovery) > 0 {
		sb.WriteString("\n💡 Recovery options:\n")
		for i, opt := range e.Recovery {
			sb.WriteString(fmt.Sprintf("   %d. %s\n", i+1, opt.Description))
			sb.WriteString(fmt.Sprintf("      Run: %s\n", opt.Command))
		}
	}

	return sb.String()
}

// Unwrap returns the underlying cause
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewPRDNotFoundError creates an error for an unknown PRD id
func NewPRDNotFoundError(id string) *CLIError {
	return &CLIError{
		Code:    "PRD_NOT_FOUND",
		Message: fmt.Sprintf("PRD %s not found", id),
		Details: "No PRD with this id exists in the current collection",
		Recovery: []RecoveryOption{
			{
				Command:     "prdctl list",
				Description: "List all PRDs and their ids",
			},
			{
				Command:     "prdctl search <term>",
				Description: "Find a PRD by title or description",
			},
			{
				Command:     "prdctl --data <file> show " + id,
				Description: "Load the collection from a snapshot file first",
			},
		},
		Err: entities.ErrPRDNotFound,
	}
}

// NewInvalidArgumentError creates an error for an unparsable argument
func NewInvalidArgumentError(kind, value string, err error, valid []string) *CLIError {
	return &CLIError{
		Code:    "INVALID_ARGUMENT",
		Message: fmt.Sprintf("invalid %s: %q", kind, value),
		Details: "Valid values: " + strings.Join(valid, ", "),
		Err:     err,
	}
}

// NewImportError creates an error for a rejected import file
func NewImportError(path string, err error) *CLIError {
	return &CLIError{
		Code:    "IMPORT_FAILED",
		Message: fmt.Sprintf("could not import %s", path),
		Details: err.Error() + " (the collection was left unchanged)",
		Recovery: []RecoveryOption{
			{
				Command:     "prdctl export --format json",
				Description: "Compare with the JSON layout prdctl writes",
			},
		},
		Err: err,
	}
}

// NewSnapshotError creates an error for a data file that could not be read or written
func NewSnapshotError(operation string, err error) *CLIError {
	return &CLIError{
		Code:    "SNAPSHOT_FAILED",
		Message: fmt.Sprintf("failed to %s the PRD data file", operation),
		Details: err.Error(),
		Recovery: []RecoveryOption{
			{
				Command:     "prdctl config get storage.data_file",
				Description: "Check which data file is configured",
			},
			{
				Command:     "prdctl config set storage.data_file <path>",
				Description: "Point prdctl at a different data file",
			},
		},
		Err: err,
	}
}

func statusNames() []string {
	names := make([]string, 0, len(entities.AllStatuses()))
	for _, status := range entities.AllStatuses() {
		names = append(names, status.String())
	}
	return names
}

func priorityNames() []string {
	names := make([]string, 0, len(entities.AllPriorities()))
	for _, priority := range entities.AllPriorities() {
		names = append(names, priority.String())
	}
	return names
}
