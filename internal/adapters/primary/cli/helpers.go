package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const maxImportSize = 32 << 20

// truncate shortens s to maxLen runes, marking the cut with "..."
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, ", ")
}

// readInputFile validates a file path and reads its content
func readInputFile(file string) ([]byte, error) {
	cleanPath := filepath.Clean(file)

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", cleanPath)
	}
	if info.Size() > maxImportSize {
		return nil, fmt.Errorf("file too large: %d bytes", info.Size())
	}

	content, err := os.ReadFile(cleanPath) // #nosec G304 - Path validated above
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

// writeOutputFile writes exported content, creating parent directories
func writeOutputFile(file string, content []byte) error {
	cleanPath := filepath.Clean(file)

	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(cleanPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
