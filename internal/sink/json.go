// Package sink persists a finished aggregate as the JSON document the
// static site consumes.
package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eosguide/relief-finder/internal/models"
)

// WriteFile serializes the aggregate to indented JSON at path, creating
// parent directories as needed.
func WriteFile(path string, result *models.AggregateResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode aggregate: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a previously written aggregate.
func ReadFile(path string) (*models.AggregateResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var result models.AggregateResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &result, nil
}
